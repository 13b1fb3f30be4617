package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/agents/internal/tensor"
)

// BornReader reads state dicts from .born files. The tensor data section
// is read and checksummed once when the reader is opened.
type BornReader struct {
	header   Header
	flags    uint32
	checksum [ChecksumSize]byte
	data     []byte
	closed   bool
}

// NewBornReader opens path and verifies its header and checksum.
func NewBornReader(path string) (*BornReader, error) {
	//nolint:gosec // G304: path is chosen by the caller loading a policy
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadFrom(file)
}

// ReadFrom parses a complete .born stream.
func ReadFrom(in io.Reader) (*BornReader, error) {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(in, fixed); err != nil {
		return nil, fmt.Errorf("failed to read fixed header: %w", err)
	}
	if string(fixed[0:4]) != MagicBytes {
		return nil, ErrInvalidMagic
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	r := &BornReader{flags: binary.LittleEndian.Uint32(fixed[8:12])}
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	dataSize := binary.LittleEndian.Uint64(fixed[24:32])
	copy(r.checksum[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(in, headerJSON); err != nil {
		return nil, fmt.Errorf("failed to read header JSON: %w", err)
	}
	if err := json.Unmarshal(headerJSON, &r.header); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	//nolint:gosec // G115: headerSize bounded by MaxHeaderSize
	padding := alignmentPadding(int64(FixedHeaderSize) + int64(headerSize))
	if _, err := io.CopyN(io.Discard, in, padding); err != nil {
		return nil, fmt.Errorf("failed to skip padding: %w", err)
	}

	var buf bytes.Buffer
	//nolint:gosec // G115: dataSize is checked against what is actually read
	n, err := io.CopyN(&buf, in, int64(dataSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read tensor data (%d of %d bytes): %w", n, dataSize, err)
	}
	r.data = buf.Bytes()

	if err := ValidateChecksum(ComputeChecksum(r.data), r.checksum); err != nil {
		return nil, err
	}
	if err := ValidateHeader(&r.header, int64(len(r.data))); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return r, nil
}

// Header returns the file header.
func (r *BornReader) Header() Header {
	return r.header
}

// Metadata returns the custom metadata map.
func (r *BornReader) Metadata() map[string]string {
	return r.header.Metadata
}

// Checksum returns the stored SHA-256 of the data section.
func (r *BornReader) Checksum() [ChecksumSize]byte {
	return r.checksum
}

// TensorNames returns tensor names in file order.
func (r *BornReader) TensorNames() []string {
	names := make([]string, len(r.header.Tensors))
	for i, t := range r.header.Tensors {
		names[i] = t.Name
	}
	return names
}

// TensorInfo returns the metadata of the named tensor.
func (r *BornReader) TensorInfo(name string) (*TensorMeta, error) {
	for i := range r.header.Tensors {
		if r.header.Tensors[i].Name == name {
			return &r.header.Tensors[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
}

// LoadTensor copies a single tensor out of the file.
func (r *BornReader) LoadTensor(name string, backend tensor.Backend) (*tensor.RawTensor, error) {
	if r.closed {
		return nil, ErrClosed
	}

	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	dtype, err := tensor.ParseDataType(meta.DType)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}

	raw, err := tensor.NewRaw(tensor.Shape(meta.Shape), dtype, backend.Device())
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}
	copy(raw.Data(), r.data[meta.Offset:meta.Offset+meta.Size])

	return raw, nil
}

// ReadStateDict loads every tensor.
func (r *BornReader) ReadStateDict(backend tensor.Backend) (map[string]*tensor.RawTensor, error) {
	stateDict := make(map[string]*tensor.RawTensor, len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		raw, err := r.LoadTensor(meta.Name, backend)
		if err != nil {
			return nil, fmt.Errorf("failed to load tensor %s: %w", meta.Name, err)
		}
		stateDict[meta.Name] = raw
	}
	return stateDict, nil
}

// Close releases the in-memory data section.
func (r *BornReader) Close() error {
	r.closed = true
	r.data = nil
	return nil
}
