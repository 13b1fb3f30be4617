// Package serialization implements the .born weight file used for saved
// policy variables.
//
// Layout (format version 2, all integers little-endian):
//
//	0x00  [4]byte  magic "BORN"
//	0x04  uint32   format version
//	0x08  uint32   flags
//	0x0C  uint32   reserved
//	0x10  uint64   JSON header size
//	0x18  uint64   tensor data size
//	0x20  [32]byte SHA-256 of the tensor data section
//	0x40  JSON header, zero padded to a 64-byte boundary
//	      tensor data, concatenated in header order
//
// Tensors are written sorted by name, so the same state dict always
// produces the same data section and checksum.
//
//	w, err := serialization.NewBornWriter("variables.born")
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//	err = w.WriteStateDict(stateDict, serialization.Header{ModelType: "QNetwork"})
//
//	r, err := serialization.NewBornReader("variables.born")
//	if err != nil {
//	    return err // wraps ErrChecksumMismatch for corrupted data
//	}
//	defer r.Close()
//	stateDict, err := r.ReadStateDict(backend)
package serialization
