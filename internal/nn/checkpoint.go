package nn

import (
	"fmt"
	"sort"

	"github.com/born-ml/agents/internal/serialization"
	"github.com/born-ml/agents/internal/tensor"
)

// SaveWeights writes model's state dict to a .born file at path. header
// supplies ModelType and Metadata.
func SaveWeights(path string, model Stateful, header serialization.Header) (err error) {
	writer, err := serialization.NewBornWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := writer.WriteStateDict(model.StateDict(), header); err != nil {
		return fmt.Errorf("failed to write weights: %w", err)
	}
	return nil
}

// LoadWeights reads path into model. The file must contain exactly the
// tensors model.StateDict() names. The file header is returned.
func LoadWeights(path string, model Stateful, backend tensor.Backend) (serialization.Header, error) {
	reader, err := serialization.NewBornReader(path)
	if err != nil {
		return serialization.Header{}, fmt.Errorf("failed to create reader: %w", err)
	}
	defer reader.Close()

	stateDict, err := reader.ReadStateDict(backend)
	if err != nil {
		return serialization.Header{}, err
	}

	if missing, extra := diffKeys(model.StateDict(), stateDict); len(missing)+len(extra) > 0 {
		return serialization.Header{}, fmt.Errorf("state dict mismatch: missing %v, unexpected %v", missing, extra)
	}

	if err := model.LoadStateDict(stateDict); err != nil {
		return serialization.Header{}, fmt.Errorf("failed to load weights: %w", err)
	}
	return reader.Header(), nil
}

func diffKeys(want, got map[string]*tensor.RawTensor) (missing, extra []string) {
	for k := range want {
		if _, ok := got[k]; !ok {
			missing = append(missing, k)
		}
	}
	for k := range got {
		if _, ok := want[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return missing, extra
}
