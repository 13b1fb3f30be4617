package specs

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/agents/internal/tensor"
)

// Flatten concatenates spec groups in order. A policy's action signature
// inputs are Flatten(timeStepSpecs, stateSpecs).
func Flatten(groups ...[]TensorSpec) []TensorSpec {
	var out []TensorSpec
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Names returns the spec names in order.
func Names(list []TensorSpec) []string {
	names := make([]string, len(list))
	for i, s := range list {
		names[i] = s.Name
	}
	return names
}

// Find returns the spec called name.
func Find(list []TensorSpec, name string) (TensorSpec, bool) {
	for _, s := range list {
		if s.Name == name {
			return s, true
		}
	}
	return TensorSpec{}, false
}

// WithOuterDims applies WithOuterDims to every spec.
func WithOuterDims(list []TensorSpec, dims ...int) []TensorSpec {
	out := make([]TensorSpec, len(list))
	for i, s := range list {
		out[i] = s.WithOuterDims(dims...)
	}
	return out
}

// Unbounded strips bounds from every spec.
func Unbounded(list []TensorSpec) []TensorSpec {
	out := make([]TensorSpec, len(list))
	for i, s := range list {
		out[i] = s.Unbounded()
	}
	return out
}

// EqualLists compares two spec lists element-wise with TensorSpec.Equal.
func EqualLists(a, b []TensorSpec) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Validate checks that names are non-empty and unique.
func Validate(list []TensorSpec) error {
	seen := make(map[string]struct{}, len(list))
	for _, s := range list {
		if s.Name == "" {
			return fmt.Errorf("spec %v has no name", s)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("duplicate spec name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}

// SampleNest samples every spec in order from one stream.
func SampleNest(list []TensorSpec, rng *rand.Rand, outer ...int) ([]*tensor.RawTensor, error) {
	out := make([]*tensor.RawTensor, len(list))
	for i, s := range list {
		raw, err := s.Sample(rng, outer...)
		if err != nil {
			return nil, err
		}
		out[i] = raw
	}
	return out, nil
}

// ToMap keys values by the name of the spec at the same position.
func ToMap(list []TensorSpec, values []*tensor.RawTensor) (map[string]*tensor.RawTensor, error) {
	if len(list) != len(values) {
		return nil, fmt.Errorf("%d specs but %d values", len(list), len(values))
	}
	out := make(map[string]*tensor.RawTensor, len(list))
	for i, s := range list {
		out[s.Name] = values[i]
	}
	return out, nil
}

// FromMap orders values by list and checks each against its spec. Missing
// and unexpected keys are reported as *MismatchError.
func FromMap(list []TensorSpec, values map[string]*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	out := make([]*tensor.RawTensor, len(list))
	for i, s := range list {
		raw, ok := values[s.Name]
		if !ok {
			return nil, &MismatchError{Field: s.Name, Want: s.describe(), Got: "missing input"}
		}
		if err := s.Check(raw); err != nil {
			return nil, err
		}
		out[i] = raw
	}
	if len(values) > len(list) {
		for name := range values {
			if _, ok := Find(list, name); !ok {
				return nil, &MismatchError{Field: name, Want: "no such input", Got: values[name].String()}
			}
		}
	}
	return out, nil
}
