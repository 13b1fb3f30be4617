package policysaver

import (
	"fmt"
	"slices"

	"github.com/born-ml/agents/internal/specs"
	"github.com/born-ml/agents/internal/tensor"
)

// Signature is a flat, named entry point of a SavedPolicy. Inputs and
// outputs are keyed by spec name.
type Signature struct {
	name string
	def  SignatureDef
	call func(inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error)
}

// Name returns the signature name.
func (s *Signature) Name() string {
	return s.name
}

// InputSpecs returns the flat input specs in call order.
func (s *Signature) InputSpecs() []specs.TensorSpec {
	return slices.Clone(s.def.Inputs)
}

// OutputSpecs returns the flat output specs.
func (s *Signature) OutputSpecs() []specs.TensorSpec {
	return slices.Clone(s.def.Outputs)
}

// Call checks inputs against InputSpecs and evaluates the signature.
// Every input must be present; extra keys are rejected.
func (s *Signature) Call(inputs map[string]*tensor.RawTensor) (map[string]*tensor.RawTensor, error) {
	values, err := specs.FromMap(s.def.Inputs, inputs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}

	outputs, err := s.call(values)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}
	if len(outputs) != len(s.def.Outputs) {
		return nil, fmt.Errorf("%s: %d outputs, want %d", s.name, len(outputs), len(s.def.Outputs))
	}
	for i, spec := range s.def.Outputs {
		if err := spec.Check(outputs[i]); err != nil {
			return nil, fmt.Errorf("%s output: %w", s.name, err)
		}
	}
	return specs.ToMap(s.def.Outputs, outputs)
}
