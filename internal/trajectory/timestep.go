// Package trajectory defines time steps: the (step type, reward,
// discount, observation) records a policy consumes.
package trajectory

import (
	"fmt"

	"github.com/born-ml/agents/internal/specs"
	"github.com/born-ml/agents/internal/tensor"
)

// StepType marks the position of a step within an episode.
type StepType int32

// Step types.
const (
	First StepType = iota
	Mid
	Last
)

// String returns FIRST, MID or LAST.
func (s StepType) String() string {
	switch s {
	case First:
		return "FIRST"
	case Mid:
		return "MID"
	case Last:
		return "LAST"
	default:
		return fmt.Sprintf("StepType(%d)", int32(s))
	}
}

// TimeStep is one batched step of environment interaction. Fields share
// the leading batch dimension; StepType is int32, Reward and Discount are
// float32. Treat a TimeStep as immutable.
type TimeStep struct {
	StepType    *tensor.RawTensor
	Reward      *tensor.RawTensor
	Discount    *tensor.RawTensor
	Observation *tensor.RawTensor
}

// Flatten returns the fields in spec order.
func (ts TimeStep) Flatten() []*tensor.RawTensor {
	return []*tensor.RawTensor{ts.StepType, ts.Reward, ts.Discount, ts.Observation}
}

// FromFlat rebuilds a TimeStep from Flatten's order.
func FromFlat(values []*tensor.RawTensor) (TimeStep, error) {
	if len(values) != 4 {
		return TimeStep{}, fmt.Errorf("time step needs 4 fields, got %d", len(values))
	}
	return TimeStep{StepType: values[0], Reward: values[1], Discount: values[2], Observation: values[3]}, nil
}

// BatchSize returns the leading dimension of the step type tensor.
func (ts TimeStep) BatchSize() int {
	if ts.StepType == nil || len(ts.StepType.Shape()) == 0 {
		return 0
	}
	return ts.StepType.Shape()[0]
}

// IsFirst reports, per batch row, whether the step starts an episode.
func (ts TimeStep) IsFirst() []bool {
	types := ts.StepType.AsInt32()
	out := make([]bool, len(types))
	for i, t := range types {
		out[i] = StepType(t) == First
	}
	return out
}

// Spec describes each TimeStep field.
type Spec struct {
	StepType    specs.TensorSpec `json:"step_type" yaml:"step_type"`
	Reward      specs.TensorSpec `json:"reward" yaml:"reward"`
	Discount    specs.TensorSpec `json:"discount" yaml:"discount"`
	Observation specs.TensorSpec `json:"observation" yaml:"observation"`
}

// NewSpec returns the default spec around an observation spec: step_type
// int32 in [0, 2], reward float32, discount float32 in [0, 1].
func NewSpec(observation specs.TensorSpec) Spec {
	return Spec{
		StepType:    specs.NewBounded("step_type", tensor.Int32, nil, float64(First), float64(Last)),
		Reward:      specs.New("reward", tensor.Float32, nil),
		Discount:    specs.NewBounded("discount", tensor.Float32, nil, 0, 1),
		Observation: observation,
	}
}

// Flatten returns the field specs in TimeStep.Flatten order.
func (s Spec) Flatten() []specs.TensorSpec {
	return []specs.TensorSpec{s.StepType, s.Reward, s.Discount, s.Observation}
}

// Validate checks dtypes of the fixed fields and name uniqueness.
func (s Spec) Validate() error {
	if s.StepType.DType != tensor.Int32 {
		return fmt.Errorf("step type spec must be int32, got %s", s.StepType.DType)
	}
	if s.Reward.DType != tensor.Float32 || s.Discount.DType != tensor.Float32 {
		return fmt.Errorf("reward and discount specs must be float32")
	}
	return specs.Validate(s.Flatten())
}

// Check verifies ts against the spec with a leading batch dimension and
// a consistent batch size across fields.
func (s Spec) Check(ts TimeStep) error {
	batched := specs.WithOuterDims(s.Flatten(), specs.UnknownDim)
	values := ts.Flatten()
	for i, spec := range batched {
		if err := spec.Check(values[i]); err != nil {
			return err
		}
	}
	batch := ts.BatchSize()
	for i, v := range values {
		if v.Shape()[0] != batch {
			return &specs.MismatchError{
				Field: batched[i].Name,
				Want:  fmt.Sprintf("batch size %d", batch),
				Got:   fmt.Sprintf("batch size %d", v.Shape()[0]),
			}
		}
	}
	return nil
}
