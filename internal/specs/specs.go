// Package specs describes the dtype, shape and value range of tensors
// flowing in and out of policies.
package specs

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/born-ml/agents/internal/tensor"
)

// UnknownDim in a spec shape matches a dimension of any size. Saved
// signatures use it for the batch dimension when no batch size is fixed.
const UnknownDim = -1

// ErrMismatch is wrapped by every *MismatchError.
var ErrMismatch = errors.New("spec mismatch")

// Bounds is an inclusive value range applied element-wise.
type Bounds struct {
	Minimum float64 `json:"minimum" yaml:"minimum"`
	Maximum float64 `json:"maximum" yaml:"maximum"`
}

// TensorSpec describes one named tensor. Bounds is nil for unbounded specs.
type TensorSpec struct {
	Name   string          `json:"name" yaml:"name"`
	DType  tensor.DataType `json:"dtype" yaml:"dtype"`
	Shape  tensor.Shape    `json:"shape" yaml:"shape,flow"`
	Bounds *Bounds         `json:"bounds,omitempty" yaml:"bounds,omitempty"`
}

// New returns an unbounded spec.
func New(name string, dtype tensor.DataType, shape tensor.Shape) TensorSpec {
	if shape == nil {
		shape = tensor.Shape{}
	}
	return TensorSpec{Name: name, DType: dtype, Shape: shape}
}

// NewBounded returns a spec whose values lie in [minimum, maximum].
func NewBounded(name string, dtype tensor.DataType, shape tensor.Shape, minimum, maximum float64) TensorSpec {
	if minimum > maximum {
		panic(fmt.Sprintf("specs.NewBounded(%q): minimum %v > maximum %v", name, minimum, maximum))
	}
	s := New(name, dtype, shape)
	s.Bounds = &Bounds{Minimum: minimum, Maximum: maximum}
	return s
}

// IsBounded reports whether the spec carries a value range.
func (s TensorSpec) IsBounded() bool {
	return s.Bounds != nil
}

// NumValues returns the number of discrete values of a bounded integer
// spec (maximum - minimum + 1).
func (s TensorSpec) NumValues() (int, error) {
	if s.Bounds == nil || s.DType.IsFloat() || s.DType == tensor.Bool {
		return 0, fmt.Errorf("spec %q: discrete values need a bounded integer spec", s.Name)
	}
	return int(s.Bounds.Maximum-s.Bounds.Minimum) + 1, nil
}

// WithOuterDims prepends dims to the shape; bounds and name are kept.
func (s TensorSpec) WithOuterDims(dims ...int) TensorSpec {
	out := s
	out.Shape = s.Shape.Prepend(dims...)
	if s.Bounds != nil {
		b := *s.Bounds
		out.Bounds = &b
	}
	return out
}

// Unbounded returns the spec without its value range. Signature specs
// carry only name, dtype and shape.
func (s TensorSpec) Unbounded() TensorSpec {
	out := s
	out.Shape = s.Shape.Clone()
	out.Bounds = nil
	return out
}

// Equal compares name, dtype and shape. Bounds are ignored.
func (s TensorSpec) Equal(other TensorSpec) bool {
	return s.Name == other.Name && s.DType == other.DType && slices.Equal(s.Shape, other.Shape)
}

// String formats the spec as TensorSpec(name, dtype, shape).
func (s TensorSpec) String() string {
	if s.Bounds != nil {
		return fmt.Sprintf("BoundedTensorSpec(name=%q, dtype=%s, shape=%v, minimum=%v, maximum=%v)",
			s.Name, s.DType, []int(s.Shape), s.Bounds.Minimum, s.Bounds.Maximum)
	}
	return fmt.Sprintf("TensorSpec(name=%q, dtype=%s, shape=%v)", s.Name, s.DType, []int(s.Shape))
}

// Check reports a *MismatchError when raw's dtype or shape disagree with
// the spec. UnknownDim matches any size.
func (s TensorSpec) Check(raw *tensor.RawTensor) error {
	if raw == nil {
		return &MismatchError{Field: s.Name, Want: s.describe(), Got: "nothing"}
	}
	if raw.DType() != s.DType || !s.matchesShape(raw.Shape()) {
		return &MismatchError{
			Field: s.Name,
			Want:  s.describe(),
			Got:   fmt.Sprintf("%s%v", raw.DType(), []int(raw.Shape())),
		}
	}
	return nil
}

// Contains reports whether every element of raw lies within the bounds.
// Unbounded specs contain everything.
func (s TensorSpec) Contains(raw *tensor.RawTensor) bool {
	if s.Bounds == nil {
		return true
	}
	for _, v := range raw.Float64s() {
		if v < s.Bounds.Minimum || v > s.Bounds.Maximum {
			return false
		}
	}
	return true
}

func (s TensorSpec) matchesShape(shape tensor.Shape) bool {
	if len(shape) != len(s.Shape) {
		return false
	}
	for i, d := range s.Shape {
		if d != UnknownDim && d != shape[i] {
			return false
		}
	}
	return true
}

func (s TensorSpec) describe() string {
	return fmt.Sprintf("%s%v", s.DType, []int(s.Shape))
}

// Zeros returns a zero tensor of the spec's dtype with outer dims prepended.
func (s TensorSpec) Zeros(outer ...int) (*tensor.RawTensor, error) {
	raw, err := tensor.NewRaw(s.Shape.Prepend(outer...), s.DType, tensor.CPU)
	if err != nil {
		return nil, fmt.Errorf("spec %q: %w", s.Name, err)
	}
	return raw, nil
}

// Sample draws a tensor matching the spec with outer dims prepended.
// Bounded specs are sampled uniformly within their bounds (inclusive for
// integers). Unbounded floats are drawn from U(-1, 1) and unbounded
// integers from [-10, 10].
func (s TensorSpec) Sample(rng *rand.Rand, outer ...int) (*tensor.RawTensor, error) {
	raw, err := s.Zeros(outer...)
	if err != nil {
		return nil, err
	}

	lo, hi := -1.0, 1.0
	if !s.DType.IsFloat() {
		lo, hi = -10, 10
	}
	if s.Bounds != nil {
		lo, hi = s.Bounds.Minimum, s.Bounds.Maximum
	}

	switch s.DType {
	case tensor.Float32:
		for i := range raw.AsFloat32() {
			raw.AsFloat32()[i] = float32(lo + rng.Float64()*(hi-lo))
		}
	case tensor.Float64:
		for i := range raw.AsFloat64() {
			raw.AsFloat64()[i] = lo + rng.Float64()*(hi-lo)
		}
	case tensor.Int32:
		for i := range raw.AsInt32() {
			raw.AsInt32()[i] = int32(int64(lo) + rng.Int63n(int64(hi)-int64(lo)+1))
		}
	case tensor.Int64:
		for i := range raw.AsInt64() {
			raw.AsInt64()[i] = int64(lo) + rng.Int63n(int64(hi)-int64(lo)+1)
		}
	case tensor.Uint8:
		lo, hi = max(lo, 0), min(hi, 255)
		for i := range raw.AsUint8() {
			raw.AsUint8()[i] = uint8(int64(lo) + rng.Int63n(int64(hi)-int64(lo)+1))
		}
	case tensor.Bool:
		for i := range raw.AsBool() {
			raw.AsBool()[i] = rng.Intn(2) == 1
		}
	default:
		return nil, fmt.Errorf("spec %q: cannot sample dtype %s", s.Name, s.DType)
	}

	return raw, nil
}

// MismatchError names the field whose dtype or shape did not match.
type MismatchError struct {
	Field string
	Want  string
	Got   string
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("spec mismatch for %q: want %s, got %s", e.Field, e.Want, e.Got)
}

// Unwrap makes errors.Is(err, ErrMismatch) hold.
func (e *MismatchError) Unwrap() error {
	return ErrMismatch
}
