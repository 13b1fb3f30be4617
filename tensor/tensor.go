// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public tensor API used by policies and
// saved policies.
//
// Values crossing the policy boundary are RawTensors: time step fields,
// recurrent state and actions. Networks compute with the typed Tensor[T, B].
//
// Example:
//
//	obs, _ := tensor.RawFromSlice([]float32{0.1, 0.2, 0.3, 0.4}, tensor.Shape{1, 4})
//	fmt.Println(obs.Shape(), obs.DType()) // [1 4] float32
package tensor

import (
	"github.com/born-ml/agents/internal/tensor"
)

// DType is a constraint for tensor element types.
type DType = tensor.DType

// DataType identifies a tensor element type.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// ParseDataType parses names such as "float32".
func ParseDataType(s string) (DataType, error) {
	return tensor.ParseDataType(s)
}

// Device represents the device where tensor data resides.
type Device = tensor.Device

// CPU is the host device.
const CPU Device = tensor.CPU

// Shape represents the dimensions of a tensor. A scalar has an empty shape.
type Shape = tensor.Shape

// RawTensor is the untyped tensor representation exchanged with policies.
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
//	data := raw.AsFloat32()
type RawTensor = tensor.RawTensor

// Backend is the interface compute backends implement.
type Backend = tensor.Backend

// DeferredBackend is implemented by backends that build graphs instead of
// executing eagerly. Policies cannot be saved or loaded on them.
type DeferredBackend = tensor.DeferredBackend

// ExecutingEagerly reports whether b evaluates operations immediately.
func ExecutingEagerly(b Backend) bool {
	return tensor.ExecutingEagerly(b)
}

// Tensor is a generic type-safe tensor over backend B.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// NewRaw creates a zeroed raw tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// RawFromSlice copies data into a new CPU raw tensor.
//
// Example:
//
//	st, _ := tensor.RawFromSlice([]int32{0, 1, 1}, tensor.Shape{3})
func RawFromSlice[T DType](data []T, shape Shape) (*RawTensor, error) {
	return tensor.RawFromSlice(data, shape)
}

// Scalar returns a rank-0 raw tensor holding v.
func Scalar[T DType](v T) *RawTensor {
	return tensor.Scalar(v)
}

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, b)
}

// FromSlice creates a tensor from a Go slice.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice[T, B](data, shape, b)
}

// New wraps a raw tensor. Panics if the dtype does not match T.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}
