package tensor

import (
	"fmt"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
//
//	t := tensor.Zeros[float32](tensor.Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	raw, err := NewRaw(shape, DataTypeOf[T](), b.Device())
	if err != nil {
		panic(err)
	}
	return New[T](raw, b)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Ones creates a tensor filled with ones. Not defined for bool.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var one T
	switch p := any(&one).(type) {
	case *float32:
		*p = 1
	case *float64:
		*p = 1
	case *int32:
		*p = 1
	case *int64:
		*p = 1
	case *uint8:
		*p = 1
	case *bool:
		*p = true
	}
	return Full(shape, one, b)
}

// Uniform fills a float tensor with values drawn from U(low, high) using rng.
//
// Randomness is always drawn from the caller's stream so results depend
// only on the seed that produced it.
func Uniform[T float32 | float64, B Backend](shape Shape, low, high float64, rng *rand.Rand, b B) *Tensor[T, B] {
	if rng == nil {
		panic("tensor.Uniform: nil random stream")
	}
	t := Zeros[T](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = T(low + rng.Float64()*(high-low))
	}
	return t
}

// UniformInt fills an integer tensor with values drawn uniformly from the
// closed range [low, high].
func UniformInt[T int32 | int64, B Backend](shape Shape, low, high int64, rng *rand.Rand, b B) *Tensor[T, B] {
	if rng == nil {
		panic("tensor.UniformInt: nil random stream")
	}
	if high < low {
		panic(fmt.Sprintf("tensor.UniformInt: empty range [%d, %d]", low, high))
	}
	t := Zeros[T](shape, b)
	data := t.Data()
	span := high - low + 1
	for i := range data {
		data[i] = T(low + rng.Int63n(span))
	}
	return t
}
