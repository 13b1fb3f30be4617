package cpu

import (
	"fmt"

	"github.com/born-ml/agents/internal/tensor"
)

// Reshape returns a copy of t with a new shape holding the same number of elements.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	if newShape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v to %v", t.Shape(), newShape))
	}
	view, err := t.Clone().View(newShape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return view
}

// Transpose permutes dimensions. With no axes, all dimensions are reversed.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: got %d axes for %dD tensor", len(axes), ndim))
	}

	perm := make([]int, ndim)
	seen := make([]bool, ndim)
	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		ax = normalizeDim("transpose", ax, ndim)
		if seen[ax] {
			panic(fmt.Sprintf("transpose: repeated axis %d", ax))
		}
		seen[ax] = true
		perm[i] = ax
		outShape[i] = shape[ax]
	}

	result := tensor.MustNewRaw(outShape, t.DType(), cpu.device)
	elem := t.DType().Size()
	src, dst := t.Data(), result.Data()
	inStrides := shape.ComputeStrides()
	outStrides := outShape.ComputeStrides()

	for i := 0; i < result.NumElements(); i++ {
		rem, srcIdx := i, 0
		for d, stride := range outStrides {
			coord := rem / stride
			rem %= stride
			srcIdx += coord * inStrides[perm[d]]
		}
		copy(dst[i*elem:(i+1)*elem], src[srcIdx*elem:(srcIdx+1)*elem])
	}

	return result
}

// Cat concatenates tensors along dim. All tensors must share dtype and
// every dimension except dim.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}

	first := tensors[0]
	ndim := len(first.Shape())
	dim = normalizeDim("cat", dim, ndim)

	outShape := first.Shape().Clone()
	outShape[dim] = 0
	for i, t := range tensors {
		if t.DType() != first.DType() {
			panic(fmt.Sprintf("cat: tensor %d has dtype %s, expected %s", i, t.DType(), first.DType()))
		}
		if len(t.Shape()) != ndim {
			panic(fmt.Sprintf("cat: tensor %d has %dD shape, expected %dD", i, len(t.Shape()), ndim))
		}
		for d := range ndim {
			if d != dim && t.Shape()[d] != first.Shape()[d] {
				panic(fmt.Sprintf("cat: tensor %d shape %v incompatible with %v at dim %d", i, t.Shape(), first.Shape(), d))
			}
		}
		outShape[dim] += t.Shape()[dim]
	}

	result := tensor.MustNewRaw(outShape, first.DType(), cpu.device)
	outer, _, _ := splitAt(outShape, dim)
	dst := result.Data()

	// Row-major layout: each tensor contributes one contiguous block per outer index.
	offset := 0
	for o := 0; o < outer; o++ {
		for _, t := range tensors {
			block := t.ByteSize() / outer
			copy(dst[offset:offset+block], t.Data()[o*block:(o+1)*block])
			offset += block
		}
	}

	return result
}

// Chunk splits x into n equal parts along dim.
func (cpu *CPUBackend) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	if n <= 0 {
		panic(fmt.Sprintf("chunk: n must be positive, got %d", n))
	}

	shape := x.Shape()
	dim = normalizeDim("chunk", dim, len(shape))
	if shape[dim]%n != 0 {
		panic(fmt.Sprintf("chunk: dimension %d (size %d) is not divisible by %d", dim, shape[dim], n))
	}

	partShape := shape.Clone()
	partShape[dim] = shape[dim] / n
	outer, _, inner := splitAt(shape, dim)
	elem := x.DType().Size()
	block := partShape[dim] * inner * elem
	src := x.Data()

	parts := make([]*tensor.RawTensor, n)
	for p := range parts {
		part := tensor.MustNewRaw(partShape, x.DType(), cpu.device)
		dst := part.Data()
		for o := 0; o < outer; o++ {
			srcOff := (o*n + p) * block
			copy(dst[o*block:(o+1)*block], src[srcOff:srcOff+block])
		}
		parts[p] = part
	}

	return parts
}
