package cpu

import (
	"fmt"

	"github.com/born-ml/agents/internal/tensor"
)

// Argmax returns int32 indices of the maximum values along dim. The
// reduced dimension is removed from the result shape. Ties resolve to the
// lowest index.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim("argmax", dim, len(shape))
	outer, size, inner := splitAt(shape, dim)

	outShape := make(tensor.Shape, 0, len(shape)-1)
	outShape = append(outShape, shape[:dim]...)
	outShape = append(outShape, shape[dim+1:]...)

	result := tensor.MustNewRaw(outShape, tensor.Int32, cpu.device)
	dst := result.AsInt32()

	switch x.DType() {
	case tensor.Float32:
		argmax(dst, x.AsFloat32(), outer, size, inner)
	case tensor.Float64:
		argmax(dst, x.AsFloat64(), outer, size, inner)
	case tensor.Int32:
		argmax(dst, x.AsInt32(), outer, size, inner)
	case tensor.Int64:
		argmax(dst, x.AsInt64(), outer, size, inner)
	default:
		panic(fmt.Sprintf("argmax: unsupported dtype %s", x.DType()))
	}

	return result
}

func argmax[T number](dst []int32, src []T, outer, size, inner int) {
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*size*inner + in
			best := 0
			bestVal := src[base]
			for s := 1; s < size; s++ {
				if v := src[base+s*inner]; v > bestVal {
					best, bestVal = s, v
				}
			}
			dst[o*inner+in] = int32(best) //nolint:gosec // size is a tensor dimension
		}
	}
}
