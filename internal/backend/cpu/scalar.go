package cpu

import (
	"fmt"

	"github.com/born-ml/agents/internal/tensor"
)

// AddScalar adds scalar to every element. scalar must have x's Go element type.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp(opAdd, x, scalar)
}

// MulScalar multiplies every element by scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp(opMul, x, scalar)
}

func (cpu *CPUBackend) scalarOp(kind binaryKind, x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result := tensor.MustNewRaw(x.Shape(), x.DType(), cpu.device)

	switch s := scalar.(type) {
	case float32:
		applyScalar(kind, result.AsFloat32(), x.AsFloat32(), s)
	case float64:
		applyScalar(kind, result.AsFloat64(), x.AsFloat64(), s)
	case int32:
		applyScalar(kind, result.AsInt32(), x.AsInt32(), s)
	case int64:
		applyScalar(kind, result.AsInt64(), x.AsInt64(), s)
	default:
		panic(fmt.Sprintf("%s scalar: unsupported scalar type %T for %s tensor", kind, scalar, x.DType()))
	}

	return result
}

func applyScalar[T number](kind binaryKind, dst, src []T, s T) {
	for i, v := range src {
		dst[i] = combine(kind, v, s)
	}
}
