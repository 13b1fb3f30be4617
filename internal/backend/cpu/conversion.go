package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/agents/internal/tensor"
)

// Cast converts x to dtype. Float to integer conversion truncates toward
// zero; conversion to Bool yields true for non-zero values.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x.Clone()
	}

	values := x.Float64s()
	result := tensor.MustNewRaw(x.Shape(), dtype, cpu.device)

	switch dtype {
	case tensor.Float32:
		fill(result.AsFloat32(), values, func(v float64) float32 { return float32(v) })
	case tensor.Float64:
		copy(result.AsFloat64(), values)
	case tensor.Int32:
		fill(result.AsInt32(), values, func(v float64) int32 { return int32(math.Trunc(v)) })
	case tensor.Int64:
		fill(result.AsInt64(), values, func(v float64) int64 { return int64(math.Trunc(v)) })
	case tensor.Uint8:
		fill(result.AsUint8(), values, func(v float64) uint8 { return uint8(math.Trunc(v)) })
	case tensor.Bool:
		fill(result.AsBool(), values, func(v float64) bool { return v != 0 })
	default:
		panic(fmt.Sprintf("cast: unsupported dtype %s", dtype))
	}

	return result
}

func fill[T any](dst []T, src []float64, conv func(float64) T) {
	for i, v := range src {
		dst[i] = conv(v)
	}
}
