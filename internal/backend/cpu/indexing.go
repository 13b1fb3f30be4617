package cpu

import (
	"fmt"

	"github.com/born-ml/agents/internal/tensor"
)

// Where selects x where condition is true and y elsewhere. condition must
// be Bool; all three shapes broadcast together.
func (cpu *CPUBackend) Where(condition, x, y *tensor.RawTensor) *tensor.RawTensor {
	if condition.DType() != tensor.Bool {
		panic(fmt.Sprintf("where: condition must be bool, got %s", condition.DType()))
	}
	if x.DType() != y.DType() {
		panic(fmt.Sprintf("where: dtype mismatch %s vs %s", x.DType(), y.DType()))
	}

	xy, _, err := tensor.BroadcastShapes(x.Shape(), y.Shape())
	if err != nil {
		panic(fmt.Sprintf("where: %v", err))
	}
	outShape, _, err := tensor.BroadcastShapes(condition.Shape(), xy)
	if err != nil {
		panic(fmt.Sprintf("where: %v", err))
	}

	result := tensor.MustNewRaw(outShape, x.DType(), cpu.device)
	outStrides := outShape.ComputeStrides()
	cStrides := broadcastStrides(condition.Shape(), outShape)
	xStrides := broadcastStrides(x.Shape(), outShape)
	yStrides := broadcastStrides(y.Shape(), outShape)

	cond := condition.AsBool()
	elem := x.DType().Size()
	dst, xs, ys := result.Data(), x.Data(), y.Data()

	for i := 0; i < result.NumElements(); i++ {
		src, idx := ys, flatIndex(i, outStrides, yStrides)
		if cond[flatIndex(i, outStrides, cStrides)] {
			src, idx = xs, flatIndex(i, outStrides, xStrides)
		}
		copy(dst[i*elem:(i+1)*elem], src[idx*elem:(idx+1)*elem])
	}

	return result
}
