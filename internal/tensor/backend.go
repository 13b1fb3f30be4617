package tensor

// Backend defines the operations a compute backend provides to networks
// and policies. Kernels panic on shape or dtype violations; callers are
// expected to validate user input before reaching them.
type Backend interface {
	// Element-wise binary operations with NumPy broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// MatMul multiplies 2D tensors: (M, K) @ (K, N) -> (M, N).
	MatMul(a, b *RawTensor) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Scalar operations; scalar must match the tensor's Go element type.
	AddScalar(x *RawTensor, scalar any) *RawTensor
	MulScalar(x *RawTensor, scalar any) *RawTensor

	// Reductions and selection.
	Softmax(x *RawTensor, dim int) *RawTensor
	Argmax(x *RawTensor, dim int) *RawTensor
	Where(condition, x, y *RawTensor) *RawTensor

	// Manipulation.
	Cat(tensors []*RawTensor, dim int) *RawTensor
	Chunk(x *RawTensor, n, dim int) []*RawTensor

	// Cast converts to a different element type.
	Cast(x *RawTensor, dtype DataType) *RawTensor

	Name() string
	Device() Device
}

// DeferredBackend is implemented by backends that record operations for
// later evaluation instead of running them immediately.
type DeferredBackend interface {
	Backend
	Deferred() bool
}

// ExecutingEagerly reports whether b evaluates operations immediately.
// Backends that do not implement DeferredBackend are eager.
func ExecutingEagerly(b Backend) bool {
	if d, ok := b.(DeferredBackend); ok {
		return !d.Deferred()
	}
	return true
}
