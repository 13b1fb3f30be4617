package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/agents/internal/tensor"
)

// Xavier (Glorot) uniform initialisation: U(-sqrt(6/(fan_in+fan_out)), +sqrt(...)).
// Values are drawn from rng so network weights are reproducible from a seed.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	return tensor.Uniform[float32](shape, -bound, bound, rng, backend)
}

// Zeros creates a zero-filled float32 tensor. Used for biases.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}
