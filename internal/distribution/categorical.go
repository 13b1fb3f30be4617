// Package distribution implements action distributions over network outputs.
package distribution

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/born-ml/agents/internal/tensor"
)

// Categorical is a batch of categorical distributions parameterised by
// unnormalised logits of shape [batch, n].
type Categorical[B tensor.Backend] struct {
	logits *tensor.Tensor[float32, B]
	probs  *tensor.Tensor[float32, B]
}

// NewCategorical creates a distribution over logits. Panics unless logits is 2D.
func NewCategorical[B tensor.Backend](logits *tensor.Tensor[float32, B]) *Categorical[B] {
	if len(logits.Shape()) != 2 {
		panic(fmt.Sprintf("categorical: expected [batch, n] logits, got shape %v", logits.Shape()))
	}
	return &Categorical[B]{
		logits: logits,
		probs:  logits.Softmax(-1),
	}
}

// Probs returns softmax(logits) along the last dimension.
func (c *Categorical[B]) Probs() *tensor.Tensor[float32, B] {
	return c.probs
}

// NumCategories returns n.
func (c *Categorical[B]) NumCategories() int {
	return c.logits.Shape()[1]
}

// Sample draws one index per row with inverse-CDF sampling. One uniform
// value is consumed per row, in row order.
func (c *Categorical[B]) Sample(rng *rand.Rand) *tensor.Tensor[int32, B] {
	if rng == nil {
		panic("categorical: nil random stream")
	}
	batch, n := c.probs.Shape()[0], c.probs.Shape()[1]
	probs := c.probs.Data()

	out := tensor.Zeros[int32](tensor.Shape{batch}, c.logits.Backend())
	idx := out.Data()
	for row := range batch {
		idx[row] = multinomial(probs[row*n:(row+1)*n], rng.Float32())
	}
	return out
}

// Mode returns the most likely index per row.
func (c *Categorical[B]) Mode() *tensor.Tensor[int32, B] {
	return c.logits.Argmax(-1)
}

// LogProb returns log p(index) per row.
func (c *Categorical[B]) LogProb(index *tensor.Tensor[int32, B]) []float32 {
	n := c.NumCategories()
	probs := c.probs.Data()
	out := make([]float32, index.NumElements())
	for row, k := range index.Data() {
		out[row] = float32(math.Log(float64(probs[row*n+int(k)])))
	}
	return out
}

func multinomial(probs []float32, r float32) int32 {
	cumSum := float32(0)
	for i, p := range probs {
		cumSum += p
		if r < cumSum {
			return int32(i) //nolint:gosec // bounded by the action count
		}
	}
	// Rounding left r above the total.
	return int32(len(probs) - 1) //nolint:gosec // bounded by the action count
}
