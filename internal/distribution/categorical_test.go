package distribution

import (
	"math"
	"math/rand"
	"testing"

	"github.com/born-ml/agents/internal/backend/cpu"
	"github.com/born-ml/agents/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logits(t *testing.T, data []float32, batch, n int) *tensor.Tensor[float32, *cpu.CPUBackend] {
	t.Helper()
	x, err := tensor.FromSlice(data, tensor.Shape{batch, n}, cpu.New())
	require.NoError(t, err)
	return x
}

func TestCategorical_Mode(t *testing.T) {
	d := NewCategorical(logits(t, []float32{0, 5, 1, 3, -1, 2}, 2, 3))
	assert.Equal(t, []int32{1, 0}, d.Mode().Data())
	assert.Equal(t, 3, d.NumCategories())
}

func TestCategorical_SampleIsSeeded(t *testing.T) {
	d := NewCategorical(logits(t, []float32{0.1, 0.2, 0.3, 1, 1, 1}, 2, 3))

	a := d.Sample(rand.New(rand.NewSource(98723))).Data()
	b := d.Sample(rand.New(rand.NewSource(98723))).Data()
	assert.Equal(t, a, b)
	for _, v := range a {
		assert.True(t, v >= 0 && v < 3)
	}
}

func TestCategorical_SampleFollowsProbs(t *testing.T) {
	// Logit 20 carries essentially all of the mass.
	d := NewCategorical(logits(t, []float32{0, 20, 0}, 1, 3))
	rng := rand.New(rand.NewSource(1))
	for range 50 {
		assert.Equal(t, int32(1), d.Sample(rng).Data()[0])
	}
}

func TestCategorical_LogProb(t *testing.T) {
	d := NewCategorical(logits(t, []float32{0, 0, 0, 0}, 1, 4))
	idx := tensor.Zeros[int32](tensor.Shape{1}, cpu.New())
	assert.InDelta(t, math.Log(0.25), d.LogProb(idx)[0], 1e-6)
}

func TestMultinomialRounding(t *testing.T) {
	assert.Equal(t, int32(2), multinomial([]float32{0.3, 0.3, 0.3}, 0.95))
	assert.Equal(t, int32(0), multinomial([]float32{0.5, 0.5}, 0))
}

func TestNewCategoricalPanicsOn1D(t *testing.T) {
	x, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, cpu.New())
	require.NoError(t, err)
	assert.Panics(t, func() { NewCategorical(x) })
}
