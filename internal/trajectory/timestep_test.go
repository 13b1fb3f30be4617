package trajectory

import (
	"testing"

	"github.com/born-ml/agents/internal/specs"
	"github.com/born-ml/agents/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSpec() Spec {
	return Spec{
		StepType:    specs.NewBounded("st", tensor.Int32, nil, 0, 2),
		Reward:      specs.NewBounded("reward", tensor.Float32, nil, 0, 5),
		Discount:    specs.NewBounded("discount", tensor.Float32, nil, 0, 1),
		Observation: specs.NewBounded("obs", tensor.Float32, tensor.Shape{4}, -10, 10),
	}
}

func TestSpecFlattenOrder(t *testing.T) {
	s := testSpec()
	require.NoError(t, s.Validate())
	assert.Equal(t, []string{"st", "reward", "discount", "obs"}, specs.Names(s.Flatten()))

	def := NewSpec(specs.New("observation", tensor.Float32, tensor.Shape{2}))
	assert.Equal(t, []string{"step_type", "reward", "discount", "observation"}, specs.Names(def.Flatten()))
}

func TestRestartTransitionTermination(t *testing.T) {
	obs := tensor.MustNewRaw(tensor.Shape{3, 4}, tensor.Float32, tensor.CPU)

	first := Restart(obs)
	assert.Equal(t, 3, first.BatchSize())
	assert.Equal(t, []bool{true, true, true}, first.IsFirst())
	assert.Equal(t, []float32{1, 1, 1}, first.Discount.AsFloat32())
	require.NoError(t, testSpec().Check(first))

	mid, err := Transition(obs, []float32{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 1, 1}, mid.StepType.AsInt32())
	assert.Equal(t, []float32{1, 2, 3}, mid.Reward.AsFloat32())

	last, err := Termination(obs, []float32{0, 0, 5})
	require.NoError(t, err)
	assert.Equal(t, []int32{2, 2, 2}, last.StepType.AsInt32())
	assert.Equal(t, []float32{0, 0, 0}, last.Discount.AsFloat32())

	_, err = Transition(obs, []float32{1})
	assert.Error(t, err)
}

func TestCheckRejectsMismatchedBatch(t *testing.T) {
	ts := Restart(tensor.MustNewRaw(tensor.Shape{3, 4}, tensor.Float32, tensor.CPU))
	ts.Reward = tensor.MustNewRaw(tensor.Shape{2}, tensor.Float32, tensor.CPU)

	err := testSpec().Check(ts)
	var mismatch *specs.MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "reward", mismatch.Field)
}

func TestFromFlat(t *testing.T) {
	ts := Restart(tensor.MustNewRaw(tensor.Shape{2, 4}, tensor.Float32, tensor.CPU))
	back, err := FromFlat(ts.Flatten())
	require.NoError(t, err)
	assert.Same(t, ts.Observation, back.Observation)

	_, err = FromFlat(ts.Flatten()[:3])
	assert.Error(t, err)
	assert.Equal(t, "MID", Mid.String())
}
