package trajectory

import (
	"fmt"

	"github.com/born-ml/agents/internal/tensor"
)

// Restart returns a FIRST step for a batch of observations: reward 0,
// discount 1.
func Restart(observation *tensor.RawTensor) TimeStep {
	batch := batchOf(observation)
	return TimeStep{
		StepType:    fill(batch, int32(First)),
		Reward:      fill(batch, float32(0)),
		Discount:    fill(batch, float32(1)),
		Observation: observation,
	}
}

// Transition returns a MID step with discount 1.
func Transition(observation *tensor.RawTensor, reward []float32) (TimeStep, error) {
	batch := batchOf(observation)
	if len(reward) != batch {
		return TimeStep{}, fmt.Errorf("transition: %d rewards for batch %d", len(reward), batch)
	}
	r, err := tensor.RawFromSlice(reward, tensor.Shape{batch})
	if err != nil {
		return TimeStep{}, err
	}
	return TimeStep{
		StepType:    fill(batch, int32(Mid)),
		Reward:      r,
		Discount:    fill(batch, float32(1)),
		Observation: observation,
	}, nil
}

// Termination returns a LAST step with discount 0.
func Termination(observation *tensor.RawTensor, reward []float32) (TimeStep, error) {
	ts, err := Transition(observation, reward)
	if err != nil {
		return TimeStep{}, err
	}
	ts.StepType = fill(batchOf(observation), int32(Last))
	ts.Discount = fill(batchOf(observation), float32(0))
	return ts, nil
}

func batchOf(observation *tensor.RawTensor) int {
	shape := observation.Shape()
	if len(shape) == 0 {
		panic("trajectory: observation needs a leading batch dimension")
	}
	return shape[0]
}

func fill[T int32 | float32](batch int, v T) *tensor.RawTensor {
	data := make([]T, batch)
	for i := range data {
		data[i] = v
	}
	raw, err := tensor.RawFromSlice(data, tensor.Shape{batch})
	if err != nil {
		panic(err)
	}
	return raw
}
