package policies

import (
	"fmt"

	"github.com/born-ml/agents/internal/specs"
	"github.com/born-ml/agents/internal/tensor"
	"github.com/born-ml/agents/internal/trajectory"
)

// RandomPolicy selects actions uniformly within the action spec bounds.
// It ignores observations and carries no state or weights.
type RandomPolicy[B tensor.Backend] struct {
	base
	backend B
}

var _ Policy = (*RandomPolicy[tensor.Backend])(nil)

// NewRandomPolicy creates a RandomPolicy.
func NewRandomPolicy[B tensor.Backend](timeStepSpec trajectory.Spec, actionSpec specs.TensorSpec, backend B) (*RandomPolicy[B], error) {
	b, err := newBase(timeStepSpec, actionSpec, nil)
	if err != nil {
		return nil, err
	}
	return &RandomPolicy[B]{base: b, backend: backend}, nil
}

// Action draws actions of shape [batch, action shape...].
func (p *RandomPolicy[B]) Action(ts trajectory.TimeStep, state State, opts ...ActionOption) (Step, error) {
	batch, err := p.checkInputs(ts, state)
	if err != nil {
		return Step{}, err
	}
	bounds := p.actionSpec.Bounds
	action := tensor.UniformInt[int32](p.actionSpec.Shape.Prepend(batch),
		int64(bounds.Minimum), int64(bounds.Maximum), resolveRand(opts), p.backend)
	return Step{Action: action.Raw()}, nil
}

// Descriptor records only the specs.
func (p *RandomPolicy[B]) Descriptor() Descriptor {
	return Descriptor{Kind: KindRandom, TimeStepSpec: p.timeStepSpec, ActionSpec: p.actionSpec}
}

// Backend returns the backend actions are created on.
func (p *RandomPolicy[B]) Backend() tensor.Backend {
	return p.backend
}

// StateDict returns an empty map.
func (p *RandomPolicy[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict accepts only an empty state dict.
func (p *RandomPolicy[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if len(stateDict) != 0 {
		return fmt.Errorf("random policy has no weights, got %d tensors", len(stateDict))
	}
	return nil
}
