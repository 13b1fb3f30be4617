package policies

import (
	"github.com/born-ml/agents/internal/specs"
	"github.com/born-ml/agents/internal/tensor"
	"github.com/born-ml/agents/internal/trajectory"
)

// GreedyPolicy takes the mode of a wrapped DistributionPolicy. It never
// draws random numbers.
type GreedyPolicy[B tensor.Backend] struct {
	wrapped DistributionPolicy[B]
}

var _ Policy = (*GreedyPolicy[tensor.Backend])(nil)

// NewGreedyPolicy wraps policy.
func NewGreedyPolicy[B tensor.Backend](policy DistributionPolicy[B]) *GreedyPolicy[B] {
	return &GreedyPolicy[B]{wrapped: policy}
}

// Wrapped returns the underlying policy.
func (g *GreedyPolicy[B]) Wrapped() DistributionPolicy[B] {
	return g.wrapped
}

// Action returns the most likely action per row. Options are ignored.
func (g *GreedyPolicy[B]) Action(ts trajectory.TimeStep, state State, _ ...ActionOption) (Step, error) {
	dist, next, err := g.wrapped.Distribution(ts, state)
	if err != nil {
		return Step{}, err
	}
	return Step{Action: toAction(dist.Mode(), g.wrapped.ActionSpec()), State: next}, nil
}

func (g *GreedyPolicy[B]) TimeStepSpec() trajectory.Spec { return g.wrapped.TimeStepSpec() }
func (g *GreedyPolicy[B]) ActionSpec() specs.TensorSpec  { return g.wrapped.ActionSpec() }
func (g *GreedyPolicy[B]) StateSpec() []specs.TensorSpec { return g.wrapped.StateSpec() }
func (g *GreedyPolicy[B]) InfoSpec() []specs.TensorSpec  { return g.wrapped.InfoSpec() }
func (g *GreedyPolicy[B]) Backend() tensor.Backend       { return g.wrapped.Backend() }

// InitialState delegates to the wrapped policy.
func (g *GreedyPolicy[B]) InitialState(batchSize int) (State, error) {
	return g.wrapped.InitialState(batchSize)
}

// Descriptor nests the wrapped policy's descriptor.
func (g *GreedyPolicy[B]) Descriptor() Descriptor {
	inner := g.wrapped.Descriptor()
	return Descriptor{
		Kind:         KindGreedy,
		TimeStepSpec: inner.TimeStepSpec,
		ActionSpec:   inner.ActionSpec,
		Wrapped:      &inner,
	}
}

// StateDict returns the wrapped policy's weights.
func (g *GreedyPolicy[B]) StateDict() map[string]*tensor.RawTensor {
	return g.wrapped.StateDict()
}

// LoadStateDict restores the wrapped policy's weights.
func (g *GreedyPolicy[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return g.wrapped.LoadStateDict(stateDict)
}
