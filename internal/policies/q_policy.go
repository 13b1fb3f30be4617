package policies

import (
	"fmt"

	"github.com/born-ml/agents/internal/distribution"
	"github.com/born-ml/agents/internal/networks"
	"github.com/born-ml/agents/internal/specs"
	"github.com/born-ml/agents/internal/tensor"
	"github.com/born-ml/agents/internal/trajectory"
)

// QPolicy samples actions from a categorical distribution whose logits
// are the Q-values of its network. Recurrent networks make it stateful.
type QPolicy[B tensor.Backend] struct {
	base
	network networks.Network[B]
	backend B
}

var _ DistributionPolicy[tensor.Backend] = (*QPolicy[tensor.Backend])(nil)

// NewQPolicy wraps network. The network input spec must match the
// observation spec and it must produce one Q-value per action.
func NewQPolicy[B tensor.Backend](timeStepSpec trajectory.Spec, actionSpec specs.TensorSpec, network networks.Network[B], backend B) (*QPolicy[B], error) {
	b, err := newBase(timeStepSpec, actionSpec, network.StateSpec())
	if err != nil {
		return nil, err
	}
	if !network.InputSpec().Equal(timeStepSpec.Observation) {
		return nil, fmt.Errorf("network input spec %v does not match observation spec %v",
			network.InputSpec(), timeStepSpec.Observation)
	}
	n, err := actionSpec.NumValues()
	if err != nil {
		return nil, err
	}
	if n != network.NumActions() {
		return nil, fmt.Errorf("network has %d outputs, action spec %q has %d values", network.NumActions(), actionSpec.Name, n)
	}
	return &QPolicy[B]{base: b, network: network, backend: backend}, nil
}

// Network returns the Q network.
func (p *QPolicy[B]) Network() networks.Network[B] {
	return p.network
}

// Distribution runs the network and returns the categorical over its
// Q-values together with the next state.
func (p *QPolicy[B]) Distribution(ts trajectory.TimeStep, state State) (*distribution.Categorical[B], State, error) {
	if _, err := p.checkInputs(ts, state); err != nil {
		return nil, nil, err
	}
	values, next, err := p.network.Call(ts.Observation, ts.StepType, state)
	if err != nil {
		return nil, nil, err
	}
	return distribution.NewCategorical(values), next, nil
}

// Action samples one action per batch row.
func (p *QPolicy[B]) Action(ts trajectory.TimeStep, state State, opts ...ActionOption) (Step, error) {
	dist, next, err := p.Distribution(ts, state)
	if err != nil {
		return Step{}, err
	}
	index := dist.Sample(resolveRand(opts))
	return Step{Action: toAction(index, p.actionSpec), State: next}, nil
}

// Descriptor records the network architecture.
func (p *QPolicy[B]) Descriptor() Descriptor {
	desc := p.network.Descriptor()
	return Descriptor{
		Kind:         KindQ,
		TimeStepSpec: p.timeStepSpec,
		ActionSpec:   p.actionSpec,
		Network:      &desc,
	}
}

// Backend returns the network backend.
func (p *QPolicy[B]) Backend() tensor.Backend {
	return p.backend
}

// StateDict returns the network weights.
func (p *QPolicy[B]) StateDict() map[string]*tensor.RawTensor {
	return p.network.StateDict()
}

// LoadStateDict restores the network weights.
func (p *QPolicy[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return p.network.LoadStateDict(stateDict)
}

// toAction shifts category indices by the action minimum.
func toAction[B tensor.Backend](index *tensor.Tensor[int32, B], actionSpec specs.TensorSpec) *tensor.RawTensor {
	return index.AddScalar(int32(actionSpec.Bounds.Minimum)).Raw()
}
