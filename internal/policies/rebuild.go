package policies

import (
	"fmt"

	"github.com/born-ml/agents/internal/networks"
	"github.com/born-ml/agents/internal/tensor"
)

// Rebuild constructs an untrained policy from desc on backend. Restore
// weights afterwards with LoadStateDict.
func Rebuild[B tensor.Backend](desc Descriptor, backend B) (Policy, error) {
	switch desc.Kind {
	case KindQ:
		if desc.Network == nil {
			return nil, fmt.Errorf("%s descriptor has no network", desc.Kind)
		}
		network, err := networks.Build(*desc.Network, backend)
		if err != nil {
			return nil, err
		}
		policy, err := NewQPolicy(desc.TimeStepSpec, desc.ActionSpec, network, backend)
		if err != nil {
			return nil, err
		}
		return policy, nil

	case KindGreedy:
		if desc.Wrapped == nil {
			return nil, fmt.Errorf("%s descriptor has no wrapped policy", desc.Kind)
		}
		inner, err := Rebuild(*desc.Wrapped, backend)
		if err != nil {
			return nil, fmt.Errorf("wrapped policy: %w", err)
		}
		dp, ok := inner.(DistributionPolicy[B])
		if !ok {
			return nil, fmt.Errorf("%w: greedy policy cannot wrap %s", ErrUnknownKind, desc.Wrapped.Kind)
		}
		return NewGreedyPolicy(dp), nil

	case KindRandom:
		policy, err := NewRandomPolicy(desc.TimeStepSpec, desc.ActionSpec, backend)
		if err != nil {
			return nil, err
		}
		return policy, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, desc.Kind)
	}
}
