// Package policies maps time steps to actions. A Policy may carry
// recurrent state between calls; every random draw comes from a stream
// passed in through ActionOption.
package policies

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/born-ml/agents/internal/distribution"
	"github.com/born-ml/agents/internal/networks"
	"github.com/born-ml/agents/internal/nn"
	"github.com/born-ml/agents/internal/seed"
	"github.com/born-ml/agents/internal/specs"
	"github.com/born-ml/agents/internal/tensor"
	"github.com/born-ml/agents/internal/trajectory"
)

// ErrUnknownKind is returned by Rebuild for an unrecognised descriptor.
var ErrUnknownKind = errors.New("unknown policy kind")

// Policy kinds recorded in descriptors.
const (
	KindQ      = "q_policy"
	KindGreedy = "greedy_policy"
	KindRandom = "random_policy"
)

// State is the flattened recurrent state, ordered as Policy.StateSpec().
// Stateless policies use a nil or empty State.
type State []*tensor.RawTensor

// Step is the result of Policy.Action.
type Step struct {
	Action *tensor.RawTensor
	State  State
	Info   []*tensor.RawTensor
}

// Flatten returns action, state and info tensors in StepSpec order.
func (s Step) Flatten() []*tensor.RawTensor {
	out := make([]*tensor.RawTensor, 0, 1+len(s.State)+len(s.Info))
	out = append(out, s.Action)
	out = append(out, s.State...)
	return append(out, s.Info...)
}

// Policy maps a batched TimeStep and State to an action and next state.
type Policy interface {
	nn.Stateful

	TimeStepSpec() trajectory.Spec
	ActionSpec() specs.TensorSpec
	StateSpec() []specs.TensorSpec
	InfoSpec() []specs.TensorSpec

	// Action computes one step. Sampling policies draw from the stream
	// selected by opts.
	Action(ts trajectory.TimeStep, state State, opts ...ActionOption) (Step, error)

	// InitialState returns zeros matching StateSpec with a leading batch
	// dimension.
	InitialState(batchSize int) (State, error)

	Descriptor() Descriptor
	Backend() tensor.Backend
}

// DistributionPolicy is a Policy that exposes its action distribution.
type DistributionPolicy[B tensor.Backend] interface {
	Policy
	Distribution(ts trajectory.TimeStep, state State) (*distribution.Categorical[B], State, error)
}

// StepSpec returns the flattened (action, state, info) spec of p.
func StepSpec(p Policy) []specs.TensorSpec {
	return specs.Flatten([]specs.TensorSpec{p.ActionSpec()}, p.StateSpec(), p.InfoSpec())
}

// ActionOption configures a single Action call.
type ActionOption func(*actionOptions)

type actionOptions struct {
	rng *rand.Rand
}

// WithSeed samples from a fresh stream seeded by p. Two calls with the
// same pair and inputs return the same action.
func WithSeed(p seed.Pair) ActionOption {
	return func(o *actionOptions) {
		o.rng = p.Rand()
	}
}

// WithRand samples from rng, advancing it.
func WithRand(rng *rand.Rand) ActionOption {
	return func(o *actionOptions) {
		o.rng = rng
	}
}

func resolveRand(opts []ActionOption) *rand.Rand {
	var o actionOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		return seed.Fresh().Rand()
	}
	return o.rng
}

// Descriptor is the serialisable description of a policy.
type Descriptor struct {
	Kind         string               `json:"kind" yaml:"kind"`
	TimeStepSpec trajectory.Spec      `json:"time_step_spec" yaml:"time_step_spec"`
	ActionSpec   specs.TensorSpec     `json:"action_spec" yaml:"action_spec"`
	Network      *networks.Descriptor `json:"network,omitempty" yaml:"network,omitempty"`
	Wrapped      *Descriptor          `json:"wrapped,omitempty" yaml:"wrapped,omitempty"`
}

// base holds the specs shared by every policy.
type base struct {
	timeStepSpec trajectory.Spec
	actionSpec   specs.TensorSpec
	stateSpec    []specs.TensorSpec
}

func newBase(timeStepSpec trajectory.Spec, actionSpec specs.TensorSpec, stateSpec []specs.TensorSpec) (base, error) {
	if err := timeStepSpec.Validate(); err != nil {
		return base{}, fmt.Errorf("time step spec: %w", err)
	}
	if actionSpec.DType != tensor.Int32 || !actionSpec.IsBounded() {
		return base{}, fmt.Errorf("action spec %q must be a bounded int32 spec", actionSpec.Name)
	}
	if err := specs.Validate(specs.Flatten(timeStepSpec.Flatten(), []specs.TensorSpec{actionSpec}, stateSpec)); err != nil {
		return base{}, err
	}
	return base{timeStepSpec: timeStepSpec, actionSpec: actionSpec, stateSpec: stateSpec}, nil
}

func (b *base) TimeStepSpec() trajectory.Spec { return b.timeStepSpec }
func (b *base) ActionSpec() specs.TensorSpec  { return b.actionSpec }
func (b *base) StateSpec() []specs.TensorSpec { return b.stateSpec }
func (b *base) InfoSpec() []specs.TensorSpec  { return nil }

// InitialState returns zero tensors for each state spec.
func (b *base) InitialState(batchSize int) (State, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	state := make(State, len(b.stateSpec))
	for i, s := range b.stateSpec {
		raw, err := s.Zeros(batchSize)
		if err != nil {
			return nil, err
		}
		state[i] = raw
	}
	return state, nil
}

// checkInputs validates a batched time step and state. It returns the
// batch size.
func (b *base) checkInputs(ts trajectory.TimeStep, state State) (int, error) {
	if err := b.timeStepSpec.Check(ts); err != nil {
		return 0, err
	}
	batch := ts.BatchSize()
	if len(state) != len(b.stateSpec) {
		return 0, fmt.Errorf("policy state has %d tensors, want %d", len(state), len(b.stateSpec))
	}
	for i, s := range specs.WithOuterDims(b.stateSpec, batch) {
		if err := s.Check(state[i]); err != nil {
			return 0, err
		}
	}
	return batch, nil
}
