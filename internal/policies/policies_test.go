package policies

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/born-ml/agents/internal/backend/cpu"
	"github.com/born-ml/agents/internal/networks"
	"github.com/born-ml/agents/internal/seed"
	"github.com/born-ml/agents/internal/specs"
	"github.com/born-ml/agents/internal/tensor"
	"github.com/born-ml/agents/internal/trajectory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Backend = *cpu.CPUBackend

func timeStepSpec() trajectory.Spec {
	return trajectory.Spec{
		StepType:    specs.NewBounded("st", tensor.Int32, nil, 0, 2),
		Reward:      specs.NewBounded("reward", tensor.Float32, nil, 0, 5),
		Discount:    specs.NewBounded("discount", tensor.Float32, nil, 0, 1),
		Observation: specs.NewBounded("obs", tensor.Float32, tensor.Shape{4}, -10, 10),
	}
}

var actionSpec = specs.NewBounded("act_0", tensor.Int32, nil, 0, 10)

func newQPolicy(t *testing.T, recurrent bool) *QPolicy[Backend] {
	t.Helper()
	backend := cpu.New()
	tsSpec := timeStepSpec()

	var network networks.Network[Backend]
	var err error
	if recurrent {
		network, err = networks.NewQRnnNetwork(tsSpec.Observation, actionSpec, networks.DefaultQRnnNetworkConfig(), backend)
	} else {
		network, err = networks.NewQNetwork(tsSpec.Observation, actionSpec, networks.DefaultQNetworkConfig(), backend)
	}
	require.NoError(t, err)

	policy, err := NewQPolicy(tsSpec, actionSpec, network, backend)
	require.NoError(t, err)
	return policy
}

func sampleInputs(t *testing.T, p Policy, batch int) (trajectory.TimeStep, State) {
	t.Helper()
	values, err := specs.SampleNest(specs.Flatten(p.TimeStepSpec().Flatten(), p.StateSpec()), seed.Pair{Op: 4}.Rand(), batch)
	require.NoError(t, err)
	ts, err := trajectory.FromFlat(values[:4])
	require.NoError(t, err)
	return ts, State(values[4:])
}

func TestQPolicy_Specs(t *testing.T) {
	stateless := newQPolicy(t, false)
	assert.Empty(t, stateless.StateSpec())
	assert.Equal(t, []string{"act_0"}, specs.Names(StepSpec(stateless)))

	stateful := newQPolicy(t, true)
	assert.Equal(t, []string{"act_0", networks.StateH, networks.StateC}, specs.Names(StepSpec(stateful)))
	assert.Empty(t, stateful.InfoSpec())
}

func TestQPolicy_SeededActionIsReproducible(t *testing.T) {
	for _, recurrent := range []bool{false, true} {
		policy := newQPolicy(t, recurrent)
		ts, state := sampleInputs(t, policy, 3)
		pair := seed.Pair{Global: seed.DefaultGlobal, Op: 98723}

		a, err := policy.Action(ts, state, WithSeed(pair))
		require.NoError(t, err)
		b, err := policy.Action(ts, state, WithSeed(pair))
		require.NoError(t, err)

		assert.Equal(t, tensor.Shape{3}, a.Action.Shape())
		assert.Equal(t, tensor.Int32, a.Action.DType())
		assert.Equal(t, a.Action.AsInt32(), b.Action.AsInt32())
		assert.True(t, actionSpec.Contains(a.Action))
		assert.Len(t, a.State, len(policy.StateSpec()))
		for i := range a.State {
			assert.Equal(t, a.State[i].AsFloat32(), b.State[i].AsFloat32())
		}
	}
}

func TestQPolicy_WithRandAdvancesStream(t *testing.T) {
	policy := newQPolicy(t, false)
	ts, _ := sampleInputs(t, policy, 64)

	rng := seed.Pair{Op: 1}.Rand()
	a, err := policy.Action(ts, nil, WithRand(rng))
	require.NoError(t, err)
	b, err := policy.Action(ts, nil, WithRand(rng))
	require.NoError(t, err)
	assert.NotEqual(t, a.Action.AsInt32(), b.Action.AsInt32())
}

func TestQPolicy_StatelessAcceptsEmptyState(t *testing.T) {
	policy := newQPolicy(t, false)
	ts, _ := sampleInputs(t, policy, 3)

	withNil, err := policy.Action(ts, nil)
	require.NoError(t, err)
	withEmpty, err := policy.Action(ts, State{})
	require.NoError(t, err)
	assert.Equal(t, withNil.Action.Shape(), withEmpty.Action.Shape())
	assert.Equal(t, withNil.Action.DType(), withEmpty.Action.DType())
}

func TestQPolicy_RejectsBadInputs(t *testing.T) {
	policy := newQPolicy(t, true)
	ts, state := sampleInputs(t, policy, 3)

	_, err := policy.Action(ts, state[:1])
	assert.Error(t, err)

	bad := ts
	bad.Reward = tensor.MustNewRaw(tensor.Shape{2}, tensor.Float32, tensor.CPU)
	_, err = policy.Action(bad, state)
	var mismatch *specs.MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "reward", mismatch.Field)
}

func TestQPolicy_InitialState(t *testing.T) {
	policy := newQPolicy(t, true)
	state, err := policy.InitialState(3)
	require.NoError(t, err)
	require.Len(t, state, 2)
	for _, s := range state {
		assert.Equal(t, tensor.Shape{3, 40}, s.Shape())
		for _, v := range s.AsFloat32() {
			assert.Zero(t, v)
		}
	}

	_, err = policy.InitialState(0)
	assert.Error(t, err)
}

func TestNewQPolicy_Validation(t *testing.T) {
	backend := cpu.New()
	tsSpec := timeStepSpec()
	network, err := networks.NewQNetwork(tsSpec.Observation, actionSpec, networks.QNetworkConfig{}, backend)
	require.NoError(t, err)

	_, err = NewQPolicy(tsSpec, specs.NewBounded("act_0", tensor.Int32, nil, 0, 4), network, backend)
	assert.Error(t, err, "action count mismatch")

	other := tsSpec
	other.Observation = specs.New("obs", tensor.Float32, tensor.Shape{5})
	_, err = NewQPolicy(other, actionSpec, network, backend)
	assert.Error(t, err, "observation mismatch")

	_, err = NewQPolicy(tsSpec, specs.NewBounded("act_0", tensor.Float32, nil, 0, 10), network, backend)
	assert.Error(t, err, "float action spec")
}

func TestGreedyPolicy_TakesMode(t *testing.T) {
	q := newQPolicy(t, false)
	greedy := NewGreedyPolicy[Backend](q)
	ts, _ := sampleInputs(t, greedy, 3)

	step, err := greedy.Action(ts, nil, WithSeed(seed.Pair{Op: 1}))
	require.NoError(t, err)
	again, err := greedy.Action(ts, nil)
	require.NoError(t, err)
	assert.Equal(t, step.Action.AsInt32(), again.Action.AsInt32())

	dist, _, err := q.Distribution(ts, nil)
	require.NoError(t, err)
	assert.Equal(t, dist.Mode().Data(), step.Action.AsInt32())
}

func TestRandomPolicy_ActionsInBounds(t *testing.T) {
	policy, err := NewRandomPolicy(timeStepSpec(), specs.NewBounded("act", tensor.Int32, nil, 3, 5), cpu.New())
	require.NoError(t, err)
	ts, _ := sampleInputs(t, policy, 50)

	step, err := policy.Action(ts, nil, WithSeed(seed.Pair{Op: 2}))
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{50}, step.Action.Shape())
	for _, a := range step.Action.AsInt32() {
		assert.GreaterOrEqual(t, a, int32(3))
		assert.LessOrEqual(t, a, int32(5))
	}
	assert.Empty(t, policy.StateDict())
	assert.Error(t, policy.LoadStateDict(map[string]*tensor.RawTensor{"w": tensor.Scalar[float32](1)}))
}

func TestRebuild(t *testing.T) {
	backend := cpu.New()
	q := newQPolicy(t, true)
	random, err := NewRandomPolicy(timeStepSpec(), actionSpec, backend)
	require.NoError(t, err)

	for _, original := range []Policy{q, NewGreedyPolicy[Backend](q), random} {
		desc := original.Descriptor()
		t.Run(desc.Kind, func(t *testing.T) {
			encoded, err := json.Marshal(desc)
			require.NoError(t, err)
			var decoded Descriptor
			require.NoError(t, json.Unmarshal(encoded, &decoded))

			rebuilt, err := Rebuild(decoded, backend)
			require.NoError(t, err)
			require.NoError(t, rebuilt.LoadStateDict(original.StateDict()))
			assert.True(t, specs.EqualLists(StepSpec(original), StepSpec(rebuilt)))

			ts, state := sampleInputs(t, original, 3)
			want, err := original.Action(ts, state, WithSeed(seed.Pair{Op: 5}))
			require.NoError(t, err)
			got, err := rebuilt.Action(ts, state, WithSeed(seed.Pair{Op: 5}))
			require.NoError(t, err)
			assert.Equal(t, want.Action.AsInt32(), got.Action.AsInt32())
		})
	}

	_, err = Rebuild(Descriptor{Kind: "boltzmann"}, backend)
	assert.True(t, errors.Is(err, ErrUnknownKind))
	_, err = Rebuild(Descriptor{Kind: KindGreedy, Wrapped: &Descriptor{Kind: KindRandom, TimeStepSpec: timeStepSpec(), ActionSpec: actionSpec}}, backend)
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestStepFlatten(t *testing.T) {
	a := tensor.Scalar[int32](1)
	h := tensor.Scalar[float32](2)
	step := Step{Action: a, State: State{h}}
	assert.Equal(t, []*tensor.RawTensor{a, h}, step.Flatten())
}
