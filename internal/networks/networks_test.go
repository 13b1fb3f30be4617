package networks

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/born-ml/agents/internal/backend/cpu"
	"github.com/born-ml/agents/internal/seed"
	"github.com/born-ml/agents/internal/specs"
	"github.com/born-ml/agents/internal/tensor"
	"github.com/born-ml/agents/internal/trajectory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Backend = *cpu.CPUBackend

var (
	obsSpec    = specs.NewBounded("obs", tensor.Float32, tensor.Shape{4}, -10, 10)
	actionSpec = specs.NewBounded("act_0", tensor.Int32, nil, 0, 10)
	testSeed   = seed.Pair{Global: seed.DefaultGlobal, Op: 7}
)

func observations(t *testing.T, batch int) *tensor.RawTensor {
	t.Helper()
	raw, err := obsSpec.Sample(seed.Pair{Global: 1, Op: 2}.Rand(), batch)
	require.NoError(t, err)
	return raw
}

func stepTypes(t *testing.T, types ...trajectory.StepType) *tensor.RawTensor {
	t.Helper()
	data := make([]int32, len(types))
	for i, st := range types {
		data[i] = int32(st)
	}
	raw, err := tensor.RawFromSlice(data, tensor.Shape{len(types)})
	require.NoError(t, err)
	return raw
}

func TestQNetwork_Call(t *testing.T) {
	net, err := NewQNetwork(obsSpec, actionSpec, QNetworkConfig{Seed: testSeed}, cpu.New())
	require.NoError(t, err)

	values, state, err := net.Call(observations(t, 3), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, state)
	assert.Equal(t, tensor.Shape{3, 11}, values.Shape())
	assert.Equal(t, 11, net.NumActions())
	assert.Empty(t, net.StateSpec())

	// 4*75+75 + 75*40+40 + 40*11+11
	assert.Equal(t, 375+3040+451, net.NumParameters())
}

func TestQNetwork_RejectsBadInput(t *testing.T) {
	net, err := NewQNetwork(obsSpec, actionSpec, QNetworkConfig{Seed: testSeed}, cpu.New())
	require.NoError(t, err)

	wrong, err := tensor.NewRaw(tensor.Shape{3, 5}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	_, _, err = net.Call(wrong, nil, nil)
	assert.True(t, errors.Is(err, specs.ErrMismatch))

	_, _, err = net.Call(observations(t, 3), nil, []*tensor.RawTensor{wrong})
	assert.Error(t, err)
}

func TestQNetwork_SeededInit(t *testing.T) {
	backend := cpu.New()
	a, err := NewQNetwork(obsSpec, actionSpec, QNetworkConfig{Seed: testSeed}, backend)
	require.NoError(t, err)
	b, err := NewQNetwork(obsSpec, actionSpec, QNetworkConfig{Seed: testSeed}, backend)
	require.NoError(t, err)
	c, err := NewQNetwork(obsSpec, actionSpec, QNetworkConfig{Seed: seed.Pair{Global: 1}}, backend)
	require.NoError(t, err)

	assert.Equal(t, a.StateDict()["encoder.0.weight"].AsFloat32(), b.StateDict()["encoder.0.weight"].AsFloat32())
	assert.NotEqual(t, a.StateDict()["encoder.0.weight"].AsFloat32(), c.StateDict()["encoder.0.weight"].AsFloat32())

	for _, v := range a.StateDict()["q_value.bias"].AsFloat32() {
		assert.InDelta(t, -0.2, v, 1e-7)
	}
	for _, v := range a.StateDict()["q_value.weight"].AsFloat32() {
		assert.LessOrEqual(t, v, float32(0.03))
		assert.GreaterOrEqual(t, v, float32(-0.03))
	}
}

func TestQNetwork_ActionSpecValidation(t *testing.T) {
	backend := cpu.New()

	_, err := NewQNetwork(obsSpec, specs.New("act", tensor.Int32, nil), QNetworkConfig{}, backend)
	assert.Error(t, err, "unbounded action spec")

	_, err = NewQNetwork(obsSpec, specs.NewBounded("act", tensor.Int32, tensor.Shape{2}, 0, 3), QNetworkConfig{}, backend)
	assert.Error(t, err, "non-scalar action spec")

	_, err = NewQNetwork(specs.New("obs", tensor.Int32, tensor.Shape{4}), actionSpec, QNetworkConfig{}, backend)
	assert.Error(t, err, "integer observation spec")
}

func TestQRnnNetwork_StateSpec(t *testing.T) {
	net, err := NewQRnnNetwork(obsSpec, actionSpec, QRnnNetworkConfig{Seed: testSeed}, cpu.New())
	require.NoError(t, err)

	stateSpec := net.StateSpec()
	require.Len(t, stateSpec, 2)
	assert.Equal(t, StateH, stateSpec[0].Name)
	assert.Equal(t, StateC, stateSpec[1].Name)
	assert.Equal(t, tensor.Shape{40}, stateSpec[0].Shape)
	assert.Equal(t, tensor.Float32, stateSpec[1].DType)
}

func TestQRnnNetwork_CallAdvancesState(t *testing.T) {
	net, err := NewQRnnNetwork(obsSpec, actionSpec, QRnnNetworkConfig{Seed: testSeed}, cpu.New())
	require.NoError(t, err)

	state, err := specs.SampleNest(net.StateSpec(), seed.Pair{Op: 3}.Rand(), 3)
	require.NoError(t, err)

	values, next, err := net.Call(observations(t, 3), stepTypes(t, trajectory.Mid, trajectory.Mid, trajectory.Mid), state)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 11}, values.Shape())
	require.Len(t, next, 2)
	assert.Equal(t, tensor.Shape{3, 40}, next[0].Shape())
	assert.NotEqual(t, state[0].AsFloat32(), next[0].AsFloat32())
}

func TestQRnnNetwork_ResetsFirstRows(t *testing.T) {
	net, err := NewQRnnNetwork(obsSpec, actionSpec, QRnnNetworkConfig{Seed: testSeed}, cpu.New())
	require.NoError(t, err)

	obs := observations(t, 2)
	zeros, err := specs.SampleNest(net.StateSpec(), seed.Pair{Op: 3}.Rand(), 2)
	require.NoError(t, err)
	for _, z := range zeros {
		clear(z.AsFloat32())
	}
	random, err := specs.SampleNest(net.StateSpec(), seed.Pair{Op: 4}.Rand(), 2)
	require.NoError(t, err)

	fromZero, _, err := net.Call(obs, stepTypes(t, trajectory.Mid, trajectory.Mid), zeros)
	require.NoError(t, err)
	fromReset, _, err := net.Call(obs, stepTypes(t, trajectory.First, trajectory.Mid), random)
	require.NoError(t, err)

	// Row 0 was reset, so it matches the zero-state result; row 1 was not.
	assert.InDeltaSlice(t, fromZero.Data()[:11], fromReset.Data()[:11], 1e-6)
	assert.NotEqual(t, fromZero.Data()[11:], fromReset.Data()[11:])
}

func TestQRnnNetwork_RejectsBadState(t *testing.T) {
	net, err := NewQRnnNetwork(obsSpec, actionSpec, QRnnNetworkConfig{Seed: testSeed}, cpu.New())
	require.NoError(t, err)
	steps := stepTypes(t, trajectory.First, trajectory.First)

	_, _, err = net.Call(observations(t, 2), steps, nil)
	assert.Error(t, err)

	state, err := specs.SampleNest(net.StateSpec(), seed.Pair{}.Rand(), 3)
	require.NoError(t, err)
	_, _, err = net.Call(observations(t, 2), steps, state)
	assert.True(t, errors.Is(err, specs.ErrMismatch))

	state, err = specs.SampleNest(net.StateSpec(), seed.Pair{}.Rand(), 2)
	require.NoError(t, err)
	_, _, err = net.Call(observations(t, 2), nil, state)
	assert.True(t, errors.Is(err, specs.ErrMismatch))
}

func TestBuild_RoundTripsDescriptor(t *testing.T) {
	backend := cpu.New()
	for _, kind := range []string{KindQ, KindQRnn} {
		t.Run(kind, func(t *testing.T) {
			var original Network[Backend]
			var err error
			if kind == KindQ {
				original, err = NewQNetwork(obsSpec, actionSpec, QNetworkConfig{Seed: testSeed}, backend)
			} else {
				original, err = NewQRnnNetwork(obsSpec, actionSpec, QRnnNetworkConfig{Seed: testSeed}, backend)
			}
			require.NoError(t, err)

			encoded, err := json.Marshal(original.Descriptor())
			require.NoError(t, err)
			var desc Descriptor
			require.NoError(t, json.Unmarshal(encoded, &desc))

			rebuilt, err := Build(desc, backend)
			require.NoError(t, err)
			assert.Equal(t, original.NumParameters(), rebuilt.NumParameters())
			assert.Equal(t, original.Descriptor(), rebuilt.Descriptor())
			require.NoError(t, rebuilt.LoadStateDict(original.StateDict()))
		})
	}

	_, err := Build(Descriptor{Kind: "dueling"}, backend)
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestLoadStateDict_MissingKey(t *testing.T) {
	net, err := NewQNetwork(obsSpec, actionSpec, QNetworkConfig{Seed: testSeed}, cpu.New())
	require.NoError(t, err)

	stateDict := net.StateDict()
	delete(stateDict, "q_value.bias")
	assert.ErrorContains(t, net.LoadStateDict(stateDict), "q_value")
}

func TestBuild_KeepsEmptyLayerParams(t *testing.T) {
	backend := cpu.New()
	noHidden := []int{}
	originals := map[string]Network[Backend]{}

	q, err := NewQNetwork(obsSpec, actionSpec, QNetworkConfig{FCLayerParams: noHidden, Seed: testSeed}, backend)
	require.NoError(t, err)
	originals[KindQ] = q

	rnn, err := NewQRnnNetwork(obsSpec, actionSpec, QRnnNetworkConfig{
		InputFCLayerParams:  noHidden,
		LSTMSize:            8,
		OutputFCLayerParams: noHidden,
		Seed:                testSeed,
	}, backend)
	require.NoError(t, err)
	originals[KindQRnn] = rnn

	assert.Equal(t, 4*11+11, q.NumParameters())

	for kind, original := range originals {
		t.Run(kind, func(t *testing.T) {
			encoded, err := json.Marshal(original.Descriptor())
			require.NoError(t, err)
			var desc Descriptor
			require.NoError(t, json.Unmarshal(encoded, &desc))

			rebuilt, err := Build(desc, backend)
			require.NoError(t, err)
			assert.Equal(t, original.NumParameters(), rebuilt.NumParameters())
			require.NoError(t, rebuilt.LoadStateDict(original.StateDict()))
		})
	}
}
