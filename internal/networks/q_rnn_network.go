package networks

import (
	"fmt"
	"slices"

	"github.com/born-ml/agents/internal/nn"
	"github.com/born-ml/agents/internal/seed"
	"github.com/born-ml/agents/internal/specs"
	"github.com/born-ml/agents/internal/tensor"
)

// State spec names of QRnnNetwork.
const (
	StateH = "network_state_h"
	StateC = "network_state_c"
)

// QRnnNetworkConfig configures a recurrent Q network.
type QRnnNetworkConfig struct {
	InputFCLayerParams  []int // nil selects (75, 40)
	LSTMSize            int   // 0 selects 40
	OutputFCLayerParams []int // nil selects (75, 40)
	Seed                seed.Pair
}

// DefaultQRnnNetworkConfig returns input (75, 40), LSTM 40, output (75, 40).
func DefaultQRnnNetworkConfig() QRnnNetworkConfig {
	return QRnnNetworkConfig{
		InputFCLayerParams:  []int{75, 40},
		LSTMSize:            40,
		OutputFCLayerParams: []int{75, 40},
		Seed:                seed.Pair{Global: seed.DefaultGlobal},
	}
}

// QRnnNetwork is observation -> input MLP -> LSTM cell -> output MLP -> Q layer.
// Its state is the LSTM (h, c) pair.
type QRnnNetwork[B tensor.Backend] struct {
	inputSpec  specs.TensorSpec
	actionSpec specs.TensorSpec
	config     QRnnNetworkConfig
	input      *nn.Sequential[B]
	cell       *nn.LSTMCell[B]
	output     *nn.Sequential[B]
	qLayer     *nn.Linear[B]
	backend    B
}

var _ Network[tensor.Backend] = (*QRnnNetwork[tensor.Backend])(nil)

// NewQRnnNetwork creates a QRnnNetwork.
func NewQRnnNetwork[B tensor.Backend](inputSpec, actionSpec specs.TensorSpec, cfg QRnnNetworkConfig, backend B) (*QRnnNetwork[B], error) {
	n, err := numActions(actionSpec)
	if err != nil {
		return nil, err
	}
	in, err := inputFeatures(inputSpec)
	if err != nil {
		return nil, err
	}

	def := DefaultQRnnNetworkConfig()
	if cfg.InputFCLayerParams == nil {
		cfg.InputFCLayerParams = def.InputFCLayerParams
	}
	if cfg.LSTMSize == 0 {
		cfg.LSTMSize = def.LSTMSize
	}
	if cfg.OutputFCLayerParams == nil {
		cfg.OutputFCLayerParams = def.OutputFCLayerParams
	}
	if cfg.LSTMSize < 0 {
		return nil, fmt.Errorf("lstm size must be positive, got %d", cfg.LSTMSize)
	}

	rng := cfg.Seed.Derive(KindQRnn).Rand()
	input, hidden := mlp(in, cfg.InputFCLayerParams, rng, backend)
	cell := nn.NewLSTMCell(hidden, cfg.LSTMSize, rng, backend)
	output, hidden := mlp(cfg.LSTMSize, cfg.OutputFCLayerParams, rng, backend)

	return &QRnnNetwork[B]{
		inputSpec:  inputSpec,
		actionSpec: actionSpec,
		config:     cfg,
		input:      input,
		cell:       cell,
		output:     output,
		qLayer:     newQLayer(hidden, n, rng, backend),
		backend:    backend,
	}, nil
}

// Call runs one LSTM step. Rows whose step type is First start from a
// zero state.
func (q *QRnnNetwork[B]) Call(observation, stepType *tensor.RawTensor, state []*tensor.RawTensor) (*tensor.Tensor[float32, B], []*tensor.RawTensor, error) {
	obs, err := observationBatch(q.inputSpec, observation, q.backend)
	if err != nil {
		return nil, nil, err
	}
	batch := obs.Shape()[0]

	stateSpec := specs.WithOuterDims(q.StateSpec(), batch)
	if len(state) != len(stateSpec) {
		return nil, nil, fmt.Errorf("q rnn network needs %d state tensors, got %d", len(stateSpec), len(state))
	}
	for i, s := range stateSpec {
		if err := s.Check(state[i]); err != nil {
			return nil, nil, err
		}
	}

	reset, err := resetMask(stepType, batch, q.backend)
	if err != nil {
		return nil, nil, err
	}
	zeros := tensor.Zeros[float32](tensor.Shape{1}, q.backend)
	h := tensor.Where(reset, zeros, tensor.New[float32](state[0], q.backend))
	c := tensor.Where(reset, zeros, tensor.New[float32](state[1], q.backend))

	hNext, cNext := q.cell.Step(q.input.Forward(obs), h, c)
	values := q.qLayer.Forward(q.output.Forward(hNext))

	return values, []*tensor.RawTensor{hNext.Raw(), cNext.Raw()}, nil
}

// InputSpec returns the observation spec.
func (q *QRnnNetwork[B]) InputSpec() specs.TensorSpec {
	return q.inputSpec
}

// StateSpec returns the h and c specs, float32 [lstm_size].
func (q *QRnnNetwork[B]) StateSpec() []specs.TensorSpec {
	return []specs.TensorSpec{
		specs.New(StateH, tensor.Float32, tensor.Shape{q.config.LSTMSize}),
		specs.New(StateC, tensor.Float32, tensor.Shape{q.config.LSTMSize}),
	}
}

// NumActions returns the Q layer width.
func (q *QRnnNetwork[B]) NumActions() int {
	return q.qLayer.OutFeatures()
}

// NumParameters returns the scalar parameter count.
func (q *QRnnNetwork[B]) NumParameters() int {
	params := append(q.input.Parameters(), q.cell.Parameters()...)
	params = append(params, q.output.Parameters()...)
	return nn.NumParameters(append(params, q.qLayer.Parameters()...))
}

// Descriptor returns the architecture.
func (q *QRnnNetwork[B]) Descriptor() Descriptor {
	return Descriptor{
		Kind:                KindQRnn,
		InputSpec:           q.inputSpec,
		ActionSpec:          q.actionSpec,
		InputFCLayerParams:  slices.Clone(q.config.InputFCLayerParams),
		LSTMSize:            q.config.LSTMSize,
		OutputFCLayerParams: slices.Clone(q.config.OutputFCLayerParams),
		Seed:                q.config.Seed,
	}
}

// StateDict returns "input.*", "lstm.*", "output.*" and "q_value.*" weights.
func (q *QRnnNetwork[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	nn.PrefixStateDict(stateDict, q.input.StateDict(), "input")
	nn.PrefixStateDict(stateDict, q.cell.StateDict(), "lstm")
	nn.PrefixStateDict(stateDict, q.output.StateDict(), "output")
	nn.PrefixStateDict(stateDict, q.qLayer.StateDict(), "q_value")
	return stateDict
}

// LoadStateDict restores the weights.
func (q *QRnnNetwork[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	parts := []struct {
		prefix string
		module nn.Stateful
	}{
		{"input", q.input},
		{"lstm", q.cell},
		{"output", q.output},
		{"q_value", q.qLayer},
	}
	for _, p := range parts {
		if err := p.module.LoadStateDict(nn.SubStateDict(stateDict, p.prefix)); err != nil {
			return fmt.Errorf("%s: %w", p.prefix, err)
		}
	}
	return nil
}
