package networks

import (
	"fmt"
	"slices"

	"github.com/born-ml/agents/internal/nn"
	"github.com/born-ml/agents/internal/seed"
	"github.com/born-ml/agents/internal/specs"
	"github.com/born-ml/agents/internal/tensor"
)

// QNetworkConfig configures a feed-forward Q network.
type QNetworkConfig struct {
	// FCLayerParams lists hidden layer widths. Nil selects (75, 40); an
	// empty list means no hidden layers.
	FCLayerParams []int

	// Seed drives weight initialisation.
	Seed seed.Pair
}

// DefaultQNetworkConfig returns the (75, 40) architecture with the
// default global seed.
func DefaultQNetworkConfig() QNetworkConfig {
	return QNetworkConfig{
		FCLayerParams: []int{75, 40},
		Seed:          seed.Pair{Global: seed.DefaultGlobal},
	}
}

// QNetwork is observation -> ReLU MLP -> linear Q layer.
type QNetwork[B tensor.Backend] struct {
	inputSpec  specs.TensorSpec
	actionSpec specs.TensorSpec
	config     QNetworkConfig
	encoder    *nn.Sequential[B]
	qLayer     *nn.Linear[B]
	backend    B
}

var _ Network[tensor.Backend] = (*QNetwork[tensor.Backend])(nil)

// NewQNetwork creates a QNetwork. The action spec must be a bounded
// scalar integer; one Q-value is produced per action.
func NewQNetwork[B tensor.Backend](inputSpec, actionSpec specs.TensorSpec, cfg QNetworkConfig, backend B) (*QNetwork[B], error) {
	n, err := numActions(actionSpec)
	if err != nil {
		return nil, err
	}
	in, err := inputFeatures(inputSpec)
	if err != nil {
		return nil, err
	}
	if cfg.FCLayerParams == nil {
		cfg.FCLayerParams = DefaultQNetworkConfig().FCLayerParams
	}

	rng := cfg.Seed.Derive(KindQ).Rand()
	encoder, hidden := mlp(in, cfg.FCLayerParams, rng, backend)

	return &QNetwork[B]{
		inputSpec:  inputSpec,
		actionSpec: actionSpec,
		config:     cfg,
		encoder:    encoder,
		qLayer:     newQLayer(hidden, n, rng, backend),
		backend:    backend,
	}, nil
}

// Call returns Q-values; QNetwork carries no state.
func (q *QNetwork[B]) Call(observation, _ *tensor.RawTensor, state []*tensor.RawTensor) (*tensor.Tensor[float32, B], []*tensor.RawTensor, error) {
	if len(state) != 0 {
		return nil, nil, fmt.Errorf("q network is stateless, got %d state tensors", len(state))
	}
	obs, err := observationBatch(q.inputSpec, observation, q.backend)
	if err != nil {
		return nil, nil, err
	}
	return q.qLayer.Forward(q.encoder.Forward(obs)), nil, nil
}

// InputSpec returns the observation spec.
func (q *QNetwork[B]) InputSpec() specs.TensorSpec {
	return q.inputSpec
}

// StateSpec returns nil.
func (q *QNetwork[B]) StateSpec() []specs.TensorSpec {
	return nil
}

// NumActions returns the Q layer width.
func (q *QNetwork[B]) NumActions() int {
	return q.qLayer.OutFeatures()
}

// NumParameters returns the scalar parameter count.
func (q *QNetwork[B]) NumParameters() int {
	return nn.NumParameters(append(q.encoder.Parameters(), q.qLayer.Parameters()...))
}

// Descriptor returns the architecture.
func (q *QNetwork[B]) Descriptor() Descriptor {
	return Descriptor{
		Kind:          KindQ,
		InputSpec:     q.inputSpec,
		ActionSpec:    q.actionSpec,
		FCLayerParams: slices.Clone(q.config.FCLayerParams),
		Seed:          q.config.Seed,
	}
}

// StateDict returns "encoder.*" and "q_value.*" weights.
func (q *QNetwork[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	nn.PrefixStateDict(stateDict, q.encoder.StateDict(), "encoder")
	nn.PrefixStateDict(stateDict, q.qLayer.StateDict(), "q_value")
	return stateDict
}

// LoadStateDict restores the weights.
func (q *QNetwork[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := q.encoder.LoadStateDict(nn.SubStateDict(stateDict, "encoder")); err != nil {
		return fmt.Errorf("encoder: %w", err)
	}
	if err := q.qLayer.LoadStateDict(nn.SubStateDict(stateDict, "q_value")); err != nil {
		return fmt.Errorf("q_value: %w", err)
	}
	return nil
}
