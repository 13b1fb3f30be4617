// Package networks implements the Q-value networks policies are built on.
package networks

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/born-ml/agents/internal/nn"
	"github.com/born-ml/agents/internal/seed"
	"github.com/born-ml/agents/internal/specs"
	"github.com/born-ml/agents/internal/tensor"
	"github.com/born-ml/agents/internal/trajectory"
)

// Network kinds recorded in descriptors.
const (
	KindQ    = "q_network"
	KindQRnn = "q_rnn_network"
)

// ErrUnknownKind is returned by Build for an unrecognised descriptor.
var ErrUnknownKind = errors.New("unknown network kind")

// Network maps a batch of observations (and, for recurrent networks, a
// state) to Q-values of shape [batch, NumActions()].
type Network[B tensor.Backend] interface {
	nn.Stateful

	// Call evaluates the network. stepType is the int32 [batch] step type
	// tensor; recurrent networks reset rows whose step type is First.
	// state is ordered as StateSpec() and is nil for stateless networks.
	Call(observation *tensor.RawTensor, stepType *tensor.RawTensor, state []*tensor.RawTensor) (*tensor.Tensor[float32, B], []*tensor.RawTensor, error)

	// InputSpec returns the observation spec.
	InputSpec() specs.TensorSpec

	// StateSpec returns the recurrent state specs without batch dimension.
	StateSpec() []specs.TensorSpec

	// NumActions returns the number of Q-values per row.
	NumActions() int

	// NumParameters returns the scalar parameter count.
	NumParameters() int

	// Descriptor returns what Build needs to recreate the architecture.
	Descriptor() Descriptor
}

// Descriptor is the serialisable architecture of a network.
type Descriptor struct {
	Kind                string           `json:"kind" yaml:"kind"`
	InputSpec           specs.TensorSpec `json:"input_spec" yaml:"input_spec"`
	ActionSpec          specs.TensorSpec `json:"action_spec" yaml:"action_spec"`
	FCLayerParams       []int            `json:"fc_layer_params" yaml:"fc_layer_params,flow"`
	InputFCLayerParams  []int            `json:"input_fc_layer_params" yaml:"input_fc_layer_params,flow"`
	LSTMSize            int              `json:"lstm_size,omitempty" yaml:"lstm_size,omitempty"`
	OutputFCLayerParams []int            `json:"output_fc_layer_params" yaml:"output_fc_layer_params,flow"`
	Seed                seed.Pair        `json:"seed" yaml:"seed"`
}

// Build creates an untrained network from desc. Load weights afterwards
// with LoadStateDict.
func Build[B tensor.Backend](desc Descriptor, backend B) (Network[B], error) {
	switch desc.Kind {
	case KindQ:
		return NewQNetwork(desc.InputSpec, desc.ActionSpec, QNetworkConfig{
			FCLayerParams: desc.FCLayerParams,
			Seed:          desc.Seed,
		}, backend)
	case KindQRnn:
		return NewQRnnNetwork(desc.InputSpec, desc.ActionSpec, QRnnNetworkConfig{
			InputFCLayerParams:  desc.InputFCLayerParams,
			LSTMSize:            desc.LSTMSize,
			OutputFCLayerParams: desc.OutputFCLayerParams,
			Seed:                desc.Seed,
		}, backend)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, desc.Kind)
	}
}

// numActions validates the action spec: a bounded scalar integer.
func numActions(actionSpec specs.TensorSpec) (int, error) {
	if len(actionSpec.Shape) != 0 {
		return 0, fmt.Errorf("action spec %q must be scalar, got shape %v", actionSpec.Name, actionSpec.Shape)
	}
	return actionSpec.NumValues()
}

// inputFeatures validates the observation spec and returns its flattened size.
func inputFeatures(inputSpec specs.TensorSpec) (int, error) {
	if inputSpec.DType != tensor.Float32 {
		return 0, fmt.Errorf("observation spec %q must be float32, got %s", inputSpec.Name, inputSpec.DType)
	}
	if err := inputSpec.Shape.Validate(); err != nil {
		return 0, fmt.Errorf("observation spec %q: %w", inputSpec.Name, err)
	}
	return inputSpec.Shape.NumElements(), nil
}

// mlp builds Linear+ReLU layers for each width in params.
func mlp[B tensor.Backend](in int, params []int, rng *rand.Rand, backend B) (*nn.Sequential[B], int) {
	seq := nn.NewSequential[B]()
	for _, width := range params {
		seq.Add(nn.NewLinear(in, width, rng, backend))
		seq.Add(nn.NewReLU[B]())
		in = width
	}
	return seq, in
}

// newQLayer creates the output layer: kernel U(-0.03, 0.03), bias -0.2.
func newQLayer[B tensor.Backend](in, numActions int, rng *rand.Rand, backend B) *nn.Linear[B] {
	layer := nn.NewLinear(in, numActions, rng, backend)
	for i := range layer.Weight().Tensor().Data() {
		layer.Weight().Tensor().Data()[i] = float32(rng.Float64()*0.06 - 0.03)
	}
	for i := range layer.Bias().Tensor().Data() {
		layer.Bias().Tensor().Data()[i] = -0.2
	}
	return layer
}

// observationBatch checks the observation and flattens it to [batch, features].
func observationBatch[B tensor.Backend](inputSpec specs.TensorSpec, observation *tensor.RawTensor, backend B) (*tensor.Tensor[float32, B], error) {
	if err := inputSpec.WithOuterDims(specs.UnknownDim).Check(observation); err != nil {
		return nil, err
	}
	batch := observation.Shape()[0]
	obs := tensor.New[float32](observation, backend)
	return obs.Reshape(batch, inputSpec.Shape.NumElements()), nil
}

// resetMask returns a [batch, 1] bool tensor true where stepType is First.
func resetMask[B tensor.Backend](stepType *tensor.RawTensor, batch int, backend B) (*tensor.Tensor[bool, B], error) {
	if stepType == nil || stepType.DType() != tensor.Int32 || !stepType.Shape().Equal(tensor.Shape{batch}) {
		return nil, &specs.MismatchError{Field: "step_type", Want: fmt.Sprintf("int32[%d]", batch), Got: fmt.Sprint(stepType)}
	}
	mask := tensor.Zeros[bool](tensor.Shape{batch, 1}, backend)
	data := mask.Data()
	for i, t := range stepType.AsInt32() {
		data[i] = trajectory.StepType(t) == trajectory.First
	}
	return mask, nil
}
