// Package nn implements the neural network building blocks used by the
// Q networks: dense layers, activations, an LSTM cell and containers.
//
// Modules own their parameters as float32 tensors and expose them as a
// flat state dict for the .born weight file:
//
//	net := nn.NewSequential[*cpu.CPUBackend](
//	    nn.NewLinear(4, 75, rng, backend),
//	    nn.NewReLU[*cpu.CPUBackend](),
//	    nn.NewLinear(75, 11, rng, backend),
//	)
//	q := net.Forward(obs) // [batch, 11]
package nn

import (
	"github.com/born-ml/agents/internal/tensor"
)

// Stateful is implemented by anything that can export and restore its
// parameters by name.
type Stateful interface {
	// StateDict returns parameter tensors keyed by dotted name. The
	// tensors are shared with the module, not copied.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies matching tensors into the module's parameters.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// Module is the base interface for feed-forward components.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	Stateful

	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters, including those of
	// nested modules. Activations return nil.
	Parameters() []*Parameter[B]
}

// NumParameters counts scalar parameters across params.
func NumParameters[B tensor.Backend](params []*Parameter[B]) int {
	n := 0
	for _, p := range params {
		n += p.Tensor().NumElements()
	}
	return n
}
