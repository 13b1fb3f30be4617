package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/agents/internal/tensor"
)

// LSTMCell is a single LSTM step with gate order (input, forget, cell,
// output):
//
//	z      = x @ W_ih.T + b + h @ W_hh.T      // [batch, 4*hidden]
//	i, f, g, o = σ(z_i), σ(z_f), tanh(z_g), σ(z_o)
//	c'     = f*c + i*g
//	h'     = o*tanh(c')
//
// The forget-gate bias starts at 1.
type LSTMCell[B tensor.Backend] struct {
	inputSize  int
	hiddenSize int
	input      *Linear[B] // [4*hidden, input]
	recurrent  *Linear[B] // [4*hidden, hidden], no bias

	sigmoid *Sigmoid[B]
	tanh    *Tanh[B]
}

// NewLSTMCell creates an LSTM cell.
func NewLSTMCell[B tensor.Backend](inputSize, hiddenSize int, rng *rand.Rand, backend B) *LSTMCell[B] {
	input := NewLinear(inputSize, 4*hiddenSize, rng, backend)
	bias := input.Bias().Tensor().Data()
	for i := hiddenSize; i < 2*hiddenSize; i++ {
		bias[i] = 1
	}

	return &LSTMCell[B]{
		inputSize:  inputSize,
		hiddenSize: hiddenSize,
		input:      input,
		recurrent:  NewLinearNoBias(hiddenSize, 4*hiddenSize, rng, backend),
		sigmoid:    NewSigmoid[B](),
		tanh:       NewTanh[B](),
	}
}

// HiddenSize returns the size of h and c.
func (c *LSTMCell[B]) HiddenSize() int {
	return c.hiddenSize
}

// Step advances the cell one time step. x is [batch, input]; h and cell
// are [batch, hidden].
func (c *LSTMCell[B]) Step(x, h, cell *tensor.Tensor[float32, B]) (hNext, cellNext *tensor.Tensor[float32, B]) {
	if h.Shape()[len(h.Shape())-1] != c.hiddenSize || !h.Shape().Equal(cell.Shape()) {
		panic(fmt.Sprintf("LSTMCell.Step: state shapes %v and %v do not match hidden size %d",
			h.Shape(), cell.Shape(), c.hiddenSize))
	}

	z := c.input.Forward(x).Add(c.recurrent.Forward(h))
	gates := z.Chunk(4, -1)

	i := c.sigmoid.Forward(gates[0])
	f := c.sigmoid.Forward(gates[1])
	g := c.tanh.Forward(gates[2])
	o := c.sigmoid.Forward(gates[3])

	cellNext = f.Mul(cell).Add(i.Mul(g))
	hNext = o.Mul(c.tanh.Forward(cellNext))
	return hNext, cellNext
}

// Parameters returns the input and recurrent weights.
func (c *LSTMCell[B]) Parameters() []*Parameter[B] {
	return append(c.input.Parameters(), c.recurrent.Parameters()...)
}

// StateDict returns "input.weight", "input.bias" and "recurrent.weight".
func (c *LSTMCell[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	PrefixStateDict(stateDict, c.input.StateDict(), "input")
	PrefixStateDict(stateDict, c.recurrent.StateDict(), "recurrent")
	return stateDict
}

// LoadStateDict restores both weight sets.
func (c *LSTMCell[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if err := c.input.LoadStateDict(SubStateDict(stateDict, "input")); err != nil {
		return fmt.Errorf("lstm input: %w", err)
	}
	if err := c.recurrent.LoadStateDict(SubStateDict(stateDict, "recurrent")); err != nil {
		return fmt.Errorf("lstm recurrent: %w", err)
	}
	return nil
}
