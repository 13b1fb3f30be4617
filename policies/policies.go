// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package policies provides Q-value policies, their networks, and the
// tensor specs and time steps they consume.
//
// Example:
//
//	backend := cpu.New()
//	tsSpec := policies.NewTimeStepSpec(policies.NewBoundedSpec("obs", tensor.Float32, tensor.Shape{4}, -10, 10))
//	actionSpec := policies.NewBoundedSpec("act_0", tensor.Int32, nil, 0, 10)
//	net, _ := policies.NewQNetwork(tsSpec.Observation, actionSpec, policies.DefaultQNetworkConfig(), backend)
//	policy, _ := policies.NewQPolicy(tsSpec, actionSpec, net, backend)
package policies

import (
	"github.com/born-ml/agents/internal/networks"
	"github.com/born-ml/agents/internal/policies"
	"github.com/born-ml/agents/internal/seed"
	"github.com/born-ml/agents/internal/specs"
	"github.com/born-ml/agents/internal/tensor"
	"github.com/born-ml/agents/internal/trajectory"
)

// Specs

// TensorSpec describes the name, dtype, shape and optional bounds of a tensor.
type TensorSpec = specs.TensorSpec

// MismatchError names a tensor that does not match its spec.
type MismatchError = specs.MismatchError

// UnknownDim matches a dimension of any size.
const UnknownDim = specs.UnknownDim

// NewSpec returns an unbounded spec.
func NewSpec(name string, dtype tensor.DataType, shape tensor.Shape) TensorSpec {
	return specs.New(name, dtype, shape)
}

// NewBoundedSpec returns a spec whose values lie in [minimum, maximum].
func NewBoundedSpec(name string, dtype tensor.DataType, shape tensor.Shape, minimum, maximum float64) TensorSpec {
	return specs.NewBounded(name, dtype, shape, minimum, maximum)
}

// Time steps

// StepType marks the position of a step within an episode.
type StepType = trajectory.StepType

// Step types.
const (
	First = trajectory.First
	Mid   = trajectory.Mid
	Last  = trajectory.Last
)

// TimeStep is one batched step of environment interaction.
type TimeStep = trajectory.TimeStep

// TimeStepSpec describes each TimeStep field.
type TimeStepSpec = trajectory.Spec

// NewTimeStepSpec returns the default time step spec around observation.
func NewTimeStepSpec(observation TensorSpec) TimeStepSpec {
	return trajectory.NewSpec(observation)
}

// Restart returns a FIRST time step for a batch of observations.
func Restart(observation *tensor.RawTensor) TimeStep {
	return trajectory.Restart(observation)
}

// Transition returns a MID time step.
func Transition(observation *tensor.RawTensor, reward []float32) (TimeStep, error) {
	return trajectory.Transition(observation, reward)
}

// Termination returns a LAST time step.
func Termination(observation *tensor.RawTensor, reward []float32) (TimeStep, error) {
	return trajectory.Termination(observation, reward)
}

// Seeds

// SeedPair combines a global seed with an operation seed.
type SeedPair = seed.Pair

// DefaultGlobalSeed is used when no global seed is configured.
const DefaultGlobalSeed = seed.DefaultGlobal

// Networks

// Network maps observations (and state) to Q-values.
type Network[B tensor.Backend] = networks.Network[B]

// QNetworkConfig configures NewQNetwork.
type QNetworkConfig = networks.QNetworkConfig

// QRnnNetworkConfig configures NewQRnnNetwork.
type QRnnNetworkConfig = networks.QRnnNetworkConfig

// DefaultQNetworkConfig returns hidden layers (75, 40).
func DefaultQNetworkConfig() QNetworkConfig {
	return networks.DefaultQNetworkConfig()
}

// DefaultQRnnNetworkConfig returns input (75, 40), LSTM 40, output (75, 40).
func DefaultQRnnNetworkConfig() QRnnNetworkConfig {
	return networks.DefaultQRnnNetworkConfig()
}

// NewQNetwork creates a feed-forward Q network.
func NewQNetwork[B tensor.Backend](inputSpec, actionSpec TensorSpec, cfg QNetworkConfig, backend B) (*networks.QNetwork[B], error) {
	return networks.NewQNetwork(inputSpec, actionSpec, cfg, backend)
}

// NewQRnnNetwork creates a recurrent Q network.
func NewQRnnNetwork[B tensor.Backend](inputSpec, actionSpec TensorSpec, cfg QRnnNetworkConfig, backend B) (*networks.QRnnNetwork[B], error) {
	return networks.NewQRnnNetwork(inputSpec, actionSpec, cfg, backend)
}

// Policies

// Policy maps time steps and state to actions.
type Policy = policies.Policy

// State is the flattened recurrent state of a policy.
type State = policies.State

// Step is the result of Policy.Action.
type Step = policies.Step

// ActionOption configures a single Action call.
type ActionOption = policies.ActionOption

// WithSeed samples from a fresh stream seeded by p.
func WithSeed(p SeedPair) ActionOption {
	return policies.WithSeed(p)
}

// StepSpec returns the flattened (action, state, info) spec of p.
func StepSpec(p Policy) []TensorSpec {
	return policies.StepSpec(p)
}

// NewQPolicy samples actions from the Q-values of network.
func NewQPolicy[B tensor.Backend](timeStepSpec TimeStepSpec, actionSpec TensorSpec, network Network[B], backend B) (*policies.QPolicy[B], error) {
	return policies.NewQPolicy(timeStepSpec, actionSpec, network, backend)
}

// NewGreedyPolicy takes the most likely action of policy.
func NewGreedyPolicy[B tensor.Backend](policy policies.DistributionPolicy[B]) *policies.GreedyPolicy[B] {
	return policies.NewGreedyPolicy(policy)
}

// NewRandomPolicy selects uniform actions within the action spec bounds.
func NewRandomPolicy[B tensor.Backend](timeStepSpec TimeStepSpec, actionSpec TensorSpec, backend B) (*policies.RandomPolicy[B], error) {
	return policies.NewRandomPolicy(timeStepSpec, actionSpec, backend)
}
