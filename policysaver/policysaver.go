// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package policysaver saves policies to directory artifacts and loads
// them back with "action" and "get_initial_state" signatures.
//
// Example:
//
//	saver, _ := policysaver.New(policy, policysaver.WithSeed(98723))
//	if err := saver.Save(ctx, dir); err != nil {
//	    return err
//	}
//	reloaded, err := policysaver.Load(ctx, dir, cpu.New())
//	step, err := reloaded.Action(ts, nil)
package policysaver

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/born-ml/agents/internal/policies"
	"github.com/born-ml/agents/internal/policysaver"
	"github.com/born-ml/agents/internal/tensor"
)

// Saver writes a policy artifact.
type Saver = policysaver.Saver

// Option configures a Saver.
type Option = policysaver.Option

// SavedPolicy is a policy reloaded from an artifact.
type SavedPolicy = policysaver.SavedPolicy

// Signature is a flat, named entry point of a SavedPolicy.
type Signature = policysaver.Signature

// Manifest describes an artifact.
type Manifest = policysaver.Manifest

// LoadOption configures Load.
type LoadOption = policysaver.LoadOption

// Signature names.
const (
	ActionSignature       = policysaver.ActionSignature
	InitialStateSignature = policysaver.InitialStateSignature
	DefaultSignature      = policysaver.DefaultSignature
	BatchSizeInput        = policysaver.BatchSizeInput
)

// Errors.
var (
	ErrDeferredExecution = policysaver.ErrDeferredExecution
	ErrSignatureNotFound = policysaver.ErrSignatureNotFound
	ErrSpecMismatch      = policysaver.ErrSpecMismatch
	ErrBatchSizeRequired = policysaver.ErrBatchSizeRequired
	ErrUnsupportedPolicy = policysaver.ErrUnsupportedPolicy
	ErrArtifactExists    = policysaver.ErrArtifactExists
	ErrInvalidArtifact   = policysaver.ErrInvalidArtifact
)

// New creates a Saver for policy.
func New(policy policies.Policy, opts ...Option) (*Saver, error) {
	return policysaver.New(policy, opts...)
}

// WithBatchSize fixes the batch dimension of every signature.
func WithBatchSize(n int) Option {
	return policysaver.WithBatchSize(n)
}

// WithSeed seeds the artifact's action entry points.
func WithSeed(op int64) Option {
	return policysaver.WithSeed(op)
}

// WithGlobalSeed overrides the default global seed.
func WithGlobalSeed(global int64) Option {
	return policysaver.WithGlobalSeed(global)
}

// WithLogger sets the Saver logger.
func WithLogger(logger zerolog.Logger) Option {
	return policysaver.WithLogger(logger)
}

// WithLoadLogger sets the logger used by Load.
func WithLoadLogger(logger zerolog.Logger) LoadOption {
	return policysaver.WithLoadLogger(logger)
}

// Load reads the artifact in dir and rebuilds its policy on backend.
func Load[B tensor.Backend](ctx context.Context, dir string, backend B, opts ...LoadOption) (*SavedPolicy, error) {
	return policysaver.Load(ctx, dir, backend, opts...)
}

// ReadManifest reads the manifest of the artifact in dir.
func ReadManifest(dir string) (Manifest, error) {
	return policysaver.ReadManifest(dir)
}
