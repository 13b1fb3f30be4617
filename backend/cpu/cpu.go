// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend policies run on.
//
//	backend := cpu.New()
//	reloaded, err := policysaver.Load(ctx, dir, backend)
package cpu

import (
	internalcpu "github.com/born-ml/agents/internal/backend/cpu"
	"github.com/born-ml/agents/tensor"
)

// Backend is the CPU backend implementation. It executes eagerly.
type Backend = internalcpu.CPUBackend

var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
func New() *Backend {
	return internalcpu.New()
}
