// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package policysaver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/born-ml/agents/backend/cpu"
	"github.com/born-ml/agents/policies"
	"github.com/born-ml/agents/policysaver"
	"github.com/born-ml/agents/tensor"
)

func TestPublicRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := cpu.New()

	tsSpec := policies.NewTimeStepSpec(policies.NewBoundedSpec("obs", tensor.Float32, tensor.Shape{4}, -10, 10))
	actionSpec := policies.NewBoundedSpec("act_0", tensor.Int32, nil, 0, 10)
	network, err := policies.NewQRnnNetwork(tsSpec.Observation, actionSpec, policies.DefaultQRnnNetworkConfig(), backend)
	if err != nil {
		t.Fatalf("NewQRnnNetwork: %v", err)
	}
	policy, err := policies.NewQPolicy[*cpu.Backend](tsSpec, actionSpec, network, backend)
	if err != nil {
		t.Fatalf("NewQPolicy: %v", err)
	}

	saver, err := policysaver.New(policy, policysaver.WithSeed(98723))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dir := t.TempDir()
	if err := saver.Save(ctx, dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := policysaver.Load(ctx, dir, backend)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	obs, err := tensor.RawFromSlice([]float32{1, 2, 3, 4, -1, -2, -3, -4}, tensor.Shape{2, 4})
	if err != nil {
		t.Fatal(err)
	}
	ts := policies.Restart(obs)
	state, err := reloaded.GetInitialState(2)
	if err != nil {
		t.Fatalf("GetInitialState: %v", err)
	}

	want, err := policy.Action(ts, state, policies.WithSeed(policies.SeedPair{Global: policies.DefaultGlobalSeed, Op: 98723}))
	if err != nil {
		t.Fatalf("policy.Action: %v", err)
	}
	got, err := reloaded.Action(ts, state)
	if err != nil {
		t.Fatalf("reloaded.Action: %v", err)
	}
	for i, v := range want.Action.AsInt32() {
		if got.Action.AsInt32()[i] != v {
			t.Errorf("action[%d] = %d, want %d", i, got.Action.AsInt32()[i], v)
		}
	}

	if _, err := reloaded.GetInitialState(); !errors.Is(err, policysaver.ErrBatchSizeRequired) {
		t.Errorf("expected ErrBatchSizeRequired, got %v", err)
	}
}
