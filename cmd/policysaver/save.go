package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/born-ml/agents/internal/backend/cpu"
	"github.com/born-ml/agents/internal/networks"
	"github.com/born-ml/agents/internal/policies"
	"github.com/born-ml/agents/internal/policysaver"
	"github.com/born-ml/agents/internal/seed"
	"github.com/born-ml/agents/internal/specs"
	"github.com/born-ml/agents/internal/tensor"
	"github.com/born-ml/agents/internal/trajectory"
)

type saveOptions struct {
	network    string
	policy     string
	out        string
	batchSize  int
	seed       int64
	globalSeed int64
	obsDim     int
	numActions int
}

func (a *app) newSaveCmd() *cobra.Command {
	var opts saveOptions

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Build a freshly initialised policy and save it as an artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("global-seed") {
				opts.globalSeed = a.cfg.GlobalSeed
			}
			return a.runSave(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.network, "network", "q", "network architecture: q or qrnn")
	f.StringVar(&opts.policy, "policy", "q", "policy: q, greedy or random")
	f.StringVar(&opts.out, "out", "", "artifact directory (must be empty or missing)")
	f.IntVar(&opts.batchSize, "batch-size", 0, "fixed batch size; 0 leaves it unset")
	f.Int64Var(&opts.seed, "seed", 0, "action seed; unset means unseeded sampling")
	f.Int64Var(&opts.globalSeed, "global-seed", seed.DefaultGlobal, "global seed for weights and actions")
	f.IntVar(&opts.obsDim, "obs-dim", 4, "observation size")
	f.IntVar(&opts.numActions, "num-actions", 11, "number of discrete actions")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func (a *app) runSave(cmd *cobra.Command, opts saveOptions) error {
	policy, err := buildPolicy(opts)
	if err != nil {
		return err
	}

	saverOpts := []policysaver.Option{
		policysaver.WithGlobalSeed(opts.globalSeed),
		policysaver.WithBatchSize(opts.batchSize),
		policysaver.WithLogger(a.logger),
	}
	if cmd.Flags().Changed("seed") {
		saverOpts = append(saverOpts, policysaver.WithSeed(opts.seed))
	}

	saver, err := policysaver.New(policy, saverOpts...)
	if err != nil {
		return err
	}
	if err := saver.Save(cmd.Context(), opts.out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s to %s\n", policy.Descriptor().Kind, opts.out)
	return nil
}

func buildPolicy(opts saveOptions) (policies.Policy, error) {
	if opts.obsDim <= 0 || opts.numActions <= 0 {
		return nil, fmt.Errorf("obs-dim and num-actions must be positive")
	}
	backend := cpu.New()
	tsSpec := trajectory.NewSpec(specs.NewBounded("observation", tensor.Float32, tensor.Shape{opts.obsDim}, -10, 10))
	actionSpec := specs.NewBounded("action", tensor.Int32, nil, 0, float64(opts.numActions-1))

	if opts.policy == "random" {
		random, err := policies.NewRandomPolicy(tsSpec, actionSpec, backend)
		if err != nil {
			return nil, err
		}
		return random, nil
	}

	weights := seed.Pair{Global: opts.globalSeed}
	var network networks.Network[*cpu.CPUBackend]
	var err error
	switch opts.network {
	case "q":
		network, err = networks.NewQNetwork(tsSpec.Observation, actionSpec, networks.QNetworkConfig{Seed: weights}, backend)
	case "qrnn":
		network, err = networks.NewQRnnNetwork(tsSpec.Observation, actionSpec, networks.QRnnNetworkConfig{Seed: weights}, backend)
	default:
		return nil, fmt.Errorf("unknown network %q (want q or qrnn)", opts.network)
	}
	if err != nil {
		return nil, err
	}

	q, err := policies.NewQPolicy(tsSpec, actionSpec, network, backend)
	if err != nil {
		return nil, err
	}
	switch opts.policy {
	case "q":
		return q, nil
	case "greedy":
		return policies.NewGreedyPolicy[*cpu.CPUBackend](q), nil
	default:
		return nil, fmt.Errorf("unknown policy %q (want q, greedy or random)", opts.policy)
	}
}
