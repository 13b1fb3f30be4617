package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/born-ml/agents/internal/backend/cpu"
	"github.com/born-ml/agents/internal/policies"
	"github.com/born-ml/agents/internal/policysaver"
	"github.com/born-ml/agents/internal/seed"
	"github.com/born-ml/agents/internal/specs"
	"github.com/born-ml/agents/internal/tensor"
	"github.com/born-ml/agents/internal/trajectory"
)

func (a *app) newEvalCmd() *cobra.Command {
	var batch int
	var sampleSeed int64
	var showDistribution bool

	cmd := &cobra.Command{
		Use:   "eval DIR",
		Short: "Call the action signature of an artifact on inputs sampled from its specs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend := cpu.New()
			reloaded, err := policysaver.Load(cmd.Context(), args[0], backend, policysaver.WithLoadLogger(a.logger))
			if err != nil {
				return err
			}
			if fixed, ok := reloaded.BatchSize(); ok && !cmd.Flags().Changed("batch") {
				batch = fixed
			}

			action, err := reloaded.Signature(policysaver.ActionSignature)
			if err != nil {
				return err
			}
			inputSpecs := specs.Flatten(reloaded.TimeStepSpec().Flatten(), reloaded.StateSpec())
			values, err := specs.SampleNest(inputSpecs, seed.Pair{Global: reloaded.GlobalSeed(), Op: sampleSeed}.Rand(), batch)
			if err != nil {
				return err
			}
			inputs, err := specs.ToMap(inputSpecs, values)
			if err != nil {
				return err
			}

			outputs, err := action.Call(inputs)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(outputs))
			for name := range outputs {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", name, outputs[name].Float64s())
			}
			if !showDistribution {
				return nil
			}
			return printDistribution(cmd.OutOrStdout(), reloaded, backend, values, outputs[reloaded.ActionSpec().Name])
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 3, "batch size of sampled inputs")
	cmd.Flags().Int64Var(&sampleSeed, "sample-seed", 4, "seed for sampling inputs")
	cmd.Flags().BoolVar(&showDistribution, "distribution", false, "also print action probabilities and the log-probability of each action")
	return cmd
}

// printDistribution prints the per-row action probabilities of a Q or
// greedy policy and the log-probability of the returned actions.
func printDistribution(w io.Writer, reloaded *policysaver.SavedPolicy, backend *cpu.CPUBackend, values []*tensor.RawTensor, action *tensor.RawTensor) error {
	var dp policies.DistributionPolicy[*cpu.CPUBackend]
	switch p := reloaded.Policy().(type) {
	case *policies.GreedyPolicy[*cpu.CPUBackend]:
		dp = p.Wrapped()
	case policies.DistributionPolicy[*cpu.CPUBackend]:
		dp = p
	default:
		return fmt.Errorf("%s has no action distribution", reloaded.Manifest().Policy.Kind)
	}

	ts, err := trajectory.FromFlat(values[:4])
	if err != nil {
		return err
	}
	dist, _, err := dp.Distribution(ts, values[4:])
	if err != nil {
		return err
	}

	n := dist.NumCategories()
	probs := dist.Probs().Data()
	for row := range len(probs) / n {
		fmt.Fprintf(w, "probs[%d]: %v\n", row, probs[row*n:(row+1)*n])
	}
	index := tensor.New[int32](action, backend).AddScalar(-int32(reloaded.ActionSpec().Minimum))
	fmt.Fprintf(w, "log_prob: %v\n", dist.LogProb(index))
	return nil
}
