// Package main provides the policysaver CLI: save, inspect and evaluate
// policy artifacts.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/born-ml/agents/internal/config"
	"github.com/born-ml/agents/internal/logging"
)

const version = "v0.3.0"

type app struct {
	cfg    config.Config
	logger zerolog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Default(), logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:          "policysaver",
		Short:        "Save, inspect and evaluate reinforcement-learning policy artifacts",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := logging.FromConfig(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
	}

	root.AddCommand(
		a.newSaveCmd(),
		a.newInspectCmd(),
		a.newEvalCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Show version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "policysaver %s\n", version)
			},
		},
	)
	return root
}
