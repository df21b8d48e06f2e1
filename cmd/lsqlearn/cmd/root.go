package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ezoic/lsqlearn/internal/cli"
	"github.com/ezoic/lsqlearn/internal/config"
	"github.com/ezoic/lsqlearn/pkg/log"
)

const configFlag = "config"

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "lsqlearn",
		Short:        "lsqlearn fits Lasso and kernel SGD models over hyperparameter sweeps.",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().String(configFlag, "", "YAML configuration file (default $HOME/.lsqlearn.yaml)")
	cmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	cmd.PersistentFlags().Int64("seed", 42, "random seed for data generation and training")

	a := cli.New()
	cmd.AddCommand(
		lassoCmd(a),
		sgdCmd(a),
	)
	return cmd
}

// initApp resolves the configuration for cmd and points the app at the
// command's output.
func initApp(cmd *cobra.Command, a *cli.App) error {
	path, err := cmd.Flags().GetString(configFlag)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return err
	}
	log.SetupLogger(cfg.LogLevel)
	a.Config = cfg
	a.Out = cmd.OutOrStdout()
	return nil
}
