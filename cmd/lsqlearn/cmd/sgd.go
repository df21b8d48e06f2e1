package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ezoic/lsqlearn/internal/cli"
)

func sgdCmd(a *cli.App) *cobra.Command {
	var plotPath string
	cmd := &cobra.Command{
		Use:   "sgd",
		Short: "Sweep kernel bandwidths for the least-squares SGD classifier",
		Long: `Draws Gaussian class clusters from the sgd section of the configuration,
trains one LeastSquaresSGD per kernel bandwidth and prints the summary
table and the model with the lowest validation 0/1 loss. A learning rate
of 0 makes every model search for its own.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(cmd, a)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.SGD(plotPath)
		},
	}
	cmd.Flags().StringVar(&plotPath, "plot", "", "save the best model's monitored losses to this file (.pdf, .png, .svg)")
	return cmd
}
