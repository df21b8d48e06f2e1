package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ezoic/lsqlearn/internal/cli"
)

func lassoCmd(a *cli.App) *cobra.Command {
	var plotPath string
	cmd := &cobra.Command{
		Use:   "lasso",
		Short: "Sweep the Lasso regularization path on synthetic regression data",
		Long: `Draws a regression problem from the lasso section of the configuration,
fits one Lasso per λ on the path λmax·ratio^i with warm starts, and
prints the summary table, the model with the lowest validation RMSE and
its score on fresh test data.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(cmd, a)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Lasso(plotPath)
		},
	}
	cmd.Flags().StringVar(&plotPath, "plot", "", "save training and validation RMSE against λ to this file (.pdf, .png, .svg)")
	return cmd
}
