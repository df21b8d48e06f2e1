package cli

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/lsqlearn/core/model"
	"github.com/ezoic/lsqlearn/internal/config"
	"github.com/ezoic/lsqlearn/internal/dataset"
	"github.com/ezoic/lsqlearn/linear"
	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
	"github.com/ezoic/lsqlearn/pkg/log"
	"github.com/ezoic/lsqlearn/sweep"
)

var lassoColumns = []string{
	sweep.ModelNumberKey, "lambda", "# nonzero weights", "sweeps", "converged",
	"training RMSE", "validation RMSE",
}

// LassoFactory adapts NewLasso to the sweep harness. The configuration must
// carry "lambda"; Y is the N×1 target column.
func LassoFactory(cfg config.LassoConfig, logger log.Logger) sweep.Factory {
	return func(p sweep.Params, X, Y mat.Matrix) (model.Trainable, error) {
		lambda, ok := p["lambda"]
		if !ok {
			return nil, lsqErrors.NewValueError("LassoFactory", `missing "lambda"`)
		}
		n, _ := Y.Dims()
		y := mat.NewVecDense(n, mat.Col(nil, 0, Y))
		return linear.NewLasso(X, y, lambda,
			linear.WithDelta(cfg.Delta),
			linear.WithMaxSweeps(cfg.MaxSweeps),
			linear.WithLassoLogger(logger),
		)
	}
}

// Lasso sweeps λ = λmax·ratio^i over synthetic regression data, prints the
// summary, the best model and its test score, and optionally plots the fits.
func (a *App) Lasso(plotPath string) error {
	cfg := a.Config.Lasso
	rng := a.rng(1)
	X, y := lassoData(cfg, cfg.Samples, rng)

	opts := []sweep.ExplorerOption{
		sweep.WithValidationSplit(cfg.ValidationSplit),
		sweep.WithExplorerLogger(a.logger()),
	}
	if cfg.TestSamples > 0 {
		Xt, yt := lassoData(cfg, cfg.TestSamples, rng)
		opts = append(opts, sweep.WithTestData(Xt, yt))
	}
	ex, err := sweep.NewExplorer(X, y, LassoFactory(cfg, a.logger()), "training RMSE", opts...)
	if err != nil {
		return err
	}

	lmax, err := linear.LambdaMax(ex.XTrain, mat.NewVecDense(colLen(ex.YTrain), mat.Col(nil, 0, ex.YTrain)))
	if err != nil {
		return err
	}
	a.logger().Info("Sweeping regularization path",
		log.RegularizationKey, lmax,
		"steps", cfg.PathSteps,
	)
	for i := 0; i < cfg.PathSteps; i++ {
		lambda := lmax * math.Pow(cfg.PathRatio, float64(i))
		if _, err := ex.TrainModel(sweep.Params{"lambda": lambda}); err != nil {
			return err
		}
	}

	if err := a.printTable(ex.Summary(), lassoColumns); err != nil {
		return err
	}
	best, err := ex.BestSummary()
	if err != nil {
		return err
	}
	if err := a.printRow("best model:", best); err != nil {
		return err
	}
	m, err := ex.BestModel()
	if err != nil {
		return err
	}
	if l, ok := m.(*linear.Lasso); ok {
		fmt.Fprintf(a.Out, "weights: %.4g\nintercept: %.4g\n", l.Weights(), l.Intercept())
	}
	if cfg.TestSamples > 0 {
		test, err := ex.EvaluateTest()
		if err != nil {
			return err
		}
		if err := a.printRow("test:", test); err != nil {
			return err
		}
	}
	if plotPath != "" {
		if err := ex.PlotFits("lambda", plotPath, true); err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "plot saved to %s\n", plotPath)
	}
	return nil
}

// lassoData draws a dense design, or a column-compressed one when the
// configured density is below 1.
func lassoData(cfg config.LassoConfig, n int, rng *rand.Rand) (mat.Matrix, *mat.VecDense) {
	if cfg.Density < 1 {
		return dataset.SparseRegression(n, cfg.Coefficients, cfg.Density, cfg.Noise, rng)
	}
	return dataset.Regression(n, cfg.Coefficients, cfg.Noise, rng)
}

func colLen(M mat.Matrix) int {
	n, _ := M.Dims()
	return n
}
