package cli

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/lsqlearn/core/model"
	"github.com/ezoic/lsqlearn/internal/config"
	"github.com/ezoic/lsqlearn/internal/dataset"
	"github.com/ezoic/lsqlearn/kernel"
	"github.com/ezoic/lsqlearn/preprocessing"
	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
	"github.com/ezoic/lsqlearn/pkg/log"
	"github.com/ezoic/lsqlearn/sklearn/linear_model"
	"github.com/ezoic/lsqlearn/sweep"
)

const sgdScore = "training (0/1 loss)/N"

var sgdColumns = []string{
	sweep.ModelNumberKey, "sigma", "kernel sigma", "kernel dim", "eta0", "epoch", "converged",
	"(square loss)/N, training", sgdScore, "validation (0/1 loss)/N",
}

// KernelFactory returns the kernel named by cfg.Kernel with bandwidth sigma
// (0 for the median heuristic).
func KernelFactory(cfg config.SGDConfig, sigma float64) (kernel.Factory, error) {
	var opts []kernel.Option
	if sigma > 0 {
		opts = append(opts, kernel.WithBandwidth(sigma))
	}
	switch cfg.Kernel {
	case "linear":
		return kernel.LinearFactory(), nil
	case "rbf":
		if cfg.Components > 0 {
			opts = append(opts, kernel.WithCenters(cfg.Components))
		}
		return kernel.RBFFactory(opts...), nil
	case "fourier":
		if cfg.Components > 0 {
			opts = append(opts, kernel.WithComponents(cfg.Components))
		}
		return kernel.FourierFactory(opts...), nil
	}
	return nil, lsqErrors.NewValidationError("kernel", "must be linear, rbf or fourier", cfg.Kernel)
}

// SGDFactory adapts NewLeastSquaresSGD to the sweep harness. The
// configuration may carry "sigma".
func (a *App) SGDFactory(cfg config.SGDConfig) sweep.Factory {
	return func(p sweep.Params, X, Y mat.Matrix) (model.Trainable, error) {
		kf, err := KernelFactory(cfg, p["sigma"])
		if err != nil {
			return nil, err
		}
		opts := []linear_model.SGDOption{
			linear_model.WithKernel(kf),
			linear_model.WithBatchSize(cfg.BatchSize),
			linear_model.WithMaxEpochs(cfg.MaxEpochs),
			linear_model.WithMonitoringFreq(cfg.MonitoringFreq),
			linear_model.WithDeltaPercent(cfg.DeltaPercent),
			linear_model.WithRandomState(a.Config.Seed),
			linear_model.WithProgressWriter(a.Out),
			linear_model.WithSGDLogger(a.logger()),
		}
		if cfg.Eta0 > 0 {
			opts = append(opts, linear_model.WithEta0(cfg.Eta0))
		}
		return linear_model.NewLeastSquaresSGD(X, Y, opts...)
	}
}

// SGD sweeps kernel bandwidths for the multi-class SGD classifier on
// standardized Gaussian blobs and prints the summary and the best model.
// With plotPath the best model's monitored losses are plotted over steps.
func (a *App) SGD(plotPath string) error {
	cfg := a.Config.SGD
	rng := a.rng(2)
	raw, labels := dataset.Blobs(cfg.Samples, cfg.Features, cfg.Classes, cfg.Spread, rng)

	X, err := preprocessing.NewStandardScaler(true, true).FitTransform(raw)
	if err != nil {
		return err
	}
	lb := preprocessing.NewLabelBinarizer()
	Y, err := lb.FitTransform(labels)
	if err != nil {
		return err
	}

	// every bandwidth draws a new kernel, so weights do not carry over
	ex, err := sweep.NewExplorer(X, Y, a.SGDFactory(cfg), sgdScore,
		sweep.WithValidationSplit(cfg.ValidationSplit),
		sweep.WithWarmStart(false),
		sweep.WithExplorerLogger(a.logger()),
	)
	if err != nil {
		return err
	}

	sigmas := cfg.Bandwidths
	if cfg.Kernel == "linear" {
		sigmas = []float64{0}
	}
	a.logger().Info("Sweeping kernel bandwidths",
		log.KernelKey, cfg.Kernel,
		log.ClassesKey, len(lb.Classes()),
		"bandwidths", len(sigmas),
	)
	for _, sigma := range sigmas {
		if _, err := ex.TrainModel(sweep.Params{"sigma": sigma}); err != nil {
			return err
		}
	}

	if err := a.printTable(ex.Summary(), sgdColumns); err != nil {
		return err
	}
	best, err := ex.BestSummary()
	if err != nil {
		return err
	}
	if err := a.printRow("best model:", best); err != nil {
		return err
	}
	if plotPath == "" {
		return nil
	}
	m, err := ex.BestModel()
	if err != nil {
		return err
	}
	sgd, ok := m.(*linear_model.LeastSquaresSGD)
	if !ok {
		return lsqErrors.Newf("unexpected model type %T", m)
	}
	err = sweep.PlotSeries(sgd.VitalsRows(), "step",
		[]string{"(square loss)/N, training", "training (0/1 loss)/N"}, plotPath, false, true)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "plot saved to %s\n", plotPath)
	return nil
}
