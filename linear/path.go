package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/lsqlearn/core/tensor"
	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
)

// LambdaMax returns 2·max_k |x_kᵀ(y − ȳ)|, the smallest λ at which every
// Lasso weight is zero.
func LambdaMax(X mat.Matrix, y mat.Vector) (float64, error) {
	n, d := X.Dims()
	if n == 0 || d == 0 {
		return 0, lsqErrors.NewModelError("LambdaMax", "empty data", lsqErrors.ErrEmptyData)
	}
	if y.Len() != n {
		return 0, lsqErrors.NewDimensionError("LambdaMax", n, y.Len(), 0)
	}
	centered := mat.Col(nil, 0, y)
	mean := stat.Mean(centered, nil)
	for i := range centered {
		centered[i] -= mean
	}
	design := tensor.NewDesign(X)
	var best float64
	for k := 0; k < d; k++ {
		best = math.Max(best, math.Abs(design.ColDot(k, centered)))
	}
	return 2 * best, nil
}

// PathPoint is one fitted model on a regularization path.
type PathPoint struct {
	Lambda    float64
	Weights   []float64
	Intercept float64
	NonZero   int
	Objective float64
	Sweeps    int
	Converged bool
}

type pathConfig struct {
	steps int
	ratio float64
	opts  []LassoOption
}

// PathOption configures RegularizationPath.
type PathOption func(*pathConfig)

// WithPathSteps sets the number of λ values (default 10).
func WithPathSteps(n int) PathOption {
	return func(c *pathConfig) { c.steps = n }
}

// WithPathRatio sets the factor between consecutive λ values (default 0.5).
func WithPathRatio(r float64) PathOption {
	return func(c *pathConfig) { c.ratio = r }
}

// WithPathLassoOptions passes options to every Lasso on the path. Initial
// weights are overridden by the warm start.
func WithPathLassoOptions(opts ...LassoOption) PathOption {
	return func(c *pathConfig) { c.opts = opts }
}

// RegularizationPath fits Lasso for λ = λmax·ratio^i, i = 0..steps−1. Each
// fit starts from the previous solution, so later, denser models converge
// in few sweeps.
func RegularizationPath(X mat.Matrix, y mat.Vector, opts ...PathOption) ([]PathPoint, error) {
	cfg := pathConfig{steps: 10, ratio: 0.5}
	for _, opt := range opts {
		opt(&cfg)
	}
	ce := lsqErrors.NewConfigErrors("RegularizationPath")
	ce.Check(cfg.steps > 0, "steps", "must be positive", cfg.steps)
	ce.Check(cfg.ratio > 0 && cfg.ratio < 1, "ratio", "must be in (0, 1)", cfg.ratio)
	if err := ce.Err(); err != nil {
		return nil, err
	}

	lambda, err := LambdaMax(X, y)
	if err != nil {
		return nil, err
	}
	_, d := X.Dims()
	w := make([]float64, d)
	w0 := 0.0

	path := make([]PathPoint, 0, cfg.steps)
	for i := 0; i < cfg.steps; i++ {
		lassoOpts := append(append([]LassoOption(nil), cfg.opts...), WithInitialWeights(w, w0))
		l, err := NewLasso(X, y, lambda, lassoOpts...)
		if err != nil {
			return path, err
		}
		if err := l.Run(); err != nil {
			return path, lsqErrors.Wrapf(err, "lambda=%g", lambda)
		}
		w, w0 = l.Weights(), l.Intercept()
		path = append(path, PathPoint{
			Lambda:    lambda,
			Weights:   w,
			Intercept: w0,
			NonZero:   l.NonZero(),
			Objective: l.Objective(),
			Sweeps:    l.Sweeps(),
			Converged: l.Converged(),
		})
		lambda *= cfg.ratio
	}
	return path, nil
}
