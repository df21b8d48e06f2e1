// Package kernel provides the feature maps applied to each SGD batch.
//
// A Kernel is built once from the training matrix and then maps any N×d
// matrix to N×Dim() features:
//
//	k, err := kernel.NewRBF(X, rng, kernel.WithCenters(300))
//	Phi, err := k.Transform(batch)
//
// Linear is the identity map. RBF evaluates a Gaussian bump around randomly
// chosen training rows. Fourier uses random Fourier features that
// approximate the same Gaussian kernel with a cosine basis.
package kernel

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/lsqlearn/core/model"
	"github.com/ezoic/lsqlearn/core/tensor"
	"github.com/ezoic/lsqlearn/pkg/errors"
)

// Kernel maps input rows to a fixed-width feature space.
type Kernel interface {
	// Transform maps an N×d matrix to N×Dim(). The result may share storage
	// with X and must not be modified by the caller.
	Transform(X mat.Matrix) (*mat.Dense, error)
	// Dim returns the output width.
	Dim() int
	// Name identifies the kernel in logs.
	Name() string
	// Info describes the kernel's parameters for results rows.
	Info() model.Row
}

// Factory builds a Kernel from the training matrix. Random choices must be
// drawn from rng only.
type Factory func(X mat.Matrix, rng *rand.Rand) (Kernel, error)

const (
	defaultCenters    = 500
	defaultComponents = 500
	medianPairs       = 2000
)

type config struct {
	n     int
	sigma float64
}

// Option configures RBF and Fourier kernels.
type Option func(*config)

// WithCenters sets how many training rows RBF uses as centers.
func WithCenters(n int) Option {
	return func(c *config) { c.n = n }
}

// WithComponents sets the number of random Fourier features.
func WithComponents(n int) Option {
	return func(c *config) { c.n = n }
}

// WithBandwidth fixes σ instead of using the median pairwise distance.
func WithBandwidth(sigma float64) Option {
	return func(c *config) { c.sigma = sigma }
}

func inputWidth(op string, X mat.Matrix, want int) error {
	_, c := X.Dims()
	if c != want {
		return errors.NewDimensionError(op, want, c, 1)
	}
	return nil
}

func checkTraining(op string, X mat.Matrix) error {
	if X == nil {
		return errors.NewModelError(op, "nil training matrix", errors.ErrEmptyData)
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError(op, "empty training matrix", errors.ErrEmptyData)
	}
	return nil
}

// Linear is the identity kernel.
type Linear struct {
	d int
}

// NewLinear returns the identity kernel for X's width.
func NewLinear(X mat.Matrix) (*Linear, error) {
	if err := checkTraining("kernel.NewLinear", X); err != nil {
		return nil, err
	}
	_, d := X.Dims()
	return &Linear{d: d}, nil
}

// LinearFactory returns a Factory for the identity kernel.
func LinearFactory() Factory {
	return func(X mat.Matrix, _ *rand.Rand) (Kernel, error) { return NewLinear(X) }
}

func (k *Linear) Transform(X mat.Matrix) (*mat.Dense, error) {
	if err := inputWidth("Linear.Transform", X, k.d); err != nil {
		return nil, err
	}
	return tensor.AsDense(X), nil
}

func (k *Linear) Dim() int        { return k.d }
func (k *Linear) Name() string    { return "linear" }
func (k *Linear) Info() model.Row { return model.Row{"kernel dim": float64(k.d)} }

// medianDistance estimates the median Euclidean distance between rows of X
// from randomly drawn pairs.
func medianDistance(X mat.Matrix, rng *rand.Rand) float64 {
	n, d := X.Dims()
	if n < 2 {
		return 1
	}
	pairs := medianPairs
	if all := n * (n - 1) / 2; all < pairs {
		pairs = all
	}
	a, b := make([]float64, d), make([]float64, d)
	dists := make([]float64, 0, pairs)
	for len(dists) < pairs {
		i, j := rng.IntN(n), rng.IntN(n)
		if i == j {
			continue
		}
		mat.Row(a, i, X)
		mat.Row(b, j, X)
		dists = append(dists, floats.Distance(a, b, 2))
	}
	sort.Float64s(dists)
	med := stat.Quantile(0.5, stat.Empirical, dists, nil)
	if med <= 0 || math.IsNaN(med) {
		return 1
	}
	return med
}

func rowSqNorms(X mat.Matrix) []float64 {
	r, c := X.Dims()
	out := make([]float64, r)
	row := make([]float64, c)
	for i := range out {
		mat.Row(row, i, X)
		out[i] = floats.Dot(row, row)
	}
	return out
}
