package kernel

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/lsqlearn/core/model"
	"github.com/ezoic/lsqlearn/core/tensor"
	"github.com/ezoic/lsqlearn/pkg/errors"
)

// RBF maps x to exp(−‖x − c_k‖² / (2σ²)) for a fixed set of centers c_k
// drawn from the training rows.
type RBF struct {
	centers     *mat.Dense
	centerNorms []float64
	sigma       float64
	d           int
}

// NewRBF picks min(N, centers) distinct training rows as centers. σ defaults to
// the median pairwise distance of the training rows.
func NewRBF(X mat.Matrix, rng *rand.Rand, opts ...Option) (*RBF, error) {
	if err := checkTraining("kernel.NewRBF", X); err != nil {
		return nil, err
	}
	cfg := config{n: defaultCenters}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.n <= 0 {
		return nil, errors.NewValidationError("centers", "must be positive", cfg.n)
	}
	if cfg.sigma < 0 {
		return nil, errors.NewValidationError("sigma", "must be positive", cfg.sigma)
	}
	n, d := X.Dims()
	if cfg.n > n {
		cfg.n = n
	}
	idx := rng.Perm(n)[:cfg.n]
	centers := tensor.AsDense(tensor.GatherRows(X, idx))
	if cfg.sigma == 0 {
		cfg.sigma = medianDistance(X, rng)
	}
	return &RBF{
		centers:     centers,
		centerNorms: rowSqNorms(centers),
		sigma:       cfg.sigma,
		d:           d,
	}, nil
}

// RBFFactory returns a Factory for RBF kernels built with opts.
func RBFFactory(opts ...Option) Factory {
	return func(X mat.Matrix, rng *rand.Rand) (Kernel, error) { return NewRBF(X, rng, opts...) }
}

// Transform uses ‖x − c‖² = ‖x‖² + ‖c‖² − 2xᵀc with one matrix product.
func (k *RBF) Transform(X mat.Matrix) (*mat.Dense, error) {
	if err := inputWidth("RBF.Transform", X, k.d); err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	m, _ := k.centers.Dims()
	out := mat.NewDense(n, m, nil)
	out.Mul(tensor.AsDense(X), k.centers.T())

	xNorms := rowSqNorms(X)
	scale := -1 / (2 * k.sigma * k.sigma)
	out.Apply(func(i, j int, v float64) float64 {
		sq := xNorms[i] + k.centerNorms[j] - 2*v
		if sq < 0 {
			sq = 0
		}
		return math.Exp(sq * scale)
	}, out)
	return out, nil
}

func (k *RBF) Dim() int {
	m, _ := k.centers.Dims()
	return m
}

func (k *RBF) Name() string { return "rbf" }

// Sigma returns the bandwidth in use.
func (k *RBF) Sigma() float64 { return k.sigma }

func (k *RBF) Info() model.Row {
	return model.Row{"kernel dim": float64(k.Dim()), "kernel sigma": k.sigma}
}
