package kernel

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/lsqlearn/core/model"
	"github.com/ezoic/lsqlearn/core/tensor"
	"github.com/ezoic/lsqlearn/pkg/errors"
)

// Fourier is a random Fourier feature map ("random kitchen sinks"):
// φ(x) = sqrt(2/D)·cos(xΩ + b) with Ω ~ N(0, 1/σ²) and b ~ U[0, 2π).
// Inner products of φ approximate the Gaussian kernel of bandwidth σ.
type Fourier struct {
	omega *mat.Dense // d×D
	bias  []float64
	sigma float64
	d     int
}

// NewFourier draws D frequency vectors. σ defaults to the median pairwise
// distance of the training rows.
func NewFourier(X mat.Matrix, rng *rand.Rand, opts ...Option) (*Fourier, error) {
	if err := checkTraining("kernel.NewFourier", X); err != nil {
		return nil, err
	}
	cfg := config{n: defaultComponents}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.n <= 0 {
		return nil, errors.NewValidationError("components", "must be positive", cfg.n)
	}
	if cfg.sigma < 0 {
		return nil, errors.NewValidationError("sigma", "must be positive", cfg.sigma)
	}
	if cfg.sigma == 0 {
		cfg.sigma = medianDistance(X, rng)
	}
	_, d := X.Dims()

	omega := mat.NewDense(d, cfg.n, nil)
	for i := 0; i < d; i++ {
		for j := 0; j < cfg.n; j++ {
			omega.Set(i, j, rng.NormFloat64()/cfg.sigma)
		}
	}
	bias := make([]float64, cfg.n)
	for j := range bias {
		bias[j] = rng.Float64() * 2 * math.Pi
	}
	return &Fourier{omega: omega, bias: bias, sigma: cfg.sigma, d: d}, nil
}

// FourierFactory returns a Factory for Fourier kernels built with opts.
func FourierFactory(opts ...Option) Factory {
	return func(X mat.Matrix, rng *rand.Rand) (Kernel, error) { return NewFourier(X, rng, opts...) }
}

func (k *Fourier) Transform(X mat.Matrix) (*mat.Dense, error) {
	if err := inputWidth("Fourier.Transform", X, k.d); err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	out := mat.NewDense(n, len(k.bias), nil)
	out.Mul(tensor.AsDense(X), k.omega)
	scale := math.Sqrt(2 / float64(len(k.bias)))
	out.Apply(func(_, j int, v float64) float64 {
		return scale * math.Cos(v+k.bias[j])
	}, out)
	return out, nil
}

func (k *Fourier) Dim() int     { return len(k.bias) }
func (k *Fourier) Name() string { return "fourier" }

// Sigma returns the bandwidth in use.
func (k *Fourier) Sigma() float64 { return k.sigma }

func (k *Fourier) Info() model.Row {
	return model.Row{"kernel dim": float64(k.Dim()), "kernel sigma": k.sigma}
}
