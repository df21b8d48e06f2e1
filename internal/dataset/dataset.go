// Package dataset generates the synthetic problems used by the CLI, the
// examples and the tests.
package dataset

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/lsqlearn/core/tensor"
	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
)

// Regression draws X with standard-normal entries and y = Xβ + ε with
// ε ~ N(0, noise²).
func Regression(n int, coef []float64, noise float64, rng *rand.Rand) (*mat.Dense, *mat.VecDense) {
	d := len(coef)
	X := mat.NewDense(n, d, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		var yi float64
		for j := 0; j < d; j++ {
			v := rng.NormFloat64()
			X.Set(i, j, v)
			yi += v * coef[j]
		}
		y.SetVec(i, yi+noise*rng.NormFloat64())
	}
	return X, y
}

// SparseRegression is Regression with a design where each entry is non-zero
// with probability density. Columns that come out empty get one entry so
// every column has positive norm.
func SparseRegression(n int, coef []float64, density, noise float64, rng *rand.Rand) (*tensor.CSC, *mat.VecDense) {
	d := len(coef)
	X := mat.NewDense(n, d, nil)
	for j := 0; j < d; j++ {
		filled := false
		for i := 0; i < n; i++ {
			if rng.Float64() < density {
				X.Set(i, j, rng.NormFloat64())
				filled = true
			}
		}
		if !filled {
			X.Set(rng.IntN(n), j, 1)
		}
	}
	y := mat.NewVecDense(n, nil)
	y.MulVec(X, mat.NewVecDense(d, coef))
	for i := 0; i < n; i++ {
		y.SetVec(i, y.AtVec(i)+noise*rng.NormFloat64())
	}
	return tensor.CSCFromDense(X), y
}

// Blobs draws n points split evenly over classes Gaussian clusters in d
// dimensions. Cluster centers are drawn from N(0, 9) per coordinate and
// points scatter around them with standard deviation spread.
func Blobs(n, d, classes int, spread float64, rng *rand.Rand) (*mat.Dense, []int) {
	centers := make([][]float64, classes)
	for c := range centers {
		centers[c] = make([]float64, d)
		for j := range centers[c] {
			centers[c][j] = 3 * rng.NormFloat64()
		}
	}
	X := mat.NewDense(n, d, nil)
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		c := i % classes
		labels[i] = c
		for j := 0; j < d; j++ {
			X.Set(i, j, centers[c][j]+spread*rng.NormFloat64())
		}
	}
	return X, labels
}

// Split keeps the first (1 − holdout) share of rows for training and the
// rest for evaluation. Rows are not shuffled.
func Split(X, Y mat.Matrix, holdout float64) (XTrain, YTrain, XHold, YHold mat.Matrix, err error) {
	n, _ := X.Dims()
	ny, _ := Y.Dims()
	if n != ny {
		return nil, nil, nil, nil, lsqErrors.NewDimensionError("dataset.Split", n, ny, 0)
	}
	if holdout <= 0 || holdout >= 1 {
		return nil, nil, nil, nil, lsqErrors.NewValidationError("holdout", "must be in (0, 1)", holdout)
	}
	cut := int(float64(n) * (1 - holdout))
	if cut == 0 || cut == n {
		return nil, nil, nil, nil, lsqErrors.NewValueError("dataset.Split", "split leaves an empty side")
	}
	head, tail := rangeIdx(0, cut), rangeIdx(cut, n)
	return tensor.GatherRows(X, head), tensor.GatherRows(Y, head),
		tensor.GatherRows(X, tail), tensor.GatherRows(Y, tail), nil
}

func rangeIdx(from, to int) []int {
	idx := make([]int, to-from)
	for i := range idx {
		idx[i] = from + i
	}
	return idx
}
