// Package preprocessing prepares inputs for the solvers.
//
//   - StandardScaler: centers features and scales them to unit variance
//   - LabelBinarizer: turns integer class labels into the one-hot matrix the
//     SGD classifier trains on
//
// Both follow the Fit, Transform and FitTransform pattern:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	if err := scaler.Fit(Xtrain); err != nil {
//		log.Fatal(err)
//	}
//	Xs, err := scaler.Transform(Xtest)
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/lsqlearn/core/model"
	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
)

// StandardScaler standardizes each column to zero mean and unit population
// variance.
type StandardScaler struct {
	state *model.StateManager

	// Mean is the per-feature mean (zero when WithMean is false).
	Mean []float64

	// Scale is the per-feature population standard deviation, or 1 for
	// constant features and when WithStd is false.
	Scale []float64

	WithMean bool
	WithStd  bool
}

// NewStandardScaler creates a StandardScaler.
//
// Example:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	Xs, err := scaler.FitTransform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// Fit computes the per-feature statistics of X.
//
// Errors:
//   - ErrEmptyData: if X is empty
func (s *StandardScaler) Fit(X mat.Matrix) (err error) {
	defer lsqErrors.Recover(&err, "StandardScaler.Fit")
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return lsqErrors.NewModelError("StandardScaler.Fit", "empty data", lsqErrors.ErrEmptyData)
	}

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		if s.WithMean {
			s.Mean[j] = stat.Mean(col, nil)
		}
		s.Scale[j] = 1
		if s.WithStd {
			// deviations are taken from the true mean even when centering is off
			sd := math.Sqrt(stat.PopVariance(col, nil))
			if sd >= 1e-8 {
				s.Scale[j] = sd
			}
		}
	}

	s.state.SetDimensions(c, r)
	s.state.SetFitted()
	return nil
}

// Transform returns (X − Mean) / Scale.
//
// Errors:
//   - ErrNotFitted: if Fit has not been called
//   - ErrDimensionMismatch: if X's width differs from the fitted width
func (s *StandardScaler) Transform(X mat.Matrix) (_ *mat.Dense, err error) {
	defer lsqErrors.Recover(&err, "StandardScaler.Transform")
	if err := s.state.RequireFitted("StandardScaler", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := s.state.RequireFeatures("StandardScaler.Transform", c); err != nil {
		return nil, err
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return result, nil
}

// FitTransform fits on X and returns X transformed.
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardized data back to the original scale.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (_ *mat.Dense, err error) {
	defer lsqErrors.Recover(&err, "StandardScaler.InverseTransform")
	if err := s.state.RequireFitted("StandardScaler", "InverseTransform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := s.state.RequireFeatures("StandardScaler.InverseTransform", c); err != nil {
		return nil, err
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)
	return result, nil
}

// IsFitted reports whether Fit has succeeded.
func (s *StandardScaler) IsFitted() bool { return s.state.IsFitted() }

func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, len(s.Mean))
}
