// Package linear provides the linear regression solvers.
//
// This package implements:
//
//   - Lasso: L1-penalized least squares by cyclic coordinate descent, for
//     dense or sparse (tensor.CSC) designs
//   - RegularizationPath: a warm-started sequence of Lasso fits from LambdaMax down
//   - LinearRegression: ordinary least squares via QR decomposition, the λ = 0
//     reference solution
//
// Example usage:
//
//	l, err := linear.NewLasso(X, y, 0.1)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := l.Run(); err != nil {
//		log.Fatal(err)
//	}
//	row, _ := l.ResultsRow() // "training RMSE", "# nonzero weights", ...
//
// Lasso is a model.Trainable; LinearRegression is a plain Fit/Predict model.
// Both log under the "linear" component.
package linear

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/lsqlearn/core/model"
	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
	"github.com/ezoic/lsqlearn/pkg/log"
)

// LinearRegression is an ordinary least squares model with an intercept.
type LinearRegression struct {
	State     *model.StateManager // State manager (composition instead of embedding)
	Weights   *mat.VecDense       // Model weights (coefficients)
	Intercept float64             // Model intercept
	NFeatures int                 // Number of features
	logger    log.Logger
}

// NewLinearRegression returns an unfitted OLS model.
func NewLinearRegression() *LinearRegression {
	lr := &LinearRegression{
		State: model.NewStateManager(),
	}

	lr.logger = log.GetLoggerWithName("linear").With(
		log.ModelNameKey, "LinearRegression",
	)

	return lr
}

// Fit trains the linear regression model using the provided training data.
//
// The least squares problem min ‖[1 X]β − y‖² is solved through the QR
// factorization of [1 X], which avoids forming XᵀX.
//
// Parameters:
//   - X: Feature matrix of shape (n_samples, n_features)
//   - y: Target column of shape (n_samples, 1)
//
// Errors:
//   - ErrEmptyData: if X or y are empty
//   - ErrDimensionMismatch: if the number of samples in X and y don't match
//   - ErrSingularMatrix: if [1 X] does not have full column rank
func (lr *LinearRegression) Fit(X, y mat.Matrix) (err error) {
	defer lsqErrors.Recover(&err, "LinearRegression.Fit")

	startTime := time.Now()
	r, c := X.Dims()
	ry, cy := y.Dims()

	lr.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, r,
		log.FeaturesKey, c,
	)

	if r == 0 || c == 0 {
		return lsqErrors.NewModelError("LinearRegression.Fit", "empty data", lsqErrors.ErrEmptyData)
	}
	if ry != r {
		return lsqErrors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return lsqErrors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}
	if r < c+1 {
		return lsqErrors.NewModelError("LinearRegression.Fit", "fewer samples than parameters", lsqErrors.ErrSingularMatrix)
	}

	lr.NFeatures = c

	// X_with_intercept = [1, X]
	XWithIntercept := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		XWithIntercept.Set(i, 0, 1.0)
		for j := 0; j < c; j++ {
			XWithIntercept.Set(i, j+1, X.At(i, j))
		}
	}

	var qr mat.QR
	qr.Factorize(XWithIntercept)
	if cond := qr.Cond(); cond > 1e14 {
		return lsqErrors.NewModelError("LinearRegression.Fit", "rank-deficient design", lsqErrors.ErrSingularMatrix)
	}

	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, y); err != nil {
		return lsqErrors.NewModelError("LinearRegression.Fit", "least squares solve failed", lsqErrors.ErrSingularMatrix)
	}

	lr.Intercept = beta.At(0, 0)
	lr.Weights = mat.NewVecDense(c, nil)
	for i := 0; i < c; i++ {
		lr.Weights.SetVec(i, beta.At(i+1, 0))
	}

	lr.State.SetFitted()
	lr.State.SetDimensions(lr.NFeatures, r)

	lr.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.DurationMsKey, time.Since(startTime).Milliseconds(),
	)

	return nil
}

// Predict returns X·weights + intercept as an (n_samples, 1) matrix.
//
// Errors:
//   - ErrNotFitted: if the model hasn't been trained yet
//   - ErrDimensionMismatch: if X has different number of features than training data
func (lr *LinearRegression) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer lsqErrors.Recover(&err, "LinearRegression.Predict")
	if err := lr.State.RequireFitted("LinearRegression", "Predict"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, lsqErrors.NewDimensionError("LinearRegression.Predict", lr.NFeatures, c, 1)
	}

	var pred mat.VecDense
	pred.MulVec(X, lr.Weights)
	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		predictions.Set(i, 0, pred.AtVec(i)+lr.Intercept)
	}

	lr.logger.Debug("Prediction completed",
		log.OperationKey, log.OperationPredict,
		log.PredsKey, r,
	)

	return predictions, nil
}

// Coefficients returns a copy of the learned weights.
func (lr *LinearRegression) Coefficients() []float64 {
	if lr.Weights == nil {
		return nil
	}
	return mat.Col(nil, 0, lr.Weights)
}
