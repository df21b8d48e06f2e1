// Package metrics provides the evaluation metrics reported in results rows.
//
// Regression metrics:
//   - SSE / SSEMatrix: sum of squared errors, the Lasso and SGD "square loss"
//   - MSE, RMSE: mean and root-mean squared error
//   - R2Score: coefficient of determination
//
// Classification metrics:
//   - ZeroOneLoss: number of misclassified points
//   - Accuracy: fraction of correct predictions
//
// Example usage:
//
//	rmse, err := metrics.RMSE(yTrue, yPred)
//	sse, err := metrics.SSEMatrix(Y, Yhat) // one-hot targets vs scores
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
)

func checkVectors(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, lsqErrors.NewValueError(op, "input vectors cannot be nil")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, lsqErrors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, lsqErrors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// SSE returns Σ(yTrue − yPred)².
func SSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVectors("SSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum, nil
}

// SSEMatrix returns Σ_ij (yTrue_ij − yPred_ij)² for equally shaped matrices.
// It is the square loss of a multi-output model.
func SSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()
	if rTrue == 0 || cTrue == 0 {
		return 0, lsqErrors.NewValueError("SSEMatrix", "empty matrix")
	}
	if rTrue != rPred {
		return 0, lsqErrors.NewDimensionError("SSEMatrix", rTrue, rPred, 0)
	}
	if cTrue != cPred {
		return 0, lsqErrors.NewDimensionError("SSEMatrix", cTrue, cPred, 1)
	}
	var sum float64
	for i := 0; i < rTrue; i++ {
		for j := 0; j < cTrue; j++ {
			diff := yTrue.At(i, j) - yPred.At(i, j)
			sum += diff * diff
		}
	}
	return sum, nil
}

// MSE calculates the mean squared error.
//
// Errors:
//   - ValueError: if input vectors are empty
//   - DimensionError: if yTrue and yPred have different lengths
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	sse, err := SSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return sse / float64(yTrue.Len()), nil
}

// RMSE is the square root of MSE, in the units of the target.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// R2Score calculates the coefficient of determination 1 − SS_res/SS_tot.
// A constant yTrue has no explained variance; R2Score then returns 1 for a
// perfect fit and 0 otherwise.
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	sse, err := SSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	mean := stat.Mean(mat.Col(nil, 0, yTrue), nil)
	var tss float64
	for i := 0; i < yTrue.Len(); i++ {
		d := yTrue.AtVec(i) - mean
		tss += d * d
	}
	if tss == 0 {
		if sse == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 1 - sse/tss, nil
}
