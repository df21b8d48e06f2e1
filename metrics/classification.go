package metrics

import (
	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
)

// ZeroOneLoss counts the positions where yTrue and yPred disagree.
//
// Example:
//
//	n, _ := metrics.ZeroOneLoss([]int{0, 1, 2, 1}, []int{0, 1, 1, 1}) // 1
func ZeroOneLoss(yTrue, yPred []int) (int, error) {
	if len(yTrue) == 0 {
		return 0, lsqErrors.NewValueError("ZeroOneLoss", "input labels cannot be empty")
	}
	if len(yTrue) != len(yPred) {
		return 0, lsqErrors.NewDimensionError("ZeroOneLoss", len(yTrue), len(yPred), 0)
	}
	wrong := 0
	for i := range yTrue {
		if yTrue[i] != yPred[i] {
			wrong++
		}
	}
	return wrong, nil
}

// Accuracy is the fraction of correct predictions.
func Accuracy(yTrue, yPred []int) (float64, error) {
	wrong, err := ZeroOneLoss(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - float64(wrong)/float64(len(yTrue)), nil
}
