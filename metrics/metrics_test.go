package metrics

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
)

func TestMetricErrors(t *testing.T) {
	a := mat.NewVecDense(3, []float64{1, 2, 3})
	b := mat.NewVecDense(2, []float64{1, 2})

	if _, err := MSE(a, b); !lsqErrors.Is(err, lsqErrors.ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch, got %v", err)
	}
	if _, err := SSE(nil, a); err == nil {
		t.Error("expected error for nil vector")
	}
	if _, err := SSEMatrix(mat.NewDense(2, 2, nil), mat.NewDense(2, 3, nil)); !lsqErrors.Is(err, lsqErrors.ErrDimensionMismatch) {
		t.Errorf("expected column mismatch, got %v", err)
	}
	if _, err := ZeroOneLoss(nil, nil); err == nil {
		t.Error("expected error for empty labels")
	}
	if _, err := Accuracy([]int{1}, []int{1, 2}); err == nil {
		t.Error("expected error for length mismatch")
	}
}

func TestR2Score(t *testing.T) {
	tests := []struct {
		name  string
		yTrue []float64
		yPred []float64
		want  float64
	}{
		{"mean predictor", []float64{1, 2, 3}, []float64{2, 2, 2}, 0},
		{"half explained", []float64{0, 2}, []float64{0.5, 1.5}, 0.75},
		{"constant target exact", []float64{5, 5}, []float64{5, 5}, 1},
		{"constant target miss", []float64{5, 5}, []float64{4, 5}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := R2Score(mat.NewVecDense(len(tt.yTrue), tt.yTrue), mat.NewVecDense(len(tt.yPred), tt.yPred))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := got - tt.want; diff > 1e-12 || diff < -1e-12 {
				t.Errorf("R2Score = %v, want %v", got, tt.want)
			}
		})
	}
}
