package preprocessing_test

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/lsqlearn/preprocessing"
	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
)

const epsilon = 1e-10

func TestStandardScaler_BasicFunctionality(t *testing.T) {
	// Feature 1: [1, 2, 3] -> mean=2, std=0.816
	// Feature 2: [4, 5, 6] -> mean=5, std=0.816
	X := mat.NewDense(3, 2, []float64{
		1.0, 4.0,
		2.0, 5.0,
		3.0, 6.0,
	})

	scaler := preprocessing.NewStandardScaler(true, true)
	if err := scaler.Fit(X); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	expectedMean := []float64{2.0, 5.0}
	expectedStd := []float64{0.816496580927726, 0.816496580927726}
	for i, expected := range expectedMean {
		if math.Abs(scaler.Mean[i]-expected) > epsilon {
			t.Errorf("Mean[%d]: expected %f, got %f", i, expected, scaler.Mean[i])
		}
	}
	for i, expected := range expectedStd {
		if math.Abs(scaler.Scale[i]-expected) > epsilon {
			t.Errorf("Scale[%d]: expected %f, got %f", i, expected, scaler.Scale[i])
		}
	}

	XScaled, err := scaler.Transform(X)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	expectedScaled := []float64{
		-1.224744871391589, -1.224744871391589,
		0.0, 0.0,
		1.224744871391589, 1.224744871391589,
	}
	r, c := XScaled.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.Abs(XScaled.At(i, j)-expectedScaled[i*c+j]) > epsilon {
				t.Errorf("XScaled[%d][%d]: expected %f, got %f", i, j, expectedScaled[i*c+j], XScaled.At(i, j))
			}
		}
	}

	back, err := scaler.InverseTransform(XScaled)
	if err != nil {
		t.Fatalf("InverseTransform failed: %v", err)
	}
	if !mat.EqualApprox(back, X, epsilon) {
		t.Errorf("round trip mismatch:\n%v", mat.Formatted(back))
	}
}

func TestStandardScaler_ConstantFeature(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		7, 1,
		7, 2,
		7, 3,
	})
	scaler := preprocessing.NewStandardScaler(true, true)
	Xs, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	if scaler.Scale[0] != 1 {
		t.Errorf("constant feature scale: expected 1, got %f", scaler.Scale[0])
	}
	for i := 0; i < 3; i++ {
		if Xs.At(i, 0) != 0 {
			t.Errorf("row %d: expected 0, got %f", i, Xs.At(i, 0))
		}
	}
}

func TestStandardScaler_Flags(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{2, 4})

	noMean := preprocessing.NewStandardScaler(false, true)
	Xs, err := noMean.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	if math.Abs(Xs.At(0, 0)-2) > epsilon || math.Abs(Xs.At(1, 0)-4) > epsilon {
		t.Errorf("scale only: got %v", mat.Formatted(Xs))
	}

	noStd := preprocessing.NewStandardScaler(true, false)
	Xs, err = noStd.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	if Xs.At(0, 0) != -1 || Xs.At(1, 0) != 1 {
		t.Errorf("center only: got %v", mat.Formatted(Xs))
	}
}

func TestStandardScaler_Errors(t *testing.T) {
	scaler := preprocessing.NewStandardScaler(true, true)

	if _, err := scaler.Transform(mat.NewDense(1, 1, nil)); !lsqErrors.Is(err, lsqErrors.ErrNotFitted) {
		t.Errorf("expected ErrNotFitted, got %v", err)
	}
	if err := scaler.Fit(&mat.Dense{}); !lsqErrors.Is(err, lsqErrors.ErrEmptyData) {
		t.Errorf("expected ErrEmptyData, got %v", err)
	}
	if err := scaler.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if _, err := scaler.Transform(mat.NewDense(1, 3, nil)); !lsqErrors.Is(err, lsqErrors.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if got := scaler.String(); got != "StandardScaler(with_mean=true, with_std=true, n_features=2)" {
		t.Errorf("unexpected String(): %s", got)
	}
}

func TestLabelBinarizer(t *testing.T) {
	lb := preprocessing.NewLabelBinarizer()
	Y, err := lb.FitTransform([]int{5, 1, 5, 3})
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	want := mat.NewDense(4, 3, []float64{
		0, 0, 1,
		1, 0, 0,
		0, 0, 1,
		0, 1, 0,
	})
	if !mat.Equal(Y, want) {
		t.Errorf("unexpected one-hot matrix:\n%v", mat.Formatted(Y))
	}
	if got := lb.Classes(); len(got) != 3 || got[0] != 1 || got[2] != 5 {
		t.Errorf("unexpected classes %v", got)
	}

	scores := mat.NewDense(2, 3, []float64{
		0.1, 0.7, 0.2,
		0.9, 0.0, 0.3,
	})
	labels, err := lb.InverseTransform(scores)
	if err != nil {
		t.Fatalf("InverseTransform failed: %v", err)
	}
	if labels[0] != 3 || labels[1] != 1 {
		t.Errorf("unexpected labels %v", labels)
	}

	if _, err := lb.Transform([]int{2}); err == nil {
		t.Error("expected an error for an unseen label")
	}
	if _, err := lb.InverseTransform(mat.NewDense(1, 2, nil)); !lsqErrors.Is(err, lsqErrors.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := preprocessing.NewLabelBinarizer().Transform([]int{1}); !lsqErrors.Is(err, lsqErrors.ErrNotFitted) {
		t.Errorf("expected ErrNotFitted, got %v", err)
	}
}
