package errors_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
)

// TestErrorWrappingCompatibility tests Go 1.13+ error wrapping with our custom types
func TestErrorWrappingCompatibility(t *testing.T) {
	originalErr := lsqErrors.NewNotFittedError("LeastSquaresSGD", "Predict")
	wrappedErr := fmt.Errorf("sweep step failed: %w", originalErr)

	if !errors.Is(wrappedErr, originalErr) {
		t.Errorf("errors.Is failed to identify wrapped error")
	}
	if !errors.Is(wrappedErr, lsqErrors.ErrNotFitted) {
		t.Errorf("errors.Is failed to match ErrNotFitted sentinel")
	}

	var notFittedErr *lsqErrors.NotFittedError
	if !errors.As(wrappedErr, &notFittedErr) {
		t.Fatalf("errors.As failed to extract NotFittedError")
	}
	if notFittedErr.ModelName != "LeastSquaresSGD" {
		t.Errorf("expected ModelName 'LeastSquaresSGD', got '%s'", notFittedErr.ModelName)
	}
}

// TestCombinedErrorTypes tests mixing custom and standard errors
func TestCombinedErrorTypes(t *testing.T) {
	stdErr := fmt.Errorf("standard error")
	customErr := lsqErrors.NewModelError("TestOp", "test failure", stdErr)
	wrappedErr := fmt.Errorf("operation context: %w", customErr)

	if !errors.Is(wrappedErr, stdErr) {
		t.Errorf("failed to find standard error in chain")
	}

	var modelErr *lsqErrors.ModelError
	if !errors.As(wrappedErr, &modelErr) {
		t.Fatalf("failed to extract ModelError")
	}
	if modelErr.Unwrap() != stdErr {
		t.Errorf("ModelError.Unwrap() didn't return expected error")
	}
}

func TestSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"dimension", lsqErrors.NewDimensionError("op", 3, 2, 0), lsqErrors.ErrDimensionMismatch},
		{"validation", lsqErrors.NewValidationError("batch_size", "must be positive", 0), lsqErrors.ErrInvalidConfig},
		{"divergence", lsqErrors.NewDivergenceError("op", "blow-up", 1, 0, nil), lsqErrors.ErrDiverged},
		{"invariant", lsqErrors.NewInvariantError("op", "objective increased"), lsqErrors.ErrInvariant},
		{"zero column", lsqErrors.NewModelError("op", "column 0", lsqErrors.ErrZeroVariance), lsqErrors.ErrZeroVariance},
		{"convergence warning", lsqErrors.NewConvergenceWarning("Lasso", 10, "max sweeps"), lsqErrors.ErrNotConverged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := lsqErrors.Wrap(tt.err, "context")
			assert.True(t, lsqErrors.Is(wrapped, tt.sentinel))
			assert.True(t, errors.Is(fmt.Errorf("std: %w", tt.err), tt.sentinel))
		})
	}
}

func TestConfigErrorsAggregate(t *testing.T) {
	ce := lsqErrors.NewConfigErrors("NewLeastSquaresSGD")
	require.NoError(t, ce.Err())

	ce.Check(true, "eta0", "must be positive", 1.0)
	ce.Check(false, "batch_size", "must be positive", -1)
	ce.Add(lsqErrors.NewDimensionError("NewLeastSquaresSGD", 4, 3, 0))
	ce.Add(nil)

	err := ce.Err()
	require.Error(t, err)
	assert.Equal(t, 2, ce.Len())
	assert.True(t, lsqErrors.Is(err, lsqErrors.ErrInvalidConfig))
	assert.Contains(t, err.Error(), "batch_size")
	assert.Contains(t, err.Error(), "expected 4, got 3")

	var dim *lsqErrors.DimensionError
	assert.True(t, lsqErrors.As(ce.Errors()[1], &dim))
}

func TestRecover(t *testing.T) {
	run := func(p interface{}) (err error) {
		defer lsqErrors.Recover(&err, "Lasso.Run")
		panic(p)
	}

	err := run(lsqErrors.NewInvariantError("Lasso.sweep", "objective increased"))
	require.Error(t, err)
	assert.True(t, lsqErrors.Is(err, lsqErrors.ErrInvariant))
	var inv *lsqErrors.InvariantError
	require.True(t, lsqErrors.As(err, &inv))
	assert.Equal(t, "Lasso.sweep", inv.Op)

	err = run("boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	noPanic := func() (err error) {
		defer lsqErrors.Recover(&err, "noop")
		return nil
	}
	assert.NoError(t, noPanic())
}

func TestWarnHandler(t *testing.T) {
	var got []error
	prev := lsqErrors.SetWarningHandler(func(w error) { got = append(got, w) })
	defer lsqErrors.SetWarningHandler(prev)

	lsqErrors.Warn(lsqErrors.NewConvergenceWarning("LeastSquaresSGD", 5, "max epochs reached"))
	lsqErrors.Warn(nil)

	require.Len(t, got, 1)
	var cw *lsqErrors.ConvergenceWarning
	require.True(t, errors.As(got[0], &cw))
	assert.Equal(t, 5, cw.Iterations)
}

func TestCheckScalar(t *testing.T) {
	assert.NoError(t, lsqErrors.CheckScalar("loss", 1.5, 0))
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		err := lsqErrors.CheckScalar("loss", v, 3)
		assert.True(t, lsqErrors.Is(err, lsqErrors.ErrNumericalInstability))
	}
}
