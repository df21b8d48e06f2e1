// Package errors defines the error taxonomy shared by every estimator in
// lsqlearn.
//
// The package wraps github.com/cockroachdb/errors so callers get stack traces
// with %+v, and adds a small set of typed errors that carry the operation that
// failed:
//
//   - ValueError, DimensionError, ValidationError: bad input or configuration,
//     reported at construction time
//   - NotFittedError: a model was queried before it was trained
//   - DivergenceError: SGD blew up or its loss kept rising
//   - InvariantError: an internal consistency check failed (for example the
//     Lasso objective increased after a sweep)
//   - ConvergenceWarning: the iteration budget ran out; non-fatal, see Warn
//
// All typed errors work with errors.Is and errors.As through their sentinels.
package errors

import (
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
)

var (
	// ErrEmptyData is returned when a matrix or vector has no rows or columns.
	ErrEmptyData = errors.New("empty data")
	// ErrNotImplemented marks functionality that does not exist.
	ErrNotImplemented = errors.New("not implemented")
	// ErrSingularMatrix is returned when a linear system has no unique solution.
	ErrSingularMatrix = errors.New("singular matrix")
	// ErrDimensionMismatch is the sentinel behind DimensionError.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrNotFitted is the sentinel behind NotFittedError.
	ErrNotFitted = errors.New("model not fitted")
	// ErrDiverged is the sentinel behind DivergenceError.
	ErrDiverged = errors.New("model diverged")
	// ErrZeroVariance is returned when a design column is identically zero.
	ErrZeroVariance = errors.New("zero-norm column")
	// ErrInvariant is the sentinel behind InvariantError.
	ErrInvariant = errors.New("invariant violated")
	// ErrInvalidConfig marks every construction-time configuration error.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNotConverged is the sentinel behind ConvergenceWarning.
	ErrNotConverged = errors.New("not converged")
	// ErrNumericalInstability is the sentinel behind NumericalInstabilityError.
	ErrNumericalInstability = errors.New("numerical instability")
)

// Thin re-exports so packages only import one errors package.
var (
	New    = errors.New
	Newf   = errors.Newf
	Wrap   = errors.Wrap
	Wrapf  = errors.Wrapf
	Is     = errors.Is
	As     = errors.As
	Mark   = errors.Mark
	Unwrap = errors.UnwrapOnce
)

// ValueError reports an argument with an invalid value.
type ValueError struct {
	Op      string
	Message string
}

// NewValueError creates a ValueError.
func NewValueError(op, message string) *ValueError {
	return &ValueError{Op: op, Message: message}
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("lsqlearn: %s: %s", e.Op, e.Message)
}

// DimensionError reports a shape mismatch along Axis (0 = rows, 1 = columns).
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

// NewDimensionError creates a DimensionError.
func NewDimensionError(op string, expected, got, axis int) *DimensionError {
	return &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
}

func (e *DimensionError) Error() string {
	axis := "rows"
	if e.Axis == 1 {
		axis = "columns"
	}
	return fmt.Sprintf("lsqlearn: %s: dimension mismatch on %s: expected %d, got %d", e.Op, axis, e.Expected, e.Got)
}

// Is reports whether target is ErrDimensionMismatch.
func (e *DimensionError) Is(target error) bool { return target == ErrDimensionMismatch }

// NotFittedError is returned when Predict or a report method runs before training.
type NotFittedError struct {
	ModelName string
	Method    string
}

// NewNotFittedError creates a NotFittedError.
func NewNotFittedError(modelName, method string) *NotFittedError {
	return &NotFittedError{ModelName: modelName, Method: method}
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("lsqlearn: %s: this %s instance is not fitted yet; call Run before %s", e.ModelName, e.ModelName, e.Method)
}

// Is reports whether target is ErrNotFitted.
func (e *NotFittedError) Is(target error) bool { return target == ErrNotFitted }

// ValidationError reports a single rejected configuration parameter.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

// NewValidationError creates a ValidationError.
func NewValidationError(paramName, reason string, value interface{}) *ValidationError {
	return &ValidationError{ParamName: paramName, Reason: reason, Value: value}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("lsqlearn: invalid %s=%v: %s", e.ParamName, e.Value, e.Reason)
}

// Is reports whether target is ErrInvalidConfig.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidConfig }

// ModelError attaches an operation and a failure kind to an underlying cause.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

// NewModelError creates a ModelError.
func NewModelError(op, kind string, err error) *ModelError {
	return &ModelError{Op: op, Kind: kind, Err: err}
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("lsqlearn: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// DivergenceError is returned when SGD training blows up. The learning-rate
// search treats it as the signal that a rate is too large.
type DivergenceError struct {
	Op     string
	Reason string
	Step   int
	Epoch  int
	Losses []float64 // most recent monitored losses, oldest first
	Err    error
}

// NewDivergenceError creates a DivergenceError.
func NewDivergenceError(op, reason string, step, epoch int, losses []float64) *DivergenceError {
	return &DivergenceError{Op: op, Reason: reason, Step: step, Epoch: epoch, Losses: losses}
}

func (e *DivergenceError) Error() string {
	msg := fmt.Sprintf("lsqlearn: %s: diverged at step %d (epoch %d): %s", e.Op, e.Step, e.Epoch, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is ErrDiverged.
func (e *DivergenceError) Is(target error) bool { return target == ErrDiverged }

func (e *DivergenceError) Unwrap() error { return e.Err }

// InvariantError reports that an algorithm broke one of its own guarantees.
type InvariantError struct {
	Op      string
	Message string
}

// NewInvariantError creates an InvariantError.
func NewInvariantError(op, message string) *InvariantError {
	return &InvariantError{Op: op, Message: message}
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("lsqlearn: %s: invariant violated: %s", e.Op, e.Message)
}

// Is reports whether target is ErrInvariant.
func (e *InvariantError) Is(target error) bool { return target == ErrInvariant }

// NumericalInstabilityError reports a NaN or Inf produced during training.
type NumericalInstabilityError struct {
	Op        string
	Value     float64
	Iteration int
}

func (e *NumericalInstabilityError) Error() string {
	return fmt.Sprintf("lsqlearn: %s: numerical instability at iteration %d: value %v", e.Op, e.Iteration, e.Value)
}

// Is reports whether target is ErrNumericalInstability.
func (e *NumericalInstabilityError) Is(target error) bool { return target == ErrNumericalInstability }

// CheckScalar returns a NumericalInstabilityError when v is NaN or infinite.
func CheckScalar(op string, v float64, iteration int) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &NumericalInstabilityError{Op: op, Value: v, Iteration: iteration}
	}
	return nil
}

// ConfigErrors collects configuration problems so a constructor can report
// all of them at once.
type ConfigErrors struct {
	op   string
	merr *multierror.Error
}

// NewConfigErrors starts an empty collection for op.
func NewConfigErrors(op string) *ConfigErrors {
	return &ConfigErrors{op: op}
}

// Add appends err when it is non-nil.
func (c *ConfigErrors) Add(err error) {
	if err != nil {
		c.merr = multierror.Append(c.merr, err)
	}
}

// Check records a ValidationError for param when ok is false.
func (c *ConfigErrors) Check(ok bool, param, reason string, value interface{}) {
	if !ok {
		c.Add(NewValidationError(param, reason, value))
	}
}

// Len returns the number of collected problems.
func (c *ConfigErrors) Len() int {
	if c.merr == nil {
		return 0
	}
	return c.merr.Len()
}

// Err returns nil when nothing was collected. Otherwise it returns one error
// that satisfies errors.Is(err, ErrInvalidConfig) and keeps every problem.
func (c *ConfigErrors) Err() error {
	if c.Len() == 0 {
		return nil
	}
	c.merr.ErrorFormat = listFormat
	return errors.Mark(errors.Wrapf(c.merr, "%s", c.op), ErrInvalidConfig)
}

// Errors returns the collected problems in insertion order.
func (c *ConfigErrors) Errors() []error {
	if c.merr == nil {
		return nil
	}
	return c.merr.Errors
}

func listFormat(es []error) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return fmt.Sprintf("%d configuration error(s): %s", len(es), strings.Join(parts, "; "))
}
