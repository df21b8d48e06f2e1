package linear

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/lsqlearn/core/model"
	"github.com/ezoic/lsqlearn/core/tensor"
	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
	"github.com/ezoic/lsqlearn/pkg/log"
)

const (
	defaultDelta        = 0.01
	defaultMaxSweeps    = 10000
	defaultObjectiveTol = 1e-6
)

// SweepLog records the state after one full coordinate-descent sweep.
type SweepLog struct {
	Sweep     int
	Timestamp time.Time
	Objective float64
	MaxDelta  float64 // sup-norm of the weight change over the sweep
	NonZero   int
}

// Lasso solves min_{w0,w} Σ(Xw + w0 − y)² + λ‖w‖₁ by cyclic coordinate
// descent. The intercept w0 is not penalized.
type Lasso struct {
	state *model.StateManager

	X      mat.Matrix
	design tensor.Design
	y      []float64
	xty    []float64 // x_kᵀy
	a      []float64 // 2‖x_k‖²

	lambda       float64
	delta        float64
	maxSweeps    int
	objectiveTol float64

	w  []float64
	w0 float64

	// yhat is Xw + w0 while Run is active and nil otherwise.
	yhat []float64

	sweeps    int
	converged bool
	objective float64
	history   []SweepLog

	logger log.Logger
}

// LassoOption configures a Lasso.
type LassoOption func(*Lasso)

// WithInitialWeights warm-starts the solver from w and w0. w is copied.
func WithInitialWeights(w []float64, w0 float64) LassoOption {
	return func(l *Lasso) {
		l.w = append([]float64(nil), w...)
		l.w0 = w0
	}
}

// WithDelta sets the convergence threshold on the largest per-sweep weight
// change.
func WithDelta(delta float64) LassoOption {
	return func(l *Lasso) { l.delta = delta }
}

// WithMaxSweeps caps the number of sweeps before a ConvergenceWarning.
func WithMaxSweeps(n int) LassoOption {
	return func(l *Lasso) { l.maxSweeps = n }
}

// WithObjectiveTolerance sets how much the objective may rise between sweeps
// before Run fails with an InvariantError.
func WithObjectiveTolerance(tol float64) LassoOption {
	return func(l *Lasso) { l.objectiveTol = tol }
}

// WithLassoLogger replaces the default "linear" logger.
func WithLassoLogger(logger log.Logger) LassoOption {
	return func(l *Lasso) { l.logger = logger }
}

// NewLasso creates a Lasso solver for the design X (dense or *tensor.CSC)
// and response y.
//
// Construction fails when:
//   - X is empty (ErrEmptyData)
//   - y does not have one entry per row of X (DimensionError)
//   - λ < 0, δ ≤ 0 or maxSweeps ≤ 0 (ValidationError, aggregated)
//   - initial weights do not have one entry per column (DimensionError)
//   - some column of X is all zeros (ErrZeroVariance)
//
// Example:
//
//	l, err := linear.NewLasso(X, y, 0.1, linear.WithDelta(1e-3))
//	if err != nil {
//		log.Fatal(err)
//	}
//	err = l.Run()
//	w, w0 := l.Weights(), l.Intercept()
func NewLasso(X mat.Matrix, y mat.Vector, lambda float64, opts ...LassoOption) (*Lasso, error) {
	const op = "NewLasso"
	if X == nil || y == nil {
		return nil, lsqErrors.NewModelError(op, "nil input", lsqErrors.ErrEmptyData)
	}
	n, d := X.Dims()
	if n == 0 || d == 0 {
		return nil, lsqErrors.NewModelError(op, "empty data", lsqErrors.ErrEmptyData)
	}
	if y.Len() != n {
		return nil, lsqErrors.NewDimensionError(op, n, y.Len(), 0)
	}

	l := &Lasso{
		state:        model.NewStateManager(),
		X:            X,
		lambda:       lambda,
		delta:        defaultDelta,
		maxSweeps:    defaultMaxSweeps,
		objectiveTol: defaultObjectiveTol,
		objective:    math.Inf(1),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = log.GetLoggerWithName("linear")
	}
	l.logger = l.logger.With(log.ModelNameKey, "Lasso", log.RegularizationKey, lambda)

	cfg := lsqErrors.NewConfigErrors(op)
	cfg.Check(lambda >= 0 && !math.IsNaN(lambda), "lambda", "must be non-negative", lambda)
	cfg.Check(l.delta > 0, "delta", "must be positive", l.delta)
	cfg.Check(l.maxSweeps > 0, "max_sweeps", "must be positive", l.maxSweeps)
	cfg.Check(l.objectiveTol >= 0, "objective_tolerance", "must be non-negative", l.objectiveTol)
	if l.w != nil && len(l.w) != d {
		cfg.Add(lsqErrors.NewDimensionError(op, d, len(l.w), 1))
	}
	if err := cfg.Err(); err != nil {
		return nil, err
	}
	if l.w == nil {
		l.w = make([]float64, d)
	}

	l.y = mat.Col(nil, 0, y)
	l.design = tensor.NewDesign(X)
	l.a = make([]float64, d)
	l.xty = make([]float64, d)
	for k := 0; k < d; k++ {
		l.a[k] = 2 * l.design.ColSqNorm(k)
		if l.a[k] == 0 {
			return nil, lsqErrors.NewModelError(op, "column has zero norm", lsqErrors.ErrZeroVariance)
		}
		l.xty[k] = l.design.ColDot(k, l.y)
	}
	l.state.SetDimensions(d, n)
	return l, nil
}

// Run performs sweeps until no weight moves by more than δ in one sweep, or
// until the sweep budget is spent (ConvergenceWarning, last weights kept).
// Run may be called again after SetWeights; counters restart each call.
func (l *Lasso) Run() (err error) {
	defer lsqErrors.Recover(&err, "Lasso.Run")
	start := time.Now()
	n, d := l.design.Dims()

	l.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, n,
		log.FeaturesKey, d,
	)

	l.yhat = make([]float64, n)
	defer func() { l.yhat = nil }()

	l.sweeps = 0
	l.converged = false
	l.history = l.history[:0]
	l.objective = math.Inf(1)
	l.predictInto(l.yhat)

	prev := make([]float64, d)
	for !l.converged && l.sweeps < l.maxSweeps {
		copy(prev, l.w)
		l.sweep()
		l.sweeps++

		obj := l.refreshObjective()
		if l.objectiveRose(obj) {
			panic(lsqErrors.NewInvariantError("Lasso.sweep",
				"objective increased from "+formatFloat(l.objective)+" to "+formatFloat(obj)))
		}
		l.objective = obj

		maxDelta := 0.0
		for k := range l.w {
			maxDelta = math.Max(maxDelta, math.Abs(l.w[k]-prev[k]))
		}
		l.history = append(l.history, SweepLog{
			Sweep:     l.sweeps,
			Timestamp: time.Now(),
			Objective: obj,
			MaxDelta:  maxDelta,
			NonZero:   l.NonZero(),
		})
		l.logger.Debug("Sweep completed",
			log.IterationKey, l.sweeps,
			log.ObjectiveKey, obj,
			log.MaxDeltaKey, maxDelta,
		)
		l.converged = maxDelta <= l.delta
	}

	if !l.converged {
		lsqErrors.Warn(lsqErrors.NewConvergenceWarning("Lasso", l.sweeps, "maximum number of sweeps reached"))
	}
	l.state.SetFitted()

	l.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.IterationKey, l.sweeps,
		log.ObjectiveKey, l.objective,
		log.NonZeroKey, l.NonZero(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// objectiveRose reports whether obj exceeds the previous sweep's objective by
// more than the tolerance. With tolerance 0 an unchanged objective passes.
func (l *Lasso) objectiveRose(obj float64) bool {
	return obj-l.objective > l.objectiveTol
}

// sweep updates w0 and then every w_k once, keeping yhat = Xw + w0 after
// each single update.
func (l *Lasso) sweep() {
	var resid float64
	for i, yi := range l.y {
		resid += yi - l.yhat[i]
	}
	shift := resid / float64(len(l.y))
	l.w0 += shift
	floats.AddConst(shift, l.yhat)

	for k := range l.w {
		old := l.w[k]
		// c_k = 2 x_kᵀ(y − ŷ + x_k w_k)
		c := 2*(l.xty[k]-l.design.ColDot(k, l.yhat)) + l.a[k]*old
		next := softThreshold(c, l.lambda, l.a[k])
		if next != old {
			l.design.AddScaledCol(l.yhat, next-old, k)
			l.w[k] = next
		}
	}
}

func softThreshold(c, lambda, a float64) float64 {
	switch {
	case c < -lambda:
		return (c + lambda) / a
	case c > lambda:
		return (c - lambda) / a
	default:
		return 0
	}
}

// refreshObjective recomputes yhat from scratch to shed accumulated rounding
// and returns Σ(ŷ − y)² + λ‖w‖₁.
func (l *Lasso) refreshObjective() float64 {
	l.predictInto(l.yhat)
	var sse float64
	for i, yi := range l.y {
		r := l.yhat[i] - yi
		sse += r * r
	}
	return sse + l.lambda*floats.Norm(l.w, 1)
}

func (l *Lasso) predictInto(dst []float64) {
	l.design.MulVecTo(dst, l.w)
	floats.AddConst(l.w0, dst)
}

// Weights returns a copy of w.
func (l *Lasso) Weights() []float64 { return append([]float64(nil), l.w...) }

// Intercept returns w0.
func (l *Lasso) Intercept() float64 { return l.w0 }

// Lambda returns the regularization strength.
func (l *Lasso) Lambda() float64 { return l.lambda }

// Objective returns the objective after the last sweep (+Inf before Run).
func (l *Lasso) Objective() float64 { return l.objective }

// Sweeps returns the number of sweeps performed by the last Run.
func (l *Lasso) Sweeps() int { return l.sweeps }

// Converged reports whether the last Run met the δ criterion.
func (l *Lasso) Converged() bool { return l.converged }

// History returns the per-sweep log of the last Run.
func (l *Lasso) History() []SweepLog { return append([]SweepLog(nil), l.history...) }

// NonZero counts weights that are exactly non-zero.
func (l *Lasso) NonZero() int {
	nz := 0
	for _, v := range l.w {
		if v != 0 {
			nz++
		}
	}
	return nz
}

// GetWeights returns w as a d×1 matrix.
func (l *Lasso) GetWeights() *mat.Dense {
	return mat.NewDense(len(l.w), 1, l.Weights())
}

// SetWeights replaces w with the d×1 (or 1×d) matrix W for a warm start.
// The intercept is left unchanged.
func (l *Lasso) SetWeights(W mat.Matrix) error {
	r, c := W.Dims()
	d := len(l.w)
	switch {
	case r == d && c == 1:
		for k := range l.w {
			l.w[k] = W.At(k, 0)
		}
	case r == 1 && c == d:
		for k := range l.w {
			l.w[k] = W.At(0, k)
		}
	default:
		return lsqErrors.NewDimensionError("Lasso.SetWeights", d, r*c, 0)
	}
	return nil
}

// Predict returns Xw + w0 for new rows.
func (l *Lasso) Predict(X mat.Matrix) (_ *mat.VecDense, err error) {
	defer lsqErrors.Recover(&err, "Lasso.Predict")
	if err := l.state.RequireFitted("Lasso", "Predict"); err != nil {
		return nil, err
	}
	n, d := X.Dims()
	if err := l.state.RequireFeatures("Lasso.Predict", d); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	tensor.NewDesign(X).MulVecTo(out, l.w)
	floats.AddConst(l.w0, out)
	return mat.NewVecDense(n, out), nil
}

// ResultsRow reports the fit on the training data.
func (l *Lasso) ResultsRow() (model.Row, error) {
	if err := l.state.RequireFitted("Lasso", "ResultsRow"); err != nil {
		return nil, err
	}
	row, err := l.Evaluate(l.X, mat.NewVecDense(len(l.y), l.y), "training")
	if err != nil {
		return nil, err
	}
	row["lambda"] = l.lambda
	row["objective"] = l.objective
	row["# nonzero weights"] = float64(l.NonZero())
	row["sweeps"] = float64(l.sweeps)
	row["converged"] = model.Bool(l.converged)
	row["w0"] = l.w0
	return row, nil
}

// Evaluate reports "<dataName> SSE", "<dataName> MSE" and "<dataName> RMSE"
// of the current weights on (X, y). y may be a vector or an N×1 matrix.
func (l *Lasso) Evaluate(X, y mat.Matrix, dataName string) (model.Row, error) {
	pred, err := l.Predict(X)
	if err != nil {
		return nil, err
	}
	n, c := y.Dims()
	if c != 1 {
		return nil, lsqErrors.NewDimensionError("Lasso.Evaluate", 1, c, 1)
	}
	if n != pred.Len() {
		return nil, lsqErrors.NewDimensionError("Lasso.Evaluate", pred.Len(), n, 0)
	}
	truth := mat.NewVecDense(n, mat.Col(nil, 0, y))
	return regressionRow(truth, pred, dataName)
}
