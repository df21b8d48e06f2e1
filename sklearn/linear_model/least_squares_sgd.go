// Package linear_model implements the multi-class least-squares classifier
// trained by mini-batch stochastic gradient descent over kernel features.
//
// The solver owns its weight matrix, history buffers and random source; it is
// not safe for concurrent use. A typical fit:
//
//	Y, _ := preprocessing.NewLabelBinarizer().FitTransform(labels)
//	m, err := linear_model.NewLeastSquaresSGD(X, Y,
//		linear_model.WithKernel(kernel.RBFFactory()),
//		linear_model.WithRandomState(42),
//	)
//	if err != nil {
//		return err
//	}
//	if err := m.Run(); err != nil {
//		return err // errors.Is(err, errors.ErrDiverged) for a runaway rate
//	}
//	classes, err := m.Predict(Xtest)
package linear_model

import (
	"io"
	"math"
	"math/rand/v2"
	"os"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/lsqlearn/core/model"
	"github.com/ezoic/lsqlearn/kernel"
	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
	"github.com/ezoic/lsqlearn/pkg/log"
)

// Phase is the lifecycle position of a LeastSquaresSGD.
type Phase string

const (
	PhaseInitialized      Phase = "initialized"
	PhaseSearching        Phase = "searching_learning_rate"
	PhaseTraining         Phase = "training"
	PhaseConverged        Phase = "converged"
	PhaseDiverged         Phase = "diverged"
	PhaseMaxEpochsReached Phase = "max_epochs_reached"
)

const (
	defaultSearchStart  = 1000.0
	defaultMaxEpochs    = 1_000_000
	defaultBatchSize    = 100
	defaultMonitorFreq  = 15000
	defaultDeltaPercent = 0.01
	defaultStreak       = 7
	defaultLossBlowUp   = 1e6
	defaultSearchEpochs = 5
	defaultSearchPoints = 1000
	wHatWindow          = 5
	earlyPulseSteps     = 10
	yhatChunkRows       = 1000
	searchGrowth        = 5.0
	searchShrink        = 100.0
	searchMaxRates      = 40
	searchMaxRestarts   = 6
)

// Vitals is one expensive monitoring pulse over the full training data.
type Vitals struct {
	Step           int
	Epoch          int
	Points         int
	Eta            float64
	SquareLoss     float64
	SquareLossPerN float64
	ZeroOnePerN    float64
	Timestamp      time.Time
}

// WHatLog records the variance of the running weight average ŵ at the end of
// an epoch. PercentChange is NaN when it is undefined.
type WHatLog struct {
	Epoch         int
	Variance      float64
	PercentChange float64
}

// LeastSquaresSGD fits W (D×C) minimizing Σ‖Y − φ(X)W‖² with no bias term,
// where φ is the configured kernel.
type LeastSquaresSGD struct {
	state *model.StateManager

	X mat.Matrix
	Y *mat.Dense
	n int
	c int

	kernelFactory kernel.Factory
	kernel        kernel.Kernel

	// Hyperparameters
	eta0         float64
	fixedEta     bool
	searchStart  float64
	maxEpochs    int
	batchSize    int
	monitorFreq  int
	deltaPercent float64
	streak       int
	lossBlowUp   float64
	fastSteps    int
	searchEpochs int
	searchPoints int
	initW        mat.Matrix

	// Learning state
	W         *mat.Dense
	eta       float64
	steps     int
	epochs    int
	points    int
	phase     Phase
	converged bool
	started   bool

	vitals   []Vitals
	wHatHist []WHatLog
	recentW  []*mat.Dense
	wHatVar  float64
	wHatPct  float64
	lastLoss float64

	// trial runs inside the learning-rate search stay silent and diverge
	// once the loss rises above its value at zero weights
	trial       bool
	lossCeiling float64

	rng         *rand.Rand
	randomState int64
	progress    io.Writer
	logger      log.Logger
}

// SGDOption configures a LeastSquaresSGD.
type SGDOption func(*LeastSquaresSGD)

// WithKernel sets the kernel factory. The default is the linear kernel.
func WithKernel(f kernel.Factory) SGDOption {
	return func(m *LeastSquaresSGD) { m.kernelFactory = f }
}

// WithEta0 fixes the initial learning rate and skips the search.
func WithEta0(eta0 float64) SGDOption {
	return func(m *LeastSquaresSGD) {
		m.eta0 = eta0
		m.fixedEta = true
	}
}

// WithEta0SearchStart sets the search seed before it is divided by N.
func WithEta0SearchStart(start float64) SGDOption {
	return func(m *LeastSquaresSGD) { m.searchStart = start }
}

// WithMaxEpochs sets the epoch counter value that ends training. The counter
// starts at 1, so n allows n−1 passes over the data.
func WithMaxEpochs(n int) SGDOption {
	return func(m *LeastSquaresSGD) { m.maxEpochs = n }
}

// WithBatchSize sets the number of rows per gradient step.
func WithBatchSize(n int) SGDOption {
	return func(m *LeastSquaresSGD) { m.batchSize = n }
}

// WithMonitoringFreq sets how many sampled points pass between pulses. It
// must be a multiple of the batch size.
func WithMonitoringFreq(points int) SGDOption {
	return func(m *LeastSquaresSGD) { m.monitorFreq = points }
}

// WithDeltaPercent sets the convergence threshold on percent changes.
func WithDeltaPercent(p float64) SGDOption {
	return func(m *LeastSquaresSGD) { m.deltaPercent = p }
}

// WithDivergenceStreak sets how many strictly increasing pulse losses count
// as divergence.
func WithDivergenceStreak(n int) SGDOption {
	return func(m *LeastSquaresSGD) { m.streak = n }
}

// WithLossBlowUp sets the ceiling on (square loss/N)/N.
func WithLossBlowUp(limit float64) SGDOption {
	return func(m *LeastSquaresSGD) { m.lossBlowUp = limit }
}

// WithRandomState seeds every random choice of the model. A negative seed
// draws one from the clock.
func WithRandomState(seed int64) SGDOption {
	return func(m *LeastSquaresSGD) { m.randomState = seed }
}

// WithSGDInitialWeights starts training from a copy of W (D×C).
func WithSGDInitialWeights(W mat.Matrix) SGDOption {
	return func(m *LeastSquaresSGD) { m.initW = W }
}

// WithProgressWriter sets where one '.' per epoch is written. Defaults to
// standard output.
func WithProgressWriter(w io.Writer) SGDOption {
	return func(m *LeastSquaresSGD) { m.progress = w }
}

// WithSearchBudget bounds each learning-rate trial to epochs passes over at
// most points rows.
func WithSearchBudget(epochs, points int) SGDOption {
	return func(m *LeastSquaresSGD) {
		m.searchEpochs = epochs
		m.searchPoints = points
	}
}

// WithSGDLogger replaces the default "linear_model" logger.
func WithSGDLogger(logger log.Logger) SGDOption {
	return func(m *LeastSquaresSGD) { m.logger = logger }
}

// NewLeastSquaresSGD validates the configuration and builds the kernel from X.
// Y is the N×C one-hot label matrix. All configuration problems are reported
// together in one error marked ErrInvalidConfig.
func NewLeastSquaresSGD(X, Y mat.Matrix, opts ...SGDOption) (*LeastSquaresSGD, error) {
	const op = "NewLeastSquaresSGD"
	if X == nil || Y == nil {
		return nil, lsqErrors.NewModelError(op, "nil input", lsqErrors.ErrEmptyData)
	}
	n, d := X.Dims()
	ny, c := Y.Dims()
	if n == 0 || d == 0 || c == 0 {
		return nil, lsqErrors.NewModelError(op, "empty data", lsqErrors.ErrEmptyData)
	}
	if ny != n {
		return nil, lsqErrors.NewDimensionError(op, n, ny, 0)
	}

	m := &LeastSquaresSGD{
		state:         model.NewStateManager(),
		X:             X,
		Y:             mat.DenseCopyOf(Y),
		n:             n,
		c:             c,
		kernelFactory: kernel.LinearFactory(),
		searchStart:   defaultSearchStart,
		maxEpochs:     defaultMaxEpochs,
		batchSize:     defaultBatchSize,
		monitorFreq:   defaultMonitorFreq,
		deltaPercent:  defaultDeltaPercent,
		streak:        defaultStreak,
		lossBlowUp:    defaultLossBlowUp,
		searchEpochs:  defaultSearchEpochs,
		searchPoints:  defaultSearchPoints,
		randomState:   -1,
		epochs:        1,
		phase:         PhaseInitialized,
		wHatVar:       math.NaN(),
		wHatPct:       math.NaN(),
		lastLoss:      math.NaN(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.progress == nil {
		m.progress = os.Stdout
	}
	if m.logger == nil {
		m.logger = log.GetLoggerWithName("linear_model")
	}
	m.logger = m.logger.With(log.ModelNameKey, "LeastSquaresSGD")

	if m.randomState >= 0 {
		m.rng = rand.New(rand.NewPCG(uint64(m.randomState), uint64(m.randomState)))
	} else {
		seed := uint64(time.Now().UnixNano())
		m.rng = rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
	}

	cfg := lsqErrors.NewConfigErrors(op)
	cfg.Check(m.kernelFactory != nil, "kernel", "must not be nil", nil)
	cfg.Check(m.batchSize > 0, "batch_size", "must be positive", m.batchSize)
	cfg.Check(m.monitorFreq > 0, "progress_monitoring_freq", "must be positive", m.monitorFreq)
	if m.batchSize > 0 && m.monitorFreq > 0 {
		cfg.Check(m.monitorFreq%m.batchSize == 0, "progress_monitoring_freq",
			"must be a multiple of the batch size", m.monitorFreq)
	}
	cfg.Check(m.maxEpochs >= 2, "max_epochs", "must be at least 2", m.maxEpochs)
	cfg.Check(m.deltaPercent > 0, "delta_percent", "must be positive", m.deltaPercent)
	cfg.Check(m.streak >= 2, "max_divergence_streak_length", "must be at least 2", m.streak)
	cfg.Check(m.lossBlowUp > 0, "loss_blow_up", "must be positive", m.lossBlowUp)
	if m.fixedEta {
		cfg.Check(m.eta0 > 0 && !math.IsInf(m.eta0, 0), "eta0", "must be positive and finite", m.eta0)
	} else {
		cfg.Check(m.searchStart > 0 && !math.IsInf(m.searchStart, 0), "eta0_search_start", "must be positive and finite", m.searchStart)
	}
	cfg.Check(m.searchEpochs >= 2, "search_epochs", "must be at least 2", m.searchEpochs)
	cfg.Check(m.searchPoints >= 1, "search_points", "must be positive", m.searchPoints)
	if err := cfg.Err(); err != nil {
		return nil, err
	}

	k, err := m.kernelFactory(X, m.rng)
	if err != nil {
		return nil, lsqErrors.Wrap(err, op)
	}
	m.kernel = k

	m.W = mat.NewDense(k.Dim(), c, nil)
	if m.initW != nil {
		if err := m.SetWeights(m.initW); err != nil {
			return nil, lsqErrors.Mark(err, lsqErrors.ErrInvalidConfig)
		}
		m.initW = nil
	}
	m.eta = m.eta0
	m.state.SetDimensions(d, n)

	m.logger.Debug("Model configured",
		log.SamplesKey, n,
		log.FeaturesKey, d,
		log.ClassesKey, c,
		log.KernelKey, k.Name(),
		log.BatchSizeKey, m.batchSize,
	)
	return m, nil
}

// Phase returns where the model is in its lifecycle.
func (m *LeastSquaresSGD) Phase() Phase { return m.phase }

// Kernel returns the feature map built from the training data.
func (m *LeastSquaresSGD) Kernel() kernel.Kernel { return m.kernel }

// Eta0 returns the initial learning rate (0 before the search has run).
func (m *LeastSquaresSGD) Eta0() float64 { return m.eta0 }

// Eta returns the current decayed learning rate.
func (m *LeastSquaresSGD) Eta() float64 { return m.eta }

// Steps returns the number of gradient steps taken.
func (m *LeastSquaresSGD) Steps() int { return m.steps }

// Epochs returns the epoch counter. It starts at 1.
func (m *LeastSquaresSGD) Epochs() int { return m.epochs }

// MaxEpochs returns the current epoch limit.
func (m *LeastSquaresSGD) MaxEpochs() int { return m.maxEpochs }

// Points returns the number of rows sampled so far.
func (m *LeastSquaresSGD) Points() int { return m.points }

// BatchSize returns the mini-batch size.
func (m *LeastSquaresSGD) BatchSize() int { return m.batchSize }

// Converged reports whether the percent-change criteria were met.
func (m *LeastSquaresSGD) Converged() bool { return m.converged }

// IsFitted reports whether Run has finished without error.
func (m *LeastSquaresSGD) IsFitted() bool { return m.state.IsFitted() }

// GetWeights returns a copy of W.
func (m *LeastSquaresSGD) GetWeights() *mat.Dense { return mat.DenseCopyOf(m.W) }

// SetWeights replaces W with a copy of the D×C matrix W.
func (m *LeastSquaresSGD) SetWeights(W mat.Matrix) error {
	const op = "LeastSquaresSGD.SetWeights"
	r, c := W.Dims()
	wr, wc := m.W.Dims()
	if r != wr {
		return lsqErrors.NewDimensionError(op, wr, r, 0)
	}
	if c != wc {
		return lsqErrors.NewDimensionError(op, wc, c, 1)
	}
	m.W.Copy(W)
	return nil
}

// Vitals returns every pulse recorded so far, oldest first.
func (m *LeastSquaresSGD) Vitals() []Vitals { return append([]Vitals(nil), m.vitals...) }

// WHatHistory returns the per-epoch ŵ variance log.
func (m *LeastSquaresSGD) WHatHistory() []WHatLog { return append([]WHatLog(nil), m.wHatHist...) }
