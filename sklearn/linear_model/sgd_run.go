package linear_model

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/lsqlearn/core/tensor"
	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
	"github.com/ezoic/lsqlearn/pkg/log"
)

// Run searches for η0 when none was fixed, then trains until the loss and ŵ
// settle, the loss diverges (DivergenceError), or the epoch counter reaches
// its limit (ConvergenceWarning, last weights kept).
func (m *LeastSquaresSGD) Run() (err error) {
	const op = "LeastSquaresSGD.Run"
	defer lsqErrors.Recover(&err, op)
	if m.started {
		return lsqErrors.NewModelError(op, "already run; use RunLonger to continue", lsqErrors.ErrInvalidConfig)
	}
	m.started = true
	if m.eta0 == 0 {
		if err := m.FindLearningRate(); err != nil {
			return err
		}
	}
	return m.train(false)
}

type runLongerConfig struct {
	fastSteps    *int
	deltaPercent *float64
	monitorFreq  *int
	streak       *int
}

// RunLongerOption adjusts the criteria of a resumed run.
type RunLongerOption func(*runLongerConfig)

// WithFastSteps discounts n steps from the learning-rate decay, which raises η
// from the next epoch on.
func WithFastSteps(n int) RunLongerOption {
	return func(c *runLongerConfig) { c.fastSteps = &n }
}

// WithDeltaPercentOverride replaces the convergence threshold.
func WithDeltaPercentOverride(p float64) RunLongerOption {
	return func(c *runLongerConfig) { c.deltaPercent = &p }
}

// WithMonitoringFreqOverride replaces the pulse frequency.
func WithMonitoringFreqOverride(points int) RunLongerOption {
	return func(c *runLongerConfig) { c.monitorFreq = &points }
}

// WithStreakOverride replaces the divergence streak length.
func WithStreakOverride(n int) RunLongerOption {
	return func(c *runLongerConfig) { c.streak = &n }
}

// RunLonger raises the epoch limit by epochs and resumes training in place.
// Step, epoch and point counters, the ŵ window, the last pulse loss and the
// learning-rate decay all carry over.
func (m *LeastSquaresSGD) RunLonger(epochs int, opts ...RunLongerOption) (err error) {
	const op = "LeastSquaresSGD.RunLonger"
	defer lsqErrors.Recover(&err, op)
	if !m.started || m.eta0 == 0 {
		return lsqErrors.NewNotFittedError("LeastSquaresSGD", "RunLonger")
	}
	if m.phase == PhaseDiverged {
		return lsqErrors.NewModelError(op, "cannot resume a diverged model", lsqErrors.ErrDiverged)
	}

	var cfg runLongerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	errs := lsqErrors.NewConfigErrors(op)
	errs.Check(epochs > 0, "epochs", "must be positive", epochs)
	if cfg.fastSteps != nil {
		errs.Check(*cfg.fastSteps >= 0, "fast_steps", "must be non-negative", *cfg.fastSteps)
	}
	if cfg.deltaPercent != nil {
		errs.Check(*cfg.deltaPercent > 0, "delta_percent", "must be positive", *cfg.deltaPercent)
	}
	if cfg.monitorFreq != nil {
		f := *cfg.monitorFreq
		errs.Check(f > 0 && f%m.batchSize == 0, "progress_monitoring_freq",
			"must be a positive multiple of the batch size", f)
	}
	if cfg.streak != nil {
		errs.Check(*cfg.streak >= 2, "max_divergence_streak_length", "must be at least 2", *cfg.streak)
	}
	if err := errs.Err(); err != nil {
		return err
	}

	m.logger.Info("Resuming training",
		log.StepKey, m.steps,
		log.EpochKey, m.epochs,
		"extra_epochs", epochs,
	)
	if m.converged {
		m.logger.Warn("Clearing convergence flag of a converged model; unchanged criteria may stop it again at once")
		m.converged = false
	}
	if cfg.fastSteps != nil {
		if m.fastSteps > 0 {
			m.logger.Warn("Replacing fast steps", "old", m.fastSteps, "new", *cfg.fastSteps)
		}
		m.fastSteps = *cfg.fastSteps
	}
	if cfg.deltaPercent != nil {
		m.deltaPercent = *cfg.deltaPercent
	}
	if cfg.monitorFreq != nil {
		m.monitorFreq = *cfg.monitorFreq
	}
	if cfg.streak != nil {
		m.streak = *cfg.streak
	}
	m.maxEpochs += epochs
	return m.train(true)
}

// train runs epochs until a stopping condition holds. A resumed run pulses and
// refreshes ŵ on its first batch.
func (m *LeastSquaresSGD) train(resumed bool) error {
	start := time.Now()
	m.phase = PhaseTraining
	m.converged = false

	m.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, m.n,
		log.ClassesKey, m.c,
		log.KernelKey, m.kernel.Name(),
		log.LearningRateKey, m.eta0,
		log.BatchSizeKey, m.batchSize,
		log.EpochKey, m.epochs,
	)

	first := resumed
	for m.epochs < m.maxEpochs && !m.converged {
		if err := m.epoch(first); err != nil {
			if lsqErrors.Is(err, lsqErrors.ErrDiverged) {
				m.phase = PhaseDiverged
				m.logger.Warn("Training diverged", log.StepKey, m.steps, log.EpochKey, m.epochs, "error", err)
			}
			return err
		}
		first = false
	}
	fmt.Fprintln(m.progress)

	if m.converged {
		m.phase = PhaseConverged
	} else {
		m.phase = PhaseMaxEpochsReached
		if !m.trial {
			lsqErrors.Warn(lsqErrors.NewConvergenceWarning("LeastSquaresSGD", m.epochs,
				fmt.Sprintf("max epochs (%d) reached", m.maxEpochs)))
		}
	}
	m.state.SetFitted()

	m.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.StepKey, m.steps,
		log.EpochKey, m.epochs,
		log.LossKey, m.lastLoss,
		log.LearningRateKey, m.eta,
		"phase", string(m.phase),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// epoch makes one shuffled pass over the training data in mini-batches.
func (m *LeastSquaresSGD) epoch(resumed bool) error {
	X, Y, err := tensor.ShuffleRows(m.X, m.Y, m.rng)
	if err != nil {
		return err
	}

	for done, batch := 0, 0; done < m.n; batch++ {
		resumeBatch := resumed && batch == 0
		pulse := m.points%m.monitorFreq == 0 || m.steps < earlyPulseSteps || resumeBatch

		to := min(done+m.batchSize, m.n)
		Phi, err := m.kernel.Transform(tensor.RowRange(X, done, to))
		if err != nil {
			return lsqErrors.Wrap(err, "LeastSquaresSGD.step")
		}
		m.step(Phi, Y.Slice(done, to, 0, m.c))
		m.points += to - done
		done = to

		if done == m.n || resumeBatch {
			m.updateWHat()
		}
		if !pulse {
			continue
		}
		if err := m.pulse(); err != nil {
			return err
		}
		if m.converged {
			break
		}
	}

	m.epochs++
	fmt.Fprint(m.progress, ".")
	m.shrinkEta()
	return nil
}

// step applies W ← W − (η/n)G with G = −(1/n)Φᵀ(Y − ΦW) for one batch.
func (m *LeastSquaresSGD) step(Phi *mat.Dense, Yb mat.Matrix) {
	n, _ := Phi.Dims()
	var resid mat.Dense
	resid.Mul(Phi, m.W)
	resid.Sub(Yb, &resid)

	var grad mat.Dense
	grad.Mul(Phi.T(), &resid)
	grad.Scale(m.eta/float64(n*n), &grad)
	m.W.Add(m.W, &grad)
	m.steps++
}

// shrinkEta decays η by the square root of the effective epoch, counted in
// points so a short last batch is not counted in full.
func (m *LeastSquaresSGD) shrinkEta() {
	e := float64(m.points-m.fastSteps*m.batchSize)/float64(m.n) + 1
	if e < 1 {
		e = 1
	}
	m.eta = m.eta0 / math.Sqrt(e)
}

// updateWHat pushes W into the snapshot window and records the variance of
// the window average.
func (m *LeastSquaresSGD) updateWHat() {
	if len(m.recentW) == wHatWindow {
		copy(m.recentW, m.recentW[1:])
		m.recentW = m.recentW[:wHatWindow-1]
	}
	m.recentW = append(m.recentW, mat.DenseCopyOf(m.W))

	r, c := m.W.Dims()
	avg := mat.NewDense(r, c, nil)
	for _, w := range m.recentW {
		avg.Add(avg, w)
	}
	avg.Scale(1/float64(len(m.recentW)), avg)

	v := tensor.PopVariance(avg)
	pct := percentChange(v, m.wHatVar)
	m.wHatVar, m.wHatPct = v, pct
	m.wHatHist = append(m.wHatHist, WHatLog{Epoch: m.epochs, Variance: v, PercentChange: pct})
}

// pulse records full-data vitals and applies the blow-up, convergence and
// divergence tests in that order.
func (m *LeastSquaresSGD) pulse() error {
	sse, zeroOne, err := m.trainingLosses()
	if err != nil {
		return err
	}
	n := float64(m.n)
	lossN := sse / n
	m.vitals = append(m.vitals, Vitals{
		Step:           m.steps,
		Epoch:          m.epochs,
		Points:         m.points,
		Eta:            m.eta,
		SquareLoss:     sse,
		SquareLossPerN: lossN,
		ZeroOnePerN:    float64(zeroOne) / n,
		Timestamp:      time.Now(),
	})
	m.logger.Debug("Vitals recorded",
		log.StepKey, m.steps,
		log.EpochKey, m.epochs,
		log.PointsKey, m.points,
		log.LossKey, lossN,
		log.LearningRateKey, m.eta,
	)

	if math.IsNaN(lossN) || math.IsInf(lossN, 0) || lossN/n > m.lossBlowUp {
		return m.divergence(fmt.Sprintf("square loss/N/N grew to %g", lossN/n))
	}
	if m.trial && lossN > m.lossCeiling {
		return m.divergence(fmt.Sprintf("square loss/N rose to %g, above %g at zero weights", lossN, m.lossCeiling))
	}

	change := percentChange(lossN, m.lastLoss)
	old := m.lastLoss
	m.lastLoss = lossN
	if withinPercent(m.deltaPercent, change, m.wHatPct) {
		m.converged = true
		m.logger.Info("Loss optimized",
			"old_loss", old,
			log.LossKey, lossN,
			log.LearningRateKey, m.eta,
		)
		return nil
	}
	if !m.trial && m.risingStreak(m.streak) {
		return m.divergence(fmt.Sprintf("square loss grew %d measurements in a row", m.streak))
	}
	return nil
}

// risingStreak reports whether the last k pulse losses are strictly
// increasing.
func (m *LeastSquaresSGD) risingStreak(k int) bool {
	if len(m.vitals) < k {
		return false
	}
	tail := m.vitals[len(m.vitals)-k:]
	for i := 1; i < len(tail); i++ {
		if !(tail[i-1].SquareLossPerN < tail[i].SquareLossPerN) {
			return false
		}
	}
	return true
}

func (m *LeastSquaresSGD) divergence(reason string) error {
	from := max(0, len(m.vitals)-m.streak)
	losses := make([]float64, 0, len(m.vitals)-from)
	for _, v := range m.vitals[from:] {
		losses = append(losses, v.SquareLossPerN)
	}
	return lsqErrors.NewDivergenceError("LeastSquaresSGD", reason, m.steps, m.epochs, losses)
}

// percentChange is (new − old)/old·100, or NaN when old is zero or either
// value is not finite.
func percentChange(newV, oldV float64) float64 {
	if oldV == 0 || !finite(oldV) || !finite(newV) {
		return math.NaN()
	}
	return (newV - oldV) / oldV * 100
}

// withinPercent reports whether every change is defined and at most limit in
// magnitude.
func withinPercent(limit float64, changes ...float64) bool {
	for _, c := range changes {
		if math.IsNaN(c) || math.Abs(c) > limit {
			return false
		}
	}
	return true
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
