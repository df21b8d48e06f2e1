package linear_model

import (
	"io"
	"math"

	"github.com/avast/retry-go"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/lsqlearn/core/model"
	"github.com/ezoic/lsqlearn/core/tensor"
	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
	"github.com/ezoic/lsqlearn/pkg/log"
)

var errFirstRateDiverged = lsqErrors.New("first learning rate tried already diverges")

// FindLearningRate calibrates η0 on a random subsample of at most the search
// point budget. Starting from start/N it multiplies the rate by 5 and runs a
// short trial from zero weights until a trial diverges, then commits the last
// rate that did not. When the very first rate diverges the seed is cut 100×
// and the search restarts, a bounded number of times.
//
// This is a calibration heuristic. The committed rate is not guaranteed to
// converge on the full data.
func (m *LeastSquaresSGD) FindLearningRate() (err error) {
	const op = "LeastSquaresSGD.FindLearningRate"
	defer lsqErrors.Recover(&err, op)
	m.phase = PhaseSearching

	nSub := min(m.searchPoints, m.n)
	idx := m.rng.Perm(m.n)[:nSub]
	Xs := tensor.GatherRows(m.X, idx)
	Ys := tensor.AsDense(tensor.GatherRows(m.Y, idx))

	start := m.searchStart
	m.logger.Info("Learning rate search started",
		log.OperationKey, log.OperationSearch,
		log.SamplesKey, nSub,
		log.LearningRateKey, start/float64(m.n),
	)

	var eta float64
	err = retry.Do(
		func() error {
			var serr error
			eta, serr = m.searchFrom(start, Xs, Ys)
			return serr
		},
		retry.Attempts(searchMaxRestarts),
		retry.Delay(0),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return lsqErrors.Is(err, errFirstRateDiverged) }),
		retry.OnRetry(func(n uint, _ error) {
			start /= searchShrink
			m.logger.Info("First learning rate diverged; restarting 100x lower",
				"restart", n+1,
				log.LearningRateKey, start/float64(m.n),
			)
		}),
	)
	if err != nil {
		if lsqErrors.Is(err, lsqErrors.ErrDiverged) {
			m.phase = PhaseDiverged
			return lsqErrors.Wrapf(err, "%s: every seed rate diverged", op)
		}
		return lsqErrors.Wrap(err, op)
	}

	m.eta0, m.eta = eta, eta
	m.logger.Info("Learning rate search completed",
		log.OperationKey, log.OperationSearch,
		log.LearningRateKey, eta,
	)
	return nil
}

// searchFrom grows the rate from start/N until a trial diverges.
func (m *LeastSquaresSGD) searchFrom(start float64, X mat.Matrix, Y *mat.Dense) (float64, error) {
	eta := start / float64(m.n) / searchGrowth
	for tried := 1; tried <= searchMaxRates; tried++ {
		eta *= searchGrowth
		m.logger.Debug("Trying learning rate", log.LearningRateKey, eta)

		err := m.trialRun(X, Y, eta)
		if err == nil {
			continue
		}
		if !lsqErrors.Is(err, lsqErrors.ErrDiverged) {
			return 0, err
		}
		if tried == 1 {
			return 0, lsqErrors.Mark(err, errFirstRateDiverged)
		}
		m.logger.Debug("Learning rate diverged", log.LearningRateKey, eta, "rates_tried", tried)
		return eta / searchGrowth, nil
	}
	m.logger.Warn("Learning rate search reached its cap without diverging", log.LearningRateKey, eta)
	return eta, nil
}

// trialRun trains a silent copy sharing the kernel and random source on
// (X, Y) with rate eta.
func (m *LeastSquaresSGD) trialRun(X mat.Matrix, Y *mat.Dense, eta float64) error {
	n, d := X.Dims()
	t := &LeastSquaresSGD{
		state:        model.NewStateManager(),
		X:            X,
		Y:            Y,
		n:            n,
		c:            m.c,
		kernel:       m.kernel,
		eta0:         eta,
		eta:          eta,
		fixedEta:     true,
		maxEpochs:    m.searchEpochs,
		batchSize:    m.batchSize,
		monitorFreq:  n,
		deltaPercent: m.deltaPercent,
		streak:       m.streak,
		lossBlowUp:   m.lossBlowUp,
		W:            mat.NewDense(m.kernel.Dim(), m.c, nil),
		epochs:       1,
		started:      true,
		wHatVar:      math.NaN(),
		wHatPct:      math.NaN(),
		lastLoss:     math.NaN(),
		trial:        true,
		rng:          m.rng,
		progress:     io.Discard,
		logger:       log.Nop(),
	}
	t.state.SetDimensions(d, n)
	// W starts at zero, so Ŷ = 0 and the starting loss is ‖Y‖²/N
	t.lossCeiling = math.Pow(mat.Norm(Y, 2), 2) / float64(n)
	return t.train(false)
}
