package linear_model

import (
	"io"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/lsqlearn/kernel"
	"github.com/ezoic/lsqlearn/metrics"
	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
	"github.com/ezoic/lsqlearn/pkg/log"
	"github.com/ezoic/lsqlearn/preprocessing"
)

// classData draws n rows in 3 dimensions; class c sits around 3·e_c, so the
// second moment of X is close to 4·I for spread 1.
func classData(t testing.TB, n int, spread float64, seed uint64) (*mat.Dense, *mat.Dense, []int) {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed))
	X := mat.NewDense(n, 3, nil)
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		c := i % 3
		labels[i] = c
		for j := 0; j < 3; j++ {
			v := spread * rng.NormFloat64()
			if j == c {
				v += 3
			}
			X.Set(i, j, v)
		}
	}
	Y, err := preprocessing.NewLabelBinarizer().FitTransform(labels)
	require.NoError(t, err)
	return X, Y, labels
}

func sgdOpts(extra ...SGDOption) []SGDOption {
	return append([]SGDOption{
		WithSGDLogger(log.Nop()),
		WithProgressWriter(io.Discard),
		WithRandomState(7),
	}, extra...)
}

func captureWarnings(t *testing.T) *[]error {
	t.Helper()
	var got []error
	prev := lsqErrors.SetWarningHandler(func(w error) { got = append(got, w) })
	t.Cleanup(func() { lsqErrors.SetWarningHandler(prev) })
	return &got
}

func TestLeastSquaresSGD_FindLearningRate(t *testing.T) {
	X, Y, _ := classData(t, 300, 1, 1)
	m, err := NewLeastSquaresSGD(X, Y, sgdOpts()...)
	require.NoError(t, err)
	require.NoError(t, m.FindLearningRate())

	// 1000/N and 5·1000/N are stable, 25·1000/N overshoots every direction
	assert.InDelta(t, 5*1000.0/300, m.Eta0(), 1e-9)
	assert.Equal(t, m.Eta0(), m.Eta())
	assert.Equal(t, 0, m.Steps(), "the search must not touch the model")
	assert.Equal(t, 0.0, mat.Sum(m.GetWeights()))
}

func TestLeastSquaresSGD_TenfoldRateDiverges(t *testing.T) {
	X, Y, _ := classData(t, 300, 1, 2)
	searched, err := NewLeastSquaresSGD(X, Y, sgdOpts()...)
	require.NoError(t, err)
	require.NoError(t, searched.FindLearningRate())
	assert.InDelta(t, 5*1000.0/300, searched.Eta0(), 1e-9)

	m, err := NewLeastSquaresSGD(X, Y, sgdOpts(
		WithEta0(10*searched.Eta0()),
		WithMonitoringFreq(100),
		WithMaxEpochs(50),
	)...)
	require.NoError(t, err)

	err = m.Run()
	require.Error(t, err)
	assert.True(t, lsqErrors.Is(err, lsqErrors.ErrDiverged))
	var derr *lsqErrors.DivergenceError
	require.True(t, lsqErrors.As(err, &derr))
	assert.NotEmpty(t, derr.Losses)
	assert.Equal(t, PhaseDiverged, m.Phase())
	assert.LessOrEqual(t, len(m.Vitals()), 20)

	err = m.RunLonger(5)
	assert.True(t, lsqErrors.Is(err, lsqErrors.ErrDiverged))
}

func TestLeastSquaresSGD_TrialVerdictIsMonotone(t *testing.T) {
	X, Y, _ := classData(t, 300, 1, 2)
	m, err := NewLeastSquaresSGD(X, Y, sgdOpts()...)
	require.NoError(t, err)

	// the rate limit for batch 100 is 2·100/4 = 50 on this data
	tests := []struct {
		eta      float64
		diverges bool
	}{
		{1000.0 / 300, false},
		{5 * 1000.0 / 300, false},
		{33, false},
		{25 * 1000.0 / 300, true},
		{125 * 1000.0 / 300, true},
	}
	for _, tt := range tests {
		for run := 0; run < 3; run++ {
			err := m.trialRun(X, Y, tt.eta)
			if tt.diverges {
				assert.True(t, lsqErrors.Is(err, lsqErrors.ErrDiverged), "eta %g run %d", tt.eta, run)
			} else {
				assert.NoError(t, err, "eta %g run %d", tt.eta, run)
			}
		}
	}
}

func TestLeastSquaresSGD_EtaDecayCountsPoints(t *testing.T) {
	captureWarnings(t)
	X, Y, _ := classData(t, 250, 1, 12)
	m, err := NewLeastSquaresSGD(X, Y, sgdOpts(
		WithEta0(0.5),
		WithBatchSize(100),
		WithMonitoringFreq(100),
		WithDeltaPercent(1e-9),
		WithMaxEpochs(3),
	)...)
	require.NoError(t, err)
	require.NoError(t, m.Run())

	assert.Equal(t, 6, m.Steps())
	assert.Equal(t, 500, m.Points())
	assert.InDelta(t, 0.5/math.Sqrt(3), m.Eta(), 1e-12)
}

func TestLeastSquaresSGD_SearchGivesUp(t *testing.T) {
	X, Y, _ := classData(t, 60, 1, 3)
	m, err := NewLeastSquaresSGD(X, Y, sgdOpts(WithLossBlowUp(1e-12))...)
	require.NoError(t, err)

	err = m.Run()
	require.Error(t, err)
	assert.True(t, lsqErrors.Is(err, lsqErrors.ErrDiverged))
	assert.Equal(t, PhaseDiverged, m.Phase())
	assert.Equal(t, 0, m.Steps())
}

func TestLeastSquaresSGD_SearchRestartsLower(t *testing.T) {
	X, Y, _ := classData(t, 300, 1, 4)
	m, err := NewLeastSquaresSGD(X, Y, sgdOpts(WithEta0SearchStart(1e6))...)
	require.NoError(t, err)
	require.NoError(t, m.FindLearningRate())
	assert.Less(t, m.Eta0(), 1e6/300)
	assert.Greater(t, m.Eta0(), 0.0)
}

func TestLeastSquaresSGD_Deterministic(t *testing.T) {
	X, Y, _ := classData(t, 300, 1, 5)

	tests := []struct {
		name string
		opts []SGDOption
	}{
		{"search and linear kernel", nil},
		{"fixed rate and rbf kernel", []SGDOption{
			WithEta0(1),
			WithKernel(kernel.RBFFactory(kernel.WithCenters(20))),
		}},
		{"fourier kernel", []SGDOption{
			WithEta0(1),
			WithKernel(kernel.FourierFactory(kernel.WithComponents(20))),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureWarnings(t)
			run := func() (*mat.Dense, float64, []Vitals) {
				m, err := NewLeastSquaresSGD(X, Y, sgdOpts(append(tt.opts, WithMaxEpochs(4))...)...)
				require.NoError(t, err)
				_ = m.Run()
				return m.GetWeights(), m.Eta0(), m.Vitals()
			}
			w1, eta1, v1 := run()
			w2, eta2, v2 := run()
			assert.True(t, mat.Equal(w1, w2), "weights differ")
			assert.Equal(t, eta1, eta2)
			require.Equal(t, len(v1), len(v2))
			for i := range v1 {
				assert.Equal(t, v1[i].SquareLoss, v2[i].SquareLoss)
			}
		})
	}
}

func TestLeastSquaresSGD_FullBatchLossDecreases(t *testing.T) {
	captureWarnings(t)
	X, Y, _ := classData(t, 300, 1, 6)
	m, err := NewLeastSquaresSGD(X, Y, sgdOpts(
		WithEta0(30),
		WithBatchSize(300),
		WithMonitoringFreq(300),
		WithMaxEpochs(30),
	)...)
	require.NoError(t, err)
	require.NoError(t, m.Run())

	vitals := m.Vitals()
	require.GreaterOrEqual(t, len(vitals), 5)
	for i := 1; i < len(vitals); i++ {
		assert.Less(t, vitals[i].SquareLossPerN, vitals[i-1].SquareLossPerN, "pulse %d", i)
	}
}

func TestLeastSquaresSGD_Converges(t *testing.T) {
	warnings := captureWarnings(t)
	X, Y, labels := classData(t, 300, 1, 8)
	m, err := NewLeastSquaresSGD(X, Y, sgdOpts(
		WithEta0(10),
		WithMonitoringFreq(300),
		WithDeltaPercent(1),
		WithDivergenceStreak(50),
		WithMaxEpochs(500),
	)...)
	require.NoError(t, err)
	require.NoError(t, m.Run())

	assert.True(t, m.Converged())
	assert.Equal(t, PhaseConverged, m.Phase())
	assert.Empty(t, *warnings)
	assert.Less(t, m.Epochs(), 500)
	assert.True(t, m.IsFitted())

	pred, err := m.Predict(X)
	require.NoError(t, err)
	acc, err := metrics.Accuracy(labels, pred)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, acc, 0.8)

	hist := m.WHatHistory()
	require.NotEmpty(t, hist)
	assert.True(t, math.IsNaN(hist[0].PercentChange))
}

func TestLeastSquaresSGD_RunLongerKeepsCounters(t *testing.T) {
	warnings := captureWarnings(t)
	X, Y, _ := classData(t, 300, 1, 9)
	m, err := NewLeastSquaresSGD(X, Y, sgdOpts(
		WithEta0(10),
		WithMonitoringFreq(300),
		WithDeltaPercent(1e-9),
		WithMaxEpochs(3),
	)...)
	require.NoError(t, err)

	assert.True(t, lsqErrors.Is(m.RunLonger(1), lsqErrors.ErrNotFitted))
	require.NoError(t, m.Run())
	assert.Equal(t, PhaseMaxEpochsReached, m.Phase())
	assert.Equal(t, 6, m.Steps())
	assert.Equal(t, 3, m.Epochs())
	assert.Equal(t, 600, m.Points())
	require.Len(t, *warnings, 1)
	assert.True(t, lsqErrors.Is((*warnings)[0], lsqErrors.ErrNotConverged))
	assert.Len(t, m.Vitals(), 6)
	assert.Len(t, m.WHatHistory(), 2)

	require.NoError(t, m.RunLonger(2, WithFastSteps(6)))
	assert.Equal(t, 12, m.Steps())
	assert.Equal(t, 5, m.Epochs())
	assert.Equal(t, 5, m.MaxEpochs())
	assert.Equal(t, 1200, m.Points())
	assert.InDelta(t, 10/math.Sqrt(3), m.Eta(), 1e-12)
	// resumed first batch pulses and refreshes ŵ, then steps 7-9 pulse early
	assert.Len(t, m.Vitals(), 10)
	assert.Len(t, m.WHatHistory(), 5)
	assert.Len(t, *warnings, 2)

	assert.Error(t, m.Run(), "Run twice")
	err = m.RunLonger(0, WithMonitoringFreqOverride(150), WithStreakOverride(1))
	require.Error(t, err)
	assert.True(t, lsqErrors.Is(err, lsqErrors.ErrInvalidConfig))
	assert.Contains(t, err.Error(), "3 configuration error(s)")
}

func TestNewLeastSquaresSGD_Errors(t *testing.T) {
	X, Y, _ := classData(t, 30, 1, 10)

	_, err := NewLeastSquaresSGD(X, Y, sgdOpts(
		WithBatchSize(30),
		WithMonitoringFreq(100),
		WithDeltaPercent(-1),
		WithDivergenceStreak(1),
		WithEta0(math.Inf(1)),
	)...)
	require.Error(t, err)
	assert.True(t, lsqErrors.Is(err, lsqErrors.ErrInvalidConfig))
	for _, param := range []string{"progress_monitoring_freq", "delta_percent", "max_divergence_streak_length", "eta0"} {
		assert.Contains(t, err.Error(), param)
	}

	_, err = NewLeastSquaresSGD(X, mat.NewDense(10, 3, nil), sgdOpts()...)
	assert.True(t, lsqErrors.Is(err, lsqErrors.ErrDimensionMismatch))

	_, err = NewLeastSquaresSGD(&mat.Dense{}, &mat.Dense{}, sgdOpts()...)
	assert.True(t, lsqErrors.Is(err, lsqErrors.ErrEmptyData))

	_, err = NewLeastSquaresSGD(X, Y, sgdOpts(WithSGDInitialWeights(mat.NewDense(2, 3, nil)))...)
	assert.True(t, lsqErrors.Is(err, lsqErrors.ErrInvalidConfig))
	assert.True(t, lsqErrors.Is(err, lsqErrors.ErrDimensionMismatch))
}

func TestLeastSquaresSGD_ReportsAndWeights(t *testing.T) {
	captureWarnings(t)
	X, Y, _ := classData(t, 90, 1, 11)
	W0 := mat.NewDense(3, 3, []float64{
		0.3, 0, 0,
		0, 0.3, 0,
		0, 0, 0.3,
	})
	m, err := NewLeastSquaresSGD(X, Y, sgdOpts(WithEta0(5), WithMaxEpochs(3), WithSGDInitialWeights(W0))...)
	require.NoError(t, err)
	assert.True(t, mat.Equal(W0, m.GetWeights()))
	require.NoError(t, m.Run())

	row, err := m.ResultsRow()
	require.NoError(t, err)
	for _, k := range []string{"eta0", "eta", "(square loss), training", "(square loss)/N, training",
		"training (0/1 loss)/N", "step", "epoch", "batch size", "points", "kernel dim"} {
		assert.Contains(t, row, k)
	}
	assert.InDelta(t, row["(square loss), training"]/90, row["(square loss)/N, training"], 1e-12)
	assert.Equal(t, 3.0, row["kernel dim"])

	sq, err := m.SquareLoss()
	require.NoError(t, err)
	assert.Equal(t, row["(square loss), training"], sq)

	rows := m.VitalsRows()
	require.Len(t, rows, len(m.Vitals()))
	assert.Equal(t, m.Vitals()[0].SquareLossPerN, rows[0]["(square loss)/N, training"])

	val, err := m.Evaluate(X, Y, "validation")
	require.NoError(t, err)
	assert.Equal(t, row["training (0/1 loss)/N"], val["validation (0/1 loss)/N"])

	_, err = m.Evaluate(X, mat.NewDense(90, 2, nil), "validation")
	assert.True(t, lsqErrors.Is(err, lsqErrors.ErrDimensionMismatch))
	_, err = m.Predict(mat.NewDense(2, 5, nil))
	assert.True(t, lsqErrors.Is(err, lsqErrors.ErrDimensionMismatch))

	assert.Error(t, m.SetWeights(mat.NewDense(3, 2, nil)))
}

func TestLeastSquaresSGD_CalcYhatChunks(t *testing.T) {
	rng := rand.New(rand.NewPCG(12, 12))
	X := mat.NewDense(2500, 4, nil)
	X.Apply(func(_, _ int, _ float64) float64 { return rng.NormFloat64() }, X)
	Y := mat.NewDense(2500, 2, nil)
	for i := 0; i < 2500; i++ {
		Y.Set(i, i%2, 1)
	}
	m, err := NewLeastSquaresSGD(X, Y, sgdOpts(WithEta0(1))...)
	require.NoError(t, err)

	W := mat.NewDense(4, 2, []float64{1, -1, 0.5, 2, -3, 0, 0.25, 1})
	require.NoError(t, m.SetWeights(W))

	got, err := m.CalcYhat(nil)
	require.NoError(t, err)
	var want mat.Dense
	want.Mul(X, W)
	assert.True(t, mat.EqualApprox(got, &want, 1e-12))
}

func TestPercentChangeGuard(t *testing.T) {
	tests := []struct {
		name     string
		new, old float64
		want     float64
	}{
		{"plain", 110, 100, 10},
		{"decrease", 50, 100, -50},
		{"zero baseline", 1, 0, math.NaN()},
		{"nan baseline", 1, math.NaN(), math.NaN()},
		{"infinite value", math.Inf(1), 1, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := percentChange(tt.new, tt.old)
			if math.IsNaN(tt.want) {
				assert.True(t, math.IsNaN(got), "got %v", got)
				return
			}
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	assert.False(t, withinPercent(0.01, math.NaN()))
	assert.False(t, withinPercent(1, 0.5, 2))
	assert.True(t, withinPercent(1, 0.5, -0.5))
}
