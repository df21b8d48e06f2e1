// Package sweep trains one model per hyperparameter configuration and keeps
// the one that scores best on held-out data.
//
// An Explorer owns the train/validation split. Every TrainModel call builds a
// model through the Factory, warm-starts it from the best weights seen so far,
// runs it and appends one summary row combining the training report, the
// configuration and the validation score:
//
//	ex, err := sweep.NewExplorer(X, y, lassoFactory, "training RMSE")
//	for _, lam := range lambdas {
//		if _, err := ex.TrainModel(sweep.Params{"lambda": lam}); err != nil {
//			return err
//		}
//	}
//	best, err := ex.BestModel()
package sweep

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/lsqlearn/core/model"
	"github.com/ezoic/lsqlearn/internal/dataset"
	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
	"github.com/ezoic/lsqlearn/pkg/log"
)

// ModelNumberKey is the summary column holding the 1-based model index.
const ModelNumberKey = "model number"

const defaultValidationSplit = 0.2

// Params is one hyperparameter configuration. Its entries are copied into the
// summary row of the model trained with it.
type Params map[string]float64

// Factory builds an untrained model for p on the training split.
type Factory func(p Params, X, Y mat.Matrix) (model.Trainable, error)

// Explorer runs a hyperparameter sweep. It is not safe for concurrent use.
type Explorer struct {
	XTrain, YTrain mat.Matrix
	XVal, YVal     mat.Matrix
	XTest, YTest   mat.Matrix

	factory             Factory
	scoreName           string
	validationScoreName string
	validationSplit     float64
	warmStart           bool

	models  map[int]model.Trainable
	summary []model.Row
	logger  log.Logger
}

// ExplorerOption configures an Explorer.
type ExplorerOption func(*Explorer)

// WithValidationSplit sets the share of trailing rows held out for
// validation (default 0.2).
func WithValidationSplit(f float64) ExplorerOption {
	return func(e *Explorer) { e.validationSplit = f }
}

// WithTestData attaches the data EvaluateTest scores the best model on.
func WithTestData(X, Y mat.Matrix) ExplorerOption {
	return func(e *Explorer) { e.XTest, e.YTest = X, Y }
}

// WithWarmStart controls whether each new model starts from the best
// weights found so far (default true).
func WithWarmStart(on bool) ExplorerOption {
	return func(e *Explorer) { e.warmStart = on }
}

// WithExplorerLogger replaces the default "sweep" logger.
func WithExplorerLogger(logger log.Logger) ExplorerOption {
	return func(e *Explorer) { e.logger = logger }
}

// NewExplorer splits (X, Y) into training and validation rows and prepares
// an empty summary. scoreName must name a training metric reported by the
// models' ResultsRow, e.g. "training RMSE"; the matching validation metric
// ("validation RMSE") decides which model is best.
func NewExplorer(X, Y mat.Matrix, factory Factory, scoreName string, opts ...ExplorerOption) (*Explorer, error) {
	const op = "NewExplorer"
	e := &Explorer{
		factory:         factory,
		scoreName:       scoreName,
		validationSplit: defaultValidationSplit,
		warmStart:       true,
		models:          make(map[int]model.Trainable),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.GetLoggerWithName("sweep")
	}

	cerr := lsqErrors.NewConfigErrors(op)
	cerr.Check(factory != nil, "factory", "must not be nil", nil)
	cerr.Check(strings.Contains(scoreName, "training"), "score_name", `must name a "training" metric`, scoreName)
	cerr.Check((e.XTest == nil) == (e.YTest == nil), "test_data", "X and Y must be given together", nil)
	if err := cerr.Err(); err != nil {
		return nil, err
	}
	e.validationScoreName = strings.Replace(scoreName, "training", "validation", 1)

	var err error
	e.XTrain, e.YTrain, e.XVal, e.YVal, err = dataset.Split(X, Y, e.validationSplit)
	if err != nil {
		return nil, lsqErrors.Wrap(err, op)
	}
	n, _ := X.Dims()
	nVal, _ := e.XVal.Dims()
	e.logger.Info("Reserved validation rows",
		"validation", nVal,
		log.SamplesKey, n,
	)
	return e, nil
}

// ScoreName returns the training metric name the explorer was built with.
func (e *Explorer) ScoreName() string { return e.scoreName }

// ValidationScoreName returns the metric that ranks models.
func (e *Explorer) ValidationScoreName() string { return e.validationScoreName }

// NumModels returns how many models have been trained.
func (e *Explorer) NumModels() int { return len(e.summary) }

// TrainModel builds, warm-starts, runs and scores one model and appends its
// row to the summary. The returned row is a copy.
//
// A warm start that the model rejects, for example because the feature
// dimension changed with the configuration, is logged and skipped. Failures
// to build, run or score the model are returned and leave the summary
// unchanged.
func (e *Explorer) TrainModel(p Params) (model.Row, error) {
	const op = "Explorer.TrainModel"
	m, err := e.factory(p, e.XTrain, e.YTrain)
	if err != nil {
		return nil, lsqErrors.Wrapf(err, "%s: build model for %v", op, p)
	}

	if e.warmStart && len(e.summary) > 0 {
		W, err := e.BestWeights()
		if err == nil {
			err = m.SetWeights(W)
		}
		if err != nil {
			e.logger.Warn("Warm start skipped", "error", err.Error())
		}
	}

	if err := m.Run(); err != nil {
		return nil, lsqErrors.Wrapf(err, "%s: run model for %v", op, p)
	}
	row, err := m.ResultsRow()
	if err != nil {
		return nil, lsqErrors.Wrap(err, op)
	}
	if _, ok := row[e.scoreName]; !ok {
		return nil, lsqErrors.NewValueError(op, fmt.Sprintf("results row has no %q", e.scoreName))
	}
	val, err := m.Evaluate(e.XVal, e.YVal, "validation")
	if err != nil {
		return nil, lsqErrors.Wrap(err, op)
	}
	score, ok := val[e.validationScoreName]
	if !ok {
		return nil, lsqErrors.NewValueError(op, fmt.Sprintf("validation report has no %q", e.validationScoreName))
	}

	number := len(e.summary) + 1
	for k, v := range p {
		row[k] = v
	}
	row[ModelNumberKey] = float64(number)
	row[e.validationScoreName] = score

	e.models[number] = m
	e.summary = append(e.summary, row)
	e.logger.Info("Model trained",
		log.ModelNumberKey, number,
		log.ScoreKey, score,
		"training_score", row[e.scoreName],
	)
	return row.Clone(), nil
}

// Summary returns a copy of every row in training order.
func (e *Explorer) Summary() []model.Row {
	out := make([]model.Row, len(e.summary))
	for i, r := range e.summary {
		out[i] = r.Clone()
	}
	return out
}

// bestIndex returns the summary index with the lowest validation score. Ties
// keep the earlier model and NaN scores never win.
func (e *Explorer) bestIndex() (int, error) {
	if len(e.summary) == 0 {
		return 0, lsqErrors.NewModelError("Explorer.Best", "no model trained yet", lsqErrors.ErrEmptyData)
	}
	best := -1
	for i, r := range e.summary {
		s := r[e.validationScoreName]
		if math.IsNaN(s) {
			continue
		}
		if best < 0 || s < e.summary[best][e.validationScoreName] {
			best = i
		}
	}
	if best < 0 {
		return 0, lsqErrors.NewModelError("Explorer.Best", "every validation score is NaN", lsqErrors.ErrNumericalInstability)
	}
	return best, nil
}

// Best returns one attribute of the best model so far: "model number" (int),
// "summary" (model.Row), "score" (float64), "model" (model.Trainable) or
// "weights" (*mat.Dense).
func (e *Explorer) Best(attr string) (interface{}, error) {
	i, err := e.bestIndex()
	if err != nil {
		return nil, err
	}
	number := i + 1
	switch attr {
	case ModelNumberKey:
		return number, nil
	case "summary":
		return e.summary[i].Clone(), nil
	case "score":
		return e.summary[i][e.validationScoreName], nil
	case "model":
		return e.models[number], nil
	case "weights":
		return e.models[number].GetWeights(), nil
	}
	return nil, lsqErrors.NewValueError("Explorer.Best", fmt.Sprintf("unknown attribute %q", attr))
}

// BestModelNumber returns the 1-based index of the best model.
func (e *Explorer) BestModelNumber() (int, error) {
	i, err := e.bestIndex()
	if err != nil {
		return 0, err
	}
	return i + 1, nil
}

// BestScore returns the lowest validation score.
func (e *Explorer) BestScore() (float64, error) {
	i, err := e.bestIndex()
	if err != nil {
		return math.NaN(), err
	}
	return e.summary[i][e.validationScoreName], nil
}

// BestModel returns the best model.
func (e *Explorer) BestModel() (model.Trainable, error) {
	i, err := e.bestIndex()
	if err != nil {
		return nil, err
	}
	return e.models[i+1], nil
}

// BestWeights returns a copy of the best model's weights.
func (e *Explorer) BestWeights() (*mat.Dense, error) {
	m, err := e.BestModel()
	if err != nil {
		return nil, err
	}
	return m.GetWeights(), nil
}

// BestSummary returns a copy of the best model's summary row.
func (e *Explorer) BestSummary() (model.Row, error) {
	i, err := e.bestIndex()
	if err != nil {
		return nil, err
	}
	return e.summary[i].Clone(), nil
}

// EvaluateTest scores the best model on the test data given with
// WithTestData. Metric names carry "test" in place of "training".
func (e *Explorer) EvaluateTest() (model.Row, error) {
	const op = "Explorer.EvaluateTest"
	if e.XTest == nil {
		return nil, lsqErrors.NewModelError(op, "no test data; use WithTestData", lsqErrors.ErrEmptyData)
	}
	m, err := e.BestModel()
	if err != nil {
		return nil, err
	}
	number, _ := e.BestModelNumber()
	row, err := m.Evaluate(e.XTest, e.YTest, "test")
	if err != nil {
		return nil, lsqErrors.Wrap(err, op)
	}
	row[ModelNumberKey] = float64(number)
	e.logger.Info("Best model scored on test data", log.ModelNumberKey, number)
	return row, nil
}
