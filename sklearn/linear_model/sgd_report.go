package linear_model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/lsqlearn/core/model"
	"github.com/ezoic/lsqlearn/core/tensor"
	"github.com/ezoic/lsqlearn/metrics"
	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
)

// CalcYhat returns φ(X)W (N×C). The kernel is applied in row chunks so the
// full feature matrix never exists at once. A nil X means the training data.
func (m *LeastSquaresSGD) CalcYhat(X mat.Matrix) (*mat.Dense, error) {
	if X == nil {
		X = m.X
	}
	n, d := X.Dims()
	if err := m.state.RequireFeatures("LeastSquaresSGD.CalcYhat", d); err != nil {
		return nil, err
	}
	out := mat.NewDense(n, m.c, nil)
	for from := 0; from < n; from += yhatChunkRows {
		to := min(from+yhatChunkRows, n)
		Phi, err := m.kernel.Transform(tensor.RowRange(X, from, to))
		if err != nil {
			return nil, err
		}
		out.Slice(from, to, 0, m.c).(*mat.Dense).Mul(Phi, m.W)
	}
	return out, nil
}

// Predict returns the arg-max class of each row of X under the current W.
func (m *LeastSquaresSGD) Predict(X mat.Matrix) ([]int, error) {
	yhat, err := m.CalcYhat(X)
	if err != nil {
		return nil, err
	}
	return tensor.ArgmaxRows(yhat), nil
}

// SquareLoss returns Σ(Y − Ŷ)² on the training data.
func (m *LeastSquaresSGD) SquareLoss() (float64, error) {
	yhat, err := m.CalcYhat(nil)
	if err != nil {
		return 0, err
	}
	return metrics.SSEMatrix(m.Y, yhat)
}

// trainingLosses computes Ŷ once and derives both losses from it.
func (m *LeastSquaresSGD) trainingLosses() (float64, int, error) {
	return m.losses(m.X, m.Y)
}

func (m *LeastSquaresSGD) losses(X, Y mat.Matrix) (float64, int, error) {
	yhat, err := m.CalcYhat(X)
	if err != nil {
		return 0, 0, err
	}
	sse, err := metrics.SSEMatrix(Y, yhat)
	if err != nil {
		return 0, 0, err
	}
	wrong, err := metrics.ZeroOneLoss(tensor.ArgmaxRows(Y), tensor.ArgmaxRows(yhat))
	if err != nil {
		return 0, 0, err
	}
	return sse, wrong, nil
}

// Evaluate reports square and 0/1 losses of the current W on (X, Y), with Y
// one-hot. Keys are "(square loss), <name>", "(square loss)/N, <name>",
// "<name> (0/1 loss)" and "<name> (0/1 loss)/N".
func (m *LeastSquaresSGD) Evaluate(X, Y mat.Matrix, dataName string) (model.Row, error) {
	const op = "LeastSquaresSGD.Evaluate"
	n, _ := X.Dims()
	ny, c := Y.Dims()
	if ny != n {
		return nil, lsqErrors.NewDimensionError(op, n, ny, 0)
	}
	if c != m.c {
		return nil, lsqErrors.NewDimensionError(op, m.c, c, 1)
	}
	sse, wrong, err := m.losses(X, Y)
	if err != nil {
		return nil, err
	}
	N := float64(n)
	return model.Row{
		"(square loss), " + dataName:   sse,
		"(square loss)/N, " + dataName: sse / N,
		dataName + " (0/1 loss)":       float64(wrong),
		dataName + " (0/1 loss)/N":     float64(wrong) / N,
	}, nil
}

// ResultsRow reports the training losses together with the learning rates,
// counters and kernel parameters. It transforms the whole training matrix.
func (m *LeastSquaresSGD) ResultsRow() (model.Row, error) {
	row, err := m.Evaluate(m.X, m.Y, "training")
	if err != nil {
		return nil, err
	}
	row["eta0"] = m.eta0
	row["eta"] = m.eta
	row["step"] = float64(m.steps)
	row["epoch"] = float64(m.epochs)
	row["batch size"] = float64(m.batchSize)
	row["points"] = float64(m.points)
	row["converged"] = model.Bool(m.converged)
	return row.Merge(m.kernel.Info()), nil
}

// VitalsRows returns the recorded pulses keyed like ResultsRow.
func (m *LeastSquaresSGD) VitalsRows() []model.Row {
	rows := make([]model.Row, len(m.vitals))
	for i, v := range m.vitals {
		rows[i] = model.Row{
			"step":                      float64(v.Step),
			"epoch":                     float64(v.Epoch),
			"points":                    float64(v.Points),
			"eta":                       v.Eta,
			"(square loss), training":   v.SquareLoss,
			"(square loss)/N, training": v.SquareLossPerN,
			"training (0/1 loss)/N":     v.ZeroOnePerN,
		}
	}
	return rows
}
