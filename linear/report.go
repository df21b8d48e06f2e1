package linear

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/lsqlearn/core/model"
	"github.com/ezoic/lsqlearn/metrics"
)

func regressionRow(truth, pred *mat.VecDense, dataName string) (model.Row, error) {
	sse, err := metrics.SSE(truth, pred)
	if err != nil {
		return nil, err
	}
	mse := sse / float64(truth.Len())
	return model.Row{
		dataName + " SSE":  sse,
		dataName + " MSE":  mse,
		dataName + " RMSE": math.Sqrt(mse),
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}
