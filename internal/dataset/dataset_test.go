package dataset

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestRegressionShapes(t *testing.T) {
	X, y := Regression(20, []float64{1, 2}, 0, rand.New(rand.NewPCG(1, 1)))
	r, c := X.Dims()
	assert.Equal(t, [2]int{20, 2}, [2]int{r, c})

	// noiseless targets are exactly Xβ
	for i := 0; i < 20; i++ {
		assert.InDelta(t, X.At(i, 0)+2*X.At(i, 1), y.AtVec(i), 1e-12)
	}
}

func TestSparseRegressionHasNoEmptyColumns(t *testing.T) {
	X, _ := SparseRegression(10, []float64{1, 1, 1, 1}, 0.01, 0, rand.New(rand.NewPCG(2, 2)))
	d := X.ToDense()
	for j := 0; j < 4; j++ {
		assert.Greater(t, mat.Norm(d.ColView(j), 2), 0.0)
	}
}

func TestBlobsBalanced(t *testing.T) {
	_, labels := Blobs(30, 2, 3, 0.5, rand.New(rand.NewPCG(3, 3)))
	counts := map[int]int{}
	for _, l := range labels {
		counts[l]++
	}
	assert.Equal(t, map[int]int{0: 10, 1: 10, 2: 10}, counts)
}

func TestSplit(t *testing.T) {
	X := mat.NewDense(10, 1, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	Y := mat.NewDense(10, 1, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})

	XTr, YTr, XHo, _, err := Split(X, Y, 0.2)
	require.NoError(t, err)
	r, _ := XTr.Dims()
	assert.Equal(t, 8, r)
	assert.Equal(t, 8.0, XHo.At(0, 0))
	assert.Equal(t, 7.0, YTr.At(7, 0))

	_, _, _, _, err = Split(X, Y, 1.5)
	assert.Error(t, err)
	_, _, _, _, err = Split(X, mat.NewDense(3, 1, nil), 0.2)
	assert.Error(t, err)
}
