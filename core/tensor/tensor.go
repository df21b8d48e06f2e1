// Package tensor holds the matrix plumbing shared by the solvers: a sparse
// column-compressed matrix, column-wise design access, and row gathering,
// shuffling and reduction helpers that work on both dense and sparse input.
package tensor

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/lsqlearn/pkg/errors"
)

// GatherRows returns the matrix whose row k is row idx[k] of X. Sparse input
// stays sparse.
func GatherRows(X mat.Matrix, idx []int) mat.Matrix {
	if csc, ok := X.(*CSC); ok {
		return csc.gatherRows(idx)
	}
	_, c := X.Dims()
	out := mat.NewDense(len(idx), c, nil)
	if d, ok := X.(*mat.Dense); ok {
		for k, i := range idx {
			out.SetRow(k, d.RawRowView(i))
		}
		return out
	}
	row := make([]float64, c)
	for k, i := range idx {
		mat.Row(row, i, X)
		out.SetRow(k, row)
	}
	return out
}

// ShuffleRows applies one random permutation to the rows of X and Y. The
// permutation is drawn from rng, so equal seeds give equal orders.
func ShuffleRows(X mat.Matrix, Y mat.Matrix, rng *rand.Rand) (mat.Matrix, *mat.Dense, error) {
	n, _ := X.Dims()
	ny, _ := Y.Dims()
	if n != ny {
		return nil, nil, errors.NewDimensionError("ShuffleRows", n, ny, 0)
	}
	perm := rng.Perm(n)
	return GatherRows(X, perm), AsDense(GatherRows(Y, perm)), nil
}

// RowRange returns rows [from, to) of X as a dense matrix. For *mat.Dense the
// result is a view sharing storage with X.
func RowRange(X mat.Matrix, from, to int) *mat.Dense {
	switch m := X.(type) {
	case *mat.Dense:
		_, c := m.Dims()
		return m.Slice(from, to, 0, c).(*mat.Dense)
	case *CSC:
		return m.rowBlock(from, to)
	default:
		_, c := X.Dims()
		out := mat.NewDense(to-from, c, nil)
		for i := from; i < to; i++ {
			for j := 0; j < c; j++ {
				out.Set(i-from, j, X.At(i, j))
			}
		}
		return out
	}
}

// AsDense returns X itself when it is a *mat.Dense and a dense copy otherwise.
func AsDense(X mat.Matrix) *mat.Dense {
	switch m := X.(type) {
	case *mat.Dense:
		return m
	case *CSC:
		return m.ToDense()
	default:
		return mat.DenseCopyOf(X)
	}
}

// ArgmaxRows returns, for each row of M, the column index of its largest
// entry. Ties resolve to the lowest index.
func ArgmaxRows(M mat.Matrix) []int {
	r, c := M.Dims()
	out := make([]int, r)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, M)
		out[i] = floats.MaxIdx(row)
	}
	return out
}

// Flatten returns the entries of M in row-major order.
func Flatten(M mat.Matrix) []float64 {
	r, c := M.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, M.At(i, j))
		}
	}
	return out
}

// PopVariance is the population variance (divisor n) of every entry of M.
func PopVariance(M mat.Matrix) float64 {
	return stat.PopVariance(Flatten(M), nil)
}

// SumSquares returns Σ m_ij².
func SumSquares(M mat.Matrix) float64 {
	v := Flatten(M)
	return floats.Dot(v, v)
}

// SquaredDiff returns Σ (a_ij − b_ij)². A and B must have equal shapes.
func SquaredDiff(A, B mat.Matrix) (float64, error) {
	ra, ca := A.Dims()
	rb, cb := B.Dims()
	if ra != rb {
		return 0, errors.NewDimensionError("SquaredDiff", ra, rb, 0)
	}
	if ca != cb {
		return 0, errors.NewDimensionError("SquaredDiff", ca, cb, 1)
	}
	var diff mat.Dense
	diff.Sub(A, B)
	return SumSquares(&diff), nil
}
