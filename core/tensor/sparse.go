package tensor

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/lsqlearn/pkg/errors"
)

// CSC is a read-only compressed sparse column matrix. Column j holds the
// entries ind[indptr[j]:indptr[j+1]] (row indices, strictly increasing) with
// values data[indptr[j]:indptr[j+1]].
//
// CSC implements mat.Matrix so it can be passed anywhere a design matrix is
// accepted; coordinate descent reads it column by column through Design.
type CSC struct {
	rows, cols int
	indptr     []int
	ind        []int
	data       []float64
}

var _ mat.Matrix = (*CSC)(nil)

// NewCSC builds a CSC matrix from raw compressed arrays. The slices are
// used directly, not copied.
func NewCSC(rows, cols int, indptr, ind []int, data []float64) (*CSC, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.NewValueError("NewCSC", "dimensions must be positive")
	}
	if len(indptr) != cols+1 {
		return nil, errors.NewDimensionError("NewCSC", cols+1, len(indptr), 1)
	}
	if len(ind) != len(data) {
		return nil, errors.NewDimensionError("NewCSC", len(ind), len(data), 0)
	}
	if indptr[0] != 0 || indptr[cols] != len(ind) {
		return nil, errors.NewValueError("NewCSC", "indptr must start at 0 and end at nnz")
	}
	for j := 0; j < cols; j++ {
		lo, hi := indptr[j], indptr[j+1]
		if hi < lo {
			return nil, errors.NewValueError("NewCSC", "indptr must be non-decreasing")
		}
		for p := lo; p < hi; p++ {
			if ind[p] < 0 || ind[p] >= rows {
				return nil, errors.NewValueError("NewCSC", "row index out of range")
			}
			if p > lo && ind[p] <= ind[p-1] {
				return nil, errors.NewValueError("NewCSC", "row indices must be strictly increasing within a column")
			}
		}
	}
	return &CSC{rows: rows, cols: cols, indptr: indptr, ind: ind, data: data}, nil
}

// CSCFromDense compresses m, dropping exact zeros.
func CSCFromDense(m mat.Matrix) *CSC {
	r, c := m.Dims()
	indptr := make([]int, c+1)
	var ind []int
	var data []float64
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			if v := m.At(i, j); v != 0 {
				ind = append(ind, i)
				data = append(data, v)
			}
		}
		indptr[j+1] = len(ind)
	}
	return &CSC{rows: r, cols: c, indptr: indptr, ind: ind, data: data}
}

// Dims returns the matrix shape.
func (m *CSC) Dims() (r, c int) { return m.rows, m.cols }

// At returns the element at row i, column j.
func (m *CSC) At(i, j int) float64 {
	if i < 0 || i >= m.rows {
		panic(mat.ErrRowAccess)
	}
	if j < 0 || j >= m.cols {
		panic(mat.ErrColAccess)
	}
	lo, hi := m.indptr[j], m.indptr[j+1]
	p := lo + sort.SearchInts(m.ind[lo:hi], i)
	if p < hi && m.ind[p] == i {
		return m.data[p]
	}
	return 0
}

// T returns the implicit transpose.
func (m *CSC) T() mat.Matrix { return mat.Transpose{Matrix: m} }

// NNZ returns the number of stored entries.
func (m *CSC) NNZ() int { return len(m.data) }

// DoColNonZero calls fn for every stored entry of column j in row order.
func (m *CSC) DoColNonZero(j int, fn func(i int, v float64)) {
	for p := m.indptr[j]; p < m.indptr[j+1]; p++ {
		fn(m.ind[p], m.data[p])
	}
}

// ToDense expands m.
func (m *CSC) ToDense() *mat.Dense {
	out := mat.NewDense(m.rows, m.cols, nil)
	for j := 0; j < m.cols; j++ {
		m.DoColNonZero(j, func(i int, v float64) { out.Set(i, j, v) })
	}
	return out
}

// gatherRows returns the CSC matrix whose row k is row idx[k] of m.
func (m *CSC) gatherRows(idx []int) *CSC {
	where := make([][]int, m.rows)
	for k, i := range idx {
		where[i] = append(where[i], k)
	}
	indptr := make([]int, m.cols+1)
	ind := make([]int, 0, m.NNZ())
	data := make([]float64, 0, m.NNZ())
	type entry struct {
		row int
		v   float64
	}
	var col []entry
	for j := 0; j < m.cols; j++ {
		col = col[:0]
		m.DoColNonZero(j, func(i int, v float64) {
			for _, k := range where[i] {
				col = append(col, entry{k, v})
			}
		})
		sort.Slice(col, func(a, b int) bool { return col[a].row < col[b].row })
		for _, e := range col {
			ind = append(ind, e.row)
			data = append(data, e.v)
		}
		indptr[j+1] = len(ind)
	}
	return &CSC{rows: len(idx), cols: m.cols, indptr: indptr, ind: ind, data: data}
}

// rowBlock expands rows [from, to) into a dense matrix.
func (m *CSC) rowBlock(from, to int) *mat.Dense {
	out := mat.NewDense(to-from, m.cols, nil)
	for j := 0; j < m.cols; j++ {
		lo, hi := m.indptr[j], m.indptr[j+1]
		seg := m.ind[lo:hi]
		p := sort.SearchInts(seg, from)
		for ; p < len(seg) && seg[p] < to; p++ {
			out.Set(seg[p]-from, j, m.data[lo+p])
		}
	}
	return out
}
