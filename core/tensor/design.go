package tensor

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Design gives column-wise access to a design matrix. Coordinate descent
// touches one column at a time, so both dense and sparse inputs are stored
// column-major behind this interface.
type Design interface {
	Dims() (r, c int)
	// ColDot returns x_jᵀv.
	ColDot(j int, v []float64) float64
	// ColSqNorm returns ‖x_j‖².
	ColSqNorm(j int) float64
	// AddScaledCol performs dst += alpha·x_j.
	AddScaledCol(dst []float64, alpha float64, j int)
	// MulVecTo stores Xw in dst.
	MulVecTo(dst, w []float64)
}

// NewDesign wraps X. A *CSC keeps its sparse layout; any other matrix is
// copied into dense columns.
func NewDesign(X mat.Matrix) Design {
	if csc, ok := X.(*CSC); ok {
		return &cscDesign{m: csc}
	}
	r, c := X.Dims()
	cols := make([][]float64, c)
	for j := range cols {
		cols[j] = mat.Col(nil, j, X)
	}
	return &denseDesign{rows: r, cols: cols}
}

type denseDesign struct {
	rows int
	cols [][]float64
}

func (d *denseDesign) Dims() (int, int) { return d.rows, len(d.cols) }

func (d *denseDesign) ColDot(j int, v []float64) float64 { return floats.Dot(d.cols[j], v) }

func (d *denseDesign) ColSqNorm(j int) float64 { return floats.Dot(d.cols[j], d.cols[j]) }

func (d *denseDesign) AddScaledCol(dst []float64, alpha float64, j int) {
	floats.AddScaled(dst, alpha, d.cols[j])
}

func (d *denseDesign) MulVecTo(dst, w []float64) {
	for i := range dst {
		dst[i] = 0
	}
	for j, col := range d.cols {
		if w[j] != 0 {
			floats.AddScaled(dst, w[j], col)
		}
	}
}

type cscDesign struct {
	m *CSC
}

func (d *cscDesign) Dims() (int, int) { return d.m.Dims() }

func (d *cscDesign) ColDot(j int, v []float64) float64 {
	var s float64
	for p := d.m.indptr[j]; p < d.m.indptr[j+1]; p++ {
		s += d.m.data[p] * v[d.m.ind[p]]
	}
	return s
}

func (d *cscDesign) ColSqNorm(j int) float64 {
	return floats.Dot(d.m.data[d.m.indptr[j]:d.m.indptr[j+1]], d.m.data[d.m.indptr[j]:d.m.indptr[j+1]])
}

func (d *cscDesign) AddScaledCol(dst []float64, alpha float64, j int) {
	for p := d.m.indptr[j]; p < d.m.indptr[j+1]; p++ {
		dst[d.m.ind[p]] += alpha * d.m.data[p]
	}
}

func (d *cscDesign) MulVecTo(dst, w []float64) {
	for i := range dst {
		dst[i] = 0
	}
	for j := 0; j < d.m.cols; j++ {
		if w[j] != 0 {
			d.AddScaledCol(dst, w[j], j)
		}
	}
}
