package preprocessing

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/lsqlearn/core/model"
	"github.com/ezoic/lsqlearn/core/tensor"
	lsqErrors "github.com/ezoic/lsqlearn/pkg/errors"
)

// LabelBinarizer maps integer class labels to one-hot rows. Column k stands
// for the k-th smallest label seen by Fit.
type LabelBinarizer struct {
	state   *model.StateManager
	classes []int
	index   map[int]int
}

// NewLabelBinarizer creates an unfitted LabelBinarizer.
//
// Example:
//
//	lb := preprocessing.NewLabelBinarizer()
//	Y, err := lb.FitTransform([]int{3, 1, 3, 2})
//	// Y rows: [0 0 1] [1 0 0] [0 0 1] [0 1 0]
func NewLabelBinarizer() *LabelBinarizer {
	return &LabelBinarizer{state: model.NewStateManager()}
}

// Fit records the distinct labels in sorted order.
func (b *LabelBinarizer) Fit(labels []int) error {
	if len(labels) == 0 {
		return lsqErrors.NewModelError("LabelBinarizer.Fit", "empty labels", lsqErrors.ErrEmptyData)
	}
	seen := make(map[int]struct{})
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	b.classes = make([]int, 0, len(seen))
	for l := range seen {
		b.classes = append(b.classes, l)
	}
	sort.Ints(b.classes)
	b.index = make(map[int]int, len(b.classes))
	for k, l := range b.classes {
		b.index[l] = k
	}
	b.state.SetDimensions(len(b.classes), len(labels))
	b.state.SetFitted()
	return nil
}

// Transform returns the N×C one-hot matrix of labels. Unknown labels are an
// error.
func (b *LabelBinarizer) Transform(labels []int) (*mat.Dense, error) {
	if err := b.state.RequireFitted("LabelBinarizer", "Transform"); err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, lsqErrors.NewModelError("LabelBinarizer.Transform", "empty labels", lsqErrors.ErrEmptyData)
	}
	out := mat.NewDense(len(labels), len(b.classes), nil)
	for i, l := range labels {
		k, ok := b.index[l]
		if !ok {
			return nil, lsqErrors.NewValueError("LabelBinarizer.Transform", fmt.Sprintf("unknown label %d at row %d", l, i))
		}
		out.Set(i, k, 1)
	}
	return out, nil
}

// FitTransform fits on labels and returns their one-hot matrix.
func (b *LabelBinarizer) FitTransform(labels []int) (*mat.Dense, error) {
	if err := b.Fit(labels); err != nil {
		return nil, err
	}
	return b.Transform(labels)
}

// InverseTransform maps each row of Y (one-hot or scores) to the label of its
// largest column.
func (b *LabelBinarizer) InverseTransform(Y mat.Matrix) ([]int, error) {
	if err := b.state.RequireFitted("LabelBinarizer", "InverseTransform"); err != nil {
		return nil, err
	}
	_, c := Y.Dims()
	if err := b.state.RequireFeatures("LabelBinarizer.InverseTransform", c); err != nil {
		return nil, err
	}
	idx := tensor.ArgmaxRows(Y)
	out := make([]int, len(idx))
	for i, k := range idx {
		out[i] = b.classes[k]
	}
	return out, nil
}

// Classes returns the sorted labels, one per output column.
func (b *LabelBinarizer) Classes() []int { return append([]int(nil), b.classes...) }
