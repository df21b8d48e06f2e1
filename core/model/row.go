package model

import (
	"sort"
	"strings"
)

// Row is one flat record of metrics and hyperparameters, the unit the sweep
// harness stores per trained model.
type Row map[string]float64

// Clone returns an independent copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge copies every entry of other into r, overwriting duplicates, and
// returns r.
func (r Row) Merge(other Row) Row {
	for k, v := range other {
		r[k] = v
	}
	return r
}

// Keys returns the column names in sorted order.
func (r Row) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Relabel returns a copy of r where every key containing from has that
// substring replaced by to. Keys without from are kept as they are.
//
//	Row{"training RMSE": 0.3}.Relabel("training", "validation")
//	// Row{"validation RMSE": 0.3}
func (r Row) Relabel(from, to string) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[strings.ReplaceAll(k, from, to)] = v
	}
	return out
}

// Only returns the subset of r whose keys contain substr.
func (r Row) Only(substr string) Row {
	out := make(Row)
	for k, v := range r {
		if strings.Contains(k, substr) {
			out[k] = v
		}
	}
	return out
}

// Bool encodes a flag as a Row value.
func Bool(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
