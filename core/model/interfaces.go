package model

import "gonum.org/v1/gonum/mat"

// Runner trains a model on the data it was constructed with.
type Runner interface {
	Run() error
}

// WeightsProvider exposes the learned weights. Lasso returns a d×1 matrix,
// the SGD classifier returns its d′×C weight matrix.
type WeightsProvider interface {
	GetWeights() *mat.Dense
}

// WarmStarter accepts initial weights of the shape GetWeights returns.
type WarmStarter interface {
	WeightsProvider
	SetWeights(w mat.Matrix) error
}

// Reporter produces the training results row of a fitted model.
type Reporter interface {
	ResultsRow() (Row, error)
}

// Evaluator scores a fitted model on new data. dataName ("validation",
// "test") replaces "training" in the returned metric names.
type Evaluator interface {
	Evaluate(X, Y mat.Matrix, dataName string) (Row, error)
}

// Trainable is everything the sweep harness needs from a model.
type Trainable interface {
	Runner
	WarmStarter
	Reporter
	Evaluator
}
