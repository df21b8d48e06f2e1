package model_test

import (
	"fmt"

	"github.com/ezoic/lsqlearn/core/model"
)

// ExampleStateManager demonstrates fitted-state tracking
func ExampleStateManager() {
	state := model.NewStateManager()
	fmt.Printf("Initially fitted: %t\n", state.IsFitted())
	fmt.Println(state.RequireFitted("Lasso", "ResultsRow"))

	state.SetDimensions(3, 100)
	state.SetFitted()
	fmt.Printf("After SetFitted: %t\n", state.IsFitted())

	state.Reset()
	fmt.Printf("After Reset: %t\n", state.IsFitted())

	// Output: Initially fitted: false
	// lsqlearn: Lasso: this Lasso instance is not fitted yet; call Run before ResultsRow
	// After SetFitted: true
	// After Reset: false
}

// ExampleRow_Relabel demonstrates turning training metrics into validation metrics
func ExampleRow_Relabel() {
	row := model.Row{"training RMSE": 0.25, "lambda": 0.1}
	for _, k := range row.Relabel("training", "validation").Keys() {
		fmt.Println(k)
	}

	// Output: lambda
	// validation RMSE
}
