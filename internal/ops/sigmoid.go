package ops

import (
	"math"

	"github.com/pullback-ml/pullback/internal/registry"
)

// Sigmoid is the logistic function: y = σ(x) = 1 / (1 + exp(-x)).
//
// Backward pass: dσ/dx = σ(x)·(1 - σ(x)) = y·(1 - y).
func Sigmoid() registry.Rule {
	return unaryRule("sigmoid",
		func(x float64) float64 { return 1 / (1 + math.Exp(-x)) },
		func(x, y float64) float64 { return y * (1 - y) },
	)
}
