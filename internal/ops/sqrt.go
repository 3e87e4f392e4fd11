package ops

import (
	"math"

	"github.com/pullback-ml/pullback/internal/registry"
)

// Sqrt is the square root: y = √x.
//
// Backward pass: d(√x)/dx = 1/(2√x) = 1/(2y).
func Sqrt() registry.Rule {
	return unaryRule("sqrt",
		math.Sqrt,
		func(x, y float64) float64 { return 1 / (2 * y) },
	)
}
