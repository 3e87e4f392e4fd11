package ops

import (
	"math"

	"github.com/pullback-ml/pullback/internal/registry"
)

// Sin is the sine: y = sin(x).
//
// Backward pass: d(sin(x))/dx = cos(x).
func Sin() registry.Rule {
	return unaryRule("sin",
		math.Sin,
		func(x, y float64) float64 { return math.Cos(x) },
	)
}
