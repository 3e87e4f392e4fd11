package ops

import (
	"math"

	"github.com/pullback-ml/pullback/internal/registry"
)

// Exp is the exponential: y = exp(x).
//
// Backward pass: d(exp(x))/dx = exp(x) = y, reusing the forward value.
func Exp() registry.Rule {
	return unaryRule("exp",
		math.Exp,
		func(x, y float64) float64 { return y },
	)
}
