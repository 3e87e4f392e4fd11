package ops

import (
	"math"

	"github.com/pullback-ml/pullback/internal/registry"
)

// Tanh is the hyperbolic tangent: y = tanh(x).
//
// Backward pass: d(tanh(x))/dx = 1 - tanh²(x) = 1 - y².
func Tanh() registry.Rule {
	return unaryRule("tanh",
		math.Tanh,
		func(x, y float64) float64 { return 1 - y*y },
	)
}
