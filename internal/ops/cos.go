package ops

import (
	"math"

	"github.com/pullback-ml/pullback/internal/registry"
)

// Cos is the cosine: y = cos(x).
//
// Backward pass: d(cos(x))/dx = -sin(x).
func Cos() registry.Rule {
	return unaryRule("cos",
		math.Cos,
		func(x, y float64) float64 { return -math.Sin(x) },
	)
}
