package ops

import "github.com/pullback-ml/pullback/internal/registry"

// Neg is negation: y = -x.
//
// Backward pass: d(-x)/dx = -1.
func Neg() registry.Rule {
	return unaryRule("neg",
		func(x float64) float64 { return -x },
		func(x, y float64) float64 { return -1 },
	)
}
