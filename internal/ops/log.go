package ops

import (
	"math"

	"github.com/pullback-ml/pullback/internal/registry"
)

// Log is the natural logarithm: y = log(x).
//
// Backward pass: d(log(x))/dx = 1/x.
//
// Non-positive inputs follow math.Log: NaN and -Inf propagate as ordinary
// values, never as engine errors.
func Log() registry.Rule {
	return unaryRule("log",
		math.Log,
		func(x, y float64) float64 { return 1 / x },
	)
}
