package ops

import (
	"math"

	"github.com/pullback-ml/pullback/internal/registry"
)

// Pow is exponentiation: y = a^b.
//
// Backward pass:
//   - dy/da = b·a^(b-1)
//   - dy/db = a^b·log(a) = y·log(a)
func Pow() registry.Rule {
	return binaryRule("pow",
		math.Pow,
		func(a, b, y float64) (float64, float64) {
			return b * math.Pow(a, b-1), y * math.Log(a)
		},
	)
}
