package ops

import "github.com/pullback-ml/pullback/internal/registry"

// Mul is multiplication: y = a * b.
//
// Backward pass:
//   - d(a*b)/da = b, so cot_a = cot_y * b
//   - d(a*b)/db = a, so cot_b = cot_y * a
func Mul() registry.Rule {
	return binaryRule("mul",
		func(a, b float64) float64 { return a * b },
		func(a, b, y float64) (float64, float64) { return b, a },
	)
}
