package ops

import "github.com/pullback-ml/pullback/internal/registry"

// Div is division: y = a / b.
//
// Backward pass:
//   - d(a/b)/da = 1/b
//   - d(a/b)/db = -a/b² = -y/b
func Div() registry.Rule {
	return binaryRule("div",
		func(a, b float64) float64 { return a / b },
		func(a, b, y float64) (float64, float64) { return 1 / b, -y / b },
	)
}
