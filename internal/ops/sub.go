package ops

import "github.com/pullback-ml/pullback/internal/registry"

// Sub is subtraction: y = a - b.
//
// Backward pass:
//   - d(a-b)/da = 1
//   - d(a-b)/db = -1
func Sub() registry.Rule {
	return binaryRule("sub",
		func(a, b float64) float64 { return a - b },
		func(a, b, y float64) (float64, float64) { return 1, -1 },
	)
}
