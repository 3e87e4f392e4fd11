package ops

import "github.com/pullback-ml/pullback/internal/registry"

// Add is element addition: y = a + b.
//
// Backward pass:
//   - d(a+b)/da = 1, so cot_a = cot_y
//   - d(a+b)/db = 1, so cot_b = cot_y
func Add() registry.Rule {
	return binaryRule("add",
		func(a, b float64) float64 { return a + b },
		func(a, b, y float64) (float64, float64) { return 1, 1 },
	)
}
