package ops

import "github.com/pullback-ml/pullback/internal/registry"

// ReLU is the rectified linear unit: y = max(0, x).
//
// Backward pass: d(relu(x))/dx = 1 if x > 0, else 0. The derivative at
// exactly 0 is taken as 0.
func ReLU() registry.Rule {
	return unaryRule("relu",
		func(x float64) float64 {
			if x > 0 {
				return x
			}
			return 0
		},
		func(x, y float64) float64 {
			if x > 0 {
				return 1
			}
			return 0
		},
	)
}
