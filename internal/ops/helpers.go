package ops

import "github.com/pullback-ml/pullback/internal/registry"

var (
	unarySig  = registry.SignatureOf(float64(0), float64(0))
	binarySig = registry.SignatureOf(float64(0), float64(0), float64(0))
)

// unaryRule builds a float64 -> float64 rule. grad receives the input and
// the already-computed output, so rules whose derivative reuses the forward
// value (exp, tanh, sigmoid) pay for it once.
func unaryRule(id string, fn func(x float64) float64, grad func(x, y float64) float64) registry.Rule {
	return registry.Rule{
		ID:  id,
		Sig: unarySig,
		Fn: func(args []any) any {
			return fn(args[0].(float64))
		},
		VJP: func(args []any) (any, registry.Pullback) {
			x := args[0].(float64)
			y := fn(x)
			return y, func(cotangent any) []any {
				v := cotangent.(float64)
				return []any{v * grad(x, y)}
			}
		},
	}
}

// binaryRule builds a (float64, float64) -> float64 rule. grads returns the
// partial derivatives with respect to each argument.
func binaryRule(id string, fn func(a, b float64) float64, grads func(a, b, y float64) (da, db float64)) registry.Rule {
	return registry.Rule{
		ID:  id,
		Sig: binarySig,
		Fn: func(args []any) any {
			return fn(args[0].(float64), args[1].(float64))
		},
		VJP: func(args []any) (any, registry.Pullback) {
			a := args[0].(float64)
			b := args[1].(float64)
			y := fn(a, b)
			return y, func(cotangent any) []any {
				v := cotangent.(float64)
				da, db := grads(a, b, y)
				return []any{v * da, v * db}
			}
		},
	}
}
