// Package ops provides the standard derivative rules for scalar float64
// primitives. Each file holds one primitive with its vjp rule.
//
// RegisterAll installs the full set during engine bootstrap, before the rule
// registry is frozen by its first lookup.
package ops

import "github.com/pullback-ml/pullback/internal/registry"

// RegisterAll registers every standard primitive rule.
func RegisterAll(reg *registry.Registry) error {
	rules := []registry.Rule{
		Add(), Sub(), Mul(), Div(), Neg(),
		Sin(), Cos(), Exp(), Log(), Sqrt(),
		Tanh(), Sigmoid(), ReLU(), Pow(),
	}
	for _, r := range rules {
		if err := reg.Register(r); err != nil {
			return err
		}
	}
	return nil
}
