package engine

import (
	"github.com/pullback-ml/pullback/internal/diag"
)

// Engine-level derivative operations. These accept an optional wrt set that
// narrows the varying parameters for this use; narrowing re-runs request
// construction, so they return an error where the Func methods do not.

// Wrt returns a view of f varying only the given parameter indices. With no
// indices (or f's own set) it returns f unchanged; otherwise construction is
// re-run and may fail with a classified error.
func (f *Func) Wrt(wrt ...int) (*Func, error) {
	if len(wrt) == 0 || equalIndices(wrt, f.varying) {
		return f, nil
	}
	if f.opaque {
		return nil, &diag.Error{
			Kind:   diag.CrossModuleOpaque,
			Op:     f.name,
			Detail: "body unavailable and no derivative rule registered",
		}
	}
	if f.body != nil {
		return f.eng.Differentiable(f.name, f.body, wrt...)
	}
	// Explicit rule: the local pullback already produces one cotangent per
	// parameter, so narrowing is a re-selection.
	for _, idx := range wrt {
		if _, err := f.eng.spaces.Require(f.params[idx]); err != nil {
			return nil, err
		}
	}
	g := &Func{
		eng:     f.eng,
		name:    f.name,
		params:  f.params,
		result:  f.result,
		varying: append([]int(nil), wrt...),
		vjp:     f.vjp,
	}
	g.bindSpaces()
	g.ready.Store(true)
	return g, nil
}

// ValueWithPullback runs checker and composer once for f at args and returns
// the forward value and the composed pullback.
func (e *Engine) ValueWithPullback(args []any, f *Func, wrt ...int) (any, Pullback, error) {
	g, err := f.Wrt(wrt...)
	if err != nil {
		return nil, nil, err
	}
	value, pb := g.ValueWithPullback(args)
	return value, pb, nil
}

// Pullback is ValueWithPullback with the forward value discarded.
func (e *Engine) Pullback(args []any, f *Func, wrt ...int) (Pullback, error) {
	_, pb, err := e.ValueWithPullback(args, f, wrt...)
	return pb, err
}

// Gradient seeds the pullback with the multiplicative identity of the result
// type and returns the cotangents of the varying parameters.
func (e *Engine) Gradient(args []any, f *Func, wrt ...int) ([]any, error) {
	_, grad, err := e.ValueWithGradient(args, f, wrt...)
	return grad, err
}

// ValueWithGradient combines ValueWithPullback with a unit-seeded pullback
// invocation.
func (e *Engine) ValueWithGradient(args []any, f *Func, wrt ...int) (any, []any, error) {
	g, err := f.Wrt(wrt...)
	if err != nil {
		return nil, nil, err
	}
	return g.ValueWithGradient(args)
}

func equalIndices(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
