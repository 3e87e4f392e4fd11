package ir

import "reflect"

// Builder helpers for front-ends and tests that assemble bodies by hand.

// P returns a parameter reference.
func P(index int) *Param {
	return &Param{Index: index}
}

// C returns a constant.
func C(value any) *Const {
	return &Const{Value: value}
}

// Op returns a primitive call.
func Op(op string, args ...Expr) *Call {
	return &Call{Op: op, Args: args}
}

// Invoke returns an application of a differentiable function value.
func Invoke(fn Callee, args ...Expr) *Apply {
	return &Apply{Fn: fn, Args: args}
}

// Func1 builds a single-parameter body over T.
func Func1[T any](root func(x Expr) Expr) *Body {
	var zero T
	x := P(0)
	return &Body{
		ParamTypes: []reflect.Type{reflect.TypeOf(zero)},
		Root:       root(x),
	}
}

// Func2 builds a two-parameter body over T.
func Func2[T any](root func(x, y Expr) Expr) *Body {
	var zero T
	t := reflect.TypeOf(zero)
	return &Body{
		ParamTypes: []reflect.Type{t, t},
		Root:       root(P(0), P(1)),
	}
}
