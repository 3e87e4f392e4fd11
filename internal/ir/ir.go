// Package ir is the resolved function-body representation a front-end hands
// to the differentiation engine.
//
// A body is a DAG of expression nodes. Node identity is pointer identity:
// reusing the same *Call or *Param in several argument positions expresses
// fan-out, and the composer evaluates the shared node exactly once.
package ir

import "reflect"

// Expr is a node of a function body.
type Expr interface {
	isExpr()
}

// Param references the parameter at Index in the enclosing body.
type Param struct {
	Index int
}

// Const is a literal value. Constants are never differentiated.
type Const struct {
	Value any
}

// Call invokes the primitive identified by Op on Args. The signature is
// inferred from the argument types during checking.
type Call struct {
	Op   string
	Args []Expr
}

// Apply invokes another differentiable function value on Args.
type Apply struct {
	Fn   Callee
	Args []Expr
}

// If is a conditional. It exists so a front-end can submit bodies containing
// control flow and have them classified; the engine rejects it and never
// evaluates one.
type If struct {
	Cond, Then, Else Expr
}

// Loop is an iterative construct. Rejected like If.
type Loop struct {
	Cond, Body Expr
}

func (*Param) isExpr() {}
func (*Const) isExpr() {}
func (*Call) isExpr()  {}
func (*Apply) isExpr() {}
func (*If) isExpr()    {}
func (*Loop) isExpr()  {}

// Callee is a function value that can appear in an Apply node. The engine's
// differentiable function value implements it.
type Callee interface {
	// Name identifies the callee in diagnostics.
	Name() string

	// ParamTypes returns the callee's parameter types.
	ParamTypes() []reflect.Type

	// ResultType returns the callee's result type.
	ResultType() reflect.Type

	// Opaque reports whether the callee's body is unavailable for
	// inspection and it carries no derivative rule.
	Opaque() bool

	// VJP evaluates the callee at args, returning its value and the local
	// pullback mapping a result cotangent to one cotangent per argument.
	VJP(args []any) (any, func(cotangent any) []any)
}

// Body is a complete function body: parameter types plus the root
// expression producing the result. The result type is inferred by the
// checker.
type Body struct {
	ParamTypes []reflect.Type
	Root       Expr
}

// NumParams returns the number of parameters.
func (b *Body) NumParams() int {
	return len(b.ParamTypes)
}
