// Package check statically validates a differentiation request before any
// trace work begins.
//
// The checker decides, once and for the lifetime of the resulting
// differentiable function, whether differentiation is possible: every type a
// cotangent flows through must have a vector-space instance, the body must be
// a branch-free composition of primitives with registered rules or of
// already-checked differentiable callees, and implementations of a
// differentiable requirement must agree on their varying-parameter sets.
// A request never partially succeeds.
package check

import (
	"fmt"
	"reflect"

	"github.com/pullback-ml/pullback/internal/diag"
	"github.com/pullback-ml/pullback/internal/ir"
	"github.com/pullback-ml/pullback/internal/registry"
	"github.com/pullback-ml/pullback/internal/vspace"
)

// Checker validates bodies against a rule registry and a vector-space
// registry. It holds no per-request state and is safe for concurrent use.
type Checker struct {
	rules  *registry.Registry
	spaces *vspace.Registry
}

// New creates a checker over the given registries.
func New(rules *registry.Registry, spaces *vspace.Registry) *Checker {
	return &Checker{rules: rules, spaces: spaces}
}

// Body validates body with the given varying parameter indices and infers
// the result type. On failure it returns a classified *diag.Error.
func (c *Checker) Body(body *ir.Body, varying []int) (reflect.Type, error) {
	if body == nil || body.Root == nil {
		return nil, fmt.Errorf("check: empty body")
	}
	for _, idx := range varying {
		if idx < 0 || idx >= body.NumParams() {
			return nil, fmt.Errorf("check: varying index %d out of range (%d params)", idx, body.NumParams())
		}
	}

	// (a) every varying parameter type has a vector-space instance.
	for _, idx := range varying {
		if _, err := c.spaces.Require(body.ParamTypes[idx]); err != nil {
			return nil, err
		}
	}

	// (b) the body is a branch-free composition with rules for every call.
	// Shared nodes are visited once; their inferred type is memoized.
	types := make(map[ir.Expr]reflect.Type)
	result, err := c.expr(body, body.Root, types)
	if err != nil {
		return nil, err
	}

	// The result type carries the seed cotangent, so it needs an instance
	// too.
	if _, err := c.spaces.Require(result); err != nil {
		return nil, err
	}
	return result, nil
}

// expr infers the type of e, validating as it goes.
func (c *Checker) expr(body *ir.Body, e ir.Expr, types map[ir.Expr]reflect.Type) (reflect.Type, error) {
	if t, ok := types[e]; ok {
		return t, nil
	}
	t, err := c.exprUncached(body, e, types)
	if err != nil {
		return nil, err
	}
	types[e] = t
	return t, nil
}

func (c *Checker) exprUncached(body *ir.Body, e ir.Expr, types map[ir.Expr]reflect.Type) (reflect.Type, error) {
	switch n := e.(type) {
	case *ir.Param:
		if n.Index < 0 || n.Index >= body.NumParams() {
			return nil, fmt.Errorf("check: parameter index %d out of range (%d params)", n.Index, body.NumParams())
		}
		return body.ParamTypes[n.Index], nil

	case *ir.Const:
		if n.Value == nil {
			return nil, fmt.Errorf("check: nil constant")
		}
		return reflect.TypeOf(n.Value), nil

	case *ir.Call:
		args := make([]reflect.Type, len(n.Args))
		for i, a := range n.Args {
			t, err := c.expr(body, a, types)
			if err != nil {
				return nil, err
			}
			args[i] = t
		}
		rule, ok := c.rules.Lookup(n.Op, args)
		if !ok {
			return nil, &diag.Error{
				Kind:   diag.MissingDerivativeRule,
				Op:     n.Op,
				Detail: fmt.Sprintf("no rule for signature %s", registry.Signature{Args: args}),
			}
		}
		// Cotangents accumulate at the call's result, so the result type
		// needs an instance even when it is intermediate.
		if _, err := c.spaces.Require(rule.Sig.Result); err != nil {
			return nil, err
		}
		return rule.Sig.Result, nil

	case *ir.Apply:
		if n.Fn == nil {
			return nil, fmt.Errorf("check: apply with nil callee")
		}
		if n.Fn.Opaque() {
			return nil, &diag.Error{
				Kind:   diag.CrossModuleOpaque,
				Op:     n.Fn.Name(),
				Detail: "body unavailable and no derivative rule registered",
			}
		}
		params := n.Fn.ParamTypes()
		if len(n.Args) != len(params) {
			return nil, fmt.Errorf("check: %s expects %d arguments, got %d", n.Fn.Name(), len(params), len(n.Args))
		}
		for i, a := range n.Args {
			t, err := c.expr(body, a, types)
			if err != nil {
				return nil, err
			}
			if t != params[i] {
				return nil, fmt.Errorf("check: %s argument %d: have %s, want %s", n.Fn.Name(), i, t, params[i])
			}
		}
		if _, err := c.spaces.Require(n.Fn.ResultType()); err != nil {
			return nil, err
		}
		return n.Fn.ResultType(), nil

	case *ir.If:
		return nil, diag.Errorf(diag.ControlFlowUnsupported, "conditional in body")

	case *ir.Loop:
		return nil, diag.Errorf(diag.ControlFlowUnsupported, "loop in body")

	default:
		return nil, fmt.Errorf("check: unknown expression node %T", e)
	}
}
