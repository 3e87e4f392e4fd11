// Copyright 2026 Pullback ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package diff is the public differentiation API.
//
// A function is made differentiable by pairing its body representation with
// the derivative rules of the primitives it calls. The engine validates the
// pairing once, at construction; a successfully constructed function value
// can then be differentiated forever after without re-validation.
//
// Example:
//
//	eng, _ := diff.NewStandard()
//	square, _ := eng.Differentiable("square", ir.Func1[float64](func(x ir.Expr) ir.Expr {
//	    return ir.Op("mul", x, x)
//	}))
//	grad, _ := square.Gradient([]any{3.0}) // [6.0]
package diff

import (
	"go.uber.org/zap"

	"github.com/pullback-ml/pullback/internal/diag"
	"github.com/pullback-ml/pullback/internal/engine"
	"github.com/pullback-ml/pullback/internal/ops"
	"github.com/pullback-ml/pullback/internal/registry"
	"github.com/pullback-ml/pullback/internal/vspace"
)

// Engine wires the checker and pullback composer over explicit registry
// state.
type Engine = engine.Engine

// Func is a differentiable function value.
type Func = engine.Func

// Pullback maps a seed cotangent on the result to cotangents on the varying
// inputs.
type Pullback = engine.Pullback

// Request is a differentiation request submitted by a front-end.
type Request = engine.Request

// Result is the outcome of a request: a usable function value or a
// classified failure.
type Result = engine.Result

// State tracks a request through its lifecycle.
type State = engine.State

// Request lifecycle states.
const (
	Pending       = engine.Pending
	Checking      = engine.Checking
	CheckFailed   = engine.CheckFailed
	Checked       = engine.Checked
	TraceBuilding = engine.TraceBuilding
	TraceFailed   = engine.TraceFailed
	Ready         = engine.Ready
)

// Option configures an Engine.
type Option = engine.Option

// WithLogger sets the engine's structured logger.
func WithLogger(l *zap.Logger) Option {
	return engine.WithLogger(l)
}

// New creates an engine over explicit registries.
func New(rules *registry.Registry, spaces *vspace.Registry, opts ...Option) *Engine {
	return engine.New(rules, spaces, opts...)
}

// NewStandard creates an engine with the standard float64 primitive rules
// (add, sub, mul, div, neg, sin, cos, exp, log, sqrt, tanh, sigmoid, relu,
// pow) and the built-in scalar vector spaces.
func NewStandard(opts ...Option) (*Engine, error) {
	rules := registry.New()
	if err := ops.RegisterAll(rules); err != nil {
		return nil, err
	}
	return engine.New(rules, vspace.NewRegistry(), opts...), nil
}

// Failure classification, detected at construction time.
type Kind = diag.Kind

const (
	TypeNotDifferentiable  = diag.TypeNotDifferentiable
	MissingDerivativeRule  = diag.MissingDerivativeRule
	ControlFlowUnsupported = diag.ControlFlowUnsupported
	AmbiguousDerivative    = diag.AmbiguousDerivative
	CrossModuleOpaque      = diag.CrossModuleOpaque
	ConformanceMismatch    = diag.ConformanceMismatch
)

// Error is a classified differentiation failure.
type Error = diag.Error

// KindOf extracts the failure kind from err, or 0 if err carries none.
func KindOf(err error) Kind {
	return diag.KindOf(err)
}
