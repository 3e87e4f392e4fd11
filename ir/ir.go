// Copyright 2026 Pullback ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ir re-exports the function-body representation front-ends submit
// to the differentiation engine.
package ir

import "github.com/pullback-ml/pullback/internal/ir"

// Expr is a node of a function body. Node identity is pointer identity;
// sharing a node between argument positions expresses fan-out.
type Expr = ir.Expr

// Body is a complete function body.
type Body = ir.Body

// Node kinds.
type (
	Param = ir.Param
	Const = ir.Const
	Call  = ir.Call
	Apply = ir.Apply
	If    = ir.If
	Loop  = ir.Loop
)

// Callee is a function value applicable inside a body.
type Callee = ir.Callee

// P returns a parameter reference.
func P(index int) *Param { return ir.P(index) }

// C returns a constant.
func C(value any) *Const { return ir.C(value) }

// Op returns a primitive call.
func Op(op string, args ...Expr) *Call { return ir.Op(op, args...) }

// Invoke returns an application of a differentiable function value.
func Invoke(fn Callee, args ...Expr) *Apply { return ir.Invoke(fn, args...) }

// Func1 builds a single-parameter body over T.
func Func1[T any](root func(x Expr) Expr) *Body { return ir.Func1[T](root) }

// Func2 builds a two-parameter body over T.
func Func2[T any](root func(x, y Expr) Expr) *Body { return ir.Func2[T](root) }
