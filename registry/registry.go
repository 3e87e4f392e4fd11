// Copyright 2026 Pullback ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package registry re-exports the primitive rule registry: the mapping from
// a primitive's identity and signature to its derivative rule.
package registry

import "github.com/pullback-ml/pullback/internal/registry"

// Registry holds derivative rules with a two-phase lifecycle: registration
// during initialization, then read-only after the first lookup.
type Registry = registry.Registry

// Rule is one registered primitive: identity, signature, forward
// implementation, and vjp rule.
type Rule = registry.Rule

// Signature identifies one arity variant of a primitive.
type Signature = registry.Signature

// VJP is a derivative rule: args to (value, local pullback).
type VJP = registry.VJP

// Pullback maps a result cotangent to argument cotangents.
type Pullback = registry.Pullback

// New creates an empty, unfrozen registry.
func New() *Registry { return registry.New() }

// SignatureOf builds a Signature from sample zero values.
func SignatureOf(result any, args ...any) Signature {
	return registry.SignatureOf(result, args...)
}
