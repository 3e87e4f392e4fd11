// Copyright 2026 Pullback ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package vspace re-exports the per-type vector-space capability: how to
// form a zero cotangent and add two cotangents.
package vspace

import (
	"reflect"

	"github.com/pullback-ml/pullback/internal/vspace"
)

// Space is the additive structure of a cotangent type.
type Space = vspace.Space

// ScalarSpace additionally exposes the multiplicative identity used to seed
// gradients.
type ScalarSpace = vspace.ScalarSpace

// Registry maps types to their vector-space instances.
type Registry = vspace.Registry

// NewRegistry creates a registry pre-populated with float32 and float64.
func NewRegistry() *Registry { return vspace.NewRegistry() }

// Scalar returns the trivial instance for a scalar floating-point type.
func Scalar[T vspace.Float]() ScalarSpace { return vspace.Scalar[T]() }

// Struct derives the componentwise instance for a struct type.
func Struct(t reflect.Type, reg *Registry) (Space, error) {
	return vspace.Struct(t, reg)
}

// RegisterStruct derives and registers the componentwise instance for T.
func RegisterStruct[T any](reg *Registry) error {
	return vspace.RegisterStruct[T](reg)
}

// RegisterFor installs an instance for the type of T.
func RegisterFor[T any](reg *Registry, s Space) error {
	return vspace.RegisterFor[T](reg, s)
}
