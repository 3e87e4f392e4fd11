// Package vspace describes, per type, how to form a zero cotangent and how
// to add two cotangents. Every type used as a differentiated parameter or
// result must have an instance registered here.
package vspace

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/pullback-ml/pullback/internal/diag"
)

// Space is the additive structure of a cotangent type: Zero is the additive
// identity and Add is associative and commutative.
type Space interface {
	// Zero returns the zero cotangent of the type.
	Zero() any

	// Add combines two cotangents of the type.
	Add(a, b any) any
}

// ScalarSpace is a Space for a scalar numeric type. One is the
// multiplicative identity, used as the seed for gradient computations.
type ScalarSpace interface {
	Space

	// One returns the multiplicative identity of the type.
	One() any
}

// Registry maps types to their vector-space instances.
//
// A registry is safe for concurrent lookup; registration is expected to
// happen during process initialization, before differentiation begins.
type Registry struct {
	mu     sync.RWMutex
	spaces map[reflect.Type]Space
}

// NewRegistry creates a registry pre-populated with instances for float32
// and float64.
func NewRegistry() *Registry {
	r := &Registry{spaces: make(map[reflect.Type]Space)}
	r.spaces[reflect.TypeOf(float32(0))] = Float32()
	r.spaces[reflect.TypeOf(float64(0))] = Float64()
	return r
}

// Register installs the instance for type t, replacing none: a second
// registration for the same type is rejected.
func (r *Registry) Register(t reflect.Type, s Space) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.spaces[t]; ok {
		return fmt.Errorf("vspace: instance already registered for %s", t)
	}
	r.spaces[t] = s
	return nil
}

// Lookup returns the instance for type t.
func (r *Registry) Lookup(t reflect.Type) (Space, bool) {
	r.mu.RLock()
	s, ok := r.spaces[t]
	r.mu.RUnlock()
	return s, ok
}

// Require returns the instance for type t or a classified
// TypeNotDifferentiable failure.
func (r *Registry) Require(t reflect.Type) (Space, error) {
	if s, ok := r.Lookup(t); ok {
		return s, nil
	}
	return nil, &diag.Error{
		Kind:   diag.TypeNotDifferentiable,
		Type:   t,
		Detail: "no vector-space instance registered",
	}
}

// RegisterFor installs the instance for the type of T.
func RegisterFor[T any](r *Registry, s Space) error {
	var zero T
	return r.Register(reflect.TypeOf(zero), s)
}
