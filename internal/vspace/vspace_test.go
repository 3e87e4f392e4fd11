package vspace_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/pullback-ml/pullback/internal/diag"
	"github.com/pullback-ml/pullback/internal/vspace"
)

// TestScalar_Identity tests that Zero is the additive identity and One the
// multiplicative identity.
func TestScalar_Identity(t *testing.T) {
	s := vspace.Float64()

	if s.Zero().(float64) != 0 {
		t.Errorf("Zero() = %v, want 0", s.Zero())
	}
	if s.One().(float64) != 1 {
		t.Errorf("One() = %v, want 1", s.One())
	}
	if got := s.Add(2.5, 0.0).(float64); got != 2.5 {
		t.Errorf("Add(2.5, 0) = %v, want 2.5", got)
	}
}

// TestScalar_AddCommutes tests commutativity of Add.
func TestScalar_AddCommutes(t *testing.T) {
	s := vspace.Float64()

	ab := s.Add(1.5, 2.25).(float64)
	ba := s.Add(2.25, 1.5).(float64)
	if ab != ba {
		t.Errorf("Add not commutative: %v != %v", ab, ba)
	}
	if ab != 3.75 {
		t.Errorf("Add(1.5, 2.25) = %v, want 3.75", ab)
	}
}

// TestRegistry_Builtins tests that NewRegistry pre-populates float32 and
// float64.
func TestRegistry_Builtins(t *testing.T) {
	reg := vspace.NewRegistry()

	if _, ok := reg.Lookup(reflect.TypeOf(float64(0))); !ok {
		t.Error("float64 instance missing")
	}
	if _, ok := reg.Lookup(reflect.TypeOf(float32(0))); !ok {
		t.Error("float32 instance missing")
	}
	if _, ok := reg.Lookup(reflect.TypeOf(int(0))); ok {
		t.Error("int should have no instance")
	}
}

// TestRegistry_Require tests the classified failure for a missing instance.
func TestRegistry_Require(t *testing.T) {
	reg := vspace.NewRegistry()

	_, err := reg.Require(reflect.TypeOf(int(0)))
	if err == nil {
		t.Fatal("Require(int) should fail")
	}
	if diag.KindOf(err) != diag.TypeNotDifferentiable {
		t.Errorf("kind = %v, want TypeNotDifferentiable", diag.KindOf(err))
	}
}

// TestRegistry_DuplicateRejected tests that re-registration is an error.
func TestRegistry_DuplicateRejected(t *testing.T) {
	reg := vspace.NewRegistry()

	if err := vspace.RegisterFor[float64](reg, vspace.Float64()); err == nil {
		t.Error("duplicate registration should fail")
	}
}

type point struct {
	X, Y float64
}

type mixed struct {
	X float64
	N int
}

// TestStruct_Derived tests the componentwise struct instance.
func TestStruct_Derived(t *testing.T) {
	reg := vspace.NewRegistry()
	if err := vspace.RegisterStruct[point](reg); err != nil {
		t.Fatalf("RegisterStruct: %v", err)
	}

	s, ok := reg.Lookup(reflect.TypeOf(point{}))
	if !ok {
		t.Fatal("point instance missing after registration")
	}

	zero := s.Zero().(point)
	if zero != (point{}) {
		t.Errorf("Zero() = %v, want {0 0}", zero)
	}

	sum := s.Add(point{X: 1, Y: 2}, point{X: 3, Y: 4}).(point)
	if sum != (point{X: 4, Y: 6}) {
		t.Errorf("Add = %v, want {4 6}", sum)
	}
}

// TestStruct_MissingFieldInstance tests that derivation fails componentwise.
func TestStruct_MissingFieldInstance(t *testing.T) {
	reg := vspace.NewRegistry()

	err := vspace.RegisterStruct[mixed](reg)
	if err == nil {
		t.Fatal("struct with int field should not derive an instance")
	}
	var de *diag.Error
	if !errors.As(err, &de) || de.Kind != diag.TypeNotDifferentiable {
		t.Errorf("err = %v, want TypeNotDifferentiable", err)
	}
}
