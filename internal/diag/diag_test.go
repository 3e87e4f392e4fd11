package diag_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/pullback-ml/pullback/internal/diag"
)

func TestError_Message(t *testing.T) {
	err := &diag.Error{
		Kind:   diag.MissingDerivativeRule,
		Op:     "matmul",
		Detail: "no rule for signature (float64) float64",
	}
	want := "MissingDerivativeRule: matmul: no rule for signature (float64) float64"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestError_TypeMessage(t *testing.T) {
	err := &diag.Error{
		Kind: diag.TypeNotDifferentiable,
		Type: reflect.TypeOf(""),
	}
	if err.Error() != "TypeNotDifferentiable: string" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("constructing request: %w", &diag.Error{Kind: diag.ControlFlowUnsupported})

	if !errors.Is(err, &diag.Error{Kind: diag.ControlFlowUnsupported}) {
		t.Error("errors.Is should match on kind through wrapping")
	}
	if errors.Is(err, &diag.Error{Kind: diag.AmbiguousDerivative}) {
		t.Error("errors.Is should not match a different kind")
	}
}

func TestKindOf(t *testing.T) {
	if diag.KindOf(errors.New("plain")) != 0 {
		t.Error("plain errors carry no kind")
	}
	err := fmt.Errorf("wrap: %w", diag.Errorf(diag.CrossModuleOpaque, "no body"))
	if diag.KindOf(err) != diag.CrossModuleOpaque {
		t.Errorf("KindOf = %v, want CrossModuleOpaque", diag.KindOf(err))
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &diag.Error{Kind: diag.AmbiguousDerivative, Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should expose the cause")
	}
}
