// Package diag defines the classified failure values produced while a
// differentiation request is constructed.
//
// Every failure is detected at construction time, never while a pullback is
// being evaluated. A successfully built differentiable function therefore
// never reports one of these kinds later.
package diag

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Kind classifies a construction-time failure.
type Kind int

const (
	// TypeNotDifferentiable reports a parameter, result, or intermediate
	// type without a registered vector-space instance.
	TypeNotDifferentiable Kind = iota + 1

	// MissingDerivativeRule reports a primitive call with no registered
	// vjp rule. The error names the primitive.
	MissingDerivativeRule

	// ControlFlowUnsupported reports a body containing a branch or loop.
	ControlFlowUnsupported

	// AmbiguousDerivative reports conflicting registrations for the same
	// primitive signature.
	AmbiguousDerivative

	// CrossModuleOpaque reports a callee whose body is unavailable for
	// inspection and which has no registered rule.
	CrossModuleOpaque

	// ConformanceMismatch reports implementations of a differentiable
	// requirement that declare inconsistent varying-parameter sets.
	ConformanceMismatch
)

// String returns the stable name of the failure kind.
func (k Kind) String() string {
	switch k {
	case TypeNotDifferentiable:
		return "TypeNotDifferentiable"
	case MissingDerivativeRule:
		return "MissingDerivativeRule"
	case ControlFlowUnsupported:
		return "ControlFlowUnsupported"
	case AmbiguousDerivative:
		return "AmbiguousDerivative"
	case CrossModuleOpaque:
		return "CrossModuleOpaque"
	case ConformanceMismatch:
		return "ConformanceMismatch"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is a classified differentiation failure. It identifies the failing
// construct (primitive id, type, or requirement) and the request it aborted.
type Error struct {
	Kind    Kind
	Op      string       // implicated primitive or callee, if any
	Type    reflect.Type // implicated type, if any
	Request uuid.UUID    // request the failure aborted, if known
	Detail  string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	switch {
	case e.Op != "" && e.Detail != "":
		msg = fmt.Sprintf("%s: %s: %s", msg, e.Op, e.Detail)
	case e.Op != "":
		msg = fmt.Sprintf("%s: %s", msg, e.Op)
	case e.Type != nil && e.Detail != "":
		msg = fmt.Sprintf("%s: %s: %s", msg, e.Type, e.Detail)
	case e.Type != nil:
		msg = fmt.Sprintf("%s: %s", msg, e.Type)
	case e.Detail != "":
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind. This lets
// callers match on classification with errors.Is using a bare kind value:
//
//	errors.Is(err, &diag.Error{Kind: diag.MissingDerivativeRule})
func (e *Error) Is(target error) bool {
	var de *Error
	if !errors.As(target, &de) {
		return false
	}
	return e.Kind == de.Kind
}

// KindOf extracts the failure kind from err, or 0 if err carries none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// Errorf builds a classified error with a formatted detail message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
