package engine

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/pullback-ml/pullback/internal/ir"
)

// State tracks a differentiation request through its lifecycle. CheckFailed,
// TraceFailed, and Ready are terminal.
type State int32

const (
	Pending State = iota
	Checking
	CheckFailed
	Checked
	TraceBuilding
	TraceFailed
	Ready
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Checking:
		return "Checking"
	case CheckFailed:
		return "CheckFailed"
	case Checked:
		return "Checked"
	case TraceBuilding:
		return "TraceBuilding"
	case TraceFailed:
		return "TraceFailed"
	case Ready:
		return "Ready"
	default:
		return "Unknown"
	}
}

// Request is one differentiation request: a body plus the subset of varying
// parameter indices. It produces exactly one of a usable differentiable
// function value or a classified failure.
type Request struct {
	ID      uuid.UUID
	Body    *ir.Body
	Varying []int

	// Requirement optionally names the differentiable interface
	// requirement the resulting function implements; conformance across
	// implementations is validated during checking.
	Requirement string

	state State // accessed atomically; invocations on one Func share this

	mu      sync.Mutex
	failure error
}

// State returns the request's current state.
func (r *Request) State() State {
	return State(atomic.LoadInt32((*int32)(&r.state)))
}

// transition advances the state only from the expected predecessor, so a
// terminal state is never left once reached. It reports whether this call
// performed the transition.
func (r *Request) transition(from, to State) bool {
	return atomic.CompareAndSwapInt32((*int32)(&r.state), int32(from), int32(to))
}

// Failure returns the classified failure for a CheckFailed or TraceFailed
// request, nil otherwise.
func (r *Request) Failure() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failure
}

func (r *Request) setFailure(err error) {
	r.mu.Lock()
	r.failure = err
	r.mu.Unlock()
}

// Result is the outcome of submitting a request: exactly one of Func or Err
// is set.
type Result struct {
	Func *Func
	Err  error
}

// Ok reports whether the request produced a usable function value.
func (r Result) Ok() bool {
	return r.Err == nil
}
