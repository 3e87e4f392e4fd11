package engine

import (
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/pullback-ml/pullback/internal/ir"
	"github.com/pullback-ml/pullback/internal/registry"
	"github.com/pullback-ml/pullback/internal/trace"
	"github.com/pullback-ml/pullback/internal/vspace"
)

// Func is a differentiable function value: an original callable paired with
// either a checked body recipe or an explicitly supplied vjp rule.
//
// Validity is decided once, at construction. A successfully constructed Func
// never fails to differentiate later; its derivative operations therefore
// return no error.
type Func struct {
	eng     *Engine
	name    string
	params  []reflect.Type
	result  reflect.Type
	varying []int

	body *ir.Body     // recipe; nil when vjp is set
	vjp  registry.VJP // explicit rule; nil when body is set
	fn   func([]any) any

	opaque bool
	spaces []vspace.Space // per varying parameter
	ready  atomic.Bool    // first successful trace build observed
	req    *Request       // set for body-backed functions built via Submit
}

// Differentiable converts a plain body into a differentiable function value.
// All parameters vary unless wrt narrows the set. Failure returns the
// classified construction error; no partial value is produced.
func (e *Engine) Differentiable(name string, body *ir.Body, wrt ...int) (*Func, error) {
	req := &Request{Body: body, Varying: wrt}
	if len(wrt) == 0 {
		req.Varying = nil // all parameters vary by default
	}
	res := e.Submit(req)
	if res.Err != nil {
		return nil, res.Err
	}
	if name != "" {
		res.Func.name = name
	}
	return res.Func, nil
}

// DifferentiableFunc constructs a differentiable function value directly
// from an explicit vjp rule, bypassing body inspection entirely. All
// parameters vary.
func (e *Engine) DifferentiableFunc(name string, sig registry.Signature, vjp registry.VJP) *Func {
	f := &Func{
		eng:     e,
		name:    name,
		params:  sig.Args,
		result:  sig.Result,
		varying: make([]int, len(sig.Args)),
		vjp:     vjp,
	}
	for i := range f.varying {
		f.varying[i] = i
	}
	f.bindSpaces()
	f.ready.Store(true)
	return f
}

// Opaque wraps a plain callable whose body is unavailable for inspection and
// which has no derivative rule. The value is callable but applying it inside
// a differentiated body fails with CrossModuleOpaque.
func (e *Engine) Opaque(name string, sig registry.Signature, fn func(args []any) any) *Func {
	return &Func{
		eng:    e,
		name:   name,
		params: sig.Args,
		result: sig.Result,
		fn:     fn,
		opaque: true,
	}
}

// Implement declares f as an implementation of the named differentiable
// requirement and revalidates conformance across all known implementations.
func (e *Engine) Implement(requirement string, f *Func) error {
	r := e.Requirement(requirement)
	r.Declare(f.name, f.varying)
	return r.Validate()
}

func (f *Func) bindSpaces() {
	f.spaces = make([]vspace.Space, len(f.varying))
	for i, idx := range f.varying {
		s, _ := f.eng.spaces.Lookup(f.params[idx])
		f.spaces[i] = s
	}
}

// Name returns the function's name.
func (f *Func) Name() string { return f.name }

// ParamTypes returns the parameter types.
func (f *Func) ParamTypes() []reflect.Type { return f.params }

// ResultType returns the result type.
func (f *Func) ResultType() reflect.Type { return f.result }

// Varying returns the varying parameter indices.
func (f *Func) Varying() []int { return f.varying }

// Opaque reports whether the function's body is unavailable and it carries
// no derivative rule.
func (f *Func) Opaque() bool { return f.opaque }

// State returns Ready once a trace has been built, Checked before then.
func (f *Func) State() State {
	if f.opaque {
		return Pending
	}
	if f.ready.Load() {
		return Ready
	}
	return Checked
}

// Call evaluates the original function without recording.
func (f *Func) Call(args []any) any {
	f.checkArity(args)
	switch {
	case f.fn != nil:
		return f.fn(args)
	case f.vjp != nil:
		v, _ := f.vjp(args)
		return v
	default:
		v, _, err := f.eng.composer.Record(f.body, args)
		if err != nil {
			panic(fmt.Sprintf("engine: %s: %v", f.name, err))
		}
		return v
	}
}

// ValueWithPullback runs one recorded forward evaluation at args and returns
// the forward value together with the pullback of the whole function. This
// is the single core operation; every other derivative operation is defined
// atop it.
//
// Primitive side effects happen here, once; the returned pullback re-runs
// nothing.
func (f *Func) ValueWithPullback(args []any) (any, Pullback) {
	f.checkArity(args)
	if f.opaque {
		panic(fmt.Sprintf("engine: %s is opaque and cannot be differentiated", f.name))
	}
	if f.vjp != nil {
		value, local := f.vjp(args)
		varying := f.varying
		return value, func(seed any) []any {
			argCots := local(seed)
			out := make([]any, len(varying))
			for i, idx := range varying {
				out[i] = argCots[idx]
			}
			return out
		}
	}

	// Concurrent invocations race for the Checked -> TraceBuilding edge;
	// whoever loses proceeds anyway, and Ready, once reached, is final.
	if f.req != nil {
		f.req.transition(Checked, TraceBuilding)
	}
	value, tr, err := f.eng.composer.Record(f.body, args)
	if err != nil {
		// The checker admitted this body at construction; a composer
		// failure here is an engine bug, not a user error.
		if f.req != nil {
			f.req.setFailure(err)
			f.req.transition(TraceBuilding, TraceFailed)
		}
		panic(fmt.Sprintf("engine: %s: trace construction failed after successful check: %v", f.name, err))
	}
	f.ready.Store(true)
	if f.req != nil {
		f.req.transition(TraceBuilding, Ready)
	}
	pb := trace.NewPullback(tr, f.varying, f.spaces)
	return value, pb.Call
}

// PullbackAt is ValueWithPullback with the forward value discarded.
func (f *Func) PullbackAt(args []any) Pullback {
	_, pb := f.ValueWithPullback(args)
	return pb
}

// Gradient computes the cotangents of the varying parameters seeded with the
// multiplicative identity of the result type. The result's cotangent space
// must coincide with its own scalar representation.
func (f *Func) Gradient(args []any) ([]any, error) {
	_, grad, err := f.ValueWithGradient(args)
	return grad, err
}

// ValueWithGradient combines ValueWithPullback with a unit-seeded pullback
// invocation.
func (f *Func) ValueWithGradient(args []any) (any, []any, error) {
	seed, err := f.unitSeed()
	if err != nil {
		return nil, nil, err
	}
	value, pb := f.ValueWithPullback(args)
	return value, pb(seed), nil
}

// unitSeed returns the multiplicative identity of the result type's space.
func (f *Func) unitSeed() (any, error) {
	s, err := f.eng.spaces.Require(f.result)
	if err != nil {
		return nil, err
	}
	scalar, ok := s.(vspace.ScalarSpace)
	if !ok {
		return nil, fmt.Errorf("engine: %s: gradient requires a scalar result, %s is not", f.name, f.result)
	}
	return scalar.One(), nil
}

// VJP implements ir.Callee: applying f inside another differentiated body
// records a single node whose local pullback is f's own composed pullback,
// extended with nil cotangents for parameters f does not vary.
func (f *Func) VJP(args []any) (any, func(cotangent any) []any) {
	value, pb := f.ValueWithPullback(args)
	varying := f.varying
	nparams := len(f.params)
	return value, func(seed any) []any {
		cots := pb(seed)
		out := make([]any, nparams)
		for i, idx := range varying {
			out[idx] = cots[i]
		}
		return out
	}
}

func (f *Func) checkArity(args []any) {
	if len(args) != len(f.params) {
		panic(fmt.Sprintf("engine: %s: %d arguments for %d parameters", f.name, len(args), len(f.params)))
	}
}
