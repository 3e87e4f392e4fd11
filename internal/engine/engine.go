// Package engine is the user-facing differentiation layer: construction of
// differentiable function values, the request boundary for front-ends, and
// the derivative operations defined atop valueWithPullback.
package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pullback-ml/pullback/internal/check"
	"github.com/pullback-ml/pullback/internal/diag"
	"github.com/pullback-ml/pullback/internal/ir"
	"github.com/pullback-ml/pullback/internal/registry"
	"github.com/pullback-ml/pullback/internal/trace"
	"github.com/pullback-ml/pullback/internal/vspace"
)

// Pullback maps a seed cotangent on a function's result to one cotangent per
// varying parameter. It is pure: repeat and concurrent invocations are safe
// and re-run no primitives.
type Pullback func(seed any) []any

// Engine wires the checker and composer over explicit registry state. The
// registries are a dependency handed in at construction, never ambient
// globals; after the registration phase an engine is safe for concurrent use.
type Engine struct {
	rules    *registry.Registry
	spaces   *vspace.Registry
	checker  *check.Checker
	composer *trace.Composer
	log      *zap.Logger

	mu   sync.Mutex
	reqs map[string]*check.Requirement
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New creates an engine over the given rule and vector-space registries.
func New(rules *registry.Registry, spaces *vspace.Registry, opts ...Option) *Engine {
	e := &Engine{
		rules:    rules,
		spaces:   spaces,
		checker:  check.New(rules, spaces),
		composer: trace.NewComposer(rules, spaces),
		log:      zap.NewNop(),
		reqs:     make(map[string]*check.Requirement),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the engine's primitive rule registry.
func (e *Engine) Rules() *registry.Registry {
	return e.rules
}

// Spaces returns the engine's vector-space registry.
func (e *Engine) Spaces() *vspace.Registry {
	return e.spaces
}

// Requirement returns the named differentiable requirement, creating it on
// first use.
func (e *Engine) Requirement(name string) *check.Requirement {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.reqs[name]
	if !ok {
		r = check.NewRequirement(name)
		e.reqs[name] = r
	}
	return r
}

// Submit is the front-end boundary: it runs a request through the checker
// and returns either a usable differentiable function value or a classified
// failure. Varying nil means all parameters vary.
//
// A request is submitted once. CheckFailed, TraceFailed, and Ready are
// terminal; resubmitting a request in any state but Pending is an error and
// leaves the request untouched.
func (e *Engine) Submit(req *Request) Result {
	if !req.transition(Pending, Checking) {
		return Result{Err: fmt.Errorf("engine: request %s resubmitted in state %s", req.ID, req.State())}
	}
	if req.ID == (uuid.UUID{}) {
		req.ID = uuid.New()
	}
	if req.Varying == nil {
		req.Varying = allParams(req.Body)
	}
	e.log.Debug("checking request",
		zap.String("request", req.ID.String()),
		zap.Ints("varying", req.Varying))

	result, err := e.checker.Body(req.Body, req.Varying)
	if err == nil && req.Requirement != "" {
		r := e.Requirement(req.Requirement)
		err = r.Validate()
	}
	if err != nil {
		failure := e.classify(req, err)
		req.setFailure(failure)
		req.transition(Checking, CheckFailed)
		e.log.Debug("request failed",
			zap.String("request", req.ID.String()),
			zap.String("kind", diag.KindOf(failure).String()),
			zap.Error(failure))
		return Result{Err: failure}
	}
	req.transition(Checking, Checked)
	e.log.Debug("request checked",
		zap.String("request", req.ID.String()),
		zap.Stringer("result", result))

	f := &Func{
		eng:     e,
		name:    fmt.Sprintf("fn-%s", shortID(req.ID)),
		params:  req.Body.ParamTypes,
		result:  result,
		varying: req.Varying,
		body:    req.Body,
		req:     req,
	}
	f.bindSpaces()
	return Result{Func: f}
}

// classify stamps the request id onto a classified failure so callers can
// correlate errors with logs.
func (e *Engine) classify(req *Request, err error) error {
	var de *diag.Error
	if errors.As(err, &de) {
		stamped := *de
		stamped.Request = req.ID
		return &stamped
	}
	return err
}

func allParams(body *ir.Body) []int {
	if body == nil {
		return nil
	}
	varying := make([]int, body.NumParams())
	for i := range varying {
		varying[i] = i
	}
	return varying
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
