// Package trace records one forward evaluation of a checked body and
// composes the recorded local pullbacks into the pullback of the whole
// function.
//
// Recording works like a gradient tape: every primitive call is intercepted,
// its vjp rule is invoked once, and the resulting local pullback is stored as
// a trace node with edges to the nodes that produced its arguments. The trace
// is built fresh per invocation and is owned exclusively by the Pullback
// derived from it.
package trace

import (
	"fmt"
	"reflect"

	"github.com/pullback-ml/pullback/internal/ir"
	"github.com/pullback-ml/pullback/internal/registry"
	"github.com/pullback-ml/pullback/internal/vspace"
)

// node is one recorded call. Leaf nodes (parameters, constants) carry no
// pullback.
type node struct {
	op    string
	args  []int             // ids of the nodes that produced the arguments
	pb    registry.Pullback // local pullback; nil for leaves
	space vspace.Space      // space of the node's value type; nil if none
}

// Trace is the ordered record of one forward evaluation. Node ids are
// positions in recording order, so reverse id order is a reverse topological
// order of the dependency edges.
type Trace struct {
	nodes  []node
	params []int // parameter index -> node id, -1 if the parameter is unused
	result int
}

// NumNodes returns the number of recorded nodes.
func (t *Trace) NumNodes() int {
	return len(t.nodes)
}

// Composer evaluates bodies in recording mode. It holds only read-only
// registries, so one composer serves concurrent invocations.
type Composer struct {
	rules  *registry.Registry
	spaces *vspace.Registry
}

// NewComposer creates a composer over the given registries.
func NewComposer(rules *registry.Registry, spaces *vspace.Registry) *Composer {
	return &Composer{rules: rules, spaces: spaces}
}

// Record evaluates body at args in recording mode and returns the forward
// value together with the trace. The body must already have passed the
// checker; Record reports, rather than classifies, anything it still cannot
// handle.
func (c *Composer) Record(body *ir.Body, args []any) (any, *Trace, error) {
	if len(args) != body.NumParams() {
		return nil, nil, fmt.Errorf("trace: %d arguments for %d parameters", len(args), body.NumParams())
	}
	tr := &Trace{params: make([]int, body.NumParams())}
	for i := range tr.params {
		tr.params[i] = -1
	}
	rec := &recording{c: c, args: args, tr: tr, memo: make(map[ir.Expr]result)}
	root, err := rec.eval(body.Root)
	if err != nil {
		return nil, nil, err
	}
	tr.result = root.id
	return root.value, tr, nil
}

// result pairs a node's forward value with its trace node id.
type result struct {
	value any
	id    int
}

// recording is the per-invocation evaluation state.
type recording struct {
	c    *Composer
	args []any
	tr   *Trace
	memo map[ir.Expr]result // shared nodes evaluate once
}

func (r *recording) eval(e ir.Expr) (result, error) {
	if res, ok := r.memo[e]; ok {
		return res, nil
	}
	res, err := r.evalNew(e)
	if err != nil {
		return result{}, err
	}
	r.memo[e] = res
	return res, nil
}

func (r *recording) evalNew(e ir.Expr) (result, error) {
	switch n := e.(type) {
	case *ir.Param:
		v := r.args[n.Index]
		id := r.record(node{op: "param", space: r.spaceOf(v)})
		r.tr.params[n.Index] = id
		return result{value: v, id: id}, nil

	case *ir.Const:
		id := r.record(node{op: "const", space: r.spaceOf(n.Value)})
		return result{value: n.Value, id: id}, nil

	case *ir.Call:
		vals, ids, types, err := r.evalArgs(n.Args)
		if err != nil {
			return result{}, err
		}
		rule, ok := r.c.rules.Lookup(n.Op, types)
		if !ok {
			return result{}, fmt.Errorf("trace: no rule for %s%s", n.Op, registry.Signature{Args: types})
		}
		value, pb := rule.VJP(vals)
		space, err := r.resultSpace(n.Op, value)
		if err != nil {
			return result{}, err
		}
		id := r.record(node{op: n.Op, args: ids, pb: pb, space: space})
		return result{value: value, id: id}, nil

	case *ir.Apply:
		vals, ids, _, err := r.evalArgs(n.Args)
		if err != nil {
			return result{}, err
		}
		value, pb := n.Fn.VJP(vals)
		space, err := r.resultSpace(n.Fn.Name(), value)
		if err != nil {
			return result{}, err
		}
		id := r.record(node{op: n.Fn.Name(), args: ids, pb: registry.Pullback(pb), space: space})
		return result{value: value, id: id}, nil

	default:
		// If and Loop are rejected by the checker before recording starts.
		return result{}, fmt.Errorf("trace: unsupported expression node %T", e)
	}
}

func (r *recording) evalArgs(args []ir.Expr) ([]any, []int, []reflect.Type, error) {
	vals := make([]any, len(args))
	ids := make([]int, len(args))
	types := make([]reflect.Type, len(args))
	for i, a := range args {
		res, err := r.eval(a)
		if err != nil {
			return nil, nil, nil, err
		}
		vals[i] = res.value
		ids[i] = res.id
		types[i] = reflect.TypeOf(res.value)
	}
	return vals, ids, types, nil
}

func (r *recording) record(n node) int {
	r.tr.nodes = append(r.tr.nodes, n)
	return len(r.tr.nodes) - 1
}

func (r *recording) spaceOf(v any) vspace.Space {
	s, _ := r.c.spaces.Lookup(reflect.TypeOf(v))
	return s
}

// resultSpace returns the vector space of a recorded call's value. A call
// result can receive accumulated cotangent contributions, so a value whose
// dynamic type has no space fails the trace rather than silently dropping
// fan-in later. The checker guarantees this for declared result types; this
// catches a vjp whose runtime value diverges from its declaration.
func (r *recording) resultSpace(op string, value any) (vspace.Space, error) {
	s := r.spaceOf(value)
	if s == nil {
		return nil, fmt.Errorf("trace: %s produced %T, which has no vector space", op, value)
	}
	return s, nil
}
