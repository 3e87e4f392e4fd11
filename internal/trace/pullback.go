package trace

import (
	"github.com/pullback-ml/pullback/internal/vspace"
)

// Pullback maps a seed cotangent on a function's result to cotangents on its
// varying inputs by walking the captured trace in reverse.
//
// A Pullback is a pure function of its trace: it touches no mutable state,
// re-runs no primitives, and may be invoked repeatedly and concurrently with
// different seeds.
type Pullback struct {
	tr      *Trace
	varying []int          // parameter indices whose cotangents are produced
	spaces  []vspace.Space // space per varying parameter, for zeros
}

// NewPullback closes over tr, producing cotangents for the given varying
// parameter indices. paramSpaces holds the vector space of each varying
// parameter's type, in the same order.
func NewPullback(tr *Trace, varying []int, paramSpaces []vspace.Space) *Pullback {
	return &Pullback{tr: tr, varying: varying, spaces: paramSpaces}
}

// Call composes the recorded local pullbacks, seeded at the result node.
//
// Nodes are processed in reverse recording order, which is a reverse
// topological order of the forward dependency edges. A node consumed by
// several successors receives the vector-space sum of their contributions;
// this fan-in summation is what makes x + x at seed 1 yield cotangent 2.
// The walk is an explicit loop, so trace length never grows the stack.
func (p *Pullback) Call(seed any) []any {
	// Accumulation is per-invocation, never stored on the trace.
	cots := make([]any, len(p.tr.nodes))
	cots[p.tr.result] = seed

	for id := len(p.tr.nodes) - 1; id >= 0; id-- {
		n := &p.tr.nodes[id]
		if n.pb == nil {
			continue // leaf: parameter or constant
		}
		incoming := cots[id]
		if incoming == nil {
			continue // no cotangent flows through this node
		}
		argCots := n.pb(incoming)
		for k, argID := range n.args {
			if k >= len(argCots) || argCots[k] == nil {
				continue
			}
			arg := &p.tr.nodes[argID]
			switch {
			case cots[argID] == nil:
				cots[argID] = argCots[k]
			case arg.space != nil:
				cots[argID] = arg.space.Add(cots[argID], argCots[k])
			default:
				// Only a leaf can lack a space: op result spaces are
				// verified during recording, varying parameter spaces
				// during checking. A space-less leaf is never read,
				// so its cotangent is discarded.
			}
		}
	}

	out := make([]any, len(p.varying))
	for i, idx := range p.varying {
		nodeID := p.tr.params[idx]
		if nodeID >= 0 && cots[nodeID] != nil {
			out[i] = cots[nodeID]
			continue
		}
		// Unused parameter: its cotangent is zero. A nil space means the
		// caller never reads this slot; leave it nil.
		if p.spaces[i] != nil {
			out[i] = p.spaces[i].Zero()
		}
	}
	return out
}
