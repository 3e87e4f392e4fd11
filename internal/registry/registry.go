// Package registry maps primitive operations to their derivative rules.
//
// A registry has a strict two-phase lifecycle: rules are registered during
// process initialization, and the first lookup freezes the registry for the
// remainder of the process. Frozen registries serve concurrent lookups from
// any number of goroutines without locking on the read path.
package registry

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pullback-ml/pullback/internal/diag"
)

// Signature identifies one arity variant of a primitive: its argument types
// and its result type. Binary and unary forms of a logically-equivalent
// primitive are distinct signatures.
type Signature struct {
	Args   []reflect.Type
	Result reflect.Type
}

// String renders the signature in func form, e.g. "(float64, float64) float64".
func (s Signature) String() string {
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		parts[i] = a.String()
	}
	if s.Result == nil {
		return fmt.Sprintf("(%s)", strings.Join(parts, ", "))
	}
	return fmt.Sprintf("(%s) %s", strings.Join(parts, ", "), s.Result)
}

// SignatureOf builds a Signature from sample zero values.
func SignatureOf(result any, args ...any) Signature {
	sig := Signature{Result: reflect.TypeOf(result)}
	for _, a := range args {
		sig.Args = append(sig.Args, reflect.TypeOf(a))
	}
	return sig
}

// Pullback maps a cotangent of a primitive's result to cotangents of its
// arguments, one per argument in order.
type Pullback func(cotangent any) []any

// VJP is a derivative rule: applied to concrete arguments it returns the
// primitive's value together with the local pullback at those arguments.
type VJP func(args []any) (value any, pb Pullback)

// Rule is one registered primitive: identity, signature, original forward
// implementation, and derivative rule.
type Rule struct {
	ID  string
	Sig Signature
	Fn  func(args []any) any
	VJP VJP
}

// key identifies a (primitive, arg types) pair. The result type is not part
// of the key: two rules for the same id and argument types conflict even if
// they disagree on the result.
func ruleKey(id string, args []reflect.Type) string {
	var b strings.Builder
	b.WriteString(id)
	for _, a := range args {
		b.WriteByte('|')
		b.WriteString(a.String())
	}
	return b.String()
}

// Registry holds the derivative rules for primitive operations.
type Registry struct {
	mu     sync.Mutex
	frozen atomic.Bool
	rules  map[string]*Rule
}

// New creates an empty, unfrozen registry.
func New() *Registry {
	return &Registry{rules: make(map[string]*Rule)}
}

// Register installs a rule. It fails with AmbiguousDerivative if a rule
// already exists for the same (id, argument types) pair, and with a plain
// error if the registry has been frozen by a lookup.
func (r *Registry) Register(rule Rule) error {
	if rule.ID == "" {
		return fmt.Errorf("registry: rule has empty id")
	}
	if rule.VJP == nil {
		return fmt.Errorf("registry: rule %s has no vjp", rule.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	// Checked under the mutex so a registration racing the freeze cannot
	// mutate the map after lock-free lookups have begun.
	if r.frozen.Load() {
		return fmt.Errorf("registry: cannot register %s after first lookup", rule.ID)
	}
	k := ruleKey(rule.ID, rule.Sig.Args)
	if prev, ok := r.rules[k]; ok {
		return &diag.Error{
			Kind:   diag.AmbiguousDerivative,
			Op:     rule.ID,
			Detail: fmt.Sprintf("conflicting registration for signature %s", prev.Sig),
		}
	}
	r.rules[k] = &rule
	return nil
}

// Lookup returns the rule for (id, argument types). The first lookup freezes
// the registry: later registrations are rejected, and lookups proceed
// without locking.
func (r *Registry) Lookup(id string, args []reflect.Type) (*Rule, bool) {
	r.Freeze()
	rule, ok := r.rules[ruleKey(id, args)]
	return rule, ok
}

// Freeze ends the registration phase. Idempotent; implied by Lookup.
func (r *Registry) Freeze() {
	if r.frozen.Load() {
		return
	}
	// Acquiring the mutex orders the freeze after in-flight registrations.
	r.mu.Lock()
	r.frozen.Store(true)
	r.mu.Unlock()
}

// Frozen reports whether the registration phase has ended.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rules)
}

// Rules returns all registered rules sorted by id then signature, for
// listings and diagnostics.
func (r *Registry) Rules() []*Rule {
	r.mu.Lock()
	out := make([]*Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Sig.String() < out[j].Sig.String()
	})
	return out
}
