package check

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pullback-ml/pullback/internal/diag"
)

// Requirement is an abstract interface requirement marked differentiable.
// Each concrete implementation declares the parameter indices it varies;
// callers generic over the requirement rely on a uniform derivative
// signature, so all declarations must agree.
type Requirement struct {
	name string

	mu    sync.Mutex
	impls map[string][]int
}

// NewRequirement creates an empty requirement.
func NewRequirement(name string) *Requirement {
	return &Requirement{name: name, impls: make(map[string][]int)}
}

// Name returns the requirement's name.
func (r *Requirement) Name() string {
	return r.name
}

// Declare records the varying-parameter set of one implementation. Indices
// are normalized to sorted order; redeclaring an implementation replaces its
// set.
func (r *Requirement) Declare(impl string, varying []int) {
	set := append([]int(nil), varying...)
	sort.Ints(set)
	r.mu.Lock()
	r.impls[impl] = set
	r.mu.Unlock()
}

// Validate compares the declared varying sets of all known implementations
// and fails with ConformanceMismatch on the first pair that disagree.
func (r *Requirement) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.impls))
	for n := range r.impls {
		names = append(names, n)
	}
	sort.Strings(names)

	var first string
	for _, n := range names {
		if first == "" {
			first = n
			continue
		}
		if !equalInts(r.impls[first], r.impls[n]) {
			return &diag.Error{
				Kind: diag.ConformanceMismatch,
				Op:   r.name,
				Detail: fmt.Sprintf("%s varies %s but %s varies %s",
					first, varyingString(r.impls[first]), n, varyingString(r.impls[n])),
			}
		}
	}
	return nil
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func varyingString(set []int) string {
	parts := make([]string, len(set))
	for i, v := range set {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "(" + strings.Join(parts, ",") + ")"
}
