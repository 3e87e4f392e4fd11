package engine_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pullback-ml/pullback/internal/engine"
	"github.com/pullback-ml/pullback/internal/ir"
)

// TestConcurrentInvocations tests that distinct differentiation invocations
// share nothing mutable: many goroutines differentiate the same function at
// different points against one frozen registry.
func TestConcurrentInvocations(t *testing.T) {
	eng := newEngine(t)

	square, err := eng.Differentiable("square", squareBody())
	require.NoError(t, err)

	const goroutines = 32
	var wg sync.WaitGroup
	errs := make([]error, goroutines)
	grads := make([]float64, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			at := float64(i)
			grad, err := square.Gradient([]any{at})
			if err != nil {
				errs[i] = err
				return
			}
			grads[i] = grad[0].(float64)
		}(i)
	}
	wg.Wait()

	for i := 0; i < goroutines; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 2*float64(i), grads[i])
	}
}

// TestConcurrentFirstUse tests that simultaneous first invocations on one
// function agree on the request state: every goroutine gets a correct
// pullback, and Ready is reached once and never left.
func TestConcurrentFirstUse(t *testing.T) {
	eng := newEngine(t)

	req := &engine.Request{Body: squareBody()}
	res := eng.Submit(req)
	require.True(t, res.Ok())
	square := res.Func

	const goroutines = 8
	var wg sync.WaitGroup
	got := make([]float64, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, pb := square.ValueWithPullback([]any{2.0})
			got[i] = pb(1.0)[0].(float64)
		}(i)
	}
	wg.Wait()

	for i := 0; i < goroutines; i++ {
		assert.Equal(t, 4.0, got[i])
	}
	assert.Equal(t, engine.Ready, req.State())

	// Ready is terminal: later invocations leave it alone.
	square.ValueWithPullback([]any{3.0})
	assert.Equal(t, engine.Ready, req.State())
}

// TestConcurrentPullbackSeeds tests that one pullback serves concurrent
// seeds: it is a pure function of its captured trace.
func TestConcurrentPullbackSeeds(t *testing.T) {
	eng := newEngine(t)

	f, err := eng.Differentiable("cube", ir.Func1[float64](func(x ir.Expr) ir.Expr {
		return ir.Op("mul", ir.Op("mul", x, x), x)
	}))
	require.NoError(t, err)

	_, pb := f.ValueWithPullback([]any{2.0}) // d(x³)/dx = 12 at x = 2

	const goroutines = 16
	var wg sync.WaitGroup
	got := make([]float64, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seed := float64(i + 1)
			got[i] = pb(seed)[0].(float64)
		}(i)
	}
	wg.Wait()

	for i := 0; i < goroutines; i++ {
		assert.Equal(t, 12.0*float64(i+1), got[i])
	}
}
