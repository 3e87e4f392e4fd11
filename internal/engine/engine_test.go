package engine_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pullback-ml/pullback/internal/diag"
	"github.com/pullback-ml/pullback/internal/engine"
	"github.com/pullback-ml/pullback/internal/ir"
	"github.com/pullback-ml/pullback/internal/ops"
	"github.com/pullback-ml/pullback/internal/registry"
	"github.com/pullback-ml/pullback/internal/vspace"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	rules := registry.New()
	require.NoError(t, ops.RegisterAll(rules))
	return engine.New(rules, vspace.NewRegistry())
}

func squareBody() *ir.Body {
	return ir.Func1[float64](func(x ir.Expr) ir.Expr {
		return ir.Op("mul", x, x)
	})
}

func TestDifferentiable_Square(t *testing.T) {
	eng := newEngine(t)

	square, err := eng.Differentiable("square", squareBody())
	require.NoError(t, err)

	value, pb := square.ValueWithPullback([]any{3.0})
	assert.Equal(t, 9.0, value)
	assert.Equal(t, 6.0, pb(1.0)[0])

	grad, err := square.Gradient([]any{3.0})
	require.NoError(t, err)
	assert.Equal(t, 6.0, grad[0])
}

func TestValueWithGradient(t *testing.T) {
	eng := newEngine(t)

	square, err := eng.Differentiable("square", squareBody())
	require.NoError(t, err)

	value, grad, err := square.ValueWithGradient([]any{3.0})
	require.NoError(t, err)
	assert.Equal(t, 9.0, value)
	assert.Equal(t, 6.0, grad[0])
}

// TestCall_NoRecordingNeeded tests plain forward evaluation.
func TestCall_NoRecordingNeeded(t *testing.T) {
	eng := newEngine(t)

	square, err := eng.Differentiable("square", squareBody())
	require.NoError(t, err)
	assert.Equal(t, 16.0, square.Call([]any{4.0}))
}

// TestChainRule tests pullback(g∘h)(seed) == pullback(h)(pullback(g)(seed)).
func TestChainRule(t *testing.T) {
	eng := newEngine(t)

	h, err := eng.Differentiable("h", ir.Func1[float64](func(x ir.Expr) ir.Expr {
		return ir.Op("sin", x)
	}))
	require.NoError(t, err)
	g, err := eng.Differentiable("g", squareBody())
	require.NoError(t, err)

	// f = g∘h, composed through Apply.
	f, err := eng.Differentiable("f", ir.Func1[float64](func(x ir.Expr) ir.Expr {
		return ir.Invoke(g, ir.Invoke(h, x))
	}))
	require.NoError(t, err)

	at := 0.8
	seed := 1.0

	hv, hPB := h.ValueWithPullback([]any{at})
	_, gPB := g.ValueWithPullback([]any{hv})
	_, fPB := f.ValueWithPullback([]any{at})

	composed := hPB(gPB(seed)[0])[0].(float64)
	whole := fPB(seed)[0].(float64)
	assert.InDelta(t, composed, whole, 1e-12)

	// Also matches the closed form d(sin²x)/dx = 2 sin x cos x.
	assert.InDelta(t, 2*math.Sin(at)*math.Cos(at), whole, 1e-12)
}

func TestSubmit_StateMachine(t *testing.T) {
	eng := newEngine(t)

	req := &engine.Request{Body: squareBody()}
	res := eng.Submit(req)
	require.True(t, res.Ok())
	assert.Equal(t, engine.Checked, req.State())
	assert.Equal(t, engine.Checked, res.Func.State())

	res.Func.ValueWithPullback([]any{2.0})
	assert.Equal(t, engine.Ready, req.State())
	assert.Equal(t, engine.Ready, res.Func.State())
}

func TestSubmit_CheckFailedIsTerminal(t *testing.T) {
	eng := newEngine(t)

	req := &engine.Request{Body: ir.Func1[float64](func(x ir.Expr) ir.Expr {
		return ir.Op("mystery", x)
	})}
	res := eng.Submit(req)
	require.False(t, res.Ok())
	assert.Nil(t, res.Func, "no partial differentiable value on failure")
	assert.Equal(t, engine.CheckFailed, req.State())
	assert.Equal(t, diag.MissingDerivativeRule, diag.KindOf(req.Failure()))
	assert.Contains(t, res.Err.Error(), "mystery")
}

// TestSubmit_RejectsResubmission tests that a request is submitted once:
// Checked, CheckFailed, and Ready requests stay where they are.
func TestSubmit_RejectsResubmission(t *testing.T) {
	eng := newEngine(t)

	req := &engine.Request{Body: squareBody()}
	first := eng.Submit(req)
	require.True(t, first.Ok())

	res := eng.Submit(req)
	require.False(t, res.Ok())
	assert.Contains(t, res.Err.Error(), "resubmitted")
	assert.Equal(t, engine.Checked, req.State(), "resubmission must not rewind the state machine")

	first.Func.ValueWithPullback([]any{2.0})
	res = eng.Submit(req)
	require.False(t, res.Ok())
	assert.Equal(t, engine.Ready, req.State())

	failed := &engine.Request{Body: ir.Func1[float64](func(x ir.Expr) ir.Expr {
		return ir.Op("mystery", x)
	})}
	require.False(t, eng.Submit(failed).Ok())
	res = eng.Submit(failed)
	require.False(t, res.Ok())
	assert.Equal(t, engine.CheckFailed, failed.State())
}

func TestSubmit_ControlFlowRejected(t *testing.T) {
	eng := newEngine(t)

	body := ir.Func1[float64](func(x ir.Expr) ir.Expr {
		return &ir.If{Cond: x, Then: x, Else: x}
	})
	res := eng.Submit(&engine.Request{Body: body})
	require.False(t, res.Ok())
	assert.Equal(t, diag.ControlFlowUnsupported, diag.KindOf(res.Err))
}

func TestSubmit_StampsRequestID(t *testing.T) {
	eng := newEngine(t)

	req := &engine.Request{Body: ir.Func1[float64](func(x ir.Expr) ir.Expr {
		return ir.Op("mystery", x)
	})}
	res := eng.Submit(req)
	require.False(t, res.Ok())

	var de *diag.Error
	require.ErrorAs(t, res.Err, &de)
	assert.Equal(t, req.ID, de.Request)
}

func TestDifferentiableFunc_ExplicitRule(t *testing.T) {
	eng := newEngine(t)

	// multiply with the hand-written rule (x,y) -> (x*y, v -> (v*y, v*x)).
	mul := eng.DifferentiableFunc("multiply",
		registry.SignatureOf(float64(0), float64(0), float64(0)),
		func(args []any) (any, registry.Pullback) {
			x, y := args[0].(float64), args[1].(float64)
			return x * y, func(cot any) []any {
				v := cot.(float64)
				return []any{v * y, v * x}
			}
		})

	value, pb := mul.ValueWithPullback([]any{3.0, 4.0})
	assert.Equal(t, 12.0, value)
	cots := pb(1.0)
	assert.Equal(t, 4.0, cots[0])
	assert.Equal(t, 3.0, cots[1])
	assert.Equal(t, engine.Ready, mul.State())

	// An explicit-rule function composes into bodies like any other.
	square, err := eng.Differentiable("square", ir.Func1[float64](func(x ir.Expr) ir.Expr {
		return ir.Invoke(mul, x, x)
	}))
	require.NoError(t, err)
	grad, err := square.Gradient([]any{3.0})
	require.NoError(t, err)
	assert.Equal(t, 6.0, grad[0])
}

func TestOpaque_RejectedInBody(t *testing.T) {
	eng := newEngine(t)

	mystery := eng.Opaque("mystery",
		registry.SignatureOf(float64(0), float64(0)),
		func(args []any) any { return args[0] })
	assert.Equal(t, 2.0, mystery.Call([]any{2.0}))

	_, err := eng.Differentiable("wrapped", ir.Func1[float64](func(x ir.Expr) ir.Expr {
		return ir.Invoke(mystery, x)
	}))
	require.Error(t, err)
	assert.Equal(t, diag.CrossModuleOpaque, diag.KindOf(err))
}

func TestWrt_NarrowsVarying(t *testing.T) {
	eng := newEngine(t)

	// f(a, t) = a * sin(t)
	f, err := eng.Differentiable("wave", ir.Func2[float64](func(a, t ir.Expr) ir.Expr {
		return ir.Op("mul", a, ir.Op("sin", t))
	}))
	require.NoError(t, err)

	grad, err := eng.Gradient([]any{2.0, 1.0}, f)
	require.NoError(t, err)
	require.Len(t, grad, 2)
	assert.InDelta(t, math.Sin(1.0), grad[0].(float64), 1e-12)
	assert.InDelta(t, 2*math.Cos(1.0), grad[1].(float64), 1e-12)

	gradA, err := eng.Gradient([]any{2.0, 1.0}, f, 0)
	require.NoError(t, err)
	require.Len(t, gradA, 1)
	assert.InDelta(t, math.Sin(1.0), gradA[0].(float64), 1e-12)
}

func TestGradient_NonScalarResultRejected(t *testing.T) {
	rules := registry.New()
	require.NoError(t, ops.RegisterAll(rules))
	spaces := vspace.NewRegistry()

	type point struct{ X, Y float64 }
	require.NoError(t, vspace.RegisterStruct[point](spaces))

	// A rule producing a struct result: gradient needs a scalar seed, so
	// Gradient must refuse while ValueWithPullback still works.
	require.NoError(t, rules.Register(registry.Rule{
		ID:  "pair",
		Sig: registry.SignatureOf(point{}, float64(0)),
		VJP: func(args []any) (any, registry.Pullback) {
			x := args[0].(float64)
			return point{X: x, Y: 2 * x}, func(cot any) []any {
				p := cot.(point)
				return []any{p.X + 2*p.Y}
			}
		},
	}))
	eng := engine.New(rules, spaces)

	f, err := eng.Differentiable("pairfn", ir.Func1[float64](func(x ir.Expr) ir.Expr {
		return ir.Op("pair", x)
	}))
	require.NoError(t, err)

	_, pb := f.ValueWithPullback([]any{1.0})
	assert.Equal(t, 5.0, pb(point{X: 1, Y: 2})[0])

	_, err = f.Gradient([]any{1.0})
	require.Error(t, err)
}

func TestImplement_ConformanceMismatch(t *testing.T) {
	eng := newEngine(t)

	dense, err := eng.Differentiable("dense", ir.Func2[float64](func(x, w ir.Expr) ir.Expr {
		return ir.Op("mul", x, w)
	}))
	require.NoError(t, err)
	norm, err := eng.Differentiable("norm", ir.Func2[float64](func(x, w ir.Expr) ir.Expr {
		return ir.Op("div", x, w)
	}), 0)
	require.NoError(t, err)

	require.NoError(t, eng.Implement("Layer.forward", dense))
	err = eng.Implement("Layer.forward", norm)
	require.Error(t, err)
	assert.Equal(t, diag.ConformanceMismatch, diag.KindOf(err))
}

// TestGradient_MatchesFiniteDifferences checks the composed pullback against
// numerical gradients for a few compositions.
func TestGradient_MatchesFiniteDifferences(t *testing.T) {
	eng := newEngine(t)

	cases := []struct {
		name string
		body *ir.Body
		fn   func(float64) float64
		at   float64
	}{
		{
			name: "poly",
			body: ir.Func1[float64](func(x ir.Expr) ir.Expr {
				sq := ir.Op("mul", x, x)
				return ir.Op("add", sq, ir.Op("mul", ir.C(2.0), x))
			}),
			fn: func(x float64) float64 { return x*x + 2*x },
			at: 1.3,
		},
		{
			name: "expsin",
			body: ir.Func1[float64](func(x ir.Expr) ir.Expr {
				return ir.Op("exp", ir.Op("sin", x))
			}),
			fn: func(x float64) float64 { return math.Exp(math.Sin(x)) },
			at: 0.6,
		},
		{
			name: "sigmoid-of-square",
			body: ir.Func1[float64](func(x ir.Expr) ir.Expr {
				return ir.Op("sigmoid", ir.Op("mul", x, x))
			}),
			fn: func(x float64) float64 { return 1 / (1 + math.Exp(-x*x)) },
			at: -0.9,
		},
	}

	const eps = 1e-6
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := eng.Differentiable(tc.name, tc.body)
			require.NoError(t, err)

			grad, err := f.Gradient([]any{tc.at})
			require.NoError(t, err)

			numerical := (tc.fn(tc.at+eps) - tc.fn(tc.at-eps)) / (2 * eps)
			assert.InDelta(t, numerical, grad[0].(float64), 1e-6)
		})
	}
}

// TestPullback_SideEffectsOnce tests that primitive side effects happen
// during trace construction only, never on repeated pullback evaluation.
func TestPullback_SideEffectsOnce(t *testing.T) {
	rules := registry.New()
	calls := 0
	require.NoError(t, rules.Register(registry.Rule{
		ID:  "counted",
		Sig: registry.SignatureOf(float64(0), float64(0)),
		VJP: func(args []any) (any, registry.Pullback) {
			calls++
			x := args[0].(float64)
			return x * x, func(cot any) []any {
				return []any{cot.(float64) * 2 * x}
			}
		},
	}))
	eng := engine.New(rules, vspace.NewRegistry())

	f, err := eng.Differentiable("counted", ir.Func1[float64](func(x ir.Expr) ir.Expr {
		return ir.Op("counted", x)
	}))
	require.NoError(t, err)

	_, pb := f.ValueWithPullback([]any{3.0})
	require.Equal(t, 1, calls)
	pb(1.0)
	pb(2.0)
	pb(1.0)
	assert.Equal(t, 1, calls, "pullback evaluation must not re-run primitives")
}

// TestNaN_PropagatesAsValue tests that numeric issues are not engine errors.
func TestNaN_PropagatesAsValue(t *testing.T) {
	eng := newEngine(t)

	f, err := eng.Differentiable("logfn", ir.Func1[float64](func(x ir.Expr) ir.Expr {
		return ir.Op("log", x)
	}))
	require.NoError(t, err)

	value, grad, err := f.ValueWithGradient([]any{-1.0})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(value.(float64)))
	assert.Equal(t, -1.0, grad[0].(float64)) // 1/x at x = -1
}
