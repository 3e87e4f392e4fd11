package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pullback-ml/pullback/ir"
)

// demoBodies are the single-parameter float64 functions the grad command can
// differentiate. The CLI deliberately ships pre-built bodies instead of a
// parser; source-level handling of differentiability stays a front-end
// concern.
var demoBodies = map[string]func() *ir.Body{
	"square": func() *ir.Body {
		return ir.Func1[float64](func(x ir.Expr) ir.Expr {
			return ir.Op("mul", x, x)
		})
	},
	"cube": func() *ir.Body {
		return ir.Func1[float64](func(x ir.Expr) ir.Expr {
			return ir.Op("mul", ir.Op("mul", x, x), x)
		})
	},
	"sigmoid": func() *ir.Body {
		return ir.Func1[float64](func(x ir.Expr) ir.Expr {
			return ir.Op("sigmoid", x)
		})
	},
	// poly(x) = x² + 2x + 1
	"poly": func() *ir.Body {
		return ir.Func1[float64](func(x ir.Expr) ir.Expr {
			sq := ir.Op("mul", x, x)
			lin := ir.Op("mul", ir.C(2.0), x)
			return ir.Op("add", ir.Op("add", sq, lin), ir.C(1.0))
		})
	},
	"expsin": func() *ir.Body {
		return ir.Func1[float64](func(x ir.Expr) ir.Expr {
			return ir.Op("exp", ir.Op("sin", x))
		})
	},
}

// NewGradCommand creates the grad command: evaluate the value and gradient
// of a named demo function at a point.
func NewGradCommand(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "grad <function> <point>",
		Short: "Evaluate a demo function and its gradient at a point",
		Long: `Evaluate one of the built-in demo functions and its gradient at a point.

Available functions: ` + demoNames(),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			build, ok := demoBodies[args[0]]
			if !ok {
				return fmt.Errorf("unknown function %q (available: %s)", args[0], demoNames())
			}
			at, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid point %q: %w", args[1], err)
			}

			eng, cfg, err := newEngine(*verbose)
			if err != nil {
				return err
			}
			f, err := eng.Differentiable(args[0], build())
			if err != nil {
				return err
			}
			value, grad, err := f.ValueWithGradient([]any{at})
			if err != nil {
				return err
			}

			p := cfg.Precision
			color.New(color.FgCyan, color.Bold).Printf("%s(%.*g)", args[0], p, at)
			fmt.Printf(" = %.*g\n", p, value.(float64))
			color.New(color.FgGreen, color.Bold).Print("gradient")
			fmt.Printf(" = %.*g\n", p, grad[0].(float64))
			return nil
		},
	}
}

func demoNames() string {
	names := make([]string, 0, len(demoBodies))
	for n := range demoBodies {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
