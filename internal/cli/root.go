// Package cli implements the pullback command-line interface.
package cli

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pullback-ml/pullback/diff"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
)

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "pullback",
		Short: "Reverse-mode differentiation engine",
		Long: color.CyanString(`Pullback - reverse-mode automatic differentiation for Go

Marks functions as differentiable and derives, for each one, a companion
procedure computing partial derivatives by composing per-call derivative
rules into a whole-function pullback.`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewOpsCommand())
	rootCmd.AddCommand(NewGradCommand(&verbose))

	return rootCmd
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			titleColor := color.New(color.FgCyan, color.Bold)
			titleColor.Print("pullback version: ")
			fmt.Println(Version)
			fmt.Printf("commit: %s\n", GitCommit)
			fmt.Printf("go: %s\n", runtime.Version())
		},
	}
}

// newLogger builds the zap logger for a command invocation.
func newLogger(verbose bool, cfg *Config) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	return zcfg.Build()
}

// newEngine bootstraps a standard engine for a command invocation.
func newEngine(verbose bool) (*diff.Engine, *Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger(verbose, cfg)
	if err != nil {
		return nil, nil, err
	}
	eng, err := diff.NewStandard(diff.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	return eng, cfg, nil
}
