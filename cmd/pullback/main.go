// Package main provides the pullback CLI.
package main

import (
	"os"

	"github.com/fatih/color"

	"github.com/pullback-ml/pullback/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "error: ")
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
