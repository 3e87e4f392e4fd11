package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewOpsCommand creates the ops command, listing the registered primitive
// rules.
func NewOpsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List registered primitive derivative rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := newEngine(false)
			if err != nil {
				return err
			}
			idColor := color.New(color.FgGreen)
			for _, rule := range eng.Rules().Rules() {
				idColor.Printf("%-10s", rule.ID)
				fmt.Println(rule.Sig)
			}
			return nil
		},
	}
}
