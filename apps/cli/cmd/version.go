package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "itspec version %s\n", a.version)
			fmt.Fprintf(cmd.OutOrStdout(), "Built: %s\n", a.buildTime)
			if name := a.suite.Name(); name != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Suite: %s\n", name)
			}
		},
	}
}
