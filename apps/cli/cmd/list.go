package cmd

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/itspec/packages/core/spec"
	"github.com/spf13/cobra"
)

func (a *app) newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the declared groups and examples",
		Long: `List the groups and examples of the suite without running them.
Examples hidden by --filter are left out.

Examples:
  myspec list
  myspec list --filter "Calculator"`,
		Args: usageArgs(cobra.NoArgs),
		RunE: a.listCommand,
	}
}

func (a *app) listCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	policy, err := policyFor(cfg)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	a.suite.Root().Walk(policy, func(n spec.Node, depth int) {
		indent := strings.Repeat("  ", depth-1)
		switch n := n.(type) {
		case *spec.Group:
			fmt.Fprintf(w, "%s%s\n", indent, n.Description())
		case *spec.Example:
			var tag string
			switch {
			case n.IsPending():
				tag = " (pending)"
			case n.Async():
				tag = " (async)"
			}
			fmt.Fprintf(w, "%s- %s%s\n", indent, n.Description(), tag)
		}
	})
	fmt.Fprintf(w, "\n%d example(s)\n", a.suite.Count(policy))

	return nil
}
