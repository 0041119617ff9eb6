package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/itspec/packages/core/spec"
	"github.com/spf13/cobra"
)

// app holds what every command of one spec binary shares.
type app struct {
	suite     *spec.Suite
	version   string
	buildTime string
	flags     runFlags
}

// NewRootCommand builds the command tree for suite. Running the root
// command without a subcommand runs the suite.
func NewRootCommand(suite *spec.Suite, version, buildTime string) *cobra.Command {
	a := &app{suite: suite, version: version, buildTime: buildTime}

	rootCmd := &cobra.Command{
		Use:   filepath.Base(os.Args[0]),
		Short: "Run the examples declared in this binary",
		Long: `Run the behaviour examples declared in this binary with itspec.

Examples are grouped with describe blocks, share before/after hooks and
lazily evaluated fixtures, and are reported by the selected formatter.`,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runCommand,
	}
	a.flags.register(rootCmd)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsageError, Err: err}
	})

	rootCmd.AddCommand(a.newRunCommand())
	rootCmd.AddCommand(a.newListCommand())
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(a.newVersionCommand())
	rootCmd.AddCommand(newCompletionCommand())
	return rootCmd
}

// Execute runs the command line against suite and exits the process with
// the run's exit code.
func Execute(suite *spec.Suite, version, buildTime string) {
	os.Exit(execute(NewRootCommand(suite, version, buildTime), os.Stderr))
}

func execute(rootCmd *cobra.Command, stderr io.Writer) int {
	err := rootCmd.Execute()
	var ee *ExitError
	if err != nil && (!errors.As(err, &ee) || ee.Err != nil) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return ExitCode(err)
}

func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &ExitError{Code: ExitUsageError, Err: err}
		}
		return nil
	}
}
