package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/itspec/packages/core/config"
	"github.com/spf13/cobra"
)

// InitConfigFile is the file written by init.
const InitConfigFile = ".itspec.yaml"

func newInitCommand() *cobra.Command {
	var (
		force bool
		dir   string
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default itspec configuration",
		Long: `Write a .itspec.yaml with the default settings to the current directory.

Examples:
  myspec init
  myspec init --force
  myspec init --dir ./spec`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile := filepath.Join(dir, InitConfigFile)

			if !force {
				if _, err := os.Stat(configFile); err == nil {
					return usageError("file already exists: %s (use --force to overwrite)", configFile)
				}
			}

			if err := config.DefaultConfig().SaveConfig(configFile); err != nil {
				return fmt.Errorf("failed to create config file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)
			return nil
		},
	}

	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	initCmd.Flags().StringVar(&dir, "dir", ".", "Directory to write the config file to")
	return initCmd
}
