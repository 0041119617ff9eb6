// Package cmd implements the itspec CLI commands using Cobra.
//
// A spec binary declares its examples on a suite and hands it to Execute.
// Available commands:
//   - run: Execute the suite (also the default when no command is given)
//   - list: Display the declared groups and examples without running them
//   - init: Write a default .itspec.yaml
//   - watch: Re-run a command whenever Go sources change
//   - version: Show version information
//   - completion: Generate shell completion scripts
//
// Flags default from ITSPEC_* environment variables and override values
// from the config file.
package cmd
