// Package config handles configuration loading and management for itspec.
//
// It provides functionality for:
//   - Loading configuration from .itspec.yaml, .itspec.yml or .itspec.json
//   - Default configuration values
//   - Merging file settings with command-line overrides
package config
