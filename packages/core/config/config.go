package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the itspec configuration
type Config struct {
	Timeout         int      `json:"timeout,omitempty" yaml:"timeout,omitempty"`         // milliseconds
	HookTimeout     int      `json:"hookTimeout,omitempty" yaml:"hookTimeout,omitempty"` // milliseconds
	Format          string   `json:"format,omitempty" yaml:"format,omitempty"`
	OutputFile      string   `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
	Filter          string   `json:"filter,omitempty" yaml:"filter,omitempty"`
	Bail            *bool    `json:"bail,omitempty" yaml:"bail,omitempty"`
	Verbose         *bool    `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	NoColor         *bool    `json:"noColor,omitempty" yaml:"noColor,omitempty"`
	SnapshotDir     string   `json:"snapshotDir,omitempty" yaml:"snapshotDir,omitempty"`
	UpdateSnapshots *bool    `json:"updateSnapshots,omitempty" yaml:"updateSnapshots,omitempty"`
	Metrics         string   `json:"metrics,omitempty" yaml:"metrics,omitempty"` // json or prometheus
	MetricsFile     string   `json:"metricsFile,omitempty" yaml:"metricsFile,omitempty"`
	MetricsPort     int      `json:"metricsPort,omitempty" yaml:"metricsPort,omitempty"`
	Notify          []string `json:"notify,omitempty" yaml:"notify,omitempty"` // slack, teams
	NotifyOn        string   `json:"notifyOn,omitempty" yaml:"notifyOn,omitempty"`
	SlackWebhook    string   `json:"slackWebhook,omitempty" yaml:"slackWebhook,omitempty"`
	SlackChannel    string   `json:"slackChannel,omitempty" yaml:"slackChannel,omitempty"`
	TeamsWebhook    string   `json:"teamsWebhook,omitempty" yaml:"teamsWebhook,omitempty"`
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetBail returns the bail setting, defaulting to false
func (c *Config) GetBail() bool {
	return getBool(c.Bail, false)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetUpdateSnapshots returns the update snapshots setting, defaulting to false
func (c *Config) GetUpdateSnapshots() bool {
	return getBool(c.UpdateSnapshots, false)
}

// TimeoutDuration returns the example timeout
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// HookTimeoutDuration returns the hook timeout
func (c *Config) HookTimeoutDuration() time.Duration {
	return time.Duration(c.HookTimeout) * time.Millisecond
}

// Validate reports settings that can never work.
func (c *Config) Validate() error {
	var errs []error
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %d", c.Timeout))
	}
	if c.HookTimeout < 0 {
		errs = append(errs, fmt.Errorf("hookTimeout must not be negative, got %d", c.HookTimeout))
	}
	switch c.Metrics {
	case "", "json", "prometheus":
	default:
		errs = append(errs, fmt.Errorf("unknown metrics exporter %q (valid: json, prometheus)", c.Metrics))
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("metricsPort out of range: %d", c.MetricsPort))
	}
	for _, n := range c.Notify {
		switch n {
		case "slack":
			if c.SlackWebhook == "" {
				errs = append(errs, errors.New("slack notifications need slackWebhook"))
			}
		case "teams":
			if c.TeamsWebhook == "" {
				errs = append(errs, errors.New("teams notifications need teamsWebhook"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown notifier %q (valid: slack, teams)", n))
		}
	}
	return errors.Join(errs...)
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".itspec.yaml",
	".itspec.yml",
	".itspec.json",
	"itspec.config.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	return FindAndLoadConfig(".")
}

// FindConfigFile returns the first config file present in dir, or "".
func FindConfigFile(dir string) string {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}
	return ""
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	if path := FindConfigFile(dir); path != "" {
		return loadConfigFromFile(path)
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.HookTimeout > 0 {
		result.HookTimeout = other.HookTimeout
	}
	if other.Format != "" {
		result.Format = other.Format
	}
	if other.OutputFile != "" {
		result.OutputFile = other.OutputFile
	}
	if other.Filter != "" {
		result.Filter = other.Filter
	}
	if other.SnapshotDir != "" {
		result.SnapshotDir = other.SnapshotDir
	}
	if other.Metrics != "" {
		result.Metrics = other.Metrics
	}
	if other.MetricsFile != "" {
		result.MetricsFile = other.MetricsFile
	}
	if other.MetricsPort > 0 {
		result.MetricsPort = other.MetricsPort
	}
	if other.NotifyOn != "" {
		result.NotifyOn = other.NotifyOn
	}
	if other.SlackWebhook != "" {
		result.SlackWebhook = other.SlackWebhook
	}
	if other.SlackChannel != "" {
		result.SlackChannel = other.SlackChannel
	}
	if other.TeamsWebhook != "" {
		result.TeamsWebhook = other.TeamsWebhook
	}

	// Boolean flags - only override if explicitly set in other config
	if other.Bail != nil {
		result.Bail = other.Bail
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}
	if other.UpdateSnapshots != nil {
		result.UpdateSnapshots = other.UpdateSnapshots
	}

	if len(other.Notify) > 0 {
		result.Notify = append([]string(nil), other.Notify...)
	}

	return &result
}

// SaveConfig saves the configuration to a file, as YAML or JSON by extension
func (c *Config) SaveConfig(path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
