package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:     5000, // 5 seconds
		HookTimeout: 2000, // 2 seconds
		Format:      "progress",
		NotifyOn:    "failure",
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.Timeout == defaults.Timeout &&
		c.HookTimeout == defaults.HookTimeout &&
		c.Format == defaults.Format &&
		c.OutputFile == "" &&
		c.Filter == "" &&
		c.Bail == nil &&
		c.Verbose == nil &&
		c.NoColor == nil &&
		c.SnapshotDir == "" &&
		c.UpdateSnapshots == nil &&
		c.Metrics == "" &&
		c.MetricsFile == "" &&
		c.MetricsPort == 0 &&
		len(c.Notify) == 0 &&
		c.NotifyOn == defaults.NotifyOn &&
		c.SlackWebhook == "" &&
		c.SlackChannel == "" &&
		c.TeamsWebhook == ""
}
