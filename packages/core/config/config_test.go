package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	assert.Equal(t, 5*time.Second, c.TimeoutDuration())
	assert.Equal(t, 2*time.Second, c.HookTimeoutDuration())
	assert.Equal(t, "progress", c.Format)
	assert.False(t, c.GetBail())
	assert.False(t, c.GetVerbose())
	assert.False(t, c.GetNoColor())
	assert.False(t, c.GetUpdateSnapshots())
	assert.True(t, c.IsDefault())
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".itspec.yaml", `
timeout: 1500
format: documentation
bail: true
notify: [slack]
slackWebhook: https://hooks.example.com/x
`)

	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, c.TimeoutDuration())
	assert.Equal(t, 2000, c.HookTimeout, "defaults survive a partial file")
	assert.Equal(t, "documentation", c.Format)
	assert.True(t, c.GetBail())
	assert.Equal(t, []string{"slack"}, c.Notify)
	assert.False(t, c.IsDefault())
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "itspec.config.json", `{"hookTimeout": 100, "noColor": true, "metrics": "prometheus"}`)

	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 100*time.Millisecond, c.HookTimeoutDuration())
	assert.True(t, c.GetNoColor())
	assert.Equal(t, "prometheus", c.Metrics)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	bad := writeFile(t, dir, ".itspec.json", `{"timeout": "soon"}`)
	_, err = LoadConfig(bad)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestFindAndLoadConfig(t *testing.T) {
	dir := t.TempDir()

	c, err := FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.True(t, c.IsDefault())
	assert.Empty(t, FindConfigFile(dir))

	writeFile(t, dir, "itspec.config.json", `{"format": "json"}`)
	writeFile(t, dir, ".itspec.yml", "format: tap\n")

	assert.Equal(t, filepath.Join(dir, ".itspec.yml"), FindConfigFile(dir))
	c, err = FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "tap", c.Format)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Bail = BoolPtr(true)
	base.Notify = []string{"teams"}

	merged := base.Merge(&Config{
		Timeout: 100,
		Filter:  "adds",
		Verbose: BoolPtr(true),
		Bail:    BoolPtr(false),
	})

	assert.Equal(t, 100, merged.Timeout)
	assert.Equal(t, 2000, merged.HookTimeout)
	assert.Equal(t, "adds", merged.Filter)
	assert.Equal(t, "progress", merged.Format)
	assert.True(t, merged.GetVerbose())
	assert.False(t, merged.GetBail())
	assert.Equal(t, []string{"teams"}, merged.Notify)

	assert.True(t, base.GetBail(), "merge must not mutate the receiver")
	assert.Same(t, base, base.Merge(nil))
}

func TestValidate(t *testing.T) {
	c := DefaultConfig()
	c.Timeout = -1
	c.Metrics = "statsd"
	c.MetricsPort = 70000
	c.Notify = []string{"slack", "pager"}

	err := c.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"timeout must not be negative",
		`unknown metrics exporter "statsd"`,
		"metricsPort out of range",
		"slack notifications need slackWebhook",
		`unknown notifier "pager"`,
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	for _, name := range []string{".itspec.yaml", ".itspec.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			c := DefaultConfig()
			c.Format = "junit"
			c.UpdateSnapshots = BoolPtr(true)

			require.NoError(t, c.SaveConfig(path))
			loaded, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, c, loaded)
		})
	}
}
