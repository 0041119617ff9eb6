package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/itspec/packages/core/config"
	"github.com/abdul-hamid-achik/itspec/packages/core/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calculatorSuite(failing bool) *spec.Suite {
	s := spec.NewSuite("calculator")
	s.Describe("Calculator", func(g *spec.Group) {
		g.Subject(func(c *spec.Context) any { return 40 })
		g.It("adds", func(c *spec.Context) {
			c.Assert().Equal(42, spec.Fetch[int](c, spec.SubjectName)+2)
		})
		g.Pending("divides")
		g.Describe("async", func(g *spec.Group) {
			g.ItAsync("waits", func(c *spec.Context, done spec.Done) {
				c.Go(func() {
					c.Assert().True(true)
					done(nil)
				})
			})
		})
		if failing {
			g.It("subtracts", func(c *spec.Context) {
				c.Assert().Equal(1, 2)
			})
		}
	})
	return s
}

type cliRun struct {
	stdout string
	stderr string
	code   int
}

func runCLI(t *testing.T, s *spec.Suite, args ...string) cliRun {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand(s, "1.2.3", "today")
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	code := execute(root, &stderr)
	return cliRun{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

func TestRun_Passing(t *testing.T) {
	r := runCLI(t, calculatorSuite(false), "--no-color", "--snapshot-dir", t.TempDir())

	assert.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, ".*.")
	assert.Contains(t, r.stdout, "3 specs (2 passed, 1 pending, 0 failed, 0 errored)")
}

func TestRun_FailureExitCode(t *testing.T) {
	r := runCLI(t, calculatorSuite(true), "run", "--no-color", "--format", "documentation", "--snapshot-dir", t.TempDir())

	assert.Equal(t, ExitTestFailure, r.code)
	assert.Contains(t, r.stdout, "FAILED: subtracts")
	assert.Empty(t, r.stderr, "a failing run is reported by the formatter only")
}

func TestRun_ErrorExitCode(t *testing.T) {
	s := spec.NewSuite("errors")
	s.Describe("Broken", func(g *spec.Group) {
		g.It("panics", func(c *spec.Context) {
			panic(errors.New("boom"))
		})
	})

	r := runCLI(t, s, "--no-color", "--snapshot-dir", t.TempDir())
	assert.Equal(t, ExitTestError, r.code)
}

func TestRun_FilterAndBail(t *testing.T) {
	r := runCLI(t, calculatorSuite(true), "-n", "adds$", "--format", "json", "--snapshot-dir", t.TempDir())
	require.Equal(t, ExitSuccess, r.code, r.stderr)

	var out struct {
		RunID   string `json:"runId"`
		Version string `json:"version"`
		Summary struct {
			Total int `json:"total"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &out))
	assert.Equal(t, 1, out.Summary.Total)
	assert.Equal(t, "1.2.3", out.Version)
	assert.NotEmpty(t, out.RunID)

	r = runCLI(t, calculatorSuite(true), "--bail", "--no-color", "--format", "tap", "--snapshot-dir", t.TempDir())
	assert.Equal(t, ExitTestFailure, r.code)
	assert.Contains(t, r.stdout, "not ok 4 - Calculator subtracts")
}

func TestRun_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xml")
	r := runCLI(t, calculatorSuite(false), "--format", "junit", "--output-file", path, "--snapshot-dir", t.TempDir())
	require.Equal(t, ExitSuccess, r.code, r.stderr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<testsuites")
	assert.Empty(t, r.stdout)
}

func TestRun_EnvDefaults(t *testing.T) {
	t.Setenv("ITSPEC_FORMAT", "documentation")
	t.Setenv("ITSPEC_NO_COLOR", "true")
	t.Setenv("ITSPEC_SNAPSHOT_DIR", t.TempDir())

	r := runCLI(t, calculatorSuite(false))
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Calculator\n  adds\n  PENDING: divides\n")
}

func TestRun_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".itspec.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: tap\ntimeout: 250\nsnapshotDir: "+dir+"\n"), 0644))

	s := calculatorSuite(false)
	r := runCLI(t, s, "--config", path)
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "TAP version 13")
	assert.Equal(t, 250*time.Millisecond, s.DefaultTimeout())

	r = runCLI(t, calculatorSuite(false), "--config", path, "--format", "json")
	assert.Contains(t, r.stdout, `"summary"`, "flags override the file")
}

func TestRun_Timeouts(t *testing.T) {
	s := spec.NewSuite("slow")
	s.Describe("Slow", func(g *spec.Group) {
		g.ItAsync("never finishes", func(c *spec.Context, done spec.Done) {})
	})

	start := time.Now()
	r := runCLI(t, s, "--timeout", "50ms", "--hook-timeout", "20ms", "--no-color", "--snapshot-dir", t.TempDir())
	assert.Equal(t, ExitTestError, r.code)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Contains(t, r.stdout, "did not complete within 50ms")
	assert.Equal(t, 20*time.Millisecond, s.DefaultHookTimeout())
}

func TestRun_MetricsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	r := runCLI(t, calculatorSuite(false), "--metrics", "json", "--metrics-file", path, "--snapshot-dir", t.TempDir())
	require.Equal(t, ExitSuccess, r.code, r.stderr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"total_examples": 3`)
}

func TestRun_MetricsPrometheusFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.prom")
	r := runCLI(t, calculatorSuite(false), "--metrics", "prometheus", "--metrics-file", path, "--snapshot-dir", t.TempDir())
	require.Equal(t, ExitSuccess, r.code, r.stderr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "itspec_examples_total 3 ")
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
		msg  string
	}{
		{"unknown flag", []string{"--nope"}, ExitUsageError, "unknown flag: --nope"},
		{"stray argument", []string{"run", "extra"}, ExitUsageError, "unknown command"},
		{"bad format", []string{"--format", "xml"}, ExitUsageError, `unknown format "xml"`},
		{"bad filter", []string{"--filter", "("}, ExitUsageError, `invalid filter "("`},
		{"bad timeout", []string{"--timeout", "soon"}, ExitUsageError, `invalid timeout value "soon"`},
		{"bad metrics", []string{"--metrics", "statsd"}, ExitConfigError, `unknown metrics exporter "statsd"`},
		{"missing webhook", []string{"--notify", "slack"}, ExitConfigError, "slack notifications need slackWebhook"},
		{"missing config", []string{"--config", "/does/not/exist.yaml"}, ExitConfigError, "failed to read config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runCLI(t, calculatorSuite(false), tt.args...)
			assert.Equal(t, tt.code, r.code)
			assert.Contains(t, r.stderr, tt.msg)
		})
	}
}

func TestList(t *testing.T) {
	r := runCLI(t, calculatorSuite(true), "list")
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	assert.Equal(t, "Calculator\n"+
		"  - adds\n"+
		"  - divides (pending)\n"+
		"  async\n"+
		"    - waits (async)\n"+
		"  - subtracts\n"+
		"\n4 example(s)\n", r.stdout)

	r = runCLI(t, calculatorSuite(true), "list", "--filter", "async")
	assert.Contains(t, r.stdout, "    - waits (async)\n")
	assert.NotContains(t, r.stdout, "adds")
	assert.Contains(t, r.stdout, "1 example(s)")
}

func TestInit(t *testing.T) {
	dir := t.TempDir()

	r := runCLI(t, calculatorSuite(false), "init", "--dir", dir)
	require.Equal(t, ExitSuccess, r.code, r.stderr)
	path := filepath.Join(dir, InitConfigFile)
	assert.Contains(t, r.stdout, "Created: "+path)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	r = runCLI(t, calculatorSuite(false), "init", "--dir", dir)
	assert.Equal(t, ExitUsageError, r.code)
	assert.Contains(t, r.stderr, "use --force to overwrite")

	r = runCLI(t, calculatorSuite(false), "init", "--dir", dir, "--force")
	assert.Equal(t, ExitSuccess, r.code)
}

func TestVersion(t *testing.T) {
	r := runCLI(t, calculatorSuite(false), "version")
	assert.Equal(t, "itspec version 1.2.3\nBuilt: today\nSuite: calculator\n", r.stdout)
}

func TestCompletion(t *testing.T) {
	r := runCLI(t, calculatorSuite(false), "completion", "bash")
	assert.Equal(t, ExitSuccess, r.code)
	assert.Contains(t, r.stdout, "bash completion")

	r = runCLI(t, calculatorSuite(false), "completion", "tcsh")
	assert.Equal(t, ExitUsageError, r.code)
}

func TestWatch_NeedsCommand(t *testing.T) {
	r := runCLI(t, calculatorSuite(false), "watch", ".")
	assert.Equal(t, ExitUsageError, r.code)
	assert.Contains(t, r.stderr, "watch needs a command after --")
}

func TestWatcher_RerunsOnGoChanges(t *testing.T) {
	dir := t.TempDir()
	runs := make(chan struct{}, 10)
	var count atomic.Int32

	var out bytes.Buffer
	w := &watcher{
		paths:    []string{dir},
		debounce: 100 * time.Millisecond,
		out:      &out,
		errOut:   &out,
		run: func(context.Context) error {
			count.Add(1)
			runs <- struct{}{}
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan error, 1)
	go func() { finished <- w.watch(ctx) }()

	wait := func() {
		t.Helper()
		select {
		case <-runs:
		case <-time.After(5 * time.Second):
			t.Fatal("command was not run")
		}
	}

	wait()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n"), 0644))
	wait()

	cancel()
	select {
	case err := <-finished:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.Equal(t, int32(2), count.Load())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitTestFailure, ExitCode(errors.New("x")))
	assert.Equal(t, ExitConfigError, ExitCode(configError("bad")))
	assert.Equal(t, "exit status 2", (&ExitError{Code: 2}).Error())
}

func TestIsGoSource(t *testing.T) {
	assert.True(t, isGoSource("spec/main.go"))
	assert.False(t, isGoSource("README.md"))
}
