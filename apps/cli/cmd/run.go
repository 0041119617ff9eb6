package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/itspec/packages/core/config"
	"github.com/abdul-hamid-achik/itspec/packages/core/spec"
	"github.com/abdul-hamid-achik/itspec/packages/export/metrics"
	"github.com/abdul-hamid-achik/itspec/packages/notify"
	"github.com/abdul-hamid-achik/itspec/packages/output"
	"github.com/abdul-hamid-achik/itspec/packages/snapshot"
)

func (a *app) newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the suite",
		Long: `Run every example of the suite, or those matching --filter.

Examples:
  myspec run
  myspec run --filter "Calculator adds" --format documentation
  myspec run --bail --timeout 10s
  myspec run --format junit --output-file report.xml
  myspec run --metrics prometheus --metrics-port 9090
  myspec run --notify slack --notify-on failure`,
		Args: usageArgs(cobra.NoArgs),
		RunE: a.runCommand,
	}
}

type runFlags struct {
	configFile      string
	filter          string
	bail            bool
	format          string
	outputFile      string
	noColor         bool
	verbose         bool
	timeout         string
	hookTimeout     string
	updateSnapshots bool
	snapshotDir     string

	// Metrics flags
	metrics     string
	metricsFile string
	metricsPort int

	// Notification flags
	notify       string
	notifyOn     string
	slackWebhook string
	slackChannel string
	teamsWebhook string
}

func (f *runFlags) register(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()

	fs.StringVar(&f.configFile, "config", getEnvString("ITSPEC_CONFIG", ""), "Path to config file (env: ITSPEC_CONFIG)")
	fs.StringVarP(&f.filter, "filter", "n", getEnvString("ITSPEC_FILTER", ""), "Run only examples whose full description matches this regular expression (env: ITSPEC_FILTER)")
	fs.BoolVar(&f.bail, "bail", getEnvBool("ITSPEC_BAIL", false), "Stop after the first failing example (env: ITSPEC_BAIL)")

	// Output flags
	fs.StringVarP(&f.format, "format", "f", getEnvString("ITSPEC_FORMAT", ""), "Output format: "+strings.Join(output.Names(), ", ")+" (env: ITSPEC_FORMAT)")
	fs.StringVar(&f.outputFile, "output-file", getEnvString("ITSPEC_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: ITSPEC_OUTPUT_FILE)")
	fs.BoolVar(&f.noColor, "no-color", getEnvBool("ITSPEC_NO_COLOR", false), "Disable colored output (env: ITSPEC_NO_COLOR)")
	fs.BoolVarP(&f.verbose, "verbose", "v", getEnvBool("ITSPEC_VERBOSE", false), "Verbose output and debug logging (env: ITSPEC_VERBOSE)")

	// Execution flags
	fs.StringVar(&f.timeout, "timeout", getEnvString("ITSPEC_TIMEOUT", ""), "Default example timeout (e.g., 5s, 500ms) (env: ITSPEC_TIMEOUT)")
	fs.StringVar(&f.hookTimeout, "hook-timeout", getEnvString("ITSPEC_HOOK_TIMEOUT", ""), "Default hook timeout (e.g., 2s) (env: ITSPEC_HOOK_TIMEOUT)")

	// Snapshot testing flags
	fs.BoolVar(&f.updateSnapshots, "update-snapshots", getEnvBool("ITSPEC_UPDATE_SNAPSHOTS", false), "Update snapshot files instead of comparing (env: ITSPEC_UPDATE_SNAPSHOTS)")
	fs.StringVar(&f.snapshotDir, "snapshot-dir", getEnvString("ITSPEC_SNAPSHOT_DIR", ""), "Directory holding __snapshots__ (default: current directory) (env: ITSPEC_SNAPSHOT_DIR)")

	// Metrics flags
	fs.StringVar(&f.metrics, "metrics", getEnvString("ITSPEC_METRICS", ""), "Metrics export format: json, prometheus (env: ITSPEC_METRICS)")
	fs.StringVar(&f.metricsFile, "metrics-file", getEnvString("ITSPEC_METRICS_FILE", ""), "Output file for metrics (env: ITSPEC_METRICS_FILE)")
	fs.IntVar(&f.metricsPort, "metrics-port", getEnvInt("ITSPEC_METRICS_PORT", 0), "Port for the Prometheus /metrics endpoint, 0 disables it (env: ITSPEC_METRICS_PORT)")

	// Notification flags
	fs.StringVar(&f.notify, "notify", getEnvString("ITSPEC_NOTIFY", ""), "Notification services: slack, teams (env: ITSPEC_NOTIFY)")
	fs.StringVar(&f.notifyOn, "notify-on", getEnvString("ITSPEC_NOTIFY_ON", ""), "When to notify: always, failure, success, recovery (env: ITSPEC_NOTIFY_ON)")
	fs.StringVar(&f.slackWebhook, "slack-webhook", getEnvString("SLACK_WEBHOOK", ""), "Slack webhook URL (env: SLACK_WEBHOOK)")
	fs.StringVar(&f.slackChannel, "slack-channel", getEnvString("SLACK_CHANNEL", ""), "Slack channel override (env: SLACK_CHANNEL)")
	fs.StringVar(&f.teamsWebhook, "teams-webhook", getEnvString("TEAMS_WEBHOOK", ""), "Microsoft Teams webhook URL (env: TEAMS_WEBHOOK)")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func parseMillis(name, value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w (use format like 5s, 500ms)", name, value, err)
	}
	if d < time.Millisecond {
		return 0, fmt.Errorf("invalid %s value %q: must be at least 1ms", name, value)
	}
	return int(d.Milliseconds()), nil
}

// overrides turns the flags into a config layer. Bools only count when
// set, so an unset flag keeps the file's value.
func (f *runFlags) overrides(cmd *cobra.Command) (*config.Config, error) {
	c := &config.Config{
		Format:       f.format,
		OutputFile:   f.outputFile,
		Filter:       f.filter,
		SnapshotDir:  f.snapshotDir,
		Metrics:      strings.ToLower(f.metrics),
		MetricsFile:  f.metricsFile,
		MetricsPort:  f.metricsPort,
		NotifyOn:     f.notifyOn,
		SlackWebhook: f.slackWebhook,
		SlackChannel: f.slackChannel,
		TeamsWebhook: f.teamsWebhook,
	}

	var err error
	if c.Timeout, err = parseMillis("timeout", f.timeout); err != nil {
		return nil, err
	}
	if c.HookTimeout, err = parseMillis("hook-timeout", f.hookTimeout); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	set := func(name string, v bool) *bool {
		if v || flags.Changed(name) {
			return config.BoolPtr(v)
		}
		return nil
	}
	c.Bail = set("bail", f.bail)
	c.NoColor = set("no-color", f.noColor)
	c.Verbose = set("verbose", f.verbose)
	c.UpdateSnapshots = set("update-snapshots", f.updateSnapshots)

	for _, service := range strings.Split(f.notify, ",") {
		if service = strings.ToLower(strings.TrimSpace(service)); service != "" {
			c.Notify = append(c.Notify, service)
		}
	}
	return c, nil
}

// loadConfig merges the config file with the flags and validates the result.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	fileConfig, err := config.LoadConfig(a.flags.configFile)
	if err != nil {
		return nil, &ExitError{Code: ExitConfigError, Err: err}
	}
	flagConfig, err := a.flags.overrides(cmd)
	if err != nil {
		return nil, &ExitError{Code: ExitUsageError, Err: err}
	}

	cfg := fileConfig.Merge(flagConfig)
	if err := cfg.Validate(); err != nil {
		return nil, configError("invalid configuration: %w", err)
	}
	return cfg, nil
}

func policyFor(cfg *config.Config) (spec.Policy, error) {
	filter, err := spec.MatchDescription(cfg.Filter)
	if err != nil {
		return spec.Policy{}, usageError("%w", err)
	}
	return spec.Policy{Filter: filter, HaltOnFailure: cfg.GetBail()}, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (a *app) runCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	policy, err := policyFor(cfg)
	if err != nil {
		return err
	}

	// Setup output writer
	var outWriter io.Writer = cmd.OutOrStdout()
	if cfg.OutputFile != "" {
		f, err := os.Create(cfg.OutputFile)
		if err != nil {
			return configError("cannot create output file: %w", err)
		}
		defer f.Close()
		outWriter = f
	}

	runID := uuid.NewString()
	formatter, err := output.New(cfg.Format,
		output.WithWriter(outWriter),
		output.WithVerbose(cfg.GetVerbose()),
		output.WithNoColor(cfg.GetNoColor()),
		output.WithRunID(runID),
		output.WithVersion(a.version),
	)
	if err != nil {
		return usageError("%w", err)
	}
	reporters := spec.Reporters{formatter}

	collector, closeMetrics, err := a.metricsCollector(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeMetrics()
	if collector != nil {
		reporters = append(reporters, collector)
	}

	notifyManager, err := newNotifyManager(cfg)
	if err != nil {
		return err
	}
	summary := &notify.SummaryReporter{}
	if notifyManager != nil {
		reporters = append(reporters, summary)
	}

	snapshotDir := cfg.SnapshotDir
	if snapshotDir == "" {
		snapshotDir = "."
	}
	a.suite.Configure(
		spec.WithLogger(newLogger(cmd.ErrOrStderr(), cfg.GetVerbose())),
		spec.WithDefaultTimeout(cfg.TimeoutDuration()),
		spec.WithDefaultHookTimeout(cfg.HookTimeoutDuration()),
		spec.WithSnapshots(snapshot.NewManager(snapshotDir, a.suite.Name(), cfg.GetUpdateSnapshots())),
	)

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	res := a.suite.Run(ctx, policy, reporters)
	totalDuration := time.Since(start)

	if ctx.Err() != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "\nReceived interrupt, run stopped early")
	}

	// Flush output for formatters that accumulate results
	if flushable, ok := formatter.(output.Flushable); ok {
		if err := flushable.Flush(totalDuration); err != nil {
			return fmt.Errorf("error writing output: %w", err)
		}
	}

	if collector != nil {
		if err := collector.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to export metrics: %v\n", err)
		}
	}

	if notifyManager != nil {
		s := summary.Summary(totalDuration)
		s.RunID = runID
		if err := notifyManager.Notify(s); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to send notification: %v\n", err)
		}
	}

	if code := res.ExitCode(); code != ExitSuccess {
		return &ExitError{Code: code}
	}
	return nil
}

// metricsCollector sets up the configured exporter. The returned func
// releases files and listeners and is always safe to call.
func (a *app) metricsCollector(cmd *cobra.Command, cfg *config.Config) (*metrics.Collector, func(), error) {
	var closers []io.Closer
	release := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	var exporter metrics.Exporter
	switch cfg.Metrics {
	case "":
		return nil, release, nil
	case "json":
		jsonOpts := []metrics.JSONOption{}
		if cfg.MetricsFile != "" {
			jsonOpts = append(jsonOpts, metrics.WithJSONFile(cfg.MetricsFile))
		} else {
			jsonOpts = append(jsonOpts, metrics.WithJSONWriter(cmd.ErrOrStderr()))
		}
		exporter = metrics.NewJSONExporter(jsonOpts...)
	case "prometheus":
		promOpts := []metrics.PrometheusOption{}
		switch {
		case cfg.MetricsFile != "":
			f, err := os.Create(cfg.MetricsFile)
			if err != nil {
				return nil, release, configError("cannot create metrics file: %w", err)
			}
			closers = append(closers, f)
			promOpts = append(promOpts, metrics.WithPrometheusWriter(f))
		case cfg.MetricsPort == 0:
			promOpts = append(promOpts, metrics.WithPrometheusWriter(cmd.ErrOrStderr()))
		}
		if cfg.MetricsPort > 0 {
			promOpts = append(promOpts, metrics.WithPrometheusHTTP(cfg.MetricsPort))
		}
		prom, err := metrics.NewPrometheusExporter(promOpts...)
		if err != nil {
			release()
			return nil, func() {}, configError("%w", err)
		}
		if prom.Addr() != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Prometheus metrics available at http://%s/metrics\n", prom.Addr())
		}
		exporter = prom
	}

	collector := metrics.NewCollector(exporter)
	closers = append(closers, collector)
	return collector, release, nil
}

func newNotifyManager(cfg *config.Config) (*notify.Manager, error) {
	if len(cfg.Notify) == 0 {
		return nil, nil
	}
	notifyOn, err := notify.ParseNotifyOn(cfg.NotifyOn)
	if err != nil {
		return nil, configError("%w", err)
	}

	m := notify.NewManager(notifyOn)
	for _, service := range cfg.Notify {
		switch service {
		case "slack":
			slackOpts := []notify.SlackOption{}
			if cfg.SlackChannel != "" {
				slackOpts = append(slackOpts, notify.WithSlackChannel(cfg.SlackChannel))
			}
			m.AddNotifier(notify.NewSlackNotifier(cfg.SlackWebhook, slackOpts...))
		case "teams":
			m.AddNotifier(notify.NewTeamsNotifier(cfg.TeamsWebhook))
		}
	}
	return m, nil
}
