package metrics

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// PrometheusExporter exports metrics in Prometheus text format
type PrometheusExporter struct {
	mu        sync.RWMutex
	aggregate *aggregator
	final     *AggregateMetrics
	writer    io.Writer
	serveHTTP bool
	addr      string
	clock     func() time.Time
	listener  net.Listener
	server    *http.Server
}

// PrometheusOption is a functional option for PrometheusExporter
type PrometheusOption func(*PrometheusExporter)

// WithPrometheusWriter sets the output writer for Prometheus metrics
func WithPrometheusWriter(w io.Writer) PrometheusOption {
	return func(p *PrometheusExporter) {
		p.writer = w
	}
}

// WithPrometheusHTTP enables the /metrics endpoint on the given port.
// Port 0 picks a free port; see Addr.
func WithPrometheusHTTP(port int) PrometheusOption {
	return func(p *PrometheusExporter) {
		p.serveHTTP = true
		p.addr = fmt.Sprintf(":%d", port)
	}
}

// WithPrometheusClock replaces the clock used for sample timestamps
func WithPrometheusClock(clock func() time.Time) PrometheusOption {
	return func(p *PrometheusExporter) {
		p.clock = clock
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter. It only
// fails when the HTTP endpoint cannot listen.
func NewPrometheusExporter(opts ...PrometheusOption) (*PrometheusExporter, error) {
	p := &PrometheusExporter{
		aggregate: newAggregator(),
		clock:     time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.serveHTTP {
		if err := p.startHTTPServer(); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (p *PrometheusExporter) startHTTPServer() error {
	ln, err := net.Listen("tcp", p.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", p.addr, err)
	}
	p.listener = ln

	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())
	p.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := p.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "warning: metrics server error: %v\n", err)
		}
	}()
	return nil
}

// Addr returns the address of the HTTP endpoint, or "" when not serving.
func (p *PrometheusExporter) Addr() string {
	if p.listener == nil {
		return ""
	}
	return p.listener.Addr().String()
}

// Handler serves the current metrics in Prometheus text format.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		p.WriteTo(w)
	})
}

// Export exports aggregated metrics
func (p *PrometheusExporter) Export(metrics *AggregateMetrics) error {
	p.mu.Lock()
	p.final = metrics
	p.mu.Unlock()

	if p.writer != nil {
		if _, err := p.WriteTo(p.writer); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	return nil
}

// ExportSingle folds a single example metric into the live aggregate
func (p *PrometheusExporter) ExportSingle(metric *TestMetrics) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.aggregate.add(metric)
	return nil
}

// WriteTo writes the current metrics to w.
func (p *PrometheusExporter) WriteTo(w io.Writer) (int64, error) {
	p.mu.RLock()
	agg := p.final
	if agg == nil {
		agg = p.aggregate.agg.clone()
	}
	p.mu.RUnlock()

	cw := &countingWriter{w: w}
	writeMetrics(cw, agg, p.clock().UnixMilli())
	return cw.n, cw.err
}

func writeMetrics(w io.Writer, agg *AggregateMetrics, now int64) {
	fmt.Fprintf(w, "# HELP itspec_examples_total Total number of examples run\n")
	fmt.Fprintf(w, "# TYPE itspec_examples_total counter\n")
	fmt.Fprintf(w, "itspec_examples_total %d %d\n", agg.TotalExamples, now)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP itspec_examples_by_status_total Examples by outcome\n")
	fmt.Fprintf(w, "# TYPE itspec_examples_by_status_total counter\n")
	fmt.Fprintf(w, "itspec_examples_by_status_total{status=\"pass\"} %d %d\n", agg.PassCount, now)
	fmt.Fprintf(w, "itspec_examples_by_status_total{status=\"pending\"} %d %d\n", agg.PendingCount, now)
	fmt.Fprintf(w, "itspec_examples_by_status_total{status=\"fail\"} %d %d\n", agg.FailureCount, now)
	fmt.Fprintf(w, "itspec_examples_by_status_total{status=\"error\"} %d %d\n", agg.ErrorCount, now)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP itspec_assertions_total Total number of assertions counted\n")
	fmt.Fprintf(w, "# TYPE itspec_assertions_total counter\n")
	fmt.Fprintf(w, "itspec_assertions_total %d %d\n", agg.TotalAssertions, now)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP itspec_example_duration_ms Example duration in milliseconds\n")
	fmt.Fprintf(w, "# TYPE itspec_example_duration_ms gauge\n")
	fmt.Fprintf(w, "itspec_example_duration_ms{quantile=\"min\"} %.2f %d\n", agg.MinDurationMs, now)
	fmt.Fprintf(w, "itspec_example_duration_ms{quantile=\"max\"} %.2f %d\n", agg.MaxDurationMs, now)
	fmt.Fprintf(w, "itspec_example_duration_ms{quantile=\"avg\"} %.2f %d\n", agg.AvgDurationMs, now)
	if agg.P50DurationMs > 0 {
		fmt.Fprintf(w, "itspec_example_duration_ms{quantile=\"0.50\"} %.2f %d\n", agg.P50DurationMs, now)
	}
	if agg.P95DurationMs > 0 {
		fmt.Fprintf(w, "itspec_example_duration_ms{quantile=\"0.95\"} %.2f %d\n", agg.P95DurationMs, now)
	}
	if agg.P99DurationMs > 0 {
		fmt.Fprintf(w, "itspec_example_duration_ms{quantile=\"0.99\"} %.2f %d\n", agg.P99DurationMs, now)
	}

	if len(agg.ByGroup) == 0 {
		return
	}
	names := agg.Groups()
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP itspec_group_examples_total Examples per group\n")
	fmt.Fprintf(w, "# TYPE itspec_group_examples_total counter\n")
	for _, name := range names {
		ga := agg.ByGroup[name]
		fmt.Fprintf(w, "itspec_group_examples_total{group=\"%s\"} %d %d\n", sanitizeLabel(name), ga.TotalExamples, now)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP itspec_group_failures_total Failed or errored examples per group\n")
	fmt.Fprintf(w, "# TYPE itspec_group_failures_total counter\n")
	for _, name := range names {
		ga := agg.ByGroup[name]
		fmt.Fprintf(w, "itspec_group_failures_total{group=\"%s\"} %d %d\n", sanitizeLabel(name), ga.FailureCount+ga.ErrorCount, now)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP itspec_group_duration_avg_ms Average example duration per group\n")
	fmt.Fprintf(w, "# TYPE itspec_group_duration_avg_ms gauge\n")
	for _, name := range names {
		ga := agg.ByGroup[name]
		fmt.Fprintf(w, "itspec_group_duration_avg_ms{group=\"%s\"} %.2f %d\n", sanitizeLabel(name), ga.AvgDurationMs, now)
	}
}

// sanitizeLabel makes a string safe for use as a Prometheus label value
func sanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}

// Close shuts down the HTTP endpoint, if any
func (p *PrometheusExporter) Close() error {
	if p.server != nil {
		return p.server.Close()
	}
	return nil
}
