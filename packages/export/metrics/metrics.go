// Package metrics provides metrics export functionality for itspec runs.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/abdul-hamid-achik/itspec/packages/core/result"
	"github.com/abdul-hamid-achik/itspec/packages/core/spec"
)

// Histogram bounds in microseconds: 1us to 1h, 3 significant digits.
const (
	histogramMin    = 1
	histogramMax    = 3_600_000_000
	histogramDigits = 3
)

// TestMetrics represents metrics collected from a single example
type TestMetrics struct {
	TestName       string    `json:"test_name"`
	FullName       string    `json:"full_name"`
	Group          string    `json:"group,omitempty"`
	Status         string    `json:"status"`
	DurationMs     float64   `json:"duration_ms"`
	Passed         bool      `json:"passed"`
	AssertionCount int       `json:"assertion_count"`
	Timestamp      time.Time `json:"timestamp"`
}

// AggregateMetrics represents aggregated metrics over a run
type AggregateMetrics struct {
	TotalExamples   int64                      `json:"total_examples"`
	PassCount       int64                      `json:"pass_count"`
	PendingCount    int64                      `json:"pending_count"`
	FailureCount    int64                      `json:"failure_count"`
	ErrorCount      int64                      `json:"error_count"`
	TotalAssertions int64                      `json:"total_assertions"`
	TotalDurationMs float64                    `json:"total_duration_ms"`
	MinDurationMs   float64                    `json:"min_duration_ms"`
	MaxDurationMs   float64                    `json:"max_duration_ms"`
	AvgDurationMs   float64                    `json:"avg_duration_ms"`
	P50DurationMs   float64                    `json:"p50_duration_ms"`
	P95DurationMs   float64                    `json:"p95_duration_ms"`
	P99DurationMs   float64                    `json:"p99_duration_ms"`
	ByGroup         map[string]*GroupAggregate `json:"by_group"`
}

// GroupAggregate represents aggregated metrics for the examples directly
// inside one group
type GroupAggregate struct {
	Name          string  `json:"name"`
	TotalExamples int64   `json:"total_examples"`
	PassCount     int64   `json:"pass_count"`
	PendingCount  int64   `json:"pending_count"`
	FailureCount  int64   `json:"failure_count"`
	ErrorCount    int64   `json:"error_count"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
	MinDurationMs float64 `json:"min_duration_ms"`
	MaxDurationMs float64 `json:"max_duration_ms"`
}

// Groups returns the group names in sorted order.
func (a *AggregateMetrics) Groups() []string {
	names := make([]string, 0, len(a.ByGroup))
	for name := range a.ByGroup {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *AggregateMetrics) clone() *AggregateMetrics {
	c := *a
	c.ByGroup = make(map[string]*GroupAggregate, len(a.ByGroup))
	for name, g := range a.ByGroup {
		gc := *g
		c.ByGroup[name] = &gc
	}
	return &c
}

// Exporter is the interface for metrics exporters
type Exporter interface {
	// Export exports metrics to the target destination
	Export(metrics *AggregateMetrics) error

	// ExportSingle exports a single example metric
	ExportSingle(metric *TestMetrics) error

	// Close closes the exporter and flushes any buffered data
	Close() error
}

// aggregator folds example metrics into an AggregateMetrics, keeping the
// duration histogram the percentiles are read from.
type aggregator struct {
	agg       *AggregateMetrics
	histogram *hdrhistogram.Histogram
}

func newAggregator() *aggregator {
	return &aggregator{
		agg:       &AggregateMetrics{ByGroup: make(map[string]*GroupAggregate)},
		histogram: hdrhistogram.New(histogramMin, histogramMax, histogramDigits),
	}
}

func (a *aggregator) add(m *TestMetrics) {
	agg := a.agg
	agg.TotalExamples++
	agg.TotalDurationMs += m.DurationMs
	agg.TotalAssertions += int64(m.AssertionCount)
	countStatus(m.Status, &agg.PassCount, &agg.PendingCount, &agg.FailureCount, &agg.ErrorCount)

	if agg.TotalExamples == 1 {
		agg.MinDurationMs = m.DurationMs
		agg.MaxDurationMs = m.DurationMs
	} else {
		agg.MinDurationMs = min(agg.MinDurationMs, m.DurationMs)
		agg.MaxDurationMs = max(agg.MaxDurationMs, m.DurationMs)
	}
	agg.AvgDurationMs = agg.TotalDurationMs / float64(agg.TotalExamples)

	us := int64(m.DurationMs * 1000)
	_ = a.histogram.RecordValue(min(max(us, histogramMin), histogramMax))
	agg.P50DurationMs = float64(a.histogram.ValueAtQuantile(50)) / 1000
	agg.P95DurationMs = float64(a.histogram.ValueAtQuantile(95)) / 1000
	agg.P99DurationMs = float64(a.histogram.ValueAtQuantile(99)) / 1000

	ga, ok := agg.ByGroup[m.Group]
	if !ok {
		ga = &GroupAggregate{
			Name:          m.Group,
			MinDurationMs: m.DurationMs,
			MaxDurationMs: m.DurationMs,
		}
		agg.ByGroup[m.Group] = ga
	}
	ga.TotalExamples++
	countStatus(m.Status, &ga.PassCount, &ga.PendingCount, &ga.FailureCount, &ga.ErrorCount)
	ga.MinDurationMs = min(ga.MinDurationMs, m.DurationMs)
	ga.MaxDurationMs = max(ga.MaxDurationMs, m.DurationMs)
	ga.AvgDurationMs = (ga.AvgDurationMs*float64(ga.TotalExamples-1) + m.DurationMs) / float64(ga.TotalExamples)
}

func countStatus(status string, pass, pending, fail, errored *int64) {
	switch status {
	case result.Pass.String():
		*pass++
	case result.Pending.String():
		*pending++
	case result.Fail.String():
		*fail++
	default:
		*errored++
	}
}

// Collector is a spec.Reporter that collects metrics from a run
type Collector struct {
	spec.NopReporter

	mu        sync.Mutex
	clock     func() time.Time
	metrics   []*TestMetrics
	aggregate *aggregator
	exporters []Exporter
}

// NewCollector creates a new metrics collector
func NewCollector(exporters ...Exporter) *Collector {
	return &Collector{
		clock:     time.Now,
		aggregate: newAggregator(),
		exporters: exporters,
	}
}

// ExampleComplete records the outcome of an example.
func (c *Collector) ExampleComplete(e *spec.Example, out result.Outcome) {
	m := &TestMetrics{
		TestName:       e.Description(),
		FullName:       e.FullDescription(),
		Status:         out.Status.String(),
		DurationMs:     float64(out.Duration.Microseconds()) / 1000,
		Passed:         out.Status == result.Pass,
		AssertionCount: out.Assertions,
		Timestamp:      c.clock(),
	}
	if g := e.Group(); g != nil {
		m.Group = g.FullDescription()
	}
	c.Record(m)
}

// Record records an example metric
func (c *Collector) Record(m *TestMetrics) {
	c.mu.Lock()
	c.metrics = append(c.metrics, m)
	c.aggregate.add(m)
	c.mu.Unlock()

	for _, exp := range c.exporters {
		_ = exp.ExportSingle(m)
	}
}

// Metrics returns the recorded example metrics in run order.
func (c *Collector) Metrics() []*TestMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*TestMetrics(nil), c.metrics...)
}

// GetAggregate returns a copy of the aggregated metrics
func (c *Collector) GetAggregate() *AggregateMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aggregate.agg.clone()
}

// Flush exports all aggregated metrics
func (c *Collector) Flush() error {
	agg := c.GetAggregate()
	for _, exp := range c.exporters {
		if err := exp.Export(agg); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all exporters
func (c *Collector) Close() error {
	for _, exp := range c.exporters {
		if err := exp.Close(); err != nil {
			return err
		}
	}
	return nil
}
