package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// SchemaVersion identifies the layout of the JSON metrics document.
const SchemaVersion = "1.0"

// JSONExporter exports metrics to JSON format
type JSONExporter struct {
	mu        sync.Mutex
	writer    io.Writer
	filePath  string
	pretty    bool
	clock     func() time.Time
	metrics   []*TestMetrics
	startTime time.Time
}

// JSONOption is a functional option for JSONExporter
type JSONOption func(*JSONExporter)

// WithJSONWriter sets the output writer for JSON metrics
func WithJSONWriter(w io.Writer) JSONOption {
	return func(j *JSONExporter) {
		j.writer = w
	}
}

// WithJSONFile sets the output file for JSON metrics
func WithJSONFile(path string) JSONOption {
	return func(j *JSONExporter) {
		j.filePath = path
	}
}

// WithJSONPretty enables pretty-printed JSON output
func WithJSONPretty(pretty bool) JSONOption {
	return func(j *JSONExporter) {
		j.pretty = pretty
	}
}

// WithJSONClock replaces the clock used for metadata timestamps
func WithJSONClock(clock func() time.Time) JSONOption {
	return func(j *JSONExporter) {
		j.clock = clock
	}
}

// NewJSONExporter creates a new JSON metrics exporter
func NewJSONExporter(opts ...JSONOption) *JSONExporter {
	j := &JSONExporter{
		pretty: true,
		clock:  time.Now,
	}

	for _, opt := range opts {
		opt(j)
	}
	j.startTime = j.clock()

	return j
}

// JSONMetricsOutput is the complete JSON output structure
type JSONMetricsOutput struct {
	Metadata JSONMetadata      `json:"metadata"`
	Summary  *AggregateMetrics `json:"summary"`
	Examples []*TestMetrics    `json:"examples"`
}

// JSONMetadata contains metadata about the metrics collection
type JSONMetadata struct {
	GeneratedAt string `json:"generated_at"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Duration    string `json:"duration"`
	Version     string `json:"version"`
}

// Export exports aggregated metrics to JSON
func (j *JSONExporter) Export(metrics *AggregateMetrics) error {
	j.mu.Lock()
	examples := append([]*TestMetrics{}, j.metrics...)
	j.mu.Unlock()

	endTime := j.clock()
	output := JSONMetricsOutput{
		Metadata: JSONMetadata{
			GeneratedAt: endTime.UTC().Format(time.RFC3339),
			StartTime:   j.startTime.UTC().Format(time.RFC3339),
			EndTime:     endTime.UTC().Format(time.RFC3339),
			Duration:    endTime.Sub(j.startTime).String(),
			Version:     SchemaVersion,
		},
		Summary:  metrics,
		Examples: examples,
	}

	var data []byte
	var err error

	if j.pretty {
		data, err = json.MarshalIndent(output, "", "  ")
	} else {
		data, err = json.Marshal(output)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	if j.filePath != "" {
		if err := os.WriteFile(j.filePath, data, 0644); err != nil {
			return fmt.Errorf("failed to write metrics file: %w", err)
		}
	}

	if j.writer != nil {
		if _, err := j.writer.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	return nil
}

// ExportSingle records a single example metric
func (j *JSONExporter) ExportSingle(metric *TestMetrics) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.metrics = append(j.metrics, metric)
	return nil
}

// Close closes the JSON exporter
func (j *JSONExporter) Close() error {
	return nil
}
