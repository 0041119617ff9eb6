package output

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/abdul-hamid-achik/itspec/packages/core/failure"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	RunID    string      `json:"runId"`
	Suite    string      `json:"suite,omitempty"`
	Version  string      `json:"version,omitempty"`
	Summary  JSONSummary `json:"summary"`
	Tests    []JSONTest  `json:"tests"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

// JSONSummary represents the run summary
type JSONSummary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Pending  int `json:"pending"`
	Failed   int `json:"failed"`
	Errored  int `json:"errored"`
	ExitCode int `json:"exitCode"`
}

// JSONTest represents a single example
type JSONTest struct {
	Name       string  `json:"name"`
	FullName   string  `json:"fullName"`
	Group      string  `json:"group,omitempty"`
	Status     string  `json:"status"`
	Duration   float64 `json:"duration"`
	Assertions int     `json:"assertions"`
	Error      string  `json:"error,omitempty"`
	Kind       string  `json:"kind,omitempty"`
	Expected   any     `json:"expected,omitempty"`
	Actual     any     `json:"actual,omitempty"`
}

// JSONFormatter formats a run as JSON
type JSONFormatter struct {
	collector
}

func NewJSONFormatter(opts ...Option) *JSONFormatter {
	return &JSONFormatter{collector: newCollector(opts)}
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	res := f.summary()

	tests := make([]JSONTest, 0, len(f.entries))
	for _, e := range f.entries {
		test := JSONTest{
			Name:       e.example.Description(),
			FullName:   e.example.FullDescription(),
			Group:      e.example.Group().FullDescription(),
			Status:     e.outcome.Status.String(),
			Duration:   ms(e.outcome.Duration),
			Assertions: e.outcome.Assertions,
			Error:      errorText(e.outcome.Err),
		}
		if e.outcome.Err != nil {
			test.Kind = failure.KindOf(e.outcome.Err).String()
		}
		var ae *failure.AssertionError
		if errors.As(e.outcome.Err, &ae) {
			test.Expected = ae.Expected
			test.Actual = ae.Actual
		}
		tests = append(tests, test)
	}

	output := JSONOutput{
		RunID:   f.runID,
		Suite:   f.suite,
		Version: f.version,
		Summary: JSONSummary{
			Total:    res.Total,
			Passed:   res.Passed,
			Pending:  res.Pending,
			Failed:   res.Failed,
			Errored:  res.Errored,
			ExitCode: res.ExitCode(),
		},
		Tests:    tests,
		Duration: ms(totalDuration),
		Time:     f.clock().UTC().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
