package output

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/itspec/packages/core/failure"
	"github.com/abdul-hamid-achik/itspec/packages/core/result"
)

// TAPFormatter formats a run in TAP (Test Anything Protocol) format
type TAPFormatter struct {
	collector
}

func NewTAPFormatter(opts ...Option) *TAPFormatter {
	return &TAPFormatter{collector: newCollector(opts)}
}

// Flush writes the accumulated TAP output
func (f *TAPFormatter) Flush(totalDuration time.Duration) error {
	var sb strings.Builder

	sb.WriteString("TAP version 13\n")
	fmt.Fprintf(&sb, "1..%d\n", len(f.entries))

	for i, e := range f.entries {
		n := i + 1
		name := e.example.FullDescription()
		err := e.outcome.Err

		switch e.outcome.Status {
		case result.Pass:
			fmt.Fprintf(&sb, "ok %d - %s\n", n, name)
		case result.Pending:
			fmt.Fprintf(&sb, "ok %d - %s # SKIP %s\n", n, name, pendingReason(err))
		case result.Fail:
			fmt.Fprintf(&sb, "not ok %d - %s\n", n, name)
			sb.WriteString("  ---\n")
			fmt.Fprintf(&sb, "  message: %s\n", escapeYAML(err.Error()))
			var ae *failure.AssertionError
			if errors.As(err, &ae) && ae.HasValues() {
				fmt.Fprintf(&sb, "  expected: %s\n", escapeYAML(formatValue(ae.Expected, 200)))
				fmt.Fprintf(&sb, "  actual: %s\n", escapeYAML(formatValue(ae.Actual, 200)))
			}
			sb.WriteString("  severity: fail\n")
			sb.WriteString("  ...\n")
		default:
			fmt.Fprintf(&sb, "not ok %d - %s\n", n, name)
			sb.WriteString("  ---\n")
			fmt.Fprintf(&sb, "  message: %s\n", escapeYAML(err.Error()))
			sb.WriteString("  severity: error\n")
			sb.WriteString("  ...\n")
		}
	}

	res := f.summary()
	fmt.Fprintf(&sb, "# pass %d\n# pending %d\n# fail %d\n# error %d\n",
		res.Passed, res.Pending, res.Failed, res.Errored)

	_, err := fmt.Fprint(f.writer, sb.String())
	return err
}

func escapeYAML(s string) string {
	// Simple YAML escaping - wrap in quotes if contains special chars
	if strings.ContainsAny(s, ":\n\"'[]{}#&*!|>%@`") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		return "\"" + s + "\""
	}
	return s
}
