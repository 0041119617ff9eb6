package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/itspec/packages/core/spec"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// Flushable is implemented by formatters that write their output at the end
// of a run rather than as events arrive.
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

const (
	FormatProgress      = "progress"
	FormatDocumentation = "documentation"
	FormatJSON          = "json"
	FormatJUnit         = "junit"
	FormatTAP           = "tap"
	FormatHTML          = "html"
)

// Names lists the supported formats.
func Names() []string {
	return []string{FormatProgress, FormatDocumentation, FormatJSON, FormatJUnit, FormatTAP, FormatHTML}
}

type settings struct {
	writer  io.Writer
	verbose bool
	noColor bool
	clock   func() time.Time
	runID   string
	version string
}

// Option configures any formatter.
type Option func(*settings)

func WithWriter(w io.Writer) Option {
	return func(s *settings) {
		s.writer = w
	}
}

func WithVerbose(v bool) Option {
	return func(s *settings) {
		s.verbose = v
	}
}

func WithNoColor(nc bool) Option {
	return func(s *settings) {
		s.noColor = nc
	}
}

// WithClock replaces time.Now for timings and timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *settings) {
		s.clock = clock
	}
}

// WithRunID sets the run identifier written by report formats. A random
// UUID is used otherwise.
func WithRunID(id string) Option {
	return func(s *settings) {
		s.runID = id
	}
}

// WithVersion records the tool version in report formats.
func WithVersion(v string) Option {
	return func(s *settings) {
		s.version = v
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		writer: os.Stdout,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// New returns the formatter registered under name.
func New(name string, opts ...Option) (spec.Reporter, error) {
	switch strings.ToLower(name) {
	case "", FormatProgress:
		return NewProgressFormatter(opts...), nil
	case FormatDocumentation, "doc":
		return NewDocumentationFormatter(opts...), nil
	case FormatJSON:
		return NewJSONFormatter(opts...), nil
	case FormatJUnit:
		return NewJUnitFormatter(opts...), nil
	case FormatTAP:
		return NewTAPFormatter(opts...), nil
	case FormatHTML:
		return NewHTMLFormatter(opts...), nil
	}
	return nil, fmt.Errorf("unknown format %q (valid: %s)", name, strings.Join(Names(), ", "))
}

// terminal reports whether w is a terminal and its width in columns.
func terminal(w io.Writer) (bool, int) {
	f, ok := w.(*os.File)
	if !ok {
		return false, 0
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return false, 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return true, 0
	}
	return true, width
}

// palette holds per-formatter colours so that formatters writing to
// different destinations do not share the global color.NoColor switch.
type palette struct {
	green, yellow, red, cyan, bold *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed),
		cyan:   color.New(color.FgCyan),
		bold:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.green, p.yellow, p.red, p.cyan, p.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// formatValue formats a value for display, truncating or summarizing large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case nil:
		return "<nil>"
	case string:
		v = fmt.Sprintf("%q", val)
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

// seconds renders d the way the footer prints it, e.g. "0.25".
func seconds(d time.Duration) string {
	return fmt.Sprintf("%g", float64(d.Milliseconds())/1000)
}
