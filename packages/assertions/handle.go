package assertions

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/itspec/packages/core/failure"
	"github.com/abdul-hamid-achik/itspec/packages/snapshot"
	"github.com/onsi/gomega"
	"github.com/onsi/gomega/types"
	"github.com/stretchr/testify/assert"
)

// Handle is the shared assertion handle of one example execution.
type Handle struct {
	*assert.Assertions

	g         *gomega.WithT
	baseDir   string
	snapshots *snapshot.Manager
	key       string
}

// Option is a functional option for configuring a Handle.
type Option func(*Handle)

// WithSnapshots enables h.Snapshot, storing values under key (usually the
// example's full description).
func WithSnapshots(m *snapshot.Manager, key string) Option {
	return func(h *Handle) {
		h.snapshots = m
		h.key = key
	}
}

// WithBaseDir sets the directory schema file paths are resolved against.
func WithBaseDir(dir string) Option {
	return func(h *Handle) {
		h.baseDir = dir
	}
}

// New creates a Handle whose failures panic with *failure.AssertionError.
func New(opts ...Option) *Handle {
	t := panicT{}
	h := &Handle{
		Assertions: assert.New(t),
		g:          gomega.NewWithT(t),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Expect starts a gomega assertion on actual.
func (h *Handle) Expect(actual any, extra ...any) types.Assertion {
	return h.g.Expect(actual, extra...)
}

// Snapshot compares actual with the stored snapshot called name.
func (h *Handle) Snapshot(name string, actual any) bool {
	if h.snapshots == nil {
		fail("snapshot manager not configured", nil, actual)
	}
	res := h.snapshots.Compare(h.key, name, actual)
	if !res.Passed {
		fail(res.Message, res.Expected, res.Actual)
	}
	return true
}

func fail(msg string, expected, actual any) {
	panic(&failure.AssertionError{Message: msg, Expected: expected, Actual: actual})
}

// panicT satisfies both assert.TestingT and gomega's testing interface,
// turning each reported failure into an assertion panic.
type panicT struct{}

func (panicT) Helper() {}

func (panicT) Errorf(format string, args ...any) {
	panic(&failure.AssertionError{Message: cleanMessage(fmt.Sprintf(format, args...))})
}

func (t panicT) Fatalf(format string, args ...any) {
	t.Errorf(format, args...)
}

// cleanMessage drops testify's "Error Trace" block and label padding.
func cleanMessage(msg string) string {
	if i := strings.Index(msg, "Error:"); i >= 0 {
		msg = msg[i+len("Error:"):]
	}
	lines := strings.Split(msg, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Test:") {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
