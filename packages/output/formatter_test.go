package output

import (
	"bytes"
	"encoding/xml"
	"errors"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/itspec/packages/core/failure"
	"github.com/abdul-hamid-achik/itspec/packages/core/result"
	"github.com/abdul-hamid-achik/itspec/packages/core/spec"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

// fixtureSuite declares a small tree and the outcome each example should
// be reported with.
func fixtureSuite() (*spec.Suite, map[string]result.Outcome) {
	s := spec.NewSuite("golden")
	s.Describe("Calculator", func(g *spec.Group) {
		g.It("adds", func(*spec.Context) {})
		g.Pending("divides")
		g.Describe("with negative numbers", func(g *spec.Group) {
			g.It("subtracts", func(*spec.Context) {})
			g.It("multiplies", func(*spec.Context) {})
		})
		g.It("rounds", func(*spec.Context) {})
	})

	outcomes := map[string]result.Outcome{
		"Calculator adds": {Status: result.Pass, Duration: 10 * time.Millisecond, Assertions: 2},
		"Calculator divides": {Status: result.Pending},
		"Calculator with negative numbers subtracts": {
			Status:     result.Fail,
			Err:        &failure.AssertionError{Message: "expected 1 to equal 2", Expected: 2, Actual: 1},
			Duration:   20 * time.Millisecond,
			Assertions: 1,
		},
		"Calculator with negative numbers multiplies": {
			Status:   result.Error,
			Err:      errors.New("boom"),
			Duration: 5 * time.Millisecond,
		},
		"Calculator rounds": {
			Status:   result.Pending,
			Err:      failure.Pending(failure.ZeroAssertions),
			Duration: time.Millisecond,
		},
	}
	return s, outcomes
}

// replay emits the events a run of s would produce, using fixed outcomes.
func replay(r spec.Reporter, s *spec.Suite, outcomes map[string]result.Outcome) result.Result {
	var walk func(g *spec.Group) result.Result
	walk = func(g *spec.Group) result.Result {
		var res result.Result
		r.GroupStart(g)
		for _, n := range g.Children() {
			switch n := n.(type) {
			case *spec.Group:
				res.Fold(walk(n))
			case *spec.Example:
				out := outcomes[n.FullDescription()]
				r.ExampleStart(n)
				r.ExampleComplete(n, out)
				switch out.Status {
				case result.Pass:
					r.ExamplePass(n)
				case result.Pending:
					r.ExamplePend(n, out.Err)
				case result.Fail:
					r.ExampleFail(n, out.Err)
				default:
					r.ExampleError(n, out.Err)
				}
				res.Fold(out)
			}
		}
		r.GroupComplete(g, res)
		return res
	}

	r.SuiteStart(s)
	res := walk(s.Root())
	r.SuiteComplete(s, res)
	return res
}

func render(t *testing.T, format string) []byte {
	t.Helper()
	var buf bytes.Buffer
	r, err := New(format,
		WithWriter(&buf),
		WithClock(fixedClock),
		WithRunID("run-1"),
	)
	require.NoError(t, err)

	s, outcomes := fixtureSuite()
	replay(r, s, outcomes)

	if fl, ok := r.(Flushable); ok {
		require.NoError(t, fl.Flush(1500*time.Millisecond))
	}
	return buf.Bytes()
}

func TestFormatters_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, format := range []string{FormatProgress, FormatDocumentation, FormatJSON, FormatTAP} {
		t.Run(format, func(t *testing.T) {
			g.Assert(t, format, render(t, format))
		})
	}
}

func TestJUnitFormatter(t *testing.T) {
	out := render(t, FormatJUnit)
	assert.True(t, bytes.HasPrefix(out, []byte(`<?xml version="1.0" encoding="UTF-8"?>`)))

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(out, &suites))

	assert.Equal(t, "golden", suites.Name)
	assert.Equal(t, 5, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	assert.Equal(t, 1, suites.Errors)
	assert.Equal(t, 2, suites.Skipped)
	assert.Equal(t, 1.5, suites.Time)
	assert.Equal(t, "2024-01-02T03:04:05Z", suites.Timestamp)
	require.Len(t, suites.TestSuites, 2)

	calc := suites.TestSuites[0]
	assert.Equal(t, "Calculator", calc.Name)
	assert.Equal(t, 3, calc.Tests)
	assert.Equal(t, 2, calc.Skipped)
	require.Len(t, calc.TestCases, 3)
	assert.Equal(t, "adds", calc.TestCases[0].Name)
	require.NotNil(t, calc.TestCases[1].Skipped)
	assert.Equal(t, "<unimplemented>", calc.TestCases[1].Skipped.Message)

	neg := suites.TestSuites[1]
	assert.Equal(t, "Calculator with negative numbers", neg.Name)
	require.Len(t, neg.TestCases, 2)
	require.NotNil(t, neg.TestCases[0].Failure)
	assert.Equal(t, "AssertionError", neg.TestCases[0].Failure.Type)
	assert.Contains(t, neg.TestCases[0].Failure.Content, "expected: 2")
	require.NotNil(t, neg.TestCases[1].Error)
	assert.Equal(t, "boom", neg.TestCases[1].Error.Message)
}

func TestHTMLFormatter(t *testing.T) {
	out := string(render(t, FormatHTML))

	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "<title>golden - itspec report</title>")
	assert.Contains(t, out, "5 specs: 1 passed, 2 pending, 2 failed (1 errored) in 1.5s")
	assert.Contains(t, out, "<h2>Calculator with negative numbers</h2>")
	assert.Contains(t, out, "Run run-1")
	assert.Contains(t, out, "expected 1 to equal 2")
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := New("xml")
	assert.ErrorContains(t, err, `unknown format "xml"`)
}

func TestNew_Aliases(t *testing.T) {
	r, err := New("")
	require.NoError(t, err)
	assert.IsType(t, &ProgressFormatter{}, r)

	r, err = New("doc")
	require.NoError(t, err)
	assert.IsType(t, &DocumentationFormatter{}, r)
}

func TestProgressFormatter_WrapsLines(t *testing.T) {
	var buf bytes.Buffer
	f := NewProgressFormatter(WithWriter(&buf), WithClock(fixedClock))
	f.lineWidth = 3

	s := spec.NewSuite("wrap")
	var examples []*spec.Example
	s.Describe("g", func(g *spec.Group) {
		for i := 0; i < 4; i++ {
			examples = append(examples, g.It("x", func(*spec.Context) {}))
		}
	})
	for _, e := range examples {
		f.ExamplePass(e)
	}

	assert.Equal(t, "...\n.", buf.String())
}

func TestConsole_VerbosePanicStack(t *testing.T) {
	var buf bytes.Buffer
	f := NewProgressFormatter(WithWriter(&buf), WithClock(fixedClock), WithVerbose(true))

	s := spec.NewSuite("stack")
	var ex *spec.Example
	s.Describe("g", func(g *spec.Group) {
		ex = g.It("panics", func(*spec.Context) {})
	})

	f.SuiteStart(s)
	f.ExampleError(ex, &failure.PanicError{Value: "kaboom", Stack: []byte("goroutine 1 [running]:\nmain.main()")})
	f.SuiteComplete(s, result.Result{Errored: 1, Total: 1})

	out := buf.String()
	assert.Contains(t, out, "     panic: kaboom\n")
	assert.Contains(t, out, "       goroutine 1 [running]:\n")
	assert.Contains(t, out, "1 spec (1 errored)")
}

func TestCollector_SummaryWithoutSuiteComplete(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(WithWriter(&buf), WithClock(fixedClock))

	s := spec.NewSuite("partial")
	var ex *spec.Example
	s.Describe("g", func(g *spec.Group) {
		ex = g.It("x", func(*spec.Context) {})
	})
	f.ExampleComplete(ex, result.Outcome{Status: result.Fail, Err: failure.Assertion("nope")})

	assert.Equal(t, result.Result{Failed: 1, Total: 1}, f.summary())
	require.NoError(t, f.Flush(0))
	assert.NotEmpty(t, f.runID)
	assert.Contains(t, buf.String(), `"exitCode": 1`)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "<nil>", formatValue(nil, 10))
	assert.Equal(t, `"hi"`, formatValue("hi", 10))
	assert.Equal(t, "[array with 2 items]", formatValue([]any{1, 2}, 10))
	assert.Equal(t, "{object with 1 keys}", formatValue(map[string]any{"a": 1}, 10))
	assert.Equal(t, "12345...", formatValue(123456789, 5))
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, "0", seconds(0))
	assert.Equal(t, "0.25", seconds(250*time.Millisecond))
	assert.Equal(t, "12", seconds(12*time.Second))
}
