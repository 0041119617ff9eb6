package output

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/itspec/packages/core/failure"
	"github.com/abdul-hamid-achik/itspec/packages/core/result"
	"github.com/abdul-hamid-achik/itspec/packages/core/spec"
	"github.com/fatih/color"
)

type record struct {
	example *spec.Example
	err     error
}

// console is the shared part of the human-readable formatters: it records
// non-passing examples and writes the footer when the suite completes.
type console struct {
	spec.NopReporter
	settings
	palette

	indent   int
	start    time.Time
	pending  []record
	failures []record
	errored  []record
}

func newConsole(opts []Option) console {
	s := newSettings(opts)
	isTTY, _ := terminal(s.writer)
	return console{
		settings: s,
		palette:  newPalette(isTTY && !s.noColor),
	}
}

func (c *console) write(str string, wrap *color.Color) {
	if wrap != nil && str != "" {
		str = wrap.Sprint(str)
	}
	fmt.Fprint(c.writer, str)
}

// writeln writes str indented by the current level.
func (c *console) writeln(str string, wrap *color.Color) {
	if str != "" {
		str = strings.Repeat("  ", c.indent) + str
	}
	c.write(str, wrap)
	fmt.Fprintln(c.writer)
}

func (c *console) startTimer() {
	c.start = c.clock()
}

func (c *console) recordPending(e *spec.Example, err error) {
	c.pending = append(c.pending, record{e, err})
}

func (c *console) recordFailure(e *spec.Example, err error) {
	c.failures = append(c.failures, record{e, err})
}

func (c *console) recordError(e *spec.Example, err error) {
	c.errored = append(c.errored, record{e, err})
}

func (c *console) writeFooter(res result.Result) {
	elapsed := c.clock().Sub(c.start)
	c.writePending()
	c.writeFailures()
	c.writeErrors()
	c.writeSummary(res, elapsed)
}

func (c *console) writePending() {
	if len(c.pending) == 0 {
		return
	}
	c.writeln("", nil)
	c.writeln("Pending:", c.yellow)
	for i, p := range c.pending {
		c.writeln("", nil)
		c.writeln(fmt.Sprintf("  %d) %s", i+1, p.example.FullDescription()), c.yellow)
		c.writeln("       "+pendingReason(p.err), c.yellow)
	}
}

func pendingReason(err error) string {
	if err == nil {
		return "<unimplemented>"
	}
	var pe *failure.PendingError
	if errors.As(err, &pe) && pe.Reason != "" {
		return pe.Reason
	}
	return err.Error()
}

func (c *console) writeFailures() {
	if len(c.failures) == 0 {
		return
	}
	c.writeln("", nil)
	c.writeln("Failures:", c.red)
	for i, f := range c.failures {
		c.writeln("", nil)
		c.writeln(fmt.Sprintf("  %d) %s", i+1, f.example.FullDescription()), c.red)
		c.writeln("       "+indentLines(f.err.Error(), "       "), c.red)

		var ae *failure.AssertionError
		if errors.As(f.err, &ae) && ae.HasValues() {
			c.writeln("       expected: "+formatValue(ae.Expected, 200), c.red)
			c.writeln("            got: "+formatValue(ae.Actual, 200), c.red)
		}
	}
}

func (c *console) writeErrors() {
	if len(c.errored) == 0 {
		return
	}
	c.writeln("", nil)
	c.writeln("Errors:", c.cyan)
	for i, e := range c.errored {
		c.writeln("", nil)
		c.writeln(fmt.Sprintf("  %d) %s", i+1, e.example.FullDescription()), c.cyan)
		c.writeln("     "+indentLines(e.err.Error(), "       "), c.cyan)

		var pe *failure.PanicError
		if c.verbose && errors.As(e.err, &pe) {
			for _, line := range strings.Split(strings.TrimSpace(string(pe.Stack)), "\n") {
				c.writeln("       "+line, c.cyan)
			}
		}
	}
}

func (c *console) writeSummary(res result.Result, elapsed time.Duration) {
	c.writeln("", nil)
	noun := "specs"
	if res.Total == 1 {
		noun = "spec"
	}
	c.write(fmt.Sprintf("%d %s", res.Total, noun), nil)

	var bits []string
	if res.Passed > 0 {
		bits = append(bits, c.green.Sprintf("%d passed", res.Passed))
	}
	if res.Pending > 0 {
		bits = append(bits, c.yellow.Sprintf("%d pending", res.Pending))
	}
	if res.Failed > 0 {
		bits = append(bits, c.red.Sprintf("%d failed", res.Failed))
	}
	if res.Errored > 0 {
		bits = append(bits, c.cyan.Sprintf("%d errored", res.Errored))
	}
	if len(bits) > 0 {
		c.write(" ("+strings.Join(bits, ", ")+")", nil)
	}
	c.writeln("", nil)
	c.writeln("Time Taken: "+seconds(elapsed)+"s", nil)
}

func indentLines(s, prefix string) string {
	return strings.ReplaceAll(s, "\n", "\n"+prefix)
}
