package output

import (
	"github.com/abdul-hamid-achik/itspec/packages/core/result"
	"github.com/abdul-hamid-achik/itspec/packages/core/spec"
	"github.com/fatih/color"
)

// MaxLineWidth caps the number of progress characters per line.
const MaxLineWidth = 100

// ProgressFormatter prints one character per example: "." pass,
// "*" pending, "F" fail, "E" error.
type ProgressFormatter struct {
	console
	lineWidth int
	dots      int
}

func NewProgressFormatter(opts ...Option) *ProgressFormatter {
	f := &ProgressFormatter{console: newConsole(opts), lineWidth: MaxLineWidth}
	if _, width := terminal(f.writer); width > 0 && width < MaxLineWidth {
		f.lineWidth = width
	}
	return f
}

func (f *ProgressFormatter) dot(ch string, c *color.Color) {
	f.write(ch, c)
	f.dots++
	if f.dots%f.lineWidth == 0 {
		f.writeln("", nil)
		f.dots = 0
	}
}

func (f *ProgressFormatter) SuiteStart(*spec.Suite) {
	f.startTimer()
}

func (f *ProgressFormatter) ExamplePass(*spec.Example) {
	f.dot(".", f.green)
}

func (f *ProgressFormatter) ExamplePend(e *spec.Example, err error) {
	f.dot("*", f.yellow)
	f.recordPending(e, err)
}

func (f *ProgressFormatter) ExampleFail(e *spec.Example, err error) {
	f.dot("F", f.red)
	f.recordFailure(e, err)
}

func (f *ProgressFormatter) ExampleError(e *spec.Example, err error) {
	f.dot("E", f.cyan)
	f.recordError(e, err)
}

func (f *ProgressFormatter) SuiteComplete(_ *spec.Suite, res result.Result) {
	f.writeln("", nil)
	f.writeFooter(res)
}
