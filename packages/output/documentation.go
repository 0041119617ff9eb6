package output

import (
	"github.com/abdul-hamid-achik/itspec/packages/core/result"
	"github.com/abdul-hamid-achik/itspec/packages/core/spec"
)

// DocumentationFormatter prints the group tree, indenting two spaces per
// described group, with one line per example.
type DocumentationFormatter struct {
	console
}

func NewDocumentationFormatter(opts ...Option) *DocumentationFormatter {
	return &DocumentationFormatter{console: newConsole(opts)}
}

func (f *DocumentationFormatter) SuiteStart(*spec.Suite) {
	f.startTimer()
	f.writeln("", nil)
}

func (f *DocumentationFormatter) GroupStart(g *spec.Group) {
	if g.Description() != "" {
		f.writeln(g.Description(), nil)
		f.indent++
	}
}

func (f *DocumentationFormatter) GroupComplete(g *spec.Group, _ result.Result) {
	if g.Description() != "" {
		f.indent--
	}
}

func (f *DocumentationFormatter) ExamplePass(e *spec.Example) {
	f.writeln(e.Description(), f.green)
}

func (f *DocumentationFormatter) ExamplePend(e *spec.Example, err error) {
	f.writeln("PENDING: "+e.Description(), f.yellow)
	f.recordPending(e, err)
}

func (f *DocumentationFormatter) ExampleFail(e *spec.Example, err error) {
	f.writeln("FAILED: "+e.Description(), f.red)
	f.recordFailure(e, err)
}

func (f *DocumentationFormatter) ExampleError(e *spec.Example, err error) {
	f.writeln("ERROR: "+e.Description(), f.cyan)
	f.recordError(e, err)
}

func (f *DocumentationFormatter) SuiteComplete(_ *spec.Suite, res result.Result) {
	f.writeFooter(res)
}
