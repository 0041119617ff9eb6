// Package itspec is the package-level surface for declaring and running
// behaviour examples. Declarations go to a default suite; Main hands it to
// the command line.
//
//	func main() {
//		itspec.Describe("Stack", func(g *itspec.Group) {
//			g.Subject(func(c *itspec.Context) any { return NewStack() })
//			g.It("starts empty", func(c *itspec.Context) {
//				c.Assert().Zero(itspec.Fetch[*Stack](c, itspec.SubjectName).Len())
//			})
//		})
//		itspec.Main()
//	}
package itspec

import (
	"context"

	"github.com/abdul-hamid-achik/itspec/apps/cli/cmd"
	"github.com/abdul-hamid-achik/itspec/packages/core/result"
	"github.com/abdul-hamid-achik/itspec/packages/core/spec"
)

// Set at build time with -ldflags "-X".
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// DefaultSuiteName names the default suite and its snapshot file.
const DefaultSuiteName = "itspec"

// SubjectName is the fixture defined by Subject.
const SubjectName = spec.SubjectName

type (
	Suite   = spec.Suite
	Group   = spec.Group
	Example = spec.Example
	Hook    = spec.Hook
	Context = spec.Context
	Done    = spec.Done
	Policy  = spec.Policy
	Result  = result.Result
)

var defaultSuite = spec.NewSuite(DefaultSuiteName)

// Default returns the suite the package-level functions declare into.
func Default() *Suite {
	return defaultSuite
}

// Describe declares a top-level group.
func Describe(description string, fn func(g *Group)) *Group {
	return defaultSuite.Describe(description, fn)
}

// Before registers a hook run before every example of the suite.
func Before(fn func(c *Context)) *Hook {
	return defaultSuite.Root().Before(fn)
}

// BeforeAsync registers an asynchronous suite-wide before hook.
func BeforeAsync(fn func(c *Context, done Done)) *Hook {
	return defaultSuite.Root().BeforeAsync(fn)
}

// After registers a hook run after every example of the suite, whatever
// its outcome.
func After(fn func(c *Context)) *Hook {
	return defaultSuite.Root().After(fn)
}

// AfterAsync registers an asynchronous suite-wide after hook.
func AfterAsync(fn func(c *Context, done Done)) *Hook {
	return defaultSuite.Root().AfterAsync(fn)
}

// Fixture defines a suite-wide fixture.
func Fixture(name string, fn spec.FixtureFunc) {
	defaultSuite.Root().Fixture(name, fn)
}

// Subject defines the suite-wide subject fixture.
func Subject(fn spec.FixtureFunc) {
	defaultSuite.Root().Subject(fn)
}

// Fetch evaluates the named fixture as a T.
func Fetch[T any](c *Context, name string) T {
	return spec.Fetch[T](c, name)
}

// Run executes the default suite and returns the aggregate result. A nil
// reporter discards events.
func Run(ctx context.Context, policy Policy, r spec.Reporter) Result {
	return defaultSuite.Run(ctx, policy, r)
}

// Main runs the command line against the default suite and exits.
func Main() {
	cmd.Execute(defaultSuite, Version, BuildTime)
}
