package spec

import (
	"context"

	"github.com/abdul-hamid-achik/itspec/packages/core/result"
)

// Node is a child of a Group: either a *Group or an *Example.
type Node interface {
	Description() string
	FullDescription() string
}

// Group is a node of the declaration tree. Hooks and fixtures declared on
// a group apply to every example below it.
type Group struct {
	description     string
	fullDescription string
	parent          *Group
	suite           *Suite
	children        []Node
	before          []*Hook
	after           []*Hook
	fixtures        map[string]FixtureFunc
}

func newGroup(s *Suite, parent *Group, description string) *Group {
	g := &Group{
		description: description,
		parent:      parent,
		suite:       s,
		fixtures:    make(map[string]FixtureFunc),
	}
	if parent != nil {
		g.fullDescription = joinDescription(parent.fullDescription, description)
	} else {
		g.fullDescription = description
	}
	return g
}

func (g *Group) Description() string     { return g.description }
func (g *Group) FullDescription() string { return g.fullDescription }
func (g *Group) Parent() *Group          { return g.parent }
func (g *Group) Suite() *Suite           { return g.suite }

// Children returns the groups and examples declared on g, in order.
func (g *Group) Children() []Node {
	return append([]Node(nil), g.children...)
}

// Depth is 0 for the root group.
func (g *Group) Depth() int {
	d := 0
	for p := g.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Describe declares a child group and runs fn to populate it.
func (g *Group) Describe(description string, fn func(g *Group)) *Group {
	child := newGroup(g.suite, g, description)
	g.children = append(g.children, child)
	if fn != nil {
		fn(child)
	}
	return child
}

// Context is an alias of Describe.
func (g *Group) Context(description string, fn func(g *Group)) *Group {
	return g.Describe(description, fn)
}

// Example declares a synchronous example. A nil fn declares a pending one.
func (g *Group) Example(description string, fn func(c *Context)) *Example {
	var b *block
	if fn != nil {
		sb := syncBlock(fn)
		b = &sb
	}
	return g.addExample(description, b)
}

// ExampleAsync declares an example that completes when it calls done.
func (g *Group) ExampleAsync(description string, fn func(c *Context, done Done)) *Example {
	var b *block
	if fn != nil {
		ab := asyncBlock(fn)
		b = &ab
	}
	return g.addExample(description, b)
}

// It is an alias of Example.
func (g *Group) It(description string, fn func(c *Context)) *Example {
	return g.Example(description, fn)
}

// ItAsync is an alias of ExampleAsync.
func (g *Group) ItAsync(description string, fn func(c *Context, done Done)) *Example {
	return g.ExampleAsync(description, fn)
}

// Should declares an example described as "should <description>".
func (g *Group) Should(description string, fn func(c *Context)) *Example {
	return g.Example("should "+description, fn)
}

// Pending declares an example with no block.
func (g *Group) Pending(description string) *Example {
	return g.addExample(description, nil)
}

func (g *Group) addExample(description string, b *block) *Example {
	e := newExample(g, description, b)
	g.children = append(g.children, e)
	return e
}

// Before registers a hook run before every example below g.
func (g *Group) Before(fn func(c *Context)) *Hook {
	return newHook(g, &g.before, syncBlock(fn))
}

// BeforeAsync is Before for a hook that completes by calling done.
func (g *Group) BeforeAsync(fn func(c *Context, done Done)) *Hook {
	return newHook(g, &g.before, asyncBlock(fn))
}

// After registers a hook run after every example below g, even when the
// example failed.
func (g *Group) After(fn func(c *Context)) *Hook {
	return newHook(g, &g.after, syncBlock(fn))
}

// AfterAsync is After for a hook that completes by calling done.
func (g *Group) AfterAsync(fn func(c *Context, done Done)) *Hook {
	return newHook(g, &g.after, asyncBlock(fn))
}

// Fixture defines a lazily evaluated, per-example memoized value. An empty
// name defines the subject.
func (g *Group) Fixture(name string, fn FixtureFunc) {
	if name == "" {
		name = SubjectName
	}
	g.fixtures[name] = fn
}

// Subject defines the "subject" fixture.
func (g *Group) Subject(fn FixtureFunc) {
	g.Fixture(SubjectName, fn)
}

// BeforeHooks returns the inherited before hooks, outermost group first.
func (g *Group) BeforeHooks() []*Hook {
	if g.parent == nil {
		return append([]*Hook(nil), g.before...)
	}
	return append(g.parent.BeforeHooks(), g.before...)
}

// AfterHooks returns the inherited after hooks, outermost group first.
func (g *Group) AfterHooks() []*Hook {
	if g.parent == nil {
		return append([]*Hook(nil), g.after...)
	}
	return append(g.parent.AfterHooks(), g.after...)
}

// Traverse runs the children of g in declaration order. halted is true
// when the policy or a cancelled ctx stopped the run early; the partial
// result is still reported through GroupComplete.
func (g *Group) Traverse(ctx context.Context, policy Policy, r Reporter) (res result.Result, halted bool) {
	r.GroupStart(g)
	defer func() { r.GroupComplete(g, res) }()

	for _, child := range g.children {
		if ctx.Err() != nil {
			return res, true
		}

		var failed bool
		switch n := child.(type) {
		case *Group:
			sub, subHalted := n.Traverse(ctx, policy, r)
			res.Fold(sub)
			if subHalted {
				return res, true
			}
			failed = sub.HasFailures()
		case *Example:
			if !policy.Allows(n) {
				continue
			}
			out := n.Execute(ctx, r)
			res.Fold(out)
			failed = out.Status == result.Fail || out.Status == result.Error
		}

		if policy.HaltOnFailure && failed {
			g.suite.logger.Info("halting after failure", "group", g.fullDescription)
			return res, true
		}
	}

	return res, ctx.Err() != nil
}

// Walk calls fn for every node below g in declaration order, skipping
// examples the policy filters out.
func (g *Group) Walk(policy Policy, fn func(n Node, depth int)) {
	depth := g.Depth()
	for _, child := range g.children {
		switch n := child.(type) {
		case *Group:
			fn(n, depth+1)
			n.Walk(policy, fn)
		case *Example:
			if policy.Allows(n) {
				fn(n, depth+1)
			}
		}
	}
}
