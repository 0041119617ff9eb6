package spec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/itspec/packages/assertions"
	"github.com/abdul-hamid-achik/itspec/packages/core/failure"
)

// SubjectName is the fixture name used by Subject.
const SubjectName = "subject"

var (
	ErrUnknownFixture  = errors.New("unknown fixture")
	ErrFixtureCycle    = errors.New("fixture cycle")
	ErrNotInFixture    = errors.New("inherited fixture requested outside a fixture block")
	ErrNoInheritedDefn = errors.New("no inherited fixture definition")
)

// FixtureFunc computes a fixture value.
type FixtureFunc func(c *Context) any

// fixtureScope is one link of the resolution chain: the fixtures declared
// directly on a group, then its parent's scope.
type fixtureScope struct {
	group  *Group
	defs   map[string]FixtureFunc
	parent *fixtureScope
}

func scopeFor(g *Group) *fixtureScope {
	if g == nil {
		return nil
	}
	return &fixtureScope{group: g, defs: g.fixtures, parent: scopeFor(g.parent)}
}

func (s *fixtureScope) lookup(name string) (*fixtureScope, FixtureFunc) {
	for ; s != nil; s = s.parent {
		if fn, ok := s.defs[name]; ok {
			return s, fn
		}
	}
	return nil, nil
}

type fixtureKey struct {
	scope *fixtureScope
	name  string
}

// Context is the mutable scope of one example execution. Hooks and the
// example body share it. Fixture blocks receive a view of the same scope
// that also knows which fixture it is evaluating.
type Context struct {
	*state
	eval *evaluation
}

// state is shared by every view of one example's Context.
type state struct {
	example *Example
	runCtx  context.Context
	logger  *slog.Logger
	handle  *assertions.Handle
	scope   *fixtureScope

	mu          sync.Mutex
	assertions  int
	expected    int
	hasExpected bool
	interceptor func(error) error
	current     *execution
	inBody      bool
	values      map[string]any
	cache       map[fixtureKey]any
	inflight    map[fixtureKey]*evaluation
}

// evaluation is one fixture being computed. parent links the evaluations
// that led to it on the same call chain; done is closed once value or
// failed is set.
type evaluation struct {
	key    fixtureKey
	parent *evaluation
	done   chan struct{}
	value  any
	failed any
}

func newContext(ctx context.Context, e *Example) *Context {
	suite := e.group.suite

	var opts []assertions.Option
	if suite.snapshots != nil {
		opts = append(opts, assertions.WithSnapshots(suite.snapshots, e.FullDescription()))
	}

	return &Context{state: &state{
		example:  e,
		runCtx:   ctx,
		logger:   suite.logger.With("example", e.FullDescription()),
		handle:   assertions.New(opts...),
		scope:    scopeFor(e.group),
		values:   make(map[string]any),
		cache:    make(map[fixtureKey]any),
		inflight: make(map[fixtureKey]*evaluation),
	}}
}

// Example returns the example being executed.
func (c *Context) Example() *Example { return c.example }

// Logger returns the suite logger annotated with the example description.
func (c *Context) Logger() *slog.Logger { return c.logger }

// RunContext returns the context.Context of the run. It is cancelled when
// the run is interrupted.
func (c *Context) RunContext() context.Context { return c.runCtx }

// Assert counts one assertion access and returns the assertion handle.
func (c *Context) Assert() *assertions.Handle {
	c.mu.Lock()
	c.assertions++
	c.mu.Unlock()
	return c.handle
}

// ExpectAssertions declares how many times Assert must be called.
func (c *Context) ExpectAssertions(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expected = n
	c.hasExpected = true
}

// AssertionCount returns the number of Assert calls so far.
func (c *Context) AssertionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.assertions
}

// ExpectedAssertions returns the declared assertion count, if any.
func (c *Context) ExpectedAssertions() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expected, c.hasExpected
}

// InterceptErrors installs fn to see error-kind failures of the example
// body before they are reported. fn returns nil to swallow the failure or
// an error to replace it. A nil fn removes the interceptor.
func (c *Context) InterceptErrors(fn func(error) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interceptor = fn
}

// ErrorInterceptor returns the installed interceptor or nil.
func (c *Context) ErrorInterceptor() func(error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interceptor
}

// Pending marks the example as not implemented yet and stops the block.
func (c *Context) Pending(reason string) {
	panic(failure.Pending(reason))
}

// Go runs fn on a new goroutine. A panic in fn fails the block that was
// running when Go was called, so call it before signalling completion.
func (c *Context) Go(fn func()) {
	x := c.running()
	if x == nil {
		x = newExecution(c)
		x.resolved = true
	}
	go x.guard(fn)
}

// TimeoutAfter moves the running block's deadline to d after the block
// started. Called from the example body it also changes the example's
// timeout; called from a hook it only affects that hook.
func (c *Context) TimeoutAfter(d time.Duration) {
	c.mu.Lock()
	x, body := c.current, c.inBody
	c.mu.Unlock()

	if body {
		c.example.TimeoutAfter(d)
	}
	if x != nil {
		x.rearm(d)
	}
}

func (c *Context) enterBody(in bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inBody = in
}

func (c *Context) enter(x *execution) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = x
}

func (c *Context) leave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
}

func (c *Context) running() *execution {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Set stores a value under name, shadowing any fixture with that name for
// the rest of the example.
func (c *Context) Set(name string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[name] = v
}

// Fixture returns the memoized value of the named fixture, evaluating the
// innermost visible definition on first access.
func (c *Context) Fixture(name string) any {
	c.mu.Lock()
	v, ok := c.values[name]
	c.mu.Unlock()
	if ok {
		return v
	}
	return c.resolve(name, c.scope)
}

// Subject returns the "subject" fixture.
func (c *Context) Subject() any {
	return c.Fixture(SubjectName)
}

// Inherited resolves name starting above the group that defined the
// fixture currently being evaluated, so an override can build on the
// definition it shadows.
func (c *Context) Inherited(name string) any {
	if c.eval == nil {
		panic(ErrNotInFixture)
	}
	from := c.eval.key.scope.parent
	if s, _ := from.lookup(name); s == nil {
		panic(fmt.Errorf("%w: %q", ErrNoInheritedDefn, name))
	}
	return c.resolve(name, from)
}

// resolve returns the cached value of the innermost definition of name
// visible from scope. Concurrent readers of a fixture being evaluated wait
// for that evaluation instead of starting their own.
func (c *Context) resolve(name string, from *fixtureScope) any {
	scope, fn := from.lookup(name)
	if scope == nil {
		panic(fmt.Errorf("%w: %q", ErrUnknownFixture, name))
	}
	key := fixtureKey{scope: scope, name: name}

	for ev := c.eval; ev != nil; ev = ev.parent {
		if ev.key == key {
			panic(fmt.Errorf("%w: %q depends on itself", ErrFixtureCycle, name))
		}
	}

	c.mu.Lock()
	if v, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return v
	}
	if ev, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		<-ev.done
		if ev.failed != nil {
			panic(ev.failed)
		}
		return ev.value
	}
	ev := &evaluation{key: key, parent: c.eval, done: make(chan struct{})}
	c.inflight[key] = ev
	c.mu.Unlock()

	defer func() {
		r := recover()
		c.mu.Lock()
		delete(c.inflight, key)
		if r == nil {
			c.cache[key] = ev.value
		}
		ev.failed = r
		c.mu.Unlock()
		close(ev.done)
		if r != nil {
			panic(r)
		}
	}()

	ev.value = fn(&Context{state: c.state, eval: ev})
	return ev.value
}

// Fetch returns the named fixture as a T. A value of another type is an
// error-kind failure.
func Fetch[T any](c *Context, name string) T {
	v := c.Fixture(name)
	if v == nil {
		var zero T
		return zero
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		panic(fmt.Errorf("fixture %q is %T, not %T", name, v, zero))
	}
	return t
}
