package spec

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/abdul-hamid-achik/itspec/packages/core/failure"
	"github.com/abdul-hamid-achik/itspec/packages/core/result"
)

// Example is a single leaf test.
type Example struct {
	description     string
	fullDescription string
	block           *block
	group           *Group
	timeout         atomic.Int64
}

func newExample(g *Group, description string, b *block) *Example {
	return &Example{
		description:     description,
		fullDescription: joinDescription(g.FullDescription(), description),
		block:           b,
		group:           g,
	}
}

func joinDescription(parent, desc string) string {
	return strings.TrimSpace(parent + " " + desc)
}

func (e *Example) Description() string     { return e.description }
func (e *Example) FullDescription() string { return e.fullDescription }
func (e *Example) Group() *Group           { return e.group }

// IsPending reports whether the example was declared without a block.
func (e *Example) IsPending() bool { return e.block == nil }

// Async reports whether the example body is asynchronous.
func (e *Example) Async() bool { return e.block != nil && e.block.async != nil }

// TimeoutAfter overrides the suite's default example timeout.
func (e *Example) TimeoutAfter(d time.Duration) *Example {
	e.timeout.Store(int64(d))
	return e
}

// Timeout returns the effective timeout of the example body.
func (e *Example) Timeout() time.Duration {
	if d := time.Duration(e.timeout.Load()); d > 0 {
		return d
	}
	return e.group.suite.defaultTimeout
}

// Execute runs the example with its inherited hooks and reports it to r.
func (e *Example) Execute(ctx context.Context, r Reporter) result.Outcome {
	r.ExampleStart(e)

	if e.block == nil {
		out := result.Outcome{Status: result.Pending}
		r.ExampleComplete(e, out)
		r.ExamplePend(e, nil)
		return out
	}

	start := time.Now()
	c := newContext(ctx, e)

	var err error
	for _, h := range e.group.BeforeHooks() {
		if err = c.run(ctx, h.block, h.Timeout()); err != nil {
			break
		}
	}

	if err == nil {
		c.enterBody(true)
		err = c.verify(c.run(ctx, *e.block, e.Timeout()))
		c.enterBody(false)
	}

	var afterErrs []error
	for _, h := range e.group.AfterHooks() {
		if aerr := c.run(ctx, h.block, h.Timeout()); aerr != nil {
			afterErrs = append(afterErrs, aerr)
		}
	}
	if err == nil {
		err = combineAfter(afterErrs)
	}

	out := result.Outcome{
		Status:     classify(err),
		Err:        err,
		Duration:   time.Since(start),
		Assertions: c.AssertionCount(),
	}

	r.ExampleComplete(e, out)
	switch out.Status {
	case result.Pass:
		r.ExamplePass(e)
	case result.Pending:
		r.ExamplePend(e, err)
	case result.Fail:
		r.ExampleFail(e, err)
	default:
		r.ExampleError(e, err)
	}
	return out
}

// combineAfter reduces after-hook failures to one. Several failures are
// aggregated unless the first is an assertion failure, which is kept as is.
func combineAfter(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	if failure.IsAssertion(errs[0]) {
		return errs[0]
	}
	return &failure.MultiError{Errors: errs}
}

func classify(err error) result.Status {
	switch failure.KindOf(err) {
	case failure.KindNone:
		return result.Pass
	case failure.KindPending:
		return result.Pending
	case failure.KindAssertion:
		return result.Fail
	default:
		return result.Error
	}
}
