package spec

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/itspec/packages/core/failure"
)

// Done completes an asynchronous block. A nil error means success.
type Done func(err error)

// block is a tagged variant: exactly one of sync and async is set.
type block struct {
	sync  func(*Context)
	async func(*Context, Done)
}

func syncBlock(fn func(*Context)) block {
	return block{sync: fn}
}

func asyncBlock(fn func(*Context, Done)) block {
	return block{async: fn}
}

// execution is the per-block completion state. Its sink holds at most one
// failure and is written exactly once, by whichever of the completion
// signal, the deadline, a panic or cancellation gets there first.
type execution struct {
	ctx  *Context
	sink chan error

	mu       sync.Mutex
	resolved bool
	start    time.Time
	timeout  time.Duration
	timer    *time.Timer
}

func newExecution(c *Context) *execution {
	return &execution{
		ctx:   c,
		sink:  make(chan error, 1),
		start: time.Now(),
	}
}

// resolve delivers err to the sink unless the execution already resolved.
func (x *execution) resolve(err error) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.resolved {
		return false
	}
	x.resolved = true
	x.sink <- err
	return true
}

// signal is the Done handed to asynchronous blocks. It is bound to x, so a
// late call can never complete another block.
func (x *execution) signal(err error) {
	if !x.resolve(err) {
		panic(failure.ErrDoneTwice)
	}
}

// guard runs fn and routes a panic into this execution's sink. Panics that
// arrive after the execution resolved are logged and dropped.
func (x *execution) guard(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := failure.FromPanic(r)
			if !x.resolve(err) {
				x.ctx.logger.Warn("discarding failure raised after block completed",
					"example", x.ctx.example.FullDescription(),
					"error", err)
			}
		}
	}()
	fn()
}

func (x *execution) rearm(d time.Duration) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.timeout = d
	if x.timer != nil && !x.resolved {
		x.timer.Reset(time.Until(x.start.Add(d)))
	}
}

func (x *execution) deadline() time.Duration {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.timeout
}

// run executes b on c with the block protocol and returns its failure.
func (c *Context) run(ctx context.Context, b block, timeout time.Duration) error {
	if b.async != nil {
		return c.runAsync(ctx, b.async, timeout)
	}
	return c.runSync(b.sync)
}

func (c *Context) runSync(fn func(*Context)) error {
	x := newExecution(c)
	c.enter(x)
	defer c.leave()

	func() {
		defer func() {
			if r := recover(); r != nil {
				x.resolve(failure.FromPanic(r))
			}
		}()
		fn(c)
	}()
	// a goroutine started with Go may already have failed the block
	x.resolve(nil)
	return <-x.sink
}

func (c *Context) runAsync(ctx context.Context, fn func(*Context, Done), timeout time.Duration) error {
	x := newExecution(c)
	x.timeout = timeout
	x.timer = time.NewTimer(timeout)
	defer x.timer.Stop()

	c.enter(x)
	defer c.leave()

	go x.guard(func() { fn(c, x.signal) })

	select {
	case err := <-x.sink:
		return err
	case <-x.timer.C:
		d := x.deadline()
		if x.resolve(&failure.TimeoutError{Timeout: d}) {
			c.logger.Debug("block timed out",
				"example", c.example.FullDescription(),
				"timeout", d)
		}
	case <-ctx.Done():
		x.resolve(fmt.Errorf("run cancelled: %w", ctx.Err()))
	}
	// resolved one way or another, so the sink holds the winner
	return <-x.sink
}

// intercept offers err to the installed interceptor. A nil return clears
// the failure; a returned or panicked error replaces it.
func (c *Context) intercept(fn func(error) error, err error) (out error) {
	defer func() {
		if r := recover(); r != nil {
			out = failure.FromPanic(r)
		}
	}()
	return fn(err)
}

// verify applies the interceptor and the assertion-count checks to the
// failure of an example body.
func (c *Context) verify(err error) error {
	if err != nil && failure.KindOf(err) == failure.KindError {
		if fn := c.ErrorInterceptor(); fn != nil {
			err = c.intercept(fn, err)
		}
	}
	if err != nil {
		return err
	}

	count := c.AssertionCount()
	if expected, ok := c.ExpectedAssertions(); ok && expected != count {
		return failure.CountMismatch(expected, count)
	}
	if count == 0 {
		return failure.Pending(failure.ZeroAssertions)
	}
	return nil
}
