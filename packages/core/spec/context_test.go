package spec

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/itspec/packages/core/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_FixtureIsMemoized(t *testing.T) {
	calls := 0
	out, _ := runOne(t, func(g *Group) {
		g.Fixture("counter", func(c *Context) any {
			calls++
			return calls
		})
		g.Before(func(c *Context) { c.Fixture("counter") })
		g.It("reads twice", func(c *Context) {
			c.Assert().Equal(1, c.Fixture("counter"))
			c.Assert().Equal(1, c.Fixture("counter"))
		})
	})

	assert.Equal(t, result.Pass, out.Status)
	assert.Equal(t, 1, calls)
}

func TestContext_FixtureIsFreshPerExample(t *testing.T) {
	calls := 0
	s := NewSuite("fresh")
	s.Describe("g", func(g *Group) {
		g.Fixture("n", func(c *Context) any {
			calls++
			return calls
		})
		g.It("first", func(c *Context) { c.Assert().Equal(1, c.Fixture("n")) })
		g.It("second", func(c *Context) { c.Assert().Equal(2, c.Fixture("n")) })
	})

	res, _ := runSuite(t, s, Policy{})
	assert.Equal(t, 2, res.Passed)
}

func TestContext_FixtureShadowing(t *testing.T) {
	s := NewSuite("shadow")
	s.Describe("outer", func(g *Group) {
		g.Fixture("name", func(*Context) any { return "outer" })
		g.It("sees outer", func(c *Context) { c.Assert().Equal("outer", c.Fixture("name")) })
		g.Describe("inner", func(g *Group) {
			g.Fixture("name", func(*Context) any { return "inner" })
			g.It("sees inner", func(c *Context) { c.Assert().Equal("inner", c.Fixture("name")) })
		})
		g.It("still sees outer", func(c *Context) { c.Assert().Equal("outer", c.Fixture("name")) })
	})

	res, _ := runSuite(t, s, Policy{})
	assert.Equal(t, result.Result{Passed: 3, Total: 3}, res)
}

func TestContext_FixtureUsesLaterOverrides(t *testing.T) {
	s := NewSuite("late binding")
	s.Describe("greeting", func(g *Group) {
		g.Subject(func(c *Context) any { return "hello " + Fetch[string](c, "name") })
		g.Fixture("name", func(*Context) any { return "world" })
		g.Describe("for bob", func(g *Group) {
			g.Fixture("name", func(*Context) any { return "bob" })
			g.It("greets bob", func(c *Context) { c.Assert().Equal("hello bob", c.Subject()) })
		})
	})

	res, _ := runSuite(t, s, Policy{})
	assert.Equal(t, 1, res.Passed)
}

func TestContext_Inherited(t *testing.T) {
	s := NewSuite("inherited")
	s.Describe("base", func(g *Group) {
		g.Fixture("list", func(*Context) any { return []string{"a"} })
		g.Describe("extended", func(g *Group) {
			g.Fixture("list", func(c *Context) any {
				parent := c.Inherited("list").([]string)
				return append(append([]string(nil), parent...), "b")
			})
			g.It("builds on the parent", func(c *Context) {
				c.Assert().Equal([]string{"a", "b"}, c.Fixture("list"))
			})
		})
	})

	res, _ := runSuite(t, s, Policy{})
	assert.Equal(t, result.Result{Passed: 1, Total: 1}, res)
}

func TestContext_FixtureConcurrentReaders(t *testing.T) {
	var calls atomic.Int32
	out, _ := runOne(t, func(g *Group) {
		g.Fixture("slow", func(*Context) any {
			calls.Add(1)
			time.Sleep(30 * time.Millisecond)
			return "ready"
		})
		g.ExampleAsync("reads from two goroutines", func(c *Context, done Done) {
			var wg sync.WaitGroup
			for i := 0; i < 2; i++ {
				wg.Add(1)
				c.Go(func() {
					defer wg.Done()
					c.Assert().Equal("ready", c.Fixture("slow"))
				})
			}
			c.Go(func() {
				wg.Wait()
				done(nil)
			})
		})
	})

	assert.Equal(t, result.Pass, out.Status, "err: %v", out.Err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestContext_InheritedFollowsItsOwnEvaluation(t *testing.T) {
	s := NewSuite("inherited")
	s.Describe("base", func(g *Group) {
		g.Fixture("a", func(*Context) any { return "base a" })
		g.Fixture("b", func(*Context) any { return "base b" })
		g.Describe("extended", func(g *Group) {
			g.Fixture("a", func(c *Context) any {
				time.Sleep(20 * time.Millisecond)
				return c.Inherited("a").(string) + "+"
			})
			g.Fixture("b", func(c *Context) any {
				time.Sleep(10 * time.Millisecond)
				return c.Inherited("b").(string) + "+"
			})
			g.ExampleAsync("reads both at once", func(c *Context, done Done) {
				var wg sync.WaitGroup
				for _, name := range []string{"a", "b"} {
					wg.Add(1)
					c.Go(func() {
						defer wg.Done()
						c.Assert().Equal("base "+name+"+", c.Fixture(name))
					})
				}
				c.Go(func() {
					wg.Wait()
					done(nil)
				})
			})
		})
	})

	res, _ := runSuite(t, s, Policy{})
	assert.Equal(t, result.Result{Passed: 1, Total: 1}, res)
}

func TestContext_FailingFixtureFailsEveryReader(t *testing.T) {
	out, _ := runOne(t, func(g *Group) {
		g.Fixture("broken", func(c *Context) any {
			time.Sleep(20 * time.Millisecond)
			c.Pending("not wired yet")
			return nil
		})
		g.ExampleAsync("reads it twice", func(c *Context, done Done) {
			c.Go(func() { c.Fixture("broken") })
			c.Go(func() { c.Fixture("broken") })
		})
	})

	assert.Equal(t, result.Pending, out.Status)
}

func TestContext_FixtureErrors(t *testing.T) {
	t.Run("unknown", func(t *testing.T) {
		out, _ := runOne(t, func(g *Group) {
			g.It("reads", func(c *Context) { c.Fixture("missing") })
		})
		assert.Equal(t, result.Error, out.Status)
		assert.ErrorIs(t, out.Err, ErrUnknownFixture)
	})

	t.Run("cycle", func(t *testing.T) {
		out, _ := runOne(t, func(g *Group) {
			g.Fixture("a", func(c *Context) any { return c.Fixture("b") })
			g.Fixture("b", func(c *Context) any { return c.Fixture("a") })
			g.It("reads", func(c *Context) { c.Fixture("a") })
		})
		assert.Equal(t, result.Error, out.Status)
		assert.ErrorIs(t, out.Err, ErrFixtureCycle)
	})

	t.Run("self reference", func(t *testing.T) {
		out, _ := runOne(t, func(g *Group) {
			g.Fixture("a", func(c *Context) any { return c.Fixture("a") })
			g.It("reads", func(c *Context) { c.Fixture("a") })
		})
		assert.ErrorIs(t, out.Err, ErrFixtureCycle)
	})

	t.Run("inherited outside a fixture", func(t *testing.T) {
		out, _ := runOne(t, func(g *Group) {
			g.It("reads", func(c *Context) { c.Inherited("a") })
		})
		assert.ErrorIs(t, out.Err, ErrNotInFixture)
	})

	t.Run("inherited without a parent definition", func(t *testing.T) {
		out, _ := runOne(t, func(g *Group) {
			g.Fixture("a", func(c *Context) any { return c.Inherited("a") })
			g.It("reads", func(c *Context) { c.Fixture("a") })
		})
		assert.ErrorIs(t, out.Err, ErrNoInheritedDefn)
	})

	t.Run("wrong type", func(t *testing.T) {
		out, _ := runOne(t, func(g *Group) {
			g.Fixture("n", func(*Context) any { return 1 })
			g.It("reads", func(c *Context) { Fetch[string](c, "n") })
		})
		assert.Equal(t, result.Error, out.Status)
		assert.Contains(t, out.Err.Error(), `fixture "n" is int, not string`)
	})
}

func TestContext_SetShadowsFixture(t *testing.T) {
	out, _ := runOne(t, func(g *Group) {
		g.Fixture("user", func(*Context) any { return "fixture" })
		g.Before(func(c *Context) { c.Set("user", "from hook") })
		g.It("sees the hook value", func(c *Context) {
			c.Assert().Equal("from hook", c.Fixture("user"))
		})
	})

	assert.Equal(t, result.Pass, out.Status)
}

func TestContext_SubjectAndFetch(t *testing.T) {
	out, _ := runOne(t, func(g *Group) {
		g.Fixture("", func(*Context) any { return 42 })
		g.Fixture("nothing", func(*Context) any { return nil })
		g.It("reads the subject", func(c *Context) {
			c.Assert().Equal(42, c.Subject())
			c.Assert().Equal(42, Fetch[int](c, SubjectName))
			c.Assert().Nil(Fetch[error](c, "nothing"))
		})
	})

	require.NoError(t, out.Err)
	assert.Equal(t, result.Pass, out.Status)
}

func TestContext_Accessors(t *testing.T) {
	out, _ := runOne(t, func(g *Group) {
		g.It("inspects itself", func(c *Context) {
			c.Assert().Equal("subject inspects itself", c.Example().FullDescription())
			c.Assert().NotNil(c.Logger())
			c.Assert().NoError(c.RunContext().Err())

			_, ok := c.ExpectedAssertions()
			c.Assert().False(ok)
			c.ExpectAssertions(5)
			n, ok := c.ExpectedAssertions()
			c.Assert().True(ok)
			c.Assert().Equal(5, n)
			count := c.AssertionCount()
			c.Assert().Equal(6, count)
			c.ExpectAssertions(7)
		})
	})

	require.NoError(t, out.Err)
	assert.Equal(t, 7, out.Assertions)
}
