package spec

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/abdul-hamid-achik/itspec/packages/core/result"
	"github.com/abdul-hamid-achik/itspec/packages/snapshot"
)

const (
	DefaultTimeout     = 5 * time.Second
	DefaultHookTimeout = 2 * time.Second
)

// Suite owns the root group of a declaration tree and the defaults its
// examples and hooks fall back to.
type Suite struct {
	name               string
	root               *Group
	defaultTimeout     time.Duration
	defaultHookTimeout time.Duration
	logger             *slog.Logger
	snapshots          *snapshot.Manager
}

// Option is a functional option for configuring a Suite.
type Option func(*Suite)

// WithDefaultTimeout sets the timeout of asynchronous example bodies that
// do not set their own.
func WithDefaultTimeout(d time.Duration) Option {
	return func(s *Suite) {
		if d > 0 {
			s.defaultTimeout = d
		}
	}
}

// WithDefaultHookTimeout sets the timeout of asynchronous hooks that do not
// set their own.
func WithDefaultHookTimeout(d time.Duration) Option {
	return func(s *Suite) {
		if d > 0 {
			s.defaultHookTimeout = d
		}
	}
}

// WithLogger sets the logger used for engine diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Suite) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSnapshots enables snapshot assertions backed by m.
func WithSnapshots(m *snapshot.Manager) Option {
	return func(s *Suite) {
		s.snapshots = m
	}
}

// NewSuite creates an empty suite.
func NewSuite(name string, opts ...Option) *Suite {
	s := &Suite{
		name:               name,
		defaultTimeout:     DefaultTimeout,
		defaultHookTimeout: DefaultHookTimeout,
		logger:             slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	s.root = newGroup(s, nil, "")
	s.Configure(opts...)
	return s
}

// Configure applies opts to an existing suite. Timeouts resolve when a
// block runs, so this may be called after the tree is declared.
func (s *Suite) Configure(opts ...Option) {
	for _, opt := range opts {
		opt(s)
	}
}

func (s *Suite) Name() string                      { return s.name }
func (s *Suite) Root() *Group                      { return s.root }
func (s *Suite) Logger() *slog.Logger              { return s.logger }
func (s *Suite) Snapshots() *snapshot.Manager      { return s.snapshots }
func (s *Suite) DefaultTimeout() time.Duration     { return s.defaultTimeout }
func (s *Suite) DefaultHookTimeout() time.Duration { return s.defaultHookTimeout }

// Describe declares a top-level group.
func (s *Suite) Describe(description string, fn func(g *Group)) *Group {
	return s.root.Describe(description, fn)
}

// Run executes the whole tree under policy and returns the aggregate result.
func (s *Suite) Run(ctx context.Context, policy Policy, r Reporter) result.Result {
	if r == nil {
		r = NopReporter{}
	}

	r.SuiteStart(s)
	res, halted := s.root.Traverse(ctx, policy, r)
	if halted {
		s.logger.Info("run halted", "total", res.Total)
	}
	r.SuiteComplete(s, res)
	return res
}

// Count returns the number of examples the policy would run.
func (s *Suite) Count(policy Policy) int {
	n := 0
	s.root.Walk(policy, func(node Node, _ int) {
		if _, ok := node.(*Example); ok {
			n++
		}
	})
	return n
}
