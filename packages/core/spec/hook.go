package spec

import "time"

// Hook is a before or after block registered on a Group.
type Hook struct {
	block   block
	timeout time.Duration
	group   *Group
}

func newHook(g *Group, list *[]*Hook, b block) *Hook {
	h := &Hook{block: b, group: g}
	*list = append(*list, h)
	return h
}

// TimeoutAfter overrides the suite's default hook timeout for this hook.
func (h *Hook) TimeoutAfter(d time.Duration) *Hook {
	h.timeout = d
	return h
}

// Timeout returns the effective timeout of the hook.
func (h *Hook) Timeout() time.Duration {
	if h.timeout > 0 {
		return h.timeout
	}
	return h.group.suite.defaultHookTimeout
}

// Async reports whether the hook was registered with BeforeAsync or AfterAsync.
func (h *Hook) Async() bool {
	return h.block.async != nil
}
