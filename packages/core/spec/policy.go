package spec

import (
	"fmt"
	"regexp"
)

// Filter decides whether an example runs. Groups are never filtered.
type Filter func(e *Example) bool

// Policy controls a traversal.
type Policy struct {
	Filter        Filter
	HaltOnFailure bool
}

// Allows reports whether e passes the policy filter.
func (p Policy) Allows(e *Example) bool {
	return p.Filter == nil || p.Filter(e)
}

// MatchDescription returns a filter that keeps examples whose full
// description matches the regular expression pattern. An empty pattern
// keeps everything.
func MatchDescription(pattern string) (Filter, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", pattern, err)
	}
	return func(e *Example) bool {
		return re.MatchString(e.FullDescription())
	}, nil
}
