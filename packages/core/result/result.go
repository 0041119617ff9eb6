package result

import (
	"fmt"
	"time"
)

// Status is the classification of a single example.
type Status int

const (
	Pass Status = iota
	Pending
	Fail
	Error
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "pass"
	case Pending:
		return "pending"
	case Fail:
		return "fail"
	case Error:
		return "error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Outcome is the classified result of one example.
type Outcome struct {
	Status Status
	// Err is the associated failure. It is nil for Pass and for examples
	// pending because they have no block.
	Err error
	// Duration and Assertions are informational and never folded.
	Duration   time.Duration
	Assertions int
}

// Foldable is implemented by Outcome and Result.
type Foldable interface {
	foldInto(r *Result)
}

func (o Outcome) foldInto(r *Result) {
	switch o.Status {
	case Pass:
		r.Passed++
	case Pending:
		r.Pending++
	case Fail:
		r.Failed++
	default:
		r.Errored++
	}
	r.Total++
}

// Result is an aggregate tally of outcomes.
type Result struct {
	Passed  int `json:"pass"`
	Pending int `json:"pend"`
	Failed  int `json:"fail"`
	Errored int `json:"error"`
	Total   int `json:"total"`
}

func (o Result) foldInto(r *Result) {
	r.Passed += o.Passed
	r.Pending += o.Pending
	r.Failed += o.Failed
	r.Errored += o.Errored
	r.Total += o.Total
}

// Fold adds an Outcome (one count) or a Result (field-wise sum) to r.
func (r *Result) Fold(x Foldable) {
	x.foldInto(r)
}

// HasFailures reports whether any fail or error outcome was folded in.
func (r Result) HasFailures() bool {
	return r.Failed > 0 || r.Errored > 0
}

// ExitCode is 2 when anything errored, 1 when anything failed, 0 otherwise.
func (r Result) ExitCode() int {
	if r.Errored > 0 {
		return 2
	}
	if r.Failed > 0 {
		return 1
	}
	return 0
}

func (r Result) String() string {
	return fmt.Sprintf("%d total (%d passed, %d pending, %d failed, %d errored)",
		r.Total, r.Passed, r.Pending, r.Failed, r.Errored)
}
