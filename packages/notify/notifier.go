// Package notify provides notification functionality for itspec runs.
package notify

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abdul-hamid-achik/itspec/packages/core/result"
	"github.com/abdul-hamid-achik/itspec/packages/core/spec"
)

// NotifyOn specifies when to send notifications
type NotifyOn string

const (
	// NotifyAlways sends notifications for every run
	NotifyAlways NotifyOn = "always"
	// NotifyFailure sends notifications only when examples fail or error
	NotifyFailure NotifyOn = "failure"
	// NotifySuccess sends notifications only when nothing failed
	NotifySuccess NotifyOn = "success"
	// NotifyRecovery sends notifications on failure and on the first
	// successful run after one
	NotifyRecovery NotifyOn = "recovery"
)

// ParseNotifyOn validates a policy name. An empty name means failure.
func ParseNotifyOn(s string) (NotifyOn, error) {
	switch NotifyOn(s) {
	case "":
		return NotifyFailure, nil
	case NotifyAlways, NotifyFailure, NotifySuccess, NotifyRecovery:
		return NotifyOn(s), nil
	}
	return "", fmt.Errorf("invalid notify policy %q (valid: always, failure, success, recovery)", s)
}

// RunSummary represents the summary of a run for notifications
type RunSummary struct {
	RunID         string          `json:"run_id"`
	Suite         string          `json:"suite,omitempty"`
	TotalTests    int             `json:"total_tests"`
	PassedTests   int             `json:"passed_tests"`
	PendingTests  int             `json:"pending_tests"`
	FailedTests   int             `json:"failed_tests"`
	ErroredTests  int             `json:"errored_tests"`
	Duration      time.Duration   `json:"duration"`
	Environment   string          `json:"environment,omitempty"`
	FailedResults []FailedExample `json:"failed_results,omitempty"`
	IsRecovery    bool            `json:"is_recovery,omitempty"`
}

// NewRunSummary builds a summary of res with a fresh run id.
func NewRunSummary(suite string, res result.Result, d time.Duration) *RunSummary {
	return &RunSummary{
		RunID:        uuid.NewString(),
		Suite:        suite,
		TotalTests:   res.Total,
		PassedTests:  res.Passed,
		PendingTests: res.Pending,
		FailedTests:  res.Failed,
		ErroredTests: res.Errored,
		Duration:     d,
	}
}

// Broken is the number of examples that failed or errored.
func (s *RunSummary) Broken() int {
	return s.FailedTests + s.ErroredTests
}

// Success reports whether no example failed or errored.
func (s *RunSummary) Success() bool {
	return s.Broken() == 0
}

// FailedExample represents a failed or errored example for notifications
type FailedExample struct {
	Name   string   `json:"name"`
	Group  string   `json:"group,omitempty"`
	Status string   `json:"status"`
	Errors []string `json:"errors,omitempty"`
}

// SummaryReporter is a spec.Reporter that collects what a RunSummary needs.
type SummaryReporter struct {
	spec.NopReporter

	suite  string
	res    result.Result
	failed []FailedExample
}

func (r *SummaryReporter) SuiteStart(s *spec.Suite) {
	r.suite = s.Name()
}

func (r *SummaryReporter) SuiteComplete(_ *spec.Suite, res result.Result) {
	r.res = res
}

func (r *SummaryReporter) ExampleFail(e *spec.Example, err error) {
	r.record(e, result.Fail, err)
}

func (r *SummaryReporter) ExampleError(e *spec.Example, err error) {
	r.record(e, result.Error, err)
}

func (r *SummaryReporter) record(e *spec.Example, status result.Status, err error) {
	fe := FailedExample{Name: e.FullDescription(), Status: status.String()}
	if g := e.Group(); g != nil {
		fe.Group = g.FullDescription()
	}
	if err != nil {
		fe.Errors = []string{err.Error()}
	}
	r.failed = append(r.failed, fe)
}

// Summary returns the collected summary for a run that took d.
func (r *SummaryReporter) Summary(d time.Duration) *RunSummary {
	s := NewRunSummary(r.suite, r.res, d)
	s.FailedResults = append([]FailedExample(nil), r.failed...)
	return s
}

// Notifier is the interface for notification services
type Notifier interface {
	// Notify sends a notification about a run
	Notify(summary *RunSummary) error

	// Name returns the name of the notifier
	Name() string
}

// Manager manages multiple notifiers
type Manager struct {
	notifiers []Notifier
	notifyOn  NotifyOn
	lastState bool // true if last run was successful
}

// NewManager creates a new notification manager
func NewManager(notifyOn NotifyOn, notifiers ...Notifier) *Manager {
	return &Manager{
		notifiers: notifiers,
		notifyOn:  notifyOn,
		lastState: true,
	}
}

// AddNotifier adds a notifier to the manager
func (m *Manager) AddNotifier(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// Len returns the number of registered notifiers.
func (m *Manager) Len() int {
	return len(m.notifiers)
}

// ShouldNotify applies the policy to summary and records its state for
// the next run.
func (m *Manager) ShouldNotify(summary *RunSummary) bool {
	shouldNotify := false
	currentSuccess := summary.Success()

	switch m.notifyOn {
	case NotifyAlways:
		shouldNotify = true
	case NotifyFailure:
		shouldNotify = !currentSuccess
	case NotifySuccess:
		shouldNotify = currentSuccess
	case NotifyRecovery:
		if !m.lastState && currentSuccess {
			shouldNotify = true
			summary.IsRecovery = true
		}
		if !currentSuccess {
			shouldNotify = true
		}
	}

	m.lastState = currentSuccess
	return shouldNotify
}

// Notify sends notifications based on the configured policy. Every
// notifier is tried; their errors are joined.
func (m *Manager) Notify(summary *RunSummary) error {
	if !m.ShouldNotify(summary) {
		return nil
	}

	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(summary); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func headline(summary *RunSummary) (title string, failed, recovered bool) {
	switch {
	case !summary.Success():
		return fmt.Sprintf("%d example(s) failed", summary.Broken()), true, false
	case summary.IsRecovery:
		return "Examples recovered!", false, true
	}
	return "All examples passed!", false, false
}
