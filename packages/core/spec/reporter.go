package spec

import (
	"github.com/abdul-hamid-achik/itspec/packages/core/result"
)

// Event names, stable across releases.
const (
	EventSuiteStart      = "suiteStart"
	EventSuiteComplete   = "suiteComplete"
	EventGroupStart      = "groupStart"
	EventGroupComplete   = "groupComplete"
	EventExampleStart    = "exampleStart"
	EventExampleComplete = "exampleComplete"
	EventExamplePass     = "examplePass"
	EventExamplePend     = "examplePend"
	EventExampleFail     = "exampleFail"
	EventExampleError    = "exampleError"
)

// Reporter receives lifecycle events from a run. All calls are made from
// the goroutine that called Suite.Run, in order.
type Reporter interface {
	SuiteStart(s *Suite)
	SuiteComplete(s *Suite, res result.Result)
	GroupStart(g *Group)
	GroupComplete(g *Group, res result.Result)
	ExampleStart(e *Example)
	ExampleComplete(e *Example, out result.Outcome)
	ExamplePass(e *Example)
	ExamplePend(e *Example, err error)
	ExampleFail(e *Example, err error)
	ExampleError(e *Example, err error)
}

// NopReporter ignores every event. Embed it to implement only some methods.
type NopReporter struct{}

func (NopReporter) SuiteStart(*Suite)                        {}
func (NopReporter) SuiteComplete(*Suite, result.Result)      {}
func (NopReporter) GroupStart(*Group)                        {}
func (NopReporter) GroupComplete(*Group, result.Result)      {}
func (NopReporter) ExampleStart(*Example)                    {}
func (NopReporter) ExampleComplete(*Example, result.Outcome) {}
func (NopReporter) ExamplePass(*Example)                     {}
func (NopReporter) ExamplePend(*Example, error)              {}
func (NopReporter) ExampleFail(*Example, error)              {}
func (NopReporter) ExampleError(*Example, error)             {}

// Reporters fans every event out to each reporter in order.
type Reporters []Reporter

func (rs Reporters) SuiteStart(s *Suite) {
	for _, r := range rs {
		r.SuiteStart(s)
	}
}

func (rs Reporters) SuiteComplete(s *Suite, res result.Result) {
	for _, r := range rs {
		r.SuiteComplete(s, res)
	}
}

func (rs Reporters) GroupStart(g *Group) {
	for _, r := range rs {
		r.GroupStart(g)
	}
}

func (rs Reporters) GroupComplete(g *Group, res result.Result) {
	for _, r := range rs {
		r.GroupComplete(g, res)
	}
}

func (rs Reporters) ExampleStart(e *Example) {
	for _, r := range rs {
		r.ExampleStart(e)
	}
}

func (rs Reporters) ExampleComplete(e *Example, out result.Outcome) {
	for _, r := range rs {
		r.ExampleComplete(e, out)
	}
}

func (rs Reporters) ExamplePass(e *Example) {
	for _, r := range rs {
		r.ExamplePass(e)
	}
}

func (rs Reporters) ExamplePend(e *Example, err error) {
	for _, r := range rs {
		r.ExamplePend(e, err)
	}
}

func (rs Reporters) ExampleFail(e *Example, err error) {
	for _, r := range rs {
		r.ExampleFail(e, err)
	}
}

func (rs Reporters) ExampleError(e *Example, err error) {
	for _, r := range rs {
		r.ExampleError(e, err)
	}
}

// Event is one recorded lifecycle notification.
type Event struct {
	Name    string
	Subject string
	Result  result.Result
	Outcome result.Outcome
	Err     error
}

// Recorder captures events in order. Subject is the full description of the
// group or example, or the suite name.
type Recorder struct {
	Events []Event
}

func (r *Recorder) add(ev Event) {
	r.Events = append(r.Events, ev)
}

// Names returns the recorded event names, optionally suffixed with
// ":<subject>" when withSubject is set.
func (r *Recorder) Names(withSubject bool) []string {
	out := make([]string, len(r.Events))
	for i, ev := range r.Events {
		out[i] = ev.Name
		if withSubject {
			out[i] += ":" + ev.Subject
		}
	}
	return out
}

// Find returns the first event with the given name and subject.
func (r *Recorder) Find(name, subject string) (Event, bool) {
	for _, ev := range r.Events {
		if ev.Name == name && ev.Subject == subject {
			return ev, true
		}
	}
	return Event{}, false
}

func (r *Recorder) SuiteStart(s *Suite) {
	r.add(Event{Name: EventSuiteStart, Subject: s.Name()})
}

func (r *Recorder) SuiteComplete(s *Suite, res result.Result) {
	r.add(Event{Name: EventSuiteComplete, Subject: s.Name(), Result: res})
}

func (r *Recorder) GroupStart(g *Group) {
	r.add(Event{Name: EventGroupStart, Subject: g.FullDescription()})
}

func (r *Recorder) GroupComplete(g *Group, res result.Result) {
	r.add(Event{Name: EventGroupComplete, Subject: g.FullDescription(), Result: res})
}

func (r *Recorder) ExampleStart(e *Example) {
	r.add(Event{Name: EventExampleStart, Subject: e.FullDescription()})
}

func (r *Recorder) ExampleComplete(e *Example, out result.Outcome) {
	r.add(Event{Name: EventExampleComplete, Subject: e.FullDescription(), Outcome: out, Err: out.Err})
}

func (r *Recorder) ExamplePass(e *Example) {
	r.add(Event{Name: EventExamplePass, Subject: e.FullDescription()})
}

func (r *Recorder) ExamplePend(e *Example, err error) {
	r.add(Event{Name: EventExamplePend, Subject: e.FullDescription(), Err: err})
}

func (r *Recorder) ExampleFail(e *Example, err error) {
	r.add(Event{Name: EventExampleFail, Subject: e.FullDescription(), Err: err})
}

func (r *Recorder) ExampleError(e *Example, err error) {
	r.add(Event{Name: EventExampleError, Subject: e.FullDescription(), Err: err})
}
