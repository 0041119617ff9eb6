package output

import (
	"time"

	"github.com/abdul-hamid-achik/itspec/packages/core/result"
	"github.com/abdul-hamid-achik/itspec/packages/core/spec"
	"github.com/google/uuid"
)

type entry struct {
	example *spec.Example
	outcome result.Outcome
}

// collector accumulates outcomes for the formatters that write on Flush.
type collector struct {
	spec.NopReporter
	settings

	suite    string
	start    time.Time
	entries  []entry
	res      result.Result
	complete bool
}

func newCollector(opts []Option) collector {
	s := newSettings(opts)
	if s.runID == "" {
		s.runID = uuid.NewString()
	}
	return collector{settings: s}
}

func (c *collector) SuiteStart(s *spec.Suite) {
	c.suite = s.Name()
	c.start = c.clock()
}

func (c *collector) ExampleComplete(e *spec.Example, out result.Outcome) {
	c.entries = append(c.entries, entry{example: e, outcome: out})
}

func (c *collector) SuiteComplete(_ *spec.Suite, res result.Result) {
	c.res = res
	c.complete = true
}

// summary returns the suite result, or a tally of the collected entries
// when the suite never completed.
func (c *collector) summary() result.Result {
	if c.complete {
		return c.res
	}
	var res result.Result
	for _, e := range c.entries {
		res.Fold(e.outcome)
	}
	return res
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
