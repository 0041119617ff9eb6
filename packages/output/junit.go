package output

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/itspec/packages/core/failure"
	"github.com/abdul-hamid-achik/itspec/packages/core/result"
)

// JUnit XML structures

// JUnitTestSuites is the root element
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr,omitempty"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Skipped    int              `xml:"skipped,attr"`
	Time       float64          `xml:"time,attr"`
	Timestamp  string           `xml:"timestamp,attr,omitempty"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite holds the examples of one group
type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Skipped   int             `xml:"skipped,attr"`
	Time      float64         `xml:"time,attr"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase represents a single example
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

// JUnitFailure represents a failed example
type JUnitFailure struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// JUnitError represents an errored example
type JUnitError struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// JUnitSkipped represents a pending example
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitFormatter formats a run as JUnit XML
type JUnitFormatter struct {
	collector
}

func NewJUnitFormatter(opts ...Option) *JUnitFormatter {
	return &JUnitFormatter{collector: newCollector(opts)}
}

func (f *JUnitFormatter) testSuites() []JUnitTestSuite {
	var suites []JUnitTestSuite
	index := make(map[string]int)

	for _, e := range f.entries {
		className := e.example.Group().FullDescription()
		if className == "" {
			className = f.suite
		}
		i, ok := index[className]
		if !ok {
			i = len(suites)
			index[className] = i
			suites = append(suites, JUnitTestSuite{Name: className})
		}
		suite := &suites[i]

		tc := JUnitTestCase{
			Name:      e.example.Description(),
			ClassName: className,
			Time:      e.outcome.Duration.Seconds(),
		}

		switch e.outcome.Status {
		case result.Pending:
			suite.Skipped++
			tc.Skipped = &JUnitSkipped{Message: pendingReason(e.outcome.Err)}
		case result.Fail:
			suite.Failures++
			tc.Failure = &JUnitFailure{
				Message: firstLine(e.outcome.Err.Error()),
				Type:    "AssertionError",
				Content: failureDetail(e.outcome.Err),
			}
		case result.Error:
			suite.Errors++
			tc.Error = &JUnitError{
				Message: firstLine(e.outcome.Err.Error()),
				Type:    fmt.Sprintf("%T", e.outcome.Err),
				Content: e.outcome.Err.Error(),
			}
		}

		suite.Tests++
		suite.Time += tc.Time
		suite.TestCases = append(suite.TestCases, tc)
	}
	return suites
}

// Flush writes the accumulated JUnit XML output
func (f *JUnitFormatter) Flush(totalDuration time.Duration) error {
	res := f.summary()
	name := f.suite
	if name == "" {
		name = "itspec"
	}

	suites := JUnitTestSuites{
		Name:       name,
		Tests:      res.Total,
		Failures:   res.Failed,
		Errors:     res.Errored,
		Skipped:    res.Pending,
		Time:       totalDuration.Seconds(),
		Timestamp:  f.clock().UTC().Format(time.RFC3339),
		TestSuites: f.testSuites(),
	}

	fmt.Fprintf(f.writer, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	encoder := xml.NewEncoder(f.writer)
	encoder.Indent("", "  ")
	if err := encoder.Encode(suites); err != nil {
		return err
	}
	_, err := fmt.Fprintln(f.writer)
	return err
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func failureDetail(err error) string {
	var ae *failure.AssertionError
	if errors.As(err, &ae) && ae.HasValues() {
		return fmt.Sprintf("%s\nexpected: %s\n     got: %s",
			ae.Message, formatValue(ae.Expected, 200), formatValue(ae.Actual, 200))
	}
	return err.Error()
}
