// Package output provides reporters that render a run.
//
// Supported output formats:
//   - progress: one coloured character per example, then a summary footer
//   - documentation: the group tree with one line per example
//   - json: machine-readable JSON output
//   - junit: JUnit XML format for CI integration
//   - tap: Test Anything Protocol format
//   - html: a standalone HTML report
//
// Every formatter implements spec.Reporter. Formats that accumulate results
// before writing also implement Flushable.
package output
