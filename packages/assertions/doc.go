// Package assertions provides the assertion handle examples use to check
// their results.
//
// A Handle bundles several checking styles behind one value:
//   - testify assertions (h.Equal, h.Contains, h.NoError, ...)
//   - gomega matchers (h.Expect(x).To(gomega.Equal(y)))
//   - JSON path checks backed by gjson (h.JSONPath, h.JSONHas, h.JSONType, h.JSONLen)
//   - JSON Schema validation (h.MatchesSchema)
//   - stored snapshots (h.Snapshot)
//
// Every failed check panics with a *failure.AssertionError, which the engine
// recovers and classifies as a failed example.
package assertions
