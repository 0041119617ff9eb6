// Package failure defines the failure taxonomy shared by the engine, the
// assertion handle and the formatters.
//
// Every failure is classified into one of three kinds:
//
//   - KindPending: an explicit "not implemented yet" or a zero-assertion example
//   - KindAssertion: a failed check or an assertion-count mismatch
//   - KindError: anything else (panics, timeouts, hook aggregates)
//
// KindOf uses errors.As, so wrapped failures classify the same as bare ones.
package failure
