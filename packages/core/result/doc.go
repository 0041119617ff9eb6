// Package result holds the value types produced by a run: the classified
// Outcome of a single example and the aggregate Result tally over many.
//
// A Result folds either an Outcome or another Result, so the same operation
// rolls an example into its group and a group into its parent.
package result
