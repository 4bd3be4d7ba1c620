// Package snapping owns candidate generation and arbitration.
//
// Responsibilities: the X, Y and joint axis strategies, the Search that
// drives them over one or many objects, and the Manager that filters each
// object's candidates against displacement limits and commits the best one.
// Key types: Strategy, Search, Manager, CommitSink.
//
// Dependency rule: snapping may depend on layout and grid, but never on
// recognize, cluster or any I/O package. Sinks are supplied by callers.
//
// Candidate generation and commits are independent per object and fan out
// across goroutines. One object is never handled by two goroutines at once.
package snapping
