// Package pipeline runs a complete snapping pass over a document.
//
// Responsibilities:
//   - turn a configuration into run Options
//   - build the basic grid and any cluster-derived grid for each slide
//   - generate candidates for every configured axis mode
//   - arbitrate and commit through a caller-supplied sink
//   - optionally group the snapped objects into templates
//
// Key types: Options, SlideGrids, Outcome, Result.
//
// Dependency rule: pipeline depends on the layout packages and config. It
// never touches storage or rendering directly; those are reached through
// snapping.CommitSink or by the caller reading the Result.
package pipeline
