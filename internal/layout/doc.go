// Package layout owns the core model of the grid snapper.
//
// Responsibilities: positioned objects and their anchor points, snap
// candidates, pairwise similarity metrics, and the caller-owned object
// registries used to scope a population.
// Key types: Object, Candidate, Registry.
//
// Dependency rule: layout depends on nothing else in the module. Grid
// construction, snapping strategies, template recognition and persistence
// live in sub-packages that import layout, never the other way round.
//
// Coordinates are integers in a single linear unit (typically EMU for slide
// documents). (0,0) is the top-left corner of the canvas; X grows rightward
// and Y grows downward.
package layout
