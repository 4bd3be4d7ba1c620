// Package grid owns snap-target construction.
//
// Responsibilities: recursive midpoint subdivision of an axis, nearest-line
// lookup, and the union operations (extend, merge, external coordinates)
// that combine line sets from different sources.
// Key types: Grid.
//
// Dependency rule: grid may depend on layout, but never on snapping,
// recognize or any I/O package.
package grid
