// Package testutil provides shared test fixtures for the layout packages.
//
// Fixtures build objects on a 1000x1000 slide unless stated otherwise. The
// raw shape id of a fixture object is its shape index plus 100 so that the
// two never coincide.
package testutil

import (
	"testing"

	"github.com/banshee-data/gridsnap/internal/layout"
)

// SlideSize is the side of the square slide fixtures are laid out on.
const SlideSize = 1000

// Object builds a single object.
func Object(slide, shape int, cat layout.Category, left, top, width, height int) *layout.Object {
	return layout.NewObject(layout.ObjectSpec{
		SlideIndex: slide,
		ShapeIndex: shape,
		RawID:      shape + 100,
		Category:   cat,
		Left:       left,
		Top:        top,
		Width:      width,
		Height:     height,
	})
}

// Row lays n same-sized objects out left to right with the given gap,
// starting at shape index firstShape.
func Row(slide, firstShape, n int, cat layout.Category, left, top, width, height, gap int) []*layout.Object {
	out := make([]*layout.Object, n)
	for i := range out {
		out[i] = Object(slide, firstShape+i, cat, left+i*(width+gap), top, width, height)
	}
	return out
}

// Ptr returns a pointer to v; handy for optional limits.
func Ptr[T any](v T) *T { return &v }

// FullIDs returns the full ids of objs in order.
func FullIDs(objs []*layout.Object) []string {
	out := make([]string, len(objs))
	for i, o := range objs {
		out[i] = o.FullID()
	}
	return out
}

// Registry returns a live registry holding objs.
func Registry(t testing.TB, objs ...*layout.Object) *layout.Registry {
	t.Helper()
	r := layout.NewRegistry()
	if err := r.Add(objs...); err != nil {
		t.Fatalf("registry fixture: %v", err)
	}
	return r
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
