package grid

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/banshee-data/gridsnap/internal/layout"
)

// DisabledDepth turns an axis off: its line set is empty.
const DisabledDepth = -1

var (
	ErrInvalidDepth        = errors.New("grid depth must be >= -1")
	ErrInvalidLength       = errors.New("grid axis length must be non-negative")
	ErrDimensionMismatch   = errors.New("grid dimensions do not match")
	ErrOddCoordinates      = errors.New("coordinate pairs need an even number of values")
	ErrNonFiniteCoordinate = errors.New("coordinate is not a finite number")
)

// Build returns the sorted line set for an axis of the given length.
//
// Depth -1 yields no lines. Otherwise the set is seeded with 0 and length
// and each segment is bisected at its integer midpoint, recursing depth
// times. Depth 0 yields the two borders only.
func Build(length, depth int) ([]int, error) {
	if depth < DisabledDepth {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDepth, depth)
	}
	if length < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	if depth == DisabledDepth {
		return []int{}, nil
	}
	lines := []int{0}
	lines = bisect(lines, 0, length, depth)
	if length != 0 {
		lines = append(lines, length)
	}
	return lines, nil
}

// bisect appends interior midpoints of (a, b) in ascending order. Segments
// shorter than 2 have no interior integer so recursion stops there.
func bisect(out []int, a, b, depth int) []int {
	if depth == 0 || b-a < 2 {
		return out
	}
	m := a + (b-a)/2
	out = bisect(out, a, m, depth-1)
	out = append(out, m)
	return bisect(out, m, b, depth-1)
}

// FindNearest returns the line closest to v. Ties resolve to the smaller
// line. It returns false when lines is empty. lines must be sorted.
func FindNearest(lines []int, v int) (int, bool) {
	if len(lines) == 0 {
		return 0, false
	}
	i, _ := slices.BinarySearch(lines, v)
	switch {
	case i == 0:
		return lines[0], true
	case i == len(lines):
		return lines[len(lines)-1], true
	}
	lo, hi := lines[i-1], lines[i]
	if hi-v < v-lo {
		return hi, true
	}
	return lo, true
}

// Grid holds the snap targets of a canvas. XDepth and YDepth record how the
// line sets were built; once external lines are merged in they are
// informational only.
//
// A Grid is read-only while snapping runs and may be shared between
// goroutines then. Mutating methods are not safe for concurrent use.
type Grid struct {
	Width  int
	Height int
	XDepth int
	YDepth int

	xs []int
	ys []int
}

// New builds a grid by subdividing both axes.
func New(width, height, xDepth, yDepth int) (*Grid, error) {
	xs, err := Build(width, xDepth)
	if err != nil {
		return nil, fmt.Errorf("x axis: %w", err)
	}
	ys, err := Build(height, yDepth)
	if err != nil {
		return nil, fmt.Errorf("y axis: %w", err)
	}
	return &Grid{Width: width, Height: height, XDepth: xDepth, YDepth: yDepth, xs: xs, ys: ys}, nil
}

// Empty returns a grid of the given size with both axes disabled. External
// coordinates are typically unioned into it.
func Empty(width, height int) *Grid {
	return &Grid{Width: width, Height: height, XDepth: DisabledDepth, YDepth: DisabledDepth}
}

// XLines returns a copy of the vertical line positions.
func (g *Grid) XLines() []int { return slices.Clone(g.xs) }

// YLines returns a copy of the horizontal line positions.
func (g *Grid) YLines() []int { return slices.Clone(g.ys) }

// HasX reports whether the grid has any vertical lines.
func (g *Grid) HasX() bool { return len(g.xs) > 0 }

// HasY reports whether the grid has any horizontal lines.
func (g *Grid) HasY() bool { return len(g.ys) > 0 }

// NearestX returns the vertical line closest to x.
func (g *Grid) NearestX(x int) (int, bool) { return FindNearest(g.xs, x) }

// NearestY returns the horizontal line closest to y.
func (g *Grid) NearestY(y int) (int, bool) { return FindNearest(g.ys, y) }

// AddXLine inserts a vertical line; duplicates are ignored.
func (g *Grid) AddXLine(x int) { g.xs = insertSorted(g.xs, x) }

// AddYLine inserts a horizontal line; duplicates are ignored.
func (g *Grid) AddYLine(y int) { g.ys = insertSorted(g.ys, y) }

func insertSorted(lines []int, v int) []int {
	i, found := slices.BinarySearch(lines, v)
	if found {
		return lines
	}
	return slices.Insert(lines, i, v)
}

// Extend unions other's lines into g. Both grids must have the same size.
func (g *Grid) Extend(other *Grid) error {
	if g.Width != other.Width || g.Height != other.Height {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch, g.Width, g.Height, other.Width, other.Height)
	}
	g.xs = union(g.xs, other.xs)
	g.ys = union(g.ys, other.ys)
	g.XDepth = max(g.XDepth, other.XDepth)
	g.YDepth = max(g.YDepth, other.YDepth)
	return nil
}

// Merge returns a new grid holding the union of a and b. Neither input is
// modified.
func Merge(a, b *Grid) (*Grid, error) {
	out := a.Clone()
	if err := out.Extend(b); err != nil {
		return nil, err
	}
	return out, nil
}

// union merges two sorted, deduplicated slices.
func union(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// XView returns a copy of g with the horizontal lines removed.
func (g *Grid) XView() *Grid {
	v := g.Clone()
	v.ys = nil
	v.YDepth = DisabledDepth
	return v
}

// YView returns a copy of g with the vertical lines removed.
func (g *Grid) YView() *Grid {
	v := g.Clone()
	v.xs = nil
	v.XDepth = DisabledDepth
	return v
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	c := *g
	c.xs = slices.Clone(g.xs)
	c.ys = slices.Clone(g.ys)
	return &c
}

// Snap moves p to the nearest grid intersection. An axis without lines keeps
// the coordinate of p.
func (g *Grid) Snap(p layout.Point) layout.Point {
	out := p
	if x, ok := g.NearestX(p.X); ok {
		out.X = x
	}
	if y, ok := g.NearestY(p.Y); ok {
		out.Y = y
	}
	return out
}

// AddXCoordinates rounds each value to the nearest integer and unions it
// into the vertical lines.
func (g *Grid) AddXCoordinates(vals []float64) error {
	xs, err := roundAll(vals)
	if err != nil {
		return err
	}
	for _, x := range xs {
		g.AddXLine(x)
	}
	return nil
}

// AddYCoordinates rounds each value to the nearest integer and unions it
// into the horizontal lines.
func (g *Grid) AddYCoordinates(vals []float64) error {
	ys, err := roundAll(vals)
	if err != nil {
		return err
	}
	for _, y := range ys {
		g.AddYLine(y)
	}
	return nil
}

// AddPairs reads vals as flattened (x, y) pairs and unions each component
// into its axis.
func (g *Grid) AddPairs(vals []float64) error {
	if len(vals)%2 != 0 {
		return fmt.Errorf("%w: got %d", ErrOddCoordinates, len(vals))
	}
	pts, err := roundAll(vals)
	if err != nil {
		return err
	}
	for i := 0; i < len(pts); i += 2 {
		g.AddXLine(pts[i])
		g.AddYLine(pts[i+1])
	}
	return nil
}

func roundAll(vals []float64) ([]int, error) {
	out := make([]int, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: index %d", ErrNonFiniteCoordinate, i)
		}
		out[i] = int(math.Round(v))
	}
	return out, nil
}

// Equal reports whether a and b have the same size and line sets.
func Equal(a, b *Grid) bool {
	return a.Width == b.Width && a.Height == b.Height &&
		slices.Equal(a.xs, b.xs) && slices.Equal(a.ys, b.ys)
}

func (g *Grid) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "grid %dx%d (depth %d/%d)", g.Width, g.Height, g.XDepth, g.YDepth)
	fmt.Fprintf(&sb, " x=%v y=%v", g.xs, g.ys)
	return sb.String()
}
