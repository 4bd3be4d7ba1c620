package layout

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrUnknownCategory is returned when a shape category is outside the closed set.
	ErrUnknownCategory = errors.New("unknown shape category")
	// ErrUnknownAnchor is returned for an anchor name that is not one of the five anchors.
	ErrUnknownAnchor = errors.New("unknown anchor point")
	// ErrUnknownAxisMode is returned for an axis mode other than x, y or joint.
	ErrUnknownAxisMode = errors.New("unknown axis mode")
	// ErrDuplicateObject is returned when two objects share a full id in one population.
	ErrDuplicateObject = errors.New("duplicate object identity")
	// ErrTemplateAssigned is returned when an object already carries a template id.
	ErrTemplateAssigned = errors.New("object already assigned to a template")
)

// Point is a position on the canvas.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Vector {
	return Vector{DX: p.X - q.X, DY: p.Y - q.Y}
}

// Add returns p moved by v.
func (p Point) Add(v Vector) Point {
	return Point{X: p.X + v.DX, Y: p.Y + v.DY}
}

// Vector is a displacement on the canvas.
type Vector struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// Norm returns the Euclidean length of the vector.
func (v Vector) Norm() float64 {
	return math.Hypot(float64(v.DX), float64(v.DY))
}

// IsZero reports whether the vector moves nothing.
func (v Vector) IsZero() bool {
	return v.DX == 0 && v.DY == 0
}

// Rect is an axis-aligned rectangle given by its top-left corner and size.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() int { return r.Left + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() int { return r.Top + r.Height }

// Area returns the rectangle area. Negative sizes yield zero.
func (r Rect) Area() int64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return int64(r.Width) * int64(r.Height)
}

// Intersection returns the overlapping rectangle of r and o. The result has
// zero width or height when the rectangles do not overlap.
func (r Rect) Intersection(o Rect) Rect {
	left := max(r.Left, o.Left)
	top := max(r.Top, o.Top)
	right := min(r.Right(), o.Right())
	bottom := min(r.Bottom(), o.Bottom())
	if right <= left || bottom <= top {
		return Rect{Left: left, Top: top}
	}
	return Rect{Left: left, Top: top, Width: right - left, Height: bottom - top}
}

// Category is the kind of shape an object was built from. The set is closed.
type Category string

const (
	CategoryShape   Category = "Shape"
	CategoryPicture Category = "Picture"
	CategoryTable   Category = "Table"
	CategoryChart   Category = "Chart"
	CategoryText    Category = "Text"
	CategoryGroup   Category = "Group"
)

// Categories returns every known category in sorted order.
func Categories() []Category {
	return []Category{CategoryChart, CategoryGroup, CategoryPicture, CategoryShape, CategoryTable, CategoryText}
}

// ParseCategory converts a category name (case-insensitive) to a Category.
// An empty name maps to CategoryShape.
func ParseCategory(s string) (Category, error) {
	if strings.TrimSpace(s) == "" {
		return CategoryShape, nil
	}
	for _, c := range Categories() {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// CategoryFromFlags derives the category from shape-kind flags reported by a
// document reader. When several flags are set the later one in the order
// picture, table, chart, text, group wins.
func CategoryFromFlags(isPicture, isTable, isChart, isText, isGroup bool) Category {
	c := CategoryShape
	if isPicture {
		c = CategoryPicture
	}
	if isTable {
		c = CategoryTable
	}
	if isChart {
		c = CategoryChart
	}
	if isText {
		c = CategoryText
	}
	if isGroup {
		c = CategoryGroup
	}
	return c
}

// Anchor names one of the five fixed positions on an object's bounding box.
type Anchor int

const (
	TopLeft Anchor = iota
	TopRight
	BottomLeft
	BottomRight
	Center
)

var anchorNames = [...]string{"top-left", "top-right", "bottom-left", "bottom-right", "center"}

// String returns the anchor name, e.g. "top-left".
func (a Anchor) String() string {
	if a < TopLeft || a > Center {
		return fmt.Sprintf("anchor(%d)", int(a))
	}
	return anchorNames[a]
}

// MarshalText implements encoding.TextMarshaler.
func (a Anchor) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Anchor) UnmarshalText(b []byte) error {
	v, err := ParseAnchor(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// AllAnchors returns the five anchors in their fixed order.
func AllAnchors() []Anchor {
	return []Anchor{TopLeft, TopRight, BottomLeft, BottomRight, Center}
}

// ParseAnchor converts an anchor name to an Anchor.
func ParseAnchor(s string) (Anchor, error) {
	for i, n := range anchorNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return Anchor(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAnchor, s)
}

// AnchorSet is the subset of anchors used during snapping. The zero value is
// empty; use DefaultAnchorSet for all five.
type AnchorSet []Anchor

// DefaultAnchorSet returns all five anchors.
func DefaultAnchorSet() AnchorSet {
	return AnchorSet(AllAnchors())
}

// ParseAnchorSet parses anchor names. Duplicates are dropped and the result
// keeps the fixed anchor order.
func ParseAnchorSet(names []string) (AnchorSet, error) {
	var seen [len(anchorNames)]bool
	for _, n := range names {
		a, err := ParseAnchor(n)
		if err != nil {
			return nil, err
		}
		seen[a] = true
	}
	set := make(AnchorSet, 0, len(names))
	for _, a := range AllAnchors() {
		if seen[a] {
			set = append(set, a)
		}
	}
	return set, nil
}

// Contains reports whether a is in the set.
func (s AnchorSet) Contains(a Anchor) bool {
	for _, x := range s {
		if x == a {
			return true
		}
	}
	return false
}

// AxisMode selects which axes a snapping strategy may move.
type AxisMode int

const (
	ModeX AxisMode = iota
	ModeY
	ModeJoint
)

// String returns "x", "y" or "joint".
func (m AxisMode) String() string {
	switch m {
	case ModeX:
		return "x"
	case ModeY:
		return "y"
	case ModeJoint:
		return "joint"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m AxisMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseAxisMode converts "x", "y" or "joint" to an AxisMode.
func ParseAxisMode(s string) (AxisMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return ModeX, nil
	case "y":
		return ModeY, nil
	case "joint", "xy", "both":
		return ModeJoint, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAxisMode, s)
}
