package layout

import (
	"fmt"
	"sort"
)

// VirtualIndex is the slide and shape index of synthetic objects that are not
// tied to a concrete slide, such as template representatives.
const VirtualIndex = -1

// ObjectSpec is the per-object record supplied by a geometry source.
type ObjectSpec struct {
	SlideIndex int      `json:"slide_index"`
	ShapeIndex int      `json:"shape_index"`
	RawID      int      `json:"shape_id"`
	Name       string   `json:"name,omitempty"`
	Category   Category `json:"category"`
	Left       int      `json:"left"`
	Top        int      `json:"top"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
}

// ObjectOption customises NewObject.
type ObjectOption func(*Object)

// WithAnchors sets the active anchors of the new object. A nil or empty set
// leaves the default of all five anchors.
func WithAnchors(set AnchorSet) ObjectOption {
	return func(o *Object) {
		if len(set) > 0 {
			o.anchors = append(AnchorSet(nil), set...)
		}
	}
}

// Object is a positioned, sized shape on a slide.
//
// The original geometry is captured once at construction. The current
// geometry changes only through Translate, which the commit step calls.
// An Object is not safe for concurrent mutation; the snapping layer gives
// each object to exactly one task at a time.
type Object struct {
	slideIndex int
	shapeIndex int
	rawID      int
	fullID     string
	name       string
	category   Category

	orig Rect
	cur  Rect

	anchors    AnchorSet
	templateID string
	candidates []Candidate
}

// NewObject builds an Object from a geometry-source record.
func NewObject(spec ObjectSpec, opts ...ObjectOption) *Object {
	cat := spec.Category
	if cat == "" {
		cat = CategoryShape
	}
	r := Rect{Left: spec.Left, Top: spec.Top, Width: spec.Width, Height: spec.Height}
	o := &Object{
		slideIndex: spec.SlideIndex,
		shapeIndex: spec.ShapeIndex,
		rawID:      spec.RawID,
		fullID:     FullID(spec.SlideIndex, spec.ShapeIndex, spec.RawID),
		name:       spec.Name,
		category:   cat,
		orig:       r,
		cur:        r,
		anchors:    DefaultAnchorSet(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewVirtualObject builds a synthetic object that does not belong to any
// slide. key must be unique among virtual objects; it becomes part of the
// full id.
func NewVirtualObject(key string, category Category, r Rect, opts ...ObjectOption) *Object {
	o := NewObject(ObjectSpec{
		SlideIndex: VirtualIndex,
		ShapeIndex: VirtualIndex,
		RawID:      VirtualIndex,
		Name:       key,
		Category:   category,
		Left:       r.Left,
		Top:        r.Top,
		Width:      r.Width,
		Height:     r.Height,
	}, opts...)
	o.fullID = "virtual:" + key
	return o
}

// FullID composes the stable identity key of an object.
func FullID(slideIndex, shapeIndex, rawID int) string {
	return fmt.Sprintf("%d:%d:%d", slideIndex, shapeIndex, rawID)
}

func (o *Object) SlideIndex() int    { return o.slideIndex }
func (o *Object) ShapeIndex() int    { return o.shapeIndex }
func (o *Object) RawID() int         { return o.rawID }
func (o *Object) FullID() string     { return o.fullID }
func (o *Object) Name() string       { return o.name }
func (o *Object) Category() Category { return o.category }

// IsVirtual reports whether the object is a synthetic representative.
func (o *Object) IsVirtual() bool { return o.slideIndex == VirtualIndex }

// Original returns the geometry captured at construction.
func (o *Object) Original() Rect { return o.orig }

// Bounds returns the current geometry.
func (o *Object) Bounds() Rect { return o.cur }

func (o *Object) Left() int   { return o.cur.Left }
func (o *Object) Top() int    { return o.cur.Top }
func (o *Object) Width() int  { return o.cur.Width }
func (o *Object) Height() int { return o.cur.Height }
func (o *Object) Right() int  { return o.cur.Right() }
func (o *Object) Bottom() int { return o.cur.Bottom() }

// Area returns the current area.
func (o *Object) Area() int64 { return o.cur.Area() }

// Center returns the integer center of the current geometry.
func (o *Object) Center() Point {
	return Point{X: o.cur.Left + o.cur.Width/2, Y: o.cur.Top + o.cur.Height/2}
}

// Corners returns top-left, top-right, bottom-left and bottom-right.
func (o *Object) Corners() [4]Point {
	return [4]Point{
		{X: o.cur.Left, Y: o.cur.Top},
		{X: o.cur.Right(), Y: o.cur.Top},
		{X: o.cur.Left, Y: o.cur.Bottom()},
		{X: o.cur.Right(), Y: o.cur.Bottom()},
	}
}

// AnchorPoint returns the current position of the named anchor.
func (o *Object) AnchorPoint(a Anchor) (Point, bool) {
	switch a {
	case TopLeft, TopRight, BottomLeft, BottomRight:
		return o.Corners()[a], true
	case Center:
		return o.Center(), true
	}
	return Point{}, false
}

// AnchorPoints returns every anchor position in the fixed anchor order.
func (o *Object) AnchorPoints() [5]Point {
	c := o.Corners()
	return [5]Point{c[0], c[1], c[2], c[3], o.Center()}
}

// ActiveAnchors returns the anchors used during snapping.
func (o *Object) ActiveAnchors() AnchorSet {
	return append(AnchorSet(nil), o.anchors...)
}

// TemplateID returns the template the object was assigned to, or "".
func (o *Object) TemplateID() string { return o.templateID }

// SetTemplateID records the template assignment. An object can be assigned
// at most once until ClearTemplateID is called.
func (o *Object) SetTemplateID(id string) error {
	if o.templateID != "" && o.templateID != id {
		return fmt.Errorf("%w: %s already in %s", ErrTemplateAssigned, o.fullID, o.templateID)
	}
	o.templateID = id
	return nil
}

// ClearTemplateID removes any template assignment.
func (o *Object) ClearTemplateID() { o.templateID = "" }

// Translate moves the current geometry by v.
func (o *Object) Translate(v Vector) {
	o.cur.Left += v.DX
	o.cur.Top += v.DY
}

// Candidates returns a copy of the accumulated snap candidates.
func (o *Object) Candidates() []Candidate {
	return append([]Candidate(nil), o.candidates...)
}

// NumCandidates returns the number of accumulated candidates.
func (o *Object) NumCandidates() int { return len(o.candidates) }

// AppendCandidates adds candidates to the end of the list.
func (o *Object) AppendCandidates(cs ...Candidate) {
	o.candidates = append(o.candidates, cs...)
}

// FlushCandidates empties the candidate list.
func (o *Object) FlushCandidates() {
	o.candidates = o.candidates[:0]
}

// String describes the object for logs.
func (o *Object) String() string {
	return fmt.Sprintf("[slide %d] %s %q @ [%d;%d] size [%d x %d]",
		o.slideIndex, o.category, o.name, o.cur.Left, o.cur.Top, o.cur.Width, o.cur.Height)
}

// SetActiveAnchors replaces the active anchors of every object in objs.
// An empty set restores the default of all five anchors.
func SetActiveAnchors(objs []*Object, set AnchorSet) {
	if len(set) == 0 {
		set = DefaultAnchorSet()
	}
	for _, o := range objs {
		o.anchors = append(AnchorSet(nil), set...)
	}
}

// SortObjects orders objects by slide index, then shape index, then full id.
func SortObjects(objs []*Object) {
	sort.SliceStable(objs, func(i, j int) bool {
		a, b := objs[i], objs[j]
		if a.slideIndex != b.slideIndex {
			return a.slideIndex < b.slideIndex
		}
		if a.shapeIndex != b.shapeIndex {
			return a.shapeIndex < b.shapeIndex
		}
		return a.fullID < b.fullID
	})
}
