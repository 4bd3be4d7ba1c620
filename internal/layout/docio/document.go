package docio

import (
	"errors"
	"fmt"

	"github.com/banshee-data/gridsnap/internal/layout"
)

var (
	ErrInvalidDocument = errors.New("invalid document")
	ErrUnknownShape    = errors.New("object has no shape in document")
)

// Document is the geometry of a slide deck. Coordinates are integers in a
// single linear unit, usually EMU.
type Document struct {
	SlideWidth  int     `json:"slide_width"`
	SlideHeight int     `json:"slide_height"`
	Slides      []Slide `json:"slides"`
}

// Slide holds the shapes of one slide in z-order.
type Slide struct {
	Index  int     `json:"index"`
	Name   string  `json:"name,omitempty"`
	Shapes []Shape `json:"shapes"`
}

// Shape is one positioned shape. Kind is a category name; when it is empty
// Flags decide the category.
type Shape struct {
	ShapeID    int         `json:"shape_id"`
	Name       string      `json:"name,omitempty"`
	Kind       string      `json:"kind,omitempty"`
	Flags      *ShapeFlags `json:"flags,omitempty"`
	Left       int         `json:"left"`
	Top        int         `json:"top"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	TemplateID string      `json:"template_id,omitempty"`
}

// ShapeFlags are the shape-kind markers some exporters emit instead of a kind.
type ShapeFlags struct {
	Picture bool `json:"picture,omitempty"`
	Table   bool `json:"table,omitempty"`
	Chart   bool `json:"chart,omitempty"`
	Text    bool `json:"text,omitempty"`
	Group   bool `json:"group,omitempty"`
}

// Category resolves the shape category.
func (s Shape) Category() (layout.Category, error) {
	if s.Kind == "" && s.Flags != nil {
		f := s.Flags
		return layout.CategoryFromFlags(f.Picture, f.Table, f.Chart, f.Text, f.Group), nil
	}
	return layout.ParseCategory(s.Kind)
}

// Validate checks the slide size and that slide indices are unique.
func (d *Document) Validate() error {
	if d.SlideWidth <= 0 || d.SlideHeight <= 0 {
		return fmt.Errorf("%w: slide size %dx%d", ErrInvalidDocument, d.SlideWidth, d.SlideHeight)
	}
	seen := make(map[int]bool, len(d.Slides))
	for _, s := range d.Slides {
		if seen[s.Index] {
			return fmt.Errorf("%w: slide index %d repeated", ErrInvalidDocument, s.Index)
		}
		seen[s.Index] = true
	}
	return nil
}

// Objects builds one layout object per shape. The shape index is the
// shape's position within its slide. anchors may be empty for the default.
func (d *Document) Objects(anchors layout.AnchorSet) ([]*layout.Object, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	var objs []*layout.Object
	for _, s := range d.Slides {
		for i, sh := range s.Shapes {
			cat, err := sh.Category()
			if err != nil {
				return nil, fmt.Errorf("slide %d shape %d: %w", s.Index, i, err)
			}
			objs = append(objs, layout.NewObject(layout.ObjectSpec{
				SlideIndex: s.Index,
				ShapeIndex: i,
				RawID:      sh.ShapeID,
				Name:       sh.Name,
				Category:   cat,
				Left:       sh.Left,
				Top:        sh.Top,
				Width:      sh.Width,
				Height:     sh.Height,
			}, layout.WithAnchors(anchors)))
		}
	}
	if err := layout.CheckUnique(objs); err != nil {
		return nil, err
	}
	return objs, nil
}

// ObjectsBySlide groups objects by slide index, keeping their order.
func ObjectsBySlide(objs []*layout.Object) map[int][]*layout.Object {
	out := make(map[int][]*layout.Object)
	for _, o := range objs {
		out[o.SlideIndex()] = append(out[o.SlideIndex()], o)
	}
	return out
}

func (d *Document) shape(slideIndex, shapeIndex int) (*Shape, bool) {
	for si := range d.Slides {
		s := &d.Slides[si]
		if s.Index != slideIndex {
			continue
		}
		if shapeIndex < 0 || shapeIndex >= len(s.Shapes) {
			return nil, false
		}
		return &s.Shapes[shapeIndex], true
	}
	return nil, false
}

// SetPosition moves one shape.
func (d *Document) SetPosition(slideIndex, shapeIndex, left, top int) error {
	sh, ok := d.shape(slideIndex, shapeIndex)
	if !ok {
		return fmt.Errorf("%w: slide %d shape %d", ErrUnknownShape, slideIndex, shapeIndex)
	}
	sh.Left, sh.Top = left, top
	return nil
}

// Apply copies the current position and template id of every non-virtual
// object into the document.
func (d *Document) Apply(objs []*layout.Object) error {
	for _, o := range objs {
		if o.IsVirtual() {
			continue
		}
		sh, ok := d.shape(o.SlideIndex(), o.ShapeIndex())
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownShape, o.FullID())
		}
		sh.Left, sh.Top = o.Left(), o.Top()
		sh.TemplateID = o.TemplateID()
	}
	return nil
}
