package recognize

import (
	"errors"
	"fmt"

	"github.com/banshee-data/gridsnap/internal/layout"
)

// ErrCategoryMismatch is returned when adding an instance whose category
// differs from the template's.
var ErrCategoryMismatch = errors.New("instance category does not match template")

// Template is a group of interchangeable objects of one category.
//
// The representative is computed on demand from the current instances and
// is not refreshed when instances change; call ComputeRepresentative again.
type Template struct {
	id        string
	category  layout.Category
	instances []*layout.Object
	rep       *layout.Object
}

// NewTemplate returns an empty template.
func NewTemplate(id string, category layout.Category) *Template {
	return &Template{id: id, category: category}
}

func (t *Template) ID() string                { return t.id }
func (t *Template) Category() layout.Category { return t.category }
func (t *Template) Len() int                  { return len(t.instances) }

// Instances returns the instances in insertion order.
func (t *Template) Instances() []*layout.Object {
	return append([]*layout.Object(nil), t.instances...)
}

// AddInstance appends obj and stamps it with the template id. flush drops
// the current instances first.
func (t *Template) AddInstance(obj *layout.Object, flush bool) error {
	if flush {
		t.instances = t.instances[:0]
	}
	if obj.Category() != t.category {
		return fmt.Errorf("%w: %s is %s, template %s is %s",
			ErrCategoryMismatch, obj.FullID(), obj.Category(), t.id, t.category)
	}
	if err := obj.SetTemplateID(t.id); err != nil {
		return err
	}
	t.instances = append(t.instances, obj)
	return nil
}

// Representative returns the last computed representative, or nil.
func (t *Template) Representative() *layout.Object { return t.rep }

// ComputeRepresentative builds a virtual object at the mean top and mean
// left of the instances, truncated toward zero, sized like the first
// instance. It returns nil and keeps no representative when the template is
// empty.
func (t *Template) ComputeRepresentative() *layout.Object {
	if len(t.instances) == 0 {
		t.rep = nil
		return nil
	}
	var sumTop, sumLeft int64
	for _, o := range t.instances {
		sumTop += int64(o.Top())
		sumLeft += int64(o.Left())
	}
	n := int64(len(t.instances))
	first := t.instances[0]
	t.rep = layout.NewVirtualObject(t.id, t.category, layout.Rect{
		Left:   int(sumLeft / n),
		Top:    int(sumTop / n),
		Width:  first.Width(),
		Height: first.Height(),
	}, layout.WithAnchors(first.ActiveAnchors()))
	return t.rep
}

func (t *Template) String() string {
	return fmt.Sprintf("%s with %d objects of category %s", t.id, len(t.instances), t.category)
}
