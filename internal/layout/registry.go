package layout

import (
	"fmt"
	"sync"
)

// Registry is a caller-owned index of objects keyed by full id. It never
// creates objects and membership is always explicit: callers Add what they
// construct and Remove what they dispose of. A pipeline typically keeps one
// registry for live objects and one for template representatives.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	objs map[string]*Object
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{objs: make(map[string]*Object)}
}

// Add registers objects. It fails on the first object whose full id is
// already present; objects before it stay registered.
func (r *Registry) Add(objs ...*Object) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range objs {
		if o == nil {
			continue
		}
		if _, ok := r.objs[o.FullID()]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateObject, o.FullID())
		}
		r.objs[o.FullID()] = o
	}
	return nil
}

// Remove drops the object with the given full id. Unknown ids are ignored.
func (r *Registry) Remove(fullID string) {
	r.mu.Lock()
	delete(r.objs, fullID)
	r.mu.Unlock()
}

// Get returns the object registered under fullID.
func (r *Registry) Get(fullID string) (*Object, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.objs[fullID]
	return o, ok
}

// Len returns the number of registered objects.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objs)
}

// All returns the registered objects sorted by slide and shape index.
func (r *Registry) All() []*Object {
	r.mu.RLock()
	out := make([]*Object, 0, len(r.objs))
	for _, o := range r.objs {
		out = append(out, o)
	}
	r.mu.RUnlock()
	SortObjects(out)
	return out
}

// Clear removes every object.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.objs = make(map[string]*Object)
	r.mu.Unlock()
}

// CheckUnique returns ErrDuplicateObject if two objects in objs share a full id.
func CheckUnique(objs []*Object) error {
	seen := make(map[string]struct{}, len(objs))
	for _, o := range objs {
		if _, ok := seen[o.FullID()]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateObject, o.FullID())
		}
		seen[o.FullID()] = struct{}{}
	}
	return nil
}
