package recognize

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/gridsnap/internal/layout"
	"github.com/banshee-data/gridsnap/internal/monitoring"
)

// StrictRepeatThreshold selects the repeat test. A candidate group counts
// the pivot plus its matches; with the strict test it becomes a template
// only when its size is greater than k, so a group of exactly k objects is
// rejected. Set to false to accept groups of size k.
const StrictRepeatThreshold = true

// ErrInvalidRepeat is returned for a negative repeat threshold.
var ErrInvalidRepeat = errors.New("repeat threshold must be non-negative")

func exceedsRepeatThreshold(groupSize, k int) bool {
	if StrictRepeatThreshold {
		return groupSize > k
	}
	return groupSize >= k
}

// EngineOption customises NewEngine.
type EngineOption func(*Engine)

// WithEngineWorkers bounds how many categories are partitioned concurrently.
func WithEngineWorkers(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// Engine partitions populations into templates. Template ids are
// "template_N", numbered from 0 in creation order for the life of the
// Engine.
//
// Recognize calls are serialised. The registries are owned by the caller.
type Engine struct {
	mu        sync.Mutex
	live      *layout.Registry
	templates *layout.Registry
	workers   int
	next      int
	created   []*Template
}

// NewEngine returns an Engine. live supplies the default population and
// templates receives each template's representative. Either may be nil.
func NewEngine(live, templates *layout.Registry, opts ...EngineOption) *Engine {
	e := &Engine{live: live, templates: templates, workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Templates returns every template created so far.
func (e *Engine) Templates() []*Template {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Template(nil), e.created...)
}

// Reset forgets every template, clears the template id of their instances
// and removes their representatives from the template registry. Numbering
// continues from where it was.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range e.created {
		for _, o := range t.instances {
			o.ClearTemplateID()
		}
		if e.templates != nil {
			if rep := t.Representative(); rep != nil {
				e.templates.Remove(rep.FullID())
			}
		}
	}
	e.created = nil
}

// Recognize groups population into templates using rec. A nil population
// means every object in the live registry.
//
// Objects are sorted by slide and shape index and split by category. Each
// category is partitioned greedily: the first object that is neither
// assigned nor rejected becomes the pivot, every later free object that
// rec matches against it joins its group, and the group becomes a template
// when it passes the repeat threshold. Otherwise the pivot and its matches
// are rejected and never considered again.
//
// Duplicate full ids and objects that already carry a template id are data
// errors reported before anything is changed.
func (e *Engine) Recognize(ctx context.Context, population []*layout.Object, rec *Recognizer, k int) ([]*Template, error) {
	if k < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRepeat, k)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if population == nil && e.live != nil {
		population = e.live.All()
	}
	objs := append([]*layout.Object(nil), population...)
	if err := layout.CheckUnique(objs); err != nil {
		return nil, err
	}
	for _, o := range objs {
		if id := o.TemplateID(); id != "" {
			return nil, fmt.Errorf("%w: %s already in %s", layout.ErrTemplateAssigned, o.FullID(), id)
		}
	}
	layout.SortObjects(objs)

	byCat := make(map[layout.Category][]*layout.Object)
	for _, o := range objs {
		byCat[o.Category()] = append(byCat[o.Category()], o)
	}
	cats := make([]layout.Category, 0, len(byCat))
	for c := range byCat {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	groups := make([][][]*layout.Object, len(cats))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, c := range cats {
		i, c := i, c
		g.Go(func() error {
			gs, err := partition(gctx, byCat[c], rec, k)
			if err != nil {
				return fmt.Errorf("category %s: %w", c, err)
			}
			groups[i] = gs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []*Template
	for i, c := range cats {
		for _, members := range groups[i] {
			t := NewTemplate(fmt.Sprintf("template_%d", e.next), c)
			e.next++
			for _, o := range members {
				if err := t.AddInstance(o, false); err != nil {
					return out, err
				}
			}
			rep := t.ComputeRepresentative()
			e.created = append(e.created, t)
			out = append(out, t)
			if e.templates != nil {
				if err := e.templates.Add(rep); err != nil {
					return out, fmt.Errorf("register %s: %w", t.ID(), err)
				}
			}
			monitoring.Debugf("recognize: %s", t)
		}
	}
	monitoring.Logf("recognize: %d objects, %d categories, %d templates (k=%d)", len(objs), len(cats), len(out), k)
	return out, nil
}

type rowState uint8

const (
	unassigned rowState = iota
	touched
	assigned
)

// partition runs the greedy state machine over one category. objs must be
// sorted. Only this function writes the state slice.
func partition(ctx context.Context, objs []*layout.Object, rec *Recognizer, k int) ([][]*layout.Object, error) {
	state := make([]rowState, len(objs))
	var groups [][]*layout.Object
	for p := range objs {
		if state[p] != unassigned {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pivot := objs[p]
		members := []int{p}
		for j := p + 1; j < len(objs); j++ {
			if state[j] == unassigned && rec.Matches(pivot, objs[j]) {
				members = append(members, j)
			}
		}

		next := touched
		if exceedsRepeatThreshold(len(members), k) {
			next = assigned
			group := make([]*layout.Object, len(members))
			for i, m := range members {
				group[i] = objs[m]
			}
			groups = append(groups, group)
		}
		for _, m := range members {
			state[m] = next
		}
	}
	return groups, nil
}
