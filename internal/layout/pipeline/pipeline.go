package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/banshee-data/gridsnap/internal/config"
	"github.com/banshee-data/gridsnap/internal/layout"
	"github.com/banshee-data/gridsnap/internal/layout/cluster"
	"github.com/banshee-data/gridsnap/internal/layout/docio"
	"github.com/banshee-data/gridsnap/internal/layout/grid"
	"github.com/banshee-data/gridsnap/internal/layout/recognize"
	"github.com/banshee-data/gridsnap/internal/layout/snapping"
	"github.com/banshee-data/gridsnap/internal/monitoring"
)

// SlideGrids are the grids candidates were drawn from on one slide.
type SlideGrids struct {
	Basic *grid.Grid
	// Cluster is nil unless a cluster source is configured.
	Cluster *grid.Grid
}

// Outcome is the committed result for one object.
type Outcome struct {
	ObjectID   string
	SlideIndex int
	ShapeIndex int
	Category   layout.Category
	Original   layout.Rect
	Final      layout.Rect
	Move       layout.Vector
	// Candidate is the winning candidate, nil when the object stayed put.
	Candidate  *layout.Candidate
	TemplateID string
}

// Result is everything a Run produced.
type Result struct {
	Objects   []*layout.Object
	Outcomes  []Outcome
	Summary   snapping.Summary
	Grids     map[int]SlideGrids
	Templates []*recognize.Template
}

// Slides returns the slide indexes present in the result, ascending.
func (r *Result) Slides() []int {
	out := make([]int, 0, len(r.Grids))
	for s := range r.Grids {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// BuildGrids returns the grids for one slide of the given size. objs are the
// slide's objects; they feed the cluster source when one is configured.
func BuildGrids(width, height int, objs []*layout.Object, opts Options) (SlideGrids, error) {
	basic, err := grid.New(width, height, opts.XDepth, opts.YDepth)
	if err != nil {
		return SlideGrids{}, fmt.Errorf("basic grid: %w", err)
	}
	out := SlideGrids{Basic: basic}

	switch opts.ClusterSource {
	case "", config.ClusterNone:
	case config.ClusterKMeans:
		out.Cluster, err = cluster.KMeansGrid(width, height, objs, opts.ClusterAnchor, opts.ClusterAxis, opts.KMeans)
	case config.ClusterDBSCAN:
		out.Cluster, err = cluster.DBSCANGrid(width, height, objs, opts.ClusterAnchor, opts.ClusterAxis, opts.DBSCAN)
	default:
		err = fmt.Errorf("unknown cluster source %q", opts.ClusterSource)
	}
	if err != nil {
		return SlideGrids{}, err
	}
	return out, nil
}

// Run snaps every shape of doc and hands each final position to sink, which
// may be nil. The document itself is not modified; use doc.Apply with
// Result.Objects to write the positions back.
//
// Each slide gets its own Search over the basic grid and, when configured, a
// second Search over the cluster grid whose candidates are appended to the
// basic ones. Arbitration and commit run once over every object.
func Run(ctx context.Context, doc *docio.Document, opts Options, sink snapping.CommitSink) (*Result, error) {
	if len(opts.Modes) == 0 {
		return nil, ErrNoModes
	}
	objs, err := doc.Objects(opts.Anchors)
	if err != nil {
		return nil, err
	}
	res := &Result{Objects: objs, Grids: make(map[int]SlideGrids)}

	bySlide := docio.ObjectsBySlide(objs)
	for _, slide := range sortedKeys(bySlide) {
		slideObjs := bySlide[slide]
		grids, err := BuildGrids(doc.SlideWidth, doc.SlideHeight, slideObjs, opts)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", slide, err)
		}
		res.Grids[slide] = grids

		if err := generate(ctx, slideObjs, grids.Basic, opts, true, snapping.SourceBasic); err != nil {
			return nil, fmt.Errorf("slide %d: %w", slide, err)
		}
		if grids.Cluster != nil {
			if err := generate(ctx, slideObjs, grids.Cluster, opts, false, opts.source()); err != nil {
				return nil, fmt.Errorf("slide %d: %w", slide, err)
			}
		}
	}

	rec := &recorder{records: make(map[string]snapping.CommitRecord, len(objs))}
	mgr := snapping.NewManager(opts.Limits, snapping.WithManagerWorkers(opts.Workers))
	res.Summary, err = mgr.ApplyAll(ctx, objs, snapping.Tee(rec, sink))
	res.Outcomes = rec.outcomes(objs)
	if err != nil {
		return res, err
	}
	monitoring.Logf("pipeline: %d objects on %d slides, %d moved", res.Summary.Objects, len(bySlide), res.Summary.Moved)

	if opts.Recognize {
		templates, err := RecognizeTemplates(ctx, objs, opts)
		if err != nil {
			return res, err
		}
		res.Templates = templates
		ids := make(map[string]string, len(objs))
		for _, o := range objs {
			ids[o.FullID()] = o.TemplateID()
		}
		for i := range res.Outcomes {
			res.Outcomes[i].TemplateID = ids[res.Outcomes[i].ObjectID]
		}
	}
	return res, nil
}

// RecognizeTemplates groups objs into templates with the configured
// recognizer and repeat threshold.
func RecognizeTemplates(ctx context.Context, objs []*layout.Object, opts Options) ([]*recognize.Template, error) {
	rec := opts.Recognizer
	if rec == nil {
		return nil, fmt.Errorf("%w: no recognizer configured", recognize.ErrInvalidPredicate)
	}
	live := layout.NewRegistry()
	if err := live.Add(objs...); err != nil {
		return nil, err
	}
	engine := recognize.NewEngine(live, layout.NewRegistry(), recognize.WithEngineWorkers(opts.Workers))
	return engine.Recognize(ctx, nil, rec, opts.MinRepeat)
}

func generate(ctx context.Context, objs []*layout.Object, g *grid.Grid, opts Options, flushFirst bool, source string) error {
	search := snapping.NewSearch(opts.AllowX, opts.AllowY, snapping.WithWorkers(opts.Workers))
	if err := search.SetJointGrid(g); err != nil {
		return err
	}
	for i, mode := range opts.Modes {
		if err := search.CalculateCandidatesForAll(ctx, objs, mode, flushFirst && i == 0, source); err != nil {
			return fmt.Errorf("%s/%s candidates: %w", source, mode, err)
		}
	}
	return nil
}

func sortedKeys(m map[int][]*layout.Object) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// recorder keeps the commit record of every object.
type recorder struct {
	mu      sync.Mutex
	records map[string]snapping.CommitRecord
}

func (r *recorder) Commit(_ context.Context, rec snapping.CommitRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.records[rec.ObjectID]; dup {
		return errors.New("object committed twice")
	}
	r.records[rec.ObjectID] = rec
	return nil
}

// outcomes returns one Outcome per committed object, in the order of objs.
func (r *recorder) outcomes(objs []*layout.Object) []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Outcome, 0, len(r.records))
	for _, o := range objs {
		rec, ok := r.records[o.FullID()]
		if !ok {
			continue
		}
		out = append(out, Outcome{
			ObjectID:   rec.ObjectID,
			SlideIndex: rec.SlideIndex,
			ShapeIndex: rec.ShapeIndex,
			Category:   o.Category(),
			Original:   o.Original(),
			Final:      o.Bounds(),
			Move:       rec.Move,
			Candidate:  rec.Candidate,
			TemplateID: o.TemplateID(),
		})
	}
	return out
}
