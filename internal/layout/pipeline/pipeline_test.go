package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gridsnap/internal/config"
	"github.com/banshee-data/gridsnap/internal/layout"
	"github.com/banshee-data/gridsnap/internal/layout/cluster"
	"github.com/banshee-data/gridsnap/internal/layout/docio"
	"github.com/banshee-data/gridsnap/internal/layout/recognize"
	"github.com/banshee-data/gridsnap/internal/layout/snapping"
	"github.com/banshee-data/gridsnap/internal/testutil"
)

// deck is a 100x100 slide deck. With depth 1 the grid lines are 0, 50, 100
// on both axes.
func deck() *docio.Document {
	return &docio.Document{
		SlideWidth:  100,
		SlideHeight: 100,
		Slides: []docio.Slide{
			{Index: 0, Shapes: []docio.Shape{
				{ShapeID: 1, Kind: "Picture", Left: 3, Top: 2, Width: 20, Height: 20},
				{ShapeID: 2, Kind: "Picture", Left: 52, Top: 47, Width: 20, Height: 20},
			}},
			{Index: 1, Shapes: []docio.Shape{
				{ShapeID: 1, Kind: "Picture", Left: 30, Top: 30, Width: 20, Height: 20},
				{ShapeID: 5, Kind: "Text", Left: 24, Top: 24, Width: 2, Height: 2},
			}},
		},
	}
}

func depthOneOptions() Options {
	opts := DefaultOptions()
	opts.XDepth, opts.YDepth = 1, 1
	opts.Workers = 2
	return opts
}

// ----

func TestOptionsFromConfig_Defaults(t *testing.T) {
	t.Parallel()
	opts, err := OptionsFromConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, 3, opts.XDepth)
	assert.True(t, opts.AllowX)
	assert.Equal(t, []layout.AxisMode{layout.ModeX, layout.ModeY, layout.ModeJoint}, opts.Modes)
	assert.Equal(t, layout.DefaultAnchorSet(), opts.Anchors)
	assert.Nil(t, opts.Limits.AbsX)
	assert.Equal(t, config.ClusterNone, opts.ClusterSource)
	assert.Equal(t, layout.Center, opts.ClusterAnchor)
	assert.Equal(t, cluster.AxisBoth, opts.ClusterAxis)
	assert.True(t, opts.Recognize)
	assert.Equal(t, 2, opts.MinRepeat)
	require.NotNil(t, opts.Recognizer)
	assert.Equal(t, []string{"category", "size>=1"}, opts.Recognizer.Names())
}

func TestOptionsFromConfig_Overrides(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{
		Modes:          []string{"joint"},
		Anchors:        []string{"center"},
		XLimit:         testutil.Ptr(5.0),
		YRelativeLimit: testutil.Ptr(0.5),
		ClusterSource:  testutil.Ptr(config.ClusterKMeans),
		ClusterAxis:    testutil.Ptr("x"),
		ClusterK:       testutil.Ptr(4),
		Recognizer:     testutil.Ptr("dice"),
		DiceThreshold:  testutil.Ptr(0.9),
	}
	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, []layout.AxisMode{layout.ModeJoint}, opts.Modes)
	assert.Equal(t, layout.AnchorSet{layout.Center}, opts.Anchors)
	assert.InDelta(t, 5.0, *opts.Limits.AbsX, 1e-9)
	assert.InDelta(t, 0.5, *opts.Limits.RelY, 1e-9)
	assert.Equal(t, cluster.AxisX, opts.ClusterAxis)
	assert.Equal(t, 4, opts.KMeans.K)
	assert.Equal(t, snapping.SourceKMeans, opts.source())
	assert.Equal(t, []string{"category", "dice>=0.9"}, opts.Recognizer.Names())
}

func TestOptionsFromConfig_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{"invalid config", &config.Config{XDepth: testutil.Ptr(-5)}},
		{"unknown anchor", &config.Config{Anchors: []string{"middle"}}},
		{"unknown cluster anchor", &config.Config{ClusterAnchor: testutil.Ptr("middle")}},
		{"unknown cluster axis", &config.Config{ClusterAxis: testutil.Ptr("z")}},
		{"unknown recognizer", &config.Config{Recognizer: testutil.Ptr("fuzzy")}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := OptionsFromConfig(tt.cfg)
			assert.Error(t, err)
		})
	}
}

// ----

func TestBuildGrids(t *testing.T) {
	t.Parallel()
	opts := depthOneOptions()
	g, err := BuildGrids(100, 100, nil, opts)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 50, 100}, g.Basic.XLines())
	assert.Nil(t, g.Cluster)

	objs := []*layout.Object{
		testutil.Object(0, 0, layout.CategoryShape, 10, 10, 10, 10),
		testutil.Object(0, 1, layout.CategoryShape, 10, 60, 10, 10),
		testutil.Object(0, 2, layout.CategoryShape, 10, 80, 10, 10),
	}
	opts.ClusterSource = config.ClusterKMeans
	opts.ClusterAxis = cluster.AxisX
	g, err = BuildGrids(100, 100, objs, opts)
	require.NoError(t, err)
	require.NotNil(t, g.Cluster)
	assert.Equal(t, []int{15}, g.Cluster.XLines(), "one shared center column")
	assert.Empty(t, g.Cluster.YLines())

	opts.ClusterSource = "spectral"
	_, err = BuildGrids(100, 100, objs, opts)
	assert.Error(t, err)

	opts.ClusterSource = config.ClusterNone
	opts.XDepth = -4
	_, err = BuildGrids(100, 100, nil, opts)
	assert.Error(t, err)
}

// ----

func TestRun_SnapsAndCommits(t *testing.T) {
	t.Parallel()
	opts := depthOneOptions()
	opts.Recognize = false

	var commits atomic.Int64
	sink := snapping.CommitFunc(func(_ context.Context, _ snapping.CommitRecord) error {
		commits.Add(1)
		return nil
	})

	res, err := Run(context.Background(), deck(), opts, sink)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, res.Slides())
	require.Len(t, res.Outcomes, 4)
	assert.Equal(t, 4, res.Summary.Objects)
	assert.Equal(t, int64(4), commits.Load())

	byID := make(map[string]Outcome)
	for _, o := range res.Outcomes {
		byID[o.ObjectID] = o
	}

	// Top-left (3,2): the y move of 2 beats x (3) and joint (3.6).
	first := byID["0:0:1"]
	assert.Equal(t, layout.Vector{DX: 0, DY: -2}, first.Move)
	assert.Equal(t, layout.Rect{Left: 3, Top: 0, Width: 20, Height: 20}, first.Final)
	require.NotNil(t, first.Candidate)
	assert.Equal(t, snapping.SourceBasic, first.Candidate.Source)
	assert.Equal(t, layout.ModeY, first.Candidate.Mode)

	// Top-left (52,47): x moves 2, y would move 3.
	second := byID["0:1:2"]
	assert.Equal(t, layout.Rect{Left: 50, Top: 47, Width: 20, Height: 20}, second.Final)

	// The 30..50 square already has its right edge on the 50 line, so its
	// best candidate is a zero move.
	third := byID["1:0:1"]
	require.NotNil(t, third.Candidate)
	assert.True(t, third.Move.IsZero())
	assert.Equal(t, third.Original, third.Final)

	// The document is untouched until Apply.
	doc := deck()
	assert.Equal(t, 2, doc.Slides[0].Shapes[0].Top)
	require.NoError(t, doc.Apply(res.Objects))
	assert.Equal(t, 0, doc.Slides[0].Shapes[0].Top)
	assert.Equal(t, 50, doc.Slides[0].Shapes[1].Left)
}

func TestRun_LimitsKeepObjectsInPlace(t *testing.T) {
	t.Parallel()
	opts := depthOneOptions()
	opts.Recognize = false
	zero := 0.0
	opts.Limits = snapping.Limits{AbsX: &zero, AbsY: &zero}

	res, err := Run(context.Background(), deck(), opts, nil)
	require.NoError(t, err)
	for _, o := range res.Outcomes {
		assert.True(t, o.Move.IsZero(), "%s moved despite zero limits", o.ObjectID)
		assert.Equal(t, o.Original, o.Final)
	}
	// 1:0:1 still has an exact zero-move candidate.
	assert.Equal(t, 4, res.Summary.Unchanged)
}

func TestRun_SinkReceivesEveryObject(t *testing.T) {
	t.Parallel()
	w := docio.NewWriter(nil)
	opts := depthOneOptions()
	opts.Recognize = false

	res, err := Run(context.Background(), deck(), opts, w)
	require.NoError(t, err)

	pos := w.Positions()
	require.Len(t, pos, len(res.Objects))
	for _, o := range res.Objects {
		p := pos[o.FullID()]
		assert.Equal(t, o.Left(), p.Left, o.FullID())
		assert.Equal(t, o.Top(), p.Top, o.FullID())
	}
}

func TestRun_SinkFailureIsReported(t *testing.T) {
	t.Parallel()
	boom := errors.New("disk full")
	sink := snapping.CommitFunc(func(_ context.Context, rec snapping.CommitRecord) error {
		if rec.ObjectID == "1:1:5" {
			return boom
		}
		return nil
	})
	res, err := Run(context.Background(), deck(), depthOneOptions(), sink)
	require.ErrorIs(t, err, boom)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Summary.SinkFailed)
	assert.Len(t, res.Outcomes, 4, "the run's own record is kept for every object")
	assert.Nil(t, res.Templates, "recognition does not run after a failed commit")
}

func TestRun_ClusterCandidatesAreAppended(t *testing.T) {
	t.Parallel()
	doc := &docio.Document{SlideWidth: 1000, SlideHeight: 1000, Slides: []docio.Slide{{Index: 0, Shapes: []docio.Shape{
		{ShapeID: 1, Left: 98, Top: 400, Width: 20, Height: 20},
		{ShapeID: 2, Left: 100, Top: 600, Width: 20, Height: 20},
		{ShapeID: 3, Left: 102, Top: 800, Width: 20, Height: 20},
	}}}}
	opts := DefaultOptions()
	opts.XDepth, opts.YDepth = 0, 0
	opts.Modes = []layout.AxisMode{layout.ModeX}
	opts.Anchors = layout.AnchorSet{layout.TopLeft}
	opts.ClusterSource = config.ClusterKMeans
	opts.ClusterAnchor = layout.TopLeft
	opts.ClusterAxis = cluster.AxisX
	opts.Recognize = false

	res, err := Run(context.Background(), doc, opts, nil)
	require.NoError(t, err)

	require.NotNil(t, res.Grids[0].Cluster)
	assert.Equal(t, []int{100}, res.Grids[0].Cluster.XLines())

	for _, o := range res.Outcomes {
		assert.Equal(t, 100, o.Final.Left, o.ObjectID)
		if !o.Move.IsZero() {
			assert.Equal(t, snapping.SourceKMeans, o.Candidate.Source)
		}
	}
	assert.Equal(t, 2, res.Summary.Moved)
}

func TestRun_RecognizesTemplates(t *testing.T) {
	t.Parallel()
	opts := depthOneOptions()
	opts.MinRepeat = 2

	res, err := Run(context.Background(), deck(), opts, nil)
	require.NoError(t, err)

	// Three 20x20 pictures pass the strict threshold of 2.
	require.Len(t, res.Templates, 1)
	tmpl := res.Templates[0]
	assert.Equal(t, layout.CategoryPicture, tmpl.Category())
	assert.Equal(t, 3, tmpl.Len())

	got := make(map[string]string)
	for _, o := range res.Outcomes {
		got[o.ObjectID] = o.TemplateID
	}
	want := map[string]string{
		"0:0:1": tmpl.ID(),
		"0:1:2": tmpl.ID(),
		"1:0:1": tmpl.ID(),
		"1:1:5": "",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("template ids mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()
	opts := depthOneOptions()
	opts.Modes = nil
	_, err := Run(context.Background(), deck(), opts, nil)
	assert.ErrorIs(t, err, ErrNoModes)

	bad := deck()
	bad.Slides[1].Index = 0
	_, err = Run(context.Background(), bad, depthOneOptions(), nil)
	assert.ErrorIs(t, err, docio.ErrInvalidDocument)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, deck(), depthOneOptions(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecognizeTemplates(t *testing.T) {
	t.Parallel()
	objs := testutil.Row(0, 0, 4, layout.CategoryTable, 0, 0, 10, 10, 5)
	opts := DefaultOptions()
	opts.MinRepeat = 3

	ts, err := RecognizeTemplates(context.Background(), objs, opts)
	require.NoError(t, err)
	require.Len(t, ts, 1)
	assert.Equal(t, testutil.FullIDs(objs), testutil.FullIDs(ts[0].Instances()))

	opts.Recognizer = nil
	_, err = RecognizeTemplates(context.Background(), objs, opts)
	assert.ErrorIs(t, err, recognize.ErrInvalidPredicate)
}
