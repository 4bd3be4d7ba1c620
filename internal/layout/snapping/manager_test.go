package snapping

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gridsnap/internal/layout"
)

func ptr(v float64) *float64 { return &v }

// candidateAt builds a top-left candidate moving obj by (dx, dy).
func candidateAt(t *testing.T, obj *layout.Object, dx, dy int) layout.Candidate {
	t.Helper()
	p, _ := obj.AnchorPoint(layout.TopLeft)
	c, ok := layout.NewCandidate(obj, layout.TopLeft, layout.ModeJoint, SourceBasic, layout.Point{X: p.X + dx, Y: p.Y + dy})
	require.True(t, ok)
	return c
}

func TestLimits_Allows(t *testing.T) {
	t.Parallel()
	obj := testObject(0, 10, 10, 20, 40)

	tests := []struct {
		name   string
		limits Limits
		dx, dy int
		want   bool
	}{
		{"unset", Limits{}, 1000, -1000, true},
		{"abs x equal", Limits{AbsX: ptr(4)}, -4, 0, true},
		{"abs x exceeded", Limits{AbsX: ptr(4)}, 5, 0, false},
		{"abs y exceeded", Limits{AbsY: ptr(1)}, 0, -2, false},
		{"rel x equal", Limits{RelX: ptr(0.5)}, 10, 0, true},
		{"rel x exceeded", Limits{RelX: ptr(0.5)}, 11, 0, false},
		{"rel y uses height", Limits{RelY: ptr(0.25)}, 0, 10, true},
		{"rel y exceeded", Limits{RelY: ptr(0.25)}, 0, 11, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c := candidateAt(t, obj, tt.dx, tt.dy)
			assert.Equal(t, tt.want, tt.limits.Allows(c))
		})
	}
}

func TestLimits_ZeroSizeRelative(t *testing.T) {
	t.Parallel()
	line := testObject(0, 10, 10, 0, 40)
	lim := Limits{RelX: ptr(10)}

	assert.True(t, lim.Allows(candidateAt(t, line, 0, 3)))
	assert.False(t, lim.Allows(candidateAt(t, line, 1, 0)), "any move on a zero-width axis is infinite")
}

func TestManager_ArbitrationFiltering(t *testing.T) {
	t.Parallel()
	obj := testObject(0, 50, 50, 10, 10)
	obj.AppendCandidates(
		candidateAt(t, obj, 9, 0),
		candidateAt(t, obj, 5, 0),
		candidateAt(t, obj, 1, 0),
	)
	m := NewManager(Limits{AbsX: ptr(4)})

	surv := m.Survivors(obj)
	require.Len(t, surv, 1)
	assert.Equal(t, 1, surv[0].Displacement().DX)

	c, ok := m.ApplyBestSnap(obj)
	require.True(t, ok)
	assert.Equal(t, 1, c.Displacement().DX)
	assert.Equal(t, 51, obj.Left())
	assert.Equal(t, 50, obj.Top())
}

func TestManager_NoSurvivorLeavesObject(t *testing.T) {
	t.Parallel()
	obj := testObject(0, 50, 50, 10, 10)
	obj.AppendCandidates(candidateAt(t, obj, 9, 0), candidateAt(t, obj, 5, 0))
	m := NewManager(Limits{AbsX: ptr(4)})

	_, ok := m.ApplyBestSnap(obj)
	assert.False(t, ok)
	assert.Equal(t, layout.Rect{Left: 50, Top: 50, Width: 10, Height: 10}, obj.Bounds())

	empty := testObject(1, 1, 1, 1, 1)
	_, ok = m.ApplyBestSnap(empty)
	assert.False(t, ok)
}

func TestManager_FirstMinimumWins(t *testing.T) {
	t.Parallel()
	obj := testObject(0, 50, 50, 10, 10)
	first := candidateAt(t, obj, 3, 0)
	first.Source = "first"
	second := candidateAt(t, obj, 0, -3)
	second.Source = "second"
	obj.AppendCandidates(candidateAt(t, obj, 4, 4), first, second)

	c, ok := NewManager(Limits{}).Best(obj)
	require.True(t, ok)
	assert.Equal(t, "first", c.Source)
}

type recordingSink struct {
	mu   sync.Mutex
	recs []CommitRecord
	fail map[string]bool
}

func (s *recordingSink) Commit(_ context.Context, rec CommitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[rec.ObjectID] {
		return errors.New("disk full")
	}
	s.recs = append(s.recs, rec)
	return nil
}

func TestManager_ApplyAll(t *testing.T) {
	t.Parallel()
	s := NewSearch(true, true, WithWorkers(4))
	require.NoError(t, s.SetJointGrid(basicGrid(t, 2, 2)))

	objs := []*layout.Object{
		testObject(0, 23, 27, 10, 10, layout.TopLeft),
		testObject(1, 49, 51, 10, 10, layout.TopLeft),
		testObject(2, 0, 0, 10, 10, layout.TopLeft),
		testObject(3, 37, 37, 10, 10, layout.TopLeft),
	}
	require.NoError(t, s.CalculateCandidatesForAll(context.Background(), objs, layout.ModeJoint, true, SourceBasic))

	sink := &recordingSink{}
	m := NewManager(Limits{AbsX: ptr(5), AbsY: ptr(5)}, WithManagerWorkers(2))
	sum, err := m.ApplyAll(context.Background(), objs, sink)
	require.NoError(t, err)

	assert.Equal(t, Summary{Objects: 4, Moved: 2, Unchanged: 2}, sum)
	require.Len(t, sink.recs, 4, "sink is called once per object, moved or not")

	sort.Slice(sink.recs, func(i, j int) bool { return sink.recs[i].ShapeIndex < sink.recs[j].ShapeIndex })
	assert.Equal(t, 25, sink.recs[0].Left)
	assert.Equal(t, 25, sink.recs[0].Top)
	assert.Equal(t, 50, sink.recs[1].Left)
	assert.Equal(t, 50, sink.recs[1].Top)
	assert.NotNil(t, sink.recs[2].Candidate, "already aligned objects still report their candidate")
	assert.False(t, sink.recs[2].Moved())
	assert.Nil(t, sink.recs[3].Candidate, "the nearest line is 12 away, beyond the limit")
	assert.Equal(t, 37, objs[3].Left())
}

func TestManager_ApplyAll_SinkFailureDoesNotRollBack(t *testing.T) {
	t.Parallel()
	objs := []*layout.Object{testObject(0, 10, 10, 5, 5), testObject(1, 20, 20, 5, 5)}
	for _, o := range objs {
		o.AppendCandidates(candidateAt(t, o, 1, 1))
	}
	sink := &recordingSink{fail: map[string]bool{objs[0].FullID(): true}}

	sum, err := NewManager(Limits{}).ApplyAll(context.Background(), objs, sink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), objs[0].FullID())
	assert.Equal(t, 1, sum.SinkFailed)
	assert.Equal(t, 2, sum.Moved)

	assert.Equal(t, 11, objs[0].Left(), "geometry stays committed")
	require.Len(t, sink.recs, 1)
	assert.Equal(t, objs[1].FullID(), sink.recs[0].ObjectID)
}

func TestManager_ApplyAll_NilSink(t *testing.T) {
	t.Parallel()
	obj := testObject(0, 10, 10, 5, 5)
	obj.AppendCandidates(candidateAt(t, obj, -2, 0))

	sum, err := NewManager(Limits{}).ApplyAll(context.Background(), []*layout.Object{obj}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Moved)
	assert.Equal(t, 8, obj.Left())
}

func TestManager_ApplyAll_Duplicate(t *testing.T) {
	t.Parallel()
	a := testObject(0, 0, 0, 1, 1)
	_, err := NewManager(Limits{}).ApplyAll(context.Background(), []*layout.Object{a, a}, nil)
	assert.ErrorIs(t, err, layout.ErrDuplicateObject)
}

func TestTee(t *testing.T) {
	t.Parallel()
	ok := &recordingSink{}
	bad := &recordingSink{fail: map[string]bool{"x": true}}
	sink := Tee(bad, nil, ok)

	err := sink.Commit(context.Background(), CommitRecord{ObjectID: "x"})
	assert.Error(t, err)
	assert.Len(t, ok.recs, 1, "later sinks still run")

	var calls int
	f := CommitFunc(func(context.Context, CommitRecord) error { calls++; return nil })
	require.NoError(t, f.Commit(context.Background(), CommitRecord{}))
	assert.Equal(t, 1, calls)
}
