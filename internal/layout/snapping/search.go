package snapping

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/gridsnap/internal/layout"
	"github.com/banshee-data/gridsnap/internal/layout/grid"
	"github.com/banshee-data/gridsnap/internal/monitoring"
)

// ErrNoGrid is returned when extending an axis grid that was never set.
var ErrNoGrid = errors.New("no grid set for axis")

// SearchOption customises NewSearch.
type SearchOption func(*Search)

// WithWorkers bounds the number of objects processed concurrently by
// CalculateCandidatesForAll. Values below 1 fall back to GOMAXPROCS.
func WithWorkers(n int) SearchOption {
	return func(s *Search) {
		if n > 0 {
			s.workers = n
		}
	}
}

// Search owns the per-axis grids and the strategies derived from them.
//
// The joint grid is the X view of the X grid merged with the Y view of the
// Y grid, so the two axes may come from different sources. Strategies are
// rebuilt whenever a grid changes. Grid setters must not run concurrently
// with candidate generation.
type Search struct {
	allowX bool
	allowY bool

	xGrid *grid.Grid
	yGrid *grid.Grid
	joint *grid.Grid

	strategies map[layout.AxisMode]Strategy
	workers    int
}

// NewSearch returns a Search with no grids. allowX and allowY disable an
// axis even after a grid is configured for it.
func NewSearch(allowX, allowY bool, opts ...SearchOption) *Search {
	s := &Search{
		allowX:     allowX,
		allowY:     allowY,
		strategies: make(map[layout.AxisMode]Strategy),
		workers:    runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetXGrid installs the grid used for X snapping.
func (s *Search) SetXGrid(g *grid.Grid) error {
	prev := s.xGrid
	s.xGrid = g.Clone()
	if err := s.rebuild(); err != nil {
		s.xGrid = prev
		return err
	}
	return nil
}

// SetYGrid installs the grid used for Y snapping.
func (s *Search) SetYGrid(g *grid.Grid) error {
	prev := s.yGrid
	s.yGrid = g.Clone()
	if err := s.rebuild(); err != nil {
		s.yGrid = prev
		return err
	}
	return nil
}

// SetJointGrid uses g as both the X and the Y source.
func (s *Search) SetJointGrid(g *grid.Grid) error {
	s.xGrid = g.Clone()
	s.yGrid = g.Clone()
	return s.rebuild()
}

// ExtendXGrid unions g into the X grid.
func (s *Search) ExtendXGrid(g *grid.Grid) error {
	if s.xGrid == nil {
		return fmt.Errorf("extend x: %w", ErrNoGrid)
	}
	if err := s.xGrid.Extend(g); err != nil {
		return fmt.Errorf("extend x: %w", err)
	}
	return s.rebuild()
}

// ExtendYGrid unions g into the Y grid.
func (s *Search) ExtendYGrid(g *grid.Grid) error {
	if s.yGrid == nil {
		return fmt.Errorf("extend y: %w", ErrNoGrid)
	}
	if err := s.yGrid.Extend(g); err != nil {
		return fmt.Errorf("extend y: %w", err)
	}
	return s.rebuild()
}

// XGrid returns the X grid, or nil.
func (s *Search) XGrid() *grid.Grid { return s.xGrid }

// YGrid returns the Y grid, or nil.
func (s *Search) YGrid() *grid.Grid { return s.yGrid }

// JointGrid returns the merged grid, or nil unless both axis grids are set.
func (s *Search) JointGrid() *grid.Grid { return s.joint }

// Strategy returns the strategy for mode, if one is enabled.
func (s *Search) Strategy(mode layout.AxisMode) (Strategy, bool) {
	st, ok := s.strategies[mode]
	return st, ok
}

func (s *Search) rebuild() error {
	var joint *grid.Grid
	if s.xGrid != nil && s.yGrid != nil {
		var err error
		joint, err = grid.Merge(s.xGrid.XView(), s.yGrid.YView())
		if err != nil {
			return fmt.Errorf("joint grid: %w", err)
		}
	}
	s.joint = joint

	strategies := make(map[layout.AxisMode]Strategy, 3)
	if s.xGrid != nil && s.allowX {
		strategies[layout.ModeX] = Strategy{Mode: layout.ModeX, Grid: s.xGrid}
	}
	if s.yGrid != nil && s.allowY {
		strategies[layout.ModeY] = Strategy{Mode: layout.ModeY, Grid: s.yGrid}
	}
	if joint != nil && s.allowX && s.allowY {
		strategies[layout.ModeJoint] = Strategy{Mode: layout.ModeJoint, Grid: joint}
	}
	s.strategies = strategies
	return nil
}

// CalculateCandidates runs the strategy for mode on obj and returns the
// number of candidates added. flush clears the object's list first. A
// disabled mode adds nothing.
func (s *Search) CalculateCandidates(obj *layout.Object, mode layout.AxisMode, flush bool, source string) int {
	if flush {
		obj.FlushCandidates()
	}
	st, ok := s.strategies[mode]
	if !ok {
		return 0
	}
	return st.Snap(obj, source)
}

// CalculateCandidatesForAll runs CalculateCandidates for every object,
// fanning out across goroutines. Objects must have distinct full ids.
// Cancelling ctx stops work on objects not yet started.
func (s *Search) CalculateCandidatesForAll(ctx context.Context, objs []*layout.Object, mode layout.AxisMode, flush bool, source string) error {
	if err := layout.CheckUnique(objs); err != nil {
		return err
	}
	if _, ok := s.strategies[mode]; !ok && !flush {
		monitoring.Debugf("snapping: mode %s disabled, skipping %d objects", mode, len(objs))
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, obj := range objs {
		obj := obj
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n := s.CalculateCandidates(obj, mode, flush, source)
			monitoring.Debugf("snapping: %s got %d %s/%s candidates", obj.FullID(), n, mode, source)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
