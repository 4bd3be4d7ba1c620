package snapping

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/gridsnap/internal/layout"
	"github.com/banshee-data/gridsnap/internal/monitoring"
)

// Limits bounds how far a candidate may move an object. A nil field imposes
// no constraint. Absolute limits are in canvas units; relative limits are
// fractions of the object's own width or height.
type Limits struct {
	AbsX *float64
	AbsY *float64
	RelX *float64
	RelY *float64
}

// Allows reports whether c stays within every set limit. A displacement
// equal to a limit is allowed.
func (l Limits) Allows(c layout.Candidate) bool {
	d := c.Displacement()
	if exceeds(math.Abs(float64(d.DX)), l.AbsX) || exceeds(math.Abs(float64(d.DY)), l.AbsY) {
		return false
	}
	rx, ry := c.Relative()
	return !exceeds(rx, l.RelX) && !exceeds(ry, l.RelY)
}

func exceeds(v float64, limit *float64) bool {
	return limit != nil && v > *limit
}

// Summary counts the outcome of ApplyAll.
type Summary struct {
	Objects    int
	Moved      int
	Unchanged  int
	SinkFailed int
}

// Manager arbitrates between the candidates of each object.
type Manager struct {
	limits  Limits
	workers int
}

// ManagerOption customises NewManager.
type ManagerOption func(*Manager)

// WithManagerWorkers bounds the number of objects committed concurrently.
func WithManagerWorkers(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.workers = n
		}
	}
}

// NewManager returns a Manager that enforces limits.
func NewManager(limits Limits, opts ...ManagerOption) *Manager {
	m := &Manager{limits: limits, workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Limits returns the configured limits.
func (m *Manager) Limits() Limits { return m.limits }

// Survivors returns obj's candidates that pass the limits, in input order.
func (m *Manager) Survivors(obj *layout.Object) []layout.Candidate {
	var out []layout.Candidate
	for _, c := range obj.Candidates() {
		if m.limits.Allows(c) {
			out = append(out, c)
		}
	}
	return out
}

// Best returns the surviving candidate with the smallest displacement. On
// ties the earliest candidate wins.
func (m *Manager) Best(obj *layout.Object) (layout.Candidate, bool) {
	var (
		best  layout.Candidate
		bestM = math.Inf(1)
		found bool
	)
	for _, c := range obj.Candidates() {
		if !m.limits.Allows(c) {
			continue
		}
		if mag := c.Magnitude(); !found || mag < bestM {
			best, bestM, found = c, mag, true
		}
	}
	return best, found
}

// ApplyBestSnap moves obj by its best candidate's displacement. When no
// candidate survives obj is left unchanged and false is returned.
func (m *Manager) ApplyBestSnap(obj *layout.Object) (layout.Candidate, bool) {
	c, ok := m.Best(obj)
	if !ok {
		return layout.Candidate{}, false
	}
	obj.Translate(c.Displacement())
	return c, true
}

// ApplyAll applies the best snap to every object and hands each final
// position to sink, which may be nil. Objects are processed concurrently;
// they must have distinct full ids.
//
// A sink failure is reported in the returned error but never undoes other
// commits. Cancelling ctx stops objects not yet started.
func (m *Manager) ApplyAll(ctx context.Context, objs []*layout.Object, sink CommitSink) (Summary, error) {
	if err := layout.CheckUnique(objs); err != nil {
		return Summary{}, err
	}

	var moved, unchanged, failed atomic.Int64
	sinkErrs := make([]error, len(objs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i, obj := range objs {
		i, obj := i, obj
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var rec CommitRecord
			if c, ok := m.ApplyBestSnap(obj); ok {
				rec = newCommitRecord(obj, &c)
			} else {
				rec = newCommitRecord(obj, nil)
			}
			if rec.Moved() {
				moved.Add(1)
			} else {
				unchanged.Add(1)
			}
			monitoring.Debugf("snapping: commit %s move=(%d,%d)", rec.ObjectID, rec.Move.DX, rec.Move.DY)

			if sink == nil {
				return nil
			}
			if err := sink.Commit(gctx, rec); err != nil {
				failed.Add(1)
				sinkErrs[i] = fmt.Errorf("commit %s: %w", rec.ObjectID, err)
			}
			return nil
		})
	}
	waitErr := g.Wait()

	sum := Summary{
		Objects:    int(moved.Load() + unchanged.Load()),
		Moved:      int(moved.Load()),
		Unchanged:  int(unchanged.Load()),
		SinkFailed: int(failed.Load()),
	}
	if sum.SinkFailed > 0 {
		monitoring.Logf("snapping: %d of %d commits failed", sum.SinkFailed, sum.Objects)
	}
	if waitErr == nil {
		waitErr = ctx.Err()
	}
	return sum, errors.Join(append([]error{waitErr}, sinkErrs...)...)
}
