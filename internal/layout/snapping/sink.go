package snapping

import (
	"context"
	"errors"

	"github.com/banshee-data/gridsnap/internal/layout"
)

// CommitRecord is the final position of one object after arbitration.
// Candidate is nil when no candidate survived and the object did not move.
type CommitRecord struct {
	ObjectID   string
	SlideIndex int
	ShapeIndex int
	Left       int
	Top        int
	Move       layout.Vector
	Candidate  *layout.Candidate
}

// Moved reports whether the commit changed the object's position.
func (r CommitRecord) Moved() bool { return !r.Move.IsZero() }

// CommitSink persists final positions. Commit is called once per object,
// possibly from several goroutines at once, so implementations must be safe
// for concurrent use. A failure for one object does not affect others.
type CommitSink interface {
	Commit(ctx context.Context, rec CommitRecord) error
}

// CommitFunc adapts a function to CommitSink.
type CommitFunc func(ctx context.Context, rec CommitRecord) error

func (f CommitFunc) Commit(ctx context.Context, rec CommitRecord) error { return f(ctx, rec) }

// Tee returns a sink that forwards every record to each of sinks in order.
// All sinks are called even if one fails; the errors are joined.
func Tee(sinks ...CommitSink) CommitSink {
	return CommitFunc(func(ctx context.Context, rec CommitRecord) error {
		var errs []error
		for _, s := range sinks {
			if s == nil {
				continue
			}
			if err := s.Commit(ctx, rec); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

func newCommitRecord(obj *layout.Object, c *layout.Candidate) CommitRecord {
	rec := CommitRecord{
		ObjectID:   obj.FullID(),
		SlideIndex: obj.SlideIndex(),
		ShapeIndex: obj.ShapeIndex(),
		Left:       obj.Left(),
		Top:        obj.Top(),
		Candidate:  c,
	}
	if c != nil {
		rec.Move = c.Displacement()
	}
	return rec
}
