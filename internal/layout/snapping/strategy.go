package snapping

import (
	"github.com/banshee-data/gridsnap/internal/layout"
	"github.com/banshee-data/gridsnap/internal/layout/grid"
)

// Provenance tags for the grid that produced a candidate.
const (
	SourceBasic  = "basic"
	SourceKMeans = "kmeans"
	SourceDBSCAN = "dbscan"
)

// Strategy binds one axis mode to one grid.
type Strategy struct {
	Mode layout.AxisMode
	Grid *grid.Grid
}

// Candidates enumerates one candidate per active anchor of obj. Single-axis
// modes skip every anchor when their axis has no lines; joint mode keeps the
// nominal coordinate on an empty axis.
func (s Strategy) Candidates(obj *layout.Object, source string) []layout.Candidate {
	switch s.Mode {
	case layout.ModeX:
		return snapX(s.Grid, obj, source)
	case layout.ModeY:
		return snapY(s.Grid, obj, source)
	case layout.ModeJoint:
		return snapJoint(s.Grid, obj, source)
	}
	return nil
}

// Snap appends the strategy's candidates to obj and returns how many were added.
func (s Strategy) Snap(obj *layout.Object, source string) int {
	cs := s.Candidates(obj, source)
	obj.AppendCandidates(cs...)
	return len(cs)
}

func snapX(g *grid.Grid, obj *layout.Object, source string) []layout.Candidate {
	if !g.HasX() {
		return nil
	}
	var out []layout.Candidate
	for _, a := range obj.ActiveAnchors() {
		p, _ := obj.AnchorPoint(a)
		x, _ := g.NearestX(p.X)
		if c, ok := layout.NewCandidate(obj, a, layout.ModeX, source, layout.Point{X: x, Y: p.Y}); ok {
			out = append(out, c)
		}
	}
	return out
}

func snapY(g *grid.Grid, obj *layout.Object, source string) []layout.Candidate {
	if !g.HasY() {
		return nil
	}
	var out []layout.Candidate
	for _, a := range obj.ActiveAnchors() {
		p, _ := obj.AnchorPoint(a)
		y, _ := g.NearestY(p.Y)
		if c, ok := layout.NewCandidate(obj, a, layout.ModeY, source, layout.Point{X: p.X, Y: y}); ok {
			out = append(out, c)
		}
	}
	return out
}

func snapJoint(g *grid.Grid, obj *layout.Object, source string) []layout.Candidate {
	var out []layout.Candidate
	for _, a := range obj.ActiveAnchors() {
		p, _ := obj.AnchorPoint(a)
		if c, ok := layout.NewCandidate(obj, a, layout.ModeJoint, source, g.Snap(p)); ok {
			out = append(out, c)
		}
	}
	return out
}
