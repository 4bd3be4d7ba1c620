package layout

import (
	"fmt"
	"math"
)

// Candidate is a proposal to move one anchor point of one object onto one
// grid intersection. Candidates are immutable; they reference their owner by
// full id only.
type Candidate struct {
	ObjectID string   `json:"object_id"`
	Anchor   Anchor   `json:"anchor"`
	Mode     AxisMode `json:"mode"`
	// Source labels the grid that produced the candidate, e.g. "basic" or "kmeans".
	Source  string `json:"source"`
	Nominal Point  `json:"nominal"`
	Target  Point  `json:"target"`
	// Width and Height are the owner's size when the candidate was created.
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewCandidate snapshots the anchor position of obj and pairs it with target.
// It returns false when the anchor is unknown.
func NewCandidate(obj *Object, a Anchor, mode AxisMode, source string, target Point) (Candidate, bool) {
	nominal, ok := obj.AnchorPoint(a)
	if !ok {
		return Candidate{}, false
	}
	return Candidate{
		ObjectID: obj.FullID(),
		Anchor:   a,
		Mode:     mode,
		Source:   source,
		Nominal:  nominal,
		Target:   target,
		Width:    obj.Width(),
		Height:   obj.Height(),
	}, true
}

// Displacement returns target minus nominal.
func (c Candidate) Displacement() Vector {
	return c.Target.Sub(c.Nominal)
}

// Magnitude returns the Euclidean length of the displacement.
func (c Candidate) Magnitude() float64 {
	return c.Displacement().Norm()
}

// Relative returns |displacement| divided by the owner's width and height.
// On a zero-size axis the ratio is 0 when nothing moves and +Inf otherwise.
func (c Candidate) Relative() (rx, ry float64) {
	d := c.Displacement()
	return relRatio(d.DX, c.Width), relRatio(d.DY, c.Height)
}

func relRatio(d, size int) float64 {
	ad := math.Abs(float64(d))
	if size == 0 {
		if ad == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return ad / math.Abs(float64(size))
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s anchor at (%d,%d) snapped to (%d,%d) [%s/%s]",
		c.Anchor, c.Nominal.X, c.Nominal.Y, c.Target.X, c.Target.Y, c.Mode, c.Source)
}
