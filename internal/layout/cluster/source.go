package cluster

import (
	"fmt"

	"github.com/banshee-data/gridsnap/internal/layout"
	"github.com/banshee-data/gridsnap/internal/layout/grid"
	"github.com/banshee-data/gridsnap/internal/monitoring"
)

// AnchorSamples returns the anchor position of every object as a sample of
// one (AxisX, AxisY) or two (AxisBoth) coordinates.
func AnchorSamples(objs []*layout.Object, anchor layout.Anchor, axis Axis) ([][]float64, error) {
	out := make([][]float64, 0, len(objs))
	for _, o := range objs {
		p, ok := o.AnchorPoint(anchor)
		if !ok {
			return nil, fmt.Errorf("%w: %d", layout.ErrUnknownAnchor, int(anchor))
		}
		switch axis {
		case AxisX:
			out = append(out, []float64{float64(p.X)})
		case AxisY:
			out = append(out, []float64{float64(p.Y)})
		case AxisBoth:
			out = append(out, []float64{float64(p.X), float64(p.Y)})
		default:
			return nil, fmt.Errorf("%w: %d", ErrUnknownAxis, int(axis))
		}
	}
	return out, nil
}

// addCenters unions cluster centers into g along axis. Two-dimensional
// centers are added as (x, y) pairs.
func addCenters(g *grid.Grid, centers [][]float64, axis Axis) error {
	flat := make([]float64, 0, 2*len(centers))
	for _, c := range centers {
		flat = append(flat, c...)
	}
	switch axis {
	case AxisX:
		return g.AddXCoordinates(flat)
	case AxisY:
		return g.AddYCoordinates(flat)
	default:
		return g.AddPairs(flat)
	}
}

// KMeansGrid clusters the anchor positions of objs and returns a grid whose
// lines are the cluster centers. Both depths of the result are
// grid.DisabledDepth. A zero K uses DefaultK. No objects yield an empty grid.
func KMeansGrid(width, height int, objs []*layout.Object, anchor layout.Anchor, axis Axis, params KMeansParams) (*grid.Grid, error) {
	g := grid.Empty(width, height)
	samples, err := AnchorSamples(objs, anchor, axis)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return g, nil
	}
	if params.K == 0 {
		params.K = DefaultK(len(samples))
	}
	centers, err := KMeans(samples, params)
	if err != nil {
		return nil, fmt.Errorf("kmeans grid: %w", err)
	}
	if err := addCenters(g, centers, axis); err != nil {
		return nil, fmt.Errorf("kmeans grid: %w", err)
	}
	monitoring.Debugf("cluster: kmeans %s/%s k=%d -> %d centers", anchor, axis, params.K, len(centers))
	return g, nil
}

// DBSCANGrid is KMeansGrid with density clustering: each cluster centroid
// becomes a line and noise is ignored. A zero Eps is derived from the
// canvas size with DefaultEpsFraction.
func DBSCANGrid(width, height int, objs []*layout.Object, anchor layout.Anchor, axis Axis, params DBSCANParams) (*grid.Grid, error) {
	g := grid.Empty(width, height)
	samples, err := AnchorSamples(objs, anchor, axis)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return g, nil
	}
	if params.Eps == 0 {
		params.Eps = max(1, DefaultEpsFraction*float64(max(width, height)))
	}
	pts := make([]Point2, len(samples))
	for i, s := range samples {
		pts[i].X = s[0]
		if len(s) > 1 {
			pts[i].Y = s[1]
		}
	}
	clusters, err := DBSCAN(pts, params)
	if err != nil {
		return nil, fmt.Errorf("dbscan grid: %w", err)
	}
	centers := make([][]float64, len(clusters))
	for i, c := range clusters {
		if axis == AxisBoth {
			centers[i] = []float64{c.Centroid.X, c.Centroid.Y}
		} else {
			centers[i] = []float64{c.Centroid.X}
		}
	}
	if err := addCenters(g, centers, axis); err != nil {
		return nil, fmt.Errorf("dbscan grid: %w", err)
	}
	monitoring.Debugf("cluster: dbscan %s/%s eps=%g -> %d clusters", anchor, axis, params.Eps, len(clusters))
	return g, nil
}
