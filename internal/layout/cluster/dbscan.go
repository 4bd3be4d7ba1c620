package cluster

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultDBSCANMinPts is the default minimum neighbourhood size of a core point.
	DefaultDBSCANMinPts = 2
	// DefaultEpsFraction sizes the default neighbourhood radius as a
	// fraction of the larger canvas side.
	DefaultEpsFraction = 0.01
	// EstimatedPointsPerCell is used for initial spatial index capacity estimation
	EstimatedPointsPerCell = 4
)

// ErrInvalidEps is returned for a non-positive DBSCAN radius.
var ErrInvalidEps = errors.New("dbscan eps must be positive")

// Point2 is a clustered sample. One-dimensional samples leave Y at zero.
type Point2 struct {
	X, Y float64
}

// SpatialIndex provides efficient neighbour queries using a regular grid.
// Cell size should approximately match the DBSCAN eps parameter.
type SpatialIndex struct {
	CellSize float64
	Grid     map[int64][]int // Cell ID → point indices
}

// NewSpatialIndex creates a spatial index with the specified cell size.
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	return &SpatialIndex{
		CellSize: cellSize,
		Grid:     make(map[int64][]int),
	}
}

// Build populates the spatial index.
func (si *SpatialIndex) Build(points []Point2) {
	si.Grid = make(map[int64][]int, len(points)/EstimatedPointsPerCell)
	for i, p := range points {
		cx, cy := si.cell(p)
		id := cellKey(cx, cy)
		si.Grid[id] = append(si.Grid[id], i)
	}
}

func (si *SpatialIndex) cell(p Point2) (int64, int64) {
	return int64(math.Floor(p.X / si.CellSize)), int64(math.Floor(p.Y / si.CellSize))
}

// cellKey pairs signed cell coordinates with zigzag encoding followed by
// Szudzik's pairing function.
func cellKey(cx, cy int64) int64 {
	a, b := zigzag(cx), zigzag(cy)
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

func zigzag(v int64) int64 {
	if v >= 0 {
		return 2 * v
	}
	return -2*v - 1
}

// RegionQuery returns indices of all points within eps of points[idx],
// including idx itself.
func (si *SpatialIndex) RegionQuery(points []Point2, idx int, eps float64) []int {
	p := points[idx]
	var neighbors []int
	eps2 := eps * eps
	cx, cy := si.cell(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, j := range si.Grid[cellKey(cx+dx, cy+dy)] {
				q := points[j]
				ddx, ddy := q.X-p.X, q.Y-p.Y
				if ddx*ddx+ddy*ddy <= eps2 {
					neighbors = append(neighbors, j)
				}
			}
		}
	}
	return neighbors
}

// DBSCANParams contains parameters for the DBSCAN clustering algorithm.
type DBSCANParams struct {
	Eps    float64 // Neighbourhood radius in canvas units
	MinPts int     // Minimum points to form a cluster
}

// Cluster is one dense group of samples.
type Cluster struct {
	ID       int
	Size     int
	Centroid Point2
	Min, Max Point2
}

// DBSCAN performs density-based clustering. Noise points belong to no
// cluster. Clusters are returned sorted by centroid X, then Y, and numbered
// from 1 in that order.
func DBSCAN(points []Point2, params DBSCANParams) ([]Cluster, error) {
	if params.Eps <= 0 || math.IsNaN(params.Eps) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidEps, params.Eps)
	}
	if len(points) == 0 {
		return nil, nil
	}
	minPts := params.MinPts
	if minPts <= 0 {
		minPts = DefaultDBSCANMinPts
	}

	n := len(points)
	labels := make([]int, n) // 0=unvisited, -1=noise, >0=clusterID
	clusterID := 0

	si := NewSpatialIndex(params.Eps)
	si.Build(points)

	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}
		neighbors := si.RegionQuery(points, i, params.Eps)
		if len(neighbors) < minPts {
			labels[i] = -1
			continue
		}
		clusterID++
		expandCluster(points, si, labels, i, neighbors, clusterID, params.Eps, minPts)
	}
	return buildClusters(points, labels, clusterID), nil
}

// expandCluster grows a cluster from a core point, queue style.
func expandCluster(points []Point2, si *SpatialIndex, labels []int,
	seedIdx int, neighbors []int, clusterID int, eps float64, minPts int) {

	labels[seedIdx] = clusterID
	for j := 0; j < len(neighbors); j++ {
		idx := neighbors[j]
		if labels[idx] == -1 {
			labels[idx] = clusterID // noise becomes a border point
		}
		if labels[idx] != 0 {
			continue
		}
		labels[idx] = clusterID
		if more := si.RegionQuery(points, idx, eps); len(more) >= minPts {
			neighbors = append(neighbors, more...)
		}
	}
}

func buildClusters(points []Point2, labels []int, maxClusterID int) []Cluster {
	xs := make([][]float64, maxClusterID+1)
	ys := make([][]float64, maxClusterID+1)
	for i, l := range labels {
		if l > 0 {
			xs[l] = append(xs[l], points[i].X)
			ys[l] = append(ys[l], points[i].Y)
		}
	}

	clusters := make([]Cluster, 0, maxClusterID)
	for cid := 1; cid <= maxClusterID; cid++ {
		if len(xs[cid]) == 0 {
			continue
		}
		clusters = append(clusters, Cluster{
			Size:     len(xs[cid]),
			Centroid: Point2{X: stat.Mean(xs[cid], nil), Y: stat.Mean(ys[cid], nil)},
			Min:      Point2{X: floats.Min(xs[cid]), Y: floats.Min(ys[cid])},
			Max:      Point2{X: floats.Max(xs[cid]), Y: floats.Max(ys[cid])},
		})
	}
	sort.Slice(clusters, func(i, j int) bool {
		a, b := clusters[i].Centroid, clusters[j].Centroid
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})
	for i := range clusters {
		clusters[i].ID = i + 1
	}
	return clusters
}
