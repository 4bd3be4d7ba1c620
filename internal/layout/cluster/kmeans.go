package cluster

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

const (
	// MaxDefaultK caps the cluster count chosen by DefaultK.
	MaxDefaultK = 10
	// DefaultMaxIter bounds Lloyd iterations when KMeansParams.MaxIter is 0.
	DefaultMaxIter = 100
	// DefaultTolerance is the center shift below which k-means stops.
	DefaultTolerance = 1e-6
)

var (
	ErrNoPoints     = errors.New("no points to cluster")
	ErrInvalidK     = errors.New("cluster count must be positive")
	ErrRaggedPoints = errors.New("points have different dimensions")
	ErrUnknownAxis  = errors.New("unknown cluster axis")
)

// Axis selects which anchor coordinates are clustered.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisBoth
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisBoth:
		return "both"
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// ParseAxis converts "x", "y" or "both" to an Axis.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "both", "xy", "":
		return AxisBoth, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAxis, s)
}

// KMeansParams configures KMeans. Zero MaxIter and Tolerance use defaults.
type KMeansParams struct {
	K         int
	MaxIter   int
	Tolerance float64
}

// DefaultK picks a cluster count for n objects: a third of them, at most
// MaxDefaultK and at least 1.
func DefaultK(n int) int {
	return max(1, min(n/3, MaxDefaultK))
}

// KMeans clusters points with Lloyd's algorithm and returns the centers in
// lexicographic order.
//
// Seeding is deterministic: the first point, then repeatedly the point
// farthest from every chosen seed. When the input has fewer than K distinct
// points, fewer centers are returned.
func KMeans(points [][]float64, p KMeansParams) ([][]float64, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	if p.K <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidK, p.K)
	}
	dim := len(points[0])
	for i, pt := range points {
		if len(pt) != dim || dim == 0 {
			return nil, fmt.Errorf("%w: point %d has %d, want %d", ErrRaggedPoints, i, len(pt), dim)
		}
	}
	maxIter := p.MaxIter
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}
	tol := p.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	centers := seedFarthest(points, p.K)
	assign := make([]int, len(points))
	sums := make([][]float64, len(centers))
	for i := range sums {
		sums[i] = make([]float64, dim)
	}
	counts := make([]int, len(centers))

	for iter := 0; iter < maxIter; iter++ {
		for i, pt := range points {
			assign[i] = nearest(centers, pt)
		}

		for c := range centers {
			floats.Scale(0, sums[c])
			counts[c] = 0
		}
		for i, pt := range points {
			floats.Add(sums[assign[i]], pt)
			counts[assign[i]]++
		}

		shift := 0.0
		for c := range centers {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			shift = max(shift, floats.Distance(centers[c], sums[c], 2))
			copy(centers[c], sums[c])
		}
		if shift <= tol {
			break
		}
	}

	sort.Slice(centers, func(i, j int) bool { return lexLess(centers[i], centers[j]) })
	return centers, nil
}

func seedFarthest(points [][]float64, k int) [][]float64 {
	centers := [][]float64{append([]float64(nil), points[0]...)}
	minDist := make([]float64, len(points))
	for i, pt := range points {
		minDist[i] = floats.Distance(pt, centers[0], 2)
	}
	for len(centers) < k {
		idx := floats.MaxIdx(minDist)
		if minDist[idx] == 0 {
			break
		}
		c := append([]float64(nil), points[idx]...)
		centers = append(centers, c)
		for i, pt := range points {
			minDist[i] = min(minDist[i], floats.Distance(pt, c, 2))
		}
	}
	return centers
}

// nearest returns the index of the closest center; ties go to the lower index.
func nearest(centers [][]float64, pt []float64) int {
	best, bestD := 0, floats.Distance(centers[0], pt, 2)
	for c := 1; c < len(centers); c++ {
		if d := floats.Distance(centers[c], pt, 2); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

func lexLess(a, b []float64) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
