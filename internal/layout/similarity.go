package layout

import "math"

// OverlapArea returns the area shared by the current geometry of a and b.
func OverlapArea(a, b *Object) int64 {
	return a.Bounds().Intersection(b.Bounds()).Area()
}

// Dice returns the Dice overlap coefficient 2·overlap / (areaA + areaB).
// Two zero-area objects score 0.
func Dice(a, b *Object) float64 {
	denom := a.Area() + b.Area()
	if denom == 0 {
		return 0
	}
	return 2 * float64(OverlapArea(a, b)) / float64(denom)
}

// SizeMatchScore compares sizes: 1 − (|Δw|/max w)·(|Δh|/max h), clamped to
// [0, 1]. Identical sizes score 1. An axis where both sizes are zero
// contributes no difference.
func SizeMatchScore(a, b *Object) float64 {
	dw := diffRatio(a.Width(), b.Width())
	dh := diffRatio(a.Height(), b.Height())
	return clamp01(1 - dw*dh)
}

// SizeCorrectedDice scales Dice by 1 − |Δarea|/max area, penalising pairs
// whose overlap is high only because one contains the other.
func SizeCorrectedDice(a, b *Object) float64 {
	aa, ba := a.Area(), b.Area()
	m := max(aa, ba)
	if m == 0 {
		return 0
	}
	diff := aa - ba
	if diff < 0 {
		diff = -diff
	}
	return clamp01(Dice(a, b) * (1 - float64(diff)/float64(m)))
}

func diffRatio(x, y int) float64 {
	m := max(abs(x), abs(y))
	if m == 0 {
		return 0
	}
	return math.Abs(float64(x-y)) / float64(m)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
