// Package render draws previews of a snapping run: a PNG per slide with the
// grid and the original and snapped rectangles (gonum/plot), and an HTML
// report of per-object displacement (go-echarts).
package render
