package render

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/gridsnap/internal/fsutil"
	"github.com/banshee-data/gridsnap/internal/layout"
	"github.com/banshee-data/gridsnap/internal/layout/grid"
	"github.com/banshee-data/gridsnap/internal/layout/pipeline"
	"github.com/banshee-data/gridsnap/internal/monitoring"
)

var (
	gridColor     = color.RGBA{R: 180, G: 180, B: 180, A: 255}
	clusterColor  = color.RGBA{R: 230, G: 140, B: 20, A: 255}
	originalColor = color.RGBA{R: 120, G: 120, B: 120, A: 255}
)

// LayoutPlot describes one slide preview. Slide coordinates grow downwards;
// the plot flips the Y axis so the preview reads like the slide.
type LayoutPlot struct {
	Title   string
	Width   int
	Height  int
	Grids   pipeline.SlideGrids
	Objects []*layout.Object
}

// PlotLayout renders lp as a PNG to w.
func PlotLayout(w io.Writer, lp LayoutPlot) error {
	if lp.Width <= 0 || lp.Height <= 0 {
		return fmt.Errorf("render: invalid slide size %dx%d", lp.Width, lp.Height)
	}
	p := plot.New()
	p.Title.Text = lp.Title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y (flipped)"
	p.X.Min, p.X.Max = 0, float64(lp.Width)
	p.Y.Min, p.Y.Max = 0, float64(lp.Height)

	flip := func(y int) float64 { return float64(lp.Height - y) }

	if err := addGridLines(p, lp.Grids.Basic, flip, gridColor, "grid"); err != nil {
		return err
	}
	if err := addGridLines(p, lp.Grids.Cluster, flip, clusterColor, "cluster grid"); err != nil {
		return err
	}

	// Stable colours per category regardless of which ones are present.
	cats := layout.Categories()
	colors := generateColors(len(cats))
	legend := make(map[layout.Category]bool)
	for _, o := range lp.Objects {
		if o.Original() != o.Bounds() {
			orig, err := rectLine(o.Original(), flip)
			if err != nil {
				return err
			}
			orig.Color = originalColor
			orig.Dashes = []vg.Length{vg.Points(3), vg.Points(2)}
			p.Add(orig)
		}

		cur, err := rectLine(o.Bounds(), flip)
		if err != nil {
			return err
		}
		cur.Width = vg.Points(1.5)
		cur.Color = colors[slices.Index(cats, o.Category())]
		p.Add(cur)
		if !legend[o.Category()] {
			legend[o.Category()] = true
			p.Legend.Add(string(o.Category()), cur)
		}
	}

	wt, err := p.WriterTo(8*vg.Inch, vg.Length(8*float64(lp.Height)/float64(lp.Width))*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// addGridLines draws every line of g across the whole slide. g may be nil.
func addGridLines(p *plot.Plot, g *grid.Grid, flip func(int) float64, c color.Color, name string) error {
	if g == nil {
		return nil
	}
	var first *plotter.Line
	add := func(pts plotter.XYs) error {
		l, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		l.Color = c
		l.Width = vg.Points(0.5)
		p.Add(l)
		if first == nil {
			first = l
		}
		return nil
	}
	for _, x := range g.XLines() {
		if err := add(plotter.XYs{{X: float64(x), Y: flip(0)}, {X: float64(x), Y: flip(g.Height)}}); err != nil {
			return err
		}
	}
	for _, y := range g.YLines() {
		if err := add(plotter.XYs{{X: 0, Y: flip(y)}, {X: float64(g.Width), Y: flip(y)}}); err != nil {
			return err
		}
	}
	if first != nil {
		p.Legend.Add(name, first)
	}
	return nil
}

func rectLine(r layout.Rect, flip func(int) float64) (*plotter.Line, error) {
	l, t := float64(r.Left), flip(r.Top)
	rt, b := float64(r.Right()), flip(r.Bottom())
	line, err := plotter.NewLine(plotter.XYs{{X: l, Y: t}, {X: rt, Y: t}, {X: rt, Y: b}, {X: l, Y: b}, {X: l, Y: t}})
	if err != nil {
		return nil, err
	}
	line.LineStyle = draw.LineStyle{Width: vg.Points(1), Color: color.Black}
	return line, nil
}

// SaveSlides writes one slide_NNN.png per slide of res into dir and returns
// the number of plots written.
func SaveSlides(fsys fsutil.FileSystem, dir string, res *pipeline.Result, width, height int) (int, error) {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("render: %w", err)
	}

	bySlide := make(map[int][]*layout.Object)
	for _, o := range res.Objects {
		bySlide[o.SlideIndex()] = append(bySlide[o.SlideIndex()], o)
	}

	count := 0
	for _, slide := range res.Slides() {
		path := filepath.Join(dir, fmt.Sprintf("slide_%03d.png", slide))
		f, err := fsys.Create(path)
		if err != nil {
			return count, fmt.Errorf("render: %w", err)
		}
		err = PlotLayout(f, LayoutPlot{
			Title:   fmt.Sprintf("Slide %d", slide),
			Width:   width,
			Height:  height,
			Grids:   res.Grids[slide],
			Objects: bySlide[slide],
		})
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return count, fmt.Errorf("slide %d: %w", slide, err)
		}
		count++
	}
	monitoring.Logf("render: wrote %d slide plots to %s", count, dir)
	return count, nil
}

// generateColors creates a palette of n distinct colours.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := range colors {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.45)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	if s == 0 {
		v := uint8(l * 255)
		return v, v, v
	}
	q := l + s - l*s
	if l < 0.5 {
		q = l * (1 + s)
	}
	p := 2*l - q
	return uint8(hueToRGB(p, q, h+1.0/3.0) * 255),
		uint8(hueToRGB(p, q, h) * 255),
		uint8(hueToRGB(p, q, h-1.0/3.0) * 255)
}

func hueToRGB(p, q, t float64) float64 {
	switch {
	case t < 0:
		t++
	case t > 1:
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
