package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/gridsnap/internal/layout/pipeline"
)

// unmovedSeries names the series of objects that kept their position.
const unmovedSeries = "unchanged"

// DisplacementReport renders an HTML page with a scatter of every object's
// committed move (dx, dy), one series per winning grid source, and a bar
// chart of moved and unchanged objects per slide.
func DisplacementReport(w io.Writer, title string, outcomes []pipeline.Outcome) error {
	series := make(map[string][]opts.ScatterData)
	type counts struct{ moved, unchanged int }
	perSlide := make(map[int]*counts)
	pad := 1

	for _, o := range outcomes {
		name := unmovedSeries
		if o.Candidate != nil && !o.Move.IsZero() {
			name = o.Candidate.Source
		}
		series[name] = append(series[name], opts.ScatterData{
			Name:  o.ObjectID,
			Value: []interface{}{o.Move.DX, -o.Move.DY, o.ObjectID},
		})
		pad = max(pad, abs(o.Move.DX), abs(o.Move.DY))

		c, ok := perSlide[o.SlideIndex]
		if !ok {
			c = &counts{}
			perSlide[o.SlideIndex] = c
		}
		if o.Move.IsZero() {
			c.unchanged++
		} else {
			c.moved++
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("objects=%d", len(outcomes))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "dx", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "-dy", NameLocation: "middle", NameGap: 30}),
	)
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		scatter.AddSeries(name, series[name], charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	}

	slides := make([]int, 0, len(perSlide))
	for s := range perSlide {
		slides = append(slides, s)
	}
	sort.Ints(slides)
	labels := make([]string, len(slides))
	moved := make([]opts.BarData, len(slides))
	unchanged := make([]opts.BarData, len(slides))
	for i, s := range slides {
		labels[i] = fmt.Sprintf("slide %d", s)
		moved[i] = opts.BarData{Value: perSlide[s].moved}
		unchanged[i] = opts.BarData{Value: perSlide[s].unchanged}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Objects per slide"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).
		AddSeries("moved", moved).
		AddSeries(unmovedSeries, unchanged)

	page := components.NewPage()
	page.AddCharts(scatter, bar)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
