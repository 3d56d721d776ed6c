package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/talgya/community-sim/internal/agents"
	"github.com/talgya/community-sim/internal/engine"
)

var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorRed,
	chart.ColorGreen,
	{R: 255, G: 165, B: 0, A: 255},
	chart.ColorCyan,
	{R: 128, G: 0, B: 128, A: 255},
}

// PlotNewMembers renders the cumulative new-member curve of each run as a
// PNG. Every curve starts at step 0 with nobody joined. prospects fixes the
// top of the y axis.
func PlotNewMembers(w io.Writer, runs []Iteration, prospects int) error {
	if len(runs) == 0 {
		return fmt.Errorf("plot new members: no runs")
	}

	maxStep := 1
	series := make([]chart.Series, 0, len(runs))
	for i, r := range runs {
		xs := make([]float64, 0, len(r.Series)+1)
		ys := make([]float64, 0, len(r.Series)+1)
		xs = append(xs, 0)
		ys = append(ys, 0)
		for _, rec := range r.Series {
			xs = append(xs, float64(rec.Tick))
			ys = append(ys, float64(rec.NewMembers))
		}
		if len(r.Series) > maxStep {
			maxStep = len(r.Series)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("Iteration #%d", i+1),
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: palette[i%len(palette)], StrokeWidth: 2.0},
		})
	}
	if prospects < 1 {
		prospects = 1
	}

	graph := chart.Chart{
		Title:  "Number of New Members Joined Over Time",
		Width:  800,
		Height: 480,
		XAxis: chart.XAxis{
			Name:  "Steps",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxStep)},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "Number of New Members",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: 0, Max: float64(prospects)},
		},
		Series: series,
	}
	if len(runs) > 1 {
		graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	}
	return graph.Render(chart.PNG, w)
}

// PlotTypologyHistogram renders how many members carry each typology. All
// canonical typologies get a bar, empty ones included.
func PlotTypologyHistogram(w io.Writer, rows []agents.TypologyRow) error {
	counts := make(map[string]int, len(agents.Typologies))
	for _, t := range agents.Typologies {
		counts[t] = 0
	}
	for _, r := range rows {
		counts[r.Typology]++
	}

	labels := make([]string, 0, len(counts))
	for t := range counts {
		labels = append(labels, t)
	}
	sort.Strings(labels)

	top := 1
	bars := make([]chart.Value, 0, len(labels))
	for i, t := range labels {
		if counts[t] > top {
			top = counts[t]
		}
		bars = append(bars, chart.Value{
			Label: t,
			Value: float64(counts[t]),
			Style: chart.Style{FillColor: palette[i%len(palette)], StrokeColor: palette[i%len(palette)]},
		})
	}

	graph := chart.BarChart{
		Title:    "Histogram of Member Agent Types",
		Width:    800,
		Height:   480,
		BarWidth: 60,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(top)},
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, w)
}

// Iterations pairs run ids with their stored series.
func Iterations(ids []string, load func(id string) ([]engine.TickRecord, error)) ([]Iteration, error) {
	out := make([]Iteration, 0, len(ids))
	for _, id := range ids {
		series, err := load(id)
		if err != nil {
			return nil, fmt.Errorf("load series %s: %w", id, err)
		}
		out = append(out, Iteration{RunID: id, Series: series})
	}
	return out, nil
}
