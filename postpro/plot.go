package postpro

import (
	"fmt"
	"os"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/agroclim/fao56"
)

func dates(states []fao56.DailyState) []time.Time {
	dt := make([]time.Time, len(states))
	for i := range states {
		dt[i] = states[i].Date
	}
	return dt
}

func series(states []fao56.DailyState, sel func(*fao56.DailyState) float64) []float64 {
	v := make([]float64, len(states))
	for i := range states {
		v[i] = sel(&states[i])
	}
	return v
}

func renderPNG(graph chart.Chart, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("postpro: create %s: %w", filename, err)
	}
	defer f.Close()
	if err := graph.Render(chart.PNG, f); err != nil {
		return fmt.Errorf("postpro: render %s: %w", filename, err)
	}
	return nil
}

func dateAxis() chart.XAxis {
	return chart.XAxis{
		ValueFormatter: func(v interface{}) string {
			if t, ok := v.(time.Time); ok {
				return t.Format("01-02")
			}
			return ""
		},
	}
}

// PlotDepletion renders root-zone depletion against the readily and
// totally available water thresholds, with irrigation events marked.
func PlotDepletion(states []fao56.DailyState, filename string) error {
	if len(states) == 0 {
		return fmt.Errorf("postpro: no states to plot")
	}
	dt := dates(states)

	irrDt := []time.Time{}
	irrV := []float64{}
	for i := range states {
		if states[i].Irrig > 0. {
			irrDt = append(irrDt, states[i].Date)
			irrV = append(irrV, states[i].Dr)
		}
	}

	graph := chart.Chart{
		Title:  "Root-zone depletion",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 60, Right: 20, Bottom: 40},
		},
		XAxis: dateAxis(),
		YAxis: chart.YAxis{Name: "depth (mm)"},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Dr",
				Style:   chart.Style{StrokeColor: drawing.Color{R: 51, G: 102, B: 204, A: 255}, StrokeWidth: 2},
				XValues: dt,
				YValues: series(states, func(s *fao56.DailyState) float64 { return s.Dr }),
			},
			chart.TimeSeries{
				Name:    "RAW",
				Style:   chart.Style{StrokeColor: drawing.Color{R: 230, G: 159, B: 0, A: 255}, StrokeWidth: 1, StrokeDashArray: []float64{5, 5}},
				XValues: dt,
				YValues: series(states, func(s *fao56.DailyState) float64 { return s.RAW }),
			},
			chart.TimeSeries{
				Name:    "TAW",
				Style:   chart.Style{StrokeColor: drawing.Color{R: 204, G: 51, B: 51, A: 255}, StrokeWidth: 1, StrokeDashArray: []float64{2, 4}},
				XValues: dt,
				YValues: series(states, func(s *fao56.DailyState) float64 { return s.TAW }),
			},
			chart.TimeSeries{
				Name: "irrigation",
				Style: chart.Style{
					StrokeColor: drawing.Color{R: 0, G: 158, B: 115, A: 60},
					StrokeWidth: 1,
					DotColor:    drawing.Color{R: 0, G: 158, B: 115, A: 255},
					DotWidth:    5,
				},
				XValues: append(irrDt, dt[len(dt)-1]), // keep the series non-degenerate
				YValues: append(irrV, states[len(states)-1].Dr),
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return renderPNG(graph, filename)
}

// PlotET renders daily reference, crop, and stress-adjusted crop ET.
func PlotET(states []fao56.DailyState, filename string) error {
	if len(states) == 0 {
		return fmt.Errorf("postpro: no states to plot")
	}
	dt := dates(states)
	graph := chart.Chart{
		Title:  "Daily evapotranspiration",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 60, Right: 20, Bottom: 40},
		},
		XAxis: dateAxis(),
		YAxis: chart.YAxis{Name: "mm/d"},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "ETref",
				Style:   chart.Style{StrokeColor: drawing.Color{R: 153, G: 153, B: 153, A: 255}, StrokeWidth: 1},
				XValues: dt,
				YValues: series(states, func(s *fao56.DailyState) float64 { return s.ETref }),
			},
			chart.TimeSeries{
				Name:    "ETc",
				Style:   chart.Style{StrokeColor: drawing.Color{R: 51, G: 102, B: 204, A: 255}, StrokeWidth: 1, StrokeDashArray: []float64{4, 4}},
				XValues: dt,
				YValues: series(states, func(s *fao56.DailyState) float64 { return s.ETc }),
			},
			chart.TimeSeries{
				Name:    "ETcadj",
				Style:   chart.Style{StrokeColor: drawing.Color{R: 0, G: 158, B: 115, A: 255}, StrokeWidth: 2},
				XValues: dt,
				YValues: series(states, func(s *fao56.DailyState) float64 { return s.ETcadj }),
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return renderPNG(graph, filename)
}

// PlotCumulative renders cumulative water balance components over the
// season.
func PlotCumulative(states []fao56.DailyState, filename string) error {
	if len(states) == 0 {
		return fmt.Errorf("postpro: no states to plot")
	}
	dt := dates(states)
	cum := func(sel func(*fao56.DailyState) float64) []float64 {
		v := make([]float64, len(states))
		var sum float64
		for i := range states {
			sum += sel(&states[i])
			v[i] = sum
		}
		return v
	}
	graph := chart.Chart{
		Title:  "Cumulative water balance",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 60, Right: 20, Bottom: 40},
		},
		XAxis: dateAxis(),
		YAxis: chart.YAxis{Name: "depth (mm)"},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "rain",
				Style:   chart.Style{StrokeColor: drawing.Color{R: 51, G: 102, B: 204, A: 255}, StrokeWidth: 2},
				XValues: dt,
				YValues: cum(func(s *fao56.DailyState) float64 { return s.Rain }),
			},
			chart.TimeSeries{
				Name:    "irrigation",
				Style:   chart.Style{StrokeColor: drawing.Color{R: 0, G: 158, B: 115, A: 255}, StrokeWidth: 2},
				XValues: dt,
				YValues: cum(func(s *fao56.DailyState) float64 { return s.Irrig }),
			},
			chart.TimeSeries{
				Name:    "ETcadj",
				Style:   chart.Style{StrokeColor: drawing.Color{R: 204, G: 51, B: 51, A: 255}, StrokeWidth: 2},
				XValues: dt,
				YValues: cum(func(s *fao56.DailyState) float64 { return s.ETcadj }),
			},
			chart.TimeSeries{
				Name:    "deep percolation",
				Style:   chart.Style{StrokeColor: drawing.Color{R: 230, G: 159, B: 0, A: 255}, StrokeWidth: 1, StrokeDashArray: []float64{4, 4}},
				XValues: dt,
				YValues: cum(func(s *fao56.DailyState) float64 { return s.DP }),
			},
			chart.TimeSeries{
				Name:    "runoff",
				Style:   chart.Style{StrokeColor: drawing.Color{R: 153, G: 153, B: 153, A: 255}, StrokeWidth: 1, StrokeDashArray: []float64{2, 4}},
				XValues: dt,
				YValues: cum(func(s *fao56.DailyState) float64 { return s.Runoff }),
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return renderPNG(graph, filename)
}
