package plot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var ErrTooFewPoints = errors.New("need at least two dates to draw a chart")

// Labelled ticks every TickEvery dates. go-chart spans the x axis from the
// first to the last tick, so the last date always gets one, unlabelled when it
// falls between labels.
func dateTicks(dates []time.Time) []chart.Tick {
	var ticks []chart.Tick
	for i := 0; i < len(dates); i += TickEvery {
		ticks = append(ticks, chart.Tick{
			Value: chart.TimeToFloat64(dates[i]),
			Label: dates[i].Format(DateFormat),
		})
	}
	if last := len(dates) - 1; last > 0 && last%TickEvery != 0 {
		ticks = append(ticks, chart.Tick{Value: chart.TimeToFloat64(dates[last])})
	}
	return ticks
}

// ExportPNG renders the series as an 800x500 PNG line chart.
func ExportPNG(w io.Writer, dates []time.Time, values [][]float64, names []string, title string) error {
	if len(dates) < 2 {
		return ErrTooFewPoints
	}

	series := []chart.Series{}
	for i, ys := range values {
		col := drawing.ColorFromHex(colorAt(i).hex)
		series = append(series, chart.TimeSeries{
			Name:    names[i],
			XValues: dates,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: col,
				StrokeWidth: 2,
				DotColor:    col,
				DotWidth:    4,
			},
		})
	}

	ch := chart.Chart{
		Title:      title,
		Width:      800,
		Height:     500,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 30}},
		XAxis: chart.XAxis{
			Name:      "Date",
			Ticks:     dateTicks(dates),
			TickStyle: chart.Style{TextRotationDegrees: 45.0},
		},
		YAxis: chart.YAxis{
			Name: "Price (USD)",
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.2f", f)
				}
				return ""
			},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	return ch.Render(chart.PNG, w)
}

// ExportFileName is comparison-<SYMBOLS>-<date>.png.
func ExportFileName(symbols []string, at time.Time) string {
	return fmt.Sprintf("comparison-%s-%s.png", strings.Join(symbols, "-"), at.Format(DateFormat))
}

// ExportFile writes the chart into dir and returns the path written.
func ExportFile(dir string, at time.Time, dates []time.Time, values [][]float64, names []string, title string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, ExportFileName(names, at))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if err := ExportPNG(f, dates, values, names, title); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	return path, f.Close()
}
