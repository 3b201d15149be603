package plot

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/guptarohit/asciigraph"
)

const DateFormat = "2006-01-02"

// Date labels are drawn for every TickEvery-th point.
const TickEvery = 3

type color struct {
	term asciigraph.AnsiColor
	hex  string
}

// series colours, reused in order
var palette = []color{
	{asciigraph.DodgerBlue, "1E90FF"},
	{asciigraph.Orange, "FFA500"},
	{asciigraph.LimeGreen, "32CD32"},
	{asciigraph.HotPink, "FF69B4"},
}

func colorAt(i int) color {
	return palette[i%len(palette)]
}

// Hex colour of series i, with a leading #.
func SeriesColor(i int) lipgloss.Color {
	return lipgloss.Color("#" + colorAt(i).hex)
}

type Options struct {
	Width  int
	Height int
	// index into dates marked below the chart, -1 for none
	Cursor   int
	Renderer *lipgloss.Renderer
}

// Terminal draws one line per series over the shared dates, followed by a
// cursor row, a date axis and a legend.
func Terminal(dates []time.Time, values [][]float64, names []string, opts Options) string {
	if len(dates) == 0 || len(values) == 0 {
		return ""
	}
	if opts.Renderer == nil {
		opts.Renderer = lipgloss.DefaultRenderer()
	}
	if opts.Height <= 0 {
		opts.Height = 15
	}

	colors := make([]asciigraph.AnsiColor, len(values))
	for i := range values {
		colors[i] = colorAt(i).term
	}

	stride := Stride(len(dates), opts.Width)
	graphOpts := []asciigraph.Option{
		asciigraph.Height(opts.Height),
		asciigraph.Precision(2),
		asciigraph.SeriesColors(colors...),
	}
	if len(dates) > 1 {
		graphOpts = append(graphOpts, asciigraph.Width((len(dates)-1)*stride+1))
	}
	graph := asciigraph.PlotMany(values, graphOpts...)

	axis := AxisColumn(graph)
	positions := make([]int, len(dates))
	for i := range dates {
		positions[i] = axis + i*stride
	}

	var labels []string
	var labelPos []int
	for i := 0; i < len(dates); i += TickEvery {
		labels = append(labels, dates[i].Format(DateFormat))
		labelPos = append(labelPos, positions[i])
	}

	rows := []string{graph}
	if opts.Cursor >= 0 && opts.Cursor < len(dates) {
		cursor := opts.Renderer.NewStyle().Bold(true).Render("▲")
		rows = append(rows, strings.Repeat(" ", positions[opts.Cursor])+cursor)
	}
	rows = append(rows, LabelRow(labelPos, labels), legend(names, opts.Renderer))

	return strings.Join(rows, "\n")
}

// Stride is how many columns each data point gets so n points fit in width.
func Stride(n, width int) int {
	if n < 2 {
		return 1
	}
	// room for the y labels
	usable := width - 12
	stride := usable / (n - 1)
	if stride < 1 {
		return 1
	}
	return stride
}

// AxisColumn finds the column of the y axis in a rendered graph.
func AxisColumn(graph string) int {
	first, _, _ := strings.Cut(graph, "\n")
	for i, r := range []rune(ansi.Strip(first)) {
		if r == '┤' || r == '┼' {
			return i
		}
	}
	return 0
}

// LabelRow places each label starting at its column, dropping labels that
// would overlap the one before.
func LabelRow(positions []int, labels []string) string {
	var b strings.Builder
	col := 0
	for i, label := range labels {
		pos := positions[i]
		if pos < col {
			continue
		}
		b.WriteString(strings.Repeat(" ", pos-col))
		b.WriteString(label)
		// keep a gap between labels
		col = pos + len(label) + 1
		b.WriteString(" ")
	}
	return strings.TrimRight(b.String(), " ")
}

func legend(names []string, r *lipgloss.Renderer) string {
	parts := make([]string, len(names))
	for i, name := range names {
		swatch := r.NewStyle().Foreground(SeriesColor(i)).Render("━━")
		parts[i] = swatch + " " + name
	}
	return strings.Join(parts, "   ")
}
