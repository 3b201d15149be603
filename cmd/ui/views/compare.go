package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stocktracker/cmd/ui/components"
	"stocktracker/internal/plot"
	"stocktracker/internal/shared"
	"stocktracker/internal/stocks"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"
)

// Result of fetching history for every compared symbol.
type ComparisonMsg struct {
	Symbols []string
	Series  []stocks.Series
	Err     error
}

// Multi symbol comparison chart.
type Compare struct {
	Backend stocks.Backend
	Session *shared.Session
	// clock used for the date window, time.Now when nil
	Now func() time.Time

	width  int
	height int

	symbols *components.SymbolList
	spinner spinner.Model
	loading bool

	status string
	failed bool

	// chart data, aligned on dates
	names  []string
	dates  []time.Time
	values [][]float64
	cursor int

	fullscreen bool
}

// wide enough for the list title
const listWidth = 28

func selectionText(lo, hi int) string {
	if hi-lo == 1 {
		return fmt.Sprintf("Please select %d or %d stocks to compare.", lo, hi)
	}
	return fmt.Sprintf("Please select %d to %d stocks to compare.", lo, hi)
}

func comparingText(symbols []string) string {
	return fmt.Sprintf("Comparing stock prices for: %s", strings.Join(symbols, ", "))
}

func chartTitle(days int) string {
	return fmt.Sprintf("Stock Price Comparison (Past %d Days)", days)
}

func (c *Compare) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Compare) Init() tea.Cmd {
	if c.Session == nil {
		c.Session = shared.LocalSession()
	}
	c.symbols = components.NewSymbolList("Compare Multiple Stocks", shared.Koanf.Strings("symbols"), true, c.Session.Renderer)
	c.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))
	c.cursor = -1
	return nil
}

func (c *Compare) fetchHistory(symbols []string) tea.Cmd {
	backend := c.Backend
	start, end := stocks.Window(c.now(), shared.Koanf.Int("compare.days"))
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), shared.NetworkTimeout())
		defer cancel()

		series, err := stocks.FetchAll(ctx, backend, symbols, start, end)
		return ComparisonMsg{Symbols: symbols, Series: series, Err: err}
	}
}

func (c *Compare) compare() tea.Cmd {
	if c.loading {
		return nil
	}

	selected := c.symbols.Selected()
	lo, hi := shared.Koanf.Int("compare.minSymbols"), shared.Koanf.Int("compare.maxSymbols")
	if err := stocks.ValidateSelection(selected, lo, hi); err != nil {
		c.Session.Log.Info("Rejected comparison", "error", err)
		c.failed = true
		c.status = selectionText(lo, hi)
		return nil
	}

	c.Session.Log.Info("Comparing symbols", "symbols", selected)
	c.loading = true
	return tea.Batch(c.spinner.Tick, c.fetchHistory(selected))
}

func (c *Compare) export() tea.Cmd {
	if len(c.dates) == 0 {
		return shared.Notify("Nothing to export yet")
	}

	dir := shared.Koanf.String("chart.exportDir")
	title := chartTitle(shared.Koanf.Int("compare.days"))
	at := c.now()
	dates, values, names := c.dates, c.values, c.names

	return func() tea.Msg {
		path, err := plot.ExportFile(dir, at, dates, values, names, title)
		if err != nil {
			c.Session.Log.Error("Chart export failed", "error", err)
			return shared.SendNotificationMsg{Message: fmt.Sprintf("Export failed: %v", err), DisplayTime: 3 * time.Second}
		}
		c.Session.Log.Info("Exported chart", "path", path)
		return shared.SendNotificationMsg{Message: fmt.Sprintf("Saved chart to %s", path), DisplayTime: 3 * time.Second}
	}
}

func (c *Compare) moveCursor(delta int) {
	if len(c.dates) == 0 {
		return
	}
	c.cursor += delta
	if c.cursor < 0 {
		c.cursor = 0
	}
	if c.cursor > len(c.dates)-1 {
		c.cursor = len(c.dates) - 1
	}
}

func (c *Compare) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width = msg.Width
		c.height = msg.Height - 2
		c.symbols.SetSize(listWidth, c.height)

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			c.fullscreen = false
			return c, nil
		case "f":
			c.fullscreen = !c.fullscreen
			return c, nil
		case "left", "h":
			c.moveCursor(-1)
			return c, nil
		case "right", "l":
			c.moveCursor(1)
			return c, nil
		case "s":
			return c, c.export()
		}

		// the list is hidden in full screen
		if c.fullscreen {
			return c, nil
		}

		switch msg.String() {
		case " ", "space":
			c.symbols.Toggle()
			return c, nil
		case "c":
			c.symbols.Clear()
			return c, nil
		case "enter":
			return c, c.compare()
		}
		cmd = c.symbols.Update(msg)

	case ComparisonMsg:
		c.loading = false
		if msg.Err != nil {
			c.Session.Log.Error("Comparison failed", "symbols", msg.Symbols, "error", msg.Err)
			c.failed = true

			var symErr *stocks.SymbolError
			if errors.As(msg.Err, &symErr) {
				c.status = lookupErrorText(symErr.Symbol)
			} else {
				c.status = fmt.Sprintf("Error: Could not retrieve data for %s.", strings.Join(msg.Symbols, ", "))
			}
			return c, nil
		}

		// each comparison replaces the previous chart
		c.names = msg.Symbols
		c.dates, c.values = stocks.Align(msg.Series)
		c.cursor = len(c.dates) - 1
		c.failed = false
		c.status = comparingText(msg.Symbols)

	case spinner.TickMsg:
		if c.loading {
			c.spinner, cmd = c.spinner.Update(msg)
		}
	}

	return c, cmd
}

// Date and price of every series at the cursor.
func (c *Compare) cursorText() string {
	if c.cursor < 0 || c.cursor >= len(c.dates) {
		return ""
	}

	parts := []string{c.dates[c.cursor].Format(plot.DateFormat)}
	for i, name := range c.names {
		swatch := c.Session.Renderer.NewStyle().Foreground(plot.SeriesColor(i)).Render(name)
		parts = append(parts, fmt.Sprintf("%s $%.2f", swatch, c.values[i][c.cursor]))
	}
	return strings.Join(parts, "   ")
}

func (c *Compare) chartView(width, height int) string {
	if len(c.dates) == 0 {
		return ""
	}

	title := c.Session.Renderer.NewStyle().Bold(true).Render(chartTitle(shared.Koanf.Int("compare.days")))
	graph := plot.Terminal(c.dates, c.values, c.names, plot.Options{
		Width:    width,
		Height:   height,
		Cursor:   c.cursor,
		Renderer: c.Session.Renderer,
	})
	return lipgloss.JoinVertical(lipgloss.Left, title, "Price (USD)", graph, "", c.cursorText())
}

func (c *Compare) View() string {
	chartHeight := shared.Koanf.Int("chart.height")

	if c.fullscreen {
		// title, caption, cursor, axis, legend and footer take 7 lines
		return c.chartView(c.width, max(c.height-7, chartHeight))
	}

	var status string
	switch {
	case c.loading:
		status = fmt.Sprintf("%s Fetching history...", c.spinner.View())
	case c.status != "":
		color := shared.UpColor()
		if c.failed {
			color = shared.DownColor()
		}
		status = c.Session.Renderer.NewStyle().Bold(true).Foreground(color).Render(c.status)
	default:
		status = "Select 2 or 3 symbols with space, then press enter."
	}

	right := lipgloss.JoinVertical(lipgloss.Left,
		c.Session.Renderer.NewStyle().Padding(1, 0).Render(status),
		c.chartView(c.width-listWidth-4, chartHeight),
	)

	left := c.Session.Renderer.NewStyle().Width(listWidth+2).Render(c.symbols.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

type CompareKeyMap struct {
	Toggle     key.Binding
	Clear      key.Binding
	Compare    key.Binding
	Cursor     key.Binding
	Fullscreen key.Binding
	Export     key.Binding
}

func (c *Compare) GetKeys() []key.Binding {
	keymap := CompareKeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("<space>", "Select"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Clear"),
		),
		Compare: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("<enter>", "Compare"),
		),
		Cursor: key.NewBinding(
			key.WithKeys("h", "l", "left", "right"),
			key.WithHelp("h/l", "Move cursor"),
		),
		Fullscreen: key.NewBinding(
			key.WithKeys("f", "esc"),
			key.WithHelp("f", "Full screen"),
		),
		Export: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Save PNG"),
		),
	}

	if c.fullscreen {
		return []key.Binding{keymap.Cursor, keymap.Fullscreen, keymap.Export}
	}
	keys := append(c.symbols.GetKeys(), keymap.Toggle, keymap.Clear, keymap.Compare)
	if len(c.dates) > 0 {
		keys = append(keys, keymap.Cursor, keymap.Fullscreen, keymap.Export)
	}
	return keys
}
