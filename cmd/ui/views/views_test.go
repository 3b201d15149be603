package views

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"stocktracker/cmd/ui/components"
	"stocktracker/internal/news"
	"stocktracker/internal/shared"
	"stocktracker/internal/stocks"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
)

func TestMain(m *testing.M) {
	shared.LoadDefaultConfig()
	os.Exit(m.Run())
}

type stubBackend struct {
	quotes map[string]stocks.Quote
	series map[string]stocks.Series
}

func (s stubBackend) Quote(ctx context.Context, symbol string) (stocks.Quote, error) {
	q, ok := s.quotes[symbol]
	if !ok {
		return stocks.Quote{}, stocks.ErrNoData
	}
	return q, nil
}

func (s stubBackend) History(ctx context.Context, symbol string, start, end time.Time) (stocks.Series, error) {
	series, ok := s.series[symbol]
	if !ok {
		return stocks.Series{}, stocks.ErrNoData
	}
	return series, nil
}

func day(d int) time.Time {
	return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC)
}

func testBackend() stubBackend {
	return stubBackend{
		quotes: map[string]stocks.Quote{
			"AAPL": {Symbol: "AAPL", Price: 189.987},
			"TSLA": {Symbol: "TSLA", Price: 171.05},
		},
		series: map[string]stocks.Series{
			"AAPL": {Bars: []stocks.Bar{{Date: day(1), Close: 170}, {Date: day(2), Close: 173}, {Date: day(3), Close: 183.38}}},
			"TSLA": {Bars: []stocks.Bar{{Date: day(1), Close: 179}, {Date: day(2), Close: 180}, {Date: day(3), Close: 181.19}}},
			"KO":   {Bars: []stocks.Bar{{Date: day(1), Close: 61}, {Date: day(3), Close: 62}}},
		},
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func newLookup() *Lookup {
	l := &Lookup{Backend: testBackend()}
	l.Init()
	l.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return l
}

func TestLookupSuccess(t *testing.T) {
	l := newLookup()

	_, cmd := l.Update(enter)
	if cmd == nil {
		t.Fatal("enter returned no command")
	}
	if !l.loading || l.pending != "AAPL" {
		t.Fatalf("loading = %v, pending = %q, want a running AAPL lookup", l.loading, l.pending)
	}

	// a second enter while loading is ignored
	if _, cmd := l.Update(enter); cmd != nil {
		t.Errorf("enter while loading started another lookup")
	}

	l.Update(l.fetchQuote("AAPL")())

	if l.loading {
		t.Error("still loading after result")
	}
	if l.failed {
		t.Error("failed = true for a successful lookup")
	}
	if want := "The latest stock price of AAPL is: $189.99"; l.result != want {
		t.Errorf("result = %q, want %q", l.result, want)
	}
	if !strings.Contains(ansi.Strip(l.View()), "The latest stock price of AAPL is: $189.99") {
		t.Errorf("view missing result:\n%s", l.View())
	}
}

func TestLookupFailure(t *testing.T) {
	l := newLookup()

	l.Update(LookupSymbolMsg("ZZZZ"))
	l.Update(l.fetchQuote("ZZZZ")())

	if !l.failed {
		t.Error("failed = false for a missing symbol")
	}
	if want := "Error: Could not retrieve data for symbol 'ZZZZ'."; l.result != want {
		t.Errorf("result = %q, want %q", l.result, want)
	}
	if l.quote != nil {
		t.Error("quote kept after failed lookup")
	}
}

func TestLookupPrompt(t *testing.T) {
	l := newLookup()

	_, cmd := l.Update(keyRunes("/"))
	if cmd == nil {
		t.Fatal("/ returned no command")
	}
	prompt, ok := cmd().(shared.OpenPromptMsg)
	if !ok {
		t.Fatalf("/ produced %T, want shared.OpenPromptMsg", cmd())
	}

	msg := prompt.Callback("  tsla ")
	if msg != LookupSymbolMsg("TSLA") {
		t.Fatalf("callback = %v, want TSLA", msg)
	}

	l.Update(msg)
	if l.pending != "TSLA" {
		t.Errorf("pending = %q, want TSLA", l.pending)
	}
}

func TestLookupIgnoresStaleResult(t *testing.T) {
	l := newLookup()
	l.Update(enter)

	l.Update(QuoteResultMsg{Symbol: "KO", Err: errors.New("late")})
	if !l.loading || l.result != "" {
		t.Errorf("stale result changed state: loading = %v, result = %q", l.loading, l.result)
	}
}

func TestLookupDetails(t *testing.T) {
	l := newLookup()

	if _, cmd := l.Update(keyRunes("d")); cmd != nil {
		t.Error("d without a quote opened something")
	}

	l.Update(enter)
	l.Update(l.fetchQuote("AAPL")())

	_, cmd := l.Update(keyRunes("d"))
	if cmd == nil {
		t.Fatal("d returned no command")
	}
	overlay, ok := cmd().(shared.DisplayOverlayMsg)
	if !ok {
		t.Fatalf("d produced %T, want shared.DisplayOverlayMsg", cmd())
	}
	modal, ok := overlay.Model.(*components.QuoteModal)
	if !ok || modal.Quote.Symbol != "AAPL" {
		t.Errorf("overlay = %#v, want AAPL quote modal", overlay.Model)
	}
}

func TestLookupClearsPreviousHeadlines(t *testing.T) {
	l := newLookup()

	l.Update(enter)
	l.Update(l.fetchQuote("AAPL")())
	l.Update(HeadlinesMsg{Symbol: "AAPL", Articles: []news.Article{{Title: "Apple unveils new iPhone"}}})
	if !strings.Contains(ansi.Strip(l.View()), "Apple unveils new iPhone") {
		t.Fatalf("AAPL headline not shown:\n%s", l.View())
	}

	l.Update(LookupSymbolMsg("TSLA"))
	l.Update(l.fetchQuote("TSLA")())
	// TSLA headlines never arrive
	l.Update(HeadlinesMsg{Symbol: "TSLA", Err: errors.New("feed down")})

	view := ansi.Strip(l.View())
	if !strings.Contains(view, "The latest stock price of TSLA is: $171.05") {
		t.Errorf("view missing TSLA price:\n%s", view)
	}
	if strings.Contains(view, "Apple unveils new iPhone") {
		t.Errorf("AAPL headline still shown under TSLA:\n%s", view)
	}
}

func TestLookupLogsToSession(t *testing.T) {
	var buf bytes.Buffer
	l := &Lookup{
		Backend: testBackend(),
		Session: &shared.Session{Renderer: lipgloss.NewRenderer(&buf), Log: log.New(&buf)},
	}
	l.Init()

	l.Update(LookupSymbolMsg("KO"))

	if !strings.Contains(buf.String(), "Looking up price") {
		t.Errorf("session log = %q, want the lookup", buf.String())
	}
}

func TestLookupKeys(t *testing.T) {
	l := newLookup()

	var descs []string
	for _, k := range l.GetKeys() {
		descs = append(descs, k.Help().Desc)
	}
	if got := strings.Join(descs, ","); got != "up,down,Get price,Type symbol" {
		t.Errorf("GetKeys() = %s", got)
	}
}

func newCompare() *Compare {
	c := &Compare{
		Backend: testBackend(),
		Now:     func() time.Time { return day(4) },
	}
	c.Init()
	c.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return c
}

// checks the symbols at the given list rows
func selectRows(c *Compare, rows ...int) {
	for _, r := range rows {
		c.symbols.List.Select(r)
		c.Update(space)
	}
}

func TestCompareSelectionBounds(t *testing.T) {
	tests := []struct {
		name string
		rows []int
	}{
		{"none", nil},
		{"one", []int{0}},
		{"four", []int{0, 1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCompare()
			selectRows(c, tt.rows...)

			_, cmd := c.Update(enter)
			if cmd != nil {
				t.Error("invalid selection started a fetch")
			}
			if !c.failed {
				t.Error("failed = false")
			}
			if want := "Please select 2 or 3 stocks to compare."; c.status != want {
				t.Errorf("status = %q, want %q", c.status, want)
			}
		})
	}
}

func TestCompareTitleFits(t *testing.T) {
	c := newCompare()
	if view := ansi.Strip(c.View()); !strings.Contains(view, "Compare Multiple Stocks") {
		t.Errorf("list title truncated:\n%s", view)
	}
}

func TestCompareSuccess(t *testing.T) {
	c := newCompare()
	// AAPL and TSLA are rows 0 and 1 of the default symbols
	selectRows(c, 0, 1)

	_, cmd := c.Update(enter)
	if cmd == nil || !c.loading {
		t.Fatal("valid selection did not start a fetch")
	}

	c.Update(c.fetchHistory([]string{"AAPL", "TSLA"})())

	if c.loading || c.failed {
		t.Fatalf("loading = %v, failed = %v after success", c.loading, c.failed)
	}
	if want := "Comparing stock prices for: AAPL, TSLA"; c.status != want {
		t.Errorf("status = %q, want %q", c.status, want)
	}
	if len(c.dates) != 3 || len(c.values) != 2 {
		t.Fatalf("dates = %d, values = %d, want 3 and 2", len(c.dates), len(c.values))
	}
	if c.cursor != 2 {
		t.Errorf("cursor = %d, want the last date", c.cursor)
	}

	view := ansi.Strip(c.View())
	for _, want := range []string{"Stock Price Comparison (Past 30 Days)", "Price (USD)", "2024-05-01", "AAPL $183.38", "TSLA $181.19"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestCompareReplacesChart(t *testing.T) {
	c := newCompare()

	c.Update(c.fetchHistory([]string{"AAPL", "TSLA"})())
	c.Update(c.fetchHistory([]string{"AAPL", "KO"})())

	if strings.Join(c.names, ",") != "AAPL,KO" {
		t.Errorf("names = %v, want [AAPL KO]", c.names)
	}
	// KO has no close on day 2, carried forward
	if c.values[1][1] != 61 {
		t.Errorf("KO day 2 = %v, want 61", c.values[1][1])
	}
}

func TestCompareFetchError(t *testing.T) {
	c := newCompare()

	c.Update(c.fetchHistory([]string{"AAPL", "NOPE"})())

	if !c.failed {
		t.Error("failed = false")
	}
	if want := "Error: Could not retrieve data for symbol 'NOPE'."; c.status != want {
		t.Errorf("status = %q, want %q", c.status, want)
	}
}

func TestCompareCursor(t *testing.T) {
	c := newCompare()

	// no data, nothing moves
	c.Update(keyRunes("h"))
	if c.cursor != -1 {
		t.Errorf("cursor = %d before any data", c.cursor)
	}

	c.Update(c.fetchHistory([]string{"AAPL", "TSLA"})())

	c.Update(keyRunes("l"))
	if c.cursor != 2 {
		t.Errorf("cursor = %d, want 2 (clamped)", c.cursor)
	}
	for i := 0; i < 5; i++ {
		c.Update(tea.KeyMsg{Type: tea.KeyLeft})
	}
	if c.cursor != 0 {
		t.Errorf("cursor = %d, want 0 (clamped)", c.cursor)
	}
	if !strings.Contains(ansi.Strip(c.cursorText()), "2024-05-01") {
		t.Errorf("cursorText = %q", c.cursorText())
	}
}

func TestCompareFullscreen(t *testing.T) {
	c := newCompare()
	c.Update(c.fetchHistory([]string{"AAPL", "TSLA"})())

	c.Update(keyRunes("f"))
	if !c.fullscreen {
		t.Fatal("f did not enter full screen")
	}
	if strings.Contains(ansi.Strip(c.View()), "Compare Multiple Stocks") {
		t.Error("symbol list shown in full screen")
	}

	// list keys are ignored while full screen
	c.Update(space)
	if len(c.symbols.Selected()) != 0 {
		t.Error("space toggled a symbol in full screen")
	}

	c.Update(esc)
	if c.fullscreen {
		t.Error("esc did not leave full screen")
	}
}

func TestCompareExport(t *testing.T) {
	c := newCompare()

	_, cmd := c.Update(keyRunes("s"))
	if msg, ok := cmd().(shared.SendNotificationMsg); !ok || msg.Message != "Nothing to export yet" {
		t.Errorf("export without data = %#v", cmd())
	}

	dir := t.TempDir()
	if err := shared.Koanf.Set("chart.exportDir", dir); err != nil {
		t.Fatal(err)
	}
	defer shared.LoadDefaultConfig()

	c.Update(c.fetchHistory([]string{"AAPL", "TSLA"})())
	_, cmd = c.Update(keyRunes("s"))

	msg, ok := cmd().(shared.SendNotificationMsg)
	if !ok {
		t.Fatalf("export produced %T", cmd())
	}
	if !strings.HasPrefix(msg.Message, "Saved chart to ") {
		t.Fatalf("notification = %q", msg.Message)
	}
	path := strings.TrimPrefix(msg.Message, "Saved chart to ")
	if !strings.HasSuffix(path, "comparison-AAPL-TSLA-2024-05-04.png") {
		t.Errorf("path = %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("exported file: %v", err)
	}
}
