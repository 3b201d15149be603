package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stocktracker/cmd/ui/components"
	"stocktracker/internal/news"
	"stocktracker/internal/shared"
	"stocktracker/internal/stocks"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"
)

// Result of a single symbol lookup.
type QuoteResultMsg struct {
	Symbol string
	Quote  stocks.Quote
	Err    error
}

type HeadlinesMsg struct {
	Symbol   string
	Articles []news.Article
	Err      error
}

// Symbol typed into the prompt.
type LookupSymbolMsg string

// Single symbol price lookup.
type Lookup struct {
	Backend   stocks.Backend
	Headlines *news.Fetcher
	Session   *shared.Session

	width  int
	height int

	symbols *components.SymbolList
	spinner spinner.Model
	news    table.Model

	// symbol currently being fetched
	pending string
	loading bool
	// status line under the list
	result string
	failed bool
	// last successful quote, shown by the details modal
	quote *stocks.Quote
}

func priceText(symbol string, price float64) string {
	return fmt.Sprintf("The latest stock price of %s is: $%.2f", symbol, price)
}

func lookupErrorText(symbol string) string {
	return fmt.Sprintf("Error: Could not retrieve data for symbol '%s'.", symbol)
}

func (l *Lookup) Init() tea.Cmd {
	if l.Session == nil {
		l.Session = shared.LocalSession()
	}
	l.symbols = components.NewSymbolList("Get Single Stock Price", shared.Koanf.Strings("symbols"), false, l.Session.Renderer)
	l.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))
	l.news = table.New(
		table.WithColumns(newsColumns(60)),
		table.WithFocused(false),
		table.WithHeight(shared.Koanf.Int("news.limit")+1),
	)
	return nil
}

func newsColumns(width int) []table.Column {
	return []table.Column{
		{Title: "Headline", Width: int(float64(width) * .8)},
		{Title: "Date", Width: int(float64(width) * .2)},
	}
}

func (l *Lookup) fetchQuote(symbol string) tea.Cmd {
	backend := l.Backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), shared.NetworkTimeout())
		defer cancel()

		q, err := backend.Quote(ctx, symbol)
		return QuoteResultMsg{Symbol: symbol, Quote: q, Err: err}
	}
}

func (l *Lookup) fetchHeadlines(symbol string) tea.Cmd {
	if l.Headlines == nil {
		return nil
	}
	fetcher := l.Headlines
	limit := shared.Koanf.Int("news.limit")
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), shared.NetworkTimeout())
		defer cancel()

		articles, err := fetcher.Headlines(ctx, symbol, limit)
		return HeadlinesMsg{Symbol: symbol, Articles: articles, Err: err}
	}
}

// Starts a lookup unless one is already running.
func (l *Lookup) lookup(symbol string) tea.Cmd {
	if l.loading || symbol == "" {
		return nil
	}
	l.Session.Log.Info("Looking up price", "symbol", symbol)
	l.loading = true
	l.pending = symbol
	return tea.Batch(l.spinner.Tick, l.fetchQuote(symbol))
}

func (l *Lookup) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		l.width = msg.Width
		l.height = msg.Height - 2

		l.symbols.SetSize(30, l.height)
		newsWidth := l.width - 36
		if newsWidth < 20 {
			newsWidth = 20
		}
		l.news.SetColumns(newsColumns(newsWidth))
		l.news.SetWidth(newsWidth)

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return l, l.lookup(l.symbols.Current())
		case "/":
			return l, func() tea.Msg {
				return shared.OpenPromptMsg{
					Prompt: "Lookup symbol: $",
					Callback: func(value string) tea.Msg {
						return LookupSymbolMsg(strings.ToUpper(strings.TrimSpace(value)))
					},
				}
			}
		case "d":
			if l.quote != nil {
				modal := &components.QuoteModal{
					Quote:   *l.quote,
					Session: l.Session,
					W:       l.width / 2,
					H:       int(float64(l.height) * .6),
				}
				return l, func() tea.Msg { return shared.DisplayOverlayMsg{Model: modal} }
			}
			return l, nil
		}
		cmd = l.symbols.Update(msg)

	case LookupSymbolMsg:
		return l, l.lookup(string(msg))

	case QuoteResultMsg:
		if msg.Symbol != l.pending {
			return l, nil
		}
		l.loading = false
		if msg.Err != nil {
			l.Session.Log.Error("Lookup failed", "symbol", msg.Symbol, "error", msg.Err)
			l.failed = true
			l.result = lookupErrorText(msg.Symbol)
			l.quote = nil
			l.news.SetRows(nil)
			return l, nil
		}

		l.failed = false
		l.result = priceText(msg.Symbol, msg.Quote.Price)
		q := msg.Quote
		l.quote = &q
		// headlines of the previous symbol
		l.news.SetRows(nil)
		return l, l.fetchHeadlines(msg.Symbol)

	case HeadlinesMsg:
		// drop headlines for a symbol that is no longer shown
		if l.quote == nil || msg.Symbol != l.pending {
			return l, nil
		}
		if msg.Err != nil {
			l.Session.Log.Warn("Could not load headlines", "symbol", msg.Symbol, "error", msg.Err)
			return l, nil
		}

		now := time.Now()
		rows := make([]table.Row, 0, len(msg.Articles))
		for _, article := range msg.Articles {
			rows = append(rows, table.Row{article.Title, news.FormatDate(article.PublicationDate, now)})
		}
		l.news.SetRows(rows)

	case spinner.TickMsg:
		if l.loading {
			l.spinner, cmd = l.spinner.Update(msg)
		}
	}

	return l, cmd
}

func (l *Lookup) View() string {
	var status string
	switch {
	case l.loading:
		status = fmt.Sprintf("%s Fetching %s...", l.spinner.View(), l.pending)
	case l.result != "":
		color := shared.UpColor()
		if l.failed {
			color = shared.DownColor()
		}
		status = l.Session.Renderer.NewStyle().Bold(true).Foreground(color).Render(l.result)
	default:
		status = "Pick a symbol and press enter."
	}

	right := []string{
		l.Session.Renderer.NewStyle().Padding(1, 0).Render(status),
	}
	if len(l.news.Rows()) > 0 {
		border := l.Session.Renderer.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(shared.AccentColor())
		right = append(right, "Headlines", border.Render(l.news.View()))
	}

	left := l.Session.Renderer.NewStyle().Width(32).Render(l.symbols.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, lipgloss.JoinVertical(lipgloss.Left, right...))
}

type LookupKeyMap struct {
	Select  key.Binding
	Type    key.Binding
	Details key.Binding
}

func (l *Lookup) GetKeys() []key.Binding {
	keymap := LookupKeyMap{
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("<enter>", "Get price"),
		),
		Type: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Type symbol"),
		),
		Details: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Details"),
		),
	}

	keys := append(l.symbols.GetKeys(), keymap.Select, keymap.Type)
	if l.quote != nil {
		keys = append(keys, keymap.Details)
	}
	return keys
}
