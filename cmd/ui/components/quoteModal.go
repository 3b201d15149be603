package components

import (
	"fmt"
	"strings"

	"stocktracker/internal/shared"
	"stocktracker/internal/stocks"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Pop-up showing everything the provider returned for a quote.
type QuoteModal struct {
	Quote   stocks.Quote
	Session *shared.Session
	// width
	W int
	H int
	// viewport model
	vp viewport.Model
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// QuoteMarkdown lists the non-zero fields of q as a markdown document.
func QuoteMarkdown(q stocks.Quote) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n", q.Symbol)
	if q.Name != "" || q.Exchange != "" {
		parts := []string{}
		for _, p := range []string{q.Name, q.Exchange} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		fmt.Fprintf(&b, "## %s\n", strings.Join(parts, " · "))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "- **Price:** %s", money(q.Price))
	if q.Currency != "" {
		fmt.Fprintf(&b, " %s", q.Currency)
	}
	b.WriteString("\n")

	if q.Change != 0 || q.ChangePercent != 0 {
		fmt.Fprintf(&b, "- **Change:** %+.2f (%+.2f%%)\n", q.Change, q.ChangePercent)
	}
	if q.PreviousClose != 0 {
		fmt.Fprintf(&b, "- **Previous close:** %s\n", money(q.PreviousClose))
	}
	if q.DayLow != 0 || q.DayHigh != 0 {
		fmt.Fprintf(&b, "- **Day range:** %s - %s\n", money(q.DayLow), money(q.DayHigh))
	}
	if q.FiftyTwoWeekLow != 0 || q.FiftyTwoWeekHigh != 0 {
		fmt.Fprintf(&b, "- **52 week range:** %s - %s\n", money(q.FiftyTwoWeekLow), money(q.FiftyTwoWeekHigh))
	}
	if q.FiftyDayAverage != 0 {
		fmt.Fprintf(&b, "- **50 day average:** %s\n", money(q.FiftyDayAverage))
	}
	if q.Volume != 0 {
		fmt.Fprintf(&b, "- **Volume:** %d\n", q.Volume)
	}

	return b.String()
}

func (n *QuoteModal) render() string {
	styler, err := glamour.NewTermRenderer(
		glamour.WithStyles(shared.CreateMarkdownUserConfig()),
		glamour.WithWordWrap(n.W-5),
	)
	if err != nil {
		n.Session.Log.Errorf("Cannot create glamour renderer %s", err)
		return QuoteMarkdown(n.Quote)
	}

	md, err := styler.Render(QuoteMarkdown(n.Quote))
	if err != nil {
		n.Session.Log.Errorf("Cannot render markdown content %s", err)
		return QuoteMarkdown(n.Quote)
	}
	return md
}

func (n *QuoteModal) Init() tea.Cmd {
	if n.Session == nil {
		n.Session = shared.LocalSession()
	}
	n.vp = viewport.New(n.W, n.H)
	n.vp.Style = n.Session.Renderer.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(shared.AccentColor())
	n.vp.SetContent(n.render())
	return nil
}

func (n *QuoteModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		n.W = msg.Width / 2
		n.H = int(float64(msg.Height) * .6)
		n.vp.Width = n.W
		n.vp.Height = n.H
		n.vp.SetContent(n.render())
	case tea.KeyMsg:
		if msg.String() == "esc" {
			return n, func() tea.Msg { return shared.ModalCloseMsg(true) }
		}
	}
	n.vp, cmd = n.vp.Update(msg)
	return n, cmd
}

func (n *QuoteModal) View() string {
	return n.vp.View()
}

func (n *QuoteModal) GetKeys() []key.Binding {
	return []key.Binding{
		n.vp.KeyMap.Up,
		n.vp.KeyMap.Down,
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("<esc>", "Close")),
	}
}
