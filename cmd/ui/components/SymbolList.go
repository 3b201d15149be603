package components

import (
	"fmt"
	"io"

	"stocktracker/internal/shared"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type SymbolItem string

func (s SymbolItem) FilterValue() string {
	return string(s)
}

// Draws one symbol per line, with a checkbox in multi-select mode.
type symbolDelegate struct {
	multi    bool
	selected map[string]bool
	renderer *lipgloss.Renderer
}

func (d symbolDelegate) Height() int                             { return 1 }
func (d symbolDelegate) Spacing() int                            { return 0 }
func (d symbolDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d symbolDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	symbol, ok := item.(SymbolItem)
	if !ok {
		return
	}

	cursor := "  "
	style := d.renderer.NewStyle()
	if index == m.Index() {
		cursor = "› "
		style = style.Bold(true).Foreground(shared.AccentColor())
	}

	var box string
	if d.multi {
		if d.selected[string(symbol)] {
			box = "[✓] "
		} else {
			box = "[ ] "
		}
	}

	fmt.Fprint(w, style.Render(cursor+box+string(symbol)))
}

// A list of ticker symbols, either single-select (the highlighted row) or multi-select.
type SymbolList struct {
	List  list.Model
	Multi bool
	// checked symbols in multi-select mode
	selected map[string]bool
}

func NewSymbolList(title string, symbols []string, multi bool, r *lipgloss.Renderer) *SymbolList {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}

	items := make([]list.Item, len(symbols))
	for i, symbol := range symbols {
		items[i] = SymbolItem(symbol)
	}

	s := &SymbolList{Multi: multi, selected: make(map[string]bool)}

	s.List = list.New(items, symbolDelegate{multi: multi, selected: s.selected, renderer: r}, 20, 10)
	s.List.Title = title
	s.List.Styles.Title = r.NewStyle().Bold(true).Foreground(shared.AccentColor())
	s.List.SetShowHelp(false)
	s.List.SetShowStatusBar(false)
	s.List.SetFilteringEnabled(false)
	s.List.DisableQuitKeybindings()

	return s
}

// The highlighted symbol.
func (s *SymbolList) Current() string {
	if item, ok := s.List.SelectedItem().(SymbolItem); ok {
		return string(item)
	}
	return ""
}

// Checks or unchecks the highlighted symbol.
func (s *SymbolList) Toggle() {
	current := s.Current()
	if current == "" {
		return
	}
	if s.selected[current] {
		delete(s.selected, current)
	} else {
		s.selected[current] = true
	}
}

// Checked symbols in list order. In single-select mode, the highlighted symbol.
func (s *SymbolList) Selected() []string {
	if !s.Multi {
		if current := s.Current(); current != "" {
			return []string{current}
		}
		return nil
	}

	var out []string
	for _, item := range s.List.Items() {
		if symbol := string(item.(SymbolItem)); s.selected[symbol] {
			out = append(out, symbol)
		}
	}
	return out
}

func (s *SymbolList) Clear() {
	for k := range s.selected {
		delete(s.selected, k)
	}
}

func (s *SymbolList) SetSize(width, height int) {
	s.List.SetSize(width, height)
}

func (s *SymbolList) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.List, cmd = s.List.Update(msg)
	return cmd
}

func (s *SymbolList) View() string {
	return s.List.View()
}

func (s *SymbolList) GetKeys() []key.Binding {
	keys := s.List.KeyMap
	return []key.Binding{keys.CursorUp, keys.CursorDown}
}
