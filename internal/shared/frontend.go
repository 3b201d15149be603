// Place globals variables here.
package shared

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/charmbracelet/glamour/ansi"
)

// Message Events
type ModalCloseMsg bool

// Asks the main model to show Model on top of the current tab.
type DisplayOverlayMsg struct {
	Model MappedModel
}

// Opens the prompt at the bottom of the screen, Callback receives the submitted text.
type OpenPromptMsg struct {
	Prompt   string
	Callback func(string) tea.Msg
}

// Shows Message in place of the help line for DisplayTime.
type SendNotificationMsg struct {
	Message     string
	DisplayTime time.Duration
}

type HideNotificationMsg struct{}

// Basically a tea.Model with a method to get the current keybindings.
type MappedModel interface {
	tea.Model
	GetKeys() []key.Binding
}

// Session is what differs between SSH connections: the terminal renderer and
// the per-user log. Models keep the session they were built with.
type Session struct {
	Renderer *lipgloss.Renderer
	Log      *log.Logger
}

// LocalSession renders to stdout and logs through the default logger.
func LocalSession() *Session {
	return &Session{Renderer: lipgloss.DefaultRenderer(), Log: log.Default()}
}

// Notify returns a command showing msg for the default notification time.
func Notify(msg string) tea.Cmd {
	return func() tea.Msg {
		return SendNotificationMsg{Message: msg, DisplayTime: 3 * time.Second}
	}
}

// Accent, success and error colours from the theme.
func AccentColor() lipgloss.Color { return lipgloss.Color(Koanf.String("theme.accentColor")) }
func UpColor() lipgloss.Color     { return lipgloss.Color(Koanf.String("theme.upColor")) }
func DownColor() lipgloss.Color   { return lipgloss.Color(Koanf.String("theme.downColor")) }

/*
NOTE: HELPER FUNCTIONS FOR GLAMOUR THEMES
*/
func boolPtr(b bool) *bool       { return &b }
func stringPtr(s string) *string { return &s }
func uintPtr(u uint) *uint       { return &u }

const defaultMargin = 2

// Returns an ansi.StyleConfig object to be used with Glamour renderers, customized to the users config.
func CreateMarkdownUserConfig() ansi.StyleConfig {
	accent := Koanf.String("theme.accentColor")

	return ansi.StyleConfig{
		Document: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				BlockPrefix: "\n",
				BlockSuffix: "\n",
				Color:       stringPtr("#f8f8f2"),
			},
			Margin: uintPtr(defaultMargin),
		},
		Heading: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				BlockSuffix: "\n",
				Color:       stringPtr(accent),
				Bold:        boolPtr(true),
			},
		},
		H1: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				BackgroundColor: stringPtr(accent),
				Color:           stringPtr("#F8F8F2"),
				Bold:            boolPtr(true),
			},
		},
		H2: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Prefix: "## ",
			},
		},
		List: ansi.StyleList{
			LevelIndent: defaultMargin,
			StyleBlock: ansi.StyleBlock{
				StylePrimitive: ansi.StylePrimitive{
					Color: stringPtr("#f8f8f2"),
				},
			},
		},
		Item: ansi.StylePrimitive{
			BlockPrefix: "• ",
		},
		Emph: ansi.StylePrimitive{
			Color:  stringPtr(accent),
			Italic: boolPtr(true),
		},
		Strong: ansi.StylePrimitive{
			Bold:  boolPtr(true),
			Color: stringPtr("#ffb86c"),
		},
		HorizontalRule: ansi.StylePrimitive{
			Color:  stringPtr("#6272A4"),
			Format: "\n--------\n",
		},
		Table: ansi.StyleTable{
			StyleBlock: ansi.StyleBlock{
				StylePrimitive: ansi.StylePrimitive{},
			},
		},
	}
}
