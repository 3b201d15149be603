package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"stocktracker/cmd/ui/views"
	"stocktracker/internal/news"
	"stocktracker/internal/shared"
	"stocktracker/internal/stocks"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/muesli/termenv"
	overlay "github.com/rmhubbert/bubbletea-overlay"
)

const appTitle = "Stock Price Tracker"

type Tab struct {
	name  string
	model shared.MappedModel
}

type Prompt struct {
	Model    textinput.Model
	Prompt   string
	Callback func(string) tea.Msg
}

// The "entry" model.
type MainModel struct {
	// pointers to all the tabs
	tabs []*Tab
	// index of active tab in the list
	activeTab int
	// model shown on top of the active tab
	overlay shared.MappedModel
	// renderer and log of the terminal this model draws to
	session *shared.Session
	// For aligning
	Width int
	// Prompt Model
	input Prompt

	// The notification text displaying
	NotificationText string
	// Whether or not a notification is showing
	ShowingNotification bool
}

type TabChangeMsg int

func (m MainModel) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.ClearScreen, tea.SetWindowTitle(appTitle)}
	for _, t := range m.tabs {
		cmds = append(cmds, t.model.Init())
	}
	return tea.Batch(cmds...)
}

func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if _, isKey := msg.(tea.KeyMsg); isKey {
		if m.overlay != nil {
			// Send keypresses only to the overlay while it is open
			_, cmd := m.overlay.Update(msg)
			cmds = append(cmds, cmd)
		} else if !m.input.Model.Focused() {
			_, cmd := m.tabs[m.activeTab].model.Update(msg)
			cmds = append(cmds, cmd)
		}
	} else {
		// results can arrive after switching tabs, so every tab sees them
		for _, t := range m.tabs {
			_, cmd := t.model.Update(msg)
			cmds = append(cmds, cmd)
		}
		if m.overlay != nil {
			_, cmd := m.overlay.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
	case tea.KeyMsg:
		if m.input.Model.Focused() {
			switch msg.String() {
			// if the user presses escape break out of the prompt
			case "esc":
				m.input.Model.Blur()
			case "enter":
				m.input.Model.Blur()
				if m.input.Callback != nil {
					callback, value := m.input.Callback, m.input.Model.Value()
					cmds = append(cmds, func() tea.Msg { return callback(value) })
				} else {
					log.Warn("Tried to run prompt callback but was nil, did you set the Callback?")
				}
			default:
				var cmd tea.Cmd
				m.input.Model, cmd = m.input.Model.Update(msg)
				cmds = append(cmds, cmd)
			}
			return m, tea.Batch(cmds...)
		}

		if m.overlay != nil {
			return m, tea.Batch(cmds...)
		}

		if keyIndex, err := strconv.Atoi(msg.String()); err == nil && keyIndex >= 1 && keyIndex <= len(m.tabs) {
			return m, func() tea.Msg { return TabChangeMsg(keyIndex - 1) }
		}

		switch msg.String() {
		case "q", "Q", "ctrl+c":
			m.session.Log.Info("Exiting on user request")
			return m, tea.Batch(tea.ClearScreen, tea.Quit)
		}

	case shared.ModalCloseMsg:
		m.session.Log.Info("Exiting overlay")
		m.overlay = nil

	case TabChangeMsg:
		m.session.Log.Infof("Switching to view tabs[%d]", int(msg))
		m.activeTab = int(msg)

	case shared.DisplayOverlayMsg:
		if m.overlay == nil {
			m.session.Log.Info("displaying overlay")
			m.overlay = msg.Model
			cmds = append(cmds, m.overlay.Init())
		}

	case shared.OpenPromptMsg:
		m.session.Log.Infof("OpenPromptMsg: %s", msg.Prompt)

		m.input.Model = textinput.New()
		m.input.Model.Prompt = ""
		promptWidth := m.Width - len(msg.Prompt) - 1

		m.input.Model.Width = promptWidth
		m.input.Model.CharLimit = 16
		m.input.Model.Focus()
		m.input.Prompt = msg.Prompt
		m.input.Callback = msg.Callback

	case shared.SendNotificationMsg:
		m.NotificationText = msg.Message
		m.ShowingNotification = true
		cmds = append(cmds, tea.Tick(msg.DisplayTime, func(t time.Time) tea.Msg {
			return shared.HideNotificationMsg{}
		}))

	case shared.HideNotificationMsg:
		m.ShowingNotification = false
	}

	return m, tea.Batch(cmds...)
}

func RenderHelp(r *lipgloss.Renderer, keys []key.Binding, width int) string {
	var b strings.Builder

	boldStyle := r.NewStyle().
		Bold(true).
		Foreground(shared.AccentColor())
	for _, binds := range keys {
		b.WriteString(fmt.Sprintf("%s - %s ", boldStyle.Render(binds.Help().Key), binds.Help().Desc))
	}

	return lipgloss.PlaceHorizontal(width, lipgloss.Center, b.String())
}

func (m MainModel) View() string {
	tab := m.tabs[m.activeTab].model

	// build tabbar
	var b strings.Builder
	b.WriteString(m.session.Renderer.NewStyle().Bold(true).Padding(0, 1).Render(appTitle))
	for i, t := range m.tabs {
		tabText := fmt.Sprintf(" (%d) %s ", i+1, t.name)
		if i == m.activeTab {
			tabText = m.session.Renderer.NewStyle().Background(shared.AccentColor()).Render(tabText)
		}
		b.WriteString(tabText)
	}

	// What text to show on the bottom
	var bottomText string
	var screen string

	if m.overlay == nil {
		screen = tab.View()
		if m.input.Model.Focused() {
			// prompt is bold and in accent color
			styledPrompt := m.session.Renderer.NewStyle().Foreground(shared.AccentColor()).Bold(true).Render(m.input.Prompt)
			bottomText = styledPrompt + m.input.Model.View()
		} else {
			bottomText = RenderHelp(m.session.Renderer, tab.GetKeys(), m.Width)
		}
	} else {
		screen = overlay.New(m.overlay, tab, overlay.Center, overlay.Center, 0, 0).View()
		bottomText = RenderHelp(m.session.Renderer, m.overlay.GetKeys(), m.Width)
	}

	if m.ShowingNotification && !m.input.Model.Focused() {
		bottomText = lipgloss.PlaceHorizontal(m.Width, lipgloss.Center, m.NotificationText)
	}
	return lipgloss.JoinVertical(lipgloss.Left, b.String(), screen, bottomText)
}

// Builds the tabs with the configured market data provider. Every tab draws
// and logs through session.
func newMainModel(session *shared.Session) (MainModel, error) {
	if session == nil {
		session = shared.LocalSession()
	}
	backend, err := stocks.NewBackend(shared.Koanf.String("provider"), os.Getenv)
	if err != nil {
		return MainModel{}, err
	}
	headlines := news.NewFetcher(shared.Koanf.String("news.feedURL"))

	return MainModel{
		tabs: []*Tab{
			{name: "Lookup", model: &views.Lookup{Backend: backend, Headlines: headlines, Session: session}},
			{name: "Compare", model: &views.Compare{Backend: backend, Session: session}},
		},
		activeTab: 0,
		session:   session,
	}, nil
}

// Function to setup the application as an SSH server.
func setupSSHServer(host string, port string, logFile *os.File) {
	logOutput := io.MultiWriter(os.Stdout, logFile)
	log.SetOutput(logOutput)

	s, err := wish.NewServer(
		wish.WithAddress(net.JoinHostPort(host, port)),
		wish.WithHostKeyPath(".ssh/id_ed25519"),
		wish.WithMiddleware(
			bubbleteaMiddleware(),
			activeterm.Middleware(),
			logging.Middleware(),
		),
	)

	if err != nil {
		log.Fatal(err)
	}

	// Done channel notifies when program is closed or killed
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	log.Info("Starting SSH Server", "Host", host, "Port", port)

	go func() {
		// Start SSH server and log if there is an error that causes the server to close
		if err = s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.Error("Could not start server", "error", err)
			done <- nil
		}
	}()

	// Code below this only runs when the server is closed.
	<-done

	log.Info("Stopping SSH Server")
	// give 30 seconds for ssh server to stop
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		log.Error("Could not stop server", "error", err)
	}
}

func main() {
	logFile, err := os.OpenFile("./debug.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatal(err)
	}

	defer logFile.Close()

	log.SetOutput(logFile)
	shared.LoadConfig()

	// SECTION: SSH Server setup
	host, hostExists := os.LookupEnv("SSH_HOST")
	port, portExists := os.LookupEnv("SSH_PORT")

	if hostExists && portExists {
		setupSSHServer(host, port, logFile)
		return
	}

	m, err := newMainModel(&shared.Session{
		Renderer: lipgloss.DefaultRenderer(),
		Log:      log.New(logFile),
	})
	if err != nil {
		log.Fatal("Could not set up market data provider", "error", err)
	}

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}

// Custom middleware for bubbletea, one program per session.
func bubbleteaMiddleware() wish.Middleware {
	teaHandler := func(s ssh.Session) *tea.Program {
		m, opts := setupSSHApplication(s)
		if m == nil {
			return nil
		}
		return tea.NewProgram(m, opts...)
	}

	return bm.MiddlewareWithProgramHandler(teaHandler, termenv.ANSI256)
}

// Setup bubbletea model to work with Wish. Each connection gets its own
// renderer and log, nothing is shared between sessions.
func setupSSHApplication(s ssh.Session) (tea.Model, []tea.ProgramOption) {
	userString := fmt.Sprintf("%s.%s", s.User(), strings.Split(s.RemoteAddr().String(), ":")[0])
	log.Infof("Connection from %s", userString)

	session := &shared.Session{
		// use instead of lipgloss.NewStyle()
		Renderer: bm.MakeRenderer(s),
		Log:      log.Default(),
	}

	logTimeStamp := time.Now().Format("01.02.2006 15:04 MST")

	// Make the logs directory if it doesn't exist yet.
	if err := os.MkdirAll("./logs", 0755); err != nil {
		log.Error("Cannot create logs directory", "error", err)
	}

	f, err := os.OpenFile(
		fmt.Sprintf("./logs/%s %s.log",
			userString,
			logTimeStamp,
		),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)

	if err != nil {
		log.Error("Cannot create log file", "error", err)
	} else {
		userLog := log.New(f)
		userLog.SetTimeFormat("2006/01/02 15:04:05")
		userLog.Info("User log created")
		session.Log = userLog

		go func() {
			<-s.Context().Done()
			userLog.Info("Connection closed, ending file.")
			if err := f.Close(); err != nil {
				log.Error("Error closing log file", "error", err)
			}
		}()
	}

	m, err := newMainModel(session)
	if err != nil {
		log.Error("Could not set up market data provider", "error", err)
		wish.Fatalln(s, "market data provider is not configured")
		return nil, nil
	}

	return m, []tea.ProgramOption{tea.WithAltScreen(), tea.WithInput(s), tea.WithOutput(s)}
}
