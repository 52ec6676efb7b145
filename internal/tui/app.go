// Package tui is the terminal chat front-end. All background work
// (turns, model refresh, health checks, index rebuilds) returns typed
// messages consumed by the single Update loop, which is the only writer
// of session and display state.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ollamaface/cli/internal/chat"
	"github.com/ollamaface/cli/internal/kb"
	"github.com/ollamaface/cli/internal/session"
)

// mode selects which pane has focus.
type mode int

const (
	modeChat mode = iota
	modeSessions
)

// App is the Bubble Tea model for the chat front-end.
type App struct {
	engine   *chat.Engine
	sessions *session.Store
	store    *kb.Store

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	mode       mode
	current    *session.Session
	list       []*session.Session
	cursor     int
	models     []string
	modelIdx   int
	transcript []string
	status     string
	busy       bool
	ready      bool
	width      int
	height     int
}

// NewApp creates the TUI over an engine and its stores, starting a
// fresh session.
func NewApp(engine *chat.Engine, sessions *session.Store, store *kb.Store) (*App, error) {
	settings := engine.Settings()
	current, err := sessions.Create(settings.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &App{
		engine:   engine,
		sessions: sessions,
		store:    store,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		current:  current,
		status:   "Checking Ollama server...",
	}, nil
}

// Run starts the program.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen()).Run()
	return err
}

// Init starts the cursor blink and the initial background checks.
func (a *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.spinner.Tick, a.checkHealth(), a.refreshModels())
}

// Background results delivered to Update.
type (
	healthMsg  struct{ err error }
	modelsMsg  struct{ names []string }
	errMsg     struct{ err error }
	turnMsg    struct{ result *chat.TurnResult }
	turnErrMsg struct{ err error }
)

func (a *App) checkHealth() tea.Cmd {
	engine := a.engine
	return func() tea.Msg {
		return healthMsg{err: engine.Health(context.Background())}
	}
}

func (a *App) refreshModels() tea.Cmd {
	engine := a.engine
	return func() tea.Msg {
		names, err := engine.RefreshModels(context.Background())
		if err != nil {
			return errMsg{err: err}
		}
		return modelsMsg{names: names}
	}
}

func (a *App) runTurn(message string) tea.Cmd {
	engine, sess := a.engine, a.current
	return func() tea.Msg {
		result, err := engine.Turn(context.Background(), sess, message)
		if err != nil {
			return turnErrMsg{err: err}
		}
		return turnMsg{result: result}
	}
}

// Update applies events to the model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.ready = true
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case healthMsg:
		if msg.err != nil {
			a.status = "Cannot connect to Ollama server. Is it running?"
		} else {
			a.status = "Connected to Ollama server"
		}
		return a, nil

	case modelsMsg:
		a.models = msg.names
		settings := a.engine.Settings()
		if settings.Model == "" && len(a.models) > 0 {
			settings.Model = a.models[0]
			a.engine.UpdateSettings(settings)
		}
		for i, name := range a.models {
			if name == settings.Model {
				a.modelIdx = i
			}
		}
		return a, nil

	case errMsg:
		a.status = "Error: " + msg.err.Error()
		return a, nil

	case turnMsg:
		a.busy = false
		a.appendTurn(msg.result)
		a.status = "Ready"
		return a, nil

	case turnErrMsg:
		a.busy = false
		a.status = "Error: " + msg.err.Error()
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return a, tea.Quit
	}

	if a.mode == modeSessions {
		return a.handleSessionsKey(msg)
	}

	switch msg.String() {
	case "enter":
		message := strings.TrimSpace(a.input.Value())
		if message == "" || a.busy {
			return a, nil
		}
		a.busy = true
		a.input.SetValue("")
		a.transcript = append(a.transcript, userStyle.Render("You: "+message), "")
		a.syncViewport()
		a.status = "Thinking..."
		return a, tea.Batch(a.runTurn(message), a.spinner.Tick)

	case "ctrl+n":
		settings := a.engine.Settings()
		sess, err := a.sessions.Create(settings.Model)
		if err != nil {
			a.status = "Error: " + err.Error()
			return a, nil
		}
		a.current = sess
		a.rebuildTranscript()
		a.status = "New session started"
		return a, nil

	case "ctrl+s":
		list, err := a.sessions.List()
		if err != nil {
			a.status = "Error: " + err.Error()
			return a, nil
		}
		a.list = list
		a.cursor = 0
		a.mode = modeSessions
		return a, nil

	case "ctrl+r":
		a.status = "Refreshing models..."
		return a, a.refreshModels()

	case "ctrl+p":
		if len(a.models) > 0 {
			a.modelIdx = (a.modelIdx + 1) % len(a.models)
			settings := a.engine.Settings()
			settings.Model = a.models[a.modelIdx]
			a.engine.UpdateSettings(settings)
		}
		return a, nil

	case "ctrl+w":
		settings := a.engine.Settings()
		settings.WebSearch = !settings.WebSearch
		a.engine.UpdateSettings(settings)
		return a, nil

	case "ctrl+g":
		settings := a.engine.Settings()
		settings.SearchDebug = !settings.SearchDebug
		a.engine.UpdateSettings(settings)
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleSessionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+s":
		a.mode = modeChat
		return a, nil

	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil

	case "down", "j":
		if a.cursor < len(a.list)-1 {
			a.cursor++
		}
		return a, nil

	case "enter":
		if a.cursor < len(a.list) {
			a.current = a.list[a.cursor]
			a.rebuildTranscript()
			a.mode = modeChat
			a.status = "Opened " + a.current.Title
		}
		return a, nil

	case "d":
		if a.cursor >= len(a.list) {
			return a, nil
		}
		target := a.list[a.cursor]
		if err := a.sessions.Delete(target.ID); err != nil {
			a.status = "Error: " + err.Error()
			return a, nil
		}
		if target.ID == a.current.ID {
			// Deleting the active session starts a fresh one.
			sess, err := a.sessions.Create(a.engine.Settings().Model)
			if err != nil {
				a.status = "Error: " + err.Error()
				return a, nil
			}
			a.current = sess
			a.rebuildTranscript()
		}
		list, err := a.sessions.List()
		if err == nil {
			a.list = list
		}
		if a.cursor >= len(a.list) && a.cursor > 0 {
			a.cursor--
		}
		a.status = "Session deleted"
		return a, nil

	case "e":
		if a.cursor < len(a.list) {
			target := a.list[a.cursor]
			dest := target.ID + ".txt"
			if err := a.sessions.Export(target.ID, dest); err != nil {
				a.status = "Error: " + err.Error()
			} else {
				a.status = "Exported to " + dest
			}
		}
		return a, nil
	}
	return a, nil
}

// appendTurn renders one completed turn into the transcript.
func (a *App) appendTurn(result *chat.TurnResult) {
	settings := a.engine.Settings()
	if result.Search != nil && len(result.Search.Hits) > 0 {
		a.transcript = append(a.transcript,
			searchStyle.Render(fmt.Sprintf("🔍 Web search: %d results via %s", len(result.Search.Hits), result.Search.Engine)), "")
	}
	if result.SearchError != "" {
		a.transcript = append(a.transcript, errorStyle.Render("Web search failed: "+result.SearchError), "")
	}
	if settings.SearchDebug && result.Search != nil {
		a.transcript = append(a.transcript, debugStyle.Render("Search Debug Information:\n"+result.Search.Trace), "")
	}
	a.transcript = append(a.transcript, aiStyle.Render("AI: "+result.Answer), "")
	a.syncViewport()
}

// rebuildTranscript re-renders the transcript from the current session.
func (a *App) rebuildTranscript() {
	a.transcript = nil
	for _, msg := range a.current.Messages {
		switch msg.Role {
		case session.RoleUser:
			a.transcript = append(a.transcript, userStyle.Render("You: "+msg.Content), "")
		case session.RoleAssistant:
			a.transcript = append(a.transcript, aiStyle.Render("AI: "+msg.Content), "")
		}
	}
	a.syncViewport()
}

func (a *App) syncViewport() {
	a.viewport.SetContent(strings.Join(a.transcript, "\n"))
	a.viewport.GotoBottom()
}

func (a *App) resize() {
	_, frameH := chatBoxStyle.GetFrameSize()
	reserved := 4 + frameH // header, status, input, spacer
	h := a.height - reserved
	if h < 3 {
		h = 3
	}
	a.viewport.Width = a.width - 4
	a.viewport.Height = h
	a.input.Width = a.width - 6
	a.syncViewport()
}
