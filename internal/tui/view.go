package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	chatBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	aiStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	searchStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	debugStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	activeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// View renders either the chat pane or the session list.
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.mode == modeSessions {
		return a.viewSessions()
	}

	settings := a.engine.Settings()
	toggles := fmt.Sprintf("model: %s | web search: %s | debug: %s",
		orUnset(settings.Model), onOff(settings.WebSearch), onOff(settings.SearchDebug))

	header := headerStyle.Render("OllamaFace — "+a.current.Title) + "  " + searchStyle.Render(toggles)
	body := chatBoxStyle.Render(a.viewport.View())
	input := a.input.View()

	status := statusStyle.Render(a.status)
	if a.busy {
		status = a.spinner.View() + " " + status
	}

	return header + "\n" + body + "\n" + input + "\n" + status
}

func (a *App) viewSessions() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Sessions") + "\n\n")
	if len(a.list) == 0 {
		b.WriteString("No saved sessions.\n")
	}
	for i, sess := range a.list {
		line := fmt.Sprintf("%s (%s) - %s", sess.Title, orUnset(sess.Model), firstField(sess.UpdatedAt))
		if sess.ID == a.current.ID {
			line = "➤ " + line
		} else {
			line = "  " + line
		}
		if i == a.cursor {
			line = activeStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + searchStyle.Render("enter: open  d: delete  e: export  esc: back"))
	return b.String()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func orUnset(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// firstField returns the date part of an "updated_at" timestamp.
func firstField(s string) string {
	if i := strings.IndexByte(s, ' '); i > 0 {
		return s[:i]
	}
	return s
}
