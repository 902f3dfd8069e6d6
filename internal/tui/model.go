// Package tui implements the interactive chat interface.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ChatPort is the TUI-facing subset of the query orchestrator.
type ChatPort interface {
	Query(ctx context.Context, query, sessionID string) (string, []string, error)
}

// SessionPort creates and clears chat sessions.
type SessionPort interface {
	Create() string
	Clear(id string)
}

type turn struct {
	query   string
	answer  string
	sources []string
	failed  bool
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	chat      ChatPort
	sessions  SessionPort
	sessionID string
	input     textinput.Model
	viewport  viewport.Model
	turns     []turn
	status    string
	busy      bool
	ready     bool
}

// New creates a new chat model instance.
func New(chat ChatPort, sessions SessionPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your courses and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		chat:      chat,
		sessions:  sessions,
		sessionID: sessions.Create(),
		input:     ti,
		viewport:  vp,
		status:    "Ready. Ctrl+N starts a new conversation.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

type answerMsg struct {
	query   string
	answer  string
	sources []string
	err     error
}

func (m Model) ask(query string) tea.Cmd {
	chat, sessionID := m.chat, m.sessionID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()
		answer, sources, err := chat.Query(ctx, query, sessionID)
		return answerMsg{query: query, answer: answer, sources: sources, err: err}
	}
}

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, query box, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-th)
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil
	case answerMsg:
		m.busy = false
		t := turn{query: msg.query, answer: msg.answer, sources: msg.sources}
		if msg.err != nil {
			t.answer = "Error: " + msg.err.Error()
			t.failed = true
			m.status = "Request failed."
		} else {
			m.status = "Ready."
		}
		m.turns = append(m.turns, t)
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.busy {
				m.input.SetValue("")
				m.busy = true
				m.status = "Thinking..."
				return m, m.ask(q)
			}
		case "ctrl+n":
			m.sessions.Clear(m.sessionID)
			m.sessionID = m.sessions.Create()
			m.turns = nil
			m.status = "New conversation started."
			m.viewport.SetContent(m.renderTranscript())
			return m, nil
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Course Chat")
	transcript := transcriptStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.turns) == 0 {
		return "No messages yet. Ask about your course materials."
	}
	blocks := make([]string, 0, len(m.turns))
	for _, t := range m.turns {
		b := userStyle.Render("You: ") + t.query + "\n"
		if t.failed {
			b += errorStyle.Render(t.answer)
		} else {
			b += t.answer
		}
		if len(t.sources) > 0 {
			b += "\n" + sourceStyle.Render("Sources: "+strings.Join(t.sources, ", "))
		}
		blocks = append(blocks, b)
	}
	return strings.Join(blocks, "\n\n")
}

var (
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	sourceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
