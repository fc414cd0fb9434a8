package view

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nmoreau/penny/internal/agent"
)

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle      = lipgloss.NewStyle().Faint(true)
)

type ChatModel struct {
	client *Client

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	history []agent.Message
	lines   []string
	waiting bool
	ready   bool
}

func NewChatModel(client *Client) ChatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask about your finances..."
	ti.CharLimit = 500
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return ChatModel{
		client:  client,
		input:   ti,
		spinner: sp,
		lines:   []string{helpStyle.Render("Penny is ready. Type a message and press enter.")},
	}
}

func (m ChatModel) Init() tea.Cmd {
	return textinput.Blink
}

type replyMsg struct {
	text string
	err  error
}

func (m ChatModel) sendCmd(message string, history []agent.Message) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()

		text, err := m.client.Send(ctx, message, history)

		return replyMsg{text: text, err: err}
	}
}

func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width-2, msg.Height-5)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 2
			m.viewport.Height = msg.Height - 5
		}

		m.input.Width = msg.Width - 6
		m.refresh()

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if m.waiting {
				return m, nil
			}

			message := strings.TrimSpace(m.input.Value())
			if message == "" {
				return m, nil
			}

			history := m.history
			m.lines = append(m.lines, userStyle.Render("You: ")+message)
			m.history = append(m.history, agent.Message{Role: "user", Content: message})
			m.input.Reset()
			m.waiting = true
			m.refresh()

			return m, tea.Batch(m.spinner.Tick, m.sendCmd(message, history))
		}

	case replyMsg:
		m.waiting = false

		if msg.err != nil {
			m.lines = append(m.lines, errStyle.Render(fmt.Sprintf("Error: %v", msg.err)))
		} else {
			m.lines = append(m.lines, assistantStyle.Render("Penny: ")+msg.text)
			m.history = append(m.history, agent.Message{Role: "assistant", Content: msg.text})
		}

		m.refresh()

		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	var (
		inputCmd tea.Cmd
		vpCmd    tea.Cmd
	)

	m.input, inputCmd = m.input.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, tea.Batch(inputCmd, vpCmd)
}

func (m *ChatModel) refresh() {
	if !m.ready {
		return
	}

	m.viewport.SetContent(strings.Join(m.lines, "\n\n"))
	m.viewport.GotoBottom()
}

func (m ChatModel) View() string {
	if !m.ready {
		return "Starting..."
	}

	prompt := m.input.View()
	if m.waiting {
		prompt = m.spinner.View() + " thinking..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		"",
		prompt,
		helpStyle.Render("enter: send | esc: quit"),
	)
}
