// Package tui provides an interactive chat surface for asking questions
// about the member corpus.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/caravel-labs/rosterqa/internal/core/domain"
	"github.com/caravel-labs/rosterqa/internal/core/ports/driving"
)

// entry is one question/answer pair in the transcript.
type entry struct {
	question string
	answer   domain.Answer
	err      error
}

// answeredMsg carries a completed question back into the update loop.
type answeredMsg struct {
	question string
	answer   domain.Answer
	err      error
}

// styles holds the lipgloss styles for the chat surface.
type styles struct {
	title      lipgloss.Style
	question   lipgloss.Style
	answer     lipgloss.Style
	meta       lipgloss.Style
	errorStyle lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		question:   lipgloss.NewStyle().Bold(true),
		answer:     lipgloss.NewStyle().PaddingLeft(2),
		meta:       lipgloss.NewStyle().PaddingLeft(2).Faint(true),
		errorStyle: lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("196")),
	}
}

// Model is the bubbletea model for the chat surface.
type Model struct {
	answers driving.AnswerService
	ctx     context.Context
	styles  styles

	input   textinput.Model
	history []entry
	waiting bool
	width   int
}

// NewModel creates the chat model around an answer service.
func NewModel(answers driving.AnswerService) *Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about the member messages..."
	ti.Focus()
	ti.CharLimit = 500

	return &Model{
		answers: answers,
		ctx:     context.Background(),
		styles:  defaultStyles(),
		input:   ti,
		width:   80,
	}
}

// WithContext sets the context used for question calls.
func (m *Model) WithContext(ctx context.Context) *Model {
	m.ctx = ctx
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - 4
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			question := strings.TrimSpace(m.input.Value())
			if question == "" || m.waiting {
				return m, nil
			}
			m.input.SetValue("")
			m.waiting = true
			return m, m.ask(question)
		}

	case answeredMsg:
		m.waiting = false
		m.history = append(m.history, entry{
			question: msg.question,
			answer:   msg.answer,
			err:      msg.err,
		})
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask runs the question off the update loop.
func (m *Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		ans, err := m.answers.Ask(m.ctx, question)
		return answeredMsg{question: question, answer: ans, err: err}
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render("RosterQA"))
	b.WriteString("\n\n")

	for _, e := range m.history {
		b.WriteString(m.styles.question.Render("> " + e.question))
		b.WriteString("\n")
		if e.err != nil {
			b.WriteString(m.styles.errorStyle.Render(e.err.Error()))
			b.WriteString("\n\n")
			continue
		}
		b.WriteString(m.styles.answer.Render(e.answer.Text))
		b.WriteString("\n")
		b.WriteString(m.styles.meta.Render(describeAnswer(e.answer)))
		b.WriteString("\n\n")
	}

	if m.waiting {
		b.WriteString(m.styles.meta.Render("thinking..."))
		b.WriteString("\n\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.styles.meta.Render("enter to ask, esc to quit"))
	b.WriteString("\n")

	return b.String()
}

// describeAnswer renders the confidence line below an answer.
func describeAnswer(ans domain.Answer) string {
	support := "unsupported"
	if ans.Supported {
		support = "supported"
	}
	line := fmt.Sprintf("%s, confidence %.2f", support, ans.Confidence)
	if len(ans.Citations) > 0 {
		senders := make([]string, 0, len(ans.Citations))
		seen := make(map[string]struct{})
		for _, c := range ans.Citations {
			if _, ok := seen[c.SenderName]; ok {
				continue
			}
			seen[c.SenderName] = struct{}{}
			senders = append(senders, c.SenderName)
		}
		line += ", from " + strings.Join(senders, ", ")
	}
	return line
}
