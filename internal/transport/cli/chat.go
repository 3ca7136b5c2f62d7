// Package cli is the terminal chat in front of the orchestrator.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/riskmon/internal/service/command"
	"github.com/sandevgo/riskmon/internal/service/conversation"
	"github.com/sandevgo/riskmon/internal/service/ui"
	"github.com/sandevgo/riskmon/pkg/log"
)

const DefaultSessionID = "cli-local"

type Asker interface {
	Run(ctx context.Context, req conversation.Request) conversation.Result
}

type answerMsg conversation.Result

type model struct {
	ctx      context.Context
	asker    Asker
	commands *command.Router
	sess     *command.Session

	input    textinput.Model
	spinner  spinner.Model
	lines    []string
	busy     bool
	quitting bool
}

func newModel(ctx context.Context, asker Asker, commands *command.Router, sess *command.Session) model {
	ti := textinput.New()
	ti.Placeholder = "Ask a compliance question, or /help"
	ti.Prompt = ">>> "
	ti.CharLimit = 4000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return model{
		ctx:      ctx,
		asker:    asker,
		commands: commands,
		sess:     sess,
		input:    ti,
		spinner:  sp,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			return m.submit()
		}
	case answerMsg:
		m.busy = false
		m.lines = append(m.lines, Render(conversation.Result(msg)))
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	text := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	switch text {
	case "":
		return m, nil
	case "exit", "quit":
		m.quitting = true
		return m, tea.Quit
	}

	m.lines = append(m.lines, ui.FlagStyle.Render("> "+text))
	if out, ok := m.commands.Execute(m.ctx, m.sess, text); ok {
		m.lines = append(m.lines, out)
		return m, nil
	}

	m.busy = true
	return m, tea.Batch(m.spinner.Tick, m.ask(text))
}

func (m model) ask(question string) tea.Cmd {
	req := request(m.sess, question)
	ctx, asker := m.ctx, m.asker
	return func() tea.Msg {
		return answerMsg(asker.Run(ctx, req))
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	for _, line := range m.lines {
		sb.WriteString(line)
		sb.WriteString("\n\n")
	}
	if m.busy {
		sb.WriteString(m.spinner.View() + " thinking...\n")
	} else {
		sb.WriteString(m.input.View() + "\n")
	}
	sb.WriteString(ui.DescStyle.Render(fmt.Sprintf("session %s · grounded %t · exit to quit", m.sess.SessionID, m.sess.Grounded)))
	return sb.String()
}

func request(sess *command.Session, question string) conversation.Request {
	return conversation.Request{
		UserID:    sess.UserID,
		SessionID: sess.SessionID,
		Question:  question,
		Grounded:  sess.Grounded,
	}
}

// Render formats one answer with its intent and citations.
func Render(res conversation.Result) string {
	var sb strings.Builder
	sb.WriteString(res.Answer)
	if res.Intent != "" {
		sb.WriteString("\n" + ui.DescStyle.Render("intent: "+string(res.Intent)))
	}
	for i, c := range res.Citations {
		src := c.Source
		if c.Page != nil {
			src = fmt.Sprintf("%s p.%d", src, *c.Page)
		}
		sb.WriteString(fmt.Sprintf("\n%s %s", ui.UsageStyle.Render(fmt.Sprintf("[%d]", i+1)), src))
	}
	return sb.String()
}

// Chat runs the interactive session until the user quits or ctx ends.
func Chat(ctx context.Context, asker Asker, commands *command.Router, sess *command.Session) error {
	log.FromCtx(ctx).Debug().Str("session_id", sess.SessionID).Msg("chat started")

	p := tea.NewProgram(newModel(ctx, asker, commands, sess), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("chat: %w", err)
	}
	return nil
}

// Ask answers a single question and prints it to w.
func Ask(ctx context.Context, asker Asker, sess *command.Session, question string, w io.Writer) error {
	res := asker.Run(ctx, request(sess, question))
	_, err := fmt.Fprintln(w, Render(res))
	return err
}
