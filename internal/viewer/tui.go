package viewer

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"schedwatch/internal/schedule"
)

type model struct {
	title string
	sched *schedule.Schedule
	today time.Weekday

	vp    viewport.Model
	ready bool
}

func newModel(title string, s *schedule.Schedule, today time.Weekday) model {
	return model{title: title, sched: s, today: today}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h := msg.Height - 2
		if h < 1 {
			h = 1
		}
		if !m.ready {
			m.vp = viewport.New(msg.Width, h)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = h
		}
		m.vp.SetContent(RenderMarkdown(Markdown(m.title, m.sched, m.today), msg.Width))
		return m, nil
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if !m.ready {
		return "loading..."
	}
	return titleStyle.Render(m.title) + "\n" + m.vp.View() + "\n" + footerStyle.Render("↑/↓ scroll • q quit")
}

// TUI opens an interactive terminal viewer. Open blocks until the user
// quits or ctx is done.
type TUI struct {
	In  io.Reader
	Out io.Writer
}

func (t TUI) Open(ctx context.Context, title string, s *schedule.Schedule) error {
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if t.In != nil {
		opts = append(opts, tea.WithInput(t.In))
	}
	if t.Out != nil {
		opts = append(opts, tea.WithOutput(t.Out))
	}
	_, err := tea.NewProgram(newModel(title, s, time.Now().Weekday()), opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
