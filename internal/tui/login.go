package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ksteinfeldt/gitshift/internal/deviceflow"
	"github.com/ksteinfeldt/gitshift/internal/style"
)

// flowMsg carries a device-flow snapshot into the bubbletea loop.
type flowMsg deviceflow.Snapshot

// loginModel renders one device-flow attempt.
type loginModel struct {
	spinner spinner.Model
	snap    deviceflow.Snapshot
	flow    *deviceflow.Flow
	done    bool
}

func (m loginModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m loginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.flow.Stop()
			m.done = true
			return m, tea.Quit
		}
	case flowMsg:
		m.snap = deviceflow.Snapshot(msg)
		if m.snap.State == deviceflow.StateAuthenticated || m.snap.State == deviceflow.StateError {
			m.done = true
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m loginModel) View() string {
	var body string
	switch m.snap.State {
	case deviceflow.StateWaitingForAuth:
		body = fmt.Sprintf(
			"Open %s and enter the code:\n\n    %s\n\n%s waiting for authorization (press q to cancel)",
			style.Bold.Render(m.snap.VerificationURI),
			style.Accent.Render(m.snap.UserCode),
			m.spinner.View(),
		)
	case deviceflow.StateAuthenticated:
		body = style.SuccessPrefix + " Authenticated."
	case deviceflow.StateError:
		body = style.ErrorPrefix + " " + m.snap.Err
	default:
		body = m.spinner.View() + " requesting device code..."
	}

	return lipgloss.NewStyle().Margin(1, 2).Render(body)
}

// RunLogin drives a device-flow attempt interactively and returns the
// final snapshot. The flow's OnChange must not be set by the caller;
// RunLogin wires it to the program.
func RunLogin(ctx context.Context, cfg deviceflow.Config) (deviceflow.Snapshot, error) {
	s := spinner.New()
	s.Spinner = spinner.Dot

	var p *tea.Program
	cfg.OnChange = func(snap deviceflow.Snapshot) {
		// Send must not block the flow's goroutine before the program
		// loop is consuming messages.
		go p.Send(flowMsg(snap))
	}

	flow := deviceflow.New(cfg)
	p = tea.NewProgram(loginModel{spinner: s, flow: flow})

	if err := flow.Start(ctx); err != nil {
		return flow.Snapshot(), err
	}
	defer flow.Stop()

	if _, err := p.Run(); err != nil {
		return flow.Snapshot(), fmt.Errorf("running login screen: %w", err)
	}
	return flow.Snapshot(), nil
}
