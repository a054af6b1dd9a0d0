package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2D7D46")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Margin(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// View implements tea.Model.
func (m Model) View() string {
	title := titleStyle.Render(fmt.Sprintf("lansweep - %s (%s)",
		m.network.CIDR(), m.cfg.Scan.Method))

	var body string
	switch m.state {
	case stateIdle:
		body = boxStyle.Render("Press s to start scanning " + m.network.CIDR())

	case stateScanning:
		status := fmt.Sprintf("%s Probing %d/%d hosts, %d found",
			m.spinner.View(), m.completed, m.total, m.found)
		body = lipgloss.JoinVertical(lipgloss.Left,
			boxStyle.Render(status),
			boxStyle.Render(m.progress.View()),
			boxStyle.Render(m.table.View()),
		)

	case stateDone:
		body = lipgloss.JoinVertical(lipgloss.Left,
			boxStyle.Render(statusStyle.Render(m.statusMsg)),
			boxStyle.Render(m.table.View()),
		)
	}

	help := helpStyle.Render(m.helpLine())
	return lipgloss.JoinVertical(lipgloss.Left, title, body, help)
}

func (m Model) helpLine() string {
	switch m.state {
	case stateScanning:
		return "x: stop scan | q: quit"
	case stateDone:
		return "s: rescan | e: export | q: quit"
	default:
		return "s: scan | q: quit"
	}
}

// Run starts the interactive program and blocks until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
