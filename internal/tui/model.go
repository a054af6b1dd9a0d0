// Package tui provides an interactive terminal frontend for running sweeps,
// watching progress and exporting results.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lansweep/lansweep/internal/config"
	"github.com/lansweep/lansweep/internal/devices"
	"github.com/lansweep/lansweep/internal/netinfo"
	"github.com/lansweep/lansweep/internal/scanner"
)

type state int

const (
	stateIdle state = iota
	stateScanning
	stateDone
)

// Model is the bubbletea model for the scan screen.
type Model struct {
	cfg     *config.Config
	engine  *scanner.Engine
	network *netinfo.Network

	state     state
	spinner   spinner.Model
	progress  progress.Model
	table     table.Model
	completed int
	total     int
	found     int
	result    *devices.ScanResult
	events    chan scanner.Event
	scanDone  chan scanDoneMsg
	cancel    context.CancelFunc
	statusMsg string
	err       error
}

type scanEventMsg scanner.Event

type scanDoneMsg struct {
	result *devices.ScanResult
	err    error
}

type exportDoneMsg struct {
	path string
	err  error
}

// NewModel builds the scan screen for the given engine and target network.
func NewModel(cfg *config.Config, engine *scanner.Engine, network *netinfo.Network) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	columns := []table.Column{
		{Title: "IP", Width: 16},
		{Title: "Hostname", Width: 28},
		{Title: "MAC", Width: 18},
		{Title: "Type", Width: 16},
		{Title: "RTT", Width: 10},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return Model{
		cfg:      cfg,
		engine:   engine,
		network:  network,
		state:    stateIdle,
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient()),
		table:    t,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// startScan launches the sweep in the background and begins listening for
// its events.
func (m *Model) startScan() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.events = make(chan scanner.Event, 256)
	m.scanDone = make(chan scanDoneMsg, 1)
	m.state = stateScanning
	m.completed = 0
	m.total = 0
	m.found = 0
	m.result = nil
	m.err = nil
	m.statusMsg = ""
	m.table.SetRows(nil)

	events := m.events
	done := m.scanDone
	engine := m.engine
	network := m.network
	go func() {
		result, err := engine.Scan(ctx, network, events)
		close(events)
		done <- scanDoneMsg{result: result, err: err}
	}()

	return waitForEvent(m.events, m.scanDone)
}

// waitForEvent returns a command that delivers the next scan event, or the
// final result once the event stream closes.
func waitForEvent(events chan scanner.Event, done chan scanDoneMsg) tea.Cmd {
	return func() tea.Msg {
		if ev, ok := <-events; ok {
			return scanEventMsg(ev)
		}
		return <-done
	}
}

func exportCmd(result *devices.ScanResult, format string, allowEmpty bool) tea.Cmd {
	return func() tea.Msg {
		path := fmt.Sprintf("lansweep-%s.%s",
			time.Now().Format("20060102-150405"), format)
		err := writeExport(result, path, format, allowEmpty)
		return exportDoneMsg{path: path, err: err}
	}
}
