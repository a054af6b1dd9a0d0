package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lansweep/lansweep/internal/devices"
	"github.com/lansweep/lansweep/internal/export"
)

// writeExport is swappable in tests.
var writeExport = export.WriteFile

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		width := msg.Width - 8
		if width > 0 {
			m.progress.Width = width
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		m.progress = pm.(progress.Model)
		return m, cmd

	case scanEventMsg:
		m.completed = msg.Completed
		m.total = msg.Total
		var cmds []tea.Cmd
		if msg.Device != nil {
			m.found++
			m.table.SetRows(append(m.table.Rows(), deviceRow(msg.Device)))
		}
		if m.total > 0 {
			cmds = append(cmds, m.progress.SetPercent(float64(m.completed)/float64(m.total)))
		}
		cmds = append(cmds, waitForEvent(m.events, m.scanDone))
		return m, tea.Batch(cmds...)

	case scanDoneMsg:
		m.state = stateDone
		m.result = msg.result
		m.err = msg.err
		m.cancel = nil
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Scan stopped: %v", msg.err)
		} else {
			m.statusMsg = fmt.Sprintf("Scan complete, %d devices found", msg.result.Len())
		}
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Export failed: %v", msg.err)
		} else {
			m.statusMsg = fmt.Sprintf("Exported to %s", msg.path)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit

	case "s":
		if m.state != stateScanning {
			cmd := m.startScan()
			return m, cmd
		}

	case "x":
		if m.state == stateScanning && m.cancel != nil {
			m.cancel()
			m.statusMsg = "Stopping..."
		}

	case "e":
		if m.state == stateDone && m.result != nil {
			return m, exportCmd(m.result,
				m.cfg.Export.DefaultFormat, m.cfg.Export.AllowEmpty)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func deviceRow(d *devices.Device) table.Row {
	rtt := "-"
	if d.RTT > 0 {
		rtt = fmt.Sprintf("%.1fms", float64(d.RTT.Microseconds())/1000.0)
	}
	hostname := d.Hostname
	if hostname == "" {
		hostname = "-"
	}
	mac := d.MACString()
	if mac == "" {
		mac = "-"
	}
	return table.Row{d.IP.String(), hostname, mac, d.DeviceType, rtt}
}
