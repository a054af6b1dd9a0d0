package tui

import (
	"net"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lansweep/lansweep/internal/config"
	"github.com/lansweep/lansweep/internal/devices"
	"github.com/lansweep/lansweep/internal/netinfo"
	"github.com/lansweep/lansweep/internal/scanner"
)

func testModel(t *testing.T) Model {
	t.Helper()
	network, err := netinfo.ParseCIDR("192.168.1.0/24")
	require.NoError(t, err)
	return NewModel(config.Default(), nil, network)
}

func TestDeviceRowFormatting(t *testing.T) {
	mac, _ := net.ParseMAC("aa:bb:cc:dd:ee:ff")
	d := &devices.Device{
		IP:         net.IPv4(192, 168, 1, 5),
		Hostname:   "printer.lan",
		MAC:        mac,
		DeviceType: "Printer",
		RTT:        2500 * time.Microsecond,
	}

	row := deviceRow(d)
	assert.Equal(t, "192.168.1.5", row[0])
	assert.Equal(t, "printer.lan", row[1])
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", row[2])
	assert.Equal(t, "Printer", row[3])
	assert.Equal(t, "2.5ms", row[4])
}

func TestDeviceRowPlaceholders(t *testing.T) {
	d := &devices.Device{
		IP:         net.IPv4(10, 0, 0, 9),
		DeviceType: "Unknown Device",
	}

	row := deviceRow(d)
	assert.Equal(t, "-", row[1])
	assert.Equal(t, "-", row[2])
	assert.Equal(t, "-", row[4])
}

func TestScanEventUpdatesProgress(t *testing.T) {
	m := testModel(t)
	m.state = stateScanning
	m.events = make(chan scanner.Event)
	m.scanDone = make(chan scanDoneMsg, 1)

	d := &devices.Device{IP: net.IPv4(192, 168, 1, 7), DeviceType: "Computer"}
	updated, cmd := m.Update(scanEventMsg{Completed: 10, Total: 254, Device: d})
	model := updated.(Model)

	assert.Equal(t, 10, model.completed)
	assert.Equal(t, 254, model.total)
	assert.Equal(t, 1, model.found)
	assert.Len(t, model.table.Rows(), 1)
	assert.NotNil(t, cmd, "must re-arm the event listener")
}

func TestScanDoneSetsStatus(t *testing.T) {
	m := testModel(t)
	m.state = stateScanning

	result := devices.NewScanResult("192.168.1.0/24", "icmp")
	result.AddDevice(devices.Device{IP: net.IPv4(192, 168, 1, 1)})
	result.Finalize()

	updated, _ := m.Update(scanDoneMsg{result: result})
	model := updated.(Model)

	assert.Equal(t, stateDone, model.state)
	assert.Contains(t, model.statusMsg, "1 devices found")
}

func TestExportKeyOnlyWorksWhenDone(t *testing.T) {
	orig := writeExport
	defer func() { writeExport = orig }()

	exported := false
	writeExport = func(result *devices.ScanResult, path, format string, allowEmpty bool) error {
		exported = true
		return nil
	}

	m := testModel(t)
	m.state = stateIdle
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'e'}})
	if cmd != nil {
		cmd()
	}
	assert.False(t, exported, "idle state must not export")

	m.state = stateDone
	m.result = devices.NewScanResult("192.168.1.0/24", "icmp")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'e'}})
	require.NotNil(t, cmd)
	msg := cmd()
	assert.True(t, exported)
	assert.IsType(t, exportDoneMsg{}, msg)
}

func TestViewRendersByState(t *testing.T) {
	m := testModel(t)

	assert.Contains(t, m.View(), "Press s to start")

	m.state = stateScanning
	m.completed = 5
	m.total = 254
	assert.Contains(t, m.View(), "5/254")

	m.state = stateDone
	m.statusMsg = "Scan complete, 3 devices found"
	assert.Contains(t, m.View(), "3 devices found")
}
