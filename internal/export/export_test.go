package export

import (
	"bytes"
	"encoding/csv"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lansweep/lansweep/internal/devices"
	apperrors "github.com/lansweep/lansweep/internal/errors"
)

func sampleResult(t *testing.T) *devices.ScanResult {
	t.Helper()
	result := devices.NewScanResult("192.168.1.0/24", "icmp")

	mac1, _ := net.ParseMAC("b8:27:eb:12:34:56")
	require.True(t, result.AddDevice(devices.Device{
		IP:         net.IPv4(192, 168, 1, 1),
		Hostname:   "router.lan",
		MAC:        mac1,
		Vendor:     "Raspberry Pi",
		DeviceType: "Router",
		RTT:        1500 * time.Microsecond,
		SeenAt:     time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC),
	}))
	require.True(t, result.AddDevice(devices.Device{
		IP:         net.IPv4(192, 168, 1, 42),
		DeviceType: "Unknown Device",
		RTT:        12 * time.Millisecond,
		SeenAt:     time.Date(2026, 8, 23, 10, 0, 1, 0, time.UTC),
	}))
	result.Finalize()
	return result
}

func TestNewDocumentPreservesOrder(t *testing.T) {
	doc := NewDocument(sampleResult(t))

	require.Len(t, doc.Devices, 2)
	assert.Equal(t, "192.168.1.1", doc.Devices[0].IP)
	assert.Equal(t, "192.168.1.42", doc.Devices[1].IP)
	assert.Equal(t, 2, doc.Metadata.DeviceCount)
	assert.Equal(t, "192.168.1.0/24", doc.Metadata.Network)
	assert.Equal(t, "icmp", doc.Metadata.Method)
	assert.InDelta(t, 1.5, doc.Devices[0].RTTMillis, 0.001)
}

func TestJSONRoundTrip(t *testing.T) {
	doc := NewDocument(sampleResult(t))

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, doc))

	parsed, err := ReadJSON(&buf)
	require.NoError(t, err)

	assert.Equal(t, doc.Metadata.ScanID, parsed.Metadata.ScanID)
	assert.Equal(t, doc.Metadata.DeviceCount, parsed.Metadata.DeviceCount)
	require.Len(t, parsed.Devices, 2)
	assert.Equal(t, doc.Devices[0], parsed.Devices[0])
	assert.Equal(t, doc.Devices[1], parsed.Devices[1])
}

func TestWriteCSVLayout(t *testing.T) {
	doc := NewDocument(sampleResult(t))

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, doc))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# network: 192.168.1.0/24\n"))
	assert.Contains(t, out, "# method: icmp\n")
	assert.Contains(t, out, "# devices: 2\n")

	// Strip comment lines and parse the rest as CSV.
	var dataLines []string
	for _, line := range strings.Split(out, "\n") {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		dataLines = append(dataLines, line)
	}

	rows, err := csv.NewReader(strings.NewReader(strings.Join(dataLines, "\n"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "192.168.1.1", rows[1][0])
	assert.Equal(t, "router.lan", rows[1][1])
	assert.Equal(t, "B8:27:EB:12:34:56", rows[1][2])
	assert.Equal(t, "1.500", rows[1][5])
	assert.Equal(t, "192.168.1.42", rows[2][0])
	assert.Equal(t, "", rows[2][2], "missing MAC stays empty")
}

func TestWriteFileFormats(t *testing.T) {
	dir := t.TempDir()
	result := sampleResult(t)

	jsonPath := filepath.Join(dir, "scan.json")
	require.NoError(t, WriteFile(result, jsonPath, "json", false))

	doc, err := ReadJSONFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Metadata.DeviceCount)

	csvPath := filepath.Join(dir, "scan.csv")
	require.NoError(t, WriteFile(result, csvPath, "csv", false))

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ip,hostname,mac")
}

func TestWriteFileRejectsEmptyResult(t *testing.T) {
	result := devices.NewScanResult("192.168.1.0/24", "icmp")
	result.Finalize()

	err := WriteFile(result, filepath.Join(t.TempDir(), "empty.json"), "json", false)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.GetCode(err))
}

func TestWriteFileAllowEmpty(t *testing.T) {
	result := devices.NewScanResult("192.168.1.0/24", "icmp")
	result.Finalize()

	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, WriteFile(result, path, "json", true))

	doc, err := ReadJSONFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Metadata.DeviceCount)
	assert.NotNil(t, doc)
}

func TestWriteFileUnwritablePath(t *testing.T) {
	err := WriteFile(sampleResult(t), "/nonexistent-dir/scan.json", "json", false)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeExportIO, apperrors.GetCode(err))
}

func TestWriteFileUnknownFormat(t *testing.T) {
	err := WriteFile(sampleResult(t), filepath.Join(t.TempDir(), "scan.xml"), "xml", false)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeExportFormat, apperrors.GetCode(err))
}

func TestReadJSONRejectsGarbage(t *testing.T) {
	_, err := ReadJSON(strings.NewReader("not json"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeExportFormat, apperrors.GetCode(err))
}
