// Package export writes scan results to CSV and JSON files and reads JSON
// results back for format conversion. Both formats carry scan metadata so an
// exported file is self-describing.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/lansweep/lansweep/internal/devices"
	"github.com/lansweep/lansweep/internal/errors"
	"github.com/lansweep/lansweep/internal/logging"
	"github.com/lansweep/lansweep/internal/metrics"
)

// Supported output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

var csvHeader = []string{"ip", "hostname", "mac", "vendor", "device_type", "rtt_ms", "seen_at"}

// Metadata describes the scan an exported file came from.
type Metadata struct {
	ScanID      string    `json:"scan_id"`
	Network     string    `json:"network"`
	Method      string    `json:"method"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	DeviceCount int       `json:"device_count"`
}

// Record is the flat per-device representation used in exported files.
type Record struct {
	IP         string    `json:"ip"`
	Hostname   string    `json:"hostname,omitempty"`
	MAC        string    `json:"mac,omitempty"`
	Vendor     string    `json:"vendor,omitempty"`
	DeviceType string    `json:"device_type"`
	RTTMillis  float64   `json:"rtt_ms"`
	SeenAt     time.Time `json:"seen_at"`
}

// Document is the JSON file layout: metadata followed by the device list.
type Document struct {
	Metadata Metadata `json:"metadata"`
	Devices  []Record `json:"devices"`
}

// NewDocument converts a scan result into its exportable form. Device order
// is preserved.
func NewDocument(result *devices.ScanResult) *Document {
	list := result.Devices()
	records := make([]Record, 0, len(list))
	for i := range list {
		records = append(records, newRecord(&list[i]))
	}

	return &Document{
		Metadata: Metadata{
			ScanID:      result.ID.String(),
			Network:     result.Network,
			Method:      result.Method,
			StartedAt:   result.StartedAt,
			FinishedAt:  result.FinishedAt,
			DeviceCount: len(records),
		},
		Devices: records,
	}
}

func newRecord(d *devices.Device) Record {
	return Record{
		IP:         d.IP.String(),
		Hostname:   d.Hostname,
		MAC:        d.MACString(),
		Vendor:     d.Vendor,
		DeviceType: d.DeviceType,
		RTTMillis:  float64(d.RTT.Microseconds()) / 1000.0,
		SeenAt:     d.SeenAt,
	}
}

// WriteFile exports a scan result to the given path. The format must be
// "csv" or "json". Empty results are rejected unless allowEmpty is set.
func WriteFile(result *devices.ScanResult, path, format string, allowEmpty bool) error {
	format = strings.ToLower(format)
	if format != FormatCSV && format != FormatJSON {
		return errors.NewExportError(errors.CodeExportFormat,
			fmt.Sprintf("Unknown export format %q", format))
	}

	if result.Len() == 0 && !allowEmpty {
		recordExport(format, "error", 0)
		return errors.ErrEmptyResult()
	}

	doc := NewDocument(result)

	f, err := os.Create(path)
	if err != nil {
		recordExport(format, "error", 0)
		return errors.WrapExportError(errors.CodeExportIO,
			"Failed to create export file", path, err)
	}

	writeErr := Write(f, doc, format)
	closeErr := f.Close()

	if writeErr != nil {
		recordExport(format, "error", 0)
		return writeErr
	}
	if closeErr != nil {
		recordExport(format, "error", 0)
		return errors.WrapExportError(errors.CodeExportIO,
			"Failed to finish export file", path, closeErr)
	}

	recordExport(format, "success", doc.Metadata.DeviceCount)
	logging.InfoExport("Results exported", path,
		"format", format,
		"devices", doc.Metadata.DeviceCount)
	return nil
}

// Write renders a document to the writer in the requested format.
func Write(w io.Writer, doc *Document, format string) error {
	switch strings.ToLower(format) {
	case FormatCSV:
		return WriteCSV(w, doc)
	case FormatJSON:
		return WriteJSON(w, doc)
	default:
		return errors.NewExportError(errors.CodeExportFormat,
			fmt.Sprintf("Unknown export format %q", format))
	}
}

// WriteJSON writes the document as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.WrapExportError(errors.CodeExportIO,
			"Failed to encode JSON", "", err)
	}
	return nil
}

// WriteCSV writes the document as CSV. Scan metadata goes into leading
// comment lines so the file stays loadable by tools that skip '#'.
func WriteCSV(w io.Writer, doc *Document) error {
	meta := fmt.Sprintf("# network: %s\n# method: %s\n# started: %s\n# finished: %s\n# devices: %d\n",
		doc.Metadata.Network,
		doc.Metadata.Method,
		doc.Metadata.StartedAt.Format(time.RFC3339),
		doc.Metadata.FinishedAt.Format(time.RFC3339),
		doc.Metadata.DeviceCount)
	if _, err := io.WriteString(w, meta); err != nil {
		return errors.WrapExportError(errors.CodeExportIO,
			"Failed to write CSV metadata", "", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.WrapExportError(errors.CodeExportIO,
			"Failed to write CSV header", "", err)
	}

	for i := range doc.Devices {
		r := &doc.Devices[i]
		row := []string{
			r.IP,
			r.Hostname,
			r.MAC,
			r.Vendor,
			r.DeviceType,
			fmt.Sprintf("%.3f", r.RTTMillis),
			r.SeenAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return errors.WrapExportError(errors.CodeExportIO,
				"Failed to write CSV row", "", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.WrapExportError(errors.CodeExportIO,
			"Failed to flush CSV", "", err)
	}
	return nil
}

// ReadJSON parses a previously exported JSON document.
func ReadJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.WrapExportError(errors.CodeExportFormat,
			"Failed to parse JSON result", "", err)
	}
	return &doc, nil
}

// ReadJSONFile loads an exported JSON result from disk.
func ReadJSONFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapExportError(errors.CodeExportIO,
			"Failed to open result file", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

func recordExport(format, status string, count int) {
	metrics.Default().ExportRecorded(format, status, count)
}
