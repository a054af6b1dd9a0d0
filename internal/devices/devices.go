// Package devices defines the data model for discovered network devices
// and scan results. A ScanResult collects devices in arrival order and is
// safe for concurrent appends from probe workers.
package devices

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Device represents a single responding host found during a scan.
// A device is immutable once recorded in a ScanResult.
type Device struct {
	IP         net.IP           `json:"ip"`
	Hostname   string           `json:"hostname,omitempty"`
	MAC        net.HardwareAddr `json:"-"`
	Vendor     string           `json:"vendor,omitempty"`
	DeviceType string           `json:"device_type,omitempty"`
	RTT        time.Duration    `json:"-"`
	SeenAt     time.Time        `json:"seen_at"`
}

// MACString returns the canonical MAC representation, empty when unknown.
func (d *Device) MACString() string {
	if len(d.MAC) == 0 {
		return ""
	}
	return strings.ToUpper(d.MAC.String())
}

// String implements fmt.Stringer for log output.
func (d *Device) String() string {
	if d.Hostname != "" {
		return fmt.Sprintf("%s (%s)", d.IP, d.Hostname)
	}
	return d.IP.String()
}

// ScanResult holds the outcome of one network sweep. Devices are appended
// in completion order, which is non-deterministic across runs.
type ScanResult struct {
	ID         uuid.UUID
	Network    string
	Method     string
	StartedAt  time.Time
	FinishedAt time.Time

	mu      sync.Mutex
	devices []Device
	seen    map[string]struct{}
}

// NewScanResult creates a result for a scan over the given network.
func NewScanResult(network, method string) *ScanResult {
	return &ScanResult{
		ID:        uuid.New(),
		Network:   network,
		Method:    method,
		StartedAt: time.Now(),
		seen:      make(map[string]struct{}),
	}
}

// AddDevice appends a device in arrival order. Each IP is recorded at most
// once per result; duplicates are dropped and reported with false.
func (r *ScanResult) AddDevice(d Device) bool {
	if d.IP == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := d.IP.String()
	if _, dup := r.seen[key]; dup {
		return false
	}
	if r.seen == nil {
		r.seen = make(map[string]struct{})
	}
	r.seen[key] = struct{}{}
	r.devices = append(r.devices, d)
	return true
}

// Len returns the number of devices collected so far.
func (r *ScanResult) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.devices)
}

// Devices returns a copy of the collected devices in arrival order.
func (r *ScanResult) Devices() []Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Device, len(r.devices))
	copy(out, r.devices)
	return out
}

// Finalize stamps the completion time. Safe to call once the last probe
// has resolved or the scan was cancelled.
func (r *ScanResult) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FinishedAt = time.Now()
}

// Duration returns the elapsed scan time, using the current time while
// the scan is still running.
func (r *ScanResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
