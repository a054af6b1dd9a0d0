// Package probe implements the per-host liveness checks used during a sweep:
// ICMP echo, TCP connect and ARP request probes, plus the hostname, MAC and
// SNMP lookups applied to hosts that respond.
package probe

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/lansweep/lansweep/internal/config"
	"github.com/lansweep/lansweep/internal/errors"
)

// Probe methods.
const (
	MethodICMP = "icmp"
	MethodTCP  = "tcp"
	MethodARP  = "arp"
)

// Result describes the outcome of probing a single host. Alive is false for
// hosts that simply did not answer; errors are reserved for probes that could
// not run.
type Result struct {
	Alive bool
	RTT   time.Duration
	// MAC is set only by probes that learn it on the wire (ARP).
	MAC net.HardwareAddr
}

// Prober checks whether a single host is alive.
type Prober interface {
	// Probe checks the given IPv4 address. A nil error with Alive=false
	// means the host stayed silent within the timeout.
	Probe(ctx context.Context, ip net.IP) (Result, error)
	// Method returns the probe method name for logging and metrics.
	Method() string
	// Close releases any resources held by the prober.
	Close() error
}

// New builds a Prober for the configured scan method.
func New(cfg config.ScanConfig) (Prober, error) {
	switch cfg.Method {
	case MethodICMP:
		return NewPingProber(cfg.ProbeTimeout, cfg.UnprivilegedICMP), nil
	case MethodTCP:
		return NewTCPProber(cfg.ProbeTimeout, cfg.TCPProbePorts), nil
	case MethodARP:
		return NewARPProber(cfg.ProbeTimeout)
	default:
		return nil, errors.NewConfigFieldError(errors.CodeConfiguration,
			fmt.Sprintf("Unknown probe method %q", cfg.Method),
			"scan.method", cfg.Method)
	}
}
