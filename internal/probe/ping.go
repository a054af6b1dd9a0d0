package probe

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/go-ping/ping"

	"github.com/lansweep/lansweep/internal/errors"
)

// PingProber checks hosts with a single ICMP echo request. In unprivileged
// mode it uses UDP datagram sockets, which work without CAP_NET_RAW on Linux
// when ping_group_range allows it.
type PingProber struct {
	timeout    time.Duration
	privileged bool
}

// NewPingProber creates an ICMP prober.
func NewPingProber(timeout time.Duration, unprivileged bool) *PingProber {
	return &PingProber{
		timeout:    timeout,
		privileged: !unprivileged,
	}
}

// Method implements Prober.
func (p *PingProber) Method() string { return MethodICMP }

// Close implements Prober. The ICMP prober holds no shared resources.
func (p *PingProber) Close() error { return nil }

// Probe sends one echo request and waits up to the configured timeout.
func (p *PingProber) Probe(ctx context.Context, ip net.IP) (Result, error) {
	pinger, err := ping.NewPinger(ip.String())
	if err != nil {
		return Result{}, errors.WrapScanError(errors.CodeProbeFailed,
			"Failed to create pinger", err)
	}

	pinger.Count = 1
	pinger.Timeout = p.timeout
	pinger.SetPrivileged(p.privileged)

	// The pinger has no context support; stop it when the scan is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pinger.Stop()
		case <-done:
		}
	}()

	if err := pinger.Run(); err != nil {
		if isPermissionError(err) {
			return Result{}, errors.NewScanErrorWithTarget(errors.CodePermission,
				"ICMP socket requires elevated privileges, try --unprivileged or tcp method",
				ip.String())
		}
		return Result{}, errors.WrapScanError(errors.CodeProbeFailed,
			"Ping failed", err)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, errors.NewScanErrorWithTarget(errors.CodeCanceled,
			"Probe cancelled", ip.String())
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return Result{Alive: false}, nil
	}
	return Result{Alive: true, RTT: stats.AvgRtt}, nil
}

func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "operation not permitted") ||
		strings.Contains(msg, "permission denied")
}
