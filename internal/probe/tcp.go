package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	apperrors "github.com/lansweep/lansweep/internal/errors"
)

// TCPProber checks hosts by attempting TCP connections to a short list of
// common ports. A completed handshake or an active refusal both prove the
// host is up; only silence counts as down. Works without any privileges.
type TCPProber struct {
	timeout time.Duration
	ports   []int
	dialer  *net.Dialer
}

// NewTCPProber creates a TCP connect prober for the given ports.
func NewTCPProber(timeout time.Duration, ports []int) *TCPProber {
	return &TCPProber{
		timeout: timeout,
		ports:   ports,
		dialer:  &net.Dialer{},
	}
}

// Method implements Prober.
func (p *TCPProber) Method() string { return MethodTCP }

// Close implements Prober.
func (p *TCPProber) Close() error { return nil }

// Probe tries each port in order until one answers or the timeout budget for
// the host runs out. The per-host timeout is split across the port list.
func (p *TCPProber) Probe(ctx context.Context, ip net.IP) (Result, error) {
	if len(p.ports) == 0 {
		return Result{Alive: false}, nil
	}

	perPort := p.timeout / time.Duration(len(p.ports))
	if perPort < 50*time.Millisecond {
		perPort = 50 * time.Millisecond
	}

	start := time.Now()
	for _, port := range p.ports {
		if ctx.Err() != nil {
			return Result{}, apperrors.NewScanErrorWithTarget(apperrors.CodeCanceled,
				"Probe cancelled", ip.String())
		}

		dialCtx, cancel := context.WithTimeout(ctx, perPort)
		conn, err := p.dialer.DialContext(dialCtx, "tcp4",
			net.JoinHostPort(ip.String(), fmt.Sprintf("%d", port)))
		cancel()

		if err == nil {
			rtt := time.Since(start)
			conn.Close()
			return Result{Alive: true, RTT: rtt}, nil
		}

		// Connection refused means a host answered with RST.
		if isConnRefused(err) {
			return Result{Alive: true, RTT: time.Since(start)}, nil
		}
	}

	return Result{Alive: false}, nil
}

func isConnRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}
