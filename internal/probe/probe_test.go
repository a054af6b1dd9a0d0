package probe

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lansweep/lansweep/internal/config"
	apperrors "github.com/lansweep/lansweep/internal/errors"
)

func TestNewProberByMethod(t *testing.T) {
	cfg := config.Default().Scan

	cfg.Method = MethodICMP
	p, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, MethodICMP, p.Method())

	cfg.Method = MethodTCP
	p, err = New(cfg)
	require.NoError(t, err)
	assert.Equal(t, MethodTCP, p.Method())
}

func TestNewProberUnknownMethod(t *testing.T) {
	cfg := config.Default().Scan
	cfg.Method = "xmas"

	_, err := New(cfg)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfiguration, apperrors.GetCode(err))
}

func TestTCPProbeOpenPort(t *testing.T) {
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	port := listener.Addr().(*net.TCPAddr).Port
	prober := NewTCPProber(2*time.Second, []int{port})

	result, err := prober.Probe(context.Background(), net.IPv4(127, 0, 0, 1))
	require.NoError(t, err)
	assert.True(t, result.Alive)
	assert.Greater(t, result.RTT, time.Duration(0))
}

func TestTCPProbeRefusedPortCountsAsAlive(t *testing.T) {
	// Grab a free port and close it so the connect gets an RST.
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	prober := NewTCPProber(2*time.Second, []int{port})

	result, err := prober.Probe(context.Background(), net.IPv4(127, 0, 0, 1))
	require.NoError(t, err)
	assert.True(t, result.Alive, "refused connection proves the host is up")
}

func TestTCPProbeSilentHost(t *testing.T) {
	// 203.0.113.0/24 is TEST-NET-3, guaranteed unrouted.
	prober := NewTCPProber(200*time.Millisecond, []int{80, 443})

	result, err := prober.Probe(context.Background(), net.IPv4(203, 0, 113, 1))
	require.NoError(t, err)
	assert.False(t, result.Alive)
}

func TestTCPProbeNoPorts(t *testing.T) {
	prober := NewTCPProber(time.Second, nil)

	result, err := prober.Probe(context.Background(), net.IPv4(127, 0, 0, 1))
	require.NoError(t, err)
	assert.False(t, result.Alive)
}

func TestTCPProbeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	prober := NewTCPProber(time.Second, []int{80})
	_, err := prober.Probe(ctx, net.IPv4(203, 0, 113, 1))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeCanceled, apperrors.GetCode(err))
}

func TestHostnameResolverEmptyOnUnresolvable(t *testing.T) {
	r := NewHostnameResolver(500 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	name := r.Lookup(ctx, net.IPv4(203, 0, 113, 200))
	assert.Equal(t, "", name)
}

func pduOf(v interface{}) gosnmp.SnmpPDU {
	return gosnmp.SnmpPDU{Value: v}
}

func TestPDUString(t *testing.T) {
	assert.Equal(t, "core-sw1", pduString(pduOf("core-sw1 ")))
	assert.Equal(t, "core-sw1", pduString(pduOf([]byte(" core-sw1"))))
	assert.Equal(t, "", pduString(pduOf(42)))
}
