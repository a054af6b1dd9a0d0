// Package scanner orchestrates network sweeps. It expands the target network
// into host addresses, fans probes out over a bounded worker pool, enriches
// responding hosts with hostname, MAC and optional SNMP data, and streams
// progress events to the caller.
package scanner

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lansweep/lansweep/internal/config"
	"github.com/lansweep/lansweep/internal/devices"
	"github.com/lansweep/lansweep/internal/errors"
	"github.com/lansweep/lansweep/internal/logging"
	"github.com/lansweep/lansweep/internal/metrics"
	"github.com/lansweep/lansweep/internal/netinfo"
	"github.com/lansweep/lansweep/internal/probe"
	"github.com/lansweep/lansweep/internal/workers"
)

// Event reports scan progress. Completed and Total are always set; Device is
// non-nil only when the completed probe found a new responder.
type Event struct {
	Completed int
	Total     int
	Device    *devices.Device
}

// Engine runs network sweeps according to its configuration.
type Engine struct {
	cfg      *config.Config
	prober   probe.Prober
	resolver *probe.HostnameResolver
	arpCache *probe.ARPCache
	snmp     *probe.SNMPClient
	metrics  *metrics.Metrics
	logger   *logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a scan engine. The prober is chosen by the configured method.
func New(cfg *config.Config, m *metrics.Metrics) (*Engine, error) {
	prober, err := probe.New(cfg.Scan)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		prober:  prober,
		metrics: m,
		logger:  logging.Default().WithComponent("scanner"),
	}
	if cfg.Scan.ResolveHostnames {
		e.resolver = probe.NewHostnameResolver(cfg.Scan.ProbeTimeout)
	}
	if cfg.Scan.LookupMAC {
		e.arpCache = probe.NewARPCache()
	}
	if cfg.Scan.SNMPEnrich {
		e.snmp = probe.NewSNMPClient(cfg.Scan.SNMPCommunity, cfg.Scan.ProbeTimeout)
	}
	return e, nil
}

// Close releases the engine's prober resources.
func (e *Engine) Close() error {
	return e.prober.Close()
}

// Stop cancels the scan in flight, if any. Devices collected so far are
// preserved in the returned result.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// Scan sweeps the given network. Progress events are sent to the events
// channel if it is non-nil; the caller must consume them. On cancellation
// the partial result is returned together with a CANCELED error.
func (e *Engine) Scan(ctx context.Context, network *netinfo.Network, events chan<- Event) (*devices.ScanResult, error) {
	hosts, err := network.HostAddresses(e.cfg.Scan.MaxNetworkBits)
	if err != nil {
		return nil, err
	}

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()

	result := devices.NewScanResult(network.CIDR(), e.cfg.Scan.Method)
	total := len(hosts)
	method := e.prober.Method()

	scanID := result.ID.String()
	e.logger.InfoScan("Scan started", network.CIDR(),
		"scan_id", scanID,
		"method", method,
		"hosts", total,
		"workers", e.cfg.Scan.Workers)

	e.metrics.ScanStarted()
	start := time.Now()

	pool := workers.New(workers.Config{
		Size:            e.cfg.Scan.Workers,
		QueueSize:       e.cfg.Scan.Workers * 4,
		RetryDelay:      time.Second,
		ShutdownTimeout: e.cfg.Scan.ProbeTimeout + 5*time.Second,
		RateLimit:       e.cfg.Scan.RateLimit,
	})
	pool.Start()
	defer func() {
		if err := pool.Shutdown(); err != nil {
			e.logger.Warn("Worker pool shutdown failed", "error", err)
		}
	}()

	// Drain pool results; per-host outcomes are handled inside the job.
	go func() {
		for range pool.Results() {
		}
	}()

	var wg sync.WaitGroup
	var completed int64

	emit := func(device *devices.Device) {
		done := int(atomic.AddInt64(&completed, 1))
		e.metrics.ScanProgress(done, total)
		if events == nil {
			return
		}
		select {
		case events <- Event{Completed: done, Total: total, Device: device}:
		case <-scanCtx.Done():
		}
	}

	submitted := 0
	for _, ip := range hosts {
		ip := ip
		wg.Add(1)
		job := workers.NewProbeJob(uuid.NewString(), ip.String(), method,
			func(jobCtx context.Context, _ string) error {
				defer wg.Done()
				emit(e.probeHost(scanCtx, result, ip))
				return nil
			})

		if err := pool.SubmitWait(scanCtx, job); err != nil {
			wg.Done()
			break
		}
		submitted++
	}

	poolDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(poolDone)
	}()

	var scanErr error
	select {
	case <-poolDone:
	case <-scanCtx.Done():
		scanErr = errors.NewScanErrorWithTarget(errors.CodeCanceled,
			"Scan cancelled", network.CIDR())
		// Shut the pool down now so queued jobs are released, then wait
		// for in-flight probes to notice the cancellation. No probe can
		// emit an event after Scan returns.
		if err := pool.Shutdown(); err != nil {
			e.logger.Warn("Worker pool shutdown failed", "error", err)
		}
		<-poolDone
	}

	result.Finalize()
	duration := time.Since(start)

	status := "success"
	if scanErr != nil {
		status = "canceled"
	}
	e.metrics.ScanCompleted(method, status, duration)

	e.logger.InfoScan("Scan finished", network.CIDR(),
		"scan_id", scanID,
		"status", status,
		"devices", result.Len(),
		"hosts_submitted", submitted,
		"duration", duration)

	return result, scanErr
}

// probeHost checks one address and, if it responds, enriches and records the
// device. Returns the recorded device or nil.
func (e *Engine) probeHost(ctx context.Context, result *devices.ScanResult, ip net.IP) *devices.Device {
	if ctx.Err() != nil {
		return nil
	}

	method := e.prober.Method()
	e.metrics.HostProbed(method)

	start := time.Now()
	res, err := e.prober.Probe(ctx, ip)
	elapsed := time.Since(start)

	if err != nil {
		e.metrics.ProbeObserved(method, "error", elapsed)
		e.metrics.ProbeError(method, string(errors.GetCode(err)))
		if !errors.IsCode(err, errors.CodeCanceled) {
			e.logger.DebugProbe("Probe failed", ip.String(), "error", err)
		}
		return nil
	}

	if !res.Alive {
		e.metrics.ProbeObserved(method, "silent", elapsed)
		return nil
	}
	e.metrics.ProbeObserved(method, "alive", elapsed)

	device := devices.Device{
		IP:     ip,
		MAC:    res.MAC,
		RTT:    res.RTT,
		SeenAt: time.Now(),
	}
	e.enrich(ctx, &device)

	if !result.AddDevice(device) {
		return nil
	}
	e.metrics.DeviceFound(method)
	e.logger.DebugProbe("Device found", ip.String(),
		"hostname", device.Hostname,
		"mac", device.MACString(),
		"type", device.DeviceType)
	return &device
}

// enrich fills in hostname, MAC, vendor and device type for a responder.
// Lookups run only for hosts that answered a probe.
func (e *Engine) enrich(ctx context.Context, device *devices.Device) {
	if e.resolver != nil {
		device.Hostname = e.resolver.Lookup(ctx, device.IP)
	}
	if e.arpCache != nil && device.MAC == nil {
		device.MAC = e.arpCache.Lookup(ctx, device.IP)
	}
	if e.snmp != nil {
		if info := e.snmp.Query(ctx, device.IP.String()); info != nil && device.Hostname == "" {
			device.Hostname = info.SysName
		}
	}

	device.Vendor = devices.VendorFromMAC(device.MACString())
	device.DeviceType = devices.Classify(device.Hostname, device.MACString())
}
