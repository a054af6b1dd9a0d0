// Package metrics provides Prometheus-based metrics collection for lansweep.
// It tracks scan, probe and export activity and can expose the registry over
// an optional HTTP listener for scrape-based monitoring during long sweeps.
package metrics

import (
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Namespace for all lansweep metrics
	namespace = "lansweep"

	// Subsystems
	subsystemScan   = "scan"
	subsystemProbe  = "probe"
	subsystemExport = "export"
	subsystemSystem = "system"
)

// Metrics holds all Prometheus metric collectors.
type Metrics struct {
	// Scan metrics
	scansTotal      *prometheus.CounterVec
	scanDuration    *prometheus.HistogramVec
	devicesFound    *prometheus.CounterVec
	activeScans     prometheus.Gauge
	scanProgress    prometheus.Gauge
	hostsProbedScan *prometheus.CounterVec

	// Probe metrics
	probesTotal   *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	probeErrors   *prometheus.CounterVec

	// Export metrics
	exportsTotal  *prometheus.CounterVec
	exportDevices *prometheus.HistogramVec

	// System metrics
	goroutines prometheus.Gauge
	uptime     prometheus.Gauge

	startTime time.Time
	mu        sync.RWMutex
	registry  *prometheus.Registry
}

// New creates a Metrics instance with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		startTime: time.Now(),
		registry:  registry,
	}

	m.initScanMetrics()
	m.initProbeMetrics()
	m.initExportMetrics()
	m.initSystemMetrics()
	m.registerMetrics()

	// Standard Go and process collectors for runtime visibility.
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

func (m *Metrics) initScanMetrics() {
	m.scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "total",
			Help:      "Total number of scans performed by method and status",
		},
		[]string{"method", "status"},
	)

	m.scanDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "duration_seconds",
			Help:      "Duration of scan operations in seconds",
			Buckets:   []float64{0.5, 1.0, 5.0, 10.0, 30.0, 60.0, 300.0, 600.0},
		},
		[]string{"method"},
	)

	m.devicesFound = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "devices_total",
			Help:      "Total number of devices discovered by method",
		},
		[]string{"method"},
	)

	m.hostsProbedScan = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "hosts_total",
			Help:      "Total number of host addresses probed by method",
		},
		[]string{"method"},
	)

	m.activeScans = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "active",
			Help:      "Number of currently active scans",
		},
	)

	m.scanProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "progress_ratio",
			Help:      "Completed probes over total addresses for the current scan",
		},
	)
}

func (m *Metrics) initProbeMetrics() {
	m.probesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemProbe,
			Name:      "total",
			Help:      "Total number of probes by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	m.probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemProbe,
			Name:      "duration_seconds",
			Help:      "Duration of individual host probes in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"method"},
	)

	m.probeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemProbe,
			Name:      "errors_total",
			Help:      "Total number of probe errors by method and error type",
		},
		[]string{"method", "error_type"},
	)
}

func (m *Metrics) initExportMetrics() {
	m.exportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemExport,
			Name:      "total",
			Help:      "Total number of result exports by format and status",
		},
		[]string{"format", "status"},
	)

	m.exportDevices = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemExport,
			Name:      "devices",
			Help:      "Number of devices per exported result",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"format"},
	)
}

func (m *Metrics) initSystemMetrics() {
	m.goroutines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemSystem,
			Name:      "goroutines",
			Help:      "Current number of goroutines",
		},
	)

	m.uptime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemSystem,
			Name:      "uptime_seconds",
			Help:      "Application uptime in seconds",
		},
	)
}

func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.scansTotal)
	m.registry.MustRegister(m.scanDuration)
	m.registry.MustRegister(m.devicesFound)
	m.registry.MustRegister(m.hostsProbedScan)
	m.registry.MustRegister(m.activeScans)
	m.registry.MustRegister(m.scanProgress)

	m.registry.MustRegister(m.probesTotal)
	m.registry.MustRegister(m.probeDuration)
	m.registry.MustRegister(m.probeErrors)

	m.registry.MustRegister(m.exportsTotal)
	m.registry.MustRegister(m.exportDevices)

	m.registry.MustRegister(m.goroutines)
	m.registry.MustRegister(m.uptime)
}

// ScanStarted marks a scan as active.
func (m *Metrics) ScanStarted() {
	m.activeScans.Inc()
	m.scanProgress.Set(0)
}

// ScanCompleted records a finished scan with its duration and outcome.
func (m *Metrics) ScanCompleted(method, status string, duration time.Duration) {
	m.activeScans.Dec()
	m.scansTotal.WithLabelValues(method, status).Inc()
	m.scanDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// ScanProgress records the completed/total ratio for the active scan.
func (m *Metrics) ScanProgress(completed, total int) {
	if total <= 0 {
		return
	}
	m.scanProgress.Set(float64(completed) / float64(total))
}

// HostProbed counts an address handed to the probe pool.
func (m *Metrics) HostProbed(method string) {
	m.hostsProbedScan.WithLabelValues(method).Inc()
}

// DeviceFound counts a responding device.
func (m *Metrics) DeviceFound(method string) {
	m.devicesFound.WithLabelValues(method).Inc()
}

// ProbeObserved records one probe with outcome "alive", "silent" or "error".
func (m *Metrics) ProbeObserved(method, outcome string, duration time.Duration) {
	m.probesTotal.WithLabelValues(method, outcome).Inc()
	m.probeDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// ProbeError counts a probe failure by error type.
func (m *Metrics) ProbeError(method, errorType string) {
	m.probeErrors.WithLabelValues(method, errorType).Inc()
}

// ExportRecorded records a result export.
func (m *Metrics) ExportRecorded(format, status string, deviceCount int) {
	m.exportsTotal.WithLabelValues(format, status).Inc()
	if status == "success" {
		m.exportDevices.WithLabelValues(format).Observe(float64(deviceCount))
	}
}

// UpdateSystemMetrics refreshes goroutine and uptime gauges.
func (m *Metrics) UpdateSystemMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.goroutines.Set(float64(runtime.NumGoroutine()))
	m.uptime.Set(time.Since(m.startTime).Seconds())
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Global metrics instance - can be replaced for testing.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Default returns the process-wide metrics instance.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}
