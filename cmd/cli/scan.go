package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lansweep/lansweep/internal/config"
	"github.com/lansweep/lansweep/internal/devices"
	"github.com/lansweep/lansweep/internal/export"
	"github.com/lansweep/lansweep/internal/logging"
	"github.com/lansweep/lansweep/internal/metrics"
	"github.com/lansweep/lansweep/internal/netinfo"
	"github.com/lansweep/lansweep/internal/scanner"
)

var (
	scanNetwork    string
	scanWorkers    int
	scanTimeout    time.Duration
	scanMethod     string
	scanOutput     string
	scanFormat     string
	scanAllowEmpty bool
	scanRateLimit  int
	scanSNMP       bool
	scanNoResolve  bool
	scanMetrics    string
)

// scanCmd represents the scan command.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Sweep a network for live devices",
	Long: `Sweep a network for live devices using parallel probes.

Without --network the active local network is detected automatically.
Responding hosts are enriched with hostname, MAC address, vendor and a
device type guess, and can be exported to CSV or JSON.`,
	Example: `  lansweep scan
  lansweep scan --network 192.168.1.0/24
  lansweep scan --method tcp --workers 128
  lansweep scan --output devices.csv --format csv
  lansweep scan --method arp --timeout 1s`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanNetwork, "network", "n", "", "Network to scan in CIDR notation (default: autodetect)")
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", 0, "Number of concurrent probe workers")
	scanCmd.Flags().DurationVarP(&scanTimeout, "timeout", "t", 0, "Per-host probe timeout")
	scanCmd.Flags().StringVarP(&scanMethod, "method", "m", "", "Probe method: icmp, tcp or arp")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "Export results to this file")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "", "Export format: csv or json")
	scanCmd.Flags().BoolVar(&scanAllowEmpty, "allow-empty", false, "Export even when no devices were found")
	scanCmd.Flags().IntVar(&scanRateLimit, "rate-limit", 0, "Maximum probes per second (0 = unlimited)")
	scanCmd.Flags().BoolVar(&scanSNMP, "snmp", false, "Enrich responders with SNMP system info")
	scanCmd.Flags().BoolVar(&scanNoResolve, "no-resolve", false, "Skip hostname resolution")
	scanCmd.Flags().StringVar(&scanMetrics, "metrics-addr", "", "Serve Prometheus metrics on this address during the scan")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyScanFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	network, err := resolveNetwork(scanNetwork)
	if err != nil {
		return err
	}

	m := metrics.Default()
	stopMetrics := startMetricsListener(cfg, m)
	defer stopMetrics()

	engine, err := scanner.New(cfg, m)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Scanning %s (%s, %d workers)\n",
		color.CyanString(network.CIDR()), cfg.Scan.Method, cfg.Scan.Workers)

	events := make(chan scanner.Event, 256)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		reportProgress(events)
	}()

	result, scanErr := engine.Scan(ctx, network, events)
	close(events)
	<-progressDone

	if scanErr != nil && result == nil {
		return scanErr
	}
	if scanErr != nil {
		color.Yellow("Scan interrupted, keeping %d devices found so far", result.Len())
	}

	displayResult(result)

	if scanOutput != "" {
		format := cfg.Export.DefaultFormat
		if scanFormat != "" {
			format = scanFormat
		}
		allowEmpty := cfg.Export.AllowEmpty || scanAllowEmpty
		if err := export.WriteFile(result, scanOutput, format, allowEmpty); err != nil {
			return err
		}
		fmt.Printf("Results written to %s\n", color.GreenString(scanOutput))
	}

	return nil
}

// applyScanFlags overlays command-line flags on the loaded configuration.
// Only flags the user actually set override the file.
func applyScanFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("workers") {
		cfg.Scan.Workers = scanWorkers
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Scan.ProbeTimeout = scanTimeout
	}
	if cmd.Flags().Changed("method") {
		cfg.Scan.Method = scanMethod
	}
	if cmd.Flags().Changed("rate-limit") {
		cfg.Scan.RateLimit = scanRateLimit
	}
	if scanSNMP {
		cfg.Scan.SNMPEnrich = true
	}
	if scanNoResolve {
		cfg.Scan.ResolveHostnames = false
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Metrics.Enabled = true
		cfg.Metrics.ListenAddr = scanMetrics
	}
}

// resolveNetwork parses the given CIDR or autodetects the local network.
func resolveNetwork(cidr string) (*netinfo.Network, error) {
	if cidr != "" {
		return netinfo.ParseCIDR(cidr)
	}

	network, err := netinfo.Detect()
	if err != nil {
		return nil, err
	}
	fmt.Printf("Detected local network %s", color.CyanString(network.CIDR()))
	if network.Interface != "" {
		fmt.Printf(" on %s", network.Interface)
	}
	fmt.Println()
	return network, nil
}

// startMetricsListener serves the Prometheus registry if enabled. The
// returned function shuts the listener down.
func startMetricsListener(cfg *config.Config, m *metrics.Metrics) func() {
	if !cfg.Metrics.Enabled {
		return func() {}
	}

	srv := &http.Server{
		Addr:              cfg.Metrics.ListenAddr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Metrics listener failed", "addr", cfg.Metrics.ListenAddr, "error", err)
		}
	}()
	logging.Info("Metrics listener started", "addr", cfg.Metrics.ListenAddr)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

// reportProgress renders a single updating progress line.
func reportProgress(events <-chan scanner.Event) {
	green := color.New(color.FgGreen)
	for ev := range events {
		if ev.Device != nil {
			fmt.Printf("\r\033[K")
			green.Printf("  + %s\n", ev.Device.String())
		}
		fmt.Printf("\rProbing %d/%d hosts...", ev.Completed, ev.Total)
	}
	fmt.Printf("\r\033[K")
}

// displayResult prints the device table and scan summary.
func displayResult(result *devices.ScanResult) {
	list := result.Devices()
	if len(list) == 0 {
		color.Yellow("No devices found on %s", result.Network)
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("IP", "Hostname", "MAC", "Vendor", "Type", "RTT")

	for i := range list {
		d := &list[i]
		hostname := d.Hostname
		if hostname == "" {
			hostname = "-"
		}
		mac := d.MACString()
		if mac == "" {
			mac = "-"
		}
		vendor := d.Vendor
		if vendor == "" {
			vendor = "-"
		}
		rtt := "-"
		if d.RTT > 0 {
			rtt = fmt.Sprintf("%.1fms", float64(d.RTT.Microseconds())/1000.0)
		}

		_ = table.Append([]string{
			d.IP.String(),
			hostname,
			mac,
			vendor,
			d.DeviceType,
			rtt,
		})
	}

	_ = table.Render()

	fmt.Printf("\n%d devices found on %s in %s\n",
		result.Len(), result.Network, result.Duration().Round(time.Millisecond))
}
