// Package cli implements the lansweep command-line interface. It provides
// commands for sweeping local networks, detecting the active network,
// converting exported results and running the interactive terminal UI.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lansweep/lansweep/internal/config"
	"github.com/lansweep/lansweep/internal/errors"
	"github.com/lansweep/lansweep/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// Build information - these will be set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lansweep",
	Short: "Local network device scanner",
	Long: `Lansweep sweeps a local network for live devices using parallel ICMP,
TCP or ARP probes, resolves hostnames and MAC addresses for responders,
and exports the results to CSV or JSON.`,
	Version: getVersion(),
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Accept snake_case spellings for all flags.
	rootCmd.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./lansweep.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	if err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind verbose flag: %v\n", err)
	}
}

// initConfig reads in the config file and matching environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("lansweep")
	}

	viper.SetEnvPrefix("LANSWEEP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setConfigDefaults()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}

	initLogging()
}

// setConfigDefaults registers every config key with its default so the
// environment layer can override it through AutomaticEnv.
func setConfigDefaults() {
	defaults := config.Default()

	viper.SetDefault("scan.workers", defaults.Scan.Workers)
	viper.SetDefault("scan.probe_timeout", defaults.Scan.ProbeTimeout)
	viper.SetDefault("scan.method", defaults.Scan.Method)
	viper.SetDefault("scan.max_network_bits", defaults.Scan.MaxNetworkBits)
	viper.SetDefault("scan.resolve_hostnames", defaults.Scan.ResolveHostnames)
	viper.SetDefault("scan.lookup_mac", defaults.Scan.LookupMAC)
	viper.SetDefault("scan.snmp_enrich", defaults.Scan.SNMPEnrich)
	viper.SetDefault("scan.snmp_community", defaults.Scan.SNMPCommunity)
	viper.SetDefault("scan.unprivileged_icmp", defaults.Scan.UnprivilegedICMP)
	viper.SetDefault("scan.tcp_probe_ports", defaults.Scan.TCPProbePorts)
	viper.SetDefault("scan.rate_limit", defaults.Scan.RateLimit)

	viper.SetDefault("export.default_format", defaults.Export.DefaultFormat)
	viper.SetDefault("export.allow_empty", defaults.Export.AllowEmpty)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.format", defaults.Logging.Format)
	viper.SetDefault("logging.output", defaults.Logging.Output)

	viper.SetDefault("metrics.enabled", defaults.Metrics.Enabled)
	viper.SetDefault("metrics.listen_addr", defaults.Metrics.ListenAddr)
}

// loadConfig builds the effective configuration from defaults, the config
// file and LANSWEEP_* environment variables, in ascending precedence.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()

	if err := viper.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	}); err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration,
			"failed to load configuration", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// getVersion returns the version string.
func getVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime)
}

// SetVersion sets the version information (called from main).
func SetVersion(v, c, bt string) {
	version = v
	commit = c
	buildTime = bt
	rootCmd.Version = getVersion()
}

// initLogging initializes structured logging based on configuration.
func initLogging() {
	cfg, err := loadConfig()
	if err != nil {
		logging.SetDefault(logging.NewDefault())
		return
	}

	logConfig := logging.Config{
		Level:     logging.LogLevel(cfg.Logging.Level),
		Format:    logging.LogFormat(cfg.Logging.Format),
		Output:    cfg.Logging.Output,
		AddSource: cfg.Logging.Level == "debug",
	}

	logger, err := logging.New(logConfig)
	if err != nil {
		logger = logging.NewDefault()
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	logging.SetDefault(logger)
}
