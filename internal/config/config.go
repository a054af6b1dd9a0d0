// Package config handles lansweep configuration loading, validation and
// defaults. Configuration comes from an optional YAML file plus environment
// and flag overrides bound through viper in the CLI layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/lansweep/lansweep/internal/errors"
)

const (
	configDirPerm  = 0o755
	configFilePerm = 0o644
)

// Config represents the complete application configuration.
type Config struct {
	// Scan configuration
	Scan ScanConfig `yaml:"scan" json:"scan"`

	// Export configuration
	Export ExportConfig `yaml:"export" json:"export"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// ScanConfig holds scanning-related settings.
type ScanConfig struct {
	// Number of concurrent probe workers
	Workers int `yaml:"workers" json:"workers" validate:"gt=0,lte=1024"`

	// Per-host probe timeout
	ProbeTimeout time.Duration `yaml:"probe_timeout" json:"probe_timeout" validate:"gt=0"`

	// Probe method: icmp, tcp or arp
	Method string `yaml:"method" json:"method" validate:"oneof=icmp tcp arp"`

	// Smallest allowed prefix length; larger networks are rejected
	MaxNetworkBits int `yaml:"max_network_bits" json:"max_network_bits" validate:"gte=8,lte=30"`

	// Resolve hostnames for responding hosts
	ResolveHostnames bool `yaml:"resolve_hostnames" json:"resolve_hostnames"`

	// Look up MAC addresses for responding hosts
	LookupMAC bool `yaml:"lookup_mac" json:"lookup_mac"`

	// Query responders over SNMP for sysName/sysDescr enrichment
	SNMPEnrich bool `yaml:"snmp_enrich" json:"snmp_enrich"`

	// SNMP community used for enrichment queries
	SNMPCommunity string `yaml:"snmp_community" json:"snmp_community"`

	// Send unprivileged (UDP) ICMP echoes instead of raw sockets
	UnprivilegedICMP bool `yaml:"unprivileged_icmp" json:"unprivileged_icmp"`

	// TCP ports dialed by the tcp probe method
	TCPProbePorts []int `yaml:"tcp_probe_ports" json:"tcp_probe_ports" validate:"dive,gt=0,lte=65535"`

	// Maximum probes per second (0 = no limit)
	RateLimit int `yaml:"rate_limit" json:"rate_limit" validate:"gte=0"`
}

// ExportConfig holds export-related settings.
type ExportConfig struct {
	// Default output format: csv or json
	DefaultFormat string `yaml:"default_format" json:"default_format" validate:"oneof=csv json"`

	// Permit exporting a result with zero devices
	AllowEmpty bool `yaml:"allow_empty" json:"allow_empty"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`

	// Log format (text, json)
	Format string `yaml:"format" json:"format" validate:"oneof=text json"`

	// Log output (stdout, stderr, file path)
	Output string `yaml:"output" json:"output" validate:"required"`
}

// MetricsConfig holds the optional Prometheus listener settings.
type MetricsConfig struct {
	// Enable the metrics HTTP listener
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Listen address, host:port
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			Workers:          64,
			ProbeTimeout:     2 * time.Second,
			Method:           "icmp",
			MaxNetworkBits:   16,
			ResolveHostnames: true,
			LookupMAC:        true,
			SNMPEnrich:       false,
			SNMPCommunity:    "public",
			UnprivilegedICMP: true,
			TCPProbePorts:    []int{80, 443, 22, 445, 139, 8080},
			RateLimit:        0,
		},
		Export: ExportConfig{
			DefaultFormat: "json",
			AllowEmpty:    false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: "127.0.0.1:9341",
		},
	}
}

// Load loads configuration from a file, applying defaults for any field
// the file omits. A missing file is not an error.
func Load(path string) (*Config, error) {
	config := Default()

	if path == "" {
		return config, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration, "failed to read config file", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration, "failed to parse YAML config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves configuration to a file as YAML.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, configDirPerm); err != nil {
		return errors.WrapConfigError(errors.CodeConfiguration, "failed to create config directory", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.WrapConfigError(errors.CodeConfiguration, "failed to marshal config", err)
	}

	if err := os.WriteFile(path, data, configFilePerm); err != nil {
		return errors.WrapConfigError(errors.CodeConfiguration, "failed to write config file", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			first := verrs[0]
			return errors.NewConfigFieldError(
				errors.CodeValidation,
				fmt.Sprintf("configuration field failed %q validation", first.Tag()),
				first.Namespace(),
				first.Value(),
			)
		}
		return errors.WrapConfigError(errors.CodeValidation, "configuration validation failed", err)
	}

	if c.Scan.Method == "tcp" && len(c.Scan.TCPProbePorts) == 0 {
		return errors.NewConfigFieldError(errors.CodeValidation,
			"tcp probe method requires at least one port", "Scan.TCPProbePorts", nil)
	}
	if c.Scan.SNMPEnrich && c.Scan.SNMPCommunity == "" {
		return errors.NewConfigFieldError(errors.CodeValidation,
			"snmp enrichment requires a community string", "Scan.SNMPCommunity", "")
	}
	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return errors.NewConfigFieldError(errors.CodeValidation,
			"metrics listener requires an address", "Metrics.ListenAddr", "")
	}

	return nil
}
