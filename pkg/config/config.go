// Package config loads ordset settings from defaults, an optional YAML file
// and ORDSET_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/ordset/pkg/observability"
	"github.com/Sumatoshi-tech/ordset/pkg/safeconv"
)

// Sentinel validation errors.
var (
	ErrInvalidLogLevel     = errors.New("invalid log level")
	ErrInvalidLogFormat    = errors.New("invalid log format")
	ErrInvalidShards       = errors.New("shard count must be positive")
	ErrInvalidThreshold    = errors.New("hibernation threshold must not be negative")
	ErrInvalidArenaBudget  = errors.New("invalid arena budget")
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrInvalidSampleRatio  = errors.New("sample ratio must be within [0, 1] or unset")
)

const envPrefix = "ORDSET"

// Accepted enumerations.
var (
	logFormats    = []string{"text", "json"}
	outputFormats = []string{"text", "table", "yaml", "json"}
)

// Config holds all ordset configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Tree      TreeConfig      `mapstructure:"tree"`
	Output    OutputConfig    `mapstructure:"output"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TreeConfig sizes the node arenas backing the named sets.
type TreeConfig struct {
	// ArenaBudget caps the memory of each shard, in humanize notation ("64MiB").
	ArenaBudget          string `mapstructure:"arena_budget"`
	Shards               int    `mapstructure:"shards"`
	HibernationThreshold int    `mapstructure:"hibernation_threshold"`
}

// OutputConfig holds rendering configuration.
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export configuration.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	ServiceName  string  `mapstructure:"service_name"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
}

// LoadConfig loads configuration from file and environment variables.
// An empty configPath searches ./ordset.yaml, ~/.config/ordset/ and /etc/ordset/;
// finding nothing there is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("ordset")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("$HOME/.config/ordset")
		viperCfg.AddConfigPath("/etc/ordset")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperCfg.AutomaticEnv()

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("tree.shards", DefaultShards)
	viperCfg.SetDefault("tree.hibernation_threshold", DefaultHibernationThreshold)
	viperCfg.SetDefault("tree.arena_budget", DefaultArenaBudget)

	viperCfg.SetDefault("output.format", DefaultOutputFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.service_name", DefaultServiceName)
	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultSampleRatio)
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}

	if !slices.Contains(logFormats, c.Logging.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if c.Tree.Shards <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidShards, c.Tree.Shards)
	}

	if c.Tree.HibernationThreshold < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidThreshold, c.Tree.HibernationThreshold)
	}

	if _, err := c.Tree.ArenaBudgetBytes(); err != nil {
		return err
	}

	if !slices.Contains(outputFormats, c.Output.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidOutputFormat, c.Output.Format)
	}

	ratio := c.Telemetry.SampleRatio
	if ratio != observability.SampleRatioUnset && (ratio < 0 || ratio > 1) {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	return nil
}

// SlogLevel parses Level the way slog spells levels ("debug", "WARN", "info+2").
func (c LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Level)
	}

	return level, nil
}

// ArenaBudgetBytes parses ArenaBudget. Zero means unbounded.
func (c TreeConfig) ArenaBudgetBytes() (uint64, error) {
	trimmed := strings.TrimSpace(c.ArenaBudget)
	if trimmed == "" {
		return 0, nil
	}

	budget, err := humanize.ParseBytes(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidArenaBudget, c.ArenaBudget, err)
	}

	return budget, nil
}

// MaxNodes converts the arena budget into a per-shard node cap for slots of
// nodeSize bytes. Zero means unbounded; a non-zero budget always allows one node.
func (c TreeConfig) MaxNodes(nodeSize uint64) int {
	budget, err := c.ArenaBudgetBytes()
	if err != nil || budget == 0 || nodeSize == 0 {
		return 0
	}

	return max(1, safeconv.ClampUint64ToInt(budget/nodeSize))
}

// Observability maps the logging and telemetry sections onto an
// observability.Config for the given mode. The config must be valid.
func (c *Config) Observability(mode observability.AppMode, version string) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.Mode = mode
	obsCfg.ServiceVersion = version
	obsCfg.ServiceName = c.Telemetry.ServiceName
	obsCfg.Environment = c.Telemetry.Environment
	obsCfg.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders)
	obsCfg.OTLPInsecure = c.Telemetry.OTLPInsecure
	obsCfg.SampleRatio = c.Telemetry.SampleRatio
	obsCfg.LogJSON = c.Logging.Format == "json"

	if level, err := c.Logging.SlogLevel(); err == nil {
		obsCfg.LogLevel = level
	}

	return obsCfg
}
