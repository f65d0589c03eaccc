// Package observability wires OpenTelemetry tracing, operation metrics and
// structured logging for the ordset command line.
package observability

import (
	"io"
	"log/slog"
)

// AppMode identifies the subcommand the process runs.
type AppMode string

const (
	// ModeRun executes a script and prints its results.
	ModeRun AppMode = "run"
	// ModeVerify executes a script and checks invariants after each mutation.
	ModeVerify AppMode = "verify"
	// ModeStats executes a script and reports per-set statistics.
	ModeStats AppMode = "stats"
)

const (
	defaultServiceName        = "ordset"
	defaultShutdownTimeoutSec = 5
)

// SampleRatioUnset leaves the sampling ratio to the default sampler.
const SampleRatioUnset = -1.0

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the semantic version of the running binary.
	ServiceVersion string

	// Environment is the deployment environment (e.g. "production", "dev").
	Environment string

	// Mode identifies how the binary was launched.
	Mode AppMode

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables export: tracing becomes no-op and metrics are only kept
	// in the local Prometheus registry.
	OTLPEndpoint string

	// OTLPHeaders are additional gRPC metadata headers for the OTLP exporters.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// SampleRatio is the parent-based trace sampling ratio (0.0 to 1.0);
	// zero samples no root spans. SampleRatioUnset selects always-on roots.
	SampleRatio float64

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// LogJSON enables JSON-formatted log output.
	LogJSON bool

	// LogOutput receives log records. Nil means os.Stderr.
	LogOutput io.Writer

	// ShutdownTimeoutSec is the maximum seconds to wait for flush on shutdown.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config with sensible defaults for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeRun,
		LogLevel:           slog.LevelInfo,
		SampleRatio:        SampleRatioUnset,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
