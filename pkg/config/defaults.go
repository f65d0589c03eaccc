package config

import "github.com/Sumatoshi-tech/ordset/pkg/observability"

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Tree defaults.
const (
	DefaultShards               = 4
	DefaultHibernationThreshold = 1000
	// DefaultArenaBudget of "0" leaves the arenas unbounded.
	DefaultArenaBudget = "0"
)

// Output defaults.
const (
	DefaultOutputFormat = "table"
)

// Telemetry defaults.
const (
	DefaultServiceName = "ordset"
	// DefaultSampleRatio leaves sampling to the default sampler; 0 disables it.
	DefaultSampleRatio = observability.SampleRatioUnset
)
