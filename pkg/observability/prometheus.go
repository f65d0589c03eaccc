package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// WriteMetricsFile writes everything gatherer collects to path in the
// Prometheus text exposition format, as the node_exporter textfile collector
// expects. The file is replaced atomically.
func WriteMetricsFile(gatherer prometheus.Gatherer, path string) error {
	if err := prometheus.WriteToTextfile(path, gatherer); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}

	return nil
}
