package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricOperationsTotal   = "ordset.operations.total"
	metricOperationDuration = "ordset.operation.duration.seconds"
	metricErrorsTotal       = "ordset.errors.total"
	metricLiveNodes         = "ordset.nodes.live"

	attrOp      = "op"
	attrOutcome = "outcome"
	attrSet     = "set"

	// OutcomeHit marks an operation that found or changed something.
	OutcomeHit = "hit"
	// OutcomeMiss marks an operation that found nothing to report or change.
	OutcomeMiss = "miss"
	// OutcomeError marks a failed operation.
	OutcomeError = "error"
)

// durationBucketBoundaries covers 100ns to 10ms: single set operations are
// logarithmic, whole-set dumps and clears are linear.
var durationBucketBoundaries = []float64{1e-7, 5e-7, 1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 1e-3, 1e-2}

// SetMetrics holds the OTel instruments recorded by the script engine.
type SetMetrics struct {
	operationsTotal   metric.Int64Counter
	operationDuration metric.Float64Histogram
	errorsTotal       metric.Int64Counter
	liveNodes         metric.Int64UpDownCounter
}

// NewSetMetrics creates the set operation instruments from the given meter.
func NewSetMetrics(mt metric.Meter) (*SetMetrics, error) {
	opsTotal, err := mt.Int64Counter(metricOperationsTotal,
		metric.WithDescription("Total number of set operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricOperationsTotal, err)
	}

	opDuration, err := mt.Float64Histogram(metricOperationDuration,
		metric.WithDescription("Set operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricOperationDuration, err)
	}

	errTotal, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Total number of rejected script commands"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	live, err := mt.Int64UpDownCounter(metricLiveNodes,
		metric.WithDescription("Number of tree nodes currently allocated"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricLiveNodes, err)
	}

	return &SetMetrics{
		operationsTotal:   opsTotal,
		operationDuration: opDuration,
		errorsTotal:       errTotal,
		liveNodes:         live,
	}, nil
}

// RecordOperation records a completed operation with its outcome and duration.
func (sm *SetMetrics) RecordOperation(ctx context.Context, op, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrOutcome, outcome),
	)

	sm.operationsTotal.Add(ctx, 1, attrs)
	sm.operationDuration.Record(ctx, duration.Seconds(), attrs)

	if outcome == OutcomeError {
		sm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// RecordError counts a command rejected before it reached a set.
func (sm *SetMetrics) RecordError(ctx context.Context, reason string) {
	sm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, reason)))
}

// AddLiveNodes adjusts the live node count of a set by delta.
func (sm *SetMetrics) AddLiveNodes(ctx context.Context, set string, delta int64) {
	if delta == 0 {
		return
	}

	sm.liveNodes.Add(ctx, delta, metric.WithAttributes(attribute.String(attrSet, set)))
}
