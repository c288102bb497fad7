package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// PipelineMetrics holds the instruments recorded by pipelines and the
// playback controller. A nil *PipelineMetrics records nothing.
type PipelineMetrics struct {
	busMessages         metric.Int64Counter
	stateChanges        metric.Int64Counter
	stateChangeDuration metric.Float64Histogram
	links               metric.Int64Counter
	seeks               metric.Int64Counter
	queryFailures       metric.Int64Counter
}

// NewPipelineMetrics creates the pipeline instruments on the given meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	busMessages, err := meter.Int64Counter("bus.messages",
		metric.WithDescription("Messages posted on pipeline buses by type"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating bus.messages counter: %w", err)
	}

	stateChanges, err := meter.Int64Counter("pipeline.state_changes",
		metric.WithDescription("State change requests by target state and result"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.state_changes counter: %w", err)
	}

	stateChangeDuration, err := meter.Float64Histogram("pipeline.state_change.duration",
		metric.WithDescription("Time spent in synchronous state change requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.state_change.duration histogram: %w", err)
	}

	links, err := meter.Int64Counter("pipeline.links",
		metric.WithDescription("Pad link attempts by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline.links counter: %w", err)
	}

	seeks, err := meter.Int64Counter("controller.seeks",
		metric.WithDescription("Seeks issued by the playback controller by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating controller.seeks counter: %w", err)
	}

	queryFailures, err := meter.Int64Counter("controller.query_failures",
		metric.WithDescription("Failed position, duration and seeking queries"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating controller.query_failures counter: %w", err)
	}

	return &PipelineMetrics{
		busMessages:         busMessages,
		stateChanges:        stateChanges,
		stateChangeDuration: stateChangeDuration,
		links:               links,
		seeks:               seeks,
		queryFailures:       queryFailures,
	}, nil
}

// NoopPipelineMetrics returns instruments backed by a no-op meter.
func NoopPipelineMetrics() *PipelineMetrics {
	m, _ := NewPipelineMetrics(noop.NewMeterProvider().Meter("noop"))
	return m
}

// RecordMessage counts a bus message.
func (m *PipelineMetrics) RecordMessage(ctx context.Context, messageType string) {
	if m == nil {
		return
	}
	m.busMessages.Add(ctx, 1, metric.WithAttributes(attribute.String("type", messageType)))
}

// RecordStateChange records a state change request and how long it took.
func (m *PipelineMetrics) RecordStateChange(ctx context.Context, target, result string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("target", target),
		attribute.String("result", result),
	)
	m.stateChanges.Add(ctx, 1, attrs)
	m.stateChangeDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("target", target)))
}

// RecordLink counts a pad link attempt.
func (m *PipelineMetrics) RecordLink(ctx context.Context, result string, dynamic bool) {
	if m == nil {
		return
	}
	m.links.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", result),
		attribute.Bool("dynamic", dynamic),
	))
}

// RecordSeek counts a seek issued by the controller.
func (m *PipelineMetrics) RecordSeek(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.seeks.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordQueryFailure counts a failed query.
func (m *PipelineMetrics) RecordQueryFailure(ctx context.Context, query string) {
	if m == nil {
		return
	}
	m.queryFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("query", query)))
}
