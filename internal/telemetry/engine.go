package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EngineMetrics records the output of the index engine.
type EngineMetrics struct {
	index        metric.Int64Histogram
	computed     metric.Int64Counter
	invalid      metric.Int64Counter
	extrapolated metric.Int64Counter
}

// NewEngineMetrics creates the engine instruments on meter.
func NewEngineMetrics(meter metric.Meter) (*EngineMetrics, error) {
	index, err := meter.Int64Histogram(
		"aqi.index",
		metric.WithDescription("Distribution of computed overall index values"),
		metric.WithUnit("{aqi}"),
		metric.WithExplicitBucketBoundaries(0, 50, 100, 150, 200, 300, 400, 500),
	)
	if err != nil {
		return nil, err
	}

	computed, err := meter.Int64Counter(
		"aqi.computed.total",
		metric.WithDescription("Number of computed indices by category"),
		metric.WithUnit("{index}"),
	)
	if err != nil {
		return nil, err
	}

	invalid, err := meter.Int64Counter(
		"aqi.reading.invalid",
		metric.WithDescription("Number of readings that failed validation"),
		metric.WithUnit("{reading}"),
	)
	if err != nil {
		return nil, err
	}

	extrapolated, err := meter.Int64Counter(
		"aqi.subindex.extrapolated",
		metric.WithDescription("Number of sub-indices computed beyond the breakpoint table"),
		metric.WithUnit("{subindex}"),
	)
	if err != nil {
		return nil, err
	}

	return &EngineMetrics{
		index:        index,
		computed:     computed,
		invalid:      invalid,
		extrapolated: extrapolated,
	}, nil
}

// RecordIndex records one computed index.
func (m *EngineMetrics) RecordIndex(ctx context.Context, index int, category string, invalid bool, extrapolated int) {
	attrs := metric.WithAttributes(attribute.String("aqi.category", category))

	m.index.Record(ctx, int64(index), attrs)
	m.computed.Add(ctx, 1, attrs)
	if invalid {
		m.invalid.Add(ctx, 1)
	}
	if extrapolated > 0 {
		m.extrapolated.Add(ctx, int64(extrapolated))
	}
}
