package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Metric attribute keys.
var (
	AttrTrigger      = attribute.Key("trigger")
	AttrOutcome      = attribute.Key("outcome")
	AttrStatus       = attribute.Key("status")
	AttrStep         = attribute.Key("step")
	AttrWebhookTopic = attribute.Key("webhook.topic")
)

// Bucket boundaries in seconds.
var (
	workflowDurationBuckets  = []float64{0.5, 1, 2, 5, 10, 20, 30, 60}
	reconcileDurationBuckets = []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800}
)

// ErrMeterNil is returned by NewSyncMetrics without a meter.
var ErrMeterNil = errors.New("telemetry: meter is nil")

// SyncMetrics records catalog reconciliation, invoicing and webhook activity.
// A nil *SyncMetrics is valid and records nothing.
type SyncMetrics struct {
	logger *zap.Logger

	reconcileRuns     metric.Int64Counter
	reconcileDuration metric.Float64Histogram
	variantOutcomes   metric.Int64Counter
	workflowRuns      metric.Int64Counter
	workflowDuration  metric.Float64Histogram
	webhooks          metric.Int64Counter
	remoteCatalogSize metric.Int64Gauge
}

// SyncMetricsConfig holds configuration for sync metrics.
type SyncMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewSyncMetrics creates the instruments on the given meter.
func NewSyncMetrics(cfg SyncMetricsConfig) (*SyncMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &SyncMetrics{logger: logger}
	meter := cfg.Meter
	var err error

	if m.reconcileRuns, err = meter.Int64Counter("storesync_reconcile_runs_total",
		metric.WithDescription("Total number of catalog reconciliation passes"),
		metric.WithUnit("{runs}"),
	); err != nil {
		return nil, instrumentError("storesync_reconcile_runs_total", err)
	}
	if m.reconcileDuration, err = meter.Float64Histogram("storesync_reconcile_duration_seconds",
		metric.WithDescription("Wall time of catalog reconciliation passes"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(reconcileDurationBuckets...),
	); err != nil {
		return nil, instrumentError("storesync_reconcile_duration_seconds", err)
	}
	if m.variantOutcomes, err = meter.Int64Counter("storesync_variant_outcomes_total",
		metric.WithDescription("Per-variant reconciliation outcomes"),
		metric.WithUnit("{variants}"),
	); err != nil {
		return nil, instrumentError("storesync_variant_outcomes_total", err)
	}
	if m.workflowRuns, err = meter.Int64Counter("storesync_invoice_workflows_total",
		metric.WithDescription("Total number of order invoicing workflows"),
		metric.WithUnit("{orders}"),
	); err != nil {
		return nil, instrumentError("storesync_invoice_workflows_total", err)
	}
	if m.workflowDuration, err = meter.Float64Histogram("storesync_invoice_workflow_duration_seconds",
		metric.WithDescription("Wall time of order invoicing workflows"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(workflowDurationBuckets...),
	); err != nil {
		return nil, instrumentError("storesync_invoice_workflow_duration_seconds", err)
	}
	if m.webhooks, err = meter.Int64Counter("storesync_webhooks_total",
		metric.WithDescription("Inbound storefront webhooks by topic and result"),
		metric.WithUnit("{requests}"),
	); err != nil {
		return nil, instrumentError("storesync_webhooks_total", err)
	}
	if m.remoteCatalogSize, err = meter.Int64Gauge("storesync_remote_catalog_products",
		metric.WithDescription("Products in the invoicing catalog at the last listing"),
		metric.WithUnit("{products}"),
	); err != nil {
		return nil, instrumentError("storesync_remote_catalog_products", err)
	}

	return m, nil
}

func instrumentError(name string, err error) error {
	return fmt.Errorf("failed to create instrument %s: %w", name, err)
}

// RecordReconcileRun records one finished pass.
func (m *SyncMetrics) RecordReconcileRun(ctx context.Context, trigger, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.reconcileRuns.Add(ctx, 1, metric.WithAttributes(AttrTrigger.String(trigger), AttrStatus.String(status)))
	m.reconcileDuration.Record(ctx, d.Seconds(), metric.WithAttributes(AttrTrigger.String(trigger)))
	m.logger.Debug("Recorded reconcile run", zap.String("trigger", trigger), zap.String("status", status))
}

// RecordVariantOutcome records the outcome of one variant.
func (m *SyncMetrics) RecordVariantOutcome(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.variantOutcomes.Add(ctx, 1, metric.WithAttributes(AttrOutcome.String(outcome)))
}

// RecordWorkflow records one finished invoicing workflow. step is the last state reached.
func (m *SyncMetrics) RecordWorkflow(ctx context.Context, status, step string, d time.Duration) {
	if m == nil {
		return
	}
	m.workflowRuns.Add(ctx, 1, metric.WithAttributes(AttrStatus.String(status), AttrStep.String(step)))
	m.workflowDuration.Record(ctx, d.Seconds(), metric.WithAttributes(AttrStatus.String(status)))
}

// RecordRemoteCatalogSize records how many products the last remote listing returned.
func (m *SyncMetrics) RecordRemoteCatalogSize(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.remoteCatalogSize.Record(ctx, int64(n))
}

// RecordWebhook records an inbound webhook.
func (m *SyncMetrics) RecordWebhook(ctx context.Context, topic, result string) {
	if m == nil {
		return
	}
	m.webhooks.Add(ctx, 1, metric.WithAttributes(AttrWebhookTopic.String(topic), AttrOutcome.String(result)))
}
