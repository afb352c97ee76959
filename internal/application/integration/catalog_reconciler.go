package integration

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/telemetry"
)

// ActionMode selects how webhook-driven variants are pushed to the invoicing system.
type ActionMode string

const (
	// ActionModeCreate always creates, without consulting the remote catalog
	ActionModeCreate ActionMode = "create"
	// ActionModeUpdate updates the matched record and falls back to create when unmatched
	ActionModeUpdate ActionMode = "update"
	// ActionModeUpsert applies the same matching as a full pass
	ActionModeUpsert ActionMode = "upsert"
)

// Reconciliation triggers, used for logging and metrics.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerCLI       = "cli"
	TriggerWebhook   = "webhook"
)

// CatalogReconciler drives the invoicing catalog towards the storefront catalog.
// Items are processed sequentially; per-item failures are recorded, not propagated.
type CatalogReconciler struct {
	invoicing  integration.InvoicingClient
	storefront integration.StorefrontClient
	logger     *zap.Logger
	metrics    *telemetry.SyncMetrics
	now        func() time.Time

	// running guards full passes so overlapping triggers do not interleave
	running atomic.Bool
}

// NewCatalogReconciler creates a new CatalogReconciler
func NewCatalogReconciler(
	invoicing integration.InvoicingClient,
	storefront integration.StorefrontClient,
	logger *zap.Logger,
) *CatalogReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogReconciler{
		invoicing:  invoicing,
		storefront: storefront,
		logger:     logger,
		now:        time.Now,
	}
}

// SetMetrics sets the sync metrics collector
func (r *CatalogReconciler) SetMetrics(m *telemetry.SyncMetrics) {
	r.metrics = m
}

// IsRunning reports whether a full pass is in progress
func (r *CatalogReconciler) IsRunning() bool {
	return r.running.Load()
}

// SyncCatalog fetches the storefront catalog and reconciles it. Only one
// SyncCatalog runs at a time; a concurrent caller gets ErrSyncInProgress.
func (r *CatalogReconciler) SyncCatalog(ctx context.Context, trigger string) (*integration.ReconcileReport, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, integration.ErrSyncInProgress
	}
	defer r.running.Store(false)

	started := r.now()
	products, err := r.storefront.ListProducts(ctx)
	if err != nil {
		r.metrics.RecordReconcileRun(ctx, trigger, string(integration.SyncStatusFailed), r.now().Sub(started))
		return nil, fmt.Errorf("fetch storefront catalog: %w", err)
	}

	report, err := r.Reconcile(ctx, products)
	if report != nil {
		r.metrics.RecordReconcileRun(ctx, trigger, string(report.Status), report.Duration())
	} else {
		r.metrics.RecordReconcileRun(ctx, trigger, string(integration.SyncStatusFailed), r.now().Sub(started))
	}
	return report, err
}

// Reconcile runs one pass over localProducts against a single fresh listing of
// the remote catalog. Unmatched variants are created, matched ones fully
// overwritten, variants without a barcode skipped. A failure of the remote
// listing aborts the pass. If ctx is cancelled mid-pass the partial report is
// returned together with ctx.Err().
func (r *CatalogReconciler) Reconcile(ctx context.Context, localProducts []integration.LocalProduct) (*integration.ReconcileReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "reconcile")
	defer span.End()

	report := integration.NewReconcileReport(r.now())
	telemetry.SetAttributes(span, telemetry.SpanAttrRunID, report.RunID.String())
	log := r.logger.With(zap.String("run_id", report.RunID.String()))

	remote, err := r.invoicing.ListProducts(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("Failed to fetch remote catalog", zap.Error(err))
		return nil, fmt.Errorf("fetch remote catalog: %w", err)
	}
	catalog := integration.NewRemoteCatalog(remote)
	r.metrics.RecordRemoteCatalogSize(ctx, catalog.Len())
	log.Info("Reconciliation started",
		zap.Int("local_products", len(localProducts)),
		zap.Int("remote_products", catalog.Len()),
	)

	for _, product := range localProducts {
		for _, variant := range product.Variants {
			if err := ctx.Err(); err != nil {
				report.Finish(r.now())
				telemetry.RecordError(span, err)
				log.Warn("Reconciliation interrupted", zap.Error(err), zap.Int("processed", len(report.Outcomes)))
				return report, err
			}
			if variant.ProductTitle == "" {
				variant.ProductTitle = product.Title
			}
			report.Record(r.apply(ctx, log, catalog, variant, ActionModeUpsert))
		}
	}

	report.Finish(r.now())
	telemetry.SetAttributes(span,
		"created", report.Created(),
		"updated", report.Updated(),
		"failed", report.Failed(),
		"skipped", report.Skipped(),
	)
	log.Info("Reconciliation finished",
		zap.String("status", string(report.Status)),
		zap.Int("created", report.Created()),
		zap.Int("updated", report.Updated()),
		zap.Int("failed", report.Failed()),
		zap.Int("skipped", report.Skipped()),
		zap.Duration("duration", report.Duration()),
	)
	return report, nil
}

// SyncVariants applies the per-variant logic to a webhook payload.
// ActionModeCreate issues no listing call; the other modes list the remote catalog once.
func (r *CatalogReconciler) SyncVariants(
	ctx context.Context,
	productTitle string,
	variants []integration.LocalVariant,
	mode ActionMode,
) (*integration.ReconcileReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "sync_variants",
		telemetry.WithAttribute(telemetry.SpanAttrAction, string(mode)),
	)
	defer span.End()

	report := integration.NewReconcileReport(r.now())
	log := r.logger.With(zap.String("run_id", report.RunID.String()), zap.String("mode", string(mode)))

	var catalog *integration.RemoteCatalog
	if mode != ActionModeCreate {
		remote, err := r.invoicing.ListProducts(ctx)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("fetch remote catalog: %w", err)
		}
		catalog = integration.NewRemoteCatalog(remote)
	}

	for _, variant := range variants {
		if err := ctx.Err(); err != nil {
			report.Finish(r.now())
			return report, err
		}
		if variant.ProductTitle == "" {
			variant.ProductTitle = productTitle
		}
		report.Record(r.apply(ctx, log, catalog, variant, mode))
	}

	report.Finish(r.now())
	log.Info("Variant sync finished",
		zap.Int("variants", len(variants)),
		zap.Int("created", report.Created()),
		zap.Int("updated", report.Updated()),
		zap.Int("failed", report.Failed()),
		zap.Int("skipped", report.Skipped()),
	)
	return report, nil
}

// Plan computes the action for every storefront variant without mutating anything.
func (r *CatalogReconciler) Plan(ctx context.Context) (*PlanResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "plan")
	defer span.End()

	products, err := r.storefront.ListProducts(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("fetch storefront catalog: %w", err)
	}
	remote, err := r.invoicing.ListProducts(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("fetch remote catalog: %w", err)
	}
	catalog := integration.NewRemoteCatalog(remote)

	result := &PlanResult{
		GeneratedAt:    r.now(),
		RemoteProducts: catalog.Len(),
		Actions:        make([]integration.PlannedAction, 0),
	}
	for _, product := range products {
		for _, variant := range product.Variants {
			if variant.ProductTitle == "" {
				variant.ProductTitle = product.Title
			}
			result.add(integration.PlanAction(catalog, variant))
		}
	}
	return result, nil
}

// apply performs the remote mutation for one variant and returns its outcome.
func (r *CatalogReconciler) apply(
	ctx context.Context,
	log *zap.Logger,
	catalog *integration.RemoteCatalog,
	variant integration.LocalVariant,
	mode ActionMode,
) integration.VariantOutcome {
	planned := integration.PlanAction(catalog, variant)
	if mode == ActionModeCreate && planned.Action == integration.ActionUpdate {
		planned.Action = integration.ActionCreate
		planned.DocumentID = ""
	}
	if mode == ActionModeUpdate && planned.Action == integration.ActionCreate {
		log.Warn("Variant not in remote catalog, creating instead of updating",
			zap.String("variant_id", variant.ID),
			zap.String("product_code", planned.ProductCode),
		)
	}

	outcome := integration.VariantOutcome{
		VariantID:   planned.VariantID,
		ProductCode: planned.ProductCode,
		Name:        planned.Name,
		DocumentID:  planned.DocumentID,
	}

	switch planned.Action {
	case integration.ActionSkip:
		log.Warn("Skipping variant without barcode",
			zap.String("variant_id", variant.ID),
			zap.String("name", planned.Name),
		)
		outcome.Outcome = integration.OutcomeSkipped
		outcome.Reason = planned.Reason

	case integration.ActionCreate:
		product, err := integration.NewRemoteProduct(variant)
		if err == nil {
			outcome.DocumentID, err = r.invoicing.CreateProduct(ctx, product)
		}
		if err != nil {
			r.fail(log, &outcome, "create", err)
			break
		}
		log.Info("Created remote product", zap.String("product_code", outcome.ProductCode), zap.String("name", outcome.Name))
		outcome.Outcome = integration.OutcomeCreated

	case integration.ActionUpdate:
		product, err := integration.NewRemoteProduct(variant)
		if err == nil {
			product.DocumentID = planned.DocumentID
			err = r.invoicing.UpdateProduct(ctx, product)
		}
		if err != nil {
			r.fail(log, &outcome, "update", err)
			break
		}
		log.Info("Updated remote product",
			zap.String("product_code", outcome.ProductCode),
			zap.String("document_id", outcome.DocumentID),
		)
		outcome.Outcome = integration.OutcomeUpdated
	}

	r.metrics.RecordVariantOutcome(ctx, string(outcome.Outcome))
	return outcome
}

func (r *CatalogReconciler) fail(log *zap.Logger, outcome *integration.VariantOutcome, action string, err error) {
	fields := []zap.Field{
		zap.String("action", action),
		zap.String("variant_id", outcome.VariantID),
		zap.String("product_code", outcome.ProductCode),
		zap.Error(err),
	}
	var remoteErr *integration.RemoteError
	if errors.As(err, &remoteErr) {
		fields = append(fields, zap.Int("status", remoteErr.Status), zap.String("response_body", remoteErr.Body))
	}
	log.Error("Remote product "+action+" failed", fields...)

	outcome.Outcome = integration.OutcomeFailed
	outcome.Reason = err.Error()
}
