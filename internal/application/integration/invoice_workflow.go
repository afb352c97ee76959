package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/telemetry"
)

// InvoiceWorkflow turns a completed order into an invoice and writes the
// invoice's public URL back onto the order. Steps run strictly in sequence
// and the first failure aborts the run; there is no compensation.
type InvoiceWorkflow struct {
	invoicing        integration.InvoicingClient
	storefront       integration.StorefrontClient
	cashRegisterCode string
	logger           *zap.Logger
	metrics          *telemetry.SyncMetrics
	now              func() time.Time
}

// NewInvoiceWorkflow creates a new InvoiceWorkflow
func NewInvoiceWorkflow(
	invoicing integration.InvoicingClient,
	storefront integration.StorefrontClient,
	cashRegisterCode string,
	logger *zap.Logger,
) *InvoiceWorkflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceWorkflow{
		invoicing:        invoicing,
		storefront:       storefront,
		cashRegisterCode: cashRegisterCode,
		logger:           logger,
		now:              time.Now,
	}
}

// SetMetrics sets the sync metrics collector
func (w *InvoiceWorkflow) SetMetrics(m *telemetry.SyncMetrics) {
	w.metrics = m
}

// Run executes the workflow for one order. The returned result is never nil;
// on failure it is in FAILED and the error is a *WorkflowError.
func (w *InvoiceWorkflow) Run(ctx context.Context, order integration.Order) (*integration.WorkflowResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice_workflow", "run",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, order.ID),
	)
	defer span.End()

	started := w.now()
	result := integration.NewWorkflowResult(order.ID, started)
	log := w.logger.With(zap.String("order_id", order.ID), zap.String("order_name", order.Name))

	fail := func(cause error) (*integration.WorkflowResult, error) {
		wfErr := &integration.WorkflowError{
			Step:            result.State,
			OrderID:         order.ID,
			DocumentID:      result.Invoice.DocumentID,
			InvoiceOrphaned: result.Invoice.DocumentID != "",
			Err:             cause,
		}
		result.Fail(w.now())

		fields := []zap.Field{
			zap.String("step", string(wfErr.Step)),
			zap.String("document_id", wfErr.DocumentID),
			zap.Bool("invoice_orphaned", wfErr.InvoiceOrphaned),
			zap.Error(cause),
		}
		var remoteErr *integration.RemoteError
		if errors.As(cause, &remoteErr) {
			fields = append(fields, zap.Int("status", remoteErr.Status), zap.String("response_body", remoteErr.Body))
		}
		log.Error("Invoice workflow failed", fields...)

		telemetry.SetAttributes(span, telemetry.SpanAttrStep, string(wfErr.Step))
		telemetry.RecordError(span, wfErr)
		w.metrics.RecordWorkflow(ctx, "failed", string(wfErr.Step), w.now().Sub(started))
		return result, wfErr
	}

	if err := validateOrder(order); err != nil {
		return fail(err)
	}

	// Step 1: create the invoice
	if err := result.Advance(integration.WorkflowStateInvoiceCreateRequested, w.now()); err != nil {
		return fail(err)
	}
	documentID, err := w.invoicing.CreateSalesInvoice(ctx, integration.NewSalesInvoice(order, w.cashRegisterCode))
	if err != nil {
		return fail(err)
	}

	// Step 2: the response must carry a document ID
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return fail(fmt.Errorf("%w: invoice create response has no document ID", integration.ErrMalformedResponse))
	}
	result.Invoice.DocumentID = documentID
	if err := result.Advance(integration.WorkflowStateInvoiceCreated, w.now()); err != nil {
		return fail(err)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrDocumentID, documentID)
	log.Info("Invoice created", zap.String("document_id", documentID))

	// Step 3: resolve the public URL
	if err := result.Advance(integration.WorkflowStatePublicURLRequested, w.now()); err != nil {
		return fail(err)
	}
	publicURL, err := w.invoicing.GetInvoicePublicURL(ctx, documentID)
	if err != nil {
		return fail(err)
	}
	publicURL = strings.TrimSpace(publicURL)
	if publicURL == "" {
		return fail(fmt.Errorf("%w: public URL response is empty", integration.ErrMalformedResponse))
	}
	result.Invoice.PublicURL = publicURL
	if err := result.Advance(integration.WorkflowStatePublicURLResolved, w.now()); err != nil {
		return fail(err)
	}

	// Step 4: annotate the order, only for a confirmed invoice
	if !result.Invoice.Confirmed() {
		return fail(fmt.Errorf("%w: invoice is not confirmed", integration.ErrMalformedResponse))
	}
	if err := w.storefront.AnnotateOrder(ctx, order.ID, integration.InvoiceNote(publicURL)); err != nil {
		return fail(err)
	}
	if err := result.Advance(integration.WorkflowStateOrderAnnotated, w.now()); err != nil {
		return fail(err)
	}

	telemetry.SetOK(span)
	w.metrics.RecordWorkflow(ctx, "succeeded", string(result.State), w.now().Sub(started))
	log.Info("Order annotated with invoice URL",
		zap.String("document_id", documentID),
		zap.String("public_url", publicURL),
	)
	return result, nil
}

func validateOrder(order integration.Order) error {
	if strings.TrimSpace(order.ID) == "" {
		return fmt.Errorf("%w: order ID is required", integration.ErrValidationFailure)
	}
	if len(order.LineItems) == 0 {
		return fmt.Errorf("%w: order has no line items", integration.ErrValidationFailure)
	}
	for i, li := range order.LineItems {
		if strings.TrimSpace(li.ProductCode) == "" {
			return fmt.Errorf("%w: line item %d has no product code", integration.ErrValidationFailure, i)
		}
		if li.Quantity <= 0 {
			return fmt.Errorf("%w: line item %d has non-positive quantity", integration.ErrValidationFailure, i)
		}
	}
	return nil
}
