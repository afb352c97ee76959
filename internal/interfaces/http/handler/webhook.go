package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	integrationapp "github.com/storesync/backend/internal/application/integration"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"github.com/storesync/backend/internal/infrastructure/telemetry"
	"github.com/storesync/backend/internal/interfaces/http/dto"
	"github.com/storesync/backend/internal/interfaces/http/middleware"
)

// Webhook topics handled by WebhookHandler
const (
	TopicProductsCreate = "products/create"
	TopicProductsUpdate = "products/update"
	TopicOrdersCreate   = "orders/create"
)

// Webhook results recorded in metrics
const (
	webhookProcessed = "processed"
	webhookIgnored   = "ignored"
	webhookInvalid   = "invalid"
	webhookFailed    = "failed"
	// WebhookDuplicate is recorded by the idempotency middleware callback
	WebhookDuplicate = "duplicate"
)

// InvoiceRunner runs the order-to-invoice workflow
type InvoiceRunner interface {
	Run(ctx context.Context, order integration.Order) (*integration.WorkflowResult, error)
}

// WebhookHandler handles storefront webhook deliveries
type WebhookHandler struct {
	BaseHandler
	syncService  CatalogSyncService
	workflow     InvoiceRunner
	metrics      *telemetry.SyncMetrics
	changeWindow time.Duration
	now          func() time.Time
}

// NewWebhookHandler creates a new WebhookHandler. changeWindow bounds how old a
// variant update may be for products/create to act on it.
func NewWebhookHandler(syncService CatalogSyncService, workflow InvoiceRunner, changeWindow time.Duration) *WebhookHandler {
	return &WebhookHandler{
		syncService:  syncService,
		workflow:     workflow,
		changeWindow: changeWindow,
		now:          time.Now,
	}
}

// SetMetrics sets the sync metrics collector
func (h *WebhookHandler) SetMetrics(m *telemetry.SyncMetrics) {
	h.metrics = m
}

// OnDuplicate records a delivery dropped by the idempotency middleware
func (h *WebhookHandler) OnDuplicate(c *gin.Context) {
	topic := c.GetString(middleware.ContextKeyWebhookTopic)
	if topic == "" {
		topic = "unknown"
	}
	h.metrics.RecordWebhook(c.Request.Context(), topic, WebhookDuplicate)
}

// ProductsCreate godoc
//
//	@ID				webhookProductsCreate
//	@Summary		Handle products/create
//	@Description	Creates an invoicing catalog record for every listed variant changed within the change window
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.ProductWebhookRequest	true	"Product payload"
//	@Success		200		{object}	dto.WebhookAck
//	@Failure		400		{object}	dto.Response
//	@Failure		401		{object}	dto.Response
//	@Router			/webhooks/products/create [post]
func (h *WebhookHandler) ProductsCreate(c *gin.Context) {
	var req dto.ProductWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordWebhook(c.Request.Context(), TopicProductsCreate, webhookInvalid)
		h.ValidationError(c, err)
		return
	}

	log := logger.FromGin(c).With(zap.Int64("product_id", req.ID))
	if !req.HasChanges() {
		log.Info("Product webhook without changed variants")
		h.ack(c, TopicProductsCreate, nil)
		return
	}

	variants := integrationapp.FilterRecentlyChanged(req.ToDomain(), req.ChangedVariantIDs(), h.changeWindow, h.now(), log)
	h.syncVariants(c, log, TopicProductsCreate, req.Title, variants, integrationapp.ActionModeCreate)
}

// ProductsUpdate godoc
//
//	@ID				webhookProductsUpdate
//	@Summary		Handle products/update
//	@Description	Overwrites the invoicing catalog record of every listed variant, creating it when missing
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.ProductWebhookRequest	true	"Product payload"
//	@Success		200		{object}	dto.WebhookAck
//	@Failure		400		{object}	dto.Response
//	@Failure		502		{object}	dto.Response
//	@Router			/webhooks/products/update [post]
func (h *WebhookHandler) ProductsUpdate(c *gin.Context) {
	var req dto.ProductWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordWebhook(c.Request.Context(), TopicProductsUpdate, webhookInvalid)
		h.ValidationError(c, err)
		return
	}

	log := logger.FromGin(c).With(zap.Int64("product_id", req.ID))
	if !req.HasChanges() {
		log.Info("Product webhook without changed variants")
		h.ack(c, TopicProductsUpdate, nil)
		return
	}

	variants := integrationapp.SelectChangedVariants(req.ToDomain(), req.ChangedVariantIDs(), log)
	h.syncVariants(c, log, TopicProductsUpdate, req.Title, variants, integrationapp.ActionModeUpdate)
}

func (h *WebhookHandler) syncVariants(
	c *gin.Context,
	log *zap.Logger,
	topic, title string,
	variants []integration.LocalVariant,
	mode integrationapp.ActionMode,
) {
	if len(variants) == 0 {
		log.Info("No variants to sync")
		h.ack(c, topic, nil)
		return
	}

	report, err := h.syncService.SyncVariants(c.Request.Context(), title, variants, mode)
	if err != nil {
		log.Error("Variant sync failed", zap.Error(err))
		h.metrics.RecordWebhook(c.Request.Context(), topic, webhookFailed)
		h.HandleError(c, err)
		return
	}
	h.ack(c, topic, report)
}

func (h *WebhookHandler) ack(c *gin.Context, topic string, report *integration.ReconcileReport) {
	result := webhookProcessed
	if report == nil {
		result = webhookIgnored
	}
	h.metrics.RecordWebhook(c.Request.Context(), topic, result)
	c.JSON(http.StatusOK, dto.NewWebhookAck(report))
}

// OrdersCreate godoc
//
//	@ID				webhookOrdersCreate
//	@Summary		Handle orders/create
//	@Description	Issues an invoice for the order and writes its public URL into the order note
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.OrderWebhookRequest	true	"Order payload"
//	@Success		200		{object}	dto.OrderWebhookResponse
//	@Failure		400		{object}	dto.Response
//	@Failure		422		{object}	dto.OrderWebhookFailure
//	@Failure		500		{object}	dto.OrderWebhookFailure
//	@Router			/webhooks/orders/create [post]
func (h *WebhookHandler) OrdersCreate(c *gin.Context) {
	var req dto.OrderWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordWebhook(c.Request.Context(), TopicOrdersCreate, webhookInvalid)
		h.ValidationError(c, err)
		return
	}

	order := req.ToDomain()
	result, err := h.workflow.Run(c.Request.Context(), order)
	if err != nil {
		h.metrics.RecordWebhook(c.Request.Context(), TopicOrdersCreate, webhookFailed)
		h.orderFailure(c, order, err)
		return
	}

	h.metrics.RecordWebhook(c.Request.Context(), TopicOrdersCreate, webhookProcessed)
	c.JSON(http.StatusOK, dto.OrderWebhookResponse{
		Success:    true,
		OrderID:    order.ID,
		DocumentID: result.Invoice.DocumentID,
		InvoiceURL: result.Invoice.PublicURL,
	})
}

// orderFailure answers 422 for orders that can never be invoiced and 500
// otherwise. A failure after the invoice exists keeps the delivery marked so
// a retry does not issue a second invoice.
func (h *WebhookHandler) orderFailure(c *gin.Context, order integration.Order, err error) {
	_ = c.Error(err)

	body := dto.OrderWebhookFailure{
		Code:       dto.ErrorCodeFor(err),
		Error:      "Invoice workflow failed",
		FailedStep: string(integration.WorkflowStateReceived),
		RequestID:  getRequestID(c),
	}

	var wfErr *integration.WorkflowError
	if errors.As(err, &wfErr) {
		body.FailedStep = string(wfErr.Step)
		body.DocumentID = wfErr.DocumentID
		body.InvoiceOrphaned = wfErr.InvoiceOrphaned
	}

	status := http.StatusInternalServerError
	if errors.Is(err, integration.ErrValidationFailure) {
		status = http.StatusUnprocessableEntity
		body.Error = err.Error()
	}
	if body.InvoiceOrphaned {
		middleware.KeepDelivery(c)
		logger.FromGin(c).Error("Invoice created but order not annotated",
			zap.String("order_id", order.ID),
			zap.String("document_id", body.DocumentID),
			zap.String("failed_step", body.FailedStep),
		)
	}

	c.JSON(status, body)
}
