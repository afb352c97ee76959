package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	integrationapp "github.com/storesync/backend/internal/application/integration"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/logger"
)

// CatalogSyncService is the reconciliation surface used by the HTTP layer
type CatalogSyncService interface {
	SyncCatalog(ctx context.Context, trigger string) (*integration.ReconcileReport, error)
	Plan(ctx context.Context) (*integrationapp.PlanResult, error)
	SyncVariants(ctx context.Context, productTitle string, variants []integration.LocalVariant, mode integrationapp.ActionMode) (*integration.ReconcileReport, error)
}

// SyncHandler exposes manual catalog reconciliation
type SyncHandler struct {
	BaseHandler
	syncService CatalogSyncService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(syncService CatalogSyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// SyncProducts godoc
//
//	@ID				syncProducts
//	@Summary		Run a full catalog reconciliation
//	@Description	Pushes every storefront variant to the invoicing catalog and returns the per-variant outcomes
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	dto.Response{data=integrationapp.ReconcileSummary}
//	@Failure		409	{object}	dto.Response
//	@Failure		502	{object}	dto.Response
//	@Router			/sync-products [get]
func (h *SyncHandler) SyncProducts(c *gin.Context) {
	report, err := h.syncService.SyncCatalog(c.Request.Context(), integrationapp.TriggerManual)
	if err != nil {
		logger.FromGin(c).Error("Manual reconciliation failed", zap.Error(err))
		h.HandleError(c, err)
		return
	}

	h.Success(c, integrationapp.ToReconcileSummary(report))
}

// PreviewSync godoc
//
//	@ID				previewSyncProducts
//	@Summary		Preview a catalog reconciliation
//	@Description	Lists the action a full pass would take for every variant without changing anything
//	@Tags			sync
//	@Produce		json
//	@Success		200	{object}	dto.Response{data=integrationapp.PlanResult}
//	@Failure		502	{object}	dto.Response
//	@Router			/sync-products/preview [get]
func (h *SyncHandler) PreviewSync(c *gin.Context) {
	plan, err := h.syncService.Plan(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("Reconciliation preview failed", zap.Error(err))
		h.HandleError(c, err)
		return
	}

	h.Success(c, plan)
}
