package handler

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/storesync/backend/internal/infrastructure/scheduler"
	"github.com/storesync/backend/internal/interfaces/http/dto"
)

// SyncStatusSource reports whether a full reconciliation pass is running
type SyncStatusSource interface {
	IsRunning() bool
}

// ScheduleSource exposes the periodic reconciliation state
type ScheduleSource interface {
	IsRunning() bool
	History(limit int) []scheduler.RunRecord
}

// SystemHandler handles health and runtime information endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	syncer    SyncStatusSource
	schedule  ScheduleSource
}

// NewSystemHandler creates a new SystemHandler. syncer and schedule may be nil.
func NewSystemHandler(name, version string, syncer SyncStatusSource, schedule ScheduleSource) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		syncer:    syncer,
		schedule:  schedule,
	}
}

// HealthResponse represents the liveness response
type HealthResponse struct {
	Status      string `json:"status" example:"healthy"`
	Timestamp   string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
	SyncRunning bool   `json:"sync_running"`
}

// Health godoc
//
//	@ID				getHealth
//	@Summary		Liveness probe
//	@Description	Returns 200 while the process is serving requests
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		SyncRunning: h.syncer != nil && h.syncer.IsRunning(),
	})
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name             string `json:"name" example:"storesync"`
	Version          string `json:"version" example:"1.0.0"`
	GoVersion        string `json:"go_version" example:"go1.25.5"`
	Uptime           string `json:"uptime" example:"1h30m45s"`
	SyncRunning      bool   `json:"sync_running"`
	SchedulerEnabled bool   `json:"scheduler_enabled"`
	SchedulerRunning bool   `json:"scheduler_running"`
}

// GetSystemInfo godoc
//
//	@ID				getSystemInfo
//	@Summary		Get system information
//	@Description	Returns version, uptime and reconciliation state
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	dto.Response{data=SystemInfoResponse}
//	@Router			/system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:             h.name,
		Version:          h.version,
		GoVersion:        runtime.Version(),
		Uptime:           time.Since(h.startTime).Round(time.Second).String(),
		SyncRunning:      h.syncer != nil && h.syncer.IsRunning(),
		SchedulerEnabled: h.schedule != nil,
		SchedulerRunning: h.schedule != nil && h.schedule.IsRunning(),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// ScheduleHistoryResponse lists recent scheduled passes, newest first
type ScheduleHistoryResponse struct {
	Running bool                  `json:"running"`
	Runs    []scheduler.RunRecord `json:"runs"`
}

// GetScheduleHistory godoc
//
//	@ID				getScheduleHistory
//	@Summary		List recent scheduled reconciliation passes
//	@Tags			system
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum records"	default(20)
//	@Success		200		{object}	dto.Response{data=ScheduleHistoryResponse}
//	@Failure		503		{object}	dto.Response
//	@Router			/system/schedule [get]
func (h *SystemHandler) GetScheduleHistory(c *gin.Context) {
	if h.schedule == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeNotConfigured, "Scheduled reconciliation is disabled")
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs := h.schedule.History(limit)
	if runs == nil {
		runs = make([]scheduler.RunRecord, 0)
	}
	h.Success(c, ScheduleHistoryResponse{
		Running: h.schedule.IsRunning(),
		Runs:    runs,
	})
}
