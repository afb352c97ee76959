package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/interfaces/http/dto"
	"github.com/storesync/backend/internal/interfaces/http/middleware"
)

// BaseHandler is embedded by every handler for the shared response helpers
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	id := c.GetString(middleware.ContextKeyRequestID)
	if id == "" {
		id = c.GetHeader(middleware.HeaderRequestID)
	}
	return id
}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// ValidationError answers a failed request binding
func (h *BaseHandler) ValidationError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// publicMessages are the caller-facing texts per error code. Remote
// response bodies stay in the logs.
var publicMessages = map[string]string{
	dto.ErrCodeSyncInProgress:    "A catalog reconciliation is already running",
	dto.ErrCodeNotConfigured:     "Remote system credentials are not configured",
	dto.ErrCodeRemoteUnavailable: "A remote system is unavailable",
	dto.ErrCodeRemoteRateLimited: "A remote system is unavailable",
	dto.ErrCodeMalformedResponse: "A remote system returned an unexpected response",
}

// HandleError writes the envelope for err. Validation failures echo their
// own message since it describes the caller's input.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	code := dto.ErrorCodeFor(err)
	message, ok := publicMessages[code]
	if errors.Is(err, integration.ErrValidationFailure) {
		message, ok = err.Error(), true
	}
	if !ok {
		message = "An unexpected error occurred"
	}
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}
