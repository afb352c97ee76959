package dto

import (
	"errors"
	"net/http"

	"github.com/storesync/backend/internal/domain/integration"
)

// API error codes carried in ErrorInfo.Code
const (
	ErrCodeInternal = "ERR_INTERNAL"
	ErrCodeTimeout  = "ERR_TIMEOUT"

	// request shape
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"

	// ErrCodeWebhookSignature rejects a delivery whose HMAC is missing or wrong
	ErrCodeWebhookSignature = "ERR_WEBHOOK_SIGNATURE"
	// ErrCodeRateLimited is our own inbound limiter
	ErrCodeRateLimited = "ERR_RATE_LIMITED"

	// remote systems
	ErrCodeRemoteUnavailable = "ERR_REMOTE_UNAVAILABLE"
	ErrCodeMalformedResponse = "ERR_MALFORMED_RESPONSE"
	// ErrCodeRemoteRateLimited means Shopify or e-Računi throttled us
	ErrCodeRemoteRateLimited = "ERR_REMOTE_RATE_LIMITED"
	ErrCodeNotConfigured     = "ERR_NOT_CONFIGURED"
	ErrCodeSyncInProgress    = "ERR_SYNC_IN_PROGRESS"
)

// ErrorCodeHTTPStatus is the response status for each error code
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,
	ErrCodeTimeout:  http.StatusGatewayTimeout,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeWebhookSignature: http.StatusUnauthorized,
	ErrCodeRateLimited:      http.StatusTooManyRequests,

	ErrCodeRemoteUnavailable: http.StatusBadGateway,
	ErrCodeMalformedResponse: http.StatusBadGateway,
	ErrCodeRemoteRateLimited: http.StatusServiceUnavailable,
	ErrCodeNotConfigured:     http.StatusServiceUnavailable,
	ErrCodeSyncInProgress:    http.StatusConflict,
}

// GetHTTPStatus looks code up in ErrorCodeHTTPStatus, defaulting to 500
func GetHTTPStatus(code string) int {
	status, ok := ErrorCodeHTTPStatus[code]
	if !ok {
		return http.StatusInternalServerError
	}
	return status
}

// sentinelCodes is checked in order; the first errors.Is match wins
var sentinelCodes = []struct {
	target error
	code   string
}{
	{integration.ErrSyncInProgress, ErrCodeSyncInProgress},
	{integration.ErrValidationFailure, ErrCodeValidation},
	{integration.ErrNotConfigured, ErrCodeNotConfigured},
	{integration.ErrRateLimited, ErrCodeRemoteRateLimited},
	{integration.ErrMalformedResponse, ErrCodeMalformedResponse},
	{integration.ErrRemoteUnavailable, ErrCodeRemoteUnavailable},
}

// ErrorCodeFor classifies err, following wrapping. Any *RemoteError not
// matched by a sentinel is ErrCodeRemoteUnavailable; the rest is internal.
func ErrorCodeFor(err error) string {
	if err == nil {
		return ""
	}
	for _, sc := range sentinelCodes {
		if errors.Is(err, sc.target) {
			return sc.code
		}
	}
	var remoteErr *integration.RemoteError
	if errors.As(err, &remoteErr) {
		return ErrCodeRemoteUnavailable
	}
	return ErrCodeInternal
}
