package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storesync/backend/internal/domain/integration"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeTimeout, http.StatusGatewayTimeout},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeRemoteRateLimited, http.StatusServiceUnavailable},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeWebhookSignature, http.StatusUnauthorized},
		{ErrCodeRemoteUnavailable, http.StatusBadGateway},
		{ErrCodeMalformedResponse, http.StatusBadGateway},
		{ErrCodeSyncInProgress, http.StatusConflict},
		{ErrCodeNotConfigured, http.StatusServiceUnavailable},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestErrorCodeFor(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, ""},
		{"sync in progress", integration.ErrSyncInProgress, ErrCodeSyncInProgress},
		{"validation", fmt.Errorf("%w: no id", integration.ErrValidationFailure), ErrCodeValidation},
		{"not configured", integration.ErrNotConfigured, ErrCodeNotConfigured},
		{"rate limited", integration.ErrRateLimited, ErrCodeRemoteRateLimited},
		{"malformed", fmt.Errorf("decode: %w", integration.ErrMalformedResponse), ErrCodeMalformedResponse},
		{
			"remote error",
			fmt.Errorf("list: %w", &integration.RemoteError{Method: "ProductList", Status: 502, Body: "bad gateway"}),
			ErrCodeRemoteUnavailable,
		},
		{
			"workflow error unwraps",
			&integration.WorkflowError{Step: integration.WorkflowStateInvoiceCreated, Err: integration.ErrRemoteUnavailable},
			ErrCodeRemoteUnavailable,
		},
		{"unknown", errors.New("boom"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ErrorCodeFor(tt.err))
		})
	}
}

func TestErrorCodeHTTPStatus_Complete(t *testing.T) {
	codes := []string{
		ErrCodeInternal, ErrCodeTimeout,
		ErrCodeValidation, ErrCodeBadRequest, ErrCodeInvalidJSON, ErrCodeRequestTooLarge,
		ErrCodeWebhookSignature, ErrCodeRateLimited,
		ErrCodeRemoteUnavailable, ErrCodeMalformedResponse, ErrCodeRemoteRateLimited,
		ErrCodeNotConfigured, ErrCodeSyncInProgress,
	}
	assert.Len(t, ErrorCodeHTTPStatus, len(codes))
	for _, code := range codes {
		status, ok := ErrorCodeHTTPStatus[code]
		assert.True(t, ok, "%s has no status", code)
		assert.GreaterOrEqual(t, status, 400, code)
		assert.Regexp(t, `^ERR_[A-Z_]+$`, code)
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeSyncInProgress, "Reconciliation already running", "req-123-456")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeSyncInProgress, resp.Error.Code)
	assert.Equal(t, "Reconciliation already running", resp.Error.Message)
	assert.Equal(t, "req-123-456", resp.Error.RequestID)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "line_items", Message: "is required"},
		{Field: "id", Message: "is required"},
	}

	resp := NewValidationErrorResponse("Validation failed", "req-789", details)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "line_items", resp.Error.Details[0].Field)
}

func TestErrorResponseJSON(t *testing.T) {
	data, err := json.Marshal(NewErrorResponse(ErrCodeInternal, "boom"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.NotContains(t, decoded, "data")
	errObj := decoded["error"].(map[string]any)
	assert.Equal(t, ErrCodeInternal, errObj["code"])
	assert.NotContains(t, errObj, "request_id")
	assert.NotContains(t, errObj, "details")
}
