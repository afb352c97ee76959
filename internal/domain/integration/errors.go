package integration

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Integration Errors
// ---------------------------------------------------------------------------

var (
	// ErrRemoteUnavailable covers network failures and non-success HTTP statuses
	ErrRemoteUnavailable = errors.New("integration: remote system unavailable")
	// ErrMalformedResponse is returned when an expected field is missing from a remote response
	ErrMalformedResponse = errors.New("integration: malformed remote response")
	// ErrValidationFailure is returned when required local data is missing (e.g. no barcode)
	ErrValidationFailure = errors.New("integration: validation failure")
	// ErrRateLimited is returned when the remote system rejects a call for exceeding its rate limit
	ErrRateLimited = errors.New("integration: remote rate limited")
	// ErrSyncInProgress is returned when a reconciliation pass is already running
	ErrSyncInProgress = errors.New("integration: reconciliation already in progress")
	// ErrNotConfigured is returned when a remote client is missing credentials or endpoints
	ErrNotConfigured = errors.New("integration: client not configured")
)

// RemoteError carries the status and body of a non-success remote response.
type RemoteError struct {
	Method string
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("%s returned HTTP %d: %s", e.Method, e.Status, e.Body)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}

// WorkflowError describes which step of the invoicing workflow failed and why.
// It wraps the underlying cause so errors.Is works against the sentinels above.
type WorkflowError struct {
	Step       WorkflowState
	OrderID    string
	DocumentID string
	// InvoiceOrphaned is set when the invoice exists remotely but the order
	// could not be annotated with its URL.
	InvoiceOrphaned bool
	Err             error
}

func (e *WorkflowError) Error() string {
	msg := fmt.Sprintf("invoice workflow for order %s failed at %s", e.OrderID, e.Step)
	if e.DocumentID != "" {
		msg += fmt.Sprintf(" (document %s)", e.DocumentID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}
