package integration

import (
	"fmt"
	"time"
)

// WorkflowState is a state of the order-to-invoice workflow
type WorkflowState string

const (
	WorkflowStateReceived               WorkflowState = "RECEIVED"
	WorkflowStateInvoiceCreateRequested WorkflowState = "INVOICE_CREATE_REQUESTED"
	WorkflowStateInvoiceCreated         WorkflowState = "INVOICE_CREATED"
	WorkflowStatePublicURLRequested     WorkflowState = "PUBLIC_URL_REQUESTED"
	WorkflowStatePublicURLResolved      WorkflowState = "PUBLIC_URL_RESOLVED"
	WorkflowStateOrderAnnotated         WorkflowState = "ORDER_ANNOTATED"
	WorkflowStateFailed                 WorkflowState = "FAILED"
)

// next holds the single successful transition out of each non-terminal state.
var next = map[WorkflowState]WorkflowState{
	WorkflowStateReceived:               WorkflowStateInvoiceCreateRequested,
	WorkflowStateInvoiceCreateRequested: WorkflowStateInvoiceCreated,
	WorkflowStateInvoiceCreated:         WorkflowStatePublicURLRequested,
	WorkflowStatePublicURLRequested:     WorkflowStatePublicURLResolved,
	WorkflowStatePublicURLResolved:      WorkflowStateOrderAnnotated,
}

// IsTerminal returns true for ORDER_ANNOTATED and FAILED
func (s WorkflowState) IsTerminal() bool {
	return s == WorkflowStateOrderAnnotated || s == WorkflowStateFailed
}

// CanTransitionTo returns true if the workflow may move from s to target.
// FAILED is reachable from any non-terminal state.
func (s WorkflowState) CanTransitionTo(target WorkflowState) bool {
	if s.IsTerminal() {
		return false
	}
	if target == WorkflowStateFailed {
		return true
	}
	return next[s] == target
}

func (s WorkflowState) String() string {
	return string(s)
}

// StepRecord is one entry of the workflow history.
type StepRecord struct {
	State WorkflowState `json:"state"`
	At    time.Time     `json:"at"`
}

// WorkflowResult records how far a single order got through the workflow.
type WorkflowResult struct {
	OrderID    string        `json:"order_id"`
	State      WorkflowState `json:"state"`
	History    []StepRecord  `json:"history"`
	Invoice    Invoice       `json:"invoice"`
	FailedStep WorkflowState `json:"failed_step,omitempty"`
}

// NewWorkflowResult starts a result in RECEIVED.
func NewWorkflowResult(orderID string, at time.Time) *WorkflowResult {
	return &WorkflowResult{
		OrderID: orderID,
		State:   WorkflowStateReceived,
		History: []StepRecord{{State: WorkflowStateReceived, At: at}},
	}
}

// Advance moves the workflow to target, rejecting illegal transitions.
func (r *WorkflowResult) Advance(target WorkflowState, at time.Time) error {
	if !r.State.CanTransitionTo(target) {
		return fmt.Errorf("illegal workflow transition %s -> %s", r.State, target)
	}
	r.State = target
	r.History = append(r.History, StepRecord{State: target, At: at})
	return nil
}

// Fail moves the workflow to FAILED and remembers the step that was in flight.
func (r *WorkflowResult) Fail(at time.Time) {
	if r.State.IsTerminal() {
		return
	}
	r.FailedStep = r.State
	r.State = WorkflowStateFailed
	r.History = append(r.History, StepRecord{State: WorkflowStateFailed, At: at})
}

// Succeeded returns true once the order has been annotated
func (r *WorkflowResult) Succeeded() bool {
	return r.State == WorkflowStateOrderAnnotated
}
