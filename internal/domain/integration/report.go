package integration

import (
	"time"

	"github.com/google/uuid"
)

// SyncStatus represents the overall status of a reconciliation pass
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "SUCCESS"
	SyncStatusPartial SyncStatus = "PARTIAL"
	SyncStatusFailed  SyncStatus = "FAILED"
)

// ActionKind is the remote mutation planned for a variant.
type ActionKind string

const (
	ActionCreate ActionKind = "create"
	ActionUpdate ActionKind = "update"
	ActionSkip   ActionKind = "skip"
)

// OutcomeKind is the result recorded for a variant.
type OutcomeKind string

const (
	OutcomeCreated OutcomeKind = "created"
	OutcomeUpdated OutcomeKind = "updated"
	OutcomeFailed  OutcomeKind = "failed"
	OutcomeSkipped OutcomeKind = "skipped"
)

// Reasons recorded on skipped outcomes.
const (
	SkipReasonNoBarcode = "no-barcode"
)

// PlannedAction is the decision taken for one variant before any remote mutation.
type PlannedAction struct {
	VariantID   string     `json:"variant_id"`
	ProductCode string     `json:"product_code"`
	Name        string     `json:"name"`
	Action      ActionKind `json:"action"`
	DocumentID  string     `json:"document_id,omitempty"`
	Reason      string     `json:"reason,omitempty"`
}

// PlanAction decides create, update or skip for a variant against the catalog of the current pass.
func PlanAction(catalog *RemoteCatalog, v LocalVariant) PlannedAction {
	pa := PlannedAction{
		VariantID:   v.ID,
		ProductCode: v.ProductCode(),
		Name:        v.DisplayName(),
	}
	if !v.HasBarcode() {
		pa.Action = ActionSkip
		pa.Reason = SkipReasonNoBarcode
		return pa
	}
	match := catalog.Match(v)
	if match.Matched {
		pa.Action = ActionUpdate
		pa.DocumentID = match.DocumentID
		return pa
	}
	pa.Action = ActionCreate
	return pa
}

// VariantOutcome is the per-variant entry of a ReconcileReport.
type VariantOutcome struct {
	VariantID   string      `json:"variant_id"`
	ProductCode string      `json:"product_code"`
	Name        string      `json:"name"`
	Outcome     OutcomeKind `json:"outcome"`
	DocumentID  string      `json:"document_id,omitempty"`
	Reason      string      `json:"reason,omitempty"`
}

// ReconcileReport collects the outcome of every variant visited in one pass.
type ReconcileReport struct {
	RunID      uuid.UUID        `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Outcomes   []VariantOutcome `json:"outcomes"`
	Status     SyncStatus       `json:"status"`
}

// NewReconcileReport starts an empty report.
func NewReconcileReport(startedAt time.Time) *ReconcileReport {
	return &ReconcileReport{
		RunID:     uuid.New(),
		StartedAt: startedAt,
		Outcomes:  make([]VariantOutcome, 0),
	}
}

// Record appends an outcome.
func (r *ReconcileReport) Record(o VariantOutcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// Finish stamps the end time and derives the status.
// All failed → FAILED, some failed → PARTIAL, otherwise SUCCESS.
func (r *ReconcileReport) Finish(finishedAt time.Time) {
	r.FinishedAt = finishedAt
	failed := r.Failed()
	switch {
	case failed == 0:
		r.Status = SyncStatusSuccess
	case failed == len(r.Outcomes)-r.Skipped():
		r.Status = SyncStatusFailed
	default:
		r.Status = SyncStatusPartial
	}
}

func (r *ReconcileReport) count(kind OutcomeKind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Outcome == kind {
			n++
		}
	}
	return n
}

// Created returns the number of created variants
func (r *ReconcileReport) Created() int { return r.count(OutcomeCreated) }

// Updated returns the number of updated variants
func (r *ReconcileReport) Updated() int { return r.count(OutcomeUpdated) }

// Failed returns the number of failed variants
func (r *ReconcileReport) Failed() int { return r.count(OutcomeFailed) }

// Skipped returns the number of skipped variants
func (r *ReconcileReport) Skipped() int { return r.count(OutcomeSkipped) }

// Duration returns the wall time of the pass.
func (r *ReconcileReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
