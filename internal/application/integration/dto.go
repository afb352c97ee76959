package integration

import (
	"time"

	"github.com/storesync/backend/internal/domain/integration"
)

// PlanResult is the dry-run preview of a reconciliation pass
type PlanResult struct {
	GeneratedAt    time.Time                   `json:"generated_at"`
	RemoteProducts int                         `json:"remote_products"`
	ToCreate       int                         `json:"to_create"`
	ToUpdate       int                         `json:"to_update"`
	ToSkip         int                         `json:"to_skip"`
	Actions        []integration.PlannedAction `json:"actions"`
}

func (p *PlanResult) add(a integration.PlannedAction) {
	switch a.Action {
	case integration.ActionCreate:
		p.ToCreate++
	case integration.ActionUpdate:
		p.ToUpdate++
	case integration.ActionSkip:
		p.ToSkip++
	}
	p.Actions = append(p.Actions, a)
}

// ReconcileSummary is the condensed form of a ReconcileReport returned by triggers
type ReconcileSummary struct {
	RunID      string                       `json:"run_id"`
	Status     string                       `json:"status"`
	StartedAt  time.Time                    `json:"started_at"`
	FinishedAt time.Time                    `json:"finished_at"`
	DurationMS int64                        `json:"duration_ms"`
	Created    int                          `json:"created"`
	Updated    int                          `json:"updated"`
	Failed     int                          `json:"failed"`
	Skipped    int                          `json:"skipped"`
	Outcomes   []integration.VariantOutcome `json:"outcomes"`
}

// ToReconcileSummary converts a report into its response form
func ToReconcileSummary(r *integration.ReconcileReport) ReconcileSummary {
	if r == nil {
		return ReconcileSummary{Outcomes: make([]integration.VariantOutcome, 0)}
	}
	return ReconcileSummary{
		RunID:      r.RunID.String(),
		Status:     string(r.Status),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		DurationMS: r.Duration().Milliseconds(),
		Created:    r.Created(),
		Updated:    r.Updated(),
		Failed:     r.Failed(),
		Skipped:    r.Skipped(),
		Outcomes:   r.Outcomes,
	}
}
