// Package scheduler runs catalog reconciliation on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/storesync/backend/internal/domain/integration"
)

// CatalogSyncer runs one full reconciliation pass
type CatalogSyncer interface {
	SyncCatalog(ctx context.Context, trigger string) (*integration.ReconcileReport, error)
}

// TriggerScheduled tags passes started by the ticker
const TriggerScheduled = "scheduled"

// ErrInvalidConfig wraps every ReconcileSchedulerConfig.Validate failure
var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

// ReconcileSchedulerConfig holds configuration for the reconcile scheduler
type ReconcileSchedulerConfig struct {
	// Interval between the start of two passes
	Interval time.Duration
	// RunTimeout bounds a single pass
	RunTimeout time.Duration
	// RunOnStart triggers a pass immediately after Start
	RunOnStart bool
	// MaxHistory is the number of run records kept for monitoring
	MaxHistory int
}

// DefaultReconcileSchedulerConfig returns default configuration
func DefaultReconcileSchedulerConfig() ReconcileSchedulerConfig {
	return ReconcileSchedulerConfig{
		Interval:   6 * time.Hour,
		RunTimeout: 2 * time.Hour,
		MaxHistory: 50,
	}
}

// Validate validates the configuration
func (c *ReconcileSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.RunTimeout <= 0 {
		return fmt.Errorf("%w: run timeout must be positive", ErrInvalidConfig)
	}
	if c.MaxHistory <= 0 {
		c.MaxHistory = 50
	}
	return nil
}

// RunRecord summarizes one scheduled pass
type RunRecord struct {
	Trigger    string                 `json:"trigger"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Status     integration.SyncStatus `json:"status,omitempty"`
	Created    int                    `json:"created"`
	Updated    int                    `json:"updated"`
	Failed     int                    `json:"failed"`
	Skipped    int                    `json:"skipped"`
	Error      string                 `json:"error,omitempty"`
	// Overlapped is set when the pass was dropped because another was running
	Overlapped bool `json:"overlapped,omitempty"`
}

// ReconcileScheduler triggers SyncCatalog every Interval. A tick that lands
// while a pass is still running is dropped, not queued.
type ReconcileScheduler struct {
	config ReconcileSchedulerConfig
	syncer CatalogSyncer
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	historyMu sync.RWMutex
	history   []RunRecord
}

// NewReconcileScheduler creates a new reconcile scheduler
func NewReconcileScheduler(config ReconcileSchedulerConfig, syncer CatalogSyncer, logger *zap.Logger) (*ReconcileScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReconcileScheduler{
		config:  config,
		syncer:  syncer,
		logger:  logger.With(zap.String("component", "reconcile_scheduler")),
		history: make([]RunRecord, 0, config.MaxHistory),
	}, nil
}

// Start starts the ticker loop
func (s *ReconcileScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Reconcile scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("run_timeout", s.config.RunTimeout),
		zap.Bool("run_on_start", s.config.RunOnStart),
	)
	return nil
}

// Stop cancels the loop and any pass in flight, then waits for it to exit
func (s *ReconcileScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Reconcile scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Reconcile scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (s *ReconcileScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *ReconcileScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.runOnce(ctx, TriggerScheduled)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, TriggerScheduled)
		}
	}
}

// runOnce executes a single pass bounded by RunTimeout and records it
func (s *ReconcileScheduler) runOnce(ctx context.Context, trigger string) RunRecord {
	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	record := RunRecord{Trigger: trigger, StartedAt: time.Now()}
	report, err := s.syncer.SyncCatalog(runCtx, trigger)
	record.FinishedAt = time.Now()

	if report != nil {
		record.Status = report.Status
		record.Created = report.Created()
		record.Updated = report.Updated()
		record.Failed = report.Failed()
		record.Skipped = report.Skipped()
	}

	switch {
	case errors.Is(err, integration.ErrSyncInProgress):
		record.Overlapped = true
		s.logger.Warn("Skipping scheduled reconciliation, previous pass still running")
	case err != nil:
		record.Error = err.Error()
		s.logger.Error("Scheduled reconciliation failed", zap.Error(err), zap.Duration("elapsed", record.FinishedAt.Sub(record.StartedAt)))
	default:
		s.logger.Info("Scheduled reconciliation completed",
			zap.String("status", string(record.Status)),
			zap.Int("created", record.Created),
			zap.Int("updated", record.Updated),
			zap.Int("failed", record.Failed),
			zap.Int("skipped", record.Skipped),
		)
	}

	s.addToHistory(record)
	return record
}

func (s *ReconcileScheduler) addToHistory(record RunRecord) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]RunRecord{record}, s.history...)
	if len(s.history) > s.config.MaxHistory {
		s.history = s.history[:s.config.MaxHistory]
	}
}

// History returns the most recent run records, newest first
func (s *ReconcileScheduler) History(limit int) []RunRecord {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	result := make([]RunRecord, limit)
	copy(result, s.history[:limit])
	return result
}
