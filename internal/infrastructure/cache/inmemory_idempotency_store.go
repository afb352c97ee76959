package cache

import (
	"context"
	"sync"
	"time"
)

const defaultSweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps delivery IDs and their expiry in process
// memory. Instances do not see each other's deliveries.
type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time

	stop   context.CancelFunc
	exited chan struct{}
}

// NewInMemoryIdempotencyStore starts a sweeper that purges expired IDs
// every sweepEvery. Zero selects five minutes.
func NewInMemoryIdempotencyStore(sweepEvery time.Duration) *InMemoryIdempotencyStore {
	if sweepEvery <= 0 {
		sweepEvery = defaultSweepInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &InMemoryIdempotencyStore{
		expires: make(map[string]time.Time),
		now:     time.Now,
		stop:    cancel,
		exited:  make(chan struct{}),
	}
	go s.sweep(ctx, sweepEvery)
	return s
}

func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, seen := s.expires[deliveryID]; seen && exp.After(now) {
		return false, nil
	}
	s.expires[deliveryID] = now.Add(ttl)
	return true, nil
}

func (s *InMemoryIdempotencyStore) Release(_ context.Context, deliveryID string) error {
	s.mu.Lock()
	delete(s.expires, deliveryID)
	s.mu.Unlock()
	return nil
}

// Close stops the sweeper and waits for it to exit. Repeated calls are no-ops.
func (s *InMemoryIdempotencyStore) Close() error {
	s.stop()
	<-s.exited
	return nil
}

// Size counts stored IDs, including expired ones the sweeper has not reached yet
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expires)
}

func (s *InMemoryIdempotencyStore) sweep(ctx context.Context, every time.Duration) {
	defer close(s.exited)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.purgeExpired()
		}
	}
}

func (s *InMemoryIdempotencyStore) purgeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, exp := range s.expires {
		if !exp.After(now) {
			delete(s.expires, id)
		}
	}
}

var _ IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
