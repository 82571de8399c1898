package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// tickInterval is how often the background sweep runs
const tickInterval = time.Minute

// EmailDispatcher sends queued messages whose scheduled time has passed
type EmailDispatcher interface {
	DispatchDueScheduled(ctx context.Context, now time.Time) (int, error)
}

// OverdueMarker flips pending obligations past their deadline to overdue
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler runs the periodic background work: scheduled email dispatch and
// overdue sweeping. One instance per process.
type Scheduler struct {
	emails      EmailDispatcher
	obligations OverdueMarker
	interval    time.Duration

	mu       sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
}

// Option is a functional option for Scheduler
type Option func(*Scheduler)

// WithInterval overrides the sweep interval. Tests shrink it.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		s.interval = d
	}
}

// New creates a scheduler over the given dispatcher and marker
func New(emails EmailDispatcher, obligations OverdueMarker, opts ...Option) *Scheduler {
	s := &Scheduler{
		emails:      emails,
		obligations: obligations,
		interval:    tickInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the background loop. Calling Start on a running scheduler
// is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopChan != nil {
		return
	}
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})

	go s.run(s.stopChan, s.done)
	log.Printf("Scheduler started, sweeping every %s", s.interval)
}

// Stop signals the loop to exit and waits for the current sweep to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopChan == nil {
		s.mu.Unlock()
		return
	}
	stopChan, done := s.stopChan, s.done
	s.stopChan = nil
	s.done = nil
	s.mu.Unlock()

	close(stopChan)
	<-done
	log.Println("Scheduler stopped")
}

func (s *Scheduler) run(stopChan <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopChan:
			return
		case <-ticker.C:
			s.Sweep(context.Background())
		}
	}
}

// Sweep runs one iteration of the background work. Exposed so callers can
// force a pass outside the ticker.
func (s *Scheduler) Sweep(ctx context.Context) {
	now := time.Now()

	if s.emails != nil {
		if n, err := s.emails.DispatchDueScheduled(ctx, now); err != nil {
			log.Printf("Scheduled email dispatch failed: %v", err)
		} else if n > 0 {
			log.Printf("Dispatched %d scheduled emails", n)
		}
	}

	if s.obligations != nil {
		if n, err := s.obligations.MarkOverdue(ctx, now); err != nil {
			log.Printf("Overdue sweep failed: %v", err)
		} else if n > 0 {
			log.Printf("Marked %d obligations overdue", n)
		}
	}
}
