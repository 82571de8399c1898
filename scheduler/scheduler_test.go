package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingDispatcher struct {
	calls atomic.Int32
}

func (d *countingDispatcher) DispatchDueScheduled(ctx context.Context, now time.Time) (int, error) {
	d.calls.Add(1)
	return 0, nil
}

type countingMarker struct {
	calls atomic.Int32
}

func (m *countingMarker) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	m.calls.Add(1)
	return 0, nil
}

func TestSchedulerSweeps(t *testing.T) {
	emails := &countingDispatcher{}
	obligations := &countingMarker{}

	s := New(emails, obligations, WithInterval(10*time.Millisecond))
	s.Start()

	assert.Eventually(t, func() bool {
		return emails.calls.Load() >= 2 && obligations.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	after := emails.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, emails.calls.Load())
}

func TestSchedulerStartIdempotent(t *testing.T) {
	s := New(&countingDispatcher{}, &countingMarker{}, WithInterval(time.Hour))
	s.Start()
	s.Start()
	s.Stop()
	s.Stop() // stopping twice must not panic
}

func TestSweepDirect(t *testing.T) {
	emails := &countingDispatcher{}
	obligations := &countingMarker{}
	s := New(emails, obligations)

	s.Sweep(context.Background())
	assert.Equal(t, int32(1), emails.calls.Load())
	assert.Equal(t, int32(1), obligations.calls.Load())
}
