package semx

import (
	"context"
	"fmt"
	"time"
)

// BoundedSemaphore is a counting semaphore whose Release refuses to raise
// the permit count above the maximum the SharedState was created with.
// Releasing a permit that was never acquired, or releasing twice, is
// reported as ErrOverRelease instead of silently breaking
// permits <= max.
type BoundedSemaphore struct {
	sem Semaphore
}

// NewBoundedSemaphore returns a bounded semaphore handle on st. The bound
// is st.MaxPermits().
func NewBoundedSemaphore(st *SharedState, opts ...Option) *BoundedSemaphore {
	b := &BoundedSemaphore{}
	b.sem.init(st, opts)
	return b
}

// Acquire blocks until a permit is available and returns the wait time.
func (b *BoundedSemaphore) Acquire() time.Duration {
	return b.sem.Acquire()
}

// AcquireContext is like Acquire but gives up when ctx is done.
func (b *BoundedSemaphore) AcquireContext(ctx context.Context) (time.Duration, error) {
	return b.sem.AcquireContext(ctx)
}

// AcquireTimeout is AcquireContext with a relative deadline.
func (b *BoundedSemaphore) AcquireTimeout(timeout time.Duration) (time.Duration, error) {
	return b.sem.AcquireTimeout(timeout)
}

// TryAcquire takes a permit if one is available without blocking.
func (b *BoundedSemaphore) TryAcquire() bool {
	return b.sem.TryAcquire()
}

// Release returns one permit and wakes at most one waiter. If the count is
// already at the maximum it returns ErrOverRelease and changes nothing.
func (b *BoundedSemaphore) Release() error {
	s := &b.sem
	for {
		cur := s.permits.Load()
		if cur >= s.max {
			return fmt.Errorf("%w: %d of %d permits available", ErrOverRelease, cur, s.max)
		}
		if s.permits.CompareAndSwap(cur, cur+1) {
			s.futex.Wake(s.permits, 1)
			return nil
		}
	}
}

// AvailablePermits returns a snapshot of the permit count.
func (b *BoundedSemaphore) AvailablePermits() int32 {
	return b.sem.AvailablePermits()
}

// MaxPermits returns the bound.
func (b *BoundedSemaphore) MaxPermits() int32 {
	return b.sem.max
}
