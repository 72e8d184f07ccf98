package semx

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Semaphore is a counting semaphore over the permit slot of a SharedState.
// It bounds the number of units that hold a permit at the same time.
//
// A Semaphore is only a view: it holds the resolved slot addresses and the
// configured maximum, and any number of handles (one per unit, or one shared)
// may operate on the same SharedState.
//
// Waiters are not ordered. A unit that has just arrived may take a permit
// ahead of one that has been waiting longer, and under sustained contention
// a waiter can starve. Like sync.Mutex, it does not have an owner.
type Semaphore struct {
	_ noCopy
	// permits is the number of available permits. Acquire never takes it
	// below zero.
	permits   *atomic.Int32
	waiting   *atomic.Int32
	highWater *atomic.Int32
	futex     *Futex
	max       int32
	recheck   time.Duration
}

// NewSemaphore returns a counting semaphore handle on st.
func NewSemaphore(st *SharedState, opts ...Option) *Semaphore {
	s := &Semaphore{}
	s.init(st, opts)
	return s
}

func (s *Semaphore) init(st *SharedState, opts []Option) {
	c := parseOptions(opts)
	l := st.Layout()
	s.permits = st.Slot(l.Permits)
	s.waiting = st.Slot(l.Waiting)
	s.highWater = st.Slot(l.HighWater)
	s.futex = st.Futex()
	s.max = st.MaxPermits()
	s.recheck = c.recheck
}

// Acquire blocks until a permit is available, takes exactly one, and
// returns how long the caller waited.
func (s *Semaphore) Acquire() time.Duration {
	d, _ := s.acquire(nil)
	return d
}

// AcquireContext is like Acquire but gives up when ctx is done. The
// returned error then wraps both ErrTimedOut and the context's cause, and
// no permit is held.
//
// If ctx is already done, AcquireContext may still succeed without
// blocking.
func (s *Semaphore) AcquireContext(ctx context.Context) (time.Duration, error) {
	d, ok := s.acquire(ctx.Done())
	if !ok {
		return d, fmt.Errorf("%w: %w", ErrTimedOut, context.Cause(ctx))
	}
	return d, nil
}

// AcquireTimeout is AcquireContext with a relative deadline.
func (s *Semaphore) AcquireTimeout(timeout time.Duration) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.AcquireContext(ctx)
}

func (s *Semaphore) acquire(cancel <-chan struct{}) (time.Duration, bool) {
	start := time.Now()
	s.waiting.Add(1)
	for {
		cur := s.permits.Load()
		if cur > 0 {
			if s.permits.CompareAndSwap(cur, cur-1) {
				s.waiting.Add(-1)
				raiseHighWater(s.highWater, s.max-(cur-1))
				return time.Since(start), true
			}
			// Another unit took it first. Re-read without blocking.
			continue
		}

		// The bounded wait re-reads the slot even if the matching wake
		// was issued before this unit was queued.
		if s.futex.Wait(s.permits, cur, s.recheck, cancel) == WaitCanceled {
			s.waiting.Add(-1)
			return time.Since(start), false
		}
	}
}

// TryAcquire takes a permit if one is available right now and reports
// whether it did. It never blocks and changes nothing on failure.
func (s *Semaphore) TryAcquire() bool {
	for {
		cur := s.permits.Load()
		if cur <= 0 {
			return false
		}
		if s.permits.CompareAndSwap(cur, cur-1) {
			raiseHighWater(s.highWater, s.max-(cur-1))
			return true
		}
	}
}

// Release returns one permit and wakes at most one blocked acquirer.
//
// Release does not check that the caller holds a permit; releasing more
// than was acquired raises the count above its initial value. Use
// BoundedSemaphore to have that reported.
func (s *Semaphore) Release() {
	s.permits.Add(1)
	s.futex.Wake(s.permits, 1)
}

// AvailablePermits returns a snapshot of the permit count. It may be
// stale by the time the caller acts on it.
func (s *Semaphore) AvailablePermits() int32 {
	return s.permits.Load()
}

// MaxPermits returns the permit count of the underlying SharedState.
func (s *Semaphore) MaxPermits() int32 {
	return s.max
}
