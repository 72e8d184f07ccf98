package semx

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const (
	binaryHeld      = 0
	binaryAvailable = 1
)

var _ sync.Locker = (*BinarySemaphore)(nil)

// BinarySemaphore is a one-permit semaphore used as a mutual-exclusion
// lock. It works on the permit slot of a SharedState created with
// maxPermits == 1, which starts out available.
//
// Release unconditionally marks the slot available. Releasing a lock that
// is not held is undefined; pair every Acquire with exactly one Release.
type BinarySemaphore struct {
	_         noCopy
	word      *atomic.Int32
	waiting   *atomic.Int32
	highWater *atomic.Int32
	futex     *Futex
	recheck   time.Duration
}

// NewBinarySemaphore returns a binary semaphore handle on st. It does not
// reset the slot, so any number of units can attach to the same state.
func NewBinarySemaphore(st *SharedState, opts ...Option) (*BinarySemaphore, error) {
	if st.MaxPermits() != 1 {
		return nil, configErrorf("max permits", "binary semaphore needs 1, shared state has %d", st.MaxPermits())
	}
	c := parseOptions(opts)
	l := st.Layout()
	return &BinarySemaphore{
		word:      st.Slot(l.Permits),
		waiting:   st.Slot(l.Waiting),
		highWater: st.Slot(l.HighWater),
		futex:     st.Futex(),
		recheck:   c.recheck,
	}, nil
}

// Acquire blocks until the semaphore is available, takes it, and returns
// the wait time.
func (b *BinarySemaphore) Acquire() time.Duration {
	d, _ := b.acquire(nil)
	return d
}

// AcquireContext is like Acquire but gives up when ctx is done, returning
// an error that wraps ErrTimedOut.
func (b *BinarySemaphore) AcquireContext(ctx context.Context) (time.Duration, error) {
	d, ok := b.acquire(ctx.Done())
	if !ok {
		return d, fmt.Errorf("%w: %w", ErrTimedOut, context.Cause(ctx))
	}
	return d, nil
}

func (b *BinarySemaphore) acquire(cancel <-chan struct{}) (time.Duration, bool) {
	start := time.Now()
	b.waiting.Add(1)
	for {
		if b.word.CompareAndSwap(binaryAvailable, binaryHeld) {
			b.waiting.Add(-1)
			raiseHighWater(b.highWater, 1)
			return time.Since(start), true
		}
		if b.futex.Wait(b.word, binaryHeld, b.recheck, cancel) == WaitCanceled {
			b.waiting.Add(-1)
			return time.Since(start), false
		}
	}
}

// TryAcquire takes the semaphore if it is available and reports whether
// it did.
func (b *BinarySemaphore) TryAcquire() bool {
	if b.word.CompareAndSwap(binaryAvailable, binaryHeld) {
		raiseHighWater(b.highWater, 1)
		return true
	}
	return false
}

// Release marks the semaphore available and wakes one waiter.
func (b *BinarySemaphore) Release() {
	b.word.Store(binaryAvailable)
	b.futex.Wake(b.word, 1)
}

// Held reports whether the semaphore is currently taken. The answer may be
// stale by the time it is used.
func (b *BinarySemaphore) Held() bool {
	return b.word.Load() == binaryHeld
}

// AvailablePermits is 1 when the semaphore is free and 0 when held.
func (b *BinarySemaphore) AvailablePermits() int32 {
	return b.word.Load()
}

// Lock is Acquire without the wait time, for use as a sync.Locker.
func (b *BinarySemaphore) Lock() { b.Acquire() }

// TryLock is TryAcquire.
func (b *BinarySemaphore) TryLock() bool { return b.TryAcquire() }

// Unlock is Release.
func (b *BinarySemaphore) Unlock() { b.Release() }
