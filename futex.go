package semx

import (
	"sync/atomic"
	"time"

	"github.com/gammazero/deque"
	"github.com/llxisdsh/pb"
)

// WaitResult is the outcome of Futex.Wait.
type WaitResult int

const (
	// WaitOK means the waiter was woken by Wake.
	WaitOK WaitResult = iota
	// WaitNotEqual means the word did not hold the expected value, so the
	// caller never blocked.
	WaitNotEqual
	// WaitTimedOut means the timeout elapsed before a wake arrived.
	WaitTimedOut
	// WaitCanceled means the cancel channel closed before a wake arrived.
	WaitCanceled
)

func (r WaitResult) String() string {
	switch r {
	case WaitOK:
		return "ok"
	case WaitNotEqual:
		return "not-equal"
	case WaitTimedOut:
		return "timed-out"
	case WaitCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Futex is a wait table keyed by the address of an atomic word. Wait blocks
// only if the word still holds the expected value, and the check is
// serialized with Wake on the same word, so a Wake issued after the word
// changed can never slip in between the check and the block.
//
// It is zero-value usable and does not own any goroutine.
type Futex struct {
	_ noCopy
	m pb.MapOf[*atomic.Int32, *futexQueue]
}

type futexQueue struct {
	w deque.Deque[*futexWaiter]
}

type futexWaiter struct {
	ch chan struct{}
}

// Wait blocks the caller on addr if *addr == expected, until it is woken by
// Wake, the timeout elapses, or cancel is closed. A timeout <= 0 waits
// without a time limit; a nil cancel is never closed.
//
// Spurious WaitOK results are possible from the caller's point of view (the
// word may have changed back), so callers must re-check their condition.
func (f *Futex) Wait(addr *atomic.Int32, expected int32, timeout time.Duration, cancel <-chan struct{}) WaitResult {
	w := &futexWaiter{ch: make(chan struct{})}
	_, queued := f.m.ProcessEntry(
		addr,
		func(l *pb.EntryOf[*atomic.Int32, *futexQueue]) (*pb.EntryOf[*atomic.Int32, *futexQueue], *futexQueue, bool) {
			if addr.Load() != expected {
				return l, nil, false
			}
			if l != nil {
				l.Value.w.PushBack(w)
				return l, l.Value, true
			}
			q := &futexQueue{}
			q.w.PushBack(w)
			return &pb.EntryOf[*atomic.Int32, *futexQueue]{Key: addr, Value: q}, q, true
		},
	)
	if !queued {
		return WaitNotEqual
	}

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	res := WaitOK
	select {
	case <-w.ch:
		return WaitOK
	case <-expired:
		res = WaitTimedOut
	case <-cancel:
		res = WaitCanceled
	}

	// A waiter still in the queue was not woken. One that is gone was
	// dequeued by a concurrent Wake and must report it, or that wake is lost.
	if f.dequeue(addr, w) {
		return res
	}
	<-w.ch
	return WaitOK
}

// Wake wakes at most n waiters blocked on addr and returns how many were
// woken. Waking a word nobody waits on is a no-op.
func (f *Futex) Wake(addr *atomic.Int32, n int) int {
	if n <= 0 {
		return 0
	}
	woken := 0
	_, _ = f.m.ProcessEntry(
		addr,
		func(l *pb.EntryOf[*atomic.Int32, *futexQueue]) (*pb.EntryOf[*atomic.Int32, *futexQueue], *futexQueue, bool) {
			if l == nil {
				return nil, nil, false
			}
			q := l.Value
			for woken < n && q.w.Len() > 0 {
				close(q.w.PopFront().ch)
				woken++
			}
			if q.w.Len() == 0 {
				return nil, nil, true
			}
			return l, q, true
		},
	)
	return woken
}

// Waiters returns the number of callers currently blocked on addr.
func (f *Futex) Waiters(addr *atomic.Int32) int {
	n := 0
	_, _ = f.m.ProcessEntry(
		addr,
		func(l *pb.EntryOf[*atomic.Int32, *futexQueue]) (*pb.EntryOf[*atomic.Int32, *futexQueue], *futexQueue, bool) {
			if l != nil {
				n = l.Value.w.Len()
			}
			return l, nil, false
		},
	)
	return n
}

func (f *Futex) dequeue(addr *atomic.Int32, w *futexWaiter) bool {
	_, removed := f.m.ProcessEntry(
		addr,
		func(l *pb.EntryOf[*atomic.Int32, *futexQueue]) (*pb.EntryOf[*atomic.Int32, *futexQueue], *futexQueue, bool) {
			if l == nil {
				return nil, nil, false
			}
			q := l.Value
			i := q.w.Index(func(x *futexWaiter) bool { return x == w })
			if i < 0 {
				return l, nil, false
			}
			q.w.Remove(i)
			if q.w.Len() == 0 {
				return nil, nil, true
			}
			return l, q, true
		},
	)
	return removed
}
