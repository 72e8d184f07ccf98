// Package semx implements counting, binary and bounded semaphores over a
// fixed-layout block of atomic slots shared by a group of execution units.
//
// # Shared state
//
// A SharedState is created once per coordination episode. Its Layout fixes
// which slot holds the available permit count, the number of units inside
// acquire, the high-water mark of concurrent holders, and one state slot
// per unit. Semaphore handles are views on those slots; they carry no
// mutable state of their own and may be created per unit or shared.
//
// # Waiting
//
// Acquire is a compare-and-swap loop on the permit slot. When no permit is
// left the caller parks on the slot through a Futex, which only blocks if
// the slot still holds the value the caller saw, and only for a bounded
// recheck interval (see WithRecheckInterval). A wake that is missed for any
// reason therefore costs at most one interval, never a permanent block.
//
// # Guarantees
//
// At most MaxPermits callers hold a permit at once. Waiters are not served
// in arrival order, and a waiter may starve under sustained contention.
// Acquire cannot be canceled; AcquireContext can, and reports ErrTimedOut.
//
// # Race detector
//
// The Futex wait table is a github.com/llxisdsh/pb MapOf, whose lock-free
// reads use plain loads on TSO platforms such as amd64. go test -race
// reports those loads inside pb, so the package is checked with its stress
// tests (many units against few permits, wake/timeout races) and goleak
// rather than under -race.
package semx
