package admission

import (
	"slices"
	"sync"
	"time"
)

// Recorder is an Observer that keeps the whole event timeline and the
// running concurrency it implies. It is what a dashboard would read.
type Recorder struct {
	mu         sync.Mutex
	events     []Event
	counts     map[EventKind]int
	current    int
	peak       int
	totalWait  time.Duration
	unitsDone  int
	unitStats  map[int]Stats
	violations int
	limit      int
}

// NewRecorder returns an empty Recorder. If limit > 0, every Acquired event
// that takes the running concurrency above limit is counted as a violation.
func NewRecorder(limit int) *Recorder {
	return &Recorder{
		counts:    make(map[EventKind]int),
		unitStats: make(map[int]Stats),
		limit:     limit,
	}
}

func (r *Recorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	r.counts[e.Kind]++
	switch e.Kind {
	case EventAcquired:
		r.current++
		r.peak = max(r.peak, r.current)
		r.totalWait += e.WaitDuration
		if r.limit > 0 && r.current > r.limit {
			r.violations++
		}
	case EventReleased:
		r.current--
	case EventComplete:
		r.unitsDone++
		if e.Stats != nil {
			r.unitStats[e.UnitID] = *e.Stats
		}
	}
}

// Peak is the largest number of units seen holding a permit at once.
func (r *Recorder) Peak() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peak
}

// Current is the number of units holding a permit now.
func (r *Recorder) Current() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Violations counts acquisitions that exceeded the limit.
func (r *Recorder) Violations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.violations
}

// Count returns how many events of kind k were observed.
func (r *Recorder) Count(k EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[k]
}

// TotalWait is the sum of the wait durations of all Acquired events.
func (r *Recorder) TotalWait() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalWait
}

// UnitsCompleted is the number of Complete events.
func (r *Recorder) UnitsCompleted() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unitsDone
}

// UnitStats returns the stats a unit reported on completion.
func (r *Recorder) UnitStats(unitID int) (Stats, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.unitStats[unitID]
	return s, ok
}

// Events returns a copy of the timeline in observation order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}
