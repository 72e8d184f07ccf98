package admission

import (
	"fmt"
	"time"

	"github.com/llxisdsh/semx"
)

// Startup is what the coordinator hands a unit before it runs. Every unit
// of an episode receives the same State and Layout.
type Startup struct {
	UnitID           int
	State            *semx.SharedState
	Layout           semx.Layout
	MaxPermits       int
	TaskCount        int
	TaskDurationHint time.Duration
	// TaskPause is slept between two consecutive tasks of the unit.
	TaskPause time.Duration
	// Epoch is the episode start; Event.Time is measured from it.
	Epoch time.Time
}

// EventKind identifies a status message sent by a unit.
type EventKind int

// A unit emits EventWaiting before acquiring, EventAcquired once it holds
// a permit, EventTaskProgress while its task runs, EventReleased when it
// gives the permit back and EventComplete after its last task.
const (
	EventWaiting EventKind = iota
	EventAcquired
	EventReleased
	EventTaskProgress
	EventComplete
)

func (k EventKind) String() string {
	switch k {
	case EventWaiting:
		return "waiting"
	case EventAcquired:
		return "acquired"
	case EventReleased:
		return "released"
	case EventTaskProgress:
		return "task_progress"
	case EventComplete:
		return "complete"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a status message from a unit to the observer.
type Event struct {
	UnitID int
	Kind   EventKind
	// Time is the offset from the episode start.
	Time time.Duration
	// WaitDuration is set on EventAcquired.
	WaitDuration time.Duration
	// TaskNum (1-based) and TotalTasks are set on every per-task event.
	TaskNum    int
	TotalTasks int
	// Progress is a percentage in [0,100], set on EventTaskProgress.
	Progress float64
	// Stats is set on EventComplete.
	Stats *Stats
}

// Stats summarizes one unit's run.
type Stats struct {
	CompletedTasks int
	TotalWait      time.Duration
	AvgWait        time.Duration
}

func (s *Stats) finish() {
	if s.CompletedTasks > 0 {
		s.AvgWait = s.TotalWait / time.Duration(s.CompletedTasks)
	}
}
