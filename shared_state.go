package semx

import (
	"fmt"
	"sync/atomic"

	"github.com/llxisdsh/semx/internal/opt"
)

// SharedState is the fixed-layout block of atomic slots that every unit of
// one coordination episode operates on. It holds the permit count, the
// number of units inside acquire, the high-water mark of concurrent holders
// and one state slot per unit.
//
// A SharedState is created once by the coordinator before any unit starts
// and is shared by pointer; it has no owner and needs no Close. All
// mutation goes through single atomic operations on its slots.
type SharedState struct {
	_      noCopy
	layout Layout
	max    int32
	slots  []opt.PaddedInt32
	futex  Futex
}

// NewSharedState allocates a SharedState for units execution units with
// maxPermits initially available permits, using the canonical layout.
func NewSharedState(units, maxPermits int) (*SharedState, error) {
	return NewSharedStateWithLayout(NewLayout(units), maxPermits)
}

// NewSharedStateWithLayout is like NewSharedState with an explicit layout.
func NewSharedStateWithLayout(l Layout, maxPermits int) (*SharedState, error) {
	if maxPermits <= 0 {
		return nil, configErrorf("max permits", "must be positive, got %d", maxPermits)
	}
	if int64(maxPermits) > int64(^uint32(0)>>1) {
		return nil, configErrorf("max permits", "%d overflows a slot", maxPermits)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	s := &SharedState{
		layout: l,
		max:    int32(maxPermits),
		slots:  make([]opt.PaddedInt32, l.Size()),
	}
	s.slots[l.Permits].Store(int32(maxPermits))
	return s, nil
}

// Verify fails with a *ConfigError if l differs from the layout the state
// was created with. Units call it on startup.
func (s *SharedState) Verify(l Layout) error {
	if l != s.layout {
		return configErrorf("layout", "got %+v, shared state uses %+v", l, s.layout)
	}
	return nil
}

// Layout returns the slot layout.
func (s *SharedState) Layout() Layout { return s.layout }

// MaxPermits returns the permit count the state was created with.
func (s *SharedState) MaxPermits() int32 { return s.max }

// Units returns the number of unit state slots.
func (s *SharedState) Units() int { return s.layout.Units }

// Slot returns the atomic word at index i. It panics if i is out of range.
func (s *SharedState) Slot(i int) *atomic.Int32 {
	if i < 0 || i >= len(s.slots) {
		panic(fmt.Sprintf("semx: slot index %d out of range [0,%d)", i, len(s.slots)))
	}
	return &s.slots[i].Int32
}

// Futex returns the wait table keyed by this state's slots.
func (s *SharedState) Futex() *Futex { return &s.futex }

// AvailablePermits is a snapshot of the permit slot.
func (s *SharedState) AvailablePermits() int32 {
	return s.slots[s.layout.Permits].Load()
}

// WaitingCount is a snapshot of the number of units inside acquire.
func (s *SharedState) WaitingCount() int32 {
	return s.slots[s.layout.Waiting].Load()
}

// HighWaterMark is the largest number of concurrent permit holders
// observed so far. It never decreases.
func (s *SharedState) HighWaterMark() int32 {
	return s.slots[s.layout.HighWater].Load()
}

// UnitState returns the state of unit i.
func (s *SharedState) UnitState(i int) UnitState {
	return UnitState(s.Slot(s.unitSlot(i)).Load())
}

// SetUnitState stores the state of unit i.
func (s *SharedState) SetUnitState(i int, st UnitState) {
	s.Slot(s.unitSlot(i)).Store(int32(st))
}

// CountUnits returns how many units are currently in state st. Each slot
// is read atomically but the total is not a consistent snapshot.
func (s *SharedState) CountUnits(st UnitState) int {
	n := 0
	for i := range s.layout.Units {
		if UnitState(s.slots[s.layout.UnitBase+i].Load()) == st {
			n++
		}
	}
	return n
}

func (s *SharedState) unitSlot(i int) int {
	if i < 0 || i >= s.layout.Units {
		panic(fmt.Sprintf("semx: unit %d out of range [0,%d)", i, s.layout.Units))
	}
	return s.layout.UnitBase + i
}

// raiseHighWater lifts the high-water slot to inUse unless a concurrent
// update already stored something at least as large.
func raiseHighWater(hw *atomic.Int32, inUse int32) {
	for {
		cur := hw.Load()
		if inUse <= cur || hw.CompareAndSwap(cur, inUse) {
			return
		}
	}
}

// noCopy makes go vet's copylocks check flag handles and states copied
// after first use. See https://golang.org/issues/8005#issuecomment-190753527.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
