package semx

// Canonical slot indices of a SharedState. Unit i lives at
// UnitStateBase+i.
const (
	PermitsSlot   = 0
	WaitingSlot   = 1
	HighWaterSlot = 2
	UnitStateBase = 3
)

// MaxSlots caps the number of slots a Layout may span.
const MaxSlots = 1 << 16

// Layout is the slot contract every unit sharing a SharedState must agree
// on. It is fixed when the state is created and never negotiated at run
// time; a unit that brings a different Layout is rejected by Verify.
type Layout struct {
	Permits   int `json:"permits"`
	Waiting   int `json:"waiting"`
	HighWater int `json:"high_water"`
	UnitBase  int `json:"unit_base"`
	Units     int `json:"units"`
}

// NewLayout returns the canonical layout for the given number of units:
//
//	[0]   available permits
//	[1]   units inside acquire
//	[2]   high-water mark of concurrent holders
//	[3+i] state of unit i
func NewLayout(units int) Layout {
	return Layout{
		Permits:   PermitsSlot,
		Waiting:   WaitingSlot,
		HighWater: HighWaterSlot,
		UnitBase:  UnitStateBase,
		Units:     units,
	}
}

// Size is the number of slots the layout occupies.
func (l Layout) Size() int {
	return max(l.Permits, l.Waiting, l.HighWater, l.UnitBase+l.Units-1) + 1
}

// Validate checks that all indices are non-negative, that the layout spans
// at most MaxSlots slots, that the three counters are distinct, and that
// the unit slots do not overlap them.
func (l Layout) Validate() error {
	if l.Units < 0 {
		return configErrorf("layout", "negative unit count %d", l.Units)
	}
	if l.Permits < 0 || l.Waiting < 0 || l.HighWater < 0 || l.UnitBase < 0 {
		return configErrorf("layout", "negative slot index in %+v", l)
	}
	if int64(max(l.Permits, l.Waiting, l.HighWater)) >= MaxSlots ||
		int64(l.UnitBase)+int64(l.Units) > MaxSlots {
		return configErrorf("layout", "%+v spans more than %d slots", l, MaxSlots)
	}
	if l.Permits == l.Waiting || l.Permits == l.HighWater || l.Waiting == l.HighWater {
		return configErrorf("layout", "counter slots overlap in %+v", l)
	}
	for _, c := range [...]int{l.Permits, l.Waiting, l.HighWater} {
		if c >= l.UnitBase && c < l.UnitBase+l.Units {
			return configErrorf("layout", "slot %d is both a counter and a unit state", c)
		}
	}
	return nil
}

// UnitState is the per-unit status slot value.
type UnitState int32

// A unit is Idle between tasks, Waiting while inside acquire and Working
// while it holds a permit.
const (
	Idle UnitState = iota
	Waiting
	Working
)

func (s UnitState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Waiting:
		return "waiting"
	case Working:
		return "working"
	default:
		return "unknown"
	}
}
