package semx

import (
	"errors"
	"testing"
)

func TestNewSharedState_Config(t *testing.T) {
	cases := []struct {
		name    string
		units   int
		permits int
	}{
		{"zero permits", 2, 0},
		{"negative permits", 2, -1},
		{"negative units", -1, 2},
		{"overflow", 1, 1 << 31},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			st, err := NewSharedState(c.units, c.permits)
			if st != nil || !errors.Is(err, ErrConfig) {
				t.Fatalf("NewSharedState(%d, %d) = %v, %v; want ErrConfig", c.units, c.permits, st, err)
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("err %T is not a *ConfigError", err)
			}
		})
	}
}

func TestSharedState_Initial(t *testing.T) {
	st := newTestState(t, 4, 3)
	if got := st.AvailablePermits(); got != 3 {
		t.Fatalf("AvailablePermits = %d, want 3", got)
	}
	if got := st.MaxPermits(); got != 3 {
		t.Fatalf("MaxPermits = %d, want 3", got)
	}
	if st.WaitingCount() != 0 || st.HighWaterMark() != 0 {
		t.Fatalf("waiting = %d, high water = %d, want 0, 0", st.WaitingCount(), st.HighWaterMark())
	}
	if got := st.CountUnits(Idle); got != 4 {
		t.Fatalf("CountUnits(Idle) = %d, want 4", got)
	}
	if got := st.Units(); got != 4 {
		t.Fatalf("Units = %d, want 4", got)
	}
}

func TestSharedState_UnitStates(t *testing.T) {
	st := newTestState(t, 3, 1)
	st.SetUnitState(0, Waiting)
	st.SetUnitState(2, Working)
	if got := st.UnitState(0); got != Waiting {
		t.Fatalf("UnitState(0) = %v, want %v", got, Waiting)
	}
	if got := st.UnitState(1); got != Idle {
		t.Fatalf("UnitState(1) = %v, want %v", got, Idle)
	}
	if got := st.CountUnits(Working); got != 1 {
		t.Fatalf("CountUnits(Working) = %d, want 1", got)
	}
	// Unit slots never alias the counters.
	if got := st.AvailablePermits(); got != 1 {
		t.Fatalf("AvailablePermits = %d, want 1", got)
	}
}

func TestSharedState_OutOfRangePanics(t *testing.T) {
	st := newTestState(t, 2, 1)
	for name, fn := range map[string]func(){
		"unit":     func() { st.UnitState(2) },
		"negative": func() { st.SetUnitState(-1, Idle) },
		"slot":     func() { st.Slot(st.Layout().Size()) },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			fn()
		})
	}
}

func TestSharedState_Verify(t *testing.T) {
	st := newTestState(t, 2, 1)
	if err := st.Verify(NewLayout(2)); err != nil {
		t.Fatalf("Verify(canonical) = %v", err)
	}
	if err := st.Verify(NewLayout(3)); !errors.Is(err, ErrConfig) {
		t.Fatalf("Verify(other units) = %v, want ErrConfig", err)
	}
	l := NewLayout(2)
	l.Permits, l.Waiting = l.Waiting, l.Permits
	if err := st.Verify(l); !errors.Is(err, ErrConfig) {
		t.Fatalf("Verify(swapped) = %v, want ErrConfig", err)
	}
}

func TestLayout_Validate(t *testing.T) {
	good := Layout{Permits: 5, Waiting: 6, HighWater: 7, UnitBase: 0, Units: 5}
	if err := good.Validate(); err != nil {
		t.Fatalf("Validate(%+v) = %v", good, err)
	}
	if got := good.Size(); got != 8 {
		t.Fatalf("Size = %d, want 8", got)
	}

	bad := []Layout{
		{Permits: 0, Waiting: 0, HighWater: 1, UnitBase: 2, Units: 1},
		{Permits: -1, Waiting: 1, HighWater: 2, UnitBase: 3, Units: 1},
		{Permits: 0, Waiting: 1, HighWater: 2, UnitBase: 2, Units: 1},
		{Permits: 0, Waiting: 1, HighWater: 2, UnitBase: 3, Units: -1},
		{Permits: 0, Waiting: 1, HighWater: 2, UnitBase: 1 << 30, Units: 1},
		{Permits: 0, Waiting: 1, HighWater: MaxSlots, UnitBase: 3, Units: 0},
		NewLayout(MaxSlots),
	}
	for _, l := range bad {
		if err := l.Validate(); !errors.Is(err, ErrConfig) {
			t.Errorf("Validate(%+v) = %v, want ErrConfig", l, err)
		}
	}
}

func TestNewSharedState_TooManySlots(t *testing.T) {
	if _, err := NewSharedStateWithLayout(Layout{Permits: 0, Waiting: 1, HighWater: 2, UnitBase: 1 << 30, Units: 1}, 1); !errors.Is(err, ErrConfig) {
		t.Fatalf("err = %v, want ErrConfig", err)
	}
	if _, err := NewSharedState(MaxSlots-UnitStateBase, 1); err != nil {
		t.Fatalf("NewSharedState at the slot cap: %v", err)
	}
	if _, err := NewSharedState(MaxSlots-UnitStateBase+1, 1); !errors.Is(err, ErrConfig) {
		t.Fatalf("err = %v, want ErrConfig", err)
	}
}

func TestSharedState_CustomLayout(t *testing.T) {
	l := Layout{Permits: 3, Waiting: 4, HighWater: 5, UnitBase: 0, Units: 3}
	st, err := NewSharedStateWithLayout(l, 2)
	if err != nil {
		t.Fatalf("NewSharedStateWithLayout: %v", err)
	}
	if got := st.Slot(3).Load(); got != 2 {
		t.Fatalf("permit slot = %d, want 2", got)
	}
	s := NewSemaphore(st)
	s.Acquire()
	if got := st.Slot(3).Load(); got != 1 {
		t.Fatalf("permit slot after Acquire = %d, want 1", got)
	}
	if got := st.Slot(5).Load(); got != 1 {
		t.Fatalf("high-water slot = %d, want 1", got)
	}
	s.Release()
}

func TestUnitState_String(t *testing.T) {
	for s, want := range map[UnitState]string{Idle: "idle", Waiting: "waiting", Working: "working", 9: "unknown"} {
		if got := s.String(); got != want {
			t.Errorf("UnitState(%d).String() = %q, want %q", int32(s), got, want)
		}
	}
}
