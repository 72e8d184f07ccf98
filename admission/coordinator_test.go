package admission

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llxisdsh/semx"
)

// sampleWorking polls st until stop is closed and returns the largest
// number of units it saw in the working state.
func sampleWorking(st *semx.SharedState, stop <-chan struct{}) <-chan int {
	out := make(chan int, 1)
	go func() {
		most := 0
		for {
			most = max(most, st.CountUnits(semx.Working))
			select {
			case <-stop:
				out <- most
				return
			case <-time.After(200 * time.Microsecond):
			}
		}
	}()
	return out
}

func TestRun_TwoOfFive(t *testing.T) {
	cfg := Config{
		Units:        5,
		MaxPermits:   2,
		TasksPerUnit: 1,
		TaskDuration: 30 * time.Millisecond,
		Variant:      Counting,
	}
	rec := NewRecorder(cfg.MaxPermits)
	stop := make(chan struct{})
	var peak <-chan int
	sum, err := Run(context.Background(), cfg, rec, WithStateHook(func(st *semx.SharedState) {
		peak = sampleWorking(st, stop)
	}))
	close(stop)
	require.NoError(t, err)

	assert.Equal(t, 5, sum.TotalTasks)
	assert.EqualValues(t, 2, sum.MaxConcurrent)
	assert.True(t, sum.WithinLimit())
	assert.Equal(t, 2, <-peak)
	assert.Equal(t, 2, rec.Peak())
	assert.Zero(t, rec.Violations())
	assert.Equal(t, 5, rec.UnitsCompleted())
	assert.Zero(t, rec.Current())
	// Three waves of 30ms with two permits.
	assert.GreaterOrEqual(t, sum.Duration, 90*time.Millisecond)
	assert.Positive(t, sum.AvgWait)
}

func TestRun_Variants(t *testing.T) {
	for _, tc := range []struct {
		variant Variant
		permits int
	}{
		{Counting, 3},
		{Bounded, 2},
		{Binary, 1},
	} {
		t.Run(string(tc.variant), func(t *testing.T) {
			cfg := Config{
				Units:        4,
				MaxPermits:   tc.permits,
				TasksPerUnit: 3,
				TaskDuration: 2 * time.Millisecond,
				TaskPause:    time.Millisecond,
				Variant:      tc.variant,
			}
			rec := NewRecorder(tc.permits)
			var st *semx.SharedState
			sum, err := Run(context.Background(), cfg, rec, WithStateHook(func(s *semx.SharedState) { st = s }))
			require.NoError(t, err)

			assert.Equal(t, 12, sum.TotalTasks)
			assert.LessOrEqual(t, int(sum.MaxConcurrent), tc.permits)
			assert.Zero(t, rec.Violations())
			// Conservation: every acquire was matched by a release.
			assert.Equal(t, rec.Count(EventAcquired), rec.Count(EventReleased))
			assert.EqualValues(t, tc.permits, st.AvailablePermits())
			assert.EqualValues(t, 0, st.WaitingCount())
			assert.Equal(t, 4, st.CountUnits(semx.Idle))
			assert.Len(t, sum.UnitStats, 4)
			for _, u := range sum.UnitStats {
				assert.Equal(t, 3, u.CompletedTasks)
			}
		})
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPermits = 0
	sum, err := Run(context.Background(), cfg, nil)
	require.ErrorIs(t, err, semx.ErrConfig)
	assert.Nil(t, sum)
}

func TestRun_TaskFailureCancelsOthers(t *testing.T) {
	boom := errors.New("boom")
	// One permit per unit, so the failing unit never queues behind a
	// minute-long holder.
	cfg := Config{Units: 4, MaxPermits: 4, TasksPerUnit: 2, TaskDuration: time.Minute}
	var st *semx.SharedState
	begin := time.Now()
	sum, err := Run(context.Background(), cfg, nil,
		WithStateHook(func(s *semx.SharedState) { st = s }),
		WithTask(func(id int, hint time.Duration) Task {
			if id == 0 {
				return TaskFunc(func(context.Context, func(float64)) error { return boom })
			}
			return HoldTask(hint)
		}))

	require.ErrorIs(t, err, boom)
	require.NotNil(t, sum)
	assert.Less(t, time.Since(begin), 10*time.Second)
	assert.EqualValues(t, 4, st.AvailablePermits())
	assert.EqualValues(t, 0, st.WaitingCount())
}

func TestRun_ChanObserver(t *testing.T) {
	ch := make(chan Event)
	var wg sync.WaitGroup
	counts := make(map[EventKind]int)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for e := range ch {
			counts[e.Kind]++
		}
	}()

	cfg := Config{Units: 3, MaxPermits: 1, TasksPerUnit: 2, Variant: Bounded}
	_, err := Run(context.Background(), cfg, ChanObserver(ch))
	close(ch)
	wg.Wait()
	require.NoError(t, err)

	assert.Equal(t, 6, counts[EventWaiting])
	assert.Equal(t, 6, counts[EventAcquired])
	assert.Equal(t, 6, counts[EventReleased])
	assert.Equal(t, 3, counts[EventComplete])
}

func TestSummary(t *testing.T) {
	st, err := semx.NewSharedState(2, 2)
	require.NoError(t, err)
	s := semx.NewSemaphore(st)
	s.Acquire()
	s.Acquire()
	s.Release()
	s.Release()

	cfg := Config{Units: 2, MaxPermits: 2, TaskDuration: 100 * time.Millisecond, Variant: Counting}
	stats := []Stats{
		{CompletedTasks: 2, TotalWait: 40 * time.Millisecond},
		{CompletedTasks: 2, TotalWait: 0},
	}
	sum := summarize(cfg, st, stats, time.Second)

	assert.Equal(t, 4, sum.TotalTasks)
	assert.Equal(t, 10*time.Millisecond, sum.AvgWait)
	assert.EqualValues(t, 2, sum.MaxConcurrent)
	assert.InDelta(t, 20.0, sum.TheoreticalThroughput, 1e-9)
	assert.InDelta(t, 4.0, sum.ActualThroughput, 1e-9)
	assert.InDelta(t, 20.0, sum.Efficiency, 1e-9)
	assert.Contains(t, sum.String(), "within limit")

	sum.MaxConcurrent = 3
	assert.False(t, sum.WithinLimit())
	assert.Contains(t, sum.String(), "EXCEEDED")
}
