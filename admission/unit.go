package admission

import (
	"context"
	"fmt"
	"time"

	log "github.com/golang/glog"

	"github.com/llxisdsh/semx"
)

// RunUnit is the control loop of one execution unit. For each of its
// start.TaskCount tasks it marks itself waiting, acquires a permit through
// lim, marks itself working, runs task, marks itself idle and releases the
// permit, reporting every step to obs. After the last task it reports
// EventComplete with its Stats.
//
// The unit goes idle and emits EventReleased before the permit is actually
// returned, so neither the unit-state slots nor an in-order observer ever
// see more than MaxPermits units working.
//
// A task error or a failed release stops the unit; the permit is released
// first. The layout in start is checked against the shared state before
// anything else.
func RunUnit(ctx context.Context, start Startup, lim Limiter, task Task, obs Observer) (Stats, error) {
	var stats Stats
	st := start.State
	if st == nil {
		return stats, configError("shared state", "unit %d started without one", start.UnitID)
	}
	if err := st.Verify(start.Layout); err != nil {
		return stats, err
	}
	if start.UnitID < 0 || start.UnitID >= st.Units() {
		return stats, configError("unit id", "%d out of range [0,%d)", start.UnitID, st.Units())
	}
	if int32(start.MaxPermits) != st.MaxPermits() {
		return stats, configError("max permits", "unit %d expects %d, shared state has %d",
			start.UnitID, start.MaxPermits, st.MaxPermits())
	}
	if obs == nil {
		obs = nopObserver{}
	}
	epoch := start.Epoch
	if epoch.IsZero() {
		epoch = time.Now()
	}
	id := start.UnitID
	event := func(kind EventKind, taskNum int) Event {
		return Event{
			UnitID:     id,
			Kind:       kind,
			Time:       time.Since(epoch),
			TaskNum:    taskNum,
			TotalTasks: start.TaskCount,
		}
	}

	for n := 1; n <= start.TaskCount; n++ {
		if n > 1 && start.TaskPause > 0 {
			if err := pause(ctx, start.TaskPause); err != nil {
				return stats, err
			}
		}

		st.SetUnitState(id, semx.Waiting)
		obs.Observe(event(EventWaiting, n))

		wait, err := lim.AcquireContext(ctx)
		stats.TotalWait += wait
		if err != nil {
			st.SetUnitState(id, semx.Idle)
			return stats, fmt.Errorf("unit %d task %d: %w", id, n, err)
		}

		st.SetUnitState(id, semx.Working)
		e := event(EventAcquired, n)
		e.WaitDuration = wait
		obs.Observe(e)
		log.V(2).Infof("unit %d acquired a permit for task %d/%d after %v", id, n, start.TaskCount, wait)

		taskErr := task.Run(ctx, func(pct float64) {
			e := event(EventTaskProgress, n)
			e.Progress = pct
			obs.Observe(e)
		})

		st.SetUnitState(id, semx.Idle)
		obs.Observe(event(EventReleased, n))
		if err := lim.Release(); err != nil {
			log.Errorf("unit %d: release after task %d failed: %v", id, n, err)
			return stats, fmt.Errorf("unit %d task %d: %w", id, n, err)
		}
		if taskErr != nil {
			return stats, fmt.Errorf("unit %d task %d: %w", id, n, taskErr)
		}
		stats.CompletedTasks++
	}

	stats.finish()
	e := event(EventComplete, start.TaskCount)
	done := stats
	e.Stats = &done
	obs.Observe(e)
	log.V(1).Infof("unit %d complete: %d tasks, avg wait %v", id, stats.CompletedTasks, stats.AvgWait)
	return stats, nil
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
