package admission

import (
	"context"
	"time"
)

// ProgressInterval is how often HoldTask reports progress.
const ProgressInterval = 50 * time.Millisecond

// Task is the critical-section work a unit performs while it holds a
// permit. progress takes a percentage in [0,100].
type Task interface {
	Run(ctx context.Context, progress func(pct float64)) error
}

// TaskFunc adapts a function to a Task.
type TaskFunc func(ctx context.Context, progress func(pct float64)) error

func (f TaskFunc) Run(ctx context.Context, progress func(pct float64)) error {
	return f(ctx, progress)
}

// HoldTask returns a Task that holds the permit for d, reporting progress
// every ProgressInterval and 100 at the end. It returns ctx.Err() if ctx
// ends first.
func HoldTask(d time.Duration) Task {
	return TaskFunc(func(ctx context.Context, progress func(float64)) error {
		start := time.Now()
		end := start.Add(d)
		tick := time.NewTicker(ProgressInterval)
		defer tick.Stop()
		for {
			left := time.Until(end)
			if left <= 0 {
				progress(100)
				return nil
			}
			timer := time.NewTimer(left)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			case now := <-tick.C:
				timer.Stop()
				progress(min(100, 100*float64(now.Sub(start))/float64(d)))
			}
		}
	})
}
