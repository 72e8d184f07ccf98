package admission

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/llxisdsh/semx"
)

// Summary is the aggregate result of one episode.
type Summary struct {
	Config     Config
	TotalTasks int
	Duration   time.Duration
	TotalWait  time.Duration
	AvgWait    time.Duration
	// MaxConcurrent is the shared state's high-water mark.
	MaxConcurrent int32
	// TheoreticalThroughput is MaxPermits tasks per TaskDuration, in
	// tasks per second. ActualThroughput is measured over Duration.
	TheoreticalThroughput float64
	ActualThroughput      float64
	// Efficiency is ActualThroughput as a percentage of the theoretical
	// one, capped at 100.
	Efficiency float64
	UnitStats  []Stats
}

// WithinLimit reports whether the high-water mark stayed within the permit
// count.
func (s *Summary) WithinLimit() bool {
	return int(s.MaxConcurrent) <= s.Config.MaxPermits
}

func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "semaphore limit:        %d concurrent (%s)\n", s.Config.MaxPermits, s.Config.Variant)
	fmt.Fprintf(&b, "units:                  %d\n", s.Config.Units)
	fmt.Fprintf(&b, "total tasks:            %d\n", s.TotalTasks)
	fmt.Fprintf(&b, "duration:               %v\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "average wait:           %v\n", s.AvgWait.Round(time.Millisecond))
	limit := "within limit"
	if !s.WithinLimit() {
		limit = "EXCEEDED"
	}
	fmt.Fprintf(&b, "max concurrent:         %d (%s)\n", s.MaxConcurrent, limit)
	fmt.Fprintf(&b, "theoretical throughput: %.1f tasks/s\n", s.TheoreticalThroughput)
	fmt.Fprintf(&b, "actual throughput:      %.1f tasks/s\n", s.ActualThroughput)
	fmt.Fprintf(&b, "efficiency:             %.1f%%", s.Efficiency)
	return b.String()
}

// RunOption customizes Run.
type RunOption func(*runConfig)

type runConfig struct {
	task      func(unitID int, hint time.Duration) Task
	stateHook func(*semx.SharedState)
}

// WithTask replaces the default HoldTask with a per-unit task factory. The
// factory receives the configured TaskDuration as a hint.
func WithTask(f func(unitID int, hint time.Duration) Task) RunOption {
	return func(c *runConfig) {
		c.task = f
	}
}

// WithStateHook calls f with the episode's shared state before any unit
// starts, e.g. to export it as metrics or to sample it.
func WithStateHook(f func(*semx.SharedState)) RunOption {
	return func(c *runConfig) {
		c.stateHook = f
	}
}

// Run executes one episode: it creates the shared state, starts cfg.Units
// units against it, waits for all of them and summarizes the run. The
// first unit error cancels the others and is returned together with the
// partial summary.
func Run(ctx context.Context, cfg Config, obs Observer, opts ...RunOption) (*Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rc := runConfig{
		task: func(_ int, hint time.Duration) Task { return HoldTask(hint) },
	}
	for _, o := range opts {
		o(&rc)
	}
	if cfg.Variant == "" {
		cfg.Variant = Counting
	}

	st, err := semx.NewSharedState(cfg.Units, cfg.MaxPermits)
	if err != nil {
		return nil, err
	}
	if rc.stateHook != nil {
		rc.stateHook(st)
	}
	var semOpts []semx.Option
	if cfg.RecheckInterval > 0 {
		semOpts = append(semOpts, semx.WithRecheckInterval(cfg.RecheckInterval))
	}
	limiters := make([]Limiter, cfg.Units)
	for i := range limiters {
		if limiters[i], err = NewLimiter(cfg.Variant, st, semOpts...); err != nil {
			return nil, err
		}
	}

	log.V(1).Infof("starting %d units on %d %s permits, %d tasks each",
		cfg.Units, cfg.MaxPermits, cfg.Variant, cfg.TasksPerUnit)
	epoch := time.Now()
	stats := make([]Stats, cfg.Units)
	g, gctx := errgroup.WithContext(ctx)
	for i := range cfg.Units {
		start := Startup{
			UnitID:           i,
			State:            st,
			Layout:           st.Layout(),
			MaxPermits:       cfg.MaxPermits,
			TaskCount:        cfg.TasksPerUnit,
			TaskDurationHint: cfg.TaskDuration,
			TaskPause:        cfg.TaskPause,
			Epoch:            epoch,
		}
		task := rc.task(i, cfg.TaskDuration)
		g.Go(func() error {
			s, err := RunUnit(gctx, start, limiters[i], task, obs)
			stats[i] = s
			return err
		})
	}
	err = g.Wait()
	if err != nil {
		log.Errorf("episode failed: %v", err)
	}
	return summarize(cfg, st, stats, time.Since(epoch)), err
}

func summarize(cfg Config, st *semx.SharedState, stats []Stats, d time.Duration) *Summary {
	s := &Summary{
		Config:        cfg,
		Duration:      d,
		MaxConcurrent: st.HighWaterMark(),
		UnitStats:     stats,
	}
	for _, u := range stats {
		s.TotalTasks += u.CompletedTasks
		s.TotalWait += u.TotalWait
	}
	if s.TotalTasks > 0 {
		s.AvgWait = s.TotalWait / time.Duration(s.TotalTasks)
	}
	if cfg.TaskDuration > 0 {
		s.TheoreticalThroughput = float64(cfg.MaxPermits) / cfg.TaskDuration.Seconds()
	}
	if d > 0 {
		s.ActualThroughput = float64(s.TotalTasks) / d.Seconds()
	}
	if s.TheoreticalThroughput > 0 {
		s.Efficiency = min(100, 100*s.ActualThroughput/s.TheoreticalThroughput)
	}
	return s
}
