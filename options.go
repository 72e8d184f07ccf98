package semx

import "time"

// DefaultRecheckInterval bounds how long a blocked acquire sleeps before it
// re-reads the permit slot on its own, even if no wake arrives.
const DefaultRecheckInterval = 100 * time.Millisecond

// Option configures a semaphore handle.
type Option func(*handleConfig)

type handleConfig struct {
	// recheck is the upper bound of a single futex wait inside acquire.
	// It is what turns a missed wakeup into a bounded delay instead of a
	// permanent block, so it is never allowed to be zero.
	recheck time.Duration
}

// WithRecheckInterval sets the bounded wait used inside acquire. Values
// <= 0 are ignored.
func WithRecheckInterval(d time.Duration) Option {
	return func(c *handleConfig) {
		if d > 0 {
			c.recheck = d
		}
	}
}

func parseOptions(opts []Option) handleConfig {
	c := handleConfig{recheck: DefaultRecheckInterval}
	for _, o := range opts {
		if o != nil {
			o(&c)
		}
	}
	return c
}
