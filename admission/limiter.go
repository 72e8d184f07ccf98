package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/llxisdsh/semx"
)

// Variant selects the semaphore a unit acquires through.
type Variant string

// Variants accepted by NewLimiter and Config.Variant.
const (
	Counting Variant = "counting"
	Bounded  Variant = "bounded"
	Binary   Variant = "binary"
)

// Limiter is the part of a semaphore the unit loop needs.
type Limiter interface {
	AcquireContext(ctx context.Context) (time.Duration, error)
	Release() error
	AvailablePermits() int32
}

var _ Limiter = (*semx.BoundedSemaphore)(nil)

type countingLimiter struct {
	*semx.Semaphore
}

func (l countingLimiter) Release() error {
	l.Semaphore.Release()
	return nil
}

type binaryLimiter struct {
	*semx.BinarySemaphore
}

func (l binaryLimiter) Release() error {
	l.BinarySemaphore.Release()
	return nil
}

// NewLimiter returns a handle of the given variant on st.
func NewLimiter(v Variant, st *semx.SharedState, opts ...semx.Option) (Limiter, error) {
	switch v {
	case Counting, "":
		return countingLimiter{semx.NewSemaphore(st, opts...)}, nil
	case Bounded:
		return semx.NewBoundedSemaphore(st, opts...), nil
	case Binary:
		b, err := semx.NewBinarySemaphore(st, opts...)
		if err != nil {
			return nil, err
		}
		return binaryLimiter{b}, nil
	default:
		return nil, &semx.ConfigError{Field: "variant", Reason: fmt.Sprintf("unknown variant %q", v)}
	}
}
