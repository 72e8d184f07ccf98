package semx

import (
	"errors"
	"fmt"
)

var (
	// ErrOverRelease is returned by BoundedSemaphore.Release when the
	// permit count is already at its configured maximum. The state is
	// left unchanged.
	ErrOverRelease = errors.New("semx: release would exceed max permits")

	// ErrTimedOut is returned when a caller-supplied deadline or
	// cancellation ends an acquire before a permit was obtained.
	ErrTimedOut = errors.New("semx: acquire timed out")

	// ErrConfig matches every *ConfigError via errors.Is.
	ErrConfig = errors.New("semx: invalid configuration")
)

// ConfigError reports a construction-time configuration problem, such as a
// non-positive permit count or a slot layout that does not match the
// shared state it is applied to.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("semx: invalid %s: %s", e.Field, e.Reason)
}

// Is reports ErrConfig as a match so callers need not type-assert.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

func configErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
