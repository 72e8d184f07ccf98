package admission

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/llxisdsh/semx"
)

// Config describes one coordination episode.
type Config struct {
	Units        int
	MaxPermits   int
	TasksPerUnit int
	TaskDuration time.Duration
	TaskPause    time.Duration
	Variant      Variant
	// RecheckInterval is passed to the semaphore handles; zero keeps
	// semx.DefaultRecheckInterval.
	RecheckInterval time.Duration
}

// DefaultConfig returns a small episode: 6 units contending for 2 permits.
func DefaultConfig() Config {
	return Config{
		Units:        6,
		MaxPermits:   2,
		TasksPerUnit: 3,
		TaskDuration: 200 * time.Millisecond,
		TaskPause:    10 * time.Millisecond,
		Variant:      Counting,
	}
}

// Validate reports the first invalid field as a *semx.ConfigError.
func (c Config) Validate() error {
	switch {
	case c.Units <= 0:
		return configError("units", "must be positive, got %d", c.Units)
	case c.MaxPermits <= 0:
		return configError("max permits", "must be positive, got %d", c.MaxPermits)
	case c.TasksPerUnit < 0:
		return configError("tasks per unit", "must not be negative, got %d", c.TasksPerUnit)
	case c.TaskDuration < 0:
		return configError("task duration", "must not be negative, got %v", c.TaskDuration)
	case c.TaskPause < 0:
		return configError("task pause", "must not be negative, got %v", c.TaskPause)
	case c.RecheckInterval < 0:
		return configError("recheck interval", "must not be negative, got %v", c.RecheckInterval)
	}
	switch c.Variant {
	case Counting, Bounded, "":
	case Binary:
		if c.MaxPermits != 1 {
			return configError("max permits", "binary variant needs 1, got %d", c.MaxPermits)
		}
	default:
		return configError("variant", "unknown variant %q", c.Variant)
	}
	return nil
}

func configError(field, format string, args ...any) error {
	return &semx.ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// jsonConfig is the on-disk form of Config. Durations are strings accepted
// by time.ParseDuration.
type jsonConfig struct {
	Units           *int    `json:"units,omitempty"`
	MaxPermits      *int    `json:"max_permits,omitempty"`
	TasksPerUnit    *int    `json:"tasks_per_unit,omitempty"`
	TaskDuration    *string `json:"task_duration,omitempty"`
	TaskPause       *string `json:"task_pause,omitempty"`
	Variant         *string `json:"variant,omitempty"`
	RecheckInterval *string `json:"recheck_interval,omitempty"`
}

// UnmarshalJSON overlays the fields present in data onto c, leaving the
// others untouched, so a file can override only part of a flag-built
// Config.
func (c *Config) UnmarshalJSON(data []byte) error {
	var j jsonConfig
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	if j.Units != nil {
		c.Units = *j.Units
	}
	if j.MaxPermits != nil {
		c.MaxPermits = *j.MaxPermits
	}
	if j.TasksPerUnit != nil {
		c.TasksPerUnit = *j.TasksPerUnit
	}
	if j.Variant != nil {
		c.Variant = Variant(*j.Variant)
	}
	for _, d := range []struct {
		src *string
		dst *time.Duration
		key string
	}{
		{j.TaskDuration, &c.TaskDuration, "task_duration"},
		{j.TaskPause, &c.TaskPause, "task_pause"},
		{j.RecheckInterval, &c.RecheckInterval, "recheck_interval"},
	} {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = v
	}
	return nil
}

// MarshalJSON writes durations as strings so the output round-trips
// through UnmarshalJSON.
func (c Config) MarshalJSON() ([]byte, error) {
	str := func(d time.Duration) *string {
		s := d.String()
		return &s
	}
	v := string(c.Variant)
	return json.Marshal(jsonConfig{
		Units:           &c.Units,
		MaxPermits:      &c.MaxPermits,
		TasksPerUnit:    &c.TasksPerUnit,
		TaskDuration:    str(c.TaskDuration),
		TaskPause:       str(c.TaskPause),
		Variant:         &v,
		RecheckInterval: str(c.RecheckInterval),
	})
}

// LoadConfigFile overlays the JSON file at path onto c.
func (c *Config) LoadConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	return nil
}
