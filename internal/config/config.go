// Package config resolves the numeric tuning knobs of a translation job.
//
// Resolve is pure: it merges the knobs a user actually supplied with the table
// of documented defaults. Load reads those knobs from viper (config file,
// BOOKTRAN_* environment variables and bound command-line flags).
package config

import (
	"fmt"
	"time"
)

// Settings is the fully populated knob record handed to the engine.
type Settings struct {
	Timeout        time.Duration
	Temperature    float64
	TopP           float64
	RetryCount     int
	RetryInterval  time.Duration
	MaxGroupTokens int
	Concurrency    int
}

// Overrides holds optional user-supplied knobs. A nil field takes the default.
type Overrides struct {
	TimeoutSeconds       *float64
	Temperature          *float64
	TopP                 *float64
	RetryCount           *int
	RetryIntervalSeconds *float64
	MaxGroupTokens       *int
	Concurrency          *int
}

// Defaults returns the documented default knobs.
func Defaults() Settings {
	return Settings{
		Timeout:        360 * time.Second,
		Temperature:    0.8,
		TopP:           0.6,
		RetryCount:     10,
		RetryInterval:  750 * time.Millisecond,
		MaxGroupTokens: 1200,
		Concurrency:    1,
	}
}

// KnobError reports a supplied knob outside its accepted range.
type KnobError struct {
	Knob   string
	Value  any
	Reason string
}

func (e *KnobError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Knob, e.Value, e.Reason)
}

// Resolve merges o with Defaults. Supplied values are never clamped: a value
// outside its range yields a *KnobError.
func Resolve(o Overrides) (Settings, error) {
	s := Defaults()

	if o.TimeoutSeconds != nil {
		if *o.TimeoutSeconds <= 0 {
			return Settings{}, &KnobError{Knob: "timeout", Value: *o.TimeoutSeconds, Reason: "must be positive"}
		}
		s.Timeout = seconds(*o.TimeoutSeconds)
	}
	if o.Temperature != nil {
		if *o.Temperature < 0 || *o.Temperature > 2 {
			return Settings{}, &KnobError{Knob: "temperature", Value: *o.Temperature, Reason: "must be within [0, 2]"}
		}
		s.Temperature = *o.Temperature
	}
	if o.TopP != nil {
		if *o.TopP <= 0 || *o.TopP > 1 {
			return Settings{}, &KnobError{Knob: "top_p", Value: *o.TopP, Reason: "must be within (0, 1]"}
		}
		s.TopP = *o.TopP
	}
	if o.RetryCount != nil {
		if *o.RetryCount < 0 {
			return Settings{}, &KnobError{Knob: "retry count", Value: *o.RetryCount, Reason: "must not be negative"}
		}
		s.RetryCount = *o.RetryCount
	}
	if o.RetryIntervalSeconds != nil {
		if *o.RetryIntervalSeconds < 0 {
			return Settings{}, &KnobError{Knob: "retry interval", Value: *o.RetryIntervalSeconds, Reason: "must not be negative"}
		}
		s.RetryInterval = seconds(*o.RetryIntervalSeconds)
	}
	if o.MaxGroupTokens != nil {
		if *o.MaxGroupTokens <= 0 {
			return Settings{}, &KnobError{Knob: "max group tokens", Value: *o.MaxGroupTokens, Reason: "must be positive"}
		}
		s.MaxGroupTokens = *o.MaxGroupTokens
	}
	if o.Concurrency != nil {
		if *o.Concurrency < 1 {
			return Settings{}, &KnobError{Knob: "concurrency", Value: *o.Concurrency, Reason: "must be at least 1"}
		}
		s.Concurrency = *o.Concurrency
	}

	return s, nil
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
