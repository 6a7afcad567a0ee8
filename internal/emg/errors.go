package emg

import "fmt"

// InvalidSignalError reports a waveform the engine cannot analyse: empty,
// NaN-contaminated, or structurally invalid. Fatal to that channel only.
type InvalidSignalError struct {
	Reason string
}

func (e *InvalidSignalError) Error() string {
	return fmt.Sprintf("invalid signal: %s", e.Reason)
}

// SignalMismatchError reports an activated waveform that does not align with
// its raw counterpart (length or sampling rate) when fallback is not
// permitted.
type SignalMismatchError struct {
	RawLen        int
	ActivatedLen  int
	RawRateHz     float64
	ActivatedRate float64
}

func (e *SignalMismatchError) Error() string {
	return fmt.Sprintf(
		"activated signal mismatch: raw %d samples @ %gHz, activated %d samples @ %gHz",
		e.RawLen, e.RawRateHz, e.ActivatedLen, e.ActivatedRate,
	)
}

// ConfigurationError reports an out-of-range detection parameter. Surfaced
// before any computation begins.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}
