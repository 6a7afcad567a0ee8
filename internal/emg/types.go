package emg

import (
	"math"
	"time"
)

// Waveform is a fixed-length recording of one channel at a known sampling rate.
// The engine treats the sample slice as read-only; callers keep ownership.
type Waveform struct {
	Samples      []float64
	SampleRateHz float64
}

// Len returns the number of samples.
func (w Waveform) Len() int { return len(w.Samples) }

// Duration returns the wall-clock span of the recording.
func (w Waveform) Duration() time.Duration {
	if w.SampleRateHz <= 0 {
		return 0
	}
	secs := float64(len(w.Samples)) / w.SampleRateHz
	return time.Duration(secs * float64(time.Second))
}

// ChannelInput is one named channel of a recording: the raw EMG trace plus an
// optional pre-filtered "activated" variant from the same time base. Shape
// validation (matching length and rate) happens once in Analyze before any
// strategy runs.
type ChannelInput struct {
	Name      string
	Raw       Waveform
	Activated *Waveform // nil when the recording carries no activated channel

	// MVCValue is an optional calibration reference amplitude from a prior
	// session. Zero means no reference is available.
	MVCValue float64
}

// HasActivated reports whether a shape-valid activated waveform is present.
// The activated trace must match the raw trace sample-for-sample to be usable
// for temporal boundary detection.
func (ci ChannelInput) HasActivated() bool {
	return ci.Activated != nil &&
		len(ci.Activated.Samples) == len(ci.Raw.Samples) &&
		ci.Activated.SampleRateHz == ci.Raw.SampleRateHz
}

// QualityTag labels a contraction against the therapeutic protocol.
type QualityTag string

const (
	QualityExcellent        QualityTag = "excellent"
	QualityAdequateForce    QualityTag = "adequate_force"
	QualityAdequateDuration QualityTag = "adequate_duration"
	QualityInsufficient     QualityTag = "insufficient"
)

// Candidate is a raw contraction boundary pair in sample-index space, produced
// by a detection strategy before merging. Amplitude fields are filled from the
// raw envelope over the candidate span.
type Candidate struct {
	StartIndex int
	EndIndex   int // inclusive
	PeakAmp    float64
	MeanAmp    float64
}

// Samples returns the candidate width in samples.
func (c Candidate) Samples() int { return c.EndIndex - c.StartIndex + 1 }

// Contraction is one detected and classified muscle contraction. Immutable
// once built; times are seconds from recording start.
type Contraction struct {
	StartTimeSecs  float64    `json:"start_time_secs"`
	EndTimeSecs    float64    `json:"end_time_secs"`
	DurationMs     float64    `json:"duration_ms"`
	PeakAmplitude  float64    `json:"peak_amplitude"`
	MeanAmplitude  float64    `json:"mean_amplitude"`
	Quality        QualityTag `json:"quality"`
	MeetsDuration  bool       `json:"meets_duration"`
	MeetsAmplitude bool       `json:"meets_amplitude"`

	// MedianFreqHz is the median power frequency over the contraction span,
	// NaN when the span is too short for a spectral estimate.
	MedianFreqHz float64 `json:"median_freq_hz"`
}

// ThresholdMode records how the detection threshold was derived.
type ThresholdMode string

const (
	// ThresholdModeMVC means the threshold is a percentage of a calibrated
	// maximum voluntary contraction reference.
	ThresholdModeMVC ThresholdMode = "mvc"
	// ThresholdModeStatistical means the threshold was estimated from
	// baseline signal statistics. Lower clinical confidence than MVC.
	ThresholdModeStatistical ThresholdMode = "statistical"
)

// ChannelAnalytics is the per-channel result record: the classified
// contraction sequence plus aggregate compliance and fatigue statistics.
// Created once per Analyze call and never mutated after return.
type ChannelAnalytics struct {
	ChannelName   string        `json:"channel_name"`
	Threshold     float64       `json:"threshold"`
	ThresholdMode ThresholdMode `json:"threshold_mode"`
	DetectionMode DetectionMode `json:"detection_mode"`

	Contractions []Contraction `json:"contractions"`

	TotalContractions int                `json:"total_contractions"`
	QualityCounts     map[QualityTag]int `json:"quality_counts"`
	CompliantCount    int                `json:"compliant_count"`

	// Frequency-domain scalars over the whole recording.
	MeanPowerFreqHz float64 `json:"mean_power_freq_hz"`
	MedianFreqHz    float64 `json:"median_freq_hz"`

	// FatigueIndex quantifies the decline of median frequency across
	// successive contractions. NaN when undefined (too few contractions or
	// no usable spectral data).
	FatigueIndex float64 `json:"fatigue_index"`
}

// Compliant reports whether a tag counts toward the compliant total.
// Excellent and AdequateForce satisfy the default compliance rule.
func (t QualityTag) Compliant() bool {
	return t == QualityExcellent || t == QualityAdequateForce
}

// IsFatigueDefined reports whether the fatigue index carries a value.
func (ca *ChannelAnalytics) IsFatigueDefined() bool {
	return !math.IsNaN(ca.FatigueIndex)
}
