package emg

import (
	"errors"
	"math"
)

// Analyze runs the full detection pipeline for one channel: calibration,
// boundary detection, merging, quality classification and spectral/fatigue
// aggregation. It is a pure synchronous computation with no shared state;
// concurrent calls over different channels need no coordination.
//
// Degenerate signals (all-zero, shorter than the RMS window, single sample)
// report zero contractions rather than failing: a flat trace is a valid
// clinical observation. Structural problems (empty signal, NaN contamination,
// unpermitted activated-signal mismatch, bad config) return typed errors.
func Analyze(input ChannelInput, cfg Config) (*ChannelAnalytics, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(input.Raw.Samples) == 0 {
		return nil, &InvalidSignalError{Reason: "empty waveform for channel " + input.Name}
	}
	if input.Raw.SampleRateHz <= 0 {
		return nil, &InvalidSignalError{Reason: "non-positive sampling rate for channel " + input.Name}
	}

	mode, err := resolveMode(input, cfg)
	if err != nil {
		return nil, err
	}

	// The raw envelope pass rejects NaN in the raw trace; the activated
	// trace feeds baseline statistics directly, so a NaN there would
	// poison the threshold and suppress every detection without an error.
	if mode == ModeHybrid {
		if err := checkFinite(input.Activated.Samples, "activated waveform"); err != nil {
			return nil, err
		}
	}

	// A signal shorter than the RMS window cannot carry a contraction of
	// any meaningful duration; report it as quiet rather than failing.
	if windowSamples(cfg.RMSWindowMs, input.Raw.SampleRateHz) > len(input.Raw.Samples) {
		if err := checkFinite(input.Raw.Samples, "raw waveform"); err != nil {
			return nil, err
		}
		return emptyAnalytics(input.Name, mode), nil
	}

	envelope, err := MovingRMS(input.Raw, cfg.RMSWindowMs)
	if err != nil {
		return nil, err
	}

	cal := Calibrate(envelope, input.Raw.SampleRateHz, input.MVCValue, cfg)

	var candidates []Candidate
	switch mode {
	case ModeEnvelope:
		candidates = detectEnvelope(envelope, cal.Threshold)
	case ModeHybrid:
		candidates = detectHybrid(input.Raw, *input.Activated, envelope, cfg)
	}

	rate := input.Raw.SampleRateHz
	merged := MergeCandidates(candidates, rate, cfg.MergeThresholdMs, cfg.MinDurationMs)

	contractions := make([]Contraction, 0, len(merged))
	for _, c := range merged {
		contractions = append(contractions, classify(c, rate, cal.Threshold, cfg))
	}

	counts, compliant := tallyQuality(contractions)

	wholeStats := ComputeSpectralStats(input.Raw.Samples, rate)
	times, freqs := contractionMedianFreqs(contractions, input.Raw)

	fatigue := cfg.Fatigue
	if fatigue == nil {
		fatigue = RegressionFatigueIndex
	}

	return &ChannelAnalytics{
		ChannelName:       input.Name,
		Threshold:         cal.Threshold,
		ThresholdMode:     cal.Mode,
		DetectionMode:     mode,
		Contractions:      contractions,
		TotalContractions: len(contractions),
		QualityCounts:     counts,
		CompliantCount:    compliant,
		MeanPowerFreqHz:   wholeStats.MeanPowerFreqHz,
		MedianFreqHz:      wholeStats.MedianFreqHz,
		FatigueIndex:      fatigue(times, freqs),
	}, nil
}

// resolveMode turns the configured detection mode into the concrete strategy
// for this input, applying the hybrid fallback rules. The returned mode is
// always ModeEnvelope or ModeHybrid.
func resolveMode(input ChannelInput, cfg Config) (DetectionMode, error) {
	switch cfg.DetectionMode {
	case ModeEnvelope:
		return ModeEnvelope, nil
	case ModeAuto:
		if input.HasActivated() {
			return ModeHybrid, nil
		}
		return ModeEnvelope, nil
	case ModeHybrid:
		if input.HasActivated() {
			return ModeHybrid, nil
		}
		if cfg.FallbackToEnvelope {
			return ModeEnvelope, nil
		}
		mismatch := &SignalMismatchError{
			RawLen:    len(input.Raw.Samples),
			RawRateHz: input.Raw.SampleRateHz,
		}
		if input.Activated != nil {
			mismatch.ActivatedLen = len(input.Activated.Samples)
			mismatch.ActivatedRate = input.Activated.SampleRateHz
		}
		return "", mismatch
	}
	// Unreachable after Validate, kept for exhaustiveness.
	return "", errors.New("unknown detection mode")
}

func checkFinite(samples []float64, what string) error {
	for _, v := range samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InvalidSignalError{Reason: "NaN or Inf sample in " + what}
		}
	}
	return nil
}

func emptyAnalytics(name string, mode DetectionMode) *ChannelAnalytics {
	counts, _ := tallyQuality(nil)
	return &ChannelAnalytics{
		ChannelName:     name,
		Threshold:       thresholdEpsilon,
		ThresholdMode:   ThresholdModeStatistical,
		DetectionMode:   mode,
		Contractions:    []Contraction{},
		QualityCounts:   counts,
		MeanPowerFreqHz: math.NaN(),
		MedianFreqHz:    math.NaN(),
		FatigueIndex:    math.NaN(),
	}
}
