package emg

// detectHybrid is the dual-signal detection strategy. The activated waveform
// (pre-filtered and baseline-calibrated upstream) provides precise temporal
// boundaries; the moving-RMS envelope of the raw waveform provides amplitude.
//
// Three phases:
//  1. temporal boundary scan on the activated signal with a statistical
//     threshold over its baseline window, discarding activations shorter than
//     ActivatedMinActivationMs before any merging happens;
//  2. amplitude evaluation of each temporal candidate against the raw
//     envelope computed with RMSWindowMs;
//  3. fusion, aligning the two time bases within TemporalToleranceMs.
//
// The caller has already shape-validated the activated signal; fallback on a
// missing or mismatched signal is decided in Analyze, not here.
func detectHybrid(raw, activated Waveform, rawEnvelope []float64, cfg Config) []Candidate {
	// Phase 1: temporal boundaries from the activated signal.
	actCal := Calibrate(activated.Samples, activated.SampleRateHz, 0, cfg)
	temporal := detectAboveThreshold(activated.Samples, actCal.Threshold)

	minActivation := msToSamples(cfg.ActivatedMinActivationMs, activated.SampleRateHz)
	kept := temporal[:0]
	for _, c := range temporal {
		if c.Samples() >= minActivation {
			kept = append(kept, c)
		}
	}
	temporal = kept

	// Phase 2: raw amplitude envelope, already computed with RMSWindowMs.
	envelope := rawEnvelope

	// Phase 3: fusion. Alignment reduces to checking that each temporal
	// span lands inside the raw envelope within the configured tolerance.
	// With the shape validation Analyze applies, the two extents match and
	// every span aligns; the drop branch covers callers fusing an envelope
	// shorter than the activated trace.
	tolerance := msToSamples(cfg.TemporalToleranceMs, raw.SampleRateHz)
	fused := make([]Candidate, 0, len(temporal))
	for _, c := range temporal {
		if c.StartIndex > len(envelope)-1+tolerance || c.EndIndex < -tolerance {
			// Outside the raw time base beyond tolerance: no amplitude
			// data can be attached.
			if cfg.RequireAmplitudeValidation {
				continue
			}
		}
		fused = append(fused, c)
	}
	fillAmplitudes(fused, envelope)
	return fused
}
