package emg

// classify builds the final Contraction record for one merged candidate.
//
// Two criteria are evaluated independently. Duration is adequate when the
// contraction lasts at least MinDurationMs (guaranteed post-merge) and
// strongly met at StrongDurationFactor times that. Amplitude is adequate when
// the peak crossed the threshold and the mean amplitude sustained at least
// SustainedFraction of it; it is strongly met when the peak reached
// StrongAmplitudeFactor times the threshold. The 2x2 of strong-duration and
// strong-amplitude yields the four tags.
func classify(c Candidate, rateHz, threshold float64, cfg Config) Contraction {
	durationMs := float64(c.Samples()) / rateHz * 1000.0

	meetsDuration := durationMs >= cfg.MinDurationMs
	strongDuration := durationMs >= cfg.Quality.StrongDurationFactor*cfg.MinDurationMs

	meetsAmplitude := c.PeakAmp >= threshold &&
		c.MeanAmp >= cfg.Quality.SustainedFraction*threshold
	strongAmplitude := meetsAmplitude &&
		c.PeakAmp >= cfg.Quality.StrongAmplitudeFactor*threshold

	var tag QualityTag
	switch {
	case strongDuration && strongAmplitude:
		tag = QualityExcellent
	case strongAmplitude:
		tag = QualityAdequateForce
	case strongDuration && meetsAmplitude:
		tag = QualityAdequateDuration
	default:
		tag = QualityInsufficient
	}

	start := samplesToSecs(c.StartIndex, rateHz)
	return Contraction{
		StartTimeSecs:  start,
		EndTimeSecs:    start + durationMs/1000.0,
		DurationMs:     durationMs,
		PeakAmplitude:  c.PeakAmp,
		MeanAmplitude:  c.MeanAmp,
		Quality:        tag,
		MeetsDuration:  meetsDuration,
		MeetsAmplitude: meetsAmplitude,
	}
}

// tallyQuality aggregates per-tag counts and the compliant total over a
// classified contraction sequence.
func tallyQuality(contractions []Contraction) (counts map[QualityTag]int, compliant int) {
	counts = map[QualityTag]int{
		QualityExcellent:        0,
		QualityAdequateForce:    0,
		QualityAdequateDuration: 0,
		QualityInsufficient:     0,
	}
	for _, c := range contractions {
		counts[c.Quality]++
		if c.Quality.Compliant() {
			compliant++
		}
	}
	return counts, compliant
}
