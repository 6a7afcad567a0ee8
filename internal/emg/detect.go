package emg

// detectAboveThreshold runs the two-state (idle/active) boundary scan over a
// signal. A candidate opens on the first sample strictly above the threshold
// and closes on the first sample at or below it; a candidate still open at
// the end of the signal closes at the final sample. This is the legacy
// envelope-only behaviour and the temporal phase of the hybrid strategy, so
// any change here shifts every published detection result.
func detectAboveThreshold(signal []float64, threshold float64) []Candidate {
	var candidates []Candidate
	active := false
	start := 0

	for i, v := range signal {
		switch {
		case !active && v > threshold:
			active = true
			start = i
		case active && v <= threshold:
			candidates = append(candidates, Candidate{StartIndex: start, EndIndex: i - 1})
			active = false
		}
	}
	if active {
		candidates = append(candidates, Candidate{StartIndex: start, EndIndex: len(signal) - 1})
	}
	return candidates
}

// fillAmplitudes computes peak and mean amplitude for each candidate from the
// envelope it was detected on. Indices are clamped to the envelope bounds so
// candidates mapped from another time base stay valid.
func fillAmplitudes(candidates []Candidate, envelope []float64) {
	for i := range candidates {
		c := &candidates[i]
		lo, hi := clampSpan(c.StartIndex, c.EndIndex, len(envelope))
		if lo > hi {
			c.PeakAmp, c.MeanAmp = 0, 0
			continue
		}
		peak, sum := 0.0, 0.0
		for _, v := range envelope[lo : hi+1] {
			if v > peak {
				peak = v
			}
			sum += v
		}
		c.PeakAmp = peak
		c.MeanAmp = sum / float64(hi-lo+1)
	}
}

func clampSpan(lo, hi, n int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	return lo, hi
}

// detectEnvelope is the envelope-only detection strategy: one moving-RMS
// envelope, one threshold, one left-to-right scan.
func detectEnvelope(envelope []float64, threshold float64) []Candidate {
	candidates := detectAboveThreshold(envelope, threshold)
	fillAmplitudes(candidates, envelope)
	return candidates
}
