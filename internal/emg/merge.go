package emg

// MergeCandidates collapses candidates separated by a gap of at most
// mergeThresholdMs and then discards candidates shorter than minDurationMs.
// Input must be chronological and non-overlapping, which the detection scan
// guarantees; that makes the output chronological and non-overlapping too.
// Merged amplitude is max-of-peaks; merged mean is length-weighted.
// The operation is idempotent: re-merging its own output changes nothing.
func MergeCandidates(candidates []Candidate, rateHz, mergeThresholdMs, minDurationMs float64) []Candidate {
	gap := msToSamples(mergeThresholdMs, rateHz)
	minSamples := msToSamples(minDurationMs, rateHz)

	var merged []Candidate
	for _, c := range candidates {
		if n := len(merged); n > 0 && c.StartIndex-merged[n-1].EndIndex-1 <= gap {
			prev := &merged[n-1]
			prevLen := float64(prev.Samples())
			curLen := float64(c.Samples())
			if c.PeakAmp > prev.PeakAmp {
				prev.PeakAmp = c.PeakAmp
			}
			prev.MeanAmp = (prev.MeanAmp*prevLen + c.MeanAmp*curLen) / (prevLen + curLen)
			prev.EndIndex = c.EndIndex
			continue
		}
		merged = append(merged, c)
	}

	final := merged[:0]
	for _, c := range merged {
		if c.Samples() >= minSamples {
			final = append(final, c)
		}
	}
	return final
}
