package emg

import "math"

// MovingRMS computes a centred moving root-mean-square envelope of the
// waveform over a window of windowMs milliseconds. The window is converted to
// an odd sample count of at least 3 (rounding up) so it centres cleanly.
// The output has the same length as the input; edge samples use the available
// partial window instead of zero padding, which would otherwise dip the
// envelope artificially at the recording boundaries.
func MovingRMS(w Waveform, windowMs float64) ([]float64, error) {
	n := len(w.Samples)
	if n == 0 {
		return nil, &InvalidSignalError{Reason: "empty waveform"}
	}
	if w.SampleRateHz <= 0 {
		return nil, &InvalidSignalError{Reason: "non-positive sampling rate"}
	}

	win := windowSamples(windowMs, w.SampleRateHz)
	if win > n {
		return nil, &InvalidSignalError{Reason: "rms window longer than signal"}
	}

	// Prefix sums of squares; one pass, O(n) total.
	prefix := make([]float64, n+1)
	for i, v := range w.Samples {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &InvalidSignalError{Reason: "NaN or Inf sample in waveform"}
		}
		prefix[i+1] = prefix[i] + v*v
	}

	half := win / 2
	out := make([]float64, n)
	for i := range out {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi >= n {
			hi = n - 1
		}
		sum := prefix[hi+1] - prefix[lo]
		out[i] = math.Sqrt(sum / float64(hi-lo+1))
	}
	return out, nil
}

// windowSamples converts a window length in milliseconds to an odd sample
// count >= 3, rounding up.
func windowSamples(windowMs, rateHz float64) int {
	win := int(math.Ceil(windowMs / 1000.0 * rateHz))
	if win < 3 {
		win = 3
	}
	if win%2 == 0 {
		win++
	}
	return win
}

// msToSamples converts a duration in milliseconds to a sample count at the
// given rate, rounding to nearest.
func msToSamples(ms, rateHz float64) int {
	return int(math.Round(ms / 1000.0 * rateHz))
}

// samplesToSecs converts a sample index to seconds from recording start.
func samplesToSecs(idx int, rateHz float64) float64 {
	return float64(idx) / rateHz
}
