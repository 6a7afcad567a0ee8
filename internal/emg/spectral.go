package emg

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// minSpectralSamples is the shortest segment worth a spectral estimate.
// Below this the periodogram has too few bins to locate a median frequency.
const minSpectralSamples = 64

// SpectralStats holds the frequency-domain scalars of one signal segment.
// Values are NaN when the segment is too short for an estimate.
type SpectralStats struct {
	MeanPowerFreqHz float64
	MedianFreqHz    float64
}

// undefinedSpectralStats marks both scalars undefined.
func undefinedSpectralStats() SpectralStats {
	return SpectralStats{MeanPowerFreqHz: math.NaN(), MedianFreqHz: math.NaN()}
}

// ComputeSpectralStats estimates mean power frequency and median frequency of
// a signal segment from a Hann-windowed FFT periodogram. Mean power frequency
// is the power-weighted average frequency; median frequency splits the power
// spectrum into equal halves. The DC bin is excluded: EMG baseline offset is
// not muscle activity.
func ComputeSpectralStats(samples []float64, rateHz float64) SpectralStats {
	if len(samples) < minSpectralSamples || rateHz <= 0 {
		return undefinedSpectralStats()
	}

	windowed := make([]float64, len(samples))
	copy(windowed, samples)
	window.Apply(windowed, window.Hann)

	spectrum := fft.FFTReal(windowed)

	// One-sided power spectrum, DC excluded.
	half := len(spectrum) / 2
	binHz := rateHz / float64(len(windowed))

	var totalPower, weighted float64
	power := make([]float64, half)
	for i := 1; i < half; i++ {
		p := cmplx.Abs(spectrum[i])
		p *= p
		power[i] = p
		totalPower += p
		weighted += p * float64(i) * binHz
	}
	if totalPower <= 0 {
		return undefinedSpectralStats()
	}

	stats := SpectralStats{MeanPowerFreqHz: weighted / totalPower}

	// Median frequency: first bin where cumulative power crosses half.
	cum := 0.0
	for i := 1; i < half; i++ {
		cum += power[i]
		if cum >= totalPower/2 {
			stats.MedianFreqHz = float64(i) * binHz
			break
		}
	}
	return stats
}

// contractionMedianFreqs fills MedianFreqHz on each contraction from the raw
// waveform span it covers and returns the onset-time and frequency series for
// the fatigue trend. Contractions too short for an estimate carry NaN and are
// excluded from the series.
func contractionMedianFreqs(contractions []Contraction, raw Waveform) (times, freqs []float64) {
	for i := range contractions {
		c := &contractions[i]
		lo := int(math.Round(c.StartTimeSecs * raw.SampleRateHz))
		hi := int(math.Round(c.EndTimeSecs * raw.SampleRateHz))
		lo, hiIncl := clampSpan(lo, hi-1, len(raw.Samples))
		if lo > hiIncl {
			c.MedianFreqHz = math.NaN()
			continue
		}
		stats := ComputeSpectralStats(raw.Samples[lo:hiIncl+1], raw.SampleRateHz)
		c.MedianFreqHz = stats.MedianFreqHz
		if !math.IsNaN(stats.MedianFreqHz) {
			times = append(times, c.StartTimeSecs)
			freqs = append(freqs, stats.MedianFreqHz)
		}
	}
	return times, freqs
}
