package emg

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// FatigueFunc maps the per-contraction frequency trend to a scalar fatigue
// index. times are contraction onsets in seconds, freqs the matching median
// frequencies in Hz; both series have equal length. Implementations return
// NaN when the index is undefined for the given data.
//
// The exact clinical formula is still under validation, so the engine takes
// the mapping as a function rather than baking one in.
type FatigueFunc func(times, freqs []float64) float64

// RegressionFatigueIndex is the default fatigue mapping: the negated slope of
// a least-squares regression of median frequency against onset time,
// normalised by the mean frequency. Median frequency falling over the session
// is the expected fatigue signature, so a positive index means fatigue and
// its magnitude the relative decline rate per second.
func RegressionFatigueIndex(times, freqs []float64) float64 {
	if len(times) < 2 || len(times) != len(freqs) {
		return math.NaN()
	}
	meanFreq := stat.Mean(freqs, nil)
	if meanFreq <= 0 {
		return math.NaN()
	}
	_, slope := stat.LinearRegression(times, freqs, nil, false)
	if math.IsNaN(slope) {
		return math.NaN()
	}
	return -slope / meanFreq
}
