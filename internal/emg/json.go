package emg

import (
	"encoding/json"
	"math"
)

// Undefined scalars (NaN fatigue index, missing spectral estimates) encode as
// JSON null; encoding/json rejects NaN outright.

func nullableJSON(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (c Contraction) MarshalJSON() ([]byte, error) {
	type alias Contraction
	return json.Marshal(struct {
		alias
		MedianFreqHz *float64 `json:"median_freq_hz"`
	}{
		alias:        alias(c),
		MedianFreqHz: nullableJSON(c.MedianFreqHz),
	})
}

func (ca ChannelAnalytics) MarshalJSON() ([]byte, error) {
	type alias ChannelAnalytics
	return json.Marshal(struct {
		alias
		MeanPowerFreqHz *float64 `json:"mean_power_freq_hz"`
		MedianFreqHz    *float64 `json:"median_freq_hz"`
		FatigueIndex    *float64 `json:"fatigue_index"`
	}{
		alias:           alias(ca),
		MeanPowerFreqHz: nullableJSON(ca.MeanPowerFreqHz),
		MedianFreqHz:    nullableJSON(ca.MedianFreqHz),
		FatigueIndex:    nullableJSON(ca.FatigueIndex),
	})
}
