package db

import (
	"encoding/json"
	"math"
)

// NULL-backed scalars come out of the store as NaN; encode them as JSON null.

func nullableJSON(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (cs ChannelStatsRow) MarshalJSON() ([]byte, error) {
	type alias ChannelStatsRow
	return json.Marshal(struct {
		alias
		MeanPowerFreqHz *float64 `json:"mean_power_freq_hz"`
		MedianFreqHz    *float64 `json:"median_freq_hz"`
		FatigueIndex    *float64 `json:"fatigue_index"`
	}{
		alias:           alias(cs),
		MeanPowerFreqHz: nullableJSON(cs.MeanPowerFreqHz),
		MedianFreqHz:    nullableJSON(cs.MedianFreqHz),
		FatigueIndex:    nullableJSON(cs.FatigueIndex),
	})
}

func (c ContractionRow) MarshalJSON() ([]byte, error) {
	type alias ContractionRow
	return json.Marshal(struct {
		alias
		MedianFreqHz *float64 `json:"median_freq_hz"`
	}{
		alias:        alias(c),
		MedianFreqHz: nullableJSON(c.MedianFreqHz),
	})
}
