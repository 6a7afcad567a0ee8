package emg

import (
	"gonum.org/v1/gonum/stat"
)

// thresholdEpsilon floors a statistical threshold so a silent baseline never
// produces a zero threshold that would detect noise as activity.
const thresholdEpsilon = 1e-9

// statSigmaMultiplier is the number of baseline standard deviations added to
// the baseline mean in statistical calibration.
const statSigmaMultiplier = 3.0

// Calibration is the output of threshold calibration: the scalar threshold
// and how it was derived. The mode matters downstream: statistical thresholds
// are relative rather than clinically anchored and callers should treat those
// results as lower confidence.
type Calibration struct {
	Threshold float64
	Mode      ThresholdMode
}

// Calibrate derives the detection threshold for one channel envelope.
//
// Reference mode applies when an MVC value is supplied: the threshold is the
// configured percentage of the calibrated maximum voluntary contraction.
//
// Statistical mode applies otherwise: baseline mean plus three standard
// deviations over the first ActivatedBaselineWindowMs of the envelope (the
// whole envelope when shorter), floored at ThresholdFactor times the envelope
// maximum so a very quiet baseline still demands a meaningful fraction of the
// observed amplitude, and at a small epsilon to avoid zero thresholds.
func Calibrate(envelope []float64, rateHz, mvcValue float64, cfg Config) Calibration {
	if mvcValue > 0 {
		return Calibration{
			Threshold: mvcValue * cfg.MVCThresholdPercentage / 100.0,
			Mode:      ThresholdModeMVC,
		}
	}
	return Calibration{
		Threshold: statisticalThreshold(envelope, rateHz, cfg),
		Mode:      ThresholdModeStatistical,
	}
}

func statisticalThreshold(envelope []float64, rateHz float64, cfg Config) float64 {
	if len(envelope) == 0 {
		return thresholdEpsilon
	}

	baseline := envelope
	if n := msToSamples(cfg.ActivatedBaselineWindowMs, rateHz); n > 0 && n < len(envelope) {
		baseline = envelope[:n]
	}

	mean, std := stat.MeanStdDev(baseline, nil)
	if len(baseline) < 2 {
		mean, std = baseline[0], 0
	}
	threshold := mean + statSigmaMultiplier*std

	var maxAmp float64
	for _, v := range envelope {
		if v > maxAmp {
			maxAmp = v
		}
	}
	if floor := cfg.ThresholdFactor * maxAmp; threshold < floor {
		threshold = floor
	}
	if threshold < thresholdEpsilon {
		threshold = thresholdEpsilon
	}
	return threshold
}
