package emg

// DetectionMode selects which strategy produces contraction boundaries. The
// set is closed: detection algorithms are clinically validated and dispatch is
// an exhaustive switch, not open-ended plugins.
type DetectionMode string

const (
	// ModeEnvelope uses the moving-RMS envelope of the raw signal only.
	ModeEnvelope DetectionMode = "envelope"
	// ModeHybrid uses the activated signal for temporal boundaries and the
	// raw envelope for amplitude evaluation.
	ModeHybrid DetectionMode = "hybrid"
	// ModeAuto selects hybrid when a shape-valid activated signal is
	// present and envelope otherwise.
	ModeAuto DetectionMode = "auto"
)

// Config holds all detection parameters for one Analyze call. Immutable by
// convention: the engine never writes to it. Construct with DefaultConfig and
// override fields as needed.
type Config struct {
	// ThresholdFactor scales the maximum envelope amplitude when neither an
	// MVC reference nor baseline statistics drive calibration.
	ThresholdFactor float64 `json:"threshold_factor"`

	// MinDurationMs is the minimum contraction duration after merging.
	MinDurationMs float64 `json:"min_duration_ms"`

	// MergeThresholdMs merges candidates separated by a shorter gap.
	MergeThresholdMs float64 `json:"merge_threshold_ms"`

	// MVCThresholdPercentage is the percentage of the MVC reference used as
	// detection threshold when a reference is supplied.
	MVCThresholdPercentage float64 `json:"mvc_threshold_percentage"`

	DetectionMode DetectionMode `json:"detection_mode"`

	// Hybrid-only options.
	RMSWindowMs                float64 `json:"rms_window_ms"`
	ActivatedBaselineWindowMs  float64 `json:"activated_baseline_window_ms"`
	ActivatedMinActivationMs   float64 `json:"activated_min_activation_ms"`
	TemporalToleranceMs        float64 `json:"temporal_tolerance_ms"`
	FallbackToEnvelope         bool    `json:"fallback_to_envelope"`
	RequireAmplitudeValidation bool    `json:"require_amplitude_validation"`

	Quality QualityConfig `json:"quality"`

	// Fatigue maps the per-contraction frequency trend to a scalar index.
	// Nil selects RegressionFatigueIndex.
	Fatigue FatigueFunc `json:"-"`
}

// QualityConfig exposes the classification cutoffs. The boundary between
// "adequate" and "excellent" is clinically tunable and intentionally not
// hardcoded; defaults here are placeholders pending clinical sign-off.
type QualityConfig struct {
	// StrongDurationFactor scales MinDurationMs: a contraction at or above
	// factor*MinDurationMs strongly meets the duration criterion.
	StrongDurationFactor float64 `json:"strong_duration_factor"`

	// StrongAmplitudeFactor scales the calibrated threshold: a peak at or
	// above factor*threshold strongly meets the amplitude criterion.
	StrongAmplitudeFactor float64 `json:"strong_amplitude_factor"`

	// SustainedFraction is the fraction of the threshold the mean amplitude
	// must sustain for the amplitude criterion to hold at all. Borderline
	// contractions whose peak crossed the threshold but whose mean fell
	// below this band are downgraded.
	SustainedFraction float64 `json:"sustained_fraction"`
}

// Default detection parameters. Attached to the constructor rather than
// living as ambient package state.
const (
	DefaultThresholdFactor           = 0.20
	DefaultMinDurationMs             = 100.0
	DefaultMergeThresholdMs          = 200.0
	DefaultMVCThresholdPercentage    = 75.0
	DefaultRMSWindowMs               = 50.0
	DefaultActivatedBaselineWindowMs = 1000.0
	DefaultActivatedMinActivationMs  = 50.0
	DefaultTemporalToleranceMs       = 10.0

	DefaultStrongDurationFactor  = 1.0
	DefaultStrongAmplitudeFactor = 1.25
	DefaultSustainedFraction     = 0.5
)

// DefaultConfig returns the standard clinical detection configuration.
func DefaultConfig() Config {
	return Config{
		ThresholdFactor:           DefaultThresholdFactor,
		MinDurationMs:             DefaultMinDurationMs,
		MergeThresholdMs:          DefaultMergeThresholdMs,
		MVCThresholdPercentage:    DefaultMVCThresholdPercentage,
		DetectionMode:             ModeAuto,
		RMSWindowMs:               DefaultRMSWindowMs,
		ActivatedBaselineWindowMs: DefaultActivatedBaselineWindowMs,
		ActivatedMinActivationMs:  DefaultActivatedMinActivationMs,
		TemporalToleranceMs:       DefaultTemporalToleranceMs,
		FallbackToEnvelope:        true,
		Quality: QualityConfig{
			StrongDurationFactor:  DefaultStrongDurationFactor,
			StrongAmplitudeFactor: DefaultStrongAmplitudeFactor,
			SustainedFraction:     DefaultSustainedFraction,
		},
	}
}

// Validate checks parameter ranges. Returns a ConfigurationError naming the
// offending field; Analyze calls this before touching any signal.
func (c Config) Validate() error {
	if c.ThresholdFactor <= 0 || c.ThresholdFactor > 1 {
		return &ConfigurationError{Field: "threshold_factor", Reason: "must be in (0, 1]"}
	}
	if c.MinDurationMs < 0 {
		return &ConfigurationError{Field: "min_duration_ms", Reason: "must be non-negative"}
	}
	if c.MergeThresholdMs < 0 {
		return &ConfigurationError{Field: "merge_threshold_ms", Reason: "must be non-negative"}
	}
	if c.MVCThresholdPercentage <= 0 || c.MVCThresholdPercentage > 100 {
		return &ConfigurationError{Field: "mvc_threshold_percentage", Reason: "must be in (0, 100]"}
	}
	switch c.DetectionMode {
	case ModeEnvelope, ModeHybrid, ModeAuto:
	default:
		return &ConfigurationError{Field: "detection_mode", Reason: "unknown mode " + string(c.DetectionMode)}
	}
	if c.RMSWindowMs <= 0 {
		return &ConfigurationError{Field: "rms_window_ms", Reason: "must be positive"}
	}
	if c.ActivatedBaselineWindowMs <= 0 {
		return &ConfigurationError{Field: "activated_baseline_window_ms", Reason: "must be positive"}
	}
	if c.ActivatedMinActivationMs < 0 {
		return &ConfigurationError{Field: "activated_min_activation_ms", Reason: "must be non-negative"}
	}
	if c.TemporalToleranceMs < 0 {
		return &ConfigurationError{Field: "temporal_tolerance_ms", Reason: "must be non-negative"}
	}
	if c.Quality.StrongDurationFactor < 1 {
		return &ConfigurationError{Field: "quality.strong_duration_factor", Reason: "must be at least 1"}
	}
	if c.Quality.StrongAmplitudeFactor < 1 {
		return &ConfigurationError{Field: "quality.strong_amplitude_factor", Reason: "must be at least 1"}
	}
	if c.Quality.SustainedFraction <= 0 || c.Quality.SustainedFraction > 1 {
		return &ConfigurationError{Field: "quality.sustained_fraction", Reason: "must be in (0, 1]"}
	}
	return nil
}
