package emg

import "testing"

func classifyWith(t *testing.T, c Candidate, threshold float64, cfg Config) Contraction {
	t.Helper()
	return classify(c, 1000, threshold, cfg)
}

func TestClassify_Excellent(t *testing.T) {
	cfg := DefaultConfig()
	// 400ms, peak well above the strong-amplitude band, sustained mean.
	c := Candidate{StartIndex: 0, EndIndex: 399, PeakAmp: 1.0, MeanAmp: 0.8}
	got := classifyWith(t, c, 0.5, cfg)
	if got.Quality != QualityExcellent {
		t.Fatalf("quality = %s, want excellent", got.Quality)
	}
	if !got.MeetsDuration || !got.MeetsAmplitude {
		t.Fatalf("compliance flags = %v/%v, want both true", got.MeetsDuration, got.MeetsAmplitude)
	}
}

func TestClassify_AdequateDurationOnBorderlineAmplitude(t *testing.T) {
	cfg := DefaultConfig()
	// Peak crosses the threshold but stays inside the borderline band below
	// StrongAmplitudeFactor*threshold.
	c := Candidate{StartIndex: 0, EndIndex: 399, PeakAmp: 0.55, MeanAmp: 0.4}
	got := classifyWith(t, c, 0.5, cfg)
	if got.Quality != QualityAdequateDuration {
		t.Fatalf("quality = %s, want adequate_duration", got.Quality)
	}
	if !got.MeetsAmplitude {
		t.Fatalf("peak above threshold should still set meets_amplitude")
	}
}

func TestClassify_InsufficientWhenMeanNotSustained(t *testing.T) {
	cfg := DefaultConfig()
	// Peak spiked over the threshold but the mean collapsed below the
	// sustained fraction: downgraded.
	c := Candidate{StartIndex: 0, EndIndex: 399, PeakAmp: 0.6, MeanAmp: 0.1}
	got := classifyWith(t, c, 0.5, cfg)
	if got.Quality != QualityInsufficient {
		t.Fatalf("quality = %s, want insufficient", got.Quality)
	}
	if got.MeetsAmplitude {
		t.Fatalf("unsustained mean should clear meets_amplitude")
	}
}

func TestClassify_AdequateForceOnBorderlineDuration(t *testing.T) {
	cfg := DefaultConfig()
	// Widen the strong-duration band so a 120ms contraction is borderline
	// duration while its amplitude is strongly met.
	cfg.Quality.StrongDurationFactor = 2.0
	c := Candidate{StartIndex: 0, EndIndex: 119, PeakAmp: 1.0, MeanAmp: 0.9}
	got := classifyWith(t, c, 0.5, cfg)
	if got.Quality != QualityAdequateForce {
		t.Fatalf("quality = %s, want adequate_force", got.Quality)
	}
}

func TestClassify_CutoffsAreConfigurable(t *testing.T) {
	cfg := DefaultConfig()
	c := Candidate{StartIndex: 0, EndIndex: 399, PeakAmp: 0.6, MeanAmp: 0.55}

	got := classifyWith(t, c, 0.5, cfg)
	if got.Quality == QualityExcellent {
		t.Fatalf("peak 0.6 on threshold 0.5 should not be excellent at default factor")
	}

	cfg.Quality.StrongAmplitudeFactor = 1.0
	got = classifyWith(t, c, 0.5, cfg)
	if got.Quality != QualityExcellent {
		t.Fatalf("quality = %s, want excellent after relaxing amplitude factor", got.Quality)
	}
}

func TestTallyQuality_CountsAndCompliance(t *testing.T) {
	contractions := []Contraction{
		{Quality: QualityExcellent},
		{Quality: QualityExcellent},
		{Quality: QualityAdequateForce},
		{Quality: QualityAdequateDuration},
		{Quality: QualityInsufficient},
	}
	counts, compliant := tallyQuality(contractions)
	if counts[QualityExcellent] != 2 || counts[QualityAdequateForce] != 1 ||
		counts[QualityAdequateDuration] != 1 || counts[QualityInsufficient] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	// Excellent + AdequateForce satisfy the default compliance rule.
	if compliant != 3 {
		t.Fatalf("compliant = %d, want 3", compliant)
	}
}
