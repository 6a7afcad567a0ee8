package db

import (
	"database/sql"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/emg"
	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/session"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "analytics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleResult() *session.Result {
	return &session.Result{
		SessionID:  "11111111-2222-3333-4444-555555555555",
		SourceFile: "session1.csv",
		AnalysedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Channels: []session.ChannelResult{
			{
				ChannelName: "CH1",
				Analytics: &emg.ChannelAnalytics{
					ChannelName:   "CH1",
					Threshold:     0.2,
					ThresholdMode: emg.ThresholdModeStatistical,
					DetectionMode: emg.ModeEnvelope,
					Contractions: []emg.Contraction{
						{
							StartTimeSecs: 2.0, EndTimeSecs: 2.3, DurationMs: 300,
							PeakAmplitude: 1.0, MeanAmplitude: 0.8,
							Quality: emg.QualityExcellent, MeetsDuration: true,
							MeetsAmplitude: true, MedianFreqHz: 85,
						},
						{
							StartTimeSecs: 5.0, EndTimeSecs: 5.2, DurationMs: 200,
							PeakAmplitude: 0.5, MeanAmplitude: 0.3,
							Quality: emg.QualityAdequateDuration, MeetsDuration: true,
							MeetsAmplitude: true, MedianFreqHz: math.NaN(),
						},
					},
					TotalContractions: 2,
					QualityCounts: map[emg.QualityTag]int{
						emg.QualityExcellent:        1,
						emg.QualityAdequateDuration: 1,
					},
					CompliantCount:  1,
					MeanPowerFreqHz: 92.5,
					MedianFreqHz:    88.0,
					FatigueIndex:    math.NaN(),
				},
			},
			{ChannelName: "CH2", Error: "invalid signal: NaN or Inf sample in waveform"},
		},
	}
}

func TestSaveAndLoadSession(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveSession(sampleResult()))

	detail, err := db.Session("11111111-2222-3333-4444-555555555555")
	require.NoError(t, err)
	require.Equal(t, "session1.csv", detail.SourceFile)
	require.Len(t, detail.Channels, 2)
	require.Len(t, detail.Contractions, 2)

	ch1 := detail.Channels[0]
	require.Equal(t, "CH1", ch1.ChannelName)
	require.Equal(t, 2, ch1.TotalContractions)
	require.Equal(t, 1, ch1.ExcellentCount)
	require.Equal(t, 1, ch1.CompliantCount)
	require.Equal(t, 92.5, ch1.MeanPowerFreqHz)
	// NaN round-trips through NULL storage.
	require.True(t, math.IsNaN(ch1.FatigueIndex))

	ch2 := detail.Channels[1]
	require.NotEmpty(t, ch2.Error)
	require.Equal(t, 0, ch2.TotalContractions)

	require.Equal(t, 2.0, detail.Contractions[0].StartTimeSecs)
	require.True(t, math.IsNaN(detail.Contractions[1].MedianFreqHz))
}

func TestSessions_ListsNewestFirst(t *testing.T) {
	db := openTestDB(t)

	first := sampleResult()
	second := sampleResult()
	second.SessionID = "99999999-8888-7777-6666-555555555555"
	second.SourceFile = "session2.csv"
	second.AnalysedAt = first.AnalysedAt.Add(time.Hour)

	require.NoError(t, db.SaveSession(first))
	require.NoError(t, db.SaveSession(second))

	sessions, err := db.Sessions(10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Equal(t, "session2.csv", sessions[0].SourceFile)
	require.Equal(t, 2, sessions[0].ChannelCount)
}

func TestSession_NotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Session("missing")
	require.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestComplianceRollup(t *testing.T) {
	db := openTestDB(t)
	result := sampleResult()
	result.AnalysedAt = time.Now().UTC()
	require.NoError(t, db.SaveSession(result))

	rollup, err := db.ComplianceRollup(7)
	require.NoError(t, err)
	// The failed channel is excluded from the rollup.
	require.Len(t, rollup, 1)
	require.Equal(t, "CH1", rollup[0].ChannelName)
	require.Equal(t, 2, rollup[0].TotalContractions)
	require.Equal(t, 1, rollup[0].CompliantCount)
	require.InDelta(t, 0.5, rollup[0].ComplianceRatio, 1e-9)
}

func TestMigrateVersionAndDown(t *testing.T) {
	db := openTestDB(t)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(1), version)

	require.NoError(t, db.MigrateDown())
	_, err = db.Exec(`SELECT COUNT(*) FROM sessions`)
	require.Error(t, err, "sessions table should be gone after down migration")
}
