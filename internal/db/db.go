package db

import (
	"database/sql"
	"fmt"
	"math"

	_ "modernc.org/sqlite"

	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/emg"
	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/session"
)

type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the analytics database and applies all
// pending migrations.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := sqlDB.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	db := &DB{sqlDB}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// SaveSession persists a session result with its per-channel stats and
// contractions in one transaction.
func (db *DB) SaveSession(result *session.Result) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO sessions (session_id, source_file, analysed_at) VALUES (?, ?, ?)`,
		result.SessionID, result.SourceFile, result.AnalysedAt,
	); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	for _, cr := range result.Channels {
		if cr.Analytics == nil {
			if _, err := tx.Exec(
				`INSERT INTO channel_stats (session_id, channel_name, error) VALUES (?, ?, ?)`,
				result.SessionID, cr.ChannelName, cr.Error,
			); err != nil {
				return fmt.Errorf("failed to insert failed channel %s: %w", cr.ChannelName, err)
			}
			continue
		}

		a := cr.Analytics
		if _, err := tx.Exec(
			`INSERT INTO channel_stats (
				session_id, channel_name, threshold, threshold_mode, detection_mode,
				total_contractions, excellent_count, adequate_force_count,
				adequate_duration_count, insufficient_count, compliant_count,
				mean_power_freq_hz, median_freq_hz, fatigue_index
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			result.SessionID, cr.ChannelName, a.Threshold, string(a.ThresholdMode),
			string(a.DetectionMode), a.TotalContractions,
			a.QualityCounts[emg.QualityExcellent],
			a.QualityCounts[emg.QualityAdequateForce],
			a.QualityCounts[emg.QualityAdequateDuration],
			a.QualityCounts[emg.QualityInsufficient],
			a.CompliantCount,
			nullableFloat(a.MeanPowerFreqHz), nullableFloat(a.MedianFreqHz),
			nullableFloat(a.FatigueIndex),
		); err != nil {
			return fmt.Errorf("failed to insert channel stats for %s: %w", cr.ChannelName, err)
		}

		for _, c := range a.Contractions {
			if _, err := tx.Exec(
				`INSERT INTO contractions (
					session_id, channel_name, start_time_secs, end_time_secs,
					duration_ms, peak_amplitude, mean_amplitude, quality,
					meets_duration, meets_amplitude, median_freq_hz
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				result.SessionID, cr.ChannelName, c.StartTimeSecs, c.EndTimeSecs,
				c.DurationMs, c.PeakAmplitude, c.MeanAmplitude, string(c.Quality),
				c.MeetsDuration, c.MeetsAmplitude, nullableFloat(c.MedianFreqHz),
			); err != nil {
				return fmt.Errorf("failed to insert contraction for %s: %w", cr.ChannelName, err)
			}
		}
	}

	return tx.Commit()
}

// SessionRow is the session list record returned by Sessions.
type SessionRow struct {
	SessionID    string `json:"session_id"`
	SourceFile   string `json:"source_file"`
	AnalysedAt   string `json:"analysed_at"`
	ChannelCount int    `json:"channel_count"`
}

// Sessions returns the most recent sessions, newest first.
func (db *DB) Sessions(limit int) ([]SessionRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT s.session_id, s.source_file, s.analysed_at,
		       (SELECT COUNT(*) FROM channel_stats cs WHERE cs.session_id = s.session_id)
		FROM sessions s
		ORDER BY s.analysed_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []SessionRow
	for rows.Next() {
		var s SessionRow
		if err := rows.Scan(&s.SessionID, &s.SourceFile, &s.AnalysedAt, &s.ChannelCount); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// ChannelStatsRow is one channel's persisted aggregate record.
type ChannelStatsRow struct {
	ChannelName       string  `json:"channel_name"`
	Error             string  `json:"error,omitempty"`
	Threshold         float64 `json:"threshold"`
	ThresholdMode     string  `json:"threshold_mode"`
	DetectionMode     string  `json:"detection_mode"`
	TotalContractions int     `json:"total_contractions"`
	ExcellentCount    int     `json:"excellent_count"`
	AdequateForce     int     `json:"adequate_force_count"`
	AdequateDuration  int     `json:"adequate_duration_count"`
	InsufficientCount int     `json:"insufficient_count"`
	CompliantCount    int     `json:"compliant_count"`
	MeanPowerFreqHz   float64 `json:"mean_power_freq_hz"`
	MedianFreqHz      float64 `json:"median_freq_hz"`
	FatigueIndex      float64 `json:"fatigue_index"`
}

// SessionDetail is a full persisted session: per-channel stats plus the
// classified contraction list.
type SessionDetail struct {
	SessionRow
	Channels     []ChannelStatsRow `json:"channels"`
	Contractions []ContractionRow  `json:"contractions"`
}

// ContractionRow is one persisted contraction.
type ContractionRow struct {
	ChannelName    string  `json:"channel_name"`
	StartTimeSecs  float64 `json:"start_time_secs"`
	EndTimeSecs    float64 `json:"end_time_secs"`
	DurationMs     float64 `json:"duration_ms"`
	PeakAmplitude  float64 `json:"peak_amplitude"`
	MeanAmplitude  float64 `json:"mean_amplitude"`
	Quality        string  `json:"quality"`
	MeetsDuration  bool    `json:"meets_duration"`
	MeetsAmplitude bool    `json:"meets_amplitude"`
	MedianFreqHz   float64 `json:"median_freq_hz"`
}

// Session loads one persisted session by id. Returns sql.ErrNoRows when the
// session does not exist.
func (db *DB) Session(sessionID string) (*SessionDetail, error) {
	detail := &SessionDetail{}
	err := db.QueryRow(
		`SELECT session_id, source_file, analysed_at FROM sessions WHERE session_id = ?`,
		sessionID,
	).Scan(&detail.SessionID, &detail.SourceFile, &detail.AnalysedAt)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT channel_name, COALESCE(error, ''), COALESCE(threshold, 0),
		       COALESCE(threshold_mode, ''), COALESCE(detection_mode, ''),
		       COALESCE(total_contractions, 0), COALESCE(excellent_count, 0),
		       COALESCE(adequate_force_count, 0), COALESCE(adequate_duration_count, 0),
		       COALESCE(insufficient_count, 0), COALESCE(compliant_count, 0),
		       mean_power_freq_hz, median_freq_hz, fatigue_index
		FROM channel_stats WHERE session_id = ? ORDER BY channel_name`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var cs ChannelStatsRow
		var mpf, mdf, fatigue sql.NullFloat64
		if err := rows.Scan(
			&cs.ChannelName, &cs.Error, &cs.Threshold, &cs.ThresholdMode,
			&cs.DetectionMode, &cs.TotalContractions, &cs.ExcellentCount,
			&cs.AdequateForce, &cs.AdequateDuration, &cs.InsufficientCount,
			&cs.CompliantCount, &mpf, &mdf, &fatigue,
		); err != nil {
			return nil, err
		}
		cs.MeanPowerFreqHz = floatOrNaN(mpf)
		cs.MedianFreqHz = floatOrNaN(mdf)
		cs.FatigueIndex = floatOrNaN(fatigue)
		detail.Channels = append(detail.Channels, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	contractionRows, err := db.Query(`
		SELECT channel_name, start_time_secs, end_time_secs, duration_ms,
		       peak_amplitude, mean_amplitude, quality, meets_duration,
		       meets_amplitude, median_freq_hz
		FROM contractions WHERE session_id = ?
		ORDER BY channel_name, start_time_secs`, sessionID)
	if err != nil {
		return nil, err
	}
	defer contractionRows.Close()

	for contractionRows.Next() {
		var c ContractionRow
		var mdf sql.NullFloat64
		if err := contractionRows.Scan(
			&c.ChannelName, &c.StartTimeSecs, &c.EndTimeSecs, &c.DurationMs,
			&c.PeakAmplitude, &c.MeanAmplitude, &c.Quality,
			&c.MeetsDuration, &c.MeetsAmplitude, &mdf,
		); err != nil {
			return nil, err
		}
		c.MedianFreqHz = floatOrNaN(mdf)
		detail.Contractions = append(detail.Contractions, c)
	}
	return detail, contractionRows.Err()
}

// ComplianceRow aggregates compliance per channel over a reporting window.
type ComplianceRow struct {
	ChannelName       string  `json:"channel_name"`
	SessionCount      int     `json:"session_count"`
	TotalContractions int     `json:"total_contractions"`
	CompliantCount    int     `json:"compliant_count"`
	ComplianceRatio   float64 `json:"compliance_ratio"`
}

// ComplianceRollup aggregates per-channel compliance over the last N days.
func (db *DB) ComplianceRollup(days int) ([]ComplianceRow, error) {
	if days < 1 {
		days = 1
	}
	rows, err := db.Query(fmt.Sprintf(`
		SELECT cs.channel_name,
		       COUNT(DISTINCT cs.session_id),
		       COALESCE(SUM(cs.total_contractions), 0),
		       COALESCE(SUM(cs.compliant_count), 0)
		FROM channel_stats cs
		JOIN sessions s ON s.session_id = cs.session_id
		WHERE cs.error IS NULL
		  AND s.analysed_at >= datetime('now', '-%d days')
		GROUP BY cs.channel_name
		ORDER BY cs.channel_name`, days))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rollup []ComplianceRow
	for rows.Next() {
		var r ComplianceRow
		if err := rows.Scan(&r.ChannelName, &r.SessionCount, &r.TotalContractions, &r.CompliantCount); err != nil {
			return nil, err
		}
		if r.TotalContractions > 0 {
			r.ComplianceRatio = float64(r.CompliantCount) / float64(r.TotalContractions)
		}
		rollup = append(rollup, r)
	}
	return rollup, rows.Err()
}

// nullableFloat maps NaN to NULL for storage; SQLite has no NaN value.
func nullableFloat(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
