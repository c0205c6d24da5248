package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DailyMood mirrors the 'daily_moods' table, one row per (account, date).
// Score is the 0-3 scale used by the weekly summary (0 = rough day,
// 3 = great day).
type DailyMood struct {
	AccountID uint64 `json:"-"`          // daily_moods.account_id
	Date      string `json:"date"`       // daily_moods.date (YYYY-MM-DD)
	Mood      string `json:"mood"`       // daily_moods.mood
	Score     int    `json:"mood_score"` // daily_moods.mood_score
}

// DailyWellness mirrors the 'daily_wellness' table, one row per
// (account, date). Sleep and Water are kept as strings because the
// client submits free-form values like "7.5" or "8 glasses".
type DailyWellness struct {
	AccountID uint64 `json:"-"`        // daily_wellness.account_id
	Date      string `json:"date"`     // daily_wellness.date (YYYY-MM-DD)
	Sleep     string `json:"sleep"`    // daily_wellness.sleep
	Water     string `json:"water"`    // daily_wellness.water
	Activity  string `json:"activity"` // daily_wellness.activity
	Stress    int    `json:"stress"`   // daily_wellness.stress
}

// WellnessMetric enumerates the individually updatable wellness
// columns. Each variant dispatches to a fixed typed update statement;
// column names are never assembled from request input.
type WellnessMetric int

const (
	MetricSleep WellnessMetric = iota
	MetricWater
	MetricActivity
	MetricStress
)

// ParseWellnessMetric maps the wire name of a metric onto its variant.
func ParseWellnessMetric(s string) (WellnessMetric, error) {
	switch s {
	case "sleep":
		return MetricSleep, nil
	case "water":
		return MetricWater, nil
	case "activity":
		return MetricActivity, nil
	case "stress":
		return MetricStress, nil
	}
	return 0, fmt.Errorf("unknown wellness metric %q", s)
}

type WellnessRepo struct{ DB *sql.DB }

func NewWellnessRepo(db *sql.DB) *WellnessRepo { return &WellnessRepo{DB: db} }

// UpsertMood records the mood for (account, date).
func (r *WellnessRepo) UpsertMood(ctx context.Context, m *DailyMood) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO daily_moods (account_id, date, mood, mood_score) VALUES (?,?,?,?)
		 ON DUPLICATE KEY UPDATE mood=VALUES(mood), mood_score=VALUES(mood_score)`,
		m.AccountID, m.Date, m.Mood, m.Score)
	return err
}

// GetMood returns the mood row for the date, or ErrNotFound.
func (r *WellnessRepo) GetMood(ctx context.Context, accountID uint64, date string) (DailyMood, error) {
	var m DailyMood
	err := r.DB.QueryRowContext(ctx,
		"SELECT account_id, date, mood, mood_score FROM daily_moods WHERE account_id=? AND date=? LIMIT 1",
		accountID, date).Scan(&m.AccountID, &m.Date, &m.Mood, &m.Score)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound
	}
	return m, err
}

// ListMoodRange returns mood rows with from <= date <= to.
func (r *WellnessRepo) ListMoodRange(ctx context.Context, accountID uint64, from, to string) ([]DailyMood, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT account_id, date, mood, mood_score FROM daily_moods
		 WHERE account_id=? AND date>=? AND date<=? ORDER BY date ASC`,
		accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DailyMood
	for rows.Next() {
		var m DailyMood
		if err := rows.Scan(&m.AccountID, &m.Date, &m.Mood, &m.Score); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetWellness returns the wellness row for the date, or ErrNotFound.
func (r *WellnessRepo) GetWellness(ctx context.Context, accountID uint64, date string) (DailyWellness, error) {
	var w DailyWellness
	err := r.DB.QueryRowContext(ctx,
		"SELECT account_id, date, sleep, water, activity, stress FROM daily_wellness WHERE account_id=? AND date=? LIMIT 1",
		accountID, date).Scan(&w.AccountID, &w.Date, &w.Sleep, &w.Water, &w.Activity, &w.Stress)
	if errors.Is(err, sql.ErrNoRows) {
		return w, ErrNotFound
	}
	return w, err
}

// UpdateMetric upserts a single wellness column for (account, date).
// The row is seeded with defaults on first write of the day so partial
// updates always land on a complete record.
func (r *WellnessRepo) UpdateMetric(ctx context.Context, accountID uint64, date string, metric WellnessMetric, value string, stress int) error {
	const seed = `INSERT INTO daily_wellness (account_id, date, sleep, water, activity, stress)
	              VALUES (?,?, '7.5', '0', 'Light Stretching', 5)
	              ON DUPLICATE KEY UPDATE account_id=account_id`
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, seed, accountID, date); err != nil {
		return err
	}
	switch metric {
	case MetricSleep:
		_, err = tx.ExecContext(ctx, "UPDATE daily_wellness SET sleep=? WHERE account_id=? AND date=?", value, accountID, date)
	case MetricWater:
		_, err = tx.ExecContext(ctx, "UPDATE daily_wellness SET water=? WHERE account_id=? AND date=?", value, accountID, date)
	case MetricActivity:
		_, err = tx.ExecContext(ctx, "UPDATE daily_wellness SET activity=? WHERE account_id=? AND date=?", value, accountID, date)
	case MetricStress:
		_, err = tx.ExecContext(ctx, "UPDATE daily_wellness SET stress=? WHERE account_id=? AND date=?", stress, accountID, date)
	default:
		err = fmt.Errorf("unhandled wellness metric %d", metric)
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}
