package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/duongtruongbinh/life-os/internal/models"
)

// DailyLogRepository handles daily log database operations
type DailyLogRepository struct {
	db *DB
}

// NewDailyLogRepository creates a new daily log repository
func NewDailyLogRepository(db *DB) *DailyLogRepository {
	return &DailyLogRepository{db: db}
}

const dailyLogColumns = `user_id, to_char(date, 'YYYY-MM-DD'), sleep_start, sleep_end, focus_start, focus_end,
	focus_minutes, habits_status, pushup_count, notes`

func scanDailyLog(row interface{ Scan(...any) error }) (*models.DailyLog, error) {
	var (
		l                                          models.DailyLog
		sleepStart, sleepEnd, focusStart, focusEnd sql.NullTime
		statusJSON                                 []byte
		notes                                      sql.NullString
	)
	if err := row.Scan(
		&l.UserID,
		&l.Date,
		&sleepStart,
		&sleepEnd,
		&focusStart,
		&focusEnd,
		&l.FocusMinutes,
		&statusJSON,
		&l.PushupCount,
		&notes,
	); err != nil {
		return nil, err
	}

	l.SleepStart = timePtr(sleepStart)
	l.SleepEnd = timePtr(sleepEnd)
	l.FocusStart = timePtr(focusStart)
	l.FocusEnd = timePtr(focusEnd)
	l.Notes = stringPtr(notes)
	l.HabitsStatus = map[string]bool{}
	if len(statusJSON) > 0 {
		if err := json.Unmarshal(statusJSON, &l.HabitsStatus); err != nil {
			return nil, fmt.Errorf("failed to unmarshal habits_status: %w", err)
		}
	}
	return &l, nil
}

// GetByDate returns the user's log for date, or nil when none exists.
func (r *DailyLogRepository) GetByDate(ctx context.Context, userID uuid.UUID, date string) (*models.DailyLog, error) {
	query := `SELECT ` + dailyLogColumns + ` FROM daily_logs WHERE user_id = $1 AND date = $2::date`

	l, err := scanDailyLog(r.db.QueryRowContext(ctx, query, userID, date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily log: %w", err)
	}
	return l, nil
}

// GetRange returns the user's logs with start <= date <= end, ascending.
func (r *DailyLogRepository) GetRange(ctx context.Context, userID uuid.UUID, start, end string) ([]models.DailyLog, error) {
	query := `SELECT ` + dailyLogColumns + `
		FROM daily_logs
		WHERE user_id = $1 AND date >= $2::date AND date <= $3::date
		ORDER BY date ASC`

	rows, err := r.db.QueryContext(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily logs: %w", err)
	}
	defer rows.Close()

	logs := make([]models.DailyLog, 0)
	for rows.Next() {
		l, err := scanDailyLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily log: %w", err)
		}
		logs = append(logs, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily logs: %w", err)
	}
	return logs, nil
}

// UpsertMany writes every log in one transaction, keyed by (user, date).
func (r *DailyLogRepository) UpsertMany(ctx context.Context, userID uuid.UUID, logs []models.DailyLog) error {
	if len(logs) == 0 {
		return nil
	}

	query := `
		INSERT INTO daily_logs (user_id, date, sleep_start, sleep_end, focus_start, focus_end,
			focus_minutes, habits_status, pushup_count, notes, updated_at)
		VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (user_id, date) DO UPDATE
		SET sleep_start = EXCLUDED.sleep_start,
			sleep_end = EXCLUDED.sleep_end,
			focus_start = EXCLUDED.focus_start,
			focus_end = EXCLUDED.focus_end,
			focus_minutes = EXCLUDED.focus_minutes,
			habits_status = EXCLUDED.habits_status,
			pushup_count = EXCLUDED.pushup_count,
			notes = EXCLUDED.notes,
			updated_at = NOW()`

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare daily log upsert: %w", err)
		}
		defer stmt.Close()

		for _, l := range logs {
			status := l.HabitsStatus
			if status == nil {
				status = map[string]bool{}
			}
			statusJSON, err := json.Marshal(status)
			if err != nil {
				return fmt.Errorf("failed to marshal habits_status: %w", err)
			}
			if _, err := stmt.ExecContext(ctx,
				userID,
				l.Date,
				nullTime(l.SleepStart),
				nullTime(l.SleepEnd),
				nullTime(l.FocusStart),
				nullTime(l.FocusEnd),
				l.FocusMinutes,
				statusJSON,
				l.PushupCount,
				nullString(l.Notes),
			); err != nil {
				return fmt.Errorf("failed to upsert daily log %s: %w", l.Date, err)
			}
		}
		return nil
	})
}
