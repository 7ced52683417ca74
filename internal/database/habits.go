package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/duongtruongbinh/life-os/internal/models"
)

// HabitRepository handles habit definition database operations
type HabitRepository struct {
	db *DB
}

// NewHabitRepository creates a new habit repository
func NewHabitRepository(db *DB) *HabitRepository {
	return &HabitRepository{db: db}
}

const habitColumns = `id, user_id, name, icon, color, created_at`

const habitInsertQuery = `
	INSERT INTO habit_definitions (user_id, name, icon, color)
	VALUES ($1, $2, $3, $4)
	RETURNING ` + habitColumns

func scanHabit(row interface{ Scan(...any) error }) (*models.HabitDefinition, error) {
	var (
		h           models.HabitDefinition
		icon, color sql.NullString
	)
	if err := row.Scan(&h.ID, &h.UserID, &h.Name, &icon, &color, &h.CreatedAt); err != nil {
		return nil, err
	}
	h.Icon = stringPtr(icon)
	h.Color = stringPtr(color)
	return &h, nil
}

// List returns the user's habits in creation order.
func (r *HabitRepository) List(ctx context.Context, userID uuid.UUID) ([]models.HabitDefinition, error) {
	query := `SELECT ` + habitColumns + ` FROM habit_definitions WHERE user_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}
	defer rows.Close()

	habits := make([]models.HabitDefinition, 0)
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating habits: %w", err)
	}
	return habits, nil
}

// Sync deletes, inserts, then updates in one transaction. Inserted rows are
// returned in the order of toInsert, each with a fresh id. Names are not unique
// here: a rename and a new habit may swap names within one sync, and clients
// collapse duplicates by name.
func (r *HabitRepository) Sync(ctx context.Context, userID uuid.UUID, deletedIDs []string, toInsert []models.HabitInsert, toUpdate []models.HabitUpdate) ([]models.HabitDefinition, error) {
	inserted := make([]models.HabitDefinition, 0, len(toInsert))

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if len(deletedIDs) > 0 {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM habit_definitions WHERE user_id = $1 AND id = ANY($2::uuid[])`,
				userID, pq.Array(deletedIDs),
			); err != nil {
				return fmt.Errorf("failed to delete habits: %w", err)
			}
		}

		for _, in := range toInsert {
			h, err := scanHabit(tx.QueryRowContext(ctx, habitInsertQuery,
				userID,
				in.Name,
				nullString(in.Icon),
				nullString(in.Color),
			))
			if err != nil {
				return fmt.Errorf("failed to insert habit: %w", conflictOr(err, fmt.Sprintf("habit %q already exists", in.Name)))
			}
			inserted = append(inserted, *h)
		}

		updateQuery := `
			UPDATE habit_definitions
			SET name = $3, icon = $4, color = $5
			WHERE id = $1 AND user_id = $2`
		for _, up := range toUpdate {
			if _, err := tx.ExecContext(ctx, updateQuery,
				up.ID,
				userID,
				up.Name,
				nullString(up.Icon),
				nullString(up.Color),
			); err != nil {
				return fmt.Errorf("failed to update habit %s: %w", up.ID, conflictOr(err, fmt.Sprintf("habit %q already exists", up.Name)))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}
