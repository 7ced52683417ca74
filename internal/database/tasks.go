package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/duongtruongbinh/life-os/internal/models"
)

// TaskRepository handles task database operations
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, user_id, title, is_completed, priority, to_char(due_date, 'YYYY-MM-DD'), created_at, completed_at`

func scanTask(row interface{ Scan(...any) error }) (*models.Task, error) {
	var (
		t           models.Task
		priority    sql.NullString
		dueDate     sql.NullString
		completedAt sql.NullTime
	)
	if err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.IsCompleted,
		&priority,
		&dueDate,
		&t.CreatedAt,
		&completedAt,
	); err != nil {
		return nil, err
	}
	if priority.Valid {
		p := models.Priority(priority.String)
		t.Priority = &p
	}
	t.DueDate = stringPtr(dueDate)
	t.CompletedAt = timePtr(completedAt)
	return &t, nil
}

func priorityValue(p *models.Priority) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*p), Valid: true}
}

// List returns the user's tasks, newest first.
func (r *TaskRepository) List(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

// Sync deletes, inserts, then updates in one transaction. Inserted rows are
// returned in the order of toInsert.
func (r *TaskRepository) Sync(ctx context.Context, userID uuid.UUID, deletedIDs []string, toInsert []models.TaskInsert, toUpdate []models.TaskUpdate) ([]models.Task, error) {
	inserted := make([]models.Task, 0, len(toInsert))

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if len(deletedIDs) > 0 {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM tasks WHERE user_id = $1 AND id = ANY($2::uuid[])`,
				userID, pq.Array(deletedIDs),
			); err != nil {
				return fmt.Errorf("failed to delete tasks: %w", err)
			}
		}

		insertQuery := `
			INSERT INTO tasks (user_id, title, is_completed, priority, due_date, created_at, completed_at)
			VALUES ($1, $2, $3, $4, $5::date, COALESCE($6, NOW()), $7)
			RETURNING ` + taskColumns
		for _, in := range toInsert {
			var createdAt sql.NullTime
			if !in.CreatedAt.IsZero() {
				createdAt = sql.NullTime{Time: in.CreatedAt, Valid: true}
			}
			t, err := scanTask(tx.QueryRowContext(ctx, insertQuery,
				userID,
				in.Title,
				in.IsCompleted,
				priorityValue(in.Priority),
				nullString(in.DueDate),
				createdAt,
				nullTime(in.CompletedAt),
			))
			if err != nil {
				return fmt.Errorf("failed to insert task: %w", err)
			}
			inserted = append(inserted, *t)
		}

		updateQuery := `
			UPDATE tasks
			SET title = $3, is_completed = $4, priority = $5, due_date = $6::date, completed_at = $7
			WHERE id = $1 AND user_id = $2`
		for _, up := range toUpdate {
			if _, err := tx.ExecContext(ctx, updateQuery,
				up.ID,
				userID,
				up.Title,
				up.IsCompleted,
				priorityValue(up.Priority),
				nullString(up.DueDate),
				nullTime(up.CompletedAt),
			); err != nil {
				return fmt.Errorf("failed to update task %s: %w", up.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}
