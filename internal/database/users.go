package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/duongtruongbinh/life-os/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// UserRepository handles user database operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, subject, email, name, created_at, updated_at, last_seen_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	var name sql.NullString
	if err := row.Scan(
		&user.ID,
		&user.Subject,
		&user.Email,
		&name,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.LastSeenAt,
	); err != nil {
		return nil, err
	}
	user.Name = stringPtr(name)
	return user, nil
}

// UpsertFromClaims returns the user for the token subject, creating it on
// first sight and refreshing email, name, and last_seen_at otherwise.
func (r *UserRepository) UpsertFromClaims(ctx context.Context, claims *models.Claims) (*models.User, error) {
	if claims == nil || claims.Subject == "" {
		return nil, errors.New("claims subject is required")
	}
	var name *string
	if claims.Name != "" {
		name = &claims.Name
	}

	query := `
		INSERT INTO users (subject, email, name, created_at, updated_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $4, $4)
		ON CONFLICT (subject) DO UPDATE
		SET email = EXCLUDED.email,
			name = COALESCE(EXCLUDED.name, users.name),
			updated_at = EXCLUDED.updated_at,
			last_seen_at = EXCLUDED.last_seen_at
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query,
		claims.Subject,
		claims.Email,
		nullString(name),
		time.Now().UTC(),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// List returns every user, most recently seen first.
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY last_seen_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// Delete deletes a user by ID. Owned rows go with it.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}
