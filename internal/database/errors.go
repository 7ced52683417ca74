package database

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrConflict marks a write rejected by a unique constraint. Its message is
// meant for the end user.
var ErrConflict = errors.New("conflict")

const uniqueViolation pq.ErrorCode = "23505"

// conflictOr wraps err as ErrConflict with message when Postgres reports a
// unique violation, and returns err unchanged otherwise.
func conflictOr(err error, message string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, message)
	}
	return err
}
