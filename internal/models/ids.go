package models

import (
	"strings"

	"github.com/google/uuid"
)

// TempIDPrefix marks ids generated on the client that the server has not assigned yet.
const TempIDPrefix = "temp-"

// NewTempID returns a fresh client-side id.
func NewTempID() string {
	return TempIDPrefix + uuid.NewString()
}

// IsTempID reports whether id was generated locally and still needs an insert.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}
