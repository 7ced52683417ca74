package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account known to the server, keyed by the identity provider's subject.
type User struct {
	ID         uuid.UUID `json:"id"`
	Subject    string    `json:"subject"`
	Email      string    `json:"email"`
	Name       *string   `json:"name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// Claims are the token fields the server relies on.
type Claims struct {
	Subject  string
	Email    string
	Name     string
	Issuer   string
	Audience []string
	Expiry   time.Time
}
