package models

import (
	"time"
)

// User is the view of an account returned by the identity provider.
// Credentials never leave the provider.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
