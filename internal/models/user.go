package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the access level assigned to an account by the backend.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is the profile the backend returns for an authenticated account.
// Field names follow the JSON the account API emits.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"isActive"`
	Telephone string    `json:"telephone,omitempty"`
}

// IsAdmin returns true when the account holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// TokenPair is the credential material minted by login, register and refresh.
// The refresh credential itself lives in an httpOnly cookie managed by the
// HTTP client's jar; it never appears here.
type TokenPair struct {
	// AccessToken is the short-lived bearer token for API requests.
	AccessToken string
	// ExpiresAt is the access token's declared expiry (UTC).
	ExpiresAt time.Time
}

// Valid returns true while the access token has not reached its expiry.
func (t TokenPair) Valid() bool {
	return t.AccessToken != "" && time.Now().Before(t.ExpiresAt)
}
