package auth

import (
	"time"

	"github.com/google/uuid"
)

// Default roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a domain entity representing a library user.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRole reports whether the user holds the given role.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
