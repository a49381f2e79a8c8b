package models

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

func (r UserRole) Valid() bool {
	return r == UserRoleUser || r == UserRoleAdmin
}

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	Role         UserRole  `json:"role"`
	IsVerified   bool      `json:"is_verified"`
	Phone        *string   `json:"phone"`
	ProfileImage *string   `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProfilePatch holds the self-service mutable fields. Nil means unchanged.
type ProfilePatch struct {
	Username     *string
	Email        *string
	Phone        *string
	ProfileImage *string
}

func (p ProfilePatch) Empty() bool {
	return p.Username == nil && p.Email == nil && p.Phone == nil && p.ProfileImage == nil
}
