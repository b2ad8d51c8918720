package model

import "time"

// Roles assignable to a user account.
const (
	RoleClient = "client"
	RoleUser   = "user"
	RoleAdmin  = "admin"
)

// User represents an account in the system. PasswordHash is never serialized.
type User struct {
	ID                string    `db:"id" json:"id"`
	Nom               string    `db:"nom" json:"nom"`
	Email             string    `db:"email" json:"email"`
	PasswordHash      string    `db:"password_hash" json:"-"`
	Role              string    `db:"role" json:"role"`
	ImagesUsedTotal   int       `db:"images_used_total" json:"images_used_total"`
	ImagesLimitTotal  int       `db:"images_limit_total" json:"images_limit_total"`
	IsActive          bool      `db:"is_active" json:"is_active"`
	IsVerified        bool      `db:"is_verified" json:"is_verified"`
	VerificationToken *string   `db:"verification_token" json:"-"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// CanConsume reports whether the user still has generation credits left.
func (u *User) CanConsume() bool {
	return u.ImagesUsedTotal < u.ImagesLimitTotal
}

// Credits is the quota snapshot returned with every generation response.
type Credits struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

// CreditsSnapshot builds a Credits block from the user's current counters.
// Remaining never goes negative even when an admin has set used above limit.
func (u *User) CreditsSnapshot() Credits {
	remaining := u.ImagesLimitTotal - u.ImagesUsedTotal
	if remaining < 0 {
		remaining = 0
	}
	return Credits{Used: u.ImagesUsedTotal, Limit: u.ImagesLimitTotal, Remaining: remaining}
}
