package domain

import "time"

// Role names seeded at startup.
const (
	TypeUserUser    = "USER"
	TypeUserManager = "MANAGER"
)

// TypeUser is the role catalog for accounts.
type TypeUser struct {
	ID   int64
	Name string
}

// User is an account that can submit signalements or manage them.
// LoginAttempts and IsBlocked are mutated only by the auth service.
type User struct {
	ID            int64
	Username      string
	Email         string
	PasswordHash  string
	TypeUserID    int64
	TypeUserName  string
	LoginAttempts int
	IsBlocked     bool
	BlockedAt     *time.Time
	LastLogin     *time.Time
}
