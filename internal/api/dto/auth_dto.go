package dto

import "time"

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for login. Identifier matches username or email.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginRejection explains a refused attempt.
type LoginRejection struct {
	Reason            string `json:"reason"`
	RemainingAttempts int    `json:"remaining_attempts"`
}

// UserUpdateRequest carries partial account updates.
type UserUpdateRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// UserResponse describes an account.
type UserResponse struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	TypeUser      string     `json:"type_user"`
	LoginAttempts int        `json:"login_attempts"`
	IsBlocked     bool       `json:"is_blocked"`
	BlockedAt     *time.Time `json:"blocked_at,omitempty"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
}
