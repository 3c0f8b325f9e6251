package models

import (
	"time"
)

// User is an account known to the backend
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// LoginRequest
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserProfile - public-facing profile, NO sensitive data
type UserProfile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// LoginResponse
type LoginResponse struct {
	Token     string      `json:"token"`
	User      UserProfile `json:"user"`
	ExpiresIn int         `json:"expiresIn"` // seconds
}

// RefreshRequest carries the token being replaced
type RefreshRequest struct {
	Token string `json:"token"`
}

// RefreshResponse carries the new bearer token
type RefreshResponse struct {
	Token string `json:"token"`
}
