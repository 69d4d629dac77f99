package auth

import (
	"errors"
	"time"
)

// User represents a stored user account including credential material.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         string
	Permissions  []string
	Status       string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Rejection reasons surfaced to callers as 401 responses. Expired and
// malformed tokens are distinct, user-visible failures.
var (
	ErrMissingToken       = errors.New("authorization token required")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrPrincipalNotFound  = errors.New("user not found")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
