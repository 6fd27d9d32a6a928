// Package model defines the core domain types for the proctoring relay.
package model

import (
	"errors"
	"time"
)

var (
	ErrMissingToken    = errors.New("authentication token missing")
	ErrInvalidToken    = errors.New("authentication token invalid")
	ErrUnauthorized    = errors.New("role not permitted for this action")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidRole     = errors.New("invalid role")
)

// Principal is the identity decoded from a verified connection credential.
// It is attached to a connection for its whole lifetime.
type Principal struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

// Participant is one member of an active interview session.
type Participant struct {
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	ConnectedAt time.Time `json:"connectedAt"`
}
