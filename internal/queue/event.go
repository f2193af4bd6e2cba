// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// Auth event types.
const (
	EventLoginSucceeded   = "login.succeeded"
	EventLoginFailed      = "login.failed"
	EventPasswordChanged  = "password.changed"
	EventLogout           = "logout"
	EventAdminProvisioned = "admin.provisioned"
)

// AuthEvent is published after every auth state change or failed attempt.
// It never carries passwords or tokens.
type AuthEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
