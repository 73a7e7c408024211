package events

import (
	"time"

	"github.com/spec-kit/webapp-gateway/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIdentityResolved      EventType = "identity_resolved"
	EventIdentityCleared       EventType = "identity_cleared"
	EventIdentityRefreshFailed EventType = "identity_refresh_failed"
	EventSessionStarted        EventType = "session_started"
	EventSessionEnded          EventType = "session_ended"
)

// Event represents a state change emitted by the identity layer.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	SessionKey string      `json:"session_key"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// IdentityResolvedPayload payload.
type IdentityResolvedPayload struct {
	UserID  string        `json:"user_id"`
	Roles   []domain.Role `json:"roles"`
	Version uint64        `json:"version"`
}

// IdentityClearedPayload payload.
type IdentityClearedPayload struct {
	Reason  string `json:"reason"`
	Version uint64 `json:"version"`
}

// IdentityRefreshFailedPayload payload.
type IdentityRefreshFailedPayload struct {
	Error string `json:"error"`
}

// SessionPayload payload.
type SessionPayload struct {
	UserID string `json:"user_id"`
}
