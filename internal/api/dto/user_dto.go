package dto

import (
	"time"

	"github.com/spec-kit/webapp-gateway/internal/domain"
	"github.com/spec-kit/webapp-gateway/internal/identity"
)

// SignupRequest payload for new accounts.
type SignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenRequest binds a remote API token to a session.
type TokenRequest struct {
	AccessToken string `json:"access_token"`
}

// SessionResponse describes the session started by an auth endpoint.
type SessionResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// IdentityResponse is the public shape of an identity.
type IdentityResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	DisplayName string   `json:"display_name"`
	Avatar      string   `json:"avatar,omitempty"`
	Roles       []string `json:"roles"`
}

// SubscriptionResponse mirrors a settled identity snapshot.
type SubscriptionResponse struct {
	Identity   *IdentityResponse `json:"identity"`
	Loading    bool              `json:"loading"`
	Version    uint64            `json:"version"`
	ResolvedAt *time.Time        `json:"resolved_at,omitempty"`
}

// NewIdentityResponse maps an identity; nil stays nil.
func NewIdentityResponse(id *domain.Identity) *IdentityResponse {
	if id == nil {
		return nil
	}
	return &IdentityResponse{
		ID:          id.ID,
		Email:       id.Email,
		FirstName:   id.FirstName,
		LastName:    id.LastName,
		DisplayName: id.DisplayName(),
		Avatar:      id.Avatar,
		Roles:       id.Roles.Strings(),
	}
}

// NewSubscriptionResponse maps a snapshot.
func NewSubscriptionResponse(snap identity.Snapshot) SubscriptionResponse {
	resp := SubscriptionResponse{
		Identity: NewIdentityResponse(snap.Identity),
		Loading:  snap.Loading,
		Version:  snap.Version,
	}
	if !snap.ResolvedAt.IsZero() {
		resolved := snap.ResolvedAt.UTC()
		resp.ResolvedAt = &resolved
	}
	return resp
}
