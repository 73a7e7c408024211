// Package local resolves identities from the gateway's own Postgres user store.
package local

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/webapp-gateway/internal/auth"
	"github.com/spec-kit/webapp-gateway/internal/domain"
	"github.com/spec-kit/webapp-gateway/internal/identity"
	"github.com/spec-kit/webapp-gateway/internal/repository"
)

const sourceName = "postgres"

// Source verifies the session's access token and loads the account behind it.
type Source struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
}

// NewSource builds a local source.
func NewSource(users repository.UserRepository, tokens *auth.TokenManager) *Source {
	return &Source{users: users, tokens: tokens}
}

// CurrentIdentity implements identity.Source.
func (s *Source) CurrentIdentity(ctx context.Context, creds identity.Credentials) (*domain.Identity, error) {
	claims, err := s.tokens.ParseToken(creds.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrNoSession, err)
	}
	if creds.UserID != "" && claims.Subject != creds.UserID {
		return nil, fmt.Errorf("%w: token subject mismatch", identity.ErrNoSession)
	}
	if creds.SessionID != "" && claims.SessionID != creds.SessionID {
		return nil, fmt.Errorf("%w: token bound to another session", identity.ErrNoSession)
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s no longer exists", identity.ErrNoSession, claims.Subject)
		}
		return nil, &identity.FetchError{Source: sourceName, Err: err}
	}
	return user.Identity(), nil
}
