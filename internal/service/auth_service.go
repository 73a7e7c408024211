package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/webapp-gateway/internal/auth"
	"github.com/spec-kit/webapp-gateway/internal/config"
	"github.com/spec-kit/webapp-gateway/internal/domain"
	"github.com/spec-kit/webapp-gateway/internal/events"
	"github.com/spec-kit/webapp-gateway/internal/identity"
	"github.com/spec-kit/webapp-gateway/internal/repository"
	"github.com/spec-kit/webapp-gateway/internal/session"
	apperrors "github.com/spec-kit/webapp-gateway/pkg/util"
)

const minPasswordLength = 8

// SignupInput carries the signup form fields.
type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthService coordinates signup, login and session lifecycle.
type AuthService struct {
	users      repository.UserRepository
	sessions   session.Store
	source     identity.Source
	tokenMgr   *auth.TokenManager
	events     events.Dispatcher
	bcryptCost int
	sessionTTL time.Duration
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Sessions   session.Store
	Source     identity.Source
	Tokens     *auth.TokenManager
	Dispatcher events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	}
	return &AuthService{
		users:      deps.UserRepo,
		sessions:   deps.Sessions,
		source:     deps.Source,
		tokenMgr:   tokens,
		events:     deps.Dispatcher,
		bcryptCost: cfg.Auth.BcryptCost,
		sessionTTL: cfg.Session.TTL(),
		now:        time.Now,
	}
}

// Signup creates a local account with the USER role and starts a session.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.User, *domain.Session, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, nil, apperrors.NewValidationError("password too short", map[string]any{
			"password": fmt.Sprintf("must be at least %d characters", minPasswordLength),
		})
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return nil, nil, apperrors.NewValidationError("password too long", map[string]any{
			"password": fmt.Sprintf("must be at most %d bytes", auth.MaxPasswordBytes),
		})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, nil, err
	}

	user := &domain.User{
		Email:        email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: hash,
		Roles:        domain.NewRoleSet(domain.RoleUser),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	sess, err := s.startSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, sess, nil
}

// Login verifies credentials against the local store and starts a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}

	sess, err := s.startSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, sess, nil
}

// AttachToken binds an access token issued by the remote API to a new
// session after confirming the API recognises it.
func (s *AuthService) AttachToken(ctx context.Context, accessToken string) (*domain.Identity, *domain.Session, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, nil, apperrors.NewValidationError("access token required", nil)
	}

	id, err := s.source.CurrentIdentity(ctx, identity.Credentials{AccessToken: accessToken})
	if err != nil {
		if identity.IsUnauthenticated(err) {
			return nil, nil, apperrors.NewUnauthorized("access token rejected")
		}
		return nil, nil, err
	}
	if id == nil {
		return nil, nil, apperrors.NewUnauthorized("access token rejected")
	}

	now := s.now()
	sess := &domain.Session{
		ID:          uuid.NewString(),
		UserID:      id.ID,
		AccessToken: accessToken,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, nil, err
	}
	s.publish(ctx, events.EventSessionStarted, sess)
	return id, sess, nil
}

// Session loads a live session.
func (s *AuthService) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.sessions.Get(ctx, sessionID)
}

// Logout ends a session. Unknown sessions are ignored.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	if sess != nil {
		s.publish(ctx, events.EventSessionEnded, sess)
	}
	return nil
}

// TokenManager exposes the token manager for the local identity source.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) startSession(ctx context.Context, userID string) (*domain.Session, error) {
	now := s.now()
	sessionID := uuid.NewString()

	token, tokenExpiry, err := s.tokenMgr.GenerateToken(userID, sessionID)
	if err != nil {
		return nil, err
	}

	expiresAt := now.Add(s.sessionTTL)
	if tokenExpiry.Before(expiresAt) {
		expiresAt = tokenExpiry
	}

	sess := &domain.Session{
		ID:          sessionID,
		UserID:      userID,
		AccessToken: token,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventSessionStarted, sess)
	return sess, nil
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, sess *domain.Session) {
	if s.events == nil {
		return
	}
	_ = s.events.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		SessionKey: sess.ID,
		Timestamp:  s.now().UTC(),
		Payload:    events.SessionPayload{UserID: sess.UserID},
	})
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", apperrors.NewValidationError("invalid email", map[string]any{"email": "must be a valid address"})
	}
	return strings.ToLower(addr.Address), nil
}
