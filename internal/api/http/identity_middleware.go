package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/webapp-gateway/internal/identity"
	"github.com/spec-kit/webapp-gateway/internal/service"
	"github.com/spec-kit/webapp-gateway/internal/session"
	apperrors "github.com/spec-kit/webapp-gateway/pkg/util"
)

// IdentityMount binds the session's identity subscription to every request
// and holds the request until the first fetch has settled.
type IdentityMount struct {
	auth     *service.AuthService
	registry *identity.Registry
	cookie   session.CookieOptions
	logger   *zap.Logger
}

// NewIdentityMount builds the middleware.
func NewIdentityMount(authService *service.AuthService, registry *identity.Registry, cookie session.CookieOptions, logger *zap.Logger) *IdentityMount {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentityMount{auth: authService, registry: registry, cookie: cookie, logger: logger}
}

// Handle is the fiber middleware.
func (m *IdentityMount) Handle(c *fiber.Ctx) error {
	p, owned := m.provider(c)
	if owned {
		defer p.Close()
	}

	_, err := identity.Await(c.UserContext(), p)
	if errors.Is(err, identity.ErrClosed) {
		// Unmounted while loading, typically by a concurrent logout.
		p = m.registry.Mount("", identity.Credentials{})
		defer p.Close()
		_, err = identity.Await(c.UserContext(), p)
	}
	if err != nil {
		return apperrors.NewDomainError("IDENTITY_UNAVAILABLE", "identity not resolved in time", fiber.StatusServiceUnavailable, nil)
	}

	identity.Bind(c, p)
	return c.Next()
}

// provider returns the subscription for the request and whether the caller
// owns it and must close it.
func (m *IdentityMount) provider(c *fiber.Ctx) (*identity.Provider, bool) {
	sessionID := session.ID(c, m.cookie)
	if sessionID == "" {
		return m.registry.Mount("", identity.Credentials{}), true
	}

	sess, err := m.auth.Session(c.UserContext(), sessionID)
	switch {
	case errors.Is(err, session.ErrNotFound):
		m.registry.Unmount(sessionID)
		session.ClearCookie(c, m.cookie)
		return m.registry.Mount("", identity.Credentials{}), true
	case err != nil:
		m.logger.Warn("session lookup failed", zap.Error(err))
		return m.registry.Mount("", identity.Credentials{}), true
	}

	return m.registry.Mount(sess.ID, identity.Credentials{
		SessionID:   sess.ID,
		UserID:      sess.UserID,
		AccessToken: sess.AccessToken,
	}), false
}
