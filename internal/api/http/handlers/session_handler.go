package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/webapp-gateway/internal/api/dto"
	"github.com/spec-kit/webapp-gateway/internal/identity"
	apperrors "github.com/spec-kit/webapp-gateway/pkg/util"
)

// SessionHandler exposes the current identity subscription.
type SessionHandler struct{}

// NewSessionHandler constructs handler.
func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// Me handles GET /api/me.
func (h *SessionHandler) Me(c *fiber.Ctx) error {
	sub, ok := identity.FromContext(c)
	if !ok {
		return apperrors.NewInternalError(errors.New("identity subscription not mounted"))
	}
	return c.JSON(fiber.Map{"data": dto.NewSubscriptionResponse(sub.Current())})
}

// Refresh handles POST /api/me/refresh.
func (h *SessionHandler) Refresh(c *fiber.Ctx) error {
	sub, ok := identity.FromContext(c)
	if !ok {
		return apperrors.NewInternalError(errors.New("identity subscription not mounted"))
	}
	if err := sub.Refresh(c.UserContext()); err != nil {
		if errors.Is(err, identity.ErrClosed) {
			return apperrors.NewUnauthorized("session ended")
		}
		return apperrors.NewRefreshFailed(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewSubscriptionResponse(sub.Current())})
}
