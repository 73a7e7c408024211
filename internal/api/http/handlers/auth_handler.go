package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/webapp-gateway/internal/api/dto"
	"github.com/spec-kit/webapp-gateway/internal/domain"
	"github.com/spec-kit/webapp-gateway/internal/identity"
	"github.com/spec-kit/webapp-gateway/internal/service"
	"github.com/spec-kit/webapp-gateway/internal/session"
	apperrors "github.com/spec-kit/webapp-gateway/pkg/util"
)

// AuthHandler exposes signup, login and logout endpoints.
type AuthHandler struct {
	auth     *service.AuthService
	registry *identity.Registry
	cookie   session.CookieOptions
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, registry *identity.Registry, cookie session.CookieOptions) *AuthHandler {
	return &AuthHandler{auth: authService, registry: registry, cookie: cookie}
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, sess, err := h.auth.Signup(c.UserContext(), service.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}

	h.begin(c, sess)
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user":    dto.NewIdentityResponse(user.Identity()),
			"session": dto.SessionResponse{ExpiresAt: sess.ExpiresAt},
		},
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, sess, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.begin(c, sess)
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user":    dto.NewIdentityResponse(user.Identity()),
			"session": dto.SessionResponse{ExpiresAt: sess.ExpiresAt},
		},
	})
}

// AttachToken handles POST /api/auth/token.
func (h *AuthHandler) AttachToken(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	id, sess, err := h.auth.AttachToken(c.UserContext(), req.AccessToken)
	if err != nil {
		return err
	}

	h.begin(c, sess)
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user":    dto.NewIdentityResponse(id),
			"session": dto.SessionResponse{ExpiresAt: sess.ExpiresAt},
		},
	})
}

// LoginPage handles GET /api/auth/login, reachable only when signed out.
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"form":   "login",
			"fields": []string{"email", "password"},
		},
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sessionID := session.ID(c, h.cookie)
	if err := h.auth.Logout(c.UserContext(), sessionID); err != nil {
		return err
	}

	if sessionID != "" {
		if p, ok := h.registry.Lookup(sessionID); ok {
			p.Reset()
		}
		h.registry.Unmount(sessionID)
	}
	session.ClearCookie(c, h.cookie)

	return c.JSON(fiber.Map{"data": fiber.Map{"identity": nil}})
}

// begin sets the cookie and mounts the session's provider so its identity
// starts resolving before the next request arrives.
func (h *AuthHandler) begin(c *fiber.Ctx, sess *domain.Session) {
	session.SetCookie(c, h.cookie, sess.ID, sess.ExpiresAt)
	h.registry.Mount(sess.ID, identity.Credentials{
		SessionID:   sess.ID,
		UserID:      sess.UserID,
		AccessToken: sess.AccessToken,
	})
}
