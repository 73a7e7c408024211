package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/webapp-gateway/internal/api/dto"
	"github.com/spec-kit/webapp-gateway/internal/identity"
)

// HomeHandler serves the protected landing and admin content.
type HomeHandler struct {
	registry *identity.Registry
	version  string
}

// NewHomeHandler constructs handler.
func NewHomeHandler(registry *identity.Registry, version string) *HomeHandler {
	return &HomeHandler{registry: registry, version: version}
}

// Home handles GET /api/home.
func (h *HomeHandler) Home(c *fiber.Ctx) error {
	var profile *dto.IdentityResponse
	if sub, ok := identity.FromContext(c); ok {
		profile = dto.NewIdentityResponse(sub.Current().Identity)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"profile": profile}})
}

// AdminOverview handles GET /api/admin/overview.
func (h *HomeHandler) AdminOverview(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"mounted_sessions": h.registry.Len(),
			"version":          h.version,
		},
	})
}
