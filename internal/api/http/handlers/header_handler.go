package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/webapp-gateway/internal/api/dto"
	"github.com/spec-kit/webapp-gateway/internal/domain"
	"github.com/spec-kit/webapp-gateway/internal/gate"
	"github.com/spec-kit/webapp-gateway/internal/identity"
)

// HeaderPaths are the destinations linked from the header.
type HeaderPaths struct {
	Home    string
	Profile string
	Logout  string
	Admin   string
}

// HeaderHandler builds the navigation header for the current identity.
type HeaderHandler struct {
	paths HeaderPaths
	admin domain.RoleSet
}

// NewHeaderHandler constructs handler.
func NewHeaderHandler(paths HeaderPaths) *HeaderHandler {
	return &HeaderHandler{paths: paths, admin: domain.NewRoleSet(domain.RoleAdmin)}
}

// Header handles GET /api/header. Signed-out callers get no links and no avatar.
func (h *HeaderHandler) Header(c *fiber.Ctx) error {
	resp := dto.HeaderResponse{Links: []dto.NavLink{}, Menu: []dto.NavLink{}}

	var current *domain.Identity
	if sub, ok := identity.FromContext(c); ok {
		if snap := sub.Current(); snap.Authenticated() {
			current = snap.Identity
		}
	}
	if current == nil {
		return c.JSON(fiber.Map{"data": resp})
	}

	resp.User = &dto.HeaderUser{DisplayName: current.DisplayName(), Avatar: current.Avatar}
	resp.Links = append(resp.Links, dto.NavLink{ID: "home", Label: "Home", Path: h.paths.Home})
	if gate.Evaluate(h.admin, current) == gate.Allow {
		resp.Links = append(resp.Links, dto.NavLink{ID: "admin", Label: "Admin", Path: h.paths.Admin})
	}
	resp.Menu = append(resp.Menu,
		dto.NavLink{ID: "profile", Label: "Profile", Path: h.paths.Profile},
		dto.NavLink{ID: "logout", Label: "Log out", Path: h.paths.Logout},
	)
	return c.JSON(fiber.Map{"data": resp})
}
