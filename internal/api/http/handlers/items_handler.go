package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/webapp-gateway/internal/api/dto"
	"github.com/spec-kit/webapp-gateway/internal/identity"
	"github.com/spec-kit/webapp-gateway/internal/service"
	apperrors "github.com/spec-kit/webapp-gateway/pkg/util"
)

// ItemsHandler manages the signed-in user's items.
type ItemsHandler struct {
	service *service.ItemService
}

// NewItemsHandler constructs handler.
func NewItemsHandler(itemService *service.ItemService) *ItemsHandler {
	return &ItemsHandler{service: itemService}
}

// List GET /api/items.
func (h *ItemsHandler) List(c *fiber.Ctx) error {
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	items, err := h.service.List(c.UserContext(), ownerID, c.QueryInt("limit"), c.QueryInt("offset"))
	if err != nil {
		return err
	}
	out := make([]dto.ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, dto.NewItemResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Create POST /api/items.
func (h *ItemsHandler) Create(c *fiber.Ctx) error {
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	var req dto.ItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	item, err := h.service.Create(c.UserContext(), ownerID, req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewItemResponse(item)})
}

// Get GET /api/items/:id.
func (h *ItemsHandler) Get(c *fiber.Ctx) error {
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	item, err := h.service.Get(c.UserContext(), ownerID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewItemResponse(item)})
}

// Update PUT /api/items/:id.
func (h *ItemsHandler) Update(c *fiber.Ctx) error {
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	var req dto.ItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	item, err := h.service.Rename(c.UserContext(), ownerID, c.Params("id"), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewItemResponse(item)})
}

// Delete DELETE /api/items/:id.
func (h *ItemsHandler) Delete(c *fiber.Ctx) error {
	ownerID, err := owner(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), ownerID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// owner returns the signed-in user's ID.
func owner(c *fiber.Ctx) (string, error) {
	sub, ok := identity.FromContext(c)
	if !ok {
		return "", apperrors.NewUnauthorized("user required")
	}
	snap := sub.Current()
	if !snap.Authenticated() {
		return "", apperrors.NewUnauthorized("user required")
	}
	return snap.Identity.ID, nil
}
