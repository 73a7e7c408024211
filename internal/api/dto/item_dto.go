package dto

import (
	"time"

	"github.com/spec-kit/webapp-gateway/internal/domain"
)

// ItemRequest payload for creating or renaming an item.
type ItemRequest struct {
	Name string `json:"name"`
}

// ItemResponse is the public shape of an item.
type ItemResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewItemResponse maps an item.
func NewItemResponse(item *domain.Item) ItemResponse {
	return ItemResponse{
		ID:        item.ID,
		Name:      item.Name,
		CreatedAt: item.CreatedAt.UTC(),
		UpdatedAt: item.UpdatedAt.UTC(),
	}
}
