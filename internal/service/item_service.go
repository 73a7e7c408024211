package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/webapp-gateway/internal/domain"
	"github.com/spec-kit/webapp-gateway/internal/repository"
	apperrors "github.com/spec-kit/webapp-gateway/pkg/util"
)

const (
	defaultItemPageSize = 20
	maxItemPageSize     = 100
)

// ItemService manages the signed-in user's items.
type ItemService struct {
	items repository.ItemRepository
}

// NewItemService builds the service.
func NewItemService(items repository.ItemRepository) *ItemService {
	return &ItemService{items: items}
}

// List returns a page of the owner's items, newest first.
func (s *ItemService) List(ctx context.Context, ownerID string, limit, offset int) ([]domain.Item, error) {
	if limit <= 0 {
		limit = defaultItemPageSize
	}
	if limit > maxItemPageSize {
		limit = maxItemPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.items.ListByOwner(ctx, ownerID, limit, offset)
}

// Get loads one of the owner's items.
func (s *ItemService) Get(ctx context.Context, ownerID, id string) (*domain.Item, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, itemNotFound(id)
	}
	item, err := s.items.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, mapItemError(id, err)
	}
	return item, nil
}

// Create stores a new item for the owner.
func (s *ItemService) Create(ctx context.Context, ownerID, name string) (*domain.Item, error) {
	name, err := validItemName(name)
	if err != nil {
		return nil, err
	}
	item := &domain.Item{OwnerID: ownerID, Name: name}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Rename changes the name of one of the owner's items.
func (s *ItemService) Rename(ctx context.Context, ownerID, id, name string) (*domain.Item, error) {
	name, err := validItemName(name)
	if err != nil {
		return nil, err
	}
	item, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	item.Name = name
	if err := s.items.Update(ctx, item); err != nil {
		return nil, mapItemError(id, err)
	}
	return item, nil
}

// Delete removes one of the owner's items.
func (s *ItemService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return itemNotFound(id)
	}
	return mapItemError(id, s.items.Delete(ctx, ownerID, id))
}

func validItemName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	switch {
	case name == "":
		return "", apperrors.NewValidationError("name is required", map[string]any{"name": "required"})
	case utf8.RuneCountInString(name) > domain.MaxItemNameLength:
		return "", apperrors.NewValidationError("name is too long", map[string]any{
			"name": fmt.Sprintf("must be at most %d characters", domain.MaxItemNameLength),
		})
	}
	return name, nil
}

func mapItemError(id string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return itemNotFound(id)
	}
	return err
}

func itemNotFound(id string) error {
	return apperrors.NewNotFound("item", map[string]any{"id": id})
}
