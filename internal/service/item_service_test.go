package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/webapp-gateway/internal/domain"
)

type mockItemRepository struct {
	mu    sync.Mutex
	items map[string]domain.Item
}

func newMockItemRepository() *mockItemRepository {
	return &mockItemRepository{items: map[string]domain.Item{}}
}

func (m *mockItemRepository) Create(_ context.Context, item *domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = uuid.NewString()
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	m.items[item.ID] = *item
	return nil
}

func (m *mockItemRepository) Update(_ context.Context, item *domain.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.items[item.ID]
	if !ok || stored.OwnerID != item.OwnerID {
		return pgx.ErrNoRows
	}
	item.UpdatedAt = time.Now()
	m.items[item.ID] = *item
	return nil
}

func (m *mockItemRepository) Delete(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.items[id]
	if !ok || stored.OwnerID != ownerID {
		return pgx.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func (m *mockItemRepository) GetByID(_ context.Context, ownerID, id string) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.items[id]
	if !ok || stored.OwnerID != ownerID {
		return nil, pgx.ErrNoRows
	}
	return &stored, nil
}

func (m *mockItemRepository) ListByOwner(_ context.Context, ownerID string, limit, offset int) ([]domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Item
	for _, item := range m.items {
		if item.OwnerID == ownerID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func TestItemLifecycle(t *testing.T) {
	svc := NewItemService(newMockItemRepository())
	ctx := context.Background()

	item, err := svc.Create(ctx, "u1", "  old item ")
	require.NoError(t, err)
	assert.Equal(t, "old item", item.Name)

	got, err := svc.Get(ctx, "u1", item.ID)
	require.NoError(t, err)
	assert.Equal(t, "old item", got.Name)

	renamed, err := svc.Rename(ctx, "u1", item.ID, "new item")
	require.NoError(t, err)
	assert.Equal(t, "new item", renamed.Name)

	list, err := svc.List(ctx, "u1", 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new item", list[0].Name)

	require.NoError(t, svc.Delete(ctx, "u1", item.ID))
	_, err = svc.Get(ctx, "u1", item.ID)
	assert.Equal(t, "NOT_FOUND", codeOf(err))
}

func TestItemsAreScopedToOwner(t *testing.T) {
	svc := NewItemService(newMockItemRepository())
	ctx := context.Background()

	item, err := svc.Create(ctx, "u1", "private")
	require.NoError(t, err)

	_, err = svc.Get(ctx, "u2", item.ID)
	assert.Equal(t, "NOT_FOUND", codeOf(err))
	_, err = svc.Rename(ctx, "u2", item.ID, "stolen")
	assert.Equal(t, "NOT_FOUND", codeOf(err))
	assert.Equal(t, "NOT_FOUND", codeOf(svc.Delete(ctx, "u2", item.ID)))

	list, err := svc.List(ctx, "u2", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestItemValidation(t *testing.T) {
	svc := NewItemService(newMockItemRepository())
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", "   ")
	assert.Equal(t, "VALIDATION_FAILED", codeOf(err))

	_, err = svc.Create(ctx, "u1", strings.Repeat("ä", domain.MaxItemNameLength+1))
	assert.Equal(t, "VALIDATION_FAILED", codeOf(err))

	_, err = svc.Create(ctx, "u1", strings.Repeat("ä", domain.MaxItemNameLength))
	assert.NoError(t, err)

	_, err = svc.Get(ctx, "u1", "not-a-uuid")
	assert.Equal(t, "NOT_FOUND", codeOf(err))
}
