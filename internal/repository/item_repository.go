package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/webapp-gateway/internal/domain"
)

// ItemRepository encapsulates item persistence. Every lookup is scoped to
// the owner; rows of other owners behave as missing (pgx.ErrNoRows).
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	Update(ctx context.Context, item *domain.Item) error
	Delete(ctx context.Context, ownerID, id string) error
	GetByID(ctx context.Context, ownerID, id string) (*domain.Item, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Item, error)
}

type itemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository instantiates repository.
func NewItemRepository(pool *pgxpool.Pool) ItemRepository {
	return &itemRepository{pool: pool}
}

const itemColumns = `id, owner_id, name, created_at, updated_at`

func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	const query = `
        INSERT INTO items (owner_id, name)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, item.OwnerID, item.Name).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	const query = `
        UPDATE items SET name=$1, updated_at=NOW()
        WHERE id=$2 AND owner_id=$3
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, item.Name, item.ID, item.OwnerID).Scan(&item.UpdatedAt)
}

func (r *itemRepository) Delete(ctx context.Context, ownerID, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM items WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *itemRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id=$1 AND owner_id=$2`
	var item domain.Item
	if err := r.pool.QueryRow(ctx, query, id, ownerID).Scan(
		&item.ID,
		&item.OwnerID,
		&item.Name,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE owner_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Item, error) {
		var item domain.Item
		err := row.Scan(&item.ID, &item.OwnerID, &item.Name, &item.CreatedAt, &item.UpdatedAt)
		return item, err
	})
}
