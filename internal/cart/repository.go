package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
	"github.com/KeeperOfTheLights/best-project-backend/internal/catalog"
	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// Upsert adds item.Quantity to the consumer's line for the product,
	// creating it when absent, and writes the stored row back into item. The
	// write is refused with apperr.ErrInvalidQuantity when the resulting line
	// would exceed the product's stock.
	Upsert(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	FindByProduct(ctx context.Context, consumerID, productID uuid.UUID) (*Item, error)
	// SetQuantity carries the same stock bound as Upsert.
	SetQuantity(ctx context.Context, id uuid.UUID, quantity int) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByConsumer(ctx context.Context, consumerID uuid.UUID) ([]Item, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{db: pool}
}

func (r *postgresRepository) Upsert(ctx context.Context, item *Item) error {
	// Both the insert and the conflict update re-read stock, so concurrent adds
	// to one line serialize on the row lock and the later one sees the sum.
	err := r.db.QueryRow(ctx, `
		INSERT INTO cart_items (id, consumer_id, product_id, quantity, added_at)
		SELECT $1::uuid, $2::uuid, $3::uuid, $4::integer, $5::timestamptz
		WHERE $4::integer <= (SELECT stock FROM products WHERE id = $3::uuid)
		ON CONFLICT (consumer_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, added_at = EXCLUDED.added_at
		WHERE cart_items.quantity + EXCLUDED.quantity <= (SELECT stock FROM products WHERE id = EXCLUDED.product_id)
		RETURNING id, quantity, added_at`,
		item.ID, item.ConsumerID, item.ProductID, item.Quantity, item.AddedAt,
	).Scan(&item.ID, &item.Quantity, &item.AddedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.ErrInvalidQuantity
		}
		return fmt.Errorf("repository: failed to upsert cart item: %w", err)
	}
	return nil
}

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	if err := row.Scan(&it.ID, &it.ConsumerID, &it.ProductID, &it.Quantity, &it.AddedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	it, err := scanItem(r.db.QueryRow(ctx, `
		SELECT id, consumer_id, product_id, quantity, added_at
		FROM cart_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select cart item %s: %w", id, err)
	}
	return it, nil
}

func (r *postgresRepository) FindByProduct(ctx context.Context, consumerID, productID uuid.UUID) (*Item, error) {
	it, err := scanItem(r.db.QueryRow(ctx, `
		SELECT id, consumer_id, product_id, quantity, added_at
		FROM cart_items WHERE consumer_id = $1 AND product_id = $2`, consumerID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select cart item for product %s: %w", productID, err)
	}
	return it, nil
}

func (r *postgresRepository) SetQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE cart_items c SET quantity = $1
		FROM products p
		WHERE c.id = $2 AND p.id = c.product_id AND p.stock >= $1`, quantity, id)
	if err != nil {
		return fmt.Errorf("repository: failed to update cart item %s: %w", id, err)
	}
	if cmdTag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cart_items WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("repository: failed to check cart item %s: %w", id, err)
	}
	if exists {
		return apperr.ErrInvalidQuantity
	}
	return apperr.ErrNotFound
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete cart item %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) ListByConsumer(ctx context.Context, consumerID uuid.UUID) ([]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.consumer_id, c.product_id, c.quantity, c.added_at,
		       p.id, p.supplier_id, p.name, p.category, p.description, p.price, p.unit,
		       p.stock, p.min_order, p.image_url, p.status, p.created_at, p.updated_at
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.consumer_id = $1
		ORDER BY c.added_at DESC`, consumerID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart for consumer %s: %w", consumerID, err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var (
			it Item
			p  catalog.Product
		)
		err := rows.Scan(&it.ID, &it.ConsumerID, &it.ProductID, &it.Quantity, &it.AddedAt,
			&p.ID, &p.SupplierID, &p.Name, &p.Category, &p.Description, &p.Price, &p.Unit,
			&p.Stock, &p.MinOrder, &p.ImageURL, &p.Status, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart item: %w", err)
		}
		it.Product = &p
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating cart items: %w", err)
	}
	return items, nil
}
