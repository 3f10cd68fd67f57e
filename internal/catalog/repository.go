package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// Update writes the descriptive fields, price, unit and min_order. It never
	// touches stock.
	Update(ctx context.Context, p *Product) error
	SetStatus(ctx context.Context, id uuid.UUID, status Status, at time.Time) error
	ListBySupplier(ctx context.Context, supplierID uuid.UUID, activeOnly bool) ([]Product, error)
	SearchForConsumer(ctx context.Context, consumerID uuid.UUID, query string) ([]Product, error)
	SearchForSupplier(ctx context.Context, supplierID uuid.UUID, query string) ([]Product, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{db: pool}
}

const productColumns = `p.id, p.supplier_id, p.name, p.category, p.description, p.price, p.unit,
	p.stock, p.min_order, p.image_url, p.status, p.created_at, p.updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SupplierID, &p.Name, &p.Category, &p.Description, &p.Price, &p.Unit,
		&p.Stock, &p.MinOrder, &p.ImageURL, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepository) Create(ctx context.Context, p *Product) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO products (id, supplier_id, name, category, description, price, unit,
		                      stock, min_order, image_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		p.ID, p.SupplierID, p.Name, p.Category, p.Description, p.Price, string(p.Unit),
		p.Stock, p.MinOrder, p.ImageURL, string(p.Status), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		log.Error().Err(err).Stringer("supplier_id", p.SupplierID).Msg("repository: failed to insert product")
		return fmt.Errorf("repository: failed to insert product: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product %s: %w", id, err)
	}
	return p, nil
}

func (r *postgresRepository) Update(ctx context.Context, p *Product) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE products
		SET name = $1, category = $2, description = $3, price = $4, unit = $5,
		    min_order = $6, image_url = $7, updated_at = $8
		WHERE id = $9`,
		p.Name, p.Category, p.Description, p.Price, string(p.Unit),
		p.MinOrder, p.ImageURL, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update product %s: %w", p.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) SetStatus(ctx context.Context, id uuid.UUID, status Status, at time.Time) error {
	cmdTag, err := r.db.Exec(ctx, `UPDATE products SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), at, id)
	if err != nil {
		return fmt.Errorf("repository: failed to set product status %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) list(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating products: %w", err)
	}
	return products, nil
}

func (r *postgresRepository) ListBySupplier(ctx context.Context, supplierID uuid.UUID, activeOnly bool) ([]Product, error) {
	if activeOnly {
		return r.list(ctx, `SELECT `+productColumns+` FROM products p
			WHERE p.supplier_id = $1 AND p.status = 'active'
			ORDER BY p.name`, supplierID)
	}
	return r.list(ctx, `SELECT `+productColumns+` FROM products p
		WHERE p.supplier_id = $1
		ORDER BY p.created_at DESC`, supplierID)
}

func (r *postgresRepository) SearchForConsumer(ctx context.Context, consumerID uuid.UUID, query string) ([]Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products p
		JOIN links l ON l.supplier_id = p.supplier_id AND l.consumer_id = $1 AND l.status = 'linked'
		WHERE p.status = 'active' AND (p.name ILIKE $2 OR p.category ILIKE $2)
		ORDER BY p.name
		LIMIT 100`, consumerID, likePattern(query))
}

func (r *postgresRepository) SearchForSupplier(ctx context.Context, supplierID uuid.UUID, query string) ([]Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products p
		WHERE p.supplier_id = $1 AND (p.name ILIKE $2 OR p.category ILIKE $2)
		ORDER BY p.name
		LIMIT 100`, supplierID, likePattern(query))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}
