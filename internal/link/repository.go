package link

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
	"github.com/KeeperOfTheLights/best-project-backend/internal/db"
	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type Repository interface {
	Create(ctx context.Context, l *Link) error
	GetByID(ctx context.Context, id uuid.UUID) (*Link, error)
	// TransitionStatus moves the link to `to` only if its current status is
	// one of `from`. It returns apperr.ErrInvalidState when no row matched.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []Status, to Status, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByConsumer(ctx context.Context, consumerID uuid.UUID) ([]Link, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID, status *Status) ([]Link, error)
	IsLinked(ctx context.Context, consumerID, supplierID uuid.UUID) (bool, error)
	CountLinked(ctx context.Context, supplierID uuid.UUID) (int, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{db: pool}
}

const selectLinks = `
	SELECT l.id, l.consumer_id, l.supplier_id, l.status, l.created_at, l.updated_at,
	       cu.full_name, COALESCE(co.name, '')
	FROM links l
	JOIN users cu ON cu.id = l.consumer_id
	LEFT JOIN companies co ON co.owner_id = l.supplier_id`

func scanLink(row pgx.Row) (*Link, error) {
	var l Link
	err := row.Scan(&l.ID, &l.ConsumerID, &l.SupplierID, &l.Status, &l.CreatedAt, &l.UpdatedAt,
		&l.ConsumerName, &l.SupplierName)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *postgresRepository) Create(ctx context.Context, l *Link) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO links (id, consumer_id, supplier_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.ConsumerID, l.SupplierID, string(l.Status), l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: link already exists", apperr.ErrConflict)
		}
		if db.IsForeignKeyViolation(err) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("repository: failed to insert link: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Link, error) {
	l, err := scanLink(r.db.QueryRow(ctx, selectLinks+` WHERE l.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select link %s: %w", id, err)
	}
	return l, nil
}

func (r *postgresRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from []Status, to Status, at time.Time) error {
	fromStrings := make([]string, len(from))
	for i, s := range from {
		fromStrings[i] = string(s)
	}

	cmdTag, err := r.db.Exec(ctx, `
		UPDATE links SET status = $1, updated_at = $2
		WHERE id = $3 AND status = ANY($4)`,
		string(to), at, id, fromStrings,
	)
	if err != nil {
		log.Error().Err(err).Stringer("link_id", id).Stringer("new_status", to).Msg("repository: failed to update link status")
		return fmt.Errorf("repository: failed to update link status %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: link %s changed concurrently", apperr.ErrInvalidState, id)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete link %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) list(ctx context.Context, query string, args ...any) ([]Link, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query links: %w", err)
	}
	defer rows.Close()

	links := make([]Link, 0)
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan link: %w", err)
		}
		links = append(links, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating links: %w", err)
	}
	return links, nil
}

func (r *postgresRepository) ListByConsumer(ctx context.Context, consumerID uuid.UUID) ([]Link, error) {
	return r.list(ctx, selectLinks+` WHERE l.consumer_id = $1 ORDER BY l.created_at DESC`, consumerID)
}

func (r *postgresRepository) ListBySupplier(ctx context.Context, supplierID uuid.UUID, status *Status) ([]Link, error) {
	if status != nil {
		return r.list(ctx, selectLinks+` WHERE l.supplier_id = $1 AND l.status = $2 ORDER BY l.created_at DESC`,
			supplierID, string(*status))
	}
	return r.list(ctx, selectLinks+` WHERE l.supplier_id = $1 ORDER BY l.created_at DESC`, supplierID)
}

func (r *postgresRepository) IsLinked(ctx context.Context, consumerID, supplierID uuid.UUID) (bool, error) {
	var linked bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM links
			WHERE consumer_id = $1 AND supplier_id = $2 AND status = 'linked'
		)`, consumerID, supplierID).Scan(&linked)
	if err != nil {
		return false, fmt.Errorf("repository: failed to check link %s/%s: %w", consumerID, supplierID, err)
	}
	return linked, nil
}

func (r *postgresRepository) CountLinked(ctx context.Context, supplierID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM links WHERE supplier_id = $1 AND status = 'linked'`, supplierID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to count linked consumers of %s: %w", supplierID, err)
	}
	return n, nil
}
