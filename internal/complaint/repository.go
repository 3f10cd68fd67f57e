package complaint

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
)

type Repository interface {
	Create(ctx context.Context, c *Complaint) error
	GetByID(ctx context.Context, id uuid.UUID) (*Complaint, error)
	// TransitionStatus moves the complaint from `from` to `to`. It returns
	// apperr.ErrInvalidState when the complaint is no longer in `from`.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status, resolvedAt *time.Time) error
	ListByConsumer(ctx context.Context, consumerID uuid.UUID) ([]Complaint, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID, status *Status) ([]Complaint, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{db: pool}
}

const complaintColumns = `id, order_id, consumer_id, supplier_id, title, description, status, created_at, resolved_at`

func scanComplaint(row pgx.Row) (*Complaint, error) {
	var c Complaint
	err := row.Scan(&c.ID, &c.OrderID, &c.ConsumerID, &c.SupplierID, &c.Title, &c.Description,
		&c.Status, &c.CreatedAt, &c.ResolvedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepository) Create(ctx context.Context, c *Complaint) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO complaints (id, order_id, consumer_id, supplier_id, title, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.OrderID, c.ConsumerID, c.SupplierID, c.Title, c.Description, string(c.Status), c.CreatedAt,
	)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("repository: failed to insert complaint: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Complaint, error) {
	c, err := scanComplaint(r.db.QueryRow(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select complaint %s: %w", id, err)
	}
	return c, nil
}

func (r *postgresRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status, resolvedAt *time.Time) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE complaints SET status = $1, resolved_at = COALESCE($2, resolved_at)
		WHERE id = $3 AND status = $4`,
		string(to), resolvedAt, id, string(from),
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update complaint status %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: complaint %s is no longer %s", apperr.ErrInvalidState, id, from)
	}
	return nil
}

func (r *postgresRepository) list(ctx context.Context, query string, args ...any) ([]Complaint, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query complaints: %w", err)
	}
	defer rows.Close()

	complaints := make([]Complaint, 0)
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan complaint: %w", err)
		}
		complaints = append(complaints, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating complaints: %w", err)
	}
	return complaints, nil
}

func (r *postgresRepository) ListByConsumer(ctx context.Context, consumerID uuid.UUID) ([]Complaint, error) {
	return r.list(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE consumer_id = $1 ORDER BY created_at DESC`, consumerID)
}

func (r *postgresRepository) ListBySupplier(ctx context.Context, supplierID uuid.UUID, status *Status) ([]Complaint, error) {
	if status == nil {
		return r.list(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE supplier_id = $1 ORDER BY created_at DESC`, supplierID)
	}
	return r.list(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE supplier_id = $1 AND status = $2 ORDER BY created_at DESC`,
		supplierID, string(*status))
}
