package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
	"github.com/KeeperOfTheLights/best-project-backend/internal/db"
	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	OwnerLookup

	// Create inserts the user and, when company is not nil, its company in
	// the same transaction.
	Create(ctx context.Context, user *User, company *Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetCompanyByOwner(ctx context.Context, ownerID uuid.UUID) (*Company, error)
	ListCompanies(ctx context.Context) ([]Company, error)
	ListStaff(ctx context.Context, companyID uuid.UUID) ([]User, error)
	ListUnassignedStaff(ctx context.Context) ([]User, error)
	SetCompany(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) error
	DeleteOwner(ctx context.Context, ownerID, companyID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const userColumns = `id, email, full_name, role, company_id, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.CompanyID, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *postgresRepository) Create(ctx context.Context, user *User, company *Company) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, email, full_name, role, company_id, created_at)
			VALUES ($1, $2, $3, $4, NULL, $5)`,
			user.ID, user.Email, user.FullName, string(user.Role), user.CreatedAt,
		)
		if err != nil {
			return err
		}

		if company == nil {
			return nil
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO companies (id, owner_id, name, address, phone, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			company.ID, company.OwnerID, company.Name, company.Address, company.Phone, company.CreatedAt,
		)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE users SET company_id = $1 WHERE id = $2`, company.ID, user.ID)
		return err
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: email already registered", apperr.ErrConflict)
		}
		return fmt.Errorf("repository: failed to create user: %w", err)
	}

	if company != nil {
		user.CompanyID = &company.ID
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select user %s: %w", id, err)
	}
	return u, nil
}

func (r *postgresRepository) CompanyOwner(ctx context.Context, companyID uuid.UUID) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		SELECT u.id, u.email, u.full_name, u.role, u.company_id, u.created_at
		FROM companies c
		JOIN users u ON u.id = c.owner_id
		WHERE c.id = $1`, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select owner of company %s: %w", companyID, err)
	}
	return u, nil
}

func (r *postgresRepository) GetCompanyByOwner(ctx context.Context, ownerID uuid.UUID) (*Company, error) {
	var c Company
	err := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, name, address, phone, created_at
		FROM companies WHERE owner_id = $1`, ownerID).
		Scan(&c.ID, &c.OwnerID, &c.Name, &c.Address, &c.Phone, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select company of owner %s: %w", ownerID, err)
	}
	return &c, nil
}

func (r *postgresRepository) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, name, address, phone, created_at
		FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query companies: %w", err)
	}
	defer rows.Close()

	companies := make([]Company, 0)
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Address, &c.Phone, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating companies: %w", err)
	}
	return companies, nil
}

func (r *postgresRepository) listUsers(ctx context.Context, query string, args ...any) ([]User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating users: %w", err)
	}
	return users, nil
}

func (r *postgresRepository) ListStaff(ctx context.Context, companyID uuid.UUID) ([]User, error) {
	return r.listUsers(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE company_id = $1 AND role IN ('manager', 'sales')
		ORDER BY full_name`, companyID)
}

func (r *postgresRepository) ListUnassignedStaff(ctx context.Context) ([]User, error) {
	return r.listUsers(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE company_id IS NULL AND role IN ('manager', 'sales')
		ORDER BY full_name`)
}

func (r *postgresRepository) SetCompany(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) error {
	cmdTag, err := r.pool.Exec(ctx, `UPDATE users SET company_id = $1 WHERE id = $2`, companyID, userID)
	if err != nil {
		return fmt.Errorf("repository: failed to set company for user %s: %w", userID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteOwner removes an owner together with everything filed under the
// company: staff are detached first, then products, links, the company and
// finally the owner row.
func (r *postgresRepository) DeleteOwner(ctx context.Context, ownerID, companyID uuid.UUID) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		steps := []struct {
			query string
			arg   uuid.UUID
		}{
			{`UPDATE users SET company_id = NULL WHERE company_id = $1 AND id <> (SELECT owner_id FROM companies WHERE id = $1)`, companyID},
			{`DELETE FROM products WHERE supplier_id = $1`, ownerID},
			{`DELETE FROM links WHERE supplier_id = $1`, ownerID},
			{`DELETE FROM companies WHERE id = $1`, companyID},
			{`DELETE FROM users WHERE id = $1`, ownerID},
		}
		for _, step := range steps {
			if _, err := tx.Exec(ctx, step.query, step.arg); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("repository: failed to delete owner %s: %w", ownerID, err)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete user %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
