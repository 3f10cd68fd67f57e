package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type Service interface {
	Register(ctx context.Context, input RegisterInput) (*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	ListSuppliers(ctx context.Context, actor User) ([]Company, error)
	ListEmployees(ctx context.Context, actor User) ([]User, error)
	ListUnassigned(ctx context.Context, actor User) ([]User, error)
	AssignEmployee(ctx context.Context, actor User, userID uuid.UUID) error
	RemoveEmployee(ctx context.Context, actor User, userID uuid.UUID) error
	DeleteAccount(ctx context.Context, actor User) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	role, err := ParseRole(input.Role)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Validation("invalid email %q", input.Email)
	}
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, apperr.Validation("full name is required")
	}

	userID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate user id: %w", err)
	}

	user := &User{
		ID:        userID,
		Email:     email,
		FullName:  fullName,
		Role:      role,
		CreatedAt: s.now().UTC(),
	}

	var company *Company
	if role == RoleOwner {
		name := strings.TrimSpace(input.CompanyName)
		if name == "" {
			return nil, apperr.Validation("company name is required for owners")
		}
		companyID, err := uuid.NewV4()
		if err != nil {
			return nil, fmt.Errorf("service: failed to generate company id: %w", err)
		}
		company = &Company{
			ID:        companyID,
			OwnerID:   userID,
			Name:      name,
			Address:   strings.TrimSpace(input.CompanyAddress),
			Phone:     strings.TrimSpace(input.CompanyPhone),
			CreatedAt: user.CreatedAt,
		}
	}

	if err := s.repo.Create(ctx, user, company); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			log.Warn().Str("email", email).Msg("service: email already registered")
			return nil, err
		}
		log.Error().Err(err).Msg("service: failed to create user in repository")
		return nil, fmt.Errorf("service: failed to register user: %w", err)
	}

	log.Info().Stringer("user_id", user.ID).Stringer("role", user.Role).Msg("service: user registered")
	return user, nil
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to get user %s: %w", id, err)
	}
	return user, nil
}

func (s *service) ListSuppliers(ctx context.Context, actor User) ([]Company, error) {
	if !actor.Role.IsConsumer() {
		return nil, apperr.ErrForbidden
	}
	companies, err := s.repo.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list suppliers: %w", err)
	}
	return companies, nil
}

// companyOf returns the company the actor may administer: the owned company
// for owners, the affiliated company for managers.
func (s *service) companyOf(ctx context.Context, actor User) (*Company, error) {
	switch actor.Role {
	case RoleOwner:
		return s.repo.GetCompanyByOwner(ctx, actor.ID)
	case RoleManager:
		if actor.CompanyID == nil {
			return nil, apperr.ErrNotFound
		}
		owner, err := s.repo.CompanyOwner(ctx, *actor.CompanyID)
		if err != nil {
			return nil, err
		}
		return s.repo.GetCompanyByOwner(ctx, owner.ID)
	case RoleSales, RoleConsumer:
		return nil, apperr.ErrForbidden
	default:
		return nil, apperr.ErrForbidden
	}
}

func (s *service) ListEmployees(ctx context.Context, actor User) ([]User, error) {
	company, err := s.companyOf(ctx, actor)
	if err != nil {
		return nil, err
	}
	staff, err := s.repo.ListStaff(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list employees: %w", err)
	}
	return staff, nil
}

func (s *service) ListUnassigned(ctx context.Context, actor User) ([]User, error) {
	if !actor.Role.CanManageCatalog() {
		return nil, apperr.ErrForbidden
	}
	staff, err := s.repo.ListUnassignedStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list unassigned staff: %w", err)
	}
	return staff, nil
}

func (s *service) AssignEmployee(ctx context.Context, actor User, userID uuid.UUID) error {
	if actor.Role != RoleOwner {
		return apperr.ErrForbidden
	}
	company, err := s.repo.GetCompanyByOwner(ctx, actor.ID)
	if err != nil {
		return err
	}

	target, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !target.Role.IsStaff() {
		return apperr.Validation("only managers and sales can be assigned to a company")
	}
	if target.CompanyID != nil {
		return fmt.Errorf("%w: user already belongs to a company", apperr.ErrConflict)
	}

	if err := s.repo.SetCompany(ctx, target.ID, &company.ID); err != nil {
		return fmt.Errorf("service: failed to assign employee: %w", err)
	}

	log.Info().Stringer("company_id", company.ID).Stringer("user_id", target.ID).Msg("service: employee assigned")
	return nil
}

func (s *service) RemoveEmployee(ctx context.Context, actor User, userID uuid.UUID) error {
	if actor.Role != RoleOwner {
		return apperr.ErrForbidden
	}
	company, err := s.repo.GetCompanyByOwner(ctx, actor.ID)
	if err != nil {
		return err
	}

	target, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if target.CompanyID == nil || *target.CompanyID != company.ID || !target.Role.IsStaff() {
		return apperr.ErrNotFound
	}

	if err := s.repo.SetCompany(ctx, target.ID, nil); err != nil {
		return fmt.Errorf("service: failed to remove employee: %w", err)
	}

	log.Info().Stringer("company_id", company.ID).Stringer("user_id", target.ID).Msg("service: employee removed")
	return nil
}

func (s *service) DeleteAccount(ctx context.Context, actor User) error {
	if actor.Role == RoleOwner {
		company, err := s.repo.GetCompanyByOwner(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return s.repo.Delete(ctx, actor.ID)
			}
			return fmt.Errorf("service: failed to load company for deletion: %w", err)
		}
		if err := s.repo.DeleteOwner(ctx, actor.ID, company.ID); err != nil {
			log.Error().Err(err).Stringer("user_id", actor.ID).Msg("service: failed to delete owner")
			return fmt.Errorf("service: failed to delete account: %w", err)
		}
		log.Info().Stringer("user_id", actor.ID).Stringer("company_id", company.ID).Msg("service: owner and company deleted")
		return nil
	}

	if err := s.repo.Delete(ctx, actor.ID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("service: failed to delete account: %w", err)
	}
	log.Info().Stringer("user_id", actor.ID).Msg("service: account deleted")
	return nil
}
