package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
	"github.com/KeeperOfTheLights/best-project-backend/internal/identity"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// LinkChecker reports whether consumer and supplier are linked.
type LinkChecker interface {
	IsLinked(ctx context.Context, consumerID, supplierID uuid.UUID) (bool, error)
}

type Service interface {
	Create(ctx context.Context, actor identity.User, input ProductInput) (*Product, error)
	Update(ctx context.Context, actor identity.User, id uuid.UUID, input ProductInput) (*Product, error)
	ToggleStatus(ctx context.Context, actor identity.User, id uuid.UUID) (*Product, error)
	ListOwn(ctx context.Context, actor identity.User) ([]Product, error)
	Get(ctx context.Context, actor identity.User, id uuid.UUID) (*Product, error)
	SupplierCatalog(ctx context.Context, actor identity.User, supplierID uuid.UUID) ([]Product, error)
	Search(ctx context.Context, actor identity.User, query string) ([]Product, error)
}

type service struct {
	repo     Repository
	links    LinkChecker
	resolver identity.SupplierResolver
	now      func() time.Time
}

func NewService(repo Repository, links LinkChecker, resolver identity.SupplierResolver) Service {
	return &service{
		repo:     repo,
		links:    links,
		resolver: resolver,
		now:      time.Now,
	}
}

func validateInput(input *ProductInput, creating bool) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.TrimSpace(input.Category)
	if input.Name == "" {
		return apperr.Validation("name is required")
	}
	if input.Category == "" {
		input.Category = DefaultCategory
	}
	if input.Price.IsNegative() {
		return apperr.Validation("price must be non-negative")
	}
	if !input.Unit.Valid() {
		return apperr.Validation("unit must be one of kg, pcs, litre, pack")
	}
	if creating && input.Stock < 0 {
		return apperr.Validation("stock must be non-negative")
	}
	if input.MinOrder < 1 {
		return apperr.Validation("min_order must be at least 1")
	}
	return nil
}

func (s *service) Create(ctx context.Context, actor identity.User, input ProductInput) (*Product, error) {
	if !actor.Role.CanManageCatalog() {
		return nil, apperr.ErrForbidden
	}
	if err := validateInput(&input, true); err != nil {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate product id: %w", err)
	}
	supplier := s.resolver.EffectiveSupplier(ctx, actor)
	now := s.now().UTC()

	p := &Product{
		ID:          id,
		SupplierID:  supplier.ID,
		Name:        input.Name,
		Category:    input.Category,
		Description: input.Description,
		Price:       input.Price.Round(2),
		Unit:        input.Unit,
		Stock:       input.Stock,
		MinOrder:    input.MinOrder,
		ImageURL:    input.ImageURL,
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	log.Info().Stringer("product_id", p.ID).Stringer("supplier_id", p.SupplierID).Stringer("user_id", actor.ID).Msg("service: product created")
	return p, nil
}

// owned returns the product when it belongs to the actor's effective supplier.
func (s *service) owned(ctx context.Context, actor identity.User, id uuid.UUID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to load product: %w", err)
	}
	if p.SupplierID != s.resolver.EffectiveSupplier(ctx, actor).ID {
		return nil, apperr.ErrNotFound
	}
	return p, nil
}

func (s *service) Update(ctx context.Context, actor identity.User, id uuid.UUID, input ProductInput) (*Product, error) {
	if !actor.Role.CanManageCatalog() {
		return nil, apperr.ErrForbidden
	}
	if err := validateInput(&input, false); err != nil {
		return nil, err
	}

	p, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	p.Name = input.Name
	p.Category = input.Category
	p.Description = input.Description
	p.Price = input.Price.Round(2)
	p.Unit = input.Unit
	p.MinOrder = input.MinOrder
	p.ImageURL = input.ImageURL
	p.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to update product: %w", err)
	}

	log.Info().Stringer("product_id", p.ID).Stringer("user_id", actor.ID).Msg("service: product updated")
	return p, nil
}

func (s *service) ToggleStatus(ctx context.Context, actor identity.User, id uuid.UUID) (*Product, error) {
	if !actor.Role.CanManageCatalog() {
		return nil, apperr.ErrForbidden
	}

	p, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	next := StatusInactive
	if !p.Active() {
		next = StatusActive
	}
	now := s.now().UTC()

	if err := s.repo.SetStatus(ctx, p.ID, next, now); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to toggle product status: %w", err)
	}

	log.Info().Stringer("product_id", p.ID).Stringer("old_status", p.Status).Stringer("new_status", next).Msg("service: product status toggled")
	p.Status = next
	p.UpdatedAt = now
	return p, nil
}

func (s *service) ListOwn(ctx context.Context, actor identity.User) ([]Product, error) {
	if !actor.Role.IsSupplierSide() {
		return nil, apperr.ErrForbidden
	}
	supplier := s.resolver.EffectiveSupplier(ctx, actor)
	products, err := s.repo.ListBySupplier(ctx, supplier.ID, false)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}
	return products, nil
}

// Get shows a supplier its own products in any status and a consumer the
// active products of linked suppliers.
func (s *service) Get(ctx context.Context, actor identity.User, id uuid.UUID) (*Product, error) {
	if actor.Role.IsSupplierSide() {
		return s.owned(ctx, actor, id)
	}
	if !actor.Role.IsConsumer() {
		return nil, apperr.ErrForbidden
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to load product: %w", err)
	}
	if !p.Active() {
		return nil, apperr.ErrNotFound
	}
	if err := s.requireLink(ctx, actor.ID, p.SupplierID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) SupplierCatalog(ctx context.Context, actor identity.User, supplierID uuid.UUID) ([]Product, error) {
	if !actor.Role.IsConsumer() {
		return nil, apperr.ErrForbidden
	}
	if err := s.requireLink(ctx, actor.ID, supplierID); err != nil {
		return nil, err
	}

	products, err := s.repo.ListBySupplier(ctx, supplierID, true)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list supplier catalog: %w", err)
	}
	return products, nil
}

func (s *service) Search(ctx context.Context, actor identity.User, query string) ([]Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("search query is required")
	}

	var (
		products []Product
		err      error
	)
	switch actor.Role {
	case identity.RoleConsumer:
		products, err = s.repo.SearchForConsumer(ctx, actor.ID, query)
	case identity.RoleOwner, identity.RoleManager, identity.RoleSales:
		products, err = s.repo.SearchForSupplier(ctx, s.resolver.EffectiveSupplier(ctx, actor).ID, query)
	default:
		return nil, apperr.ErrForbidden
	}
	if err != nil {
		return nil, fmt.Errorf("service: failed to search products: %w", err)
	}
	return products, nil
}

func (s *service) requireLink(ctx context.Context, consumerID, supplierID uuid.UUID) error {
	linked, err := s.links.IsLinked(ctx, consumerID, supplierID)
	if err != nil {
		return fmt.Errorf("service: failed to check link: %w", err)
	}
	if !linked {
		log.Warn().Stringer("consumer_id", consumerID).Stringer("supplier_id", supplierID).Msg("service: catalog access without link")
		return apperr.ErrForbidden
	}
	return nil
}
