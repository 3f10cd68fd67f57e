package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
	"github.com/KeeperOfTheLights/best-project-backend/internal/catalog"
	"github.com/KeeperOfTheLights/best-project-backend/internal/identity"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

type ProductReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
}

type LinkChecker interface {
	IsLinked(ctx context.Context, consumerID, supplierID uuid.UUID) (bool, error)
}

type Service interface {
	Add(ctx context.Context, actor identity.User, productID uuid.UUID, quantity int) (*Item, error)
	// Update sets the line quantity. A quantity of zero or less removes the
	// line, reported through removed.
	Update(ctx context.Context, actor identity.User, itemID uuid.UUID, quantity int) (item *Item, removed bool, err error)
	Remove(ctx context.Context, actor identity.User, itemID uuid.UUID) error
	List(ctx context.Context, actor identity.User) ([]Item, error)
}

type service struct {
	repo     Repository
	products ProductReader
	links    LinkChecker
	now      func() time.Time
}

func NewService(repo Repository, products ProductReader, links LinkChecker) Service {
	return &service{
		repo:     repo,
		products: products,
		links:    links,
		now:      time.Now,
	}
}

// checkQuantity enforces min_order and stock bounds for the resulting line
// quantity.
func checkQuantity(p *catalog.Product, total int) error {
	if total < p.MinOrder {
		return fmt.Errorf("%w: minimum order for %s is %d", apperr.ErrInvalidQuantity, p.Name, p.MinOrder)
	}
	if total > p.Stock {
		return fmt.Errorf("%w: only %d of %s in stock", apperr.ErrInvalidQuantity, p.Stock, p.Name)
	}
	return nil
}

func (s *service) Add(ctx context.Context, actor identity.User, productID uuid.UUID, quantity int) (*Item, error) {
	if !actor.Role.IsConsumer() {
		return nil, apperr.ErrForbidden
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to load product: %w", err)
	}
	if !p.Active() {
		return nil, apperr.ErrNotFound
	}

	linked, err := s.links.IsLinked(ctx, actor.ID, p.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to check link: %w", err)
	}
	if !linked {
		log.Warn().Stringer("consumer_id", actor.ID).Stringer("supplier_id", p.SupplierID).Msg("service: add to cart without link")
		return nil, apperr.ErrForbidden
	}

	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", apperr.ErrInvalidQuantity)
	}

	existing := 0
	current, err := s.repo.FindByProduct(ctx, actor.ID, p.ID)
	switch {
	case err == nil:
		existing = current.Quantity
	case errors.Is(err, apperr.ErrNotFound):
	default:
		return nil, fmt.Errorf("service: failed to load cart line: %w", err)
	}

	if quantity < p.MinOrder {
		return nil, fmt.Errorf("%w: minimum order for %s is %d", apperr.ErrInvalidQuantity, p.Name, p.MinOrder)
	}
	if err := checkQuantity(p, existing+quantity); err != nil {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate cart item id: %w", err)
	}
	item := &Item{
		ID:         id,
		ConsumerID: actor.ID,
		ProductID:  p.ID,
		Quantity:   quantity,
		AddedAt:    s.now().UTC(),
	}
	if err := s.repo.Upsert(ctx, item); err != nil {
		if errors.Is(err, apperr.ErrInvalidQuantity) {
			log.Warn().Stringer("consumer_id", actor.ID).Stringer("product_id", p.ID).Int("quantity", quantity).Msg("service: cart line would exceed stock")
			return nil, fmt.Errorf("%w: only %d of %s in stock", apperr.ErrInvalidQuantity, p.Stock, p.Name)
		}
		return nil, fmt.Errorf("service: failed to add to cart: %w", err)
	}
	item.Product = p

	log.Info().Stringer("consumer_id", actor.ID).Stringer("product_id", p.ID).Int("quantity", item.Quantity).Msg("service: cart line updated")
	return item, nil
}

func (s *service) own(ctx context.Context, actor identity.User, itemID uuid.UUID) (*Item, error) {
	item, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to load cart item: %w", err)
	}
	if item.ConsumerID != actor.ID {
		return nil, apperr.ErrNotFound
	}
	return item, nil
}

func (s *service) Update(ctx context.Context, actor identity.User, itemID uuid.UUID, quantity int) (*Item, bool, error) {
	if !actor.Role.IsConsumer() {
		return nil, false, apperr.ErrForbidden
	}

	item, err := s.own(ctx, actor, itemID)
	if err != nil {
		return nil, false, err
	}

	if quantity <= 0 {
		if err := s.repo.Delete(ctx, item.ID); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, false, apperr.ErrNotFound
			}
			return nil, false, fmt.Errorf("service: failed to remove cart item: %w", err)
		}
		log.Info().Stringer("cart_item_id", item.ID).Msg("service: cart line removed by zero quantity")
		return nil, true, nil
	}

	p, err := s.products.GetByID(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, false, apperr.ErrNotFound
		}
		return nil, false, fmt.Errorf("service: failed to load product: %w", err)
	}
	if err := checkQuantity(p, quantity); err != nil {
		return nil, false, err
	}

	if err := s.repo.SetQuantity(ctx, item.ID, quantity); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, false, apperr.ErrNotFound
		}
		if errors.Is(err, apperr.ErrInvalidQuantity) {
			return nil, false, fmt.Errorf("%w: only %d of %s in stock", apperr.ErrInvalidQuantity, p.Stock, p.Name)
		}
		return nil, false, fmt.Errorf("service: failed to update cart item: %w", err)
	}
	item.Quantity = quantity
	item.Product = p
	return item, false, nil
}

func (s *service) Remove(ctx context.Context, actor identity.User, itemID uuid.UUID) error {
	if !actor.Role.IsConsumer() {
		return apperr.ErrForbidden
	}
	item, err := s.own(ctx, actor, itemID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("service: failed to remove cart item: %w", err)
	}
	return nil
}

func (s *service) List(ctx context.Context, actor identity.User) ([]Item, error) {
	if !actor.Role.IsConsumer() {
		return nil, apperr.ErrForbidden
	}
	items, err := s.repo.ListByConsumer(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list cart: %w", err)
	}
	return items, nil
}
