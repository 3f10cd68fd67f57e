package link

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
	"github.com/KeeperOfTheLights/best-project-backend/internal/identity"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// Checker is the gate consulted before any commerce or chat between a
// consumer and a supplier owner.
type Checker interface {
	IsLinked(ctx context.Context, consumerID, supplierID uuid.UUID) (bool, error)
}

type UserReader interface {
	GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

type Service interface {
	Checker

	Request(ctx context.Context, actor identity.User, supplierID uuid.UUID) (*Link, error)
	Accept(ctx context.Context, actor identity.User, linkID uuid.UUID) (*Link, error)
	Reject(ctx context.Context, actor identity.User, linkID uuid.UUID) (*Link, error)
	Block(ctx context.Context, actor identity.User, linkID uuid.UUID) (*Link, error)
	Unblock(ctx context.Context, actor identity.User, linkID uuid.UUID) (*Link, error)
	Unlink(ctx context.Context, actor identity.User, linkID uuid.UUID) error
	ListForConsumer(ctx context.Context, actor identity.User) ([]Link, error)
	ListForSupplier(ctx context.Context, actor identity.User, status *Status) ([]Link, error)
	CountLinked(ctx context.Context, supplierID uuid.UUID) (int, error)
}

type service struct {
	repo     Repository
	users    UserReader
	resolver identity.SupplierResolver
	now      func() time.Time
}

func NewService(repo Repository, users UserReader, resolver identity.SupplierResolver) Service {
	return &service{
		repo:     repo,
		users:    users,
		resolver: resolver,
		now:      time.Now,
	}
}

func (s *service) Request(ctx context.Context, actor identity.User, supplierID uuid.UUID) (*Link, error) {
	if !actor.Role.IsConsumer() {
		return nil, apperr.ErrForbidden
	}

	supplier, err := s.users.GetUser(ctx, supplierID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to load supplier: %w", err)
	}
	if supplier.Role != identity.RoleOwner {
		return nil, apperr.ErrNotFound
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate link id: %w", err)
	}
	now := s.now().UTC()
	l := &Link{
		ID:         id,
		ConsumerID: actor.ID,
		SupplierID: supplier.ID,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// The unique (consumer, supplier) constraint rejects a link in any
	// state, including rejected and blocked ones.
	if err := s.repo.Create(ctx, l); err != nil {
		if errors.Is(err, apperr.ErrConflict) || errors.Is(err, apperr.ErrNotFound) {
			log.Warn().Err(err).Stringer("consumer_id", actor.ID).Stringer("supplier_id", supplierID).Msg("service: link request refused")
			return nil, err
		}
		log.Error().Err(err).Msg("service: failed to create link in repository")
		return nil, fmt.Errorf("service: failed to request link: %w", err)
	}

	log.Info().Stringer("link_id", l.ID).Stringer("consumer_id", l.ConsumerID).Stringer("supplier_id", l.SupplierID).Msg("service: link requested")
	return l, nil
}

func (s *service) Accept(ctx context.Context, actor identity.User, linkID uuid.UUID) (*Link, error) {
	return s.transition(ctx, actor, linkID, ActionAccept)
}

func (s *service) Reject(ctx context.Context, actor identity.User, linkID uuid.UUID) (*Link, error) {
	return s.transition(ctx, actor, linkID, ActionReject)
}

func (s *service) Block(ctx context.Context, actor identity.User, linkID uuid.UUID) (*Link, error) {
	return s.transition(ctx, actor, linkID, ActionBlock)
}

func (s *service) Unblock(ctx context.Context, actor identity.User, linkID uuid.UUID) (*Link, error) {
	return s.transition(ctx, actor, linkID, ActionUnblock)
}

// transition checks the role before touching the link so that sales staff get
// Forbidden whatever state the link is in.
func (s *service) transition(ctx context.Context, actor identity.User, linkID uuid.UUID, action Action) (*Link, error) {
	if !actor.Role.CanManageLinks() {
		log.Warn().Stringer("user_id", actor.ID).Stringer("role", actor.Role).Stringer("action", action).Msg("service: link transition forbidden for role")
		return nil, apperr.ErrForbidden
	}

	l, err := s.ownedBySupplier(ctx, actor, linkID)
	if err != nil {
		return nil, err
	}

	next, err := nextStatus(l.Status, action)
	if err != nil {
		log.Warn().Stringer("link_id", l.ID).Stringer("current_status", l.Status).Stringer("action", action).Msg("service: invalid link transition attempt")
		return nil, err
	}

	now := s.now().UTC()
	if err := s.repo.TransitionStatus(ctx, l.ID, allowedTransitions[action].from, next, now); err != nil {
		if errors.Is(err, apperr.ErrInvalidState) {
			log.Warn().Stringer("link_id", l.ID).Stringer("action", action).Msg("service: link changed underneath transition")
			return nil, err
		}
		return nil, fmt.Errorf("service: failed to %s link: %w", action, err)
	}

	log.Info().Stringer("link_id", l.ID).Stringer("old_status", l.Status).Stringer("new_status", next).Msg("service: link status updated")
	l.Status = next
	l.UpdatedAt = now
	return l, nil
}

// ownedBySupplier loads the link and hides links of other suppliers behind
// NotFound.
func (s *service) ownedBySupplier(ctx context.Context, actor identity.User, linkID uuid.UUID) (*Link, error) {
	l, err := s.repo.GetByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to load link: %w", err)
	}

	supplier := s.resolver.EffectiveSupplier(ctx, actor)
	if l.SupplierID != supplier.ID {
		return nil, apperr.ErrNotFound
	}
	return l, nil
}

func (s *service) Unlink(ctx context.Context, actor identity.User, linkID uuid.UUID) error {
	switch actor.Role {
	case identity.RoleConsumer:
		l, err := s.repo.GetByID(ctx, linkID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.ErrNotFound
			}
			return fmt.Errorf("service: failed to load link: %w", err)
		}
		if l.ConsumerID != actor.ID {
			return apperr.ErrNotFound
		}
	case identity.RoleOwner, identity.RoleManager:
		if _, err := s.ownedBySupplier(ctx, actor, linkID); err != nil {
			return err
		}
	case identity.RoleSales:
		return apperr.ErrForbidden
	default:
		return apperr.ErrForbidden
	}

	if err := s.repo.Delete(ctx, linkID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("service: failed to delete link: %w", err)
	}

	log.Info().Stringer("link_id", linkID).Stringer("user_id", actor.ID).Msg("service: link removed")
	return nil
}

func (s *service) ListForConsumer(ctx context.Context, actor identity.User) ([]Link, error) {
	if !actor.Role.IsConsumer() {
		return nil, apperr.ErrForbidden
	}
	links, err := s.repo.ListByConsumer(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list consumer links: %w", err)
	}
	return links, nil
}

// ListForSupplier lists the effective supplier's links. Sales staff only see
// linked consumers.
func (s *service) ListForSupplier(ctx context.Context, actor identity.User, status *Status) ([]Link, error) {
	if !actor.Role.IsSupplierSide() {
		return nil, apperr.ErrForbidden
	}
	if actor.Role == identity.RoleSales {
		if status != nil && *status != StatusLinked {
			return nil, apperr.ErrForbidden
		}
		linked := StatusLinked
		status = &linked
	}

	supplier := s.resolver.EffectiveSupplier(ctx, actor)
	links, err := s.repo.ListBySupplier(ctx, supplier.ID, status)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list supplier links: %w", err)
	}
	return links, nil
}

func (s *service) IsLinked(ctx context.Context, consumerID, supplierID uuid.UUID) (bool, error) {
	linked, err := s.repo.IsLinked(ctx, consumerID, supplierID)
	if err != nil {
		return false, fmt.Errorf("service: failed to check link: %w", err)
	}
	return linked, nil
}

func (s *service) CountLinked(ctx context.Context, supplierID uuid.UUID) (int, error) {
	n, err := s.repo.CountLinked(ctx, supplierID)
	if err != nil {
		return 0, fmt.Errorf("service: failed to count linked consumers: %w", err)
	}
	return n, nil
}
