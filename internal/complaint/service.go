package complaint

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
	"github.com/KeeperOfTheLights/best-project-backend/internal/identity"
	"github.com/KeeperOfTheLights/best-project-backend/internal/order"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

const (
	maxTitleLength = 200
)

type OrderReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error)
}

type FileInput struct {
	Title       string
	Description string
}

type Service interface {
	File(ctx context.Context, actor identity.User, orderID uuid.UUID, input FileInput) (*Complaint, error)
	Escalate(ctx context.Context, actor identity.User, id uuid.UUID) (*Complaint, error)
	Resolve(ctx context.Context, actor identity.User, id uuid.UUID) (*Complaint, error)
	Reject(ctx context.Context, actor identity.User, id uuid.UUID) (*Complaint, error)
	Get(ctx context.Context, actor identity.User, id uuid.UUID) (*Complaint, error)
	List(ctx context.Context, actor identity.User, status *Status) ([]Complaint, error)
}

type service struct {
	repo     Repository
	orders   OrderReader
	resolver identity.SupplierResolver
	now      func() time.Time
}

func NewService(repo Repository, orders OrderReader, resolver identity.SupplierResolver) Service {
	return &service{
		repo:     repo,
		orders:   orders,
		resolver: resolver,
		now:      time.Now,
	}
}

func (s *service) File(ctx context.Context, actor identity.User, orderID uuid.UUID, input FileInput) (*Complaint, error) {
	if !actor.Role.IsConsumer() {
		return nil, apperr.ErrForbidden
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperr.Validation("title and description are required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, apperr.Validation("title must be at most %d characters", maxTitleLength)
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to load order: %w", err)
	}
	if o.ConsumerID != actor.ID {
		log.Warn().Stringer("order_id", orderID).Stringer("consumer_id", actor.ID).Msg("service: complaint on foreign order")
		return nil, apperr.ErrNotFound
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate complaint id: %w", err)
	}
	c := &Complaint{
		ID:          id,
		OrderID:     o.ID,
		ConsumerID:  actor.ID,
		SupplierID:  o.SupplierID,
		Title:       title,
		Description: description,
		Status:      StatusPending,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to create complaint in repository")
		return nil, fmt.Errorf("service: failed to file complaint: %w", err)
	}

	log.Info().Stringer("complaint_id", c.ID).Stringer("order_id", c.OrderID).Stringer("supplier_id", c.SupplierID).Msg("service: complaint filed")
	return c, nil
}

func (s *service) Escalate(ctx context.Context, actor identity.User, id uuid.UUID) (*Complaint, error) {
	return s.transition(ctx, actor, id, ActionEscalate)
}

func (s *service) Resolve(ctx context.Context, actor identity.User, id uuid.UUID) (*Complaint, error) {
	return s.transition(ctx, actor, id, ActionResolve)
}

func (s *service) Reject(ctx context.Context, actor identity.User, id uuid.UUID) (*Complaint, error) {
	return s.transition(ctx, actor, id, ActionReject)
}

func (s *service) transition(ctx context.Context, actor identity.User, id uuid.UUID, action Action) (*Complaint, error) {
	from, err := expectedStatus(actor.Role, action)
	if err != nil {
		log.Warn().Stringer("user_id", actor.ID).Stringer("role", actor.Role).Stringer("action", action).Msg("service: complaint transition refused")
		return nil, err
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to load complaint: %w", err)
	}
	if c.SupplierID != s.resolver.EffectiveSupplier(ctx, actor).ID {
		return nil, apperr.ErrNotFound
	}
	if c.Status != from {
		log.Warn().Stringer("complaint_id", c.ID).Stringer("current_status", c.Status).Stringer("action", action).Stringer("role", actor.Role).Msg("service: invalid complaint transition attempt")
		return nil, fmt.Errorf("%w: %s cannot %s a complaint in status %s", apperr.ErrInvalidState, actor.Role, action, c.Status)
	}

	to := actionTargets[action]
	var resolvedAt *time.Time
	if to == StatusResolved || to == StatusRejected {
		now := s.now().UTC()
		resolvedAt = &now
	}

	if err := s.repo.TransitionStatus(ctx, c.ID, from, to, resolvedAt); err != nil {
		if errors.Is(err, apperr.ErrInvalidState) {
			log.Warn().Stringer("complaint_id", c.ID).Stringer("action", action).Msg("service: complaint changed underneath transition")
			return nil, err
		}
		log.Error().Err(err).Stringer("complaint_id", c.ID).Msg("service: failed to update complaint status")
		return nil, fmt.Errorf("service: failed to %s complaint: %w", action, err)
	}

	log.Info().Stringer("complaint_id", c.ID).Stringer("old_status", c.Status).Stringer("new_status", to).Msg("service: complaint status updated")
	c.Status = to
	if resolvedAt != nil {
		c.ResolvedAt = resolvedAt
	}
	return c, nil
}

func (s *service) Get(ctx context.Context, actor identity.User, id uuid.UUID) (*Complaint, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch complaint: %w", err)
	}
	switch {
	case actor.Role.IsConsumer() && c.ConsumerID == actor.ID:
		return c, nil
	case actor.Role.IsSupplierSide() && c.SupplierID == s.resolver.EffectiveSupplier(ctx, actor).ID:
		return c, nil
	default:
		return nil, apperr.ErrNotFound
	}
}

func (s *service) List(ctx context.Context, actor identity.User, status *Status) ([]Complaint, error) {
	var (
		complaints []Complaint
		err        error
	)
	switch {
	case actor.Role.IsConsumer():
		complaints, err = s.repo.ListByConsumer(ctx, actor.ID)
	case actor.Role.IsSupplierSide():
		complaints, err = s.repo.ListBySupplier(ctx, s.resolver.EffectiveSupplier(ctx, actor).ID, status)
	default:
		return nil, apperr.ErrForbidden
	}
	if err != nil {
		log.Error().Err(err).Stringer("user_id", actor.ID).Msg("service: failed to fetch complaints in repository")
		return nil, fmt.Errorf("service: failed to fetch complaints: %w", err)
	}
	if status != nil && actor.Role.IsConsumer() {
		filtered := make([]Complaint, 0, len(complaints))
		for _, c := range complaints {
			if c.Status == *status {
				filtered = append(filtered, c)
			}
		}
		return filtered, nil
	}
	return complaints, nil
}
