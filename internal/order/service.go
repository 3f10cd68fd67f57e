package order

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
	"github.com/KeeperOfTheLights/best-project-backend/internal/identity"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusApproved:  true,
		StatusCancelled: true,
	},
	StatusApproved: {
		StatusDelivered: true,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

var actionTargets = map[Action]Status{
	ActionAccept:  StatusApproved,
	ActionReject:  StatusCancelled,
	ActionDeliver: StatusDelivered,
}

// nextStatus is total over (status, action): it yields the target state or
// apperr.ErrInvalidState.
func nextStatus(current Status, action Action) (Status, error) {
	target, ok := actionTargets[action]
	if !ok {
		return "", fmt.Errorf("%w: unknown order action %q", apperr.ErrInvalidState, action)
	}
	if !allowedTransitions[current][target] {
		return "", fmt.Errorf("%w: cannot %s an order in status %s", apperr.ErrInvalidState, action, current)
	}
	return target, nil
}

// Recorder receives checkout and transition outcomes.
type Recorder interface {
	ObserveCheckout(outcome string)
	ObserveTransition(action, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCheckout(string)           {}
func (nopRecorder) ObserveTransition(string, string) {}

type LinkCounter interface {
	CountLinked(ctx context.Context, supplierID uuid.UUID) (int, error)
}

type Service interface {
	Checkout(ctx context.Context, actor identity.User) (*Order, error)
	Accept(ctx context.Context, actor identity.User, orderID uuid.UUID) (*Order, error)
	Reject(ctx context.Context, actor identity.User, orderID uuid.UUID) (*Order, error)
	Deliver(ctx context.Context, actor identity.User, orderID uuid.UUID) (*Order, error)
	Get(ctx context.Context, actor identity.User, orderID uuid.UUID) (*Order, error)
	List(ctx context.Context, actor identity.User, status *Status) ([]Order, error)
	Stats(ctx context.Context, actor identity.User) (*Stats, error)
}

type service struct {
	repo     Repository
	resolver identity.SupplierResolver
	links    LinkCounter
	pricer   Pricer
	recorder Recorder
	now      func() time.Time
}

type Option func(*service)

func WithPricer(p Pricer) Option {
	return func(s *service) { s.pricer = p }
}

func WithRecorder(r Recorder) Option {
	return func(s *service) { s.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(repo Repository, resolver identity.SupplierResolver, links LinkCounter, opts ...Option) Service {
	s := &service{
		repo:     repo,
		resolver: resolver,
		links:    links,
		pricer:   ListPricer{},
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// withRetry runs fn again once when the store reports a lost race. A second
// loss surfaces as apperr.ErrTransient.
func (s *service) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if !errors.Is(err, apperr.ErrConcurrentUpdate) {
		return err
	}

	log.Warn().Err(err).Str("operation", op).Msg("service: transaction conflict, retrying once")
	err = fn(ctx)
	if errors.Is(err, apperr.ErrConcurrentUpdate) {
		log.Error().Err(err).Str("operation", op).Msg("service: transaction conflict persisted after retry")
		return fmt.Errorf("%w: %w", apperr.ErrTransient, err)
	}
	return err
}

func outcome(err error) string {
	var stockErr *apperr.StockError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &stockErr):
		return "insufficient_stock"
	case errors.Is(err, apperr.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, apperr.ErrMultiSupplierCart):
		return "multi_supplier"
	case errors.Is(err, apperr.ErrForbidden):
		return "forbidden"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, apperr.ErrTransient):
		return "transient"
	default:
		return "error"
	}
}

func (s *service) Accept(ctx context.Context, actor identity.User, orderID uuid.UUID) (*Order, error) {
	return s.transition(ctx, actor, orderID, ActionAccept)
}

func (s *service) Reject(ctx context.Context, actor identity.User, orderID uuid.UUID) (*Order, error) {
	return s.transition(ctx, actor, orderID, ActionReject)
}

func (s *service) Deliver(ctx context.Context, actor identity.User, orderID uuid.UUID) (*Order, error) {
	return s.transition(ctx, actor, orderID, ActionDeliver)
}

func (s *service) transition(ctx context.Context, actor identity.User, orderID uuid.UUID, action Action) (result *Order, err error) {
	defer func() { s.recorder.ObserveTransition(action.String(), outcome(err)) }()

	if !actor.Role.CanManageOrders() {
		log.Warn().Stringer("user_id", actor.ID).Stringer("role", actor.Role).Stringer("action", action).Msg("service: order transition forbidden for role")
		return nil, apperr.ErrForbidden
	}
	supplier := s.resolver.EffectiveSupplier(ctx, actor)

	err = s.withRetry(ctx, "order_"+action.String(), func(ctx context.Context) error {
		return s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
			o, err := tx.LockOrder(ctx, orderID)
			if err != nil {
				return err
			}
			if o.SupplierID != supplier.ID {
				return apperr.ErrNotFound
			}

			next, err := nextStatus(o.Status, action)
			if err != nil {
				log.Warn().
					Stringer("order_id", o.ID).
					Stringer("current_status", o.Status).
					Stringer("action", action).
					Msg("service: invalid order transition attempt")
				return err
			}

			if action == ActionReject {
				for _, item := range restockLines(o.Items) {
					if err := tx.AdjustStock(ctx, *item.ProductID, item.Quantity); err != nil {
						return fmt.Errorf("service: failed to restore stock: %w", err)
					}
				}
			}

			now := s.now().UTC()
			if err := tx.SetStatus(ctx, o.ID, next, now); err != nil {
				return err
			}

			log.Info().Stringer("order_id", o.ID).Stringer("old_status", o.Status).Stringer("new_status", next).Msg("service: order status updated successfully")
			o.Status = next
			o.UpdatedAt = now
			result = o
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrInvalidState) || errors.Is(err, apperr.ErrTransient) {
			return nil, err
		}
		log.Error().Err(err).Stringer("order_id", orderID).Stringer("action", action).Msg("service: failed to update order status")
		return nil, fmt.Errorf("service: failed to %s order: %w", action, err)
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, actor identity.User, orderID uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			log.Warn().Stringer("order_id", orderID).Msg("service: order not found by id")
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch order by id: %w", err)
	}
	if !s.visible(ctx, actor, o) {
		return nil, apperr.ErrNotFound
	}
	return o, nil
}

func (s *service) visible(ctx context.Context, actor identity.User, o *Order) bool {
	switch actor.Role {
	case identity.RoleConsumer:
		return o.ConsumerID == actor.ID
	case identity.RoleOwner, identity.RoleManager, identity.RoleSales:
		return o.SupplierID == s.resolver.EffectiveSupplier(ctx, actor).ID
	default:
		return false
	}
}

func (s *service) List(ctx context.Context, actor identity.User, status *Status) ([]Order, error) {
	var (
		orders []Order
		err    error
	)
	switch actor.Role {
	case identity.RoleConsumer:
		orders, err = s.repo.ListByConsumer(ctx, actor.ID, status)
	case identity.RoleOwner, identity.RoleManager, identity.RoleSales:
		orders, err = s.repo.ListBySupplier(ctx, s.resolver.EffectiveSupplier(ctx, actor).ID, status)
	default:
		return nil, apperr.ErrForbidden
	}
	if err != nil {
		log.Error().Err(err).Stringer("user_id", actor.ID).Msg("service: failed to fetch orders in repository")
		return nil, fmt.Errorf("service: failed to fetch orders: %w", err)
	}
	return orders, nil
}

func (s *service) Stats(ctx context.Context, actor identity.User) (*Stats, error) {
	if !actor.Role.IsSupplierSide() {
		return nil, apperr.ErrForbidden
	}
	supplierID := s.resolver.EffectiveSupplier(ctx, actor).ID

	counts, err := s.repo.CountByStatus(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to count orders: %w", err)
	}
	complaints, err := s.repo.CountPendingComplaints(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to count complaints: %w", err)
	}
	linked, err := s.links.CountLinked(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to count linked consumers: %w", err)
	}

	st := &Stats{
		Pending:           counts[StatusPending],
		Approved:          counts[StatusApproved],
		Delivered:         counts[StatusDelivered],
		Cancelled:         counts[StatusCancelled],
		PendingComplaints: complaints,
		LinkedConsumers:   linked,
	}
	st.Total = st.Pending + st.Approved + st.Delivered + st.Cancelled
	return st, nil
}

// restockLines returns the items that still reference a product, ordered by
// product id so product rows are locked in the same order checkout takes them.
func restockLines(items []OrderItem) []OrderItem {
	lines := make([]OrderItem, 0, len(items))
	for _, item := range items {
		if item.ProductID != nil {
			lines = append(lines, item)
		}
	}
	slices.SortFunc(lines, func(a, b OrderItem) int {
		return bytes.Compare(a.ProductID.Bytes(), b.ProductID.Bytes())
	})
	return lines
}
