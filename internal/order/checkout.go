package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
	"github.com/KeeperOfTheLights/best-project-backend/internal/identity"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Checkout turns the consumer's whole cart into one pending order. Every check
// runs inside the same transaction as the writes, so a failure leaves the
// order tables, stock and cart untouched.
func (s *service) Checkout(ctx context.Context, actor identity.User) (result *Order, err error) {
	defer func() { s.recorder.ObserveCheckout(outcome(err)) }()

	if !actor.Role.IsConsumer() {
		log.Warn().Stringer("user_id", actor.ID).Stringer("role", actor.Role).Msg("service: checkout by non-consumer")
		return nil, apperr.ErrForbidden
	}

	err = s.withRetry(ctx, "checkout", func(ctx context.Context) error {
		return s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
			o, err := s.checkout(ctx, tx, actor.ID)
			if err != nil {
				return err
			}
			result = o
			return nil
		})
	})
	if err != nil {
		var stockErr *apperr.StockError
		switch {
		case errors.As(err, &stockErr):
			log.Warn().Stringer("consumer_id", actor.ID).Stringer("product_id", stockErr.ProductID).
				Int("requested", stockErr.Requested).Int("available", stockErr.Available).
				Msg("service: checkout refused, insufficient stock")
			return nil, stockErr
		case errors.Is(err, apperr.ErrEmptyCart),
			errors.Is(err, apperr.ErrMultiSupplierCart),
			errors.Is(err, apperr.ErrForbidden),
			errors.Is(err, apperr.ErrValidation),
			errors.Is(err, apperr.ErrTransient):
			log.Warn().Err(err).Stringer("consumer_id", actor.ID).Msg("service: checkout refused")
			return nil, err
		default:
			log.Error().Err(err).Stringer("consumer_id", actor.ID).Msg("service: failed to check out cart")
			return nil, fmt.Errorf("service: failed to check out: %w", err)
		}
	}

	log.Info().
		Stringer("order_id", result.ID).
		Stringer("consumer_id", result.ConsumerID).
		Stringer("supplier_id", result.SupplierID).
		Stringer("total_price", result.TotalPrice).
		Int("items", len(result.Items)).
		Msg("service: order created successfully")
	return result, nil
}

func (s *service) checkout(ctx context.Context, tx Tx, consumerID uuid.UUID) (*Order, error) {
	lines, err := tx.LockCheckoutLines(ctx, consumerID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperr.ErrEmptyCart
	}

	supplierID := lines[0].SupplierID
	for _, line := range lines[1:] {
		if line.SupplierID != supplierID {
			return nil, apperr.ErrMultiSupplierCart
		}
	}

	linked, err := tx.IsLinked(ctx, consumerID, supplierID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, fmt.Errorf("%w: consumer is not linked with supplier %s", apperr.ErrForbidden, supplierID)
	}

	for _, line := range lines {
		if line.Quantity > line.Stock {
			return nil, &apperr.StockError{ProductID: line.ProductID, Requested: line.Quantity, Available: line.Stock}
		}
	}

	orderID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate order id: %w", err)
	}
	now := s.now().UTC()
	o := &Order{
		ID:         orderID,
		ConsumerID: consumerID,
		SupplierID: supplierID,
		Status:     StatusPending,
		TotalPrice: decimal.Zero,
		Items:      make([]OrderItem, 0, len(lines)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	for _, line := range lines {
		unitPrice, err := s.pricer.UnitPrice(ctx, consumerID, line)
		if err != nil {
			return nil, fmt.Errorf("service: failed to price product %s: %w", line.ProductID, err)
		}
		if unitPrice.IsNegative() {
			return nil, apperr.Validation("negative unit price for product %s", line.ProductID)
		}
		unitPrice = unitPrice.Round(2)

		itemID, err := uuid.NewV4()
		if err != nil {
			return nil, fmt.Errorf("service: failed to generate order item id: %w", err)
		}
		productID := line.ProductID
		o.Items = append(o.Items, OrderItem{
			ID:          itemID,
			OrderID:     orderID,
			ProductID:   &productID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   unitPrice,
		})
		o.TotalPrice = o.TotalPrice.Add(unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	if err := tx.InsertOrder(ctx, o); err != nil {
		return nil, err
	}
	for _, line := range lines {
		if err := tx.AdjustStock(ctx, line.ProductID, -line.Quantity); err != nil {
			return nil, err
		}
	}
	if err := tx.ClearCart(ctx, consumerID); err != nil {
		return nil, err
	}
	return o, nil
}
