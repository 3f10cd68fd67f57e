package order

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// Pricer decides the unit price snapshotted into an order line. It runs
// inside the checkout transaction, after stock validation.
type Pricer interface {
	UnitPrice(ctx context.Context, consumerID uuid.UUID, line CheckoutLine) (decimal.Decimal, error)
}

// ListPricer charges the product's current list price.
type ListPricer struct{}

func (ListPricer) UnitPrice(_ context.Context, _ uuid.UUID, line CheckoutLine) (decimal.Decimal, error) {
	return line.Price, nil
}

type PricerFunc func(ctx context.Context, consumerID uuid.UUID, line CheckoutLine) (decimal.Decimal, error)

func (f PricerFunc) UnitPrice(ctx context.Context, consumerID uuid.UUID, line CheckoutLine) (decimal.Decimal, error) {
	return f(ctx, consumerID, line)
}
