package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusApproved, StatusDelivered, StatusCancelled:
		return st, true
	default:
		return "", false
	}
}

type Action string

const (
	ActionAccept  Action = "accept"
	ActionReject  Action = "reject"
	ActionDeliver Action = "deliver"
)

func (a Action) String() string {
	return string(a)
}

type OrderItem struct {
	ID      uuid.UUID `json:"id" db:"id"`
	OrderID uuid.UUID `json:"order_id" db:"order_id"`

	// ProductID is nil once the product has been deleted; the name and price
	// snapshot stay.
	ProductID   *uuid.UUID      `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name" db:"product_name"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
}

type Order struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	ConsumerID uuid.UUID       `json:"consumer_id" db:"consumer_id"`
	SupplierID uuid.UUID       `json:"supplier_id" db:"supplier_id"`
	Status     Status          `json:"status" db:"status"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
	Items      []OrderItem     `json:"items" db:"-"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// CheckoutLine is a cart line joined with the locked product row.
type CheckoutLine struct {
	CartItemID  uuid.UUID
	ProductID   uuid.UUID
	SupplierID  uuid.UUID
	ProductName string
	Quantity    int
	Stock       int
	Price       decimal.Decimal
}

type Stats struct {
	Pending           int `json:"pending"`
	Approved          int `json:"approved"`
	Delivered         int `json:"delivered"`
	Cancelled         int `json:"cancelled"`
	Total             int `json:"total"`
	PendingComplaints int `json:"pending_complaints"`
	LinkedConsumers   int `json:"linked_consumers"`
}
