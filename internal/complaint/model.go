package complaint

import (
	"time"

	"github.com/gofrs/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusResolved  Status = "resolved"
	StatusRejected  Status = "rejected"
	StatusEscalated Status = "escalated"
)

func (s Status) String() string {
	return string(s)
}

func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusResolved, StatusRejected, StatusEscalated:
		return st, true
	default:
		return "", false
	}
}

type Complaint struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	OrderID     uuid.UUID  `json:"order_id" db:"order_id"`
	ConsumerID  uuid.UUID  `json:"consumer_id" db:"consumer_id"`
	SupplierID  uuid.UUID  `json:"supplier_id" db:"supplier_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Status      Status     `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
}

type Action string

const (
	ActionEscalate Action = "escalate"
	ActionResolve  Action = "resolve"
	ActionReject   Action = "reject"
)

func (a Action) String() string {
	return string(a)
}
