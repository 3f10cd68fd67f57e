package link

import (
	"time"

	"github.com/gofrs/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusLinked   Status = "linked"
	StatusRejected Status = "rejected"
	StatusBlocked  Status = "blocked"
)

func (s Status) String() string {
	return string(s)
}

func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusLinked, StatusRejected, StatusBlocked:
		return st, true
	default:
		return "", false
	}
}

type Link struct {
	ID           uuid.UUID `json:"id" db:"id"`
	ConsumerID   uuid.UUID `json:"consumer_id" db:"consumer_id"`
	SupplierID   uuid.UUID `json:"supplier_id" db:"supplier_id"`
	Status       Status    `json:"status" db:"status"`
	ConsumerName string    `json:"consumer_name,omitempty" db:"-"`
	SupplierName string    `json:"supplier_name,omitempty" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type Action string

const (
	ActionAccept  Action = "accept"
	ActionReject  Action = "reject"
	ActionBlock   Action = "block"
	ActionUnblock Action = "unblock"
)

func (a Action) String() string {
	return string(a)
}
