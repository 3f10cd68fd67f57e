package chat

import (
	"time"

	"github.com/gofrs/uuid"
)

// Room is the single conversation between a consumer and a supplier company.
// Every staff member of the company talks in the owner's room.
type Room struct {
	ID         string    `json:"id"`
	ConsumerID uuid.UUID `json:"consumer_id"`
	SupplierID uuid.UUID `json:"supplier_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type Message struct {
	ID        uuid.UUID `json:"id"`
	RoomID    string    `json:"room_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func roomID(consumerID, supplierID uuid.UUID) string {
	return consumerID.String() + ":" + supplierID.String()
}
