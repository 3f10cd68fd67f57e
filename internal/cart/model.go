package cart

import (
	"time"

	"github.com/KeeperOfTheLights/best-project-backend/internal/catalog"
	"github.com/gofrs/uuid"
)

type Item struct {
	ID         uuid.UUID        `json:"id" db:"id"`
	ConsumerID uuid.UUID        `json:"consumer_id" db:"consumer_id"`
	ProductID  uuid.UUID        `json:"product_id" db:"product_id"`
	Quantity   int              `json:"quantity" db:"quantity"`
	AddedAt    time.Time        `json:"added_at" db:"added_at"`
	Product    *catalog.Product `json:"product,omitempty" db:"-"`
}
