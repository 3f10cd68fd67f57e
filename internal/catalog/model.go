package catalog

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) String() string {
	return string(s)
}

type Unit string

const (
	UnitKg    Unit = "kg"
	UnitPcs   Unit = "pcs"
	UnitLitre Unit = "litre"
	UnitPack  Unit = "pack"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitKg, UnitPcs, UnitLitre, UnitPack:
		return true
	default:
		return false
	}
}

const DefaultCategory = "Uncategorized"

type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	SupplierID  uuid.UUID       `json:"supplier_id" db:"supplier_id"`
	Name        string          `json:"name" db:"name"`
	Category    string          `json:"category" db:"category"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Unit        Unit            `json:"unit" db:"unit"`
	Stock       int             `json:"stock" db:"stock"`
	MinOrder    int             `json:"min_order" db:"min_order"`
	ImageURL    string          `json:"image_url,omitempty" db:"image_url"`
	Status      Status          `json:"status" db:"status"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

func (p *Product) Active() bool {
	return p.Status == StatusActive
}

// ProductInput carries the editable fields of a product. Stock is only read on
// creation.
type ProductInput struct {
	Name        string
	Category    string
	Description string
	Price       decimal.Decimal
	Unit        Unit
	Stock       int
	MinOrder    int
	ImageURL    string
}
