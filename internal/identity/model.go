package identity

import (
	"time"

	"github.com/gofrs/uuid"
)

type User struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Email     string     `json:"email" db:"email"`
	FullName  string     `json:"full_name" db:"full_name"`
	Role      Role       `json:"role" db:"role"`
	CompanyID *uuid.UUID `json:"company_id,omitempty" db:"company_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

type Company struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OwnerID   uuid.UUID `json:"owner_id" db:"owner_id"`
	Name      string    `json:"name" db:"name"`
	Address   string    `json:"address" db:"address"`
	Phone     string    `json:"phone" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type RegisterInput struct {
	Email          string
	FullName       string
	Role           string
	CompanyName    string
	CompanyAddress string
	CompanyPhone   string
}
