package identity

import (
	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
)

// Role is the closed set of principal kinds. Authorization helpers switch over
// every value so that an unknown role never gains a permission by fallthrough.
type Role string

const (
	RoleConsumer Role = "consumer"
	RoleOwner    Role = "owner"
	RoleManager  Role = "manager"
	RoleSales    Role = "sales"
)

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", apperr.Validation("unknown role %q", s)
	}
	return r, nil
}

func (r Role) String() string {
	return string(r)
}

func (r Role) Valid() bool {
	switch r {
	case RoleConsumer, RoleOwner, RoleManager, RoleSales:
		return true
	default:
		return false
	}
}

func (r Role) IsConsumer() bool {
	return r == RoleConsumer
}

// IsSupplierSide is true for every company role, including sales.
func (r Role) IsSupplierSide() bool {
	switch r {
	case RoleOwner, RoleManager, RoleSales:
		return true
	case RoleConsumer:
		return false
	default:
		return false
	}
}

// IsStaff is true for roles that can be affiliated with someone else's company.
func (r Role) IsStaff() bool {
	switch r {
	case RoleManager, RoleSales:
		return true
	case RoleOwner, RoleConsumer:
		return false
	default:
		return false
	}
}

func (r Role) CanManageCatalog() bool {
	return r.isManagement()
}

func (r Role) CanManageLinks() bool {
	return r.isManagement()
}

func (r Role) CanManageOrders() bool {
	return r.isManagement()
}

func (r Role) isManagement() bool {
	switch r {
	case RoleOwner, RoleManager:
		return true
	case RoleSales, RoleConsumer:
		return false
	default:
		return false
	}
}
