package identity

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

// SupplierResolver maps any supplier-side principal to the company owner under
// whom supplier resources are filed.
type SupplierResolver interface {
	EffectiveSupplier(ctx context.Context, principal User) User
}

type OwnerLookup interface {
	CompanyOwner(ctx context.Context, companyID uuid.UUID) (*User, error)
}

type Resolver struct {
	owners OwnerLookup
}

func NewResolver(owners OwnerLookup) *Resolver {
	return &Resolver{owners: owners}
}

// EffectiveSupplier returns the owner itself, the owner of the principal's
// company, or the principal unchanged when no owner can be resolved.
func (r *Resolver) EffectiveSupplier(ctx context.Context, principal User) User {
	if principal.Role == RoleOwner || principal.CompanyID == nil {
		return principal
	}

	owner, err := r.owners.CompanyOwner(ctx, *principal.CompanyID)
	if err != nil || owner == nil {
		log.Warn().Err(err).Stringer("user_id", principal.ID).Stringer("company_id", principal.CompanyID).
			Msg("resolver: company owner not resolvable, acting as self")
		return principal
	}

	return *owner
}
