package complaint

import (
	"fmt"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
	"github.com/KeeperOfTheLights/best-project-backend/internal/identity"
)

var actionTargets = map[Action]Status{
	ActionEscalate: StatusEscalated,
	ActionResolve:  StatusResolved,
	ActionReject:   StatusRejected,
}

// expectedStatus returns the status a complaint must be in for role to apply
// action. Sales handle pending complaints and hand them up by escalating;
// owners and managers close escalated ones.
func expectedStatus(role identity.Role, action Action) (Status, error) {
	switch action {
	case ActionEscalate:
		if role.IsSupplierSide() {
			return StatusPending, nil
		}
	case ActionResolve, ActionReject:
		switch role {
		case identity.RoleSales:
			return StatusPending, nil
		case identity.RoleOwner, identity.RoleManager:
			return StatusEscalated, nil
		}
	default:
		return "", fmt.Errorf("%w: unknown complaint action %q", apperr.ErrInvalidState, action)
	}
	return "", apperr.ErrForbidden
}
