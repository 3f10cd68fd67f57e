package link

import (
	"fmt"

	"github.com/KeeperOfTheLights/best-project-backend/internal/apperr"
)

var allStatuses = []Status{StatusPending, StatusLinked, StatusRejected, StatusBlocked}

// transitionRule lists the states an action may start from and where it leads.
type transitionRule struct {
	from []Status
	to   Status
}

var allowedTransitions = map[Action]transitionRule{
	ActionAccept:  {from: []Status{StatusPending, StatusLinked, StatusRejected}, to: StatusLinked},
	ActionReject:  {from: allStatuses, to: StatusRejected},
	ActionBlock:   {from: allStatuses, to: StatusBlocked},
	ActionUnblock: {from: []Status{StatusBlocked}, to: StatusPending},
}

// nextStatus is total over (status, action): it yields either the target
// state or apperr.ErrInvalidState.
func nextStatus(current Status, action Action) (Status, error) {
	rule, ok := allowedTransitions[action]
	if !ok {
		return "", fmt.Errorf("%w: unknown link action %q", apperr.ErrInvalidState, action)
	}
	for _, from := range rule.from {
		if from == current {
			return rule.to, nil
		}
	}
	return "", fmt.Errorf("%w: cannot %s a %s link", apperr.ErrInvalidState, action, current)
}
