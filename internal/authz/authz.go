// Package authz contains the pure role-policy decisions for projects.
// Nothing in here touches the store: callers load the project's
// membership map and creator id first and ask authz whether the actor
// may perform the requested action.  Escalation rules that cannot be
// expressed as a simple role floor (assigning Admin, demoting an
// Admin, assigning tickets) have explicit helpers layered on top of
// the basic floor check.
package authz

import (
	"errors"
	"fmt"

	"github.com/iliyamo/bug-tracker/internal/model"
)

// ErrForbidden is returned whenever an actor fails a policy check.
// Handlers translate it into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// Requirement expresses what an operation demands of the actor.
// Floor is the minimum role rank; AllowCreator lets the project
// creator pass regardless of their current role entry; CreatorOnly
// restricts the operation to the creator alone.
type Requirement struct {
	Floor		 model.Role
	AllowCreator bool
	CreatorOnly	 bool
}

// Authorize answers whether actorID may perform an action with the
// given requirement against a project owned by creator with the given
// membership map.  A nil error means the action is allowed.
func Authorize(actorID, creator string, users model.Membership, req Requirement) error {
	if req.CreatorOnly {
		if actorID != creator {
			return fmt.Errorf("%w: only the project creator may do this", ErrForbidden)
		}
		return nil
	}
	if req.AllowCreator && actorID == creator {
		return nil
	}
	role, ok := users.RoleOf(actorID)
	if !ok {
		return fmt.Errorf("%w: user is not part of the project", ErrForbidden)
	}
	if req.Floor != "" && !role.AtLeast(req.Floor) {
		return fmt.Errorf("%w: user is not %s or above in the project", ErrForbidden, req.Floor)
	}
	return nil
}

// CanAssignRole checks the escalation guards for a single role
// assignment.  actorRole is the assigner's current role, actorIsCreator
// whether the assigner created the project, assigned the requested new
// role, and targetIsAdmin whether the target currently holds Admin.
func CanAssignRole(actorRole model.Role, actorIsCreator bool, assigned model.Role, targetIsAdmin bool) error {
	if actorRole == model.RoleDeveloper {
		return fmt.Errorf("%w: developers cannot assign roles", ErrForbidden)
	}
	if assigned == model.RoleAdmin && actorRole != model.RoleAdmin {
		return fmt.Errorf("%w: only an Admin can assign the Admin role", ErrForbidden)
	}
	if targetIsAdmin && !actorIsCreator {
		return fmt.Errorf("%w: only the project creator can change an Admin's role", ErrForbidden)
	}
	return nil
}

// CanAssignTicket checks whether an actor with assignerRole may hand a
// ticket to a member with assigneeRole.  Self-claims do not go through
// this check; membership alone is enough to claim.
func CanAssignTicket(assignerRole, assigneeRole model.Role) error {
	if assignerRole == model.RoleDeveloper {
		return fmt.Errorf("%w: developers cannot assign tickets", ErrForbidden)
	}
	if assigneeRole == model.RoleAdmin {
		return fmt.Errorf("%w: an Admin cannot be assigned a ticket", ErrForbidden)
	}
	if assigneeRole == model.RoleProjectManager && assignerRole != model.RoleAdmin {
		return fmt.Errorf("%w: only an Admin can assign a ticket to a Project Manager", ErrForbidden)
	}
	return nil
}
