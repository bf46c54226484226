package workflow

import (
	"fmt"

	"github.com/edbgroup/paperflow/internal/domain/entity"
)

// Decision is the evaluator's verdict for (actor, record, action).
type Decision struct {
	Allowed bool
	Reason  string

	// Denial carries the sentinel error class when Allowed is false.
	Denial error

	// Transition is the matched table entry when Allowed is true.
	Transition *Transition
}

// globalRejectTransition is the synthetic entry used when a globally
// privileged role rejects outside the per-status rejection window.
var globalRejectTransition = Transition{
	Action:  ActionReject,
	Next:    StatusRejected,
	Effects: rejectEffects,
}

// adminDeleteTransition covers administrative deletion of any
// non-terminal record, regardless of how far the chain has advanced.
var adminDeleteTransition = Transition{
	Action: ActionDelete,
}

// Evaluate answers "may this actor perform this action on this record
// now?". It is a pure function over the actor tuple and the record's
// status, category, department and creator: no I/O, no side effects.
// Absence of a matching rule always means denial.
func Evaluate(actor entity.Actor, rec *entity.Record, action Action) Decision {
	status := Status(rec.Status)
	if !status.IsValid() {
		return deny(ErrInvalidTransition, fmt.Sprintf("record %s has unknown status %s", rec.Code, rec.Status))
	}
	if status.IsTerminal() {
		return deny(ErrInvalidTransition, fmt.Sprintf("record %s is %s and accepts no further actions", rec.Code, rec.Status))
	}

	table, ok := tables[Type(rec.WorkflowType)]
	if !ok {
		return deny(ErrInvalidTransition, fmt.Sprintf("unknown workflow type %s", rec.WorkflowType))
	}

	candidates := table[status]
	found := false
	for i := range candidates {
		t := &candidates[i]
		if t.Action != action {
			continue
		}
		found = true
		if actorQualifies(actor, rec, t) {
			return Decision{Allowed: true, Transition: t}
		}
	}

	// Globally privileged roles may reject at any non-terminal stage,
	// even where the table grants no one else a rejection rule.
	if action == ActionReject && globalRejectRoles[actor.Role] {
		return Decision{Allowed: true, Transition: &globalRejectTransition}
	}

	// Administrative deletion is not limited to the early statuses.
	if action == ActionDelete && actor.Role == entity.RoleAdmin {
		return Decision{Allowed: true, Transition: &adminDeleteTransition}
	}

	if !found {
		return deny(ErrInvalidTransition,
			fmt.Sprintf("action %s is not applicable to status %s", action, rec.Status))
	}
	return deny(ErrUnauthorized,
		fmt.Sprintf("role %s may not perform %s on record %s in status %s", actor.Role, action, rec.Code, rec.Status))
}

// actorQualifies checks one transition entry against the actor. When an
// actor qualifies via both a department-scoped role and a global-override
// role, the override privileges apply.
func actorQualifies(actor entity.Actor, rec *entity.Record, t *Transition) bool {
	if overrideRoles[actor.Role] {
		return true
	}

	if t.CreatorOnly && rec.IsCreator(actor.ID) {
		return true
	}

	if !roleIn(actor.Role, t.Roles) {
		return false
	}

	switch t.Scope {
	case ScopeNone:
		return true
	case ScopeSameDepartment:
		return actor.DepartmentID == rec.DepartmentID
	case ScopeOverrideOnly:
		// Only the override roles, handled above.
		return false
	default:
		return false
	}
}

func roleIn(role string, roles []string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func deny(class error, reason string) Decision {
	return Decision{Allowed: false, Reason: reason, Denial: class}
}
