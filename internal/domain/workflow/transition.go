package workflow

import "github.com/edbgroup/paperflow/internal/domain/entity"

// Type identifies which transition table governs a record
type Type string

const (
	TypeRequisition  Type = entity.TypeRequisition
	TypeVoucher      Type = entity.TypeVoucher
	TypeMissionOrder Type = entity.TypeMissionOrder
)

// Scope declares how department membership constrains a transition's roles
type Scope int

const (
	// ScopeNone places no department constraint on the qualifying roles
	ScopeNone Scope = iota

	// ScopeSameDepartment requires the actor's department to match the record's
	ScopeSameDepartment

	// ScopeOverrideOnly admits only the globally-privileged roles
	ScopeOverrideOnly
)

// Effect is a side effect the engine applies when a transition fires.
// Effects run in declaration order before the status commit.
type Effect string

const (
	EffectSetSubmittedAt        Effect = "SET_SUBMITTED_AT"
	EffectStampApprover         Effect = "STAMP_APPROVER"
	EffectStampDirecteur        Effect = "STAMP_DIRECTEUR"
	EffectStampITApprover       Effect = "STAMP_IT_APPROVER"
	EffectStampFinalApprover    Effect = "STAMP_FINAL_APPROVER"
	EffectStampPrintedBy        Effect = "STAMP_PRINTED_BY"
	EffectStampSelectedOption   Effect = "STAMP_SELECTED_OPTION"
	EffectSetEscalated          Effect = "SET_ESCALATED"
	EffectSetRejectionReason    Effect = "SET_REJECTION_REASON"
	EffectRequireReason         Effect = "REQUIRE_REASON"
	EffectRequireOption         Effect = "REQUIRE_OPTION"
	EffectRequireSelectedOption Effect = "REQUIRE_SELECTED_OPTION"
)

// CategoryRoute redirects a transition to an alternate next status when
// the record's category matches one of the listed categories.
type CategoryRoute struct {
	Categories []string
	Next       Status
}

// Transition is one candidate rule of the transition table. An actor
// qualifies when it holds one of Roles within Scope, or is the record
// creator when CreatorOnly is set. A global-override role qualifies
// unconditionally.
type Transition struct {
	Action      Action
	Roles       []string
	CreatorOnly bool
	Scope       Scope

	// Next is the status set on success. Empty for flag-only actions
	// (escalate, option choice) and for deletion.
	Next  Status
	Route *CategoryRoute

	Effects []Effect
}

// NextFor resolves the resulting status for a record category, honoring
// the category route when one matches.
func (t *Transition) NextFor(category string) Status {
	if t.Route != nil {
		for _, c := range t.Route.Categories {
			if c == category {
				return t.Route.Next
			}
		}
	}
	return t.Next
}

// HasEffect reports whether the transition declares the given effect.
func (t *Transition) HasEffect(e Effect) bool {
	for _, eff := range t.Effects {
		if eff == e {
			return true
		}
	}
	return false
}

// Table maps a current status to its candidate transitions.
type Table map[Status][]Transition
