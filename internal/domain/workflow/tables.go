package workflow

import "github.com/edbgroup/paperflow/internal/domain/entity"

// itCategories reroute a requisition through the mandatory IT approval step.
var itCategories = []string{
	entity.CategoryITEquipment,
	entity.CategorySoftware,
	entity.CategoryITServices,
}

// overrideRoles bypass department scoping and qualify for any transition.
var overrideRoles = map[string]bool{
	entity.RoleDG:    true,
	entity.RoleAdmin: true,
}

// globalRejectRoles may reject a record at any non-terminal stage, even
// after the rejection window has closed for the chain roles.
var globalRejectRoles = map[string]bool{
	entity.RoleDG:    true,
	entity.RoleAdmin: true,
}

// IsOverrideRole reports whether the role carries global-override privileges.
func IsOverrideRole(role string) bool {
	return overrideRoles[role]
}

var rejectEffects = []Effect{EffectRequireReason, EffectSetRejectionReason}

// tables holds the three fixed workflow topologies. Status only ever
// changes through one of these entries.
var tables = map[Type]Table{

	// Purchase requisition: department gate, IT category branch,
	// supplier option choice before the DAF finalizes.
	TypeRequisition: {
		StatusDraft: {
			{Action: ActionSubmit, CreatorOnly: true, Next: StatusSubmitted, Effects: []Effect{EffectSetSubmittedAt}},
			{Action: ActionDelete, CreatorOnly: true},
		},
		StatusSubmitted: {
			{Action: ActionApprove, Roles: []string{entity.RoleResponsable}, Scope: ScopeSameDepartment,
				Next: StatusApprovedResponsable, Effects: []Effect{EffectStampApprover}},
			{Action: ActionReject, Roles: []string{entity.RoleResponsable, entity.RoleDirecteur}, Scope: ScopeSameDepartment,
				Next: StatusRejected, Effects: rejectEffects},
			{Action: ActionDelete, CreatorOnly: true},
		},
		StatusApprovedResponsable: {
			{Action: ActionApprove, Roles: []string{entity.RoleDirecteur}, Scope: ScopeSameDepartment,
				Next:  StatusApprovedDirecteur,
				Route: &CategoryRoute{Categories: itCategories, Next: StatusAwaitingITApproval},
				Effects: []Effect{EffectStampDirecteur}},
			{Action: ActionEscalate, Roles: []string{entity.RoleDirecteur}, Scope: ScopeSameDepartment,
				Effects: []Effect{EffectSetEscalated}},
			{Action: ActionReject, Roles: []string{entity.RoleDirecteur}, Scope: ScopeSameDepartment,
				Next: StatusRejected, Effects: rejectEffects},
		},
		StatusAwaitingITApproval: {
			{Action: ActionApprove, Roles: []string{entity.RoleServiceIT},
				Next: StatusApprovedIT, Effects: []Effect{EffectStampITApprover}},
			{Action: ActionReject, Roles: []string{entity.RoleServiceIT},
				Next: StatusRejected, Effects: rejectEffects},
		},
		StatusApprovedIT: {
			{Action: ActionChooseOption, CreatorOnly: true,
				Effects: []Effect{EffectRequireOption, EffectStampSelectedOption}},
			{Action: ActionFinalize, Roles: []string{entity.RoleDAF},
				Next: StatusApprovedDAF, Effects: []Effect{EffectRequireSelectedOption, EffectStampFinalApprover}},
			{Action: ActionReject, Roles: []string{entity.RoleDAF},
				Next: StatusRejected, Effects: rejectEffects},
		},
		StatusApprovedDirecteur: {
			{Action: ActionChooseOption, CreatorOnly: true,
				Effects: []Effect{EffectRequireOption, EffectStampSelectedOption}},
			{Action: ActionFinalize, Roles: []string{entity.RoleDAF},
				Next: StatusApprovedDAF, Effects: []Effect{EffectRequireSelectedOption, EffectStampFinalApprover}},
			{Action: ActionReject, Roles: []string{entity.RoleDAF},
				Next: StatusRejected, Effects: rejectEffects},
		},
		// The rejection window is closed here for the chain roles; only
		// the global reject roles may still reject.
		StatusApprovedDAF: {
			{Action: ActionComplete, Roles: []string{entity.RoleDAF},
				Next: StatusCompleted, Effects: []Effect{EffectStampPrintedBy}},
		},
	},

	// Cash-disbursement voucher: plain linear chain with department gate.
	// Vouchers are created directly in SUBMITTED.
	TypeVoucher: {
		StatusSubmitted: {
			{Action: ActionApprove, Roles: []string{entity.RoleResponsable}, Scope: ScopeSameDepartment,
				Next: StatusApprovedResponsable, Effects: []Effect{EffectStampApprover}},
			{Action: ActionReject, Roles: []string{entity.RoleResponsable, entity.RoleDirecteur}, Scope: ScopeSameDepartment,
				Next: StatusRejected, Effects: rejectEffects},
			{Action: ActionDelete, CreatorOnly: true},
		},
		StatusApprovedResponsable: {
			{Action: ActionApprove, Roles: []string{entity.RoleDirecteur}, Scope: ScopeSameDepartment,
				Next: StatusApprovedDirecteur, Effects: []Effect{EffectStampDirecteur}},
			{Action: ActionEscalate, Roles: []string{entity.RoleDirecteur}, Scope: ScopeSameDepartment,
				Effects: []Effect{EffectSetEscalated}},
			{Action: ActionReject, Roles: []string{entity.RoleDirecteur}, Scope: ScopeSameDepartment,
				Next: StatusRejected, Effects: rejectEffects},
		},
		StatusApprovedDirecteur: {
			{Action: ActionApprove, Roles: []string{entity.RoleDAF},
				Next: StatusApprovedDAF, Effects: []Effect{EffectStampFinalApprover}},
			{Action: ActionReject, Roles: []string{entity.RoleDAF},
				Next: StatusRejected, Effects: rejectEffects},
		},
		StatusApprovedDAF: {
			{Action: ActionComplete, Roles: []string{entity.RoleDAF},
				Next: StatusCompleted, Effects: []Effect{EffectStampPrintedBy}},
		},
	},

	// Mission order: linear chain ending in PRINTED. The creator prints
	// their own order once the directeur has signed off.
	TypeMissionOrder: {
		StatusDraft: {
			{Action: ActionSubmit, CreatorOnly: true, Next: StatusSubmitted, Effects: []Effect{EffectSetSubmittedAt}},
			{Action: ActionDelete, CreatorOnly: true},
		},
		StatusSubmitted: {
			{Action: ActionApprove, Roles: []string{entity.RoleResponsable}, Scope: ScopeSameDepartment,
				Next: StatusApprovedResponsable, Effects: []Effect{EffectStampApprover}},
			{Action: ActionReject, Roles: []string{entity.RoleResponsable, entity.RoleDirecteur}, Scope: ScopeSameDepartment,
				Next: StatusRejected, Effects: rejectEffects},
			{Action: ActionDelete, CreatorOnly: true},
		},
		StatusApprovedResponsable: {
			{Action: ActionApprove, Roles: []string{entity.RoleDirecteur}, Scope: ScopeSameDepartment,
				Next: StatusApprovedDirecteur, Effects: []Effect{EffectStampDirecteur}},
			{Action: ActionEscalate, Roles: []string{entity.RoleDirecteur}, Scope: ScopeSameDepartment,
				Effects: []Effect{EffectSetEscalated}},
			{Action: ActionReject, Roles: []string{entity.RoleDirecteur}, Scope: ScopeSameDepartment,
				Next: StatusRejected, Effects: rejectEffects},
		},
		StatusApprovedDirecteur: {
			{Action: ActionComplete, CreatorOnly: true,
				Next: StatusPrinted, Effects: []Effect{EffectStampPrintedBy}},
		},
	},
}

// TableFor returns the transition table for a workflow type.
func TableFor(wt Type) (Table, bool) {
	t, ok := tables[wt]
	return t, ok
}

// InitialStatus returns the status a freshly created record starts in.
// Vouchers are submitted by the act of creation; the other two types
// start as drafts.
func InitialStatus(wt Type) Status {
	if wt == TypeVoucher {
		return StatusSubmitted
	}
	return StatusDraft
}

// NextActorRoles returns the role cohort expected to act on a record in
// the given status, derived from the table rather than re-stated per
// call site. Used for notification recipient resolution.
func NextActorRoles(wt Type, status Status) []string {
	table, ok := tables[wt]
	if !ok {
		return nil
	}

	var roles []string
	seen := make(map[string]bool)
	for _, t := range table[status] {
		switch t.Action {
		case ActionApprove, ActionFinalize, ActionComplete:
			for _, r := range t.Roles {
				if !seen[r] {
					seen[r] = true
					roles = append(roles, r)
				}
			}
		}
	}
	return roles
}
