package entity

import "time"

// Record is a paperwork request moving through an approval chain.
// One Record exists per requisition, cash voucher or mission order;
// WorkflowType selects which transition table governs it.
type Record struct {
	ID           int64  `json:"id"`
	Code         string `json:"code"`
	WorkflowType string `json:"workflow_type"`
	Status       string `json:"status"`
	Category     string `json:"category,omitempty"`
	DepartmentID int64  `json:"department_id"`
	CreatorID    string `json:"creator_id"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`

	// Role stamps. Each is set exactly once by the transition that
	// corresponds to that role's action and is never cleared.
	ApproverID      string `json:"approver_id,omitempty"`
	DirecteurID     string `json:"directeur_id,omitempty"`
	ITApproverID    string `json:"it_approver_id,omitempty"`
	FinalApproverID string `json:"final_approver_id,omitempty"`
	PrintedByID     string `json:"printed_by_id,omitempty"`

	SelectedOptionID int64  `json:"selected_option_id,omitempty"`
	IsEscalated      bool   `json:"is_escalated"`
	RejectionReason  string `json:"rejection_reason,omitempty"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Actor is the identity tuple supplied by the session provider.
// The engine trusts it and performs no authentication itself.
type Actor struct {
	ID           string `json:"id"`
	Role         string `json:"role"`
	DepartmentID int64  `json:"department_id"`
}

// IsCreator reports whether the actor raised this record.
func (r *Record) IsCreator(actorID string) bool {
	return r.CreatorID == actorID
}

// User is a directory entry. The directory backs notification recipient
// resolution and the development token endpoint; it is not consulted by
// the authorization evaluator, which trusts the Actor tuple.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	DepartmentID int64     `json:"department_id"`
	LarkOpenID   string    `json:"lark_open_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
