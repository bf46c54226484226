package entity

// Workflow type constants
const (
	TypeRequisition  = "REQUISITION"
	TypeVoucher      = "VOUCHER"
	TypeMissionOrder = "MISSION_ORDER"
)

// Status constants for Record
const (
	StatusDraft               = "DRAFT"
	StatusSubmitted           = "SUBMITTED"
	StatusApprovedResponsable = "APPROVED_RESPONSABLE"
	StatusAwaitingITApproval  = "AWAITING_IT_APPROVAL"
	StatusApprovedIT          = "APPROVED_IT"
	StatusApprovedDirecteur   = "APPROVED_DIRECTEUR"
	StatusApprovedDAF         = "APPROVED_DAF"
	StatusRejected            = "REJECTED"
	StatusCompleted           = "COMPLETED"
	StatusPrinted             = "PRINTED"
)

// Role constants
const (
	RoleEmploye     = "EMPLOYE"
	RoleResponsable = "RESPONSABLE" // department head
	RoleDirecteur   = "DIRECTEUR"   // department director
	RoleDAF         = "DAF"         // finance director, not department-bound
	RoleServiceIT   = "SERVICE_IT"
	RoleDG          = "DG" // directeur général
	RoleAdmin       = "ADMIN"
)

// Category constants. The IT categories reroute a requisition through
// the mandatory IT approval step.
const (
	CategoryITEquipment = "IT_EQUIPMENT"
	CategorySoftware    = "SOFTWARE"
	CategoryITServices  = "IT_SERVICES"
	CategorySupplies    = "SUPPLIES"
	CategoryTravel      = "TRAVEL"
	CategoryOther       = "OTHER"
)

// Audit event type constants for non-transition markers. A status
// transition writes an entry whose event type equals the resulting status.
const (
	EventCreated         = "CREATED"
	EventEscalated       = "ESCALATED"
	EventOptionSelected  = "OPTION_SELECTED"
	EventAttachmentAdded = "ATTACHMENT_ADDED"
	EventDeleted         = "DELETED"
)
