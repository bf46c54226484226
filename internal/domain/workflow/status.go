package workflow

import "github.com/edbgroup/paperflow/internal/domain/entity"

// Status represents a workflow status in the approval lifecycle
type Status string

const (
	StatusDraft               Status = entity.StatusDraft
	StatusSubmitted           Status = entity.StatusSubmitted
	StatusApprovedResponsable Status = entity.StatusApprovedResponsable
	StatusAwaitingITApproval  Status = entity.StatusAwaitingITApproval
	StatusApprovedIT          Status = entity.StatusApprovedIT
	StatusApprovedDirecteur   Status = entity.StatusApprovedDirecteur
	StatusApprovedDAF         Status = entity.StatusApprovedDAF
	StatusRejected            Status = entity.StatusRejected
	StatusCompleted           Status = entity.StatusCompleted
	StatusPrinted             Status = entity.StatusPrinted
)

var validStatuses = map[Status]bool{
	StatusDraft:               true,
	StatusSubmitted:           true,
	StatusApprovedResponsable: true,
	StatusAwaitingITApproval:  true,
	StatusApprovedIT:          true,
	StatusApprovedDirecteur:   true,
	StatusApprovedDAF:         true,
	StatusRejected:            true,
	StatusCompleted:           true,
	StatusPrinted:             true,
}

var terminalStatuses = map[Status]bool{
	StatusRejected:  true,
	StatusCompleted: true,
	StatusPrinted:   true,
}

// IsTerminal returns true if no further transition is permitted from the status
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// IsValid returns true if the status belongs to the closed status vocabulary
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}
