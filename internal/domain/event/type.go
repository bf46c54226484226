package event

// Type identifies the type of domain event
type Type string

const (
	TypeRecordCreated    Type = "record.created"
	TypeStatusChanged    Type = "record.status_changed"
	TypeRecordRejected   Type = "record.rejected"
	TypeRecordEscalated  Type = "record.escalated"
	TypeOptionSelected   Type = "record.option_selected"
	TypeAttachmentAdded  Type = "record.attachment_added"
	TypeRecordDeleted    Type = "record.deleted"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeRecordCreated,
		TypeStatusChanged,
		TypeRecordRejected,
		TypeRecordEscalated,
		TypeOptionSelected,
		TypeAttachmentAdded,
		TypeRecordDeleted:
		return true
	default:
		return false
	}
}
