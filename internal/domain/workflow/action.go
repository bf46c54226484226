package workflow

// Action represents an operation an actor requests against a record
type Action string

const (
	ActionSubmit       Action = "SUBMIT"
	ActionApprove      Action = "APPROVE"
	ActionReject       Action = "REJECT"
	ActionEscalate     Action = "ESCALATE"
	ActionChooseOption Action = "CHOOSE_OPTION"
	ActionFinalize     Action = "FINALIZE"
	ActionComplete     Action = "COMPLETE"
	ActionDelete       Action = "DELETE"
)

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}
