package port

import "context"

// DeliveryChannel hands a resolved notification to the external delivery
// collaborator. The engine treats delivery as fire-and-forget: a failed
// send is logged and never rolls back committed state.
type DeliveryChannel interface {
	Send(ctx context.Context, recipientIDs []string, message, recordCode string) error
}
