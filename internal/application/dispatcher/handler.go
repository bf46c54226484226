package dispatcher

import (
	"context"

	"github.com/edbgroup/paperflow/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// handlerInfo pairs a handler with a name for logging
type handlerInfo struct {
	name    string
	handler Handler
}
