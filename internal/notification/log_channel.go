package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogChannel is a delivery channel that writes notifications to the
// log instead of sending them. It backs local development and any
// deployment where no messaging credentials are configured.
type LogChannel struct {
	logger *zap.Logger
}

// NewLogChannel creates a new LogChannel
func NewLogChannel(logger *zap.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

// Send logs the message for each recipient and never fails
func (c *LogChannel) Send(ctx context.Context, recipientIDs []string, message, recordCode string) error {
	c.logger.Info("Notification (log only)",
		zap.String("record_code", recordCode),
		zap.Strings("recipients", recipientIDs),
		zap.String("message", message))
	return nil
}
