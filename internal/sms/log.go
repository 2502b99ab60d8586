package sms

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aelexs/smsgateway/internal/domain"
)

var _ Client = (*LogClient)(nil)

// LogClient is a fake Client that logs messages instead of sending them.
// Suitable for local development and tests. The most recent
// DefaultIssuedLimit messages it accepted report as delivered.
type LogClient struct {
	logger *slog.Logger
	sent   *IssuedIDs
}

// NewLogClient creates a LogClient writing to logger.
func NewLogClient(logger *slog.Logger) *LogClient {
	return &LogClient{
		logger: logger,
		sent:   NewIssuedIDs(DefaultIssuedLimit),
	}
}

// SendMessage logs the message with a masked recipient and returns a fresh id.
func (c *LogClient) SendMessage(ctx context.Context, to domain.PhoneNumber, msg domain.Message) (domain.MessageID, error) {
	id := domain.GenerateMessageID()

	c.sent.Add(id)

	c.logger.InfoContext(ctx, "sms delivery (log-only)",
		slog.String("message_id", id.String()),
		slog.String("recipient", to.Masked()),
		slog.Int("length", len(msg)),
	)
	return id, nil
}

// MessageStatus reports StatusDelivered for ids issued by this client that
// are still remembered.
func (c *LogClient) MessageStatus(_ context.Context, id domain.MessageID) (domain.DeliveryStatus, error) {
	if !c.sent.Contains(id) {
		return 0, fmt.Errorf("log sms: message %s: %w", id, domain.ErrNotFound)
	}
	return domain.StatusDelivered, nil
}
