package handlers

import (
	"context"

	"github.com/wefixit/wefixit-backend/internal/models"
	"github.com/wefixit/wefixit-backend/internal/services"
)

// Notifier sends the emails triggered by submissions and replies.
type Notifier interface {
	NotifyContact(ctx context.Context, c *models.Contact) error
	NotifyQuote(ctx context.Context, q *models.Quote) error
	SendQuoteReply(ctx context.Context, q *models.Quote, content string) error
}

// EventPublisher pushes admin events. Publish must not block.
type EventPublisher interface {
	Publish(ctx context.Context, evt services.Event)
}
