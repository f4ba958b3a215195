package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/wefixit/wefixit-backend/internal/metrics"
)

// Admin event types.
const (
	EventContactCreated = "contact.created"
	EventQuoteCreated   = "quote.created"
	EventReviewCreated  = "review.created"
)

// EventsChannel is the Redis channel used to relay events between instances.
const EventsChannel = "wefixit:admin:events"

const subscriberBuffer = 16

// Event is pushed to connected admins when new public content arrives.
type Event struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}

// EventHub fans admin events out to subscribers. With a Redis client the
// events go through pub/sub so every instance sees them; otherwise they are
// delivered locally.
type EventHub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}

	redis   *redis.Client
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// NewEventHub creates a hub. client may be nil.
func NewEventHub(client *redis.Client, logger *logrus.Logger, m *metrics.Metrics) *EventHub {
	return &EventHub{
		subs:    make(map[chan Event]struct{}),
		redis:   client,
		logger:  logger,
		metrics: m,
	}
}

// Subscribe registers a listener. The returned func unsubscribes and closes
// the channel; it is safe to call more than once.
func (h *EventHub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	h.metrics.SubscriberDelta(1)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			close(ch)
			h.mu.Unlock()
			h.metrics.SubscriberDelta(-1)
		})
	}
}

// Publish never blocks the caller on slow subscribers.
func (h *EventHub) Publish(ctx context.Context, evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	if h.redis != nil {
		data, err := json.Marshal(evt)
		if err == nil {
			err = h.redis.Publish(ctx, EventsChannel, data).Err()
		}
		if err == nil {
			return
		}
		h.logger.WithError(err).Warn("Failed to relay admin event through Redis, delivering locally")
	}
	h.fanOut(evt)
}

func (h *EventHub) fanOut(evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
			h.logger.WithField("type", evt.Type).Debug("Dropping admin event for slow subscriber")
		}
	}
}

// Run relays events published by any instance to local subscribers until
// ctx is cancelled. It returns immediately without Redis.
func (h *EventHub) Run(ctx context.Context) {
	if h.redis == nil {
		return
	}

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := h.relay(ctx)
		if ctx.Err() != nil {
			return
		}
		h.logger.WithError(err).Warn("Admin event subscriber stopped, retrying")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
	}
}

func (h *EventHub) relay(ctx context.Context) error {
	pubsub := h.redis.Subscribe(ctx, EventsChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	h.logger.WithField("channel", EventsChannel).Info("Admin event subscriber started")

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}

		var evt Event
		if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
			h.logger.WithError(err).Warn("Failed to decode admin event")
			continue
		}
		h.fanOut(evt)
	}
}
