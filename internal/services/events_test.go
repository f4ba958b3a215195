package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wefixit/wefixit-backend/internal/logging"
	"github.com/wefixit/wefixit-backend/internal/metrics"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestEventHubLocalFanOut(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	hub := NewEventHub(nil, logging.Discard(), m)

	a, unsubA := hub.Subscribe()
	b, unsubB := hub.Subscribe()
	defer unsubB()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventSubscribers))

	hub.Publish(context.Background(), Event{Type: EventContactCreated, ID: "1", Summary: "Ada"})

	for _, ch := range []<-chan Event{a, b} {
		evt := receive(t, ch)
		assert.Equal(t, EventContactCreated, evt.Type)
		assert.Equal(t, "1", evt.ID)
		assert.False(t, evt.Timestamp.IsZero())
	}

	unsubA()
	unsubA()
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventSubscribers))
}

func TestEventHubDropsForSlowSubscriber(t *testing.T) {
	hub := NewEventHub(nil, logging.Discard(), nil)
	ch, unsub := hub.Subscribe()
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*4; i++ {
			hub.Publish(context.Background(), Event{Type: EventQuoteCreated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestEventHubRelaysThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	hub := NewEventHub(client, logging.Discard(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(EventsChannel)[EventsChannel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	ch, unsub := hub.Subscribe()
	defer unsub()

	hub.Publish(ctx, Event{Type: EventReviewCreated, ID: "42", Summary: "Eve (5/5)"})

	evt := receive(t, ch)
	assert.Equal(t, EventReviewCreated, evt.Type)
	assert.Equal(t, "42", evt.ID)
	assert.Equal(t, "Eve (5/5)", evt.Summary)
}
