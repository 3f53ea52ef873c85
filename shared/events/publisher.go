package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultMaxLen caps each stream; older entries are trimmed approximately.
const DefaultMaxLen = 10000

// Stream entry fields.
const (
	fieldEvent = "event"
	fieldType  = "type"
)

// Publisher appends events to Redis streams.
type Publisher struct {
	client redis.Cmdable
	maxLen int64
	now    func() time.Time
}

func NewPublisher(client redis.Cmdable) *Publisher {
	return &Publisher{client: client, maxLen: DefaultMaxLen, now: time.Now}
}

// Publish stores the event JSON under "event" and repeats its type under
// "type" so XRANGE readers can filter without decoding.
func (p *Publisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	payload, err := json.Marshal(Event{Type: eventType, Timestamp: p.now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("encode %s: %w", eventType, err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: []any{fieldType, eventType, fieldEvent, payload},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", eventType, stream, err)
	}
	return nil
}

// Nop drops every event. Used when the process runs without Redis.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error { return nil }

// Recorder keeps published events in memory, in order.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, _ string, eventType string, data any) error {
	r.Events = append(r.Events, Event{Type: eventType, Timestamp: time.Now().UTC(), Data: data})
	return nil
}

// Types lists the recorded event types.
func (r *Recorder) Types() []string {
	types := make([]string, len(r.Events))
	for i, e := range r.Events {
		types[i] = e.Type
	}
	return types
}
