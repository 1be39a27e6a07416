// Package audit appends one entry per relay attempt to a Redis stream. The
// stream is the operational record of what the relay did with each webhook
// delivery; it is optional and off when no Redis URL is configured.
package audit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Entry struct {
	DeliveryID    int64
	Direction     string
	EventType     string
	SourceID      string
	Outcome       string // "created", "closed", or "failed"
	CounterpartID string
	Error         string
}

type Recorder interface {
	Record(ctx context.Context, e Entry) error
	Close() error
}

type redisRecorder struct {
	client *redis.Client
	stream string
}

func NewRedisRecorder(client *redis.Client, stream string) Recorder {
	return &redisRecorder{
		client: client,
		stream: stream,
	}
}

func (r *redisRecorder) Record(ctx context.Context, e Entry) error {
	fields := map[string]any{
		"delivery_id": e.DeliveryID,
		"direction":   e.Direction,
		"event_type":  e.EventType,
		"source_id":   e.SourceID,
		"outcome":     e.Outcome,
	}
	if e.CounterpartID != "" {
		fields["counterpart_id"] = e.CounterpartID
	}
	if e.Error != "" {
		fields["error"] = e.Error
	}

	if err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}
	return nil
}

func (r *redisRecorder) Close() error {
	return r.client.Close()
}

type nopRecorder struct{}

// NewNopRecorder returns a Recorder that drops every entry. Used when the
// audit stream is not configured.
func NewNopRecorder() Recorder {
	return nopRecorder{}
}

func (nopRecorder) Record(context.Context, Entry) error { return nil }
func (nopRecorder) Close() error                        { return nil }
