/**
 * @description
 * Record-created notifications for downstream collaborators.
 * The analysis collaborator listens for new calls, the query collaborator for new analyses.
 *
 * @dependencies
 * - github.com/redis/go-redis/v9
 *
 * @notes
 * - Events are published only after the unit of work that created the rows has committed.
 * - Delivery is at-most-once (Redis pub/sub); subscribers that are offline miss events.
 */

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel is the Redis pub/sub channel carrying record events
const Channel = "earnings:events"

// Type names an event
type Type string

const (
	CompanyCreated          Type = "company.created"
	EarningsCallCreated     Type = "earnings_call.created"
	EarningsAnalysisCreated Type = "earnings_analysis.created"
	QueryCreated            Type = "query.created"
)

// Event describes one created record
type Event struct {
	Type       Type      `json:"type"`
	Entity     string    `json:"entity"`
	ID         uint      `json:"id"`
	ParentID   uint      `json:"parent_id,omitempty"` // company_id or earnings_call_id
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events to interested collaborators
type Publisher interface {
	Publish(ctx context.Context, evts ...Event) error
	Name() string
}

// Pinger is implemented by publishers backed by a network transport
type Pinger interface {
	Ping(ctx context.Context) error
}

// Subscriber is implemented by publishers whose events can be read back
type Subscriber interface {
	Subscribe(ctx context.Context) *redis.PubSub
}

// Nop discards every event. Used when no transport is configured.
type Nop struct{}

func (Nop) Publish(context.Context, ...Event) error { return nil }

func (Nop) Name() string { return "none" }

// RedisPublisher publishes events as JSON on a Redis channel
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher creates a publisher on the given channel (Channel if empty)
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = Channel
	}
	return &RedisPublisher{client: client, channel: channel}
}

// Publish sends all events in a single pipeline round trip
func (p *RedisPublisher) Publish(ctx context.Context, evts ...Event) error {
	if len(evts) == 0 {
		return nil
	}

	payloads := make([][]byte, 0, len(evts))
	for _, e := range evts {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal %s event: %w", e.Type, err)
		}
		payloads = append(payloads, data)
	}

	_, err := p.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, data := range payloads {
			pipe.Publish(ctx, p.channel, data)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish %d events: %w", len(evts), err)
	}
	return nil
}

func (p *RedisPublisher) Name() string { return "redis" }

// Ping verifies the Redis connection
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Subscribe listens on the publisher's channel. The caller closes the returned PubSub.
func (p *RedisPublisher) Subscribe(ctx context.Context) *redis.PubSub {
	return p.client.Subscribe(ctx, p.channel)
}
