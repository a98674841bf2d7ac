// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/livepoll/hub"
	"github.com/danielhkuo/livepoll/models"
)

// Channel is the single logical event channel. Both event kinds travel here,
// discriminated by the payload's type field.
const Channel = "poll-events"

// Publisher emits counter events after a successful ledger write and cache
// increment.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// Publish sends one event. The write it describes has already committed, so
// a publish failure loses a live update but never corrupts a count.
func (p *Publisher) Publish(ctx context.Context, ev models.CounterEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Listener is the update broadcaster: a process-wide singleton that holds
// the one subscription to Channel and relays events to hub rooms. Exactly
// one Listener runs regardless of how many requests are in flight, so
// emission order for events on the same key is never reordered here.
type Listener struct {
	rdb *redis.Client
	hub *hub.Hub
}

func NewListener(rdb *redis.Client, h *hub.Hub) *Listener {
	return &Listener{rdb: rdb, hub: h}
}

// Run subscribes and dispatches until ctx is cancelled. A bad message is
// logged and skipped; the loop only ends on shutdown or a dead subscription.
func (l *Listener) Run(ctx context.Context) error {
	pubsub := l.rdb.Subscribe(ctx, Channel)
	defer pubsub.Close()

	// Block until the subscription is confirmed so callers can rely on
	// events published after Run returns control being observed.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", Channel, err)
	}
	slog.Info("broadcaster subscribed", "channel", Channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			slog.Info("broadcaster stopping")
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("subscription to %s closed", Channel)
			}
			l.Dispatch([]byte(msg.Payload))
		}
	}
}

// Dispatch turns one raw event into a room message and hands it to the hub.
// Errors are non-fatal: a malformed payload must never kill the fanout loop.
func (l *Listener) Dispatch(payload []byte) {
	var ev models.CounterEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		slog.Warn("broadcaster dropped malformed event", "error", err)
		return
	}

	var update models.UpdateMessage
	switch ev.Type {
	case models.EventVote:
		update = models.UpdateMessage{
			Event:     models.UpdateVote,
			PollID:    ev.PollID,
			OptionID:  ev.OptionID,
			VoteCount: ev.VoteCount,
			UserID:    ev.UserID,
		}
	case models.EventLike:
		update = models.UpdateMessage{
			Event:     models.UpdateLike,
			PollID:    ev.PollID,
			LikeCount: ev.LikeCount,
			UserID:    ev.UserID,
		}
	default:
		slog.Warn("broadcaster dropped event with unknown type", "type", ev.Type)
		return
	}

	out, err := json.Marshal(update)
	if err != nil {
		slog.Warn("broadcaster failed to marshal update", "error", err)
		return
	}

	l.hub.Broadcast <- hub.RoomMessage{PollID: ev.PollID, Payload: out}
}
