// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package broadcast relays counter-mutation events to live subscribers.

# Shape

Writers publish a models.CounterEvent on the Redis channel "poll-events"
after the ledger write and counter increment succeed:

	pub := broadcast.NewPublisher(rdb)
	pub.Publish(ctx, models.CounterEvent{Type: models.EventVote, ...})

One Listener per process subscribes at startup and loops on a dedicated
goroutine for the lifetime of the service:

	listener := broadcast.NewListener(rdb, h)
	go listener.Run(ctx)

Cancelling ctx unsubscribes and stops the loop.

# Dispatch

Events carry a type discriminator: "vote" becomes a vote-update room
message, "like" becomes like-update. Malformed or unknown payloads are
logged and skipped - a single bad message never terminates the loop.

# Guarantees

At-most-once, best-effort. Subscribers connected after an event was emitted
never receive it. Events for different polls may interleave arbitrarily, but
the single ordered subscription means same-key events are dispatched in
emission order.
*/
package broadcast
