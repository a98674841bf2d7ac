// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package hub fans live update messages out to websocket subscribers, one room
per poll.

# Lifecycle

	h := hub.New()
	go h.Run(ctx)

Run is the only goroutine that mutates room membership. Clients arrive via
the Register channel (see handlers.ServeWS), leave via Unregister when their
read pump observes a disconnect, and messages enter via Broadcast:

	h.Broadcast <- hub.RoomMessage{PollID: pollID, Payload: payload}

# Delivery

Best-effort, at-most-once. A subscriber that cannot keep up with its Send
buffer is dropped instead of stalling the dispatch loop. Clients that connect
after a message was dispatched never see it - there is no replay.

# Pumps

Each client runs a WritePump (messages + keepalive pings with write
deadlines) and a ReadPump (control frames, disconnect detection, read
deadline refreshed on pong).
*/
package hub
