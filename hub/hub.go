// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package hub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
)

// RoomMessage is a payload addressed to every subscriber of one poll topic.
type RoomMessage struct {
	PollID  string
	Payload []byte
}

// Client is one live websocket subscriber of a poll topic.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	PollID string
}

// Hub fans messages out to the live subscribers of each poll. Clients that
// connect after a message was dispatched never receive it; there is no
// backlog or replay.
type Hub struct {
	rooms map[string]map[*Client]bool

	Broadcast  chan RoomMessage
	Register   chan *Client
	Unregister chan *Client

	mu sync.Mutex
}

func New() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan RoomMessage, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run owns the room map. One Run goroutine per process; it exits when ctx is
// cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.Register:
			h.mu.Lock()
			if h.rooms[client.PollID] == nil {
				h.rooms[client.PollID] = make(map[*Client]bool)
			}
			h.rooms[client.PollID][client] = true
			n := len(h.rooms[client.PollID])
			h.mu.Unlock()
			slog.Info("client subscribed", "poll_id", client.PollID, "room_size", n)

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.rooms[client.PollID][client]; ok {
				delete(h.rooms[client.PollID], client)
				close(client.Send)
				if len(h.rooms[client.PollID]) == 0 {
					delete(h.rooms, client.PollID)
				}
			}
			h.mu.Unlock()
			slog.Info("client unsubscribed", "poll_id", client.PollID)

		case msg := <-h.Broadcast:
			h.mu.Lock()
			for client := range h.rooms[msg.PollID] {
				select {
				case client.Send <- msg.Payload:
				default:
					// Slow client: drop it rather than stall the loop
					close(client.Send)
					delete(h.rooms[msg.PollID], client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// RoomSize reports the current number of subscribers for a poll.
func (h *Hub) RoomSize(pollID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[pollID])
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for pollID, room := range h.rooms {
		for client := range room {
			close(client.Send)
		}
		delete(h.rooms, pollID)
	}
}

// ReadPump drains the connection to process control frames and detect
// disconnects. Subscribers never send application data.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read error", "poll_id", c.PollID, "error", err)
			}
			break
		}
	}
}

// WritePump pushes hub messages to the subscriber and keeps the connection
// alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
