// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/livepoll/hub"
	"github.com/danielhkuo/livepoll/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Same policy as the CORS middleware: any origin
		return true
	},
}

type WSHandler struct {
	db  *sql.DB
	hub *hub.Hub
}

func NewWSHandler(db *sql.DB, h *hub.Hub) *WSHandler {
	return &WSHandler{db: db, hub: h}
}

// ServeWS handles GET /ws/polls/{id}
// Upgrades the connection and subscribes it to the poll's topic. The client
// only ever receives updates emitted after this point; there is no replay.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	var exists bool
	err := h.db.QueryRowContext(r.Context(), `
		SELECT EXISTS(SELECT 1 FROM poll WHERE id = $1)
	`, pollID).Scan(&exists)

	if err != nil {
		slog.Error("failed to query poll", "poll_id", pollID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an error response
		slog.Warn("websocket upgrade failed", "poll_id", pollID, "error", err)
		return
	}

	client := &hub.Client{
		Hub:    h.hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		PollID: pollID,
	}
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
