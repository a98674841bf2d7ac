// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/livepoll/ledger"
	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/models"
)

type PollHandler struct {
	db  *sql.DB
	agg *Aggregator
}

func NewPollHandler(db *sql.DB, agg *Aggregator) *PollHandler {
	return &PollHandler{db: db, agg: agg}
}

// CreatePoll handles POST /api/polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	if req.Question == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "question is required")
		return
	}
	if len(req.Options) < 2 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "at least 2 options are required")
		return
	}
	for _, text := range req.Options {
		if text == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, "option text cannot be empty")
			return
		}
	}

	pollID := uuid.NewString()

	// Poll and options are created atomically
	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO poll (id, question, user_id, email, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, pollID, req.Question, claims.UserID(), claims.Email, time.Now().UTC())

	if err != nil {
		slog.Error("failed to insert poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	for _, text := range req.Options {
		_, err = tx.Exec(`
			INSERT INTO option (id, poll_id, text)
			VALUES ($1, $2, $3)
		`, uuid.NewString(), pollID, text)

		if err != nil {
			slog.Error("failed to insert option", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	slog.Info("poll created", "poll_id", pollID, "user_id", claims.UserID())

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePollResponse{
		PollID: pollID,
	})
}

// GetPoll handles GET /api/polls/{id}
// Returns the aggregated view: metadata, per-option counts, like count, and
// the requester's own vote/like state.
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	view, err := h.agg.PollView(r.Context(), pollID, claims.UserID())
	if errors.Is(err, ledger.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to build poll view", "poll_id", pollID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	redactCreator(&view, claims.UserID())

	middleware.JSONResponse(w, http.StatusOK, view)
}

// ListPolls handles GET /api/polls
// All counts are resolved with a single bulk counter read across the union
// of every poll's keys.
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	polls, err := h.queryPolls(r, `
		SELECT id, question, user_id, email, created_at
		FROM poll
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		slog.Error("failed to query polls", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	views, err := h.agg.PollViews(r.Context(), polls, claims.UserID())
	if err != nil {
		slog.Error("failed to build poll views", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	for i := range views {
		redactCreator(&views[i], claims.UserID())
	}

	middleware.JSONResponse(w, http.StatusOK, views)
}

// GetMyPolls handles GET /api/me/polls
// Only the requester's own polls; creator email is always theirs to see.
func (h *PollHandler) GetMyPolls(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	polls, err := h.queryPolls(r, `
		SELECT id, question, user_id, email, created_at
		FROM poll
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`, claims.UserID())
	if err != nil {
		slog.Error("failed to query polls", "user_id", claims.UserID(), "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	views, err := h.agg.PollViews(r.Context(), polls, claims.UserID())
	if err != nil {
		slog.Error("failed to build poll views", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, views)
}

func (h *PollHandler) queryPolls(r *http.Request, query string, args ...interface{}) ([]models.Poll, error) {
	rows, err := h.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		var poll models.Poll
		if err := rows.Scan(&poll.ID, &poll.Question, &poll.UserID, &poll.Email, &poll.CreatedAt); err != nil {
			return nil, err
		}
		polls = append(polls, poll)
	}
	return polls, rows.Err()
}

// redactCreator hides the creator's email from everyone but the creator.
func redactCreator(view *models.PollView, requesterID string) {
	if view.Poll.UserID != requesterID {
		view.Poll.Email = ""
	}
}
