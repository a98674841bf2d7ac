// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/livepoll/broadcast"
	"github.com/danielhkuo/livepoll/counter"
	"github.com/danielhkuo/livepoll/ledger"
	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/models"
)

type VotingHandler struct {
	db    *sql.DB
	store *ledger.Store
	cache *counter.Cache
	pub   *broadcast.Publisher
}

func NewVotingHandler(db *sql.DB, store *ledger.Store, cache *counter.Cache, pub *broadcast.Publisher) *VotingHandler {
	return &VotingHandler{db: db, store: store, cache: cache, pub: pub}
}

// Vote handles POST /api/polls/{id}/vote
//
// Write path: ledger commit first, counter increment second, event publish
// last. A duplicate never reaches the counter, and a failure after the
// commit can only lose a live update, never a recorded vote.
func (h *VotingHandler) Vote(w http.ResponseWriter, r *http.Request) {
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

	var req models.VoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.OptionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "option_id is required")
		return
	}

	if !h.pollExists(w, r, pollID) {
		return
	}

	vote, err := h.store.RecordVote(r.Context(), pollID, req.OptionID, claims.UserID())
	if errors.Is(err, ledger.ErrDuplicateContribution) {
		middleware.ErrorResponse(w, http.StatusConflict, "User has already voted on this poll")
		return
	}
	if errors.Is(err, ledger.ErrConstraintViolation) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Option does not belong to this poll")
		return
	}
	if err != nil {
		slog.Error("failed to record vote", "poll_id", pollID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// The vote is durable from here on: nothing below may fail the request.
	newCount, err := h.cache.Increment(r.Context(), counter.OptionKey(pollID, req.OptionID))
	if err != nil {
		// Undercount until the next cache rebuild
		slog.Error("failed to increment vote counter", "poll_id", pollID, "option_id", req.OptionID, "error", err)
	} else {
		h.publish(r, models.CounterEvent{
			Type:      models.EventVote,
			PollID:    pollID,
			OptionID:  req.OptionID,
			VoteCount: newCount,
			UserID:    claims.UserID(),
		})
	}

	slog.Info("vote recorded", "poll_id", pollID, "option_id", req.OptionID, "user_id", claims.UserID())

	middleware.JSONResponse(w, http.StatusCreated, models.VoteResponse{
		VoteID:   vote.ID,
		OptionID: vote.OptionID,
		NewCount: newCount,
	})
}

// Like handles POST /api/polls/{id}/like
func (h *VotingHandler) Like(w http.ResponseWriter, r *http.Request) {
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

	if !h.pollExists(w, r, pollID) {
		return
	}

	like, err := h.store.RecordLike(r.Context(), pollID, claims.UserID())
	if errors.Is(err, ledger.ErrDuplicateContribution) {
		middleware.ErrorResponse(w, http.StatusConflict, "User has already liked this poll")
		return
	}
	if errors.Is(err, ledger.ErrConstraintViolation) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to record like", "poll_id", pollID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	newCount, err := h.cache.Increment(r.Context(), counter.LikeKey(pollID))
	if err != nil {
		slog.Error("failed to increment like counter", "poll_id", pollID, "error", err)
	} else {
		h.publish(r, models.CounterEvent{
			Type:      models.EventLike,
			PollID:    pollID,
			LikeCount: newCount,
			UserID:    claims.UserID(),
		})
	}

	slog.Info("like recorded", "poll_id", pollID, "user_id", claims.UserID())

	middleware.JSONResponse(w, http.StatusCreated, models.LikeResponse{
		LikeID:   like.ID,
		NewCount: newCount,
	})
}

func (h *VotingHandler) pollExists(w http.ResponseWriter, r *http.Request, pollID string) bool {
	var exists bool
	err := h.db.QueryRowContext(r.Context(), `
		SELECT EXISTS(SELECT 1 FROM poll WHERE id = $1)
	`, pollID).Scan(&exists)

	if err != nil {
		slog.Error("failed to query poll", "poll_id", pollID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return false
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return false
	}
	return true
}

// publish emits the counter event, best-effort. The write already committed;
// a lost event only means subscribers miss one live update.
func (h *VotingHandler) publish(r *http.Request, ev models.CounterEvent) {
	if err := h.pub.Publish(r.Context(), ev); err != nil {
		slog.Warn("failed to publish counter event", "poll_id", ev.PollID, "type", ev.Type, "error", err)
	}
}
