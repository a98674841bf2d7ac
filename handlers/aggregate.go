// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/danielhkuo/livepoll/counter"
	"github.com/danielhkuo/livepoll/ledger"
	"github.com/danielhkuo/livepoll/models"
)

// Aggregator composes the ledger, the counter cache, and per-requester state
// into poll views. Counts come from the cache in one bulk read; the
// requester's own vote/like state comes from the ledger.
type Aggregator struct {
	db    *sql.DB
	store *ledger.Store
	cache *counter.Cache
}

func NewAggregator(db *sql.DB, store *ledger.Store, cache *counter.Cache) *Aggregator {
	return &Aggregator{db: db, store: store, cache: cache}
}

// PollView assembles the full view of one poll for a requesting user.
// Returns ledger.ErrNotFound when the poll does not exist.
func (a *Aggregator) PollView(ctx context.Context, pollID, userID string) (models.PollView, error) {
	poll, err := a.loadPoll(ctx, pollID)
	if err != nil {
		return models.PollView{}, err
	}

	options, err := a.loadOptions(ctx, []string{pollID})
	if err != nil {
		return models.PollView{}, err
	}

	// Key order is the contract: likes first, then options in load order.
	// Results are zipped back by index, so an absent key must not shift
	// anything.
	keys := make([]string, 0, len(options)+1)
	keys = append(keys, counter.LikeKey(pollID))
	for _, opt := range options {
		keys = append(keys, counter.OptionKey(pollID, opt.ID))
	}

	counts, err := a.cache.MultiGet(ctx, keys)
	if err != nil {
		return models.PollView{}, err
	}

	if allAbsent(counts) {
		counts, err = a.repairIfStale(ctx, pollID, options, counts)
		if err != nil {
			return models.PollView{}, err
		}
	}

	view := models.PollView{
		Poll:      poll,
		LikeCount: counts[0].Value,
		Options:   make([]models.OptionView, len(options)),
	}
	for i, opt := range options {
		view.Options[i] = models.OptionView{
			ID:        opt.ID,
			Text:      opt.Text,
			VoteCount: counts[i+1].Value,
		}
	}

	if err := a.attachUserState(ctx, &view, userID); err != nil {
		return models.PollView{}, err
	}

	return view, nil
}

// PollViews assembles views for many polls with a single bulk counter read
// across the union of all keys, rather than one round trip per poll.
func (a *Aggregator) PollViews(ctx context.Context, polls []models.Poll, userID string) ([]models.PollView, error) {
	if len(polls) == 0 {
		return []models.PollView{}, nil
	}

	pollIDs := make([]string, len(polls))
	for i, p := range polls {
		pollIDs[i] = p.ID
	}

	options, err := a.loadOptions(ctx, pollIDs)
	if err != nil {
		return nil, err
	}
	optionsByPoll := make(map[string][]models.Option)
	for _, opt := range options {
		optionsByPoll[opt.PollID] = append(optionsByPoll[opt.PollID], opt)
	}

	// Union of keys, per poll: like key then option keys. The zip below
	// walks the result in the exact same order.
	var keys []string
	for _, p := range polls {
		keys = append(keys, counter.LikeKey(p.ID))
		for _, opt := range optionsByPoll[p.ID] {
			keys = append(keys, counter.OptionKey(p.ID, opt.ID))
		}
	}

	counts, err := a.cache.MultiGet(ctx, keys)
	if err != nil {
		return nil, err
	}

	views := make([]models.PollView, len(polls))
	idx := 0
	for i, p := range polls {
		opts := optionsByPoll[p.ID]
		view := models.PollView{
			Poll:      p,
			LikeCount: counts[idx].Value,
			Options:   make([]models.OptionView, len(opts)),
		}
		idx++
		for j, opt := range opts {
			view.Options[j] = models.OptionView{
				ID:        opt.ID,
				Text:      opt.Text,
				VoteCount: counts[idx].Value,
			}
			idx++
		}

		if err := a.attachUserState(ctx, &view, userID); err != nil {
			return nil, err
		}
		views[i] = view
	}

	return views, nil
}

// repairIfStale handles the cold-cache case: every key absent while the
// ledger holds contributions means the cache was lost, so rebuild it from an
// authoritative recount and serve the recount directly. All-absent with an
// empty ledger is just a poll nobody has touched; zeros are correct.
func (a *Aggregator) repairIfStale(ctx context.Context, pollID string, options []models.Option, counts []counter.Count) ([]counter.Count, error) {
	dirty, err := a.store.HasContributions(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if !dirty {
		return counts, nil
	}

	authoritative, err := a.store.Counts(ctx, pollID)
	if err != nil {
		return nil, err
	}

	values := map[string]int64{counter.LikeKey(pollID): authoritative.Likes}
	for _, opt := range options {
		values[counter.OptionKey(pollID, opt.ID)] = authoritative.Options[opt.ID]
	}
	if err := a.cache.Rebuild(ctx, values); err != nil {
		// Serve the recount anyway; the next cold read retries the rebuild
		slog.Warn("counter rebuild failed", "poll_id", pollID, "error", err)
	} else {
		slog.Info("counter cache rebuilt", "poll_id", pollID)
	}

	repaired := make([]counter.Count, len(counts))
	repaired[0] = counter.Count{Value: authoritative.Likes, Present: true}
	for i, opt := range options {
		repaired[i+1] = counter.Count{Value: authoritative.Options[opt.ID], Present: true}
	}
	return repaired, nil
}

func (a *Aggregator) attachUserState(ctx context.Context, view *models.PollView, userID string) error {
	optionID, voted, err := a.store.VotedOption(ctx, view.Poll.ID, userID)
	if err != nil {
		return err
	}
	if voted {
		view.MyVote = &optionID
	}

	liked, err := a.store.HasLiked(ctx, view.Poll.ID, userID)
	if err != nil {
		return err
	}
	view.Liked = liked
	return nil
}

func (a *Aggregator) loadPoll(ctx context.Context, pollID string) (models.Poll, error) {
	var poll models.Poll
	err := a.db.QueryRowContext(ctx, `
		SELECT id, question, user_id, email, created_at
		FROM poll
		WHERE id = $1
	`, pollID).Scan(&poll.ID, &poll.Question, &poll.UserID, &poll.Email, &poll.CreatedAt)

	if err == sql.ErrNoRows {
		return models.Poll{}, ledger.ErrNotFound
	}
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to query poll: %w", err)
	}
	return poll, nil
}

func (a *Aggregator) loadOptions(ctx context.Context, pollIDs []string) ([]models.Option, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, poll_id, text
		FROM option
		WHERE poll_id = ANY($1)
		ORDER BY id
	`, pq.Array(pollIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	options := []models.Option{}
	for rows.Next() {
		var opt models.Option
		if err := rows.Scan(&opt.ID, &opt.PollID, &opt.Text); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

func allAbsent(counts []counter.Count) bool {
	for _, c := range counts {
		if c.Present {
			return false
		}
	}
	return len(counts) > 0
}
