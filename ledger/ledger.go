// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/danielhkuo/livepoll/models"
)

var (
	// ErrDuplicateContribution means the user already voted on / liked the poll.
	// A client condition, not a server failure.
	ErrDuplicateContribution = errors.New("user has already contributed to this poll")

	// ErrConstraintViolation means a reference was malformed, e.g. the option
	// does not belong to the poll.
	ErrConstraintViolation = errors.New("invalid reference")

	// ErrNotFound means the poll or option does not exist.
	ErrNotFound = errors.New("not found")
)

// Postgres error codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Store is the durable ledger of votes and likes. It is the single source of
// truth for who contributed what; the counter cache is derived from it.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Counts is an authoritative recount of a poll's contributions, keyed by
// option ID plus the like total. Used to rebuild the counter cache.
type Counts struct {
	Options map[string]int64
	Likes   int64
}

// RecordVote appends a vote for (userID, pollID). The insert carries a guard
// so the option must belong to the poll, and the UNIQUE (poll_id, user_id)
// constraint rejects a second vote from the same user regardless of request
// interleaving. There is deliberately no read-before-write here.
func (s *Store) RecordVote(ctx context.Context, pollID, optionID, userID string) (models.Vote, error) {
	vote := models.Vote{
		ID:        uuid.NewString(),
		UserID:    userID,
		OptionID:  optionID,
		PollID:    pollID,
		CreatedAt: time.Now().UTC(),
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO vote (id, poll_id, option_id, user_id, created_at)
		SELECT $1, $2, $3, $4, $5
		WHERE EXISTS (SELECT 1 FROM option WHERE id = $3 AND poll_id = $2)
	`, vote.ID, pollID, optionID, userID, vote.CreatedAt)

	if err != nil {
		return models.Vote{}, translatePQ(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to read insert result: %w", err)
	}
	if n == 0 {
		// Guard failed: option missing or owned by another poll
		return models.Vote{}, ErrConstraintViolation
	}

	return vote, nil
}

// RecordLike appends a like for (userID, pollID), rejected as a duplicate by
// the storage-level UNIQUE constraint if one already exists.
func (s *Store) RecordLike(ctx context.Context, pollID, userID string) (models.Like, error) {
	like := models.Like{
		ID:     uuid.NewString(),
		UserID: userID,
		PollID: pollID,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO poll_like (id, poll_id, user_id)
		VALUES ($1, $2, $3)
	`, like.ID, pollID, userID)

	if err != nil {
		return models.Like{}, translatePQ(err)
	}

	return like, nil
}

// VotedOption reports which option the user voted for on the poll, if any.
func (s *Store) VotedOption(ctx context.Context, pollID, userID string) (string, bool, error) {
	var optionID string
	err := s.db.QueryRowContext(ctx, `
		SELECT option_id FROM vote WHERE poll_id = $1 AND user_id = $2
	`, pollID, userID).Scan(&optionID)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query vote: %w", err)
	}
	return optionID, true, nil
}

// HasLiked reports whether the user already liked the poll.
func (s *Store) HasLiked(ctx context.Context, pollID, userID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM poll_like WHERE poll_id = $1 AND user_id = $2)
	`, pollID, userID).Scan(&exists)

	if err != nil {
		return false, fmt.Errorf("failed to query like: %w", err)
	}
	return exists, nil
}

// Counts recounts a poll's contributions directly from the ledger. This is
// the authoritative repair path for the counter cache.
func (s *Store) Counts(ctx context.Context, pollID string) (Counts, error) {
	counts := Counts{Options: make(map[string]int64)}

	rows, err := s.db.QueryContext(ctx, `
		SELECT option_id, COUNT(*) FROM vote WHERE poll_id = $1 GROUP BY option_id
	`, pollID)
	if err != nil {
		return Counts{}, fmt.Errorf("failed to count votes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var optionID string
		var n int64
		if err := rows.Scan(&optionID, &n); err != nil {
			return Counts{}, fmt.Errorf("failed to scan vote count: %w", err)
		}
		counts.Options[optionID] = n
	}
	if err := rows.Err(); err != nil {
		return Counts{}, fmt.Errorf("failed to iterate vote counts: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM poll_like WHERE poll_id = $1
	`, pollID).Scan(&counts.Likes)
	if err != nil {
		return Counts{}, fmt.Errorf("failed to count likes: %w", err)
	}

	return counts, nil
}

// HasContributions reports whether the ledger holds any vote or like for the
// poll. Used to decide whether a cold cache needs a rebuild.
func (s *Store) HasContributions(ctx context.Context, pollID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM vote WHERE poll_id = $1)
		    OR EXISTS(SELECT 1 FROM poll_like WHERE poll_id = $1)
	`, pollID).Scan(&exists)

	if err != nil {
		return false, fmt.Errorf("failed to query contributions: %w", err)
	}
	return exists, nil
}

// translatePQ converts Postgres constraint errors into the ledger's typed
// errors and leaves everything else (connection loss etc.) wrapped as an
// infrastructure failure for the caller to surface.
func translatePQ(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return ErrDuplicateContribution
		case pgForeignKeyViolation:
			return ErrConstraintViolation
		}
	}
	return fmt.Errorf("ledger write failed: %w", err)
}
