// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger is the durable record of who contributed what.

# Contract

	store := ledger.NewStore(db)
	vote, err := store.RecordVote(ctx, pollID, optionID, userID)
	like, err := store.RecordLike(ctx, pollID, userID)
	optID, voted, err := store.VotedOption(ctx, pollID, userID)
	liked, err := store.HasLiked(ctx, pollID, userID)
	counts, err := store.Counts(ctx, pollID)

Votes and likes are append-only: never updated, never deleted.

# Duplicate Detection

At most one vote and one like per (user, poll), ever. The rule is enforced by
the UNIQUE (poll_id, user_id) constraints in the schema, not by checking
first and inserting after. Two concurrent identical requests race at the
database: exactly one insert succeeds, the other fails with unique_violation
and surfaces as ErrDuplicateContribution. No request ordering or in-process
locking is involved.

# Errors

  - ErrDuplicateContribution: user already voted/liked (client condition, 409)
  - ErrConstraintViolation: option not part of the poll, dangling reference
  - ErrNotFound: poll or option absent

Anything else is an infrastructure failure, wrapped and returned for the
caller to retry with backoff. A write must not be retried blindly once it may
have committed; the retry would correctly come back as a duplicate.

# Recount

Counts recomputes a poll's per-option and like totals straight from the
ledger rows. The counter cache is rebuilt from this whenever it goes cold or
diverges; the cache has no independent meaning.
*/
package ledger
