// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the LivePoll API.

# Handler Types

Each handler is a struct with its dependencies injected via constructor:

  - PollHandler: poll creation and aggregated reads
  - VotingHandler: votes and likes (the write path)
  - WSHandler: websocket subscriptions to live poll topics

	pollHandler := handlers.NewPollHandler(db, agg)
	votingHandler := handlers.NewVotingHandler(db, store, cache, pub)

All /api handlers expect middleware.WithAuth to have stored verified claims
in the request context.

# Write Path

Vote and Like follow a strict order:

 1. ledger commit (duplicates rejected by the storage UNIQUE constraint, 409)
 2. counter increment (atomic, exactly once per successful commit)
 3. event publish (best-effort; subscribers get vote-update / like-update)

Once step 1 commits, the request succeeds regardless of later failures; an
increment failure leaves a bounded undercount that the aggregator's rebuild
path heals.

# Read Path

The Aggregator builds the counter key set (likes first, then options),
issues one MultiGet, and zips the results back by index so absent keys read
as zero without shifting later values. Listing endpoints union the keys of
every poll into a single round trip. It then merges the requesting user's
own vote/like state from the ledger.

A view whose keys are all absent while the ledger has contributions triggers
an inline rebuild from an authoritative recount.

# Authorization Decisions

The creator's email appears only in views requested by the creator; user IDs
are visible to everyone.
*/
package handlers
