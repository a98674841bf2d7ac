// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, domain, and event types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreatePollRequest: question, options
  - VoteRequest: option_id

# Response Types

Types for JSON responses:

  - CreatePollResponse: poll_id
  - VoteResponse: vote_id, option_id, new_count
  - LikeResponse: like_id, new_count
  - ErrorResponse: error, message

# Domain Types

Internal data structures:

  - Poll: question, creator, creation time
  - Option: poll option text
  - Vote: one per (user, poll), ever
  - Like: one per (user, poll), ever

# View Types

The read aggregator merges cached counts and per-user ledger state:

  - PollView: poll, options with counts, like count, my_vote, liked
  - OptionView: option with its current vote count

# Event Types

CounterEvent travels over the poll-events pub/sub channel with a Type
discriminator ("vote" or "like"). UpdateMessage is the websocket payload
delivered to a poll topic's subscribers as "vote-update" or "like-update".
*/
package models
