// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the LivePoll API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(deps)

Deps bundles the process-wide clients (Postgres pool, Redis client, ledger
store, counter cache, event publisher, websocket hub) so handlers receive
them by injection rather than as ambient globals.

# Endpoints

Health:

	GET /health - liveness, pings Postgres and Redis

Polls (require Bearer JWT):

	POST /api/polls      - Create poll with options
	GET  /api/polls      - All polls, aggregated counts
	GET  /api/polls/{id} - One poll, aggregated counts
	GET  /api/me/polls   - Requester's own polls

Contributions (require Bearer JWT):

	POST /api/polls/{id}/vote - Vote once per poll
	POST /api/polls/{id}/like - Like once per poll

Live updates:

	GET /ws/polls/{id} - WebSocket subscription (?token= accepted)

# Handler Initialization

The router creates handler instances with dependency injection:

	agg := handlers.NewAggregator(deps.DB, deps.Store, deps.Cache)
	pollHandler := handlers.NewPollHandler(deps.DB, agg)
	votingHandler := handlers.NewVotingHandler(deps.DB, deps.Store, deps.Cache, deps.Pub)
	wsHandler := handlers.NewWSHandler(deps.DB, deps.Hub)
*/
package router
