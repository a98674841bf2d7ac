// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the LivePoll API server.

LivePoll is a live polling service: users create polls, cast one vote and one
like per poll, and watch aggregate counts change in real time over WebSocket.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=postgres://... JWT_SECRET_KEY=... go run main.go

Or with flags:

	go run main.go -p 8001 -d "postgres://..." -r "redis://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string
  - JWT_SECRET_KEY (--jwt-secret): Secret for verifying identity tokens

Optional settings:

  - PORT (-p): Server port (default: 8001)
  - REDIS_URL (-r): Redis connection string (default: redis://localhost:6379)

A .env file in the working directory is loaded if present.

# Architecture

The counting subsystem has three parts with a strict relationship:

  - ledger: durable record of who voted/liked what; uniqueness constraints
    make duplicate contributions impossible under any interleaving
  - counter: Redis mirror of aggregate counts; incremented only after a
    ledger commit, rebuildable from a ledger recount at any time
  - broadcast + hub: a singleton listener on the poll-events channel fans
    counter changes out to websocket subscribers, one room per poll

Around it, the usual layers:

  - handlers: HTTP request handlers (polls, voting, websocket)
  - router: Route definitions using Go 1.22+ routing
  - middleware: Auth, CORS, logging, JSON helpers
  - models: Request/response/domain/event types
  - auth: Identity token verification
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
