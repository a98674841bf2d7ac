// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/livepoll/broadcast"
	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/counter"
	"github.com/danielhkuo/livepoll/handlers"
	"github.com/danielhkuo/livepoll/hub"
	"github.com/danielhkuo/livepoll/ledger"
	"github.com/danielhkuo/livepoll/middleware"
)

// Deps carries the process-wide state injected into handlers. Everything
// here is initialized once at startup and safe for concurrent use.
type Deps struct {
	DB    *sql.DB
	Redis *redis.Client
	Store *ledger.Store
	Cache *counter.Cache
	Pub   *broadcast.Publisher
	Hub   *hub.Hub
	Cfg   cliparse.Config
}

func NewRouter(deps Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	agg := handlers.NewAggregator(deps.DB, deps.Store, deps.Cache)
	pollHandler := handlers.NewPollHandler(deps.DB, agg)
	votingHandler := handlers.NewVotingHandler(deps.DB, deps.Store, deps.Cache, deps.Pub)
	wsHandler := handlers.NewWSHandler(deps.DB, deps.Hub)

	secret := deps.Cfg.JWTSecret
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.WithAuth(secret, h))
	}

	// Health check: liveness plus dependency pings
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.DB.PingContext(r.Context()); err != nil {
			middleware.ErrorResponse(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
		if err := deps.Redis.Ping(r.Context()).Err(); err != nil {
			middleware.ErrorResponse(w, http.StatusServiceUnavailable, "redis unreachable")
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Poll management and aggregated reads
	mux.HandleFunc("POST /api/polls", authed(pollHandler.CreatePoll))
	mux.HandleFunc("GET /api/polls", authed(pollHandler.ListPolls))
	mux.HandleFunc("GET /api/polls/{id}", authed(pollHandler.GetPoll))
	mux.HandleFunc("GET /api/me/polls", authed(pollHandler.GetMyPolls))

	// Contributions
	mux.HandleFunc("POST /api/polls/{id}/vote", authed(votingHandler.Vote))
	mux.HandleFunc("POST /api/polls/{id}/like", authed(votingHandler.Like))

	// Live updates
	mux.HandleFunc("GET /ws/polls/{id}", middleware.WithAuth(secret, wsHandler.ServeWS))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("livepoll API v1"))
	})

	return mux
}
