// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/livepoll/broadcast"
	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/counter"
	"github.com/danielhkuo/livepoll/db"
	"github.com/danielhkuo/livepoll/hub"
	"github.com/danielhkuo/livepoll/ledger"
	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/router"
)

func main() {
	var err error

	if err := godotenv.Load(); err != nil {
		slog.Info(".env not loaded, using process environment")
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect to PostgreSQL
	dbConn, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Verify connection
	if err := dbConn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready")

	// Connect to Redis (counter cache + event channel)
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid redis URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("redis ping failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Redis ready")

	// Fanout hub and the broadcaster singleton: one of each per process,
	// started here and torn down via ctx on shutdown
	fanout := hub.New()
	go fanout.Run(ctx)

	listener := broadcast.NewListener(rdb, fanout)
	go func() {
		if err := listener.Run(ctx); err != nil {
			slog.Error("broadcaster stopped", "error", err)
		}
	}()

	// Create router
	mux := router.NewRouter(router.Deps{
		DB:    dbConn,
		Redis: rdb,
		Store: ledger.NewStore(dbConn),
		Cache: counter.NewCache(rdb),
		Pub:   broadcast.NewPublisher(rdb),
		Hub:   fanout,
		Cfg:   cfg,
	})

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		cancel()
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
