// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 8001)
  - DatabaseURL: PostgreSQL connection string (required)
  - RedisURL: Redis connection string (default: redis://localhost:6379)
  - JWTSecret: HMAC secret for verifying identity tokens (required)

# CLI Flags

	-p           Server port
	-d           Database URL
	-r           Redis URL
	--jwt-secret JWT signing secret

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p
	DATABASE_URL   → -d
	REDIS_URL      → -r
	JWT_SECRET_KEY → --jwt-secret

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - JWT_SECRET_KEY must be provided

# Example

	// In main.go
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	// ...
	mux := router.NewRouter(deps)
*/
package cliparse
