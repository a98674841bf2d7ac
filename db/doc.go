// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

The schema includes:

  - poll: Question, creator, creation time
  - option: Options per poll
  - vote: One vote per user per poll
  - poll_like: One like per user per poll

# Relationships

	poll 1──* option
	poll 1──* vote
	option 1──* vote
	poll 1──* poll_like

All foreign keys use ON DELETE CASCADE.

# Uniqueness

The correctness of the whole counting subsystem hangs on two constraints:

	vote:      UNIQUE (poll_id, user_id)
	poll_like: UNIQUE (poll_id, user_id)

Concurrent duplicate writes race at the database, not in application code:
exactly one insert wins and the rest fail with unique_violation (23505),
which the ledger package converts into a typed duplicate error.
*/
package db
