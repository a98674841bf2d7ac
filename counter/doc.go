// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package counter is the fast, eventually-consistent mirror of aggregate counts.

# Keys

	poll:<pollID>:likes
	poll:<pollID>:option:<optionID>

Built with LikeKey and OptionKey.

# Contract

	cache := counter.NewCache(rdb)
	n, err := cache.Increment(ctx, counter.OptionKey(pollID, optionID))
	counts, err := cache.MultiGet(ctx, keys)
	err = cache.Rebuild(ctx, values)

Increment is Redis INCR: atomic, monotonic, commutative in total. Concurrent
increments never lose updates; intermediate reads may observe any prefix.

MultiGet is one MGET round trip and preserves input order exactly - the
caller zips results back onto its key list by index, so an absent key must
not shift subsequent values. Absent reads as zero: a cold cache is a valid,
repairable state, not an error.

# Ordering Rule

Increment runs only after the corresponding ledger write durably succeeded,
exactly once per successful write. A rejected duplicate never increments. The
only divergence window is a crash between ledger commit and increment, which
undercounts and is healed by Rebuild from an authoritative ledger recount.
*/
package counter
