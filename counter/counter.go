// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package counter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Cache mirrors aggregate counts in Redis. It is derived state: every value
// must be recomputable from the ledger, and a missing key reads as zero.
type Cache struct {
	rdb *redis.Client
}

func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// LikeKey is the counter key for a poll's like total.
func LikeKey(pollID string) string {
	return "poll:" + pollID + ":likes"
}

// OptionKey is the counter key for one option's vote total.
func OptionKey(pollID, optionID string) string {
	return "poll:" + pollID + ":option:" + optionID
}

// Count is one MultiGet result. Present is false when the key was absent;
// Value is zero in that case.
type Count struct {
	Value   int64
	Present bool
}

// Increment atomically bumps a key and returns the new value. Callers invoke
// this exactly once per successful ledger write, strictly after the write
// commits, so the cache can undercount across a crash but never overcount.
func (c *Cache) Increment(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("counter increment failed: %w", err)
	}
	return n, nil
}

// MultiGet fetches many counters in one round trip. The result has the same
// length and order as keys; absent keys yield Present=false rather than
// shifting later values.
func (c *Cache) MultiGet(ctx context.Context, keys []string) ([]Count, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("counter multi-get failed: %w", err)
	}

	counts := make([]Count, len(keys))
	for i, v := range vals {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("counter %q has unexpected type %T", keys[i], v)
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("counter %q is not an integer: %w", keys[i], err)
		}
		counts[i] = Count{Value: n, Present: true}
	}

	return counts, nil
}

// Rebuild overwrites counters with authoritative values, pipelined into one
// round trip. Idempotent: repeated rebuilds from the same recount converge.
func (c *Cache) Rebuild(ctx context.Context, values map[string]int64) error {
	if len(values) == 0 {
		return nil
	}

	pipe := c.rdb.TxPipeline()
	for key, n := range values {
		pipe.Set(ctx, key, strconv.FormatInt(n, 10), 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("counter rebuild failed: %w", err)
	}
	return nil
}
