// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/livepoll/counter"
	"github.com/danielhkuo/livepoll/testutil"
)

// Racing identical vote requests: the ledger constraint decides the winner,
// so exactly one request succeeds and the counter moves exactly once.
func TestConcurrentIdenticalVotes(t *testing.T) {
	f := setupVoting(t)

	pollID := testutil.CreateTestPoll(t, f.db, "creator")
	optA := testutil.AddTestOption(t, f.db, pollID, "A")

	const racers = 10

	var wg sync.WaitGroup
	var created, conflicted atomic.Int32

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := f.doVote(t, pollID, optA, "racer")
			switch w.Code {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusConflict:
				conflicted.Add(1)
			default:
				t.Errorf("Unexpected status %d: %s", w.Code, w.Body.String())
			}
		}()
	}
	wg.Wait()

	if created.Load() != 1 {
		t.Errorf("Successes = %d, want exactly 1", created.Load())
	}
	if conflicted.Load() != racers-1 {
		t.Errorf("Conflicts = %d, want %d", conflicted.Load(), racers-1)
	}

	var ledgerVotes int
	if err := f.db.QueryRow("SELECT COUNT(*) FROM vote WHERE poll_id = $1", pollID).Scan(&ledgerVotes); err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	if ledgerVotes != 1 {
		t.Errorf("Ledger votes = %d, want 1", ledgerVotes)
	}
	if n := f.counterValue(t, counter.OptionKey(pollID, optA)); n != 1 {
		t.Errorf("Counter = %d, want 1", n)
	}
}

// Distinct users racing on likes: all succeed, and the counter lands on
// exactly the number of users.
func TestConcurrentLikesDistinctUsers(t *testing.T) {
	f := setupVoting(t)

	pollID := testutil.CreateTestPoll(t, f.db, "creator")

	const users = 10

	var wg sync.WaitGroup
	var created atomic.Int32

	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			w := f.doLike(t, pollID, fmt.Sprintf("user-%d", n))
			if w.Code == http.StatusCreated {
				created.Add(1)
			} else {
				t.Errorf("Unexpected status %d: %s", w.Code, w.Body.String())
			}
		}(i)
	}
	wg.Wait()

	if created.Load() != users {
		t.Errorf("Successes = %d, want %d", created.Load(), users)
	}

	var ledgerLikes int
	if err := f.db.QueryRow("SELECT COUNT(*) FROM poll_like WHERE poll_id = $1", pollID).Scan(&ledgerLikes); err != nil {
		t.Fatalf("Failed to count likes: %v", err)
	}
	if ledgerLikes != users {
		t.Errorf("Ledger likes = %d, want %d", ledgerLikes, users)
	}
	if n := f.counterValue(t, counter.LikeKey(pollID)); n != users {
		t.Errorf("Counter = %d, want %d", n, users)
	}
}
