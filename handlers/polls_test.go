// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/livepoll/counter"
	"github.com/danielhkuo/livepoll/ledger"
	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/testutil"
)

type pollFixture struct {
	db      *sql.DB
	cache   *counter.Cache
	create  http.HandlerFunc
	get     http.HandlerFunc
	list    http.HandlerFunc
	myPolls http.HandlerFunc
}

func setupPolls(t *testing.T) pollFixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { db.Close() })
	rdb := testutil.SetupTestRedis(t)

	cache := counter.NewCache(rdb)
	agg := NewAggregator(db, ledger.NewStore(db), cache)
	handler := NewPollHandler(db, agg)

	return pollFixture{
		db:      db,
		cache:   cache,
		create:  middleware.WithAuth(testutil.TestJWTSecret, handler.CreatePoll),
		get:     middleware.WithAuth(testutil.TestJWTSecret, handler.GetPoll),
		list:    middleware.WithAuth(testutil.TestJWTSecret, handler.ListPolls),
		myPolls: middleware.WithAuth(testutil.TestJWTSecret, handler.GetMyPolls),
	}
}

func (f pollFixture) getView(t *testing.T, pollID, userID string) (models.PollView, *httptest.ResponseRecorder) {
	t.Helper()
	req := testutil.MakeRequest("GET", "/api/polls/"+pollID, nil, testutil.AuthHeaders(t, userID))
	req.SetPathValue("id", pollID)
	w := httptest.NewRecorder()
	f.get(w, req)

	var view models.PollView
	if w.Code == http.StatusOK {
		testutil.AssertJSON(t, w, &view)
	}
	return view, w
}

func TestCreatePoll(t *testing.T) {
	f := setupPolls(t)

	req := testutil.MakeRequest("POST", "/api/polls", models.CreatePollRequest{
		Question: "Tabs or spaces?",
		Options:  []string{"Tabs", "Spaces", "Both"},
	}, testutil.AuthHeaders(t, "alice"))
	w := httptest.NewRecorder()
	f.create(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.CreatePollResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.PollID == "" {
		t.Fatal("Response missing poll_id")
	}

	var question, email string
	err := f.db.QueryRow("SELECT question, email FROM poll WHERE id = $1", resp.PollID).Scan(&question, &email)
	if err != nil {
		t.Fatalf("Poll not stored: %v", err)
	}
	if question != "Tabs or spaces?" {
		t.Errorf("Stored question = %q", question)
	}
	if email != "alice@example.com" {
		t.Errorf("Stored email = %q", email)
	}

	var optionCount int
	if err := f.db.QueryRow("SELECT COUNT(*) FROM option WHERE poll_id = $1", resp.PollID).Scan(&optionCount); err != nil {
		t.Fatalf("Failed to count options: %v", err)
	}
	if optionCount != 3 {
		t.Errorf("Stored options = %d, want 3", optionCount)
	}
}

func TestCreatePollValidation(t *testing.T) {
	f := setupPolls(t)

	cases := []struct {
		name string
		body models.CreatePollRequest
	}{
		{"missing question", models.CreatePollRequest{Options: []string{"A", "B"}}},
		{"one option", models.CreatePollRequest{Question: "Q?", Options: []string{"A"}}},
		{"no options", models.CreatePollRequest{Question: "Q?"}},
		{"empty option text", models.CreatePollRequest{Question: "Q?", Options: []string{"A", ""}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/api/polls", tc.body, testutil.AuthHeaders(t, "alice"))
			w := httptest.NewRecorder()
			f.create(w, req)
			testutil.AssertStatus(t, w, http.StatusBadRequest)
		})
	}

	var pollCount int
	if err := f.db.QueryRow("SELECT COUNT(*) FROM poll").Scan(&pollCount); err != nil {
		t.Fatalf("Failed to count polls: %v", err)
	}
	if pollCount != 0 {
		t.Errorf("Rejected requests created %d polls", pollCount)
	}
}

func TestGetPollView(t *testing.T) {
	f := setupPolls(t)

	pollID := testutil.CreateTestPoll(t, f.db, "creator")
	optA := testutil.AddTestOption(t, f.db, pollID, "A")
	optB := testutil.AddTestOption(t, f.db, pollID, "B")

	ctx := context.Background()
	testutil.AddTestVote(t, f.db, pollID, optA, "u1")
	if _, err := f.cache.Increment(ctx, counter.OptionKey(pollID, optA)); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	testutil.AddTestLike(t, f.db, pollID, "u1")
	if _, err := f.cache.Increment(ctx, counter.LikeKey(pollID)); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}

	view, w := f.getView(t, pollID, "u1")
	testutil.AssertStatus(t, w, http.StatusOK)

	if view.Poll.ID != pollID {
		t.Errorf("Poll ID = %q", view.Poll.ID)
	}
	if view.LikeCount != 1 {
		t.Errorf("LikeCount = %d, want 1", view.LikeCount)
	}
	if len(view.Options) != 2 {
		t.Fatalf("Options = %d, want 2", len(view.Options))
	}

	// Counts line up with their options regardless of which key was absent
	countByID := map[string]int64{}
	for _, opt := range view.Options {
		countByID[opt.ID] = opt.VoteCount
	}
	if countByID[optA] != 1 || countByID[optB] != 0 {
		t.Errorf("Option counts = %v", countByID)
	}

	if view.MyVote == nil || *view.MyVote != optA {
		t.Errorf("MyVote = %v, want %q", view.MyVote, optA)
	}
	if !view.Liked {
		t.Error("Liked = false, want true")
	}

	// A user with no contributions sees neutral state
	view, w = f.getView(t, pollID, "u2")
	testutil.AssertStatus(t, w, http.StatusOK)
	if view.MyVote != nil || view.Liked {
		t.Errorf("Expected neutral state, got MyVote=%v Liked=%v", view.MyVote, view.Liked)
	}
}

func TestGetPollNotFound(t *testing.T) {
	f := setupPolls(t)

	_, w := f.getView(t, "no-such-poll", "u1")
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

// The creator's email is visible only to the creator.
func TestGetPollRedactsEmail(t *testing.T) {
	f := setupPolls(t)

	pollID := testutil.CreateTestPoll(t, f.db, "creator")
	testutil.AddTestOption(t, f.db, pollID, "A")
	testutil.AddTestOption(t, f.db, pollID, "B")

	view, w := f.getView(t, pollID, "creator")
	testutil.AssertStatus(t, w, http.StatusOK)
	if view.Poll.Email != "creator@example.com" {
		t.Errorf("Creator sees email %q", view.Poll.Email)
	}

	view, w = f.getView(t, pollID, "stranger")
	testutil.AssertStatus(t, w, http.StatusOK)
	if view.Poll.Email != "" {
		t.Errorf("Stranger sees email %q", view.Poll.Email)
	}
}

// Cold cache with a non-empty ledger: the view is served from an
// authoritative recount and the cache is repopulated.
func TestGetPollRebuildsLostCounters(t *testing.T) {
	f := setupPolls(t)

	pollID := testutil.CreateTestPoll(t, f.db, "creator")
	optA := testutil.AddTestOption(t, f.db, pollID, "A")
	optB := testutil.AddTestOption(t, f.db, pollID, "B")

	// Ledger has history; the cache (flushed by setup) has nothing
	testutil.AddTestVote(t, f.db, pollID, optA, "u1")
	testutil.AddTestVote(t, f.db, pollID, optA, "u2")
	testutil.AddTestVote(t, f.db, pollID, optB, "u3")
	testutil.AddTestLike(t, f.db, pollID, "u1")
	testutil.AddTestLike(t, f.db, pollID, "u2")

	view, w := f.getView(t, pollID, "u1")
	testutil.AssertStatus(t, w, http.StatusOK)

	countByID := map[string]int64{}
	for _, opt := range view.Options {
		countByID[opt.ID] = opt.VoteCount
	}
	if countByID[optA] != 2 || countByID[optB] != 1 {
		t.Errorf("Rebuilt option counts = %v", countByID)
	}
	if view.LikeCount != 2 {
		t.Errorf("Rebuilt like count = %d, want 2", view.LikeCount)
	}

	// The cache now holds the rebuilt values
	counts, err := f.cache.MultiGet(context.Background(), []string{
		counter.LikeKey(pollID),
		counter.OptionKey(pollID, optA),
		counter.OptionKey(pollID, optB),
	})
	if err != nil {
		t.Fatalf("MultiGet failed: %v", err)
	}
	for i, want := range []int64{2, 2, 1} {
		if !counts[i].Present || counts[i].Value != want {
			t.Errorf("Cache key %d = %+v, want %d", i, counts[i], want)
		}
	}
}

func TestListPolls(t *testing.T) {
	f := setupPolls(t)

	p1 := testutil.CreateTestPoll(t, f.db, "alice")
	testutil.AddTestOption(t, f.db, p1, "A")
	testutil.AddTestOption(t, f.db, p1, "B")
	p2 := testutil.CreateTestPoll(t, f.db, "bob")
	testutil.AddTestOption(t, f.db, p2, "X")

	testutil.AddTestLike(t, f.db, p2, "alice")
	if _, err := f.cache.Increment(context.Background(), counter.LikeKey(p2)); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}

	req := testutil.MakeRequest("GET", "/api/polls", nil, testutil.AuthHeaders(t, "alice"))
	w := httptest.NewRecorder()
	f.list(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var views []models.PollView
	testutil.AssertJSON(t, w, &views)
	if len(views) != 2 {
		t.Fatalf("Got %d polls, want 2", len(views))
	}

	byID := map[string]models.PollView{}
	for _, v := range views {
		byID[v.Poll.ID] = v
	}

	if byID[p1].LikeCount != 0 || byID[p2].LikeCount != 1 {
		t.Errorf("Like counts = %d, %d", byID[p1].LikeCount, byID[p2].LikeCount)
	}
	if len(byID[p1].Options) != 2 || len(byID[p2].Options) != 1 {
		t.Errorf("Option counts = %d, %d", len(byID[p1].Options), len(byID[p2].Options))
	}
	if !byID[p2].Liked {
		t.Error("Requester's like not reflected in list")
	}

	// Alice owns p1 and sees her email there; bob's is redacted
	if byID[p1].Poll.Email != "alice@example.com" {
		t.Errorf("Own email = %q", byID[p1].Poll.Email)
	}
	if byID[p2].Poll.Email != "" {
		t.Errorf("Foreign email = %q", byID[p2].Poll.Email)
	}
}

func TestGetMyPolls(t *testing.T) {
	f := setupPolls(t)

	mine := testutil.CreateTestPoll(t, f.db, "alice")
	testutil.AddTestOption(t, f.db, mine, "A")
	testutil.AddTestOption(t, f.db, mine, "B")
	testutil.CreateTestPoll(t, f.db, "bob")

	req := testutil.MakeRequest("GET", "/api/me/polls", nil, testutil.AuthHeaders(t, "alice"))
	w := httptest.NewRecorder()
	f.myPolls(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var views []models.PollView
	testutil.AssertJSON(t, w, &views)
	if len(views) != 1 {
		t.Fatalf("Got %d polls, want 1", len(views))
	}
	if views[0].Poll.ID != mine {
		t.Errorf("Got poll %q, want %q", views[0].Poll.ID, mine)
	}
	if views[0].Poll.Email != "alice@example.com" {
		t.Errorf("Own poll email = %q", views[0].Poll.Email)
	}
}
