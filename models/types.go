// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Counter event type discriminators
const (
	EventVote = "vote"
	EventLike = "like"
)

// Live update message kinds pushed to websocket subscribers
const (
	UpdateVote = "vote-update"
	UpdateLike = "like-update"
)

// Request types

type CreatePollRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type VoteRequest struct {
	OptionID string `json:"option_id"`
}

// Response types

type CreatePollResponse struct {
	PollID string `json:"poll_id"`
}

type VoteResponse struct {
	VoteID   string `json:"vote_id"`
	OptionID string `json:"option_id"`
	NewCount int64  `json:"new_count"`
}

type LikeResponse struct {
	LikeID   string `json:"like_id"`
	NewCount int64  `json:"new_count"`
}

// Domain types

type Poll struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"` // only populated when the requester owns the poll
	CreatedAt time.Time `json:"created_at"`
}

type Option struct {
	ID     string `json:"id"`
	PollID string `json:"poll_id"`
	Text   string `json:"text"`
}

type Vote struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	OptionID  string    `json:"option_id"`
	PollID    string    `json:"poll_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Like struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	PollID string `json:"poll_id"`
}

// View types (read aggregator output)

type OptionView struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	VoteCount int64  `json:"vote_count"`
}

type PollView struct {
	Poll      Poll         `json:"poll"`
	Options   []OptionView `json:"options"`
	LikeCount int64        `json:"like_count"`
	MyVote    *string      `json:"my_vote,omitempty"` // option ID the requester voted for
	Liked     bool         `json:"liked"`
}

// CounterEvent is the payload published on the poll-events channel after a
// successful ledger write and counter increment. Type decides which update
// message subscribers receive.
type CounterEvent struct {
	Type      string `json:"type"`
	PollID    string `json:"poll_id"`
	OptionID  string `json:"option_id,omitempty"`
	VoteCount int64  `json:"vote_count,omitempty"`
	LikeCount int64  `json:"like_count,omitempty"`
	UserID    string `json:"user_id"`
}

// UpdateMessage is the shape delivered to live subscribers of a poll topic.
// Vote updates carry OptionID and VoteCount, like updates carry LikeCount.
type UpdateMessage struct {
	Event     string `json:"event"`
	PollID    string `json:"poll_id"`
	OptionID  string `json:"option_id,omitempty"`
	VoteCount int64  `json:"vote_count,omitempty"`
	LikeCount int64  `json:"like_count,omitempty"`
	UserID    string `json:"user_id"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
