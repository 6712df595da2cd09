package model

import (
	"context"
	"time"
)

// BackendTag names the backend variant that produced a reply.
type BackendTag string

const (
	BackendLive     BackendTag = "live"
	BackendFallback BackendTag = "fallback"
	BackendError    BackendTag = "error"
)

// TurnRequest is the inbound body of the turn endpoint.
type TurnRequest struct {
	Message   string            `json:"message"`
	SessionID string            `json:"sessionId,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
}

// TurnResponse is the non-streaming reply of the turn endpoint.
type TurnResponse struct {
	Message     string     `json:"message"`
	SessionID   string     `json:"sessionId"`
	AgentType   BackendTag `json:"agentType"`
	Suggestions []string   `json:"suggestions"`
	Timestamp   time.Time  `json:"timestamp"`
}

// ThreadBinding carries the remote thread id of a session across turns.
type ThreadBinding interface {
	ThreadID() string
	BindThread(threadID string)
}

// Turn is what a backend sees of one request.
type Turn struct {
	SessionID string
	Message   string
	Context   map[string]string
	// History holds the session's earlier user messages, oldest first.
	History   []string
	Thread    ThreadBinding
}

// Reply is the structured outcome of a backend for one turn.
type Reply struct {
	Text        string
	Backend     BackendTag
	Suggestions []string
}

// MessageJournal stores the user messages of a session outside the process.
type MessageJournal interface {
	// Append adds a message to the end of the session's journal.
	Append(ctx context.Context, sessionID string, message string) error

	// Load returns the journaled messages of a session, oldest first.
	Load(ctx context.Context, sessionID string) ([]string, error)
}
