// Package backends holds the two answer sources of a turn: the live remote
// agent and the deterministic keyword fallback.
package backends

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
)

// ApologyText is the user-safe reply for a turn that failed remotely.
const ApologyText = "I apologize, but I encountered an error processing your request. Please try again."

// Backend answers one turn. Respond never fails: remote faults come back as a
// reply tagged model.BackendError.
type Backend interface {
	Name() model.BackendTag
	Respond(ctx context.Context, turn model.Turn) model.Reply
}

// Streamer is implemented by backends with an incremental output channel.
// The returned reader yields text deltas in order and ends with io.EOF or
// the error that interrupted the answer.
//
// The producer behind the reader must honor ctx: once ctx is done it has to
// stop and close its writer. Closing the reader does not unblock a pending
// Recv, so a producer that ignores ctx leaks the consumer's receive goroutine.
type Streamer interface {
	RespondStream(ctx context.Context, turn model.Turn) (*schema.StreamReader[string], error)
}

// ErrorReply is the reply used when a live turn fails.
func ErrorReply() model.Reply {
	return model.Reply{Text: ApologyText, Backend: model.BackendError, Suggestions: []string{}}
}
