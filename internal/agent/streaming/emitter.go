// Package streaming turns backend output into the framed event protocol.
package streaming

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudwego/eino/schema"

	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
	errx "github.com/contoso-travel/chat-agent/server/internal/core/error"
	logx "github.com/contoso-travel/chat-agent/server/pkg/logger"
)

// ErrClosed is returned when frames are emitted after the terminal frame.
var ErrClosed = errors.New("stream already terminated")

// Sink receives frames in order. Implementations deliver each frame to the
// caller before returning.
type Sink interface {
	WriteFrame(frame model.Frame) error
}

// Emitter writes the frames of one turn. It is not safe for concurrent use.
type Emitter struct {
	sink      Sink
	backend   model.BackendTag
	sessionID string
	closed    bool
}

func NewEmitter(sink Sink, backend model.BackendTag, sessionID string) *Emitter {
	return &Emitter{sink: sink, backend: backend, sessionID: sessionID}
}

// Closed reports whether a terminal frame was written or the sink failed.
func (e *Emitter) Closed() bool { return e.closed }

// Stream forwards deltas from src until it ends, then writes the terminal
// frame. A source error yields one error frame carrying only the error's
// public message, and a nil return; the
// returned error covers context cancellation and sink failures, after which
// no further frames are written. src is always closed.
func (e *Emitter) Stream(ctx context.Context, src *schema.StreamReader[string]) error {
	defer src.Close()
	if e.closed {
		return ErrClosed
	}

	deltas := pump(ctx, src)
	for {
		select {
		case <-ctx.Done():
			e.closed = true
			return ctx.Err()
		case next, ok := <-deltas:
			if !ok {
				// pump stops early only when ctx is done.
				e.closed = true
				return ctx.Err()
			}
			if errors.Is(next.err, io.EOF) {
				return e.terminate(ctx, model.EndFrame(e.backend, e.sessionID))
			}
			if next.err != nil {
				logx.Warn().Err(next.err).Str("session_id", e.sessionID).Msg("stream source failed")
				return e.terminate(ctx, model.ErrorFrame(errx.PublicMessage(next.err)))
			}
			if next.delta == "" {
				continue
			}
			if err := e.write(ctx, model.MetadataFrame(e.backend, e.sessionID, next.delta)); err != nil {
				return err
			}
		}
	}
}

// Reply emits a completed answer as one metadata frame followed by end.
func (e *Emitter) Reply(ctx context.Context, text string) error {
	if e.closed {
		return ErrClosed
	}
	if text != "" {
		if err := e.write(ctx, model.MetadataFrame(e.backend, e.sessionID, text)); err != nil {
			return err
		}
	}
	return e.terminate(ctx, model.EndFrame(e.backend, e.sessionID))
}

// Fail emits a single error frame for a turn that failed before producing
// output. Only the public message of cause reaches the client.
func (e *Emitter) Fail(ctx context.Context, cause error) error {
	if e.closed {
		return ErrClosed
	}
	return e.terminate(ctx, model.ErrorFrame(errx.PublicMessage(cause)))
}

func (e *Emitter) terminate(ctx context.Context, frame model.Frame) error {
	err := e.write(ctx, frame)
	e.closed = true
	return err
}

func (e *Emitter) write(ctx context.Context, frame model.Frame) error {
	if err := ctx.Err(); err != nil {
		e.closed = true
		return err
	}
	if err := e.sink.WriteFrame(frame); err != nil {
		e.closed = true
		return fmt.Errorf("write %s frame: %w", frame.Type, err)
	}
	return nil
}

type received struct {
	delta string
	err   error
}

// pump moves Recv results onto a channel so the emit loop can observe ctx
// while the source blocks. It exits after the first error or when ctx is done;
// a Recv that never returns keeps it alive, which is why sources must end
// once ctx is done (see backends.Streamer).
func pump(ctx context.Context, src *schema.StreamReader[string]) <-chan received {
	out := make(chan received)
	go func() {
		defer close(out)
		for {
			delta, err := src.Recv()
			select {
			case out <- received{delta: delta, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return out
}
