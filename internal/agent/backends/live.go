package backends

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
	"github.com/contoso-travel/chat-agent/server/internal/agent/observers"
	"github.com/contoso-travel/chat-agent/server/internal/agent/prompts"
	"github.com/contoso-travel/chat-agent/server/internal/agent/runs"
	errx "github.com/contoso-travel/chat-agent/server/internal/core/error"
	logx "github.com/contoso-travel/chat-agent/server/pkg/logger"
)

const (
	nodeStreamPrompt = "stream_prompt"
	nodeStreamModel  = "stream_model"

	recordTimeout = 30 * time.Second
)

// LiveOptions wires the live backend. StreamModel is optional; without it
// streamed turns carry the run's completed answer as a single delta.
type LiveOptions struct {
	Coordinator     *runs.Coordinator
	StreamModel     einomodel.BaseChatModel
	StreamModelName string
	Prompt          model.PromptConfig
}

// Live answers through the remote agent.
type Live struct {
	coordinator *runs.Coordinator
	stream      compose.Runnable[map[string]any, *schema.Message]
	callbacks   einocb.Handler
	prompt      model.PromptConfig
}

var (
	_ Backend  = (*Live)(nil)
	_ Streamer = (*Live)(nil)
)

func NewLive(ctx context.Context, opts LiveOptions) (*Live, error) {
	if opts.Coordinator == nil {
		return nil, errors.New("live backend: coordinator is nil")
	}
	l := &Live{coordinator: opts.Coordinator, prompt: opts.Prompt}
	if opts.StreamModel == nil {
		return l, nil
	}

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.
		AppendChatTemplate(prompts.NewStreamTemplate(), compose.WithNodeName(nodeStreamPrompt)).
		AppendChatModel(opts.StreamModel, compose.WithNodeName(nodeStreamModel))
	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile stream chain: %w", err)
	}
	l.stream = runnable
	l.callbacks = observers.NewCallbacks(opts.StreamModelName)
	return l, nil
}

func (l *Live) Name() model.BackendTag { return model.BackendLive }

// Respond runs the turn on the session's remote thread.
func (l *Live) Respond(ctx context.Context, turn model.Turn) model.Reply {
	text, err := l.complete(ctx, turn)
	if err != nil {
		logx.Error().Err(err).Str("session_id", turn.SessionID).Msg("live turn failed")
		return ErrorReply()
	}
	return model.Reply{Text: text, Backend: model.BackendLive, Suggestions: Suggest(turn.Message)}
}

// RespondStream streams the turn from the stream model when one is wired.
// The streamed exchange is then appended to the session's agent thread, so
// later runs on that thread see it.
func (l *Live) RespondStream(ctx context.Context, turn model.Turn) (*schema.StreamReader[string], error) {
	if l.stream == nil {
		text, err := l.complete(ctx, turn)
		if err != nil {
			return nil, err
		}
		return schema.StreamReaderFromArray([]string{text}), nil
	}

	out, err := l.stream.Stream(ctx, prompts.StreamVariables(l.prompt, turn), compose.WithCallbacks(l.callbacks))
	if err != nil {
		return nil, errx.WrapBackend(err)
	}
	return l.relay(ctx, turn, out), nil
}

// relay forwards the model's text deltas and records the exchange once the
// answer is complete. A failure of the model mid-answer surfaces as a
// backend error. Closing the returned reader stops the relay.
func (l *Live) relay(ctx context.Context, turn model.Turn, src *schema.StreamReader[*schema.Message]) *schema.StreamReader[string] {
	sr, sw := schema.Pipe[string](1)
	go func() {
		defer src.Close()
		var answer strings.Builder
		for {
			m, err := src.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				sw.Send("", errx.WrapBackend(err))
				sw.Close()
				return
			}
			delta := messageDelta(m)
			if delta == "" {
				continue
			}
			answer.WriteString(delta)
			if closed := sw.Send(delta, nil); closed {
				sw.Close()
				return
			}
		}
		sw.Close()
		l.record(context.WithoutCancel(ctx), turn, answer.String())
	}()
	return sr
}

// record appends a streamed exchange to the session's thread. Failures are
// logged; the client already has its answer.
func (l *Live) record(ctx context.Context, turn model.Turn, answer string) {
	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	var threadID string
	if turn.Thread != nil {
		threadID = turn.Thread.ThreadID()
	}
	id, err := l.coordinator.Record(ctx, threadID, turn.Message, answer)
	if turn.Thread != nil && id != "" && id != threadID {
		turn.Thread.BindThread(id)
	}
	if err != nil {
		logx.Warn().Err(err).Str("session_id", turn.SessionID).Msg("failed to record streamed turn on agent thread")
	}
}

func (l *Live) complete(ctx context.Context, turn model.Turn) (string, error) {
	var threadID string
	if turn.Thread != nil {
		threadID = turn.Thread.ThreadID()
	}

	res, err := l.coordinator.Complete(ctx, threadID, turn.Message)
	// A thread created by a failed turn is still the session's thread.
	if turn.Thread != nil && res.ThreadID != "" && res.ThreadID != threadID {
		turn.Thread.BindThread(res.ThreadID)
	}
	if err != nil {
		return "", errx.WrapBackend(err)
	}

	logx.Debug().
		Str("session_id", turn.SessionID).
		Str("thread_id", res.ThreadID).
		Str("run_id", res.Run.RunID).
		Msg("run completed")
	observers.LogUsage("agent_run", res.Run.Model, res.Run.Usage)
	return res.Text, nil
}

// messageDelta is empty for chunks without text, such as the trailing usage chunk.
func messageDelta(m *schema.Message) string {
	if m == nil {
		return ""
	}
	return m.Content
}
