package backends

import (
	"context"
	"fmt"

	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
	"github.com/contoso-travel/chat-agent/server/internal/agent/runs"
	logx "github.com/contoso-travel/chat-agent/server/pkg/logger"
)

type Options struct {
	Agent  model.AgentConfig
	Stream model.StreamModelConfig
	Prompt model.PromptConfig
}

// New picks the backend for the process lifetime. The live backend is used
// only when it is configured and the agent can be resolved right now; every
// other outcome is logged and yields the fallback.
func New(ctx context.Context, opts Options) Backend {
	if !opts.Agent.Configured() {
		logx.Info().Msg("agent backend not configured, using fallback responses")
		return NewFallback(nil)
	}

	live, err := connectLive(ctx, opts)
	if err != nil {
		logx.Warn().Err(err).Str("endpoint", opts.Agent.Endpoint).Msg("agent backend unavailable, using fallback responses")
		return NewFallback(nil)
	}
	return live
}

func connectLive(ctx context.Context, opts Options) (*Live, error) {
	threads := runs.NewOpenAIThreads(runs.NewOpenAIClient(opts.Agent))

	checkCtx := ctx
	if opts.Agent.CheckTimeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, opts.Agent.CheckTimeout)
		defer cancel()
	}
	agent, err := threads.ResolveAgent(checkCtx, opts.Agent.AgentID, opts.Agent.AgentName)
	if err != nil {
		return nil, fmt.Errorf("resolve agent: %w", err)
	}

	coordinator := runs.NewCoordinator(threads, runs.Config{
		AgentID:      agent.ID,
		PollInterval: opts.Agent.PollInterval,
		RunTimeout:   opts.Agent.RunTimeout,
	})

	liveOpts := LiveOptions{Coordinator: coordinator, Prompt: opts.Prompt}
	if opts.Stream.Configured() {
		streamModel, err := NewStreamModel(ctx, opts.Stream)
		if err != nil {
			logx.Warn().Err(err).Msg("stream model unavailable, streamed turns will wait for the full answer")
		} else {
			liveOpts.StreamModel = streamModel
			liveOpts.StreamModelName = opts.Stream.Model
		}
	}

	live, err := NewLive(ctx, liveOpts)
	if err != nil {
		return nil, err
	}
	logx.Info().Str("agent_id", agent.ID).Bool("streaming_model", liveOpts.StreamModel != nil).Msg("connected to agent backend")
	return live, nil
}
