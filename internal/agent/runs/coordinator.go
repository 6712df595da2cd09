// Package runs drives one conversational turn against a remote agent that
// speaks the thread/message/run protocol.
package runs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
	logx "github.com/contoso-travel/chat-agent/server/pkg/logger"
)

const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultRunTimeout   = 2 * time.Minute

	// NoResponseText is returned when a completed run left no assistant message.
	NoResponseText = "I don't have a response at this time."
)

var (
	// ErrRunFailed is returned when the remote run ends in a failure state.
	ErrRunFailed = errors.New("agent run failed")
	// ErrRunTimeout is returned when the remote run does not finish within the run timeout.
	ErrRunTimeout = errors.New("agent run timed out")
)

// ThreadClient is the remote side of the protocol.
type ThreadClient interface {
	CreateThread(ctx context.Context) (string, error)
	AddUserMessage(ctx context.Context, threadID, text string) error
	AddAssistantMessage(ctx context.Context, threadID, text string) error
	StartRun(ctx context.Context, threadID, agentID string) (model.Run, error)
	GetRun(ctx context.Context, threadID, runID string) (model.Run, error)
	// LatestAssistantText returns the first text item of the newest assistant
	// message in the thread; ok is false when there is none.
	LatestAssistantText(ctx context.Context, threadID string) (text string, ok bool, err error)
}

type Config struct {
	AgentID      string
	PollInterval time.Duration
	RunTimeout   time.Duration
	Clock        Clock
}

// Result is the outcome of a finished turn. ThreadID is set as soon as a
// thread exists, also when the run later fails.
type Result struct {
	ThreadID string
	Run      model.Run
	Text     string
}

// Coordinator drives a single turn from thread creation to the assistant's reply.
type Coordinator struct {
	threads      ThreadClient
	agentID      string
	pollInterval time.Duration
	runTimeout   time.Duration
	clock        Clock
}

func NewCoordinator(threads ThreadClient, cfg Config) *Coordinator {
	c := &Coordinator{
		threads:      threads,
		agentID:      cfg.AgentID,
		pollInterval: cfg.PollInterval,
		runTimeout:   cfg.RunTimeout,
		clock:        cfg.Clock,
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.runTimeout <= 0 {
		c.runTimeout = DefaultRunTimeout
	}
	if c.clock == nil {
		c.clock = SystemClock
	}
	return c
}

// Complete appends message to threadID (creating the thread when threadID is
// empty), runs the agent and waits for its reply.
//
// The wait observes ctx between polls and returns ctx.Err() as soon as the
// caller gives up. The remote run is left as it is.
func (c *Coordinator) Complete(ctx context.Context, threadID, message string) (Result, error) {
	res := Result{ThreadID: threadID, Run: model.Run{ThreadID: threadID, Status: model.RunStatusCreated}}

	if res.ThreadID == "" {
		id, err := c.threads.CreateThread(ctx)
		if err != nil {
			return res, fmt.Errorf("create thread: %w", err)
		}
		res.ThreadID = id
		res.Run.ThreadID = id
		logx.Debug().Str("thread_id", id).Msg("thread created")
	}

	if err := c.threads.AddUserMessage(ctx, res.ThreadID, message); err != nil {
		return res, fmt.Errorf("add message: %w", err)
	}

	run, err := c.threads.StartRun(ctx, res.ThreadID, c.agentID)
	if err != nil {
		return res, fmt.Errorf("start run: %w", err)
	}
	res.Run = run

	run, err = c.await(ctx, res.ThreadID, run)
	res.Run = run
	if err != nil {
		return res, err
	}

	text, ok, err := c.threads.LatestAssistantText(ctx, res.ThreadID)
	if err != nil {
		return res, fmt.Errorf("list messages: %w", err)
	}
	if !ok {
		text = NoResponseText
	}
	res.Text = text
	return res, nil
}

// Record appends an exchange answered outside the agent to threadID, creating
// the thread when threadID is empty, so later runs on the thread see it. The
// returned thread id is set as soon as a thread exists.
func (c *Coordinator) Record(ctx context.Context, threadID, message, answer string) (string, error) {
	if threadID == "" {
		id, err := c.threads.CreateThread(ctx)
		if err != nil {
			return "", fmt.Errorf("create thread: %w", err)
		}
		threadID = id
	}
	if err := c.threads.AddUserMessage(ctx, threadID, message); err != nil {
		return threadID, fmt.Errorf("add message: %w", err)
	}
	if answer == "" {
		return threadID, nil
	}
	if err := c.threads.AddAssistantMessage(ctx, threadID, answer); err != nil {
		return threadID, fmt.Errorf("add answer: %w", err)
	}
	return threadID, nil
}

// await polls run until it leaves the pending states.
func (c *Coordinator) await(ctx context.Context, threadID string, run model.Run) (model.Run, error) {
	deadline := c.clock.Now().Add(c.runTimeout)

	for run.Status.Pending() {
		select {
		case <-ctx.Done():
			logx.Debug().Str("run_id", run.RunID).Msg("caller cancelled while waiting for run")
			return run, ctx.Err()
		case <-c.clock.After(c.pollInterval):
		}

		if !c.clock.Now().Before(deadline) {
			return run, fmt.Errorf("%w after %s (run %s, status %s)", ErrRunTimeout, c.runTimeout, run.RunID, run.Status)
		}

		next, err := c.threads.GetRun(ctx, threadID, run.RunID)
		if err != nil {
			return run, fmt.Errorf("get run: %w", err)
		}
		run = next
	}

	if run.Status != model.RunStatusCompleted {
		if run.LastError != "" {
			return run, fmt.Errorf("%w: %s", ErrRunFailed, run.LastError)
		}
		return run, fmt.Errorf("%w: status %s", ErrRunFailed, run.Status)
	}
	return run, nil
}
