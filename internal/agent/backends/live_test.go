package backends

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
	"github.com/contoso-travel/chat-agent/server/internal/agent/runs"
	errx "github.com/contoso-travel/chat-agent/server/internal/core/error"
)

type stubThreads struct {
	status  model.RunStatus
	reply   string
	failAdd error

	mu       sync.Mutex
	appended []string
}

func (s *stubThreads) CreateThread(context.Context) (string, error) { return "thread_1", nil }

func (s *stubThreads) AddUserMessage(_ context.Context, threadID, text string) error {
	return s.append(threadID + ":user:" + text)
}

func (s *stubThreads) AddAssistantMessage(_ context.Context, threadID, text string) error {
	return s.append(threadID + ":assistant:" + text)
}

func (s *stubThreads) append(entry string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAdd != nil {
		return s.failAdd
	}
	s.appended = append(s.appended, entry)
	return nil
}

func (s *stubThreads) Appended() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.appended...)
}

func (s *stubThreads) StartRun(_ context.Context, threadID, _ string) (model.Run, error) {
	return model.Run{ThreadID: threadID, RunID: "run_1", Status: model.RunStatusQueued}, nil
}

func (s *stubThreads) GetRun(_ context.Context, threadID, runID string) (model.Run, error) {
	return model.Run{
		ThreadID: threadID,
		RunID:    runID,
		Status:   s.status,
		Model:    "gpt-4o-mini",
		Usage:    model.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (s *stubThreads) LatestAssistantText(context.Context, string) (string, bool, error) {
	return s.reply, true, nil
}

type threadSlot struct {
	mu sync.Mutex
	id string
}

func (t *threadSlot) ThreadID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

func (t *threadSlot) BindThread(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.id = id
}

type fakeChatModel struct {
	chunks   []string
	startErr error
	midErr   error
	got      []*schema.Message
}

func (f *fakeChatModel) Generate(context.Context, []*schema.Message, ...einomodel.Option) (*schema.Message, error) {
	return nil, errors.New("not used")
}

func (f *fakeChatModel) Stream(_ context.Context, in []*schema.Message, _ ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	f.got = in
	if f.startErr != nil {
		return nil, f.startErr
	}
	sr, sw := schema.Pipe[*schema.Message](len(f.chunks) + 2)
	go func() {
		defer sw.Close()
		for _, c := range f.chunks {
			sw.Send(schema.AssistantMessage(c, nil), nil)
		}
		if f.midErr != nil {
			sw.Send(nil, f.midErr)
		}
	}()
	return sr, nil
}

func newTestLive(t *testing.T, threads runs.ThreadClient, cm einomodel.BaseChatModel) *Live {
	t.Helper()
	c := runs.NewCoordinator(threads, runs.Config{AgentID: "asst_1", PollInterval: time.Millisecond, RunTimeout: time.Second})
	l, err := NewLive(context.Background(), LiveOptions{
		Coordinator:     c,
		StreamModel:     cm,
		StreamModelName: "gemini-2.5-flash",
		Prompt:          model.PromptConfig{AssistantName: "Aria", BusinessName: "Contoso Travel"},
	})
	require.NoError(t, err)
	return l
}

// collect drains a delta stream; a start error counts as the stream's error.
func collect(sr *schema.StreamReader[string], err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	defer sr.Close()
	var out []string
	for {
		d, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, d)
	}
}

func TestLiveRespondBindsThread(t *testing.T) {
	l := newTestLive(t, &stubThreads{status: model.RunStatusCompleted, reply: "Try Reykjavik."}, nil)
	slot := &threadSlot{}

	reply := l.Respond(context.Background(), model.Turn{SessionID: "s1", Message: "iceland trip", Thread: slot})
	assert.Equal(t, model.BackendLive, reply.Backend)
	assert.Equal(t, "Try Reykjavik.", reply.Text)
	assert.Equal(t, Suggest("iceland"), reply.Suggestions)
	assert.Equal(t, "thread_1", slot.ThreadID())
}

func TestLiveRespondFailureIsErrorReply(t *testing.T) {
	l := newTestLive(t, &stubThreads{status: model.RunStatusFailed}, nil)
	slot := &threadSlot{}

	reply := l.Respond(context.Background(), model.Turn{SessionID: "s1", Message: "hi", Thread: slot})
	assert.Equal(t, ErrorReply(), reply)
	assert.Equal(t, "thread_1", slot.ThreadID(), "thread stays bound after a failed run")

	l = newTestLive(t, &stubThreads{failAdd: errors.New("connection reset")}, nil)
	reply = l.Respond(context.Background(), model.Turn{Message: "hi"})
	assert.Equal(t, model.BackendError, reply.Backend)
	assert.Equal(t, ApologyText, reply.Text)
	assert.Empty(t, reply.Suggestions)
}

func TestLiveStreamWithoutModelYieldsSingleDelta(t *testing.T) {
	l := newTestLive(t, &stubThreads{status: model.RunStatusCompleted, reply: "Whole answer."}, nil)

	deltas, err := collect(l.RespondStream(context.Background(), model.Turn{Message: "hi"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Whole answer."}, deltas)
}

func TestLiveStreamWithoutModelFailure(t *testing.T) {
	l := newTestLive(t, &stubThreads{status: model.RunStatusFailed}, nil)

	_, err := collect(l.RespondStream(context.Background(), model.Turn{Message: "hi"}))
	require.ErrorIs(t, err, runs.ErrRunFailed)
}

func TestLiveStreamFromModel(t *testing.T) {
	cm := &fakeChatModel{chunks: []string{"Visit ", "", "Kyoto ", "in autumn."}}
	l := newTestLive(t, &stubThreads{}, cm)

	deltas, err := collect(l.RespondStream(context.Background(), model.Turn{
		Message: "japan?",
		History: []string{"hello"},
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Visit ", "Kyoto ", "in autumn."}, deltas)

	require.Len(t, cm.got, 3)
	assert.Equal(t, schema.System, cm.got[0].Role)
	assert.Contains(t, cm.got[0].Content, "Aria")
	assert.Equal(t, "hello", cm.got[1].Content)
	assert.Equal(t, "japan?", cm.got[2].Content)
}

func TestLiveStreamRecordsExchangeOnThread(t *testing.T) {
	threads := &stubThreads{}
	l := newTestLive(t, threads, &fakeChatModel{chunks: []string{"Visit ", "Kyoto."}})
	slot := &threadSlot{}

	deltas, err := collect(l.RespondStream(context.Background(), model.Turn{SessionID: "s1", Message: "japan?", Thread: slot}))
	require.NoError(t, err)
	assert.Equal(t, []string{"Visit ", "Kyoto."}, deltas)

	require.Eventually(t, func() bool { return slot.ThreadID() == "thread_1" }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"thread_1:user:japan?", "thread_1:assistant:Visit Kyoto."}, threads.Appended())
}

func TestLiveStreamModelErrors(t *testing.T) {
	threads := &stubThreads{}
	l := newTestLive(t, threads, &fakeChatModel{chunks: []string{"Partial"}, midErr: errors.New("quota exceeded")})
	deltas, err := collect(l.RespondStream(context.Background(), model.Turn{Message: "hi"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, errx.BackendErrorMessage, errx.PublicMessage(err))
	assert.Equal(t, []string{"Partial"}, deltas)
	assert.Empty(t, threads.Appended(), "a failed answer is not recorded")

	l = newTestLive(t, &stubThreads{}, &fakeChatModel{startErr: errors.New("invalid api key")})
	_, err = collect(l.RespondStream(context.Background(), model.Turn{Message: "hi"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestNewLiveRequiresCoordinator(t *testing.T) {
	_, err := NewLive(context.Background(), LiveOptions{})
	require.Error(t, err)
}
