// Package dispatch is the single entry point for turns and analysis. It
// resolves the session, calls the backend chosen at startup and hands the
// answer to the caller or the stream emitter.
package dispatch

import (
	"context"
	"time"

	"github.com/contoso-travel/chat-agent/server/internal/agent/analysis"
	"github.com/contoso-travel/chat-agent/server/internal/agent/backends"
	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
	"github.com/contoso-travel/chat-agent/server/internal/agent/sessions"
	"github.com/contoso-travel/chat-agent/server/internal/agent/streaming"
	logx "github.com/contoso-travel/chat-agent/server/pkg/logger"
)

type Options struct {
	Backend  backends.Backend
	Sessions *sessions.Registry
	// Journal is optional; without it history is served from memory only.
	Journal model.MessageJournal
	Now     func() time.Time
}

type Service struct {
	backend  backends.Backend
	sessions *sessions.Registry
	journal  model.MessageJournal
	now      func() time.Time
}

func New(opts Options) *Service {
	s := &Service{
		backend:  opts.Backend,
		sessions: opts.Sessions,
		journal:  opts.Journal,
		now:      opts.Now,
	}
	if s.backend == nil {
		s.backend = backends.NewFallback(nil)
	}
	if s.sessions == nil {
		s.sessions = sessions.NewRegistry(sessions.Options{})
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Backend names the backend selected for this process.
func (s *Service) Backend() model.BackendTag { return s.backend.Name() }

// Turn answers one request with a complete response. Backend faults arrive
// as replies tagged "error", so Turn itself never fails.
func (s *Service) Turn(ctx context.Context, req model.TurnRequest) model.TurnResponse {
	turn := s.prepare(ctx, req)
	reply := s.backend.Respond(ctx, turn)

	suggestions := reply.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	return model.TurnResponse{
		Message:     reply.Text,
		SessionID:   turn.SessionID,
		AgentType:   reply.Backend,
		Suggestions: suggestions,
		Timestamp:   s.now().UTC(),
	}
}

// StreamTurn answers one request as a frame sequence written to sink. The
// sequence always ends with one end or error frame unless ctx is cancelled
// or the sink fails; those cases are returned and nothing more is written.
func (s *Service) StreamTurn(ctx context.Context, req model.TurnRequest, sink streaming.Sink) error {
	turn := s.prepare(ctx, req)

	streamer, ok := s.backend.(backends.Streamer)
	if !ok {
		reply := s.backend.Respond(ctx, turn)
		return streaming.NewEmitter(sink, reply.Backend, turn.SessionID).Reply(ctx, reply.Text)
	}

	emitter := streaming.NewEmitter(sink, s.backend.Name(), turn.SessionID)
	src, err := streamer.RespondStream(ctx, turn)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logx.Error().Err(err).Str("session_id", turn.SessionID).Msg("streamed turn failed")
		return emitter.Fail(ctx, err)
	}
	return emitter.Stream(ctx, src)
}

// prepare resolves the session and records the message before the backend runs.
func (s *Service) prepare(ctx context.Context, req model.TurnRequest) model.Turn {
	id, session := s.sessions.GetOrCreate(req.SessionID)
	history := session.Messages()
	session.Record(req.Message)

	if s.journal != nil {
		if err := s.journal.Append(ctx, id, req.Message); err != nil {
			logx.Warn().Err(err).Str("session_id", id).Msg("failed to journal message")
		}
	}

	logx.Debug().Str("session_id", id).Str("backend", string(s.backend.Name())).Msg("processing turn")
	return model.Turn{
		SessionID: id,
		Message:   req.Message,
		Context:   req.Context,
		History:   history,
		Thread:    session,
	}
}

// History returns the user messages recorded for a session, oldest first.
// The journal is preferred when present so history survives restarts.
func (s *Service) History(ctx context.Context, sessionID string) ([]string, bool, error) {
	if s.journal != nil {
		msgs, err := s.journal.Load(ctx, sessionID)
		if err != nil {
			return nil, false, err
		}
		if len(msgs) > 0 {
			return msgs, true, nil
		}
	}
	session, ok := s.sessions.Lookup(sessionID)
	if !ok {
		return []string{}, false, nil
	}
	return session.Messages(), true, nil
}

func (s *Service) Analyze(ctx context.Context, req model.AnalyzeRequest) model.AnalysisResult {
	res := analysis.Analyze(req.Query)
	logx.Debug().Str("intent", res.Intent).Strs("entities", res.Entities).Msg("query analyzed")
	return res
}

func (s *Service) AnalyzeCustomer(ctx context.Context, req model.CustomerQueryRequest) model.CustomerQueryAnalysis {
	return analysis.AnalyzeCustomer(req.CustomerQuery)
}

// Capabilities lists what the assistant can do with the selected backend.
func (s *Service) Capabilities() []model.Capability {
	live := s.backend.Name() == model.BackendLive
	return []model.Capability{
		{
			Name:               "Travel Planning",
			Description:        "Assists with creating personalized travel itineraries",
			SupportedLanguages: []string{"en", "es", "fr", "de"},
			IsAvailable:        live,
		},
		{
			Name:               "Destination Recommendations",
			Description:        "Provides recommendations for travel destinations based on preferences",
			SupportedLanguages: []string{"en", "es", "fr", "de", "ja"},
			IsAvailable:        live,
		},
		{
			Name:               "Query Understanding",
			Description:        "Analyzes and understands user travel queries",
			SupportedLanguages: []string{"en", "es", "fr", "de", "it"},
			IsAvailable:        true,
		},
	}
}
