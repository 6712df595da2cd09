// Package sessions keeps per-session conversation state for the lifetime of the process.
package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
	logx "github.com/contoso-travel/chat-agent/server/pkg/logger"
)

// Session is the continuation state of one conversation.
type Session struct {
	id string

	mu       sync.Mutex
	threadID string
	messages []string
	lastSeen time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{id: id, lastSeen: now}
}

func (s *Session) ID() string {
	return s.id
}

// ThreadID returns the remote thread id, or "" before the first live turn.
func (s *Session) ThreadID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threadID
}

// BindThread associates a remote thread with the session. Last writer wins.
func (s *Session) BindThread(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threadID = threadID
}

// Record appends a user message to the session's FIFO.
func (s *Session) Record(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
}

// Messages returns a copy of the recorded user messages, oldest first.
func (s *Session) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

var _ model.ThreadBinding = (*Session)(nil)

// Options configures a Registry.
type Options struct {
	// IdleTTL evicts sessions idle for longer than this on Sweep. Zero disables eviction.
	IdleTTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
	// NewID defaults to random UUIDs.
	NewID func() string
}

// Registry maps session ids to Session state. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	idleTTL time.Duration
	now     func() time.Time
	newID   func() string
}

func NewRegistry(opts Options) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		idleTTL:  opts.IdleTTL,
		now:      opts.Now,
		newID:    opts.NewID,
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.newID == nil {
		r.newID = func() string { return uuid.New().String() }
	}
	return r
}

// GetOrCreate resolves id to its session. An empty id gets a freshly generated
// one; an unknown id is registered as a new session. Concurrent callers with
// the same id always observe the same *Session.
func (r *Registry) GetOrCreate(id string) (string, *Session) {
	now := r.now()
	if id == "" {
		id = r.newID()
	}

	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.touch(now)
		return id, s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.touch(now)
		return id, s
	}
	s = newSession(id, now)
	r.sessions[id] = s
	logx.Debug().Str("session_id", id).Msg("session created")
	return id, s
}

// Lookup returns the session registered under id, if any.
func (r *Registry) Lookup(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes sessions idle for longer than the configured TTL and returns
// how many were removed. It is a no-op when no TTL is configured.
func (r *Registry) Sweep(now time.Time) int {
	if r.idleTTL <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.idleSince(now) > r.idleTTL {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	if r.idleTTL <= 0 || interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Sweep(r.now()); n > 0 {
				logx.Info().Int("evicted", n).Int("remaining", r.Len()).Msg("evicted idle sessions")
			}
		}
	}
}
