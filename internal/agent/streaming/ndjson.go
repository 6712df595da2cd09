package streaming

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
)

// ContentTypeNDJSON is the media type of a framed turn stream.
const ContentTypeNDJSON = "application/x-ndjson"

// NDJSONSink writes one JSON object per line and flushes after every frame
// when the writer supports it.
type NDJSONSink struct {
	mu      sync.Mutex
	enc     *json.Encoder
	flusher http.Flusher
}

func NewNDJSONSink(w io.Writer) *NDJSONSink {
	s := &NDJSONSink{enc: json.NewEncoder(w)}
	s.enc.SetEscapeHTML(false)
	if f, ok := w.(http.Flusher); ok {
		s.flusher = f
	}
	return s
}

var _ Sink = (*NDJSONSink)(nil)

func (s *NDJSONSink) WriteFrame(frame model.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Encode appends the newline.
	if err := s.enc.Encode(frame); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
