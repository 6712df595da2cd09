package model

// FrameType tags a stream frame.
type FrameType string

const (
	FrameMetadata FrameType = "metadata"
	FrameEnd      FrameType = "end"
	FrameError    FrameType = "error"
)

// Frame is one unit of the streaming turn protocol, serialized as one NDJSON line.
type Frame struct {
	Type      FrameType  `json:"type"`
	Delta     string     `json:"delta,omitempty"`
	Backend   BackendTag `json:"backend,omitempty"`
	SessionID string     `json:"sessionId,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// Terminal reports whether the frame closes the stream.
func (f Frame) Terminal() bool {
	return f.Type == FrameEnd || f.Type == FrameError
}

func MetadataFrame(backend BackendTag, sessionID, delta string) Frame {
	return Frame{Type: FrameMetadata, Delta: delta, Backend: backend, SessionID: sessionID}
}

func EndFrame(backend BackendTag, sessionID string) Frame {
	return Frame{Type: FrameEnd, Backend: backend, SessionID: sessionID}
}

func ErrorFrame(message string) Frame {
	return Frame{Type: FrameError, Message: message}
}
