package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
	errx "github.com/contoso-travel/chat-agent/server/internal/core/error"
	logx "github.com/contoso-travel/chat-agent/server/pkg/logger"
)

const (
	wsMaxMessageSize = 64 * 1024
	wsWriteTimeout   = 10 * time.Second
)

// wsSink writes each frame as one text message.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSink) WriteFrame(frame model.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(frame)
}

type wsInbound struct {
	req model.TurnRequest
	err error
}

// ChatWebSocket answers every inbound TurnRequest message with its frame
// sequence. Turns on one connection are served in order.
// GET /api/agents/chat/ws
func (h *Handler) ChatWebSocket(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logx.Warn().Err(err).Msg("failed to upgrade websocket")
		return nil
	}
	defer conn.Close()
	conn.SetReadLimit(wsMaxMessageSize)

	// A hijacked connection no longer cancels the request context, so the
	// read loop cancels ctx when the client goes away.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inbound := make(chan wsInbound)
	go func() {
		defer cancel()
		defer close(inbound)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logx.Debug().Err(err).Msg("websocket read failed")
				}
				return
			}
			var msg wsInbound
			if err := json.Unmarshal(data, &msg.req); err != nil {
				msg.err = err
			}
			select {
			case inbound <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	sink := &wsSink{conn: conn}
	for msg := range inbound {
		if msg.err != nil {
			if err := sink.WriteFrame(model.ErrorFrame(errx.InvalidRequestMessage)); err != nil {
				return nil
			}
			continue
		}
		if err := h.svc.StreamTurn(ctx, msg.req, sink); err != nil {
			logx.Debug().Err(err).Msg("websocket turn ended early")
			return nil
		}
	}
	return nil
}
