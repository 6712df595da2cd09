package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/contoso-travel/chat-agent/server/internal/agent/model"
	"github.com/contoso-travel/chat-agent/server/internal/agent/streaming"
	errx "github.com/contoso-travel/chat-agent/server/internal/core/error"
	logx "github.com/contoso-travel/chat-agent/server/pkg/logger"
)

// Chat answers one turn. An empty or missing message is answered like any
// other, never rejected.
// POST /api/agents/chat
//
// With ?stream=true or Accept: application/x-ndjson the answer is written as
// NDJSON frames, one per line, ending with an end or error frame.
func (h *Handler) Chat(c echo.Context) error {
	var req model.TurnRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, errx.BadRequest(err, "invalid request body"))
	}

	if wantsStream(c) {
		return h.streamChat(c, req)
	}
	return c.JSON(http.StatusOK, h.svc.Turn(c.Request().Context(), req))
}

func (h *Handler) streamChat(c echo.Context, req model.TurnRequest) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, streaming.ContentTypeNDJSON)
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	if err := h.svc.StreamTurn(c.Request().Context(), req, streaming.NewNDJSONSink(res)); err != nil {
		// The client is gone or the connection broke; the status is already sent.
		logx.Debug().Err(err).Str("session_id", req.SessionID).Msg("stream closed early")
	}
	return nil
}

func wantsStream(c echo.Context) bool {
	if v := c.QueryParam("stream"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			return on
		}
	}
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), streaming.ContentTypeNDJSON)
}

// Capabilities lists the assistant's features.
// GET /api/agents/capabilities
func (h *Handler) Capabilities(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Capabilities())
}

// Analyze extracts intent, destinations and advice from a query.
// POST /api/agents/analyze
func (h *Handler) Analyze(c echo.Context) error {
	var req model.AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, errx.BadRequest(err, "invalid request body"))
	}
	return c.JSON(http.StatusOK, h.svc.Analyze(c.Request().Context(), req))
}

// AnalyzeCustomer classifies a customer's flight query.
// POST /api/agents/analyze/customer
func (h *Handler) AnalyzeCustomer(c echo.Context) error {
	var req model.CustomerQueryRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, errx.BadRequest(err, "invalid request body"))
	}
	return c.JSON(http.StatusOK, h.svc.AnalyzeCustomer(c.Request().Context(), req))
}

// SessionMessages returns the user messages recorded for a session.
// GET /api/agents/sessions/:id/messages
func (h *Handler) SessionMessages(c echo.Context) error {
	id := c.Param("id")
	messages, found, err := h.svc.History(c.Request().Context(), id)
	if err != nil {
		logx.Error().Err(err).Str("session_id", id).Msg("failed to load session history")
		return writeError(c, err)
	}
	if !found {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"sessionId": id,
		"messages":  messages,
	})
}
