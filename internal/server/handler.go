// Package server exposes the dispatch service over HTTP and websocket.
package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/contoso-travel/chat-agent/server/internal/agent/dispatch"
	errx "github.com/contoso-travel/chat-agent/server/internal/core/error"
)

// Handler handles HTTP requests.
type Handler struct {
	svc      *dispatch.Service
	upgrader websocket.Upgrader
	now      func() time.Time
}

// NewHandler creates a new handler. allowedOrigins restricts websocket
// upgrades; "*" allows any origin.
func NewHandler(svc *dispatch.Service, allowedOrigins []string) *Handler {
	return &Handler{
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		now: time.Now,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)

	agents := e.Group("/api/agents")
	agents.POST("/chat", h.Chat)
	agents.GET("/chat/ws", h.ChatWebSocket)
	agents.GET("/capabilities", h.Capabilities)
	agents.POST("/analyze", h.Analyze)
	agents.POST("/analyze/customer", h.AnalyzeCustomer)
	agents.GET("/sessions/:id/messages", h.SessionMessages)
}

// Root reports that the service is up.
func (h *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"message":   "ChatAgentService is running",
		"timestamp": h.now().UTC(),
	})
}

// Health returns health status and the backend serving turns.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"backend": string(h.svc.Backend()),
	})
}

// writeError renders err as {error: message} with the status it carries.
func writeError(c echo.Context, err error) error {
	return c.JSON(errx.StatusOf(err), map[string]string{"error": errx.PublicMessage(err)})
}

func originChecker(allowed []string) func(r *http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
