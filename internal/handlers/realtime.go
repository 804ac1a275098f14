package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/realtime"
)

// RealtimeHandler upgrades console connections to websocket subscriptions
// on a conversation thread.
type RealtimeHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewRealtimeHandler(log *slog.Logger, hub *realtime.Hub) *RealtimeHandler {
	if log == nil {
		log = slog.Default()
	}
	return &RealtimeHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The console and widget run on their own origins; auth is
			// carried by the JWT middleware before the upgrade.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: log.With(slog.String("handler", "realtime")),
	}
}

func (h *RealtimeHandler) Register(e *echo.Echo) {
	e.GET("/ws/chat/:thread_id", h.Subscribe)
}

// Subscribe upgrades the request and streams thread messages until the
// peer disconnects.
func (h *RealtimeHandler) Subscribe(c echo.Context) error {
	threadID := c.Param("thread_id")
	if _, _, err := channel.SplitThreadID(threadID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "websocket upgrade failed")
	}

	sub := h.hub.Subscribe(threadID)
	h.logger.Debug("websocket subscribed", slog.String("thread_id", threadID))
	realtime.ServeConn(h.hub, conn, sub, h.logger)
	return nil
}
