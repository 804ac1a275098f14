package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/relaydesk/relaydesk/internal/config"
	"github.com/relaydesk/relaydesk/internal/ingest"
)

const maxWebhookBody = 1 << 20

// WebhookHandler receives provider callbacks and feeds the inbound
// pipeline. Each route authenticates with the provider's own scheme, not
// staff JWTs.
type WebhookHandler struct {
	normalizer *ingest.Normalizer
	line       config.LineConfig
	messenger  config.MessengerConfig
	webchat    config.WebchatConfig
	logger     *slog.Logger
}

func NewWebhookHandler(log *slog.Logger, normalizer *ingest.Normalizer, cfg config.Config) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{
		normalizer: normalizer,
		line:       cfg.Line,
		messenger:  cfg.Messenger,
		webchat:    cfg.Webchat,
		logger:     log.With(slog.String("handler", "webhooks")),
	}
}

func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST("/webhooks/line", h.Line)
	e.GET("/webhooks/messenger", h.MessengerVerify)
	e.POST("/webhooks/messenger", h.Messenger)
	e.POST("/webchat/message", h.Webchat)
}

// Line handles LINE Messaging API callbacks. Events are acknowledged with
// 200 even when processing fails partway: LINE retries the whole batch
// and the event-id dedupe absorbs the already-stored ones.
func (h *WebhookHandler) Line(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read body")
	}
	if !verifyLineSignature(h.line.ChannelSecret, body, c.Request().Header.Get("X-Line-Signature")) {
		h.logger.Warn("line webhook signature rejected")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
	}

	events, err := ingest.ParseLine(body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.normalizer.ProcessAll(c.Request().Context(), events); err != nil {
		h.logger.Error("line webhook processing failed", slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, "processing failed")
	}
	return c.NoContent(http.StatusOK)
}

// MessengerVerify answers the Messenger platform subscription handshake.
func (h *WebhookHandler) MessengerVerify(c echo.Context) error {
	if c.QueryParam("hub.mode") != "subscribe" ||
		c.QueryParam("hub.verify_token") != h.messenger.VerifyToken {
		return echo.NewHTTPError(http.StatusForbidden, "verification failed")
	}
	return c.String(http.StatusOK, c.QueryParam("hub.challenge"))
}

// Messenger handles Messenger Platform callbacks.
func (h *WebhookHandler) Messenger(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read body")
	}
	if !verifyMessengerSignature(h.messenger.AppSecret, body, c.Request().Header.Get("X-Hub-Signature-256")) {
		h.logger.Warn("messenger webhook signature rejected")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
	}

	events, err := ingest.ParseMessenger(body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.normalizer.ProcessAll(c.Request().Context(), events); err != nil {
		h.logger.Error("messenger webhook processing failed", slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, "processing failed")
	}
	return c.NoContent(http.StatusOK)
}

// Webchat handles messages posted by the embedded widget.
func (h *WebhookHandler) Webchat(c echo.Context) error {
	if !verifyWidgetSecret(h.webchat.WidgetSecret, c.Request().Header.Get("X-Widget-Secret")) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid widget secret")
	}
	body, err := readBody(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read body")
	}

	ev, err := ingest.ParseWebchat(body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.normalizer.Process(c.Request().Context(), ev)
	if err != nil {
		h.logger.Error("webchat message processing failed", slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, "processing failed")
	}
	if res.Skipped {
		return c.NoContent(http.StatusOK)
	}
	return c.JSON(http.StatusCreated, res.Message)
}

func readBody(c echo.Context) ([]byte, error) {
	return io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
}
