package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/relaydesk/relaydesk/internal/customer"
	"github.com/relaydesk/relaydesk/internal/session"
)

// SessionHandler opens chat sessions for the console.
type SessionHandler struct {
	resolver *session.Resolver
	store    *customer.Service
	logger   *slog.Logger
}

func NewSessionHandler(log *slog.Logger, resolver *session.Resolver, store *customer.Service) *SessionHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SessionHandler{
		resolver: resolver,
		store:    store,
		logger:   log.With(slog.String("handler", "session")),
	}
}

func (h *SessionHandler) Register(e *echo.Echo) {
	e.GET("/api/customers/:customer_id/chat-session", h.OpenSession)
	e.GET("/api/customers/:customer_id", h.GetCustomer)
	e.GET("/api/customers/:customer_id/channels", h.ListChannels)
}

// OpenSession resolves the customer's channels and default channel. An
// explicit ?channel= overrides the recency-based default.
func (h *SessionHandler) OpenSession(c echo.Context) error {
	customerID := c.Param("customer_id")
	requested := c.QueryParam("channel")

	sess, err := h.resolver.OpenSession(c.Request().Context(), customerID, requested)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidChannel):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, session.ErrChannelNotLinked):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, customer.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "customer not found")
		}
		h.logger.Error("open session failed", slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *SessionHandler) GetCustomer(c echo.Context) error {
	cust, err := h.store.Get(c.Request().Context(), c.Param("customer_id"))
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "customer not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cust)
}

// ListChannels returns the customer's per-channel friend rows, including
// unfollowed ones.
func (h *SessionHandler) ListChannels(c echo.Context) error {
	friends, err := h.store.ListFriends(c.Request().Context(), c.Param("customer_id"))
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "customer not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"items": friends})
}
