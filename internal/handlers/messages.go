package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/relaydesk/relaydesk/internal/auth"
	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/customer"
	"github.com/relaydesk/relaydesk/internal/message"
	"github.com/relaydesk/relaydesk/internal/outbound"
)

// MessagesHandler serves thread history and staff replies.
type MessagesHandler struct {
	messages   *message.DBService
	dispatcher *outbound.Dispatcher
	logger     *slog.Logger
}

func NewMessagesHandler(log *slog.Logger, messages *message.DBService, dispatcher *outbound.Dispatcher) *MessagesHandler {
	if log == nil {
		log = slog.Default()
	}
	return &MessagesHandler{
		messages:   messages,
		dispatcher: dispatcher,
		logger:     log.With(slog.String("handler", "messages")),
	}
}

func (h *MessagesHandler) Register(e *echo.Echo) {
	e.GET("/api/threads/:thread_id/messages", h.ListMessages)
	e.POST("/api/customers/:customer_id/messages", h.SendMessage)
	e.PUT("/api/messages/:id/read", h.MarkRead)
}

// ListMessages returns one page of thread history, newest first.
func (h *MessagesHandler) ListMessages(c echo.Context) error {
	threadID := c.Param("thread_id")
	if _, _, err := channel.SplitThreadID(threadID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	result, err := h.messages.ListPage(c.Request().Context(), threadID, page, pageSize)
	if err != nil {
		h.logger.Error("list messages failed", slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

type sendMessageRequest struct {
	Channel string `json:"channel" validate:"required"`
	Text    string `json:"text" validate:"required"`
	Source  string `json:"source"`
}

// SendMessage delivers a staff reply to the customer on the chosen
// channel.
func (h *MessagesHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ch, err := channel.Parse(req.Channel)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	msg, err := h.dispatcher.Send(c.Request().Context(), outbound.SendInput{
		CustomerID: c.Param("customer_id"),
		Channel:    ch,
		Text:       req.Text,
		Source:     req.Source,
		Sender:     auth.Username(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, outbound.ErrChannelNotLinked):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, customer.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "customer not found")
		}
		h.logger.Error("send message failed", slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, msg)
}

// MarkRead stamps a message as read by staff.
func (h *MessagesHandler) MarkRead(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid message id")
	}
	if err := h.messages.MarkRead(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
