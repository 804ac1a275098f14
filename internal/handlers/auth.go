package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/relaydesk/relaydesk/internal/accounts"
	"github.com/relaydesk/relaydesk/internal/auth"
	"github.com/relaydesk/relaydesk/internal/config"
)

// AuthHandler issues staff tokens.
type AuthHandler struct {
	service *accounts.Service
	authCfg config.AuthConfig
	logger  *slog.Logger
}

func NewAuthHandler(log *slog.Logger, service *accounts.Service, cfg config.Config) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{
		service: service,
		authCfg: cfg.Auth,
		logger:  log.With(slog.String("handler", "auth")),
	}
}

func (h *AuthHandler) Register(e *echo.Echo) {
	e.POST("/api/auth/login", h.Login)
	e.GET("/api/auth/me", h.Me)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token   string           `json:"token"`
	Account accounts.Account `json:"account"`
}

// Login verifies staff credentials and returns a signed token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	account, err := h.service.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		h.logger.Error("login failed", slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	token, err := auth.GenerateToken(h.authCfg, account.ID, account.Username)
	if err != nil {
		h.logger.Error("token generation failed", slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, Account: account})
}

// Me returns the authenticated staff identity.
func (h *AuthHandler) Me(c echo.Context) error {
	id := auth.AccountID(c)
	if id == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"id":       id,
		"username": auth.Username(c),
	})
}
