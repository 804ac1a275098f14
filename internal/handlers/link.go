package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"

	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/config"
	"github.com/relaydesk/relaydesk/internal/identity"
)

// LinkHandler signs webchat visitors in through a messaging provider's
// OAuth login and links both identities to one customer.
type LinkHandler struct {
	linker *identity.Linker
	logins map[channel.Channel]config.OAuthConfig
	client *http.Client
	logger *slog.Logger
}

func NewLinkHandler(log *slog.Logger, linker *identity.Linker, cfg config.Config) *LinkHandler {
	if log == nil {
		log = slog.Default()
	}
	return &LinkHandler{
		linker: linker,
		logins: map[channel.Channel]config.OAuthConfig{
			channel.Line:      cfg.Line.Login,
			channel.Messenger: cfg.Messenger.Login,
		},
		logger: log.With(slog.String("handler", "link")),
	}
}

func (h *LinkHandler) Register(e *echo.Echo) {
	e.GET("/api/auth/oauth", h.AuthorizeURL)
	e.POST("/webchat/link", h.Link)
}

func (h *LinkHandler) oauthConfig(ch channel.Channel) (*oauth2.Config, error) {
	login, ok := h.logins[ch]
	if !ok || login.ClientID == "" {
		return nil, fmt.Errorf("no oauth login configured for channel %s", ch)
	}
	return &oauth2.Config{
		ClientID:     login.ClientID,
		ClientSecret: login.ClientSecret,
		RedirectURL:  login.RedirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:  login.AuthURL,
			TokenURL: login.TokenURL,
		},
		Scopes: []string{"profile", "openid", "email"},
	}, nil
}

// AuthorizeURL returns the provider consent URL for the widget to open.
func (h *LinkHandler) AuthorizeURL(c echo.Context) error {
	ch, err := channel.Parse(c.QueryParam("provider"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	conf, err := h.oauthConfig(ch)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	state := c.QueryParam("state")
	if state == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "state is required")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"url": conf.AuthCodeURL(state),
	})
}

type linkRequest struct {
	Provider   string `json:"provider" validate:"required"`
	Code       string `json:"code" validate:"required"`
	WebchatUID string `json:"webchat_uid"`
}

type linkResponse struct {
	CustomerID string `json:"customer_id"`
	WebchatUID string `json:"webchat_uid"`
	ThreadID   string `json:"thread_id"`
}

// Link exchanges the OAuth code, reads the provider profile, and links
// the provider identity and the webchat identity to one customer.
func (h *LinkHandler) Link(c echo.Context) error {
	var req linkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ch, err := channel.Parse(req.Provider)
	if err != nil || ch == channel.Webchat {
		return echo.NewHTTPError(http.StatusBadRequest, "provider must be a messaging channel")
	}
	conf, err := h.oauthConfig(ch)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if h.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, h.client)
	}
	token, err := conf.Exchange(ctx, req.Code)
	if err != nil {
		h.logger.Warn("oauth exchange failed",
			slog.String("provider", string(ch)),
			slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusUnauthorized, "oauth exchange failed")
	}

	profile, err := h.fetchProfile(ctx, conf, h.logins[ch].ProfileURL, token)
	if err != nil {
		h.logger.Error("profile fetch failed", slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusBadGateway, "profile fetch failed")
	}

	res, err := h.linker.LinkWebchatVia(ctx, ch, profile.UID, profile.Email, req.WebchatUID, profile.DisplayName, profile.AvatarURL)
	if err != nil {
		if errors.Is(err, identity.ErrIdentityConflict) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		h.logger.Error("webchat link failed", slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, "link failed")
	}
	return c.JSON(http.StatusOK, linkResponse{
		CustomerID: res.Customer.ID,
		WebchatUID: res.Customer.WebchatUID,
		ThreadID:   res.ThreadID,
	})
}

type providerProfile struct {
	UID         string
	DisplayName string
	AvatarURL   string
	Email       string
}

// fetchProfile reads the provider's profile endpoint with the exchanged
// token. Field names differ between providers; both shapes are decoded.
func (h *LinkHandler) fetchProfile(ctx context.Context, conf *oauth2.Config, profileURL string, token *oauth2.Token) (providerProfile, error) {
	if profileURL == "" {
		return providerProfile{}, errors.New("profile url is not configured")
	}
	resp, err := conf.Client(ctx, token).Get(profileURL)
	if err != nil {
		return providerProfile{}, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return providerProfile{}, fmt.Errorf("fetch profile: status %d: %s", resp.StatusCode, detail)
	}

	var raw struct {
		UserID      string `json:"userId"`
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
		Name        string `json:"name"`
		PictureURL  string `json:"pictureUrl"`
		Email       string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return providerProfile{}, fmt.Errorf("decode profile: %w", err)
	}

	profile := providerProfile{
		UID:         raw.UserID,
		DisplayName: raw.DisplayName,
		AvatarURL:   raw.PictureURL,
		Email:       raw.Email,
	}
	if profile.UID == "" {
		profile.UID = raw.ID
	}
	if profile.DisplayName == "" {
		profile.DisplayName = raw.Name
	}
	if profile.UID == "" {
		return providerProfile{}, errors.New("profile has no user id")
	}
	return profile, nil
}
