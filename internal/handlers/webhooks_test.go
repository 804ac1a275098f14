package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydesk/relaydesk/internal/channel"
	"github.com/relaydesk/relaydesk/internal/config"
	"github.com/relaydesk/relaydesk/internal/customer"
	"github.com/relaydesk/relaydesk/internal/identity"
	"github.com/relaydesk/relaydesk/internal/ingest"
	"github.com/relaydesk/relaydesk/internal/message"
)

type stubLinker struct{}

func (stubLinker) Link(_ context.Context, req identity.LinkRequest) (identity.LinkResult, error) {
	return identity.LinkResult{
		Customer: customer.Customer{ID: "c1"},
		ThreadID: channel.ThreadID(req.Channel, req.NativeID),
	}, nil
}

type stubMessages struct {
	seen []string
}

func (s *stubMessages) ExistsByEventID(_ context.Context, eventID string) (bool, error) {
	for _, id := range s.seen {
		if id == eventID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubMessages) Persist(_ context.Context, in message.PersistInput) (message.Message, error) {
	if in.EventID != "" {
		s.seen = append(s.seen, in.EventID)
	}
	return message.Message{ID: int64(len(s.seen)), ThreadID: in.ThreadID, Question: in.Question}, nil
}

type stubToucher struct{}

func (stubToucher) TouchInteraction(context.Context, string, time.Time) error { return nil }
func (stubToucher) TouchFriendInteraction(context.Context, channel.Channel, string, time.Time) error {
	return nil
}
func (stubToucher) SetFriendFollowing(context.Context, channel.Channel, string, bool, time.Time) error {
	return nil
}

type stubThreadToucher struct{}

func (stubThreadToucher) Touch(context.Context, string, time.Time) error { return nil }

type stubHub struct{ published int }

func (s *stubHub) Publish(string, any) int {
	s.published++
	return 1
}

func newWebhookFixture(t *testing.T) (*echo.Echo, *stubHub, *stubMessages) {
	t.Helper()
	hub := &stubHub{}
	messages := &stubMessages{}
	normalizer := ingest.NewNormalizer(nil, stubLinker{}, messages, stubToucher{}, stubThreadToucher{}, hub)
	h := NewWebhookHandler(nil, normalizer, config.Config{
		Line:      config.LineConfig{ChannelSecret: "line-secret"},
		Messenger: config.MessengerConfig{AppSecret: "app-secret", VerifyToken: "verify-me"},
		Webchat:   config.WebchatConfig{WidgetSecret: "widget-secret"},
	})
	e := echo.New()
	e.Validator = NewValidator()
	h.Register(e)
	return e, hub, messages
}

func lineSign(body string) string {
	mac := hmac.New(sha256.New, []byte("line-secret"))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestLineWebhookProcessesSignedBody(t *testing.T) {
	e, hub, _ := newWebhookFixture(t)
	body := `{"events":[{"type":"message","timestamp":1717243200000,
		"source":{"type":"user","userId":"U100"},
		"message":{"id":"evt-1","type":"text","text":"hello"}}]}`

	req := httptest.NewRequest(http.MethodPost, "/webhooks/line", strings.NewReader(body))
	req.Header.Set("X-Line-Signature", lineSign(body))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, hub.published)
}

func TestLineWebhookRejectsBadSignature(t *testing.T) {
	e, hub, _ := newWebhookFixture(t)
	body := `{"events":[]}`

	req := httptest.NewRequest(http.MethodPost, "/webhooks/line", strings.NewReader(body))
	req.Header.Set("X-Line-Signature", "bogus")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, hub.published)
}

func TestLineWebhookReplayIsAbsorbed(t *testing.T) {
	e, hub, messages := newWebhookFixture(t)
	body := `{"events":[{"type":"message","timestamp":1717243200000,
		"source":{"type":"user","userId":"U100"},
		"message":{"id":"evt-1","type":"text","text":"hello"}}]}`

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/line", strings.NewReader(body))
		req.Header.Set("X-Line-Signature", lineSign(body))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Len(t, messages.seen, 1)
	assert.Equal(t, 1, hub.published)
}

func TestMessengerVerifyHandshake(t *testing.T) {
	e, _, _ := newWebhookFixture(t)

	req := httptest.NewRequest(http.MethodGet,
		"/webhooks/messenger?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet,
		"/webhooks/messenger?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWebchatMessageRequiresWidgetSecret(t *testing.T) {
	e, hub, _ := newWebhookFixture(t)
	body := `{"uid":"w-1","text":"hi","event_id":"e-1"}`

	req := httptest.NewRequest(http.MethodPost, "/webchat/message", strings.NewReader(body))
	req.Header.Set("X-Widget-Secret", "widget-secret")
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, hub.published)

	req = httptest.NewRequest(http.MethodPost, "/webchat/message", strings.NewReader(body))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
