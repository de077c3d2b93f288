package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	result WebhookVerifyResult
	err    error
}

func (s stubProvider) CreateSession(context.Context, SessionRequest) (SessionResponse, error) {
	return SessionResponse{}, nil
}

func (s stubProvider) VerifyWebhook(*http.Request, []byte) (WebhookVerifyResult, error) {
	return s.result, s.err
}

type stubSessionStore struct {
	lastSessionID string
	lastStatus    string
	err           error
}

func (s *stubSessionStore) UpdateSessionStatus(_ context.Context, sessionID, status string, _ []byte) (SessionRef, error) {
	if s.err != nil {
		return SessionRef{}, s.err
	}
	s.lastSessionID = sessionID
	s.lastStatus = status
	return SessionRef{SessionID: sessionID, Kind: "cart", Status: status}, nil
}

func replayClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func postWebhook(h Webhook, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Handle(rr, req)
	return rr
}

func TestWebhookSettlesSession(t *testing.T) {
	store := &stubSessionStore{}
	h := Webhook{
		Provider: stubProvider{result: WebhookVerifyResult{Valid: true, SessionID: "cs_test_1", Status: "PAID"}},
		Store:    store,
	}
	rr := postWebhook(h, `{"id":"evt_1"}`)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, "cs_test_1", store.lastSessionID)
	require.Equal(t, "PAID", store.lastStatus)
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	store := &stubSessionStore{}
	h := Webhook{
		Provider: stubProvider{result: WebhookVerifyResult{Valid: false}},
		Store:    store,
	}
	rr := postWebhook(h, `{"id":"evt_1"}`)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Empty(t, store.lastSessionID)
}

func TestWebhookRejectsReplayedPayload(t *testing.T) {
	store := &stubSessionStore{}
	h := Webhook{
		Provider:  stubProvider{result: WebhookVerifyResult{Valid: true, SessionID: "cs_test_1", Status: "PAID"}},
		Store:     store,
		Replay:    replayClient(t),
		ReplayTTL: time.Hour,
	}
	rr := postWebhook(h, `{"id":"evt_1"}`)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = postWebhook(h, `{"id":"evt_1"}`)
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestWebhookUnknownSession(t *testing.T) {
	h := Webhook{
		Provider: stubProvider{result: WebhookVerifyResult{Valid: true, SessionID: "cs_missing", Status: "PAID"}},
		Store:    &stubSessionStore{err: ErrSessionNotFound},
	}
	rr := postWebhook(h, `{"id":"evt_1"}`)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
