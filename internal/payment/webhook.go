package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/thryvyng/club-api/internal/common"
	"github.com/thryvyng/club-api/internal/events"
	"github.com/thryvyng/club-api/internal/obs"
)

// SessionRef identifies the checkout session a webhook settles.
type SessionRef struct {
	SessionID string
	Kind      string
	Reference string
	Status    string
}

// SessionStore records checkout session state transitions driven by webhooks.
type SessionStore interface {
	UpdateSessionStatus(ctx context.Context, sessionID, status string, payload []byte) (SessionRef, error)
}

// ErrSessionNotFound is returned by stores when no session matches.
var ErrSessionNotFound = errors.New("checkout session not found")

// Webhook handles provider callbacks: signature verification, replay
// protection and session settlement.
type Webhook struct {
	Provider  Provider
	Store     SessionStore
	Replay    *redis.Client
	ReplayTTL time.Duration
	Events    *events.Bus
}

// Handle processes a webhook callback from the hosted checkout provider.
func (h Webhook) Handle(w http.ResponseWriter, r *http.Request) {
	if h.Provider == nil || h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_NOT_CONFIGURED", "webhook unavailable", nil)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "unable to read payload", nil)
		return
	}
	result, err := h.Provider.VerifyWebhook(r, body)
	if err != nil {
		recordWebhook("error")
		common.JSONError(w, http.StatusBadRequest, "WEBHOOK_INVALID", err.Error(), nil)
		return
	}
	if !result.Valid {
		recordWebhook("invalid_signature")
		common.JSONError(w, http.StatusUnauthorized, "INVALID_SIGNATURE", "signature verification failed", nil)
		return
	}
	if h.Replay != nil && h.ReplayTTL > 0 {
		key := fmt.Sprintf("wh:stripe:%s", common.Sha256Hex(string(body)))
		ok, err := h.Replay.SetNX(r.Context(), key, "1", h.ReplayTTL).Result()
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "REPLAY_STORE_ERROR", err.Error(), nil)
			return
		}
		if !ok {
			recordWebhook("replay")
			common.JSONError(w, http.StatusConflict, "REPLAY", "duplicate webhook", nil)
			return
		}
	}

	ref, err := h.Store.UpdateSessionStatus(r.Context(), result.SessionID, result.Status, result.ProviderPayload)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			recordWebhook("unknown_session")
			common.JSONError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "checkout session not found", nil)
			return
		}
		recordWebhook("error")
		common.JSONError(w, http.StatusInternalServerError, "SESSION_UPDATE_ERROR", err.Error(), nil)
		return
	}

	recordWebhook("ok")
	if h.Events != nil && result.Status == "PAID" {
		_, _ = h.Events.Emit(r.Context(), events.TopicCheckoutCompleted, ref.SessionID, map[string]any{
			"sessionId": ref.SessionID,
			"kind":      ref.Kind,
			"reference": ref.Reference,
		})
	}
	w.WriteHeader(http.StatusNoContent)
}

func recordWebhook(result string) {
	if obs.PaymentWebhookTotal != nil {
		obs.PaymentWebhookTotal.WithLabelValues("stripe", result).Inc()
	}
}
