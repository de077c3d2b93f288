package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateSessionPostsFormAndDecodesResponse(t *testing.T) {
	var captured map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		captured = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cs_test_1","url":"https://checkout.stripe.com/c/pay/cs_test_1","expires_at":1756500000}`)
	}))
	defer srv.Close()

	provider := Stripe{SecretKey: "sk_test_123", BaseURL: srv.URL}
	resp, err := provider.CreateSession(context.Background(), SessionRequest{
		Reference:  "chk-1",
		Currency:   "USD",
		SuccessURL: "thryvyng://checkout/success",
		CancelURL:  "thryvyng://checkout/cancel",
		LineItems: []LineItem{
			{Name: "Spring Registration", UnitAmount: 30_000, Quantity: 1},
			{Name: "Team Hoodie", UnitAmount: 4_500, Quantity: 2},
		},
		Metadata: map[string]string{"kind": "cart"},
	})
	require.NoError(t, err)
	require.Equal(t, "cs_test_1", resp.SessionID)
	require.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", resp.URL)
	require.Equal(t, int64(1756500000), resp.ExpiresAt)

	require.Equal(t, "payment", captured["mode"][0])
	require.Equal(t, "chk-1", captured["client_reference_id"][0])
	require.Equal(t, "usd", captured["line_items[0][price_data][currency]"][0])
	require.Equal(t, "30000", captured["line_items[0][price_data][unit_amount]"][0])
	require.Equal(t, "2", captured["line_items[1][quantity]"][0])
	require.Equal(t, "cart", captured["metadata[kind]"][0])
}

func TestCreateSessionSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error":{"message":"Your card was declined."}}`)
	}))
	defer srv.Close()

	provider := Stripe{SecretKey: "sk_test_123", BaseURL: srv.URL}
	_, err := provider.CreateSession(context.Background(), SessionRequest{
		LineItems: []LineItem{{Name: "Spring Registration", UnitAmount: 30_000, Quantity: 1}},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Your card was declined.")
}

func TestCreateSessionRequiresLineItems(t *testing.T) {
	provider := Stripe{SecretKey: "sk_test_123"}
	_, err := provider.CreateSession(context.Background(), SessionRequest{})
	require.Error(t, err)
}

func signStripePayload(secret string, ts time.Time, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), body)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func webhookRequest(signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(""))
	req.Header.Set("Stripe-Signature", signature)
	return req
}

func TestVerifyWebhookAcceptsValidSignature(t *testing.T) {
	now := time.Unix(1_756_000_000, 0)
	body := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_test_1", "client_reference_id": "chk-1", "payment_status": "paid"}}
	}`)
	provider := Stripe{WebhookSecret: "whsec_test", Now: func() time.Time { return now }}

	result, err := provider.VerifyWebhook(webhookRequest(signStripePayload("whsec_test", now, body)), body)
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Equal(t, "evt_1", result.EventID)
	require.Equal(t, "cs_test_1", result.SessionID)
	require.Equal(t, "chk-1", result.Reference)
	require.Equal(t, "PAID", result.Status)
}

func TestVerifyWebhookRejectsWrongSecret(t *testing.T) {
	now := time.Unix(1_756_000_000, 0)
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	provider := Stripe{WebhookSecret: "whsec_test", Now: func() time.Time { return now }}

	result, err := provider.VerifyWebhook(webhookRequest(signStripePayload("whsec_other", now, body)), body)
	require.NoError(t, err)
	require.False(t, result.Valid)
}

func TestVerifyWebhookRejectsStaleTimestamp(t *testing.T) {
	now := time.Unix(1_756_000_000, 0)
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	provider := Stripe{WebhookSecret: "whsec_test", Now: func() time.Time { return now }}

	stale := now.Add(-10 * time.Minute)
	result, err := provider.VerifyWebhook(webhookRequest(signStripePayload("whsec_test", stale, body)), body)
	require.NoError(t, err)
	require.False(t, result.Valid)
}

func TestVerifyWebhookRejectsMissingHeader(t *testing.T) {
	provider := Stripe{WebhookSecret: "whsec_test"}
	result, err := provider.VerifyWebhook(httptest.NewRequest(http.MethodPost, "/webhooks/stripe", nil), []byte(`{}`))
	require.NoError(t, err)
	require.False(t, result.Valid)
}

func TestNormaliseStripeStatus(t *testing.T) {
	cases := []struct {
		eventType     string
		paymentStatus string
		want          string
	}{
		{"checkout.session.completed", "paid", "PAID"},
		{"checkout.session.completed", "unpaid", "PENDING"},
		{"checkout.session.async_payment_succeeded", "", "PAID"},
		{"checkout.session.async_payment_failed", "", "FAILED"},
		{"checkout.session.expired", "", "EXPIRED"},
		{"payment_intent.created", "", "PENDING"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, normaliseStripeStatus(tc.eventType, tc.paymentStatus), tc.eventType)
	}
}
