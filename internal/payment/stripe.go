package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/thryvyng/club-api/internal/common"
	"github.com/thryvyng/club-api/internal/resilience"
)

// Stripe implements the Provider interface against the Stripe hosted
// Checkout Sessions API.
type Stripe struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
	HTTP          *resilience.HTTPClient
	// Tolerance bounds the accepted age of a signed webhook timestamp.
	Tolerance time.Duration
	Now       func() time.Time
}

func (s Stripe) apiHost() string {
	host := strings.TrimSpace(s.BaseURL)
	if host == "" {
		return "https://api.stripe.com"
	}
	return strings.TrimRight(host, "/")
}

func (s Stripe) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s Stripe) tolerance() time.Duration {
	if s.Tolerance <= 0 {
		return 5 * time.Minute
	}
	return s.Tolerance
}

// CreateSession opens a hosted checkout session and returns its redirect URL.
func (s Stripe) CreateSession(ctx context.Context, req SessionRequest) (SessionResponse, error) {
	if strings.TrimSpace(s.SecretKey) == "" {
		return SessionResponse{}, errors.New("stripe secret key not configured")
	}
	if len(req.LineItems) == 0 {
		return SessionResponse{}, errors.New("at least one line item is required")
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	if req.Reference != "" {
		form.Set("client_reference_id", req.Reference)
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "usd"
	}
	for i, item := range req.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", currency)
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		form.Set(prefix+"[quantity]", strconv.Itoa(qty))
	}
	for key, value := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiHost()+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return SessionResponse{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.SecretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.do(ctx, httpReq)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("stripe: create session: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		var failure struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		message := strings.TrimSpace(failure.Error.Message)
		if message == "" {
			message = resp.Status
		}
		// The raw provider message is user-retriable and surfaced as-is.
		return SessionResponse{}, common.NewAppError("PROVIDER_REJECTED", "stripe: "+message, http.StatusBadGateway, nil)
	}

	var session struct {
		ID        string `json:"id"`
		URL       string `json:"url"`
		ExpiresAt int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return SessionResponse{}, fmt.Errorf("stripe: decode session: %w", err)
	}
	if session.URL == "" {
		return SessionResponse{}, errors.New("stripe: session response missing redirect url")
	}
	return SessionResponse{
		Provider:  "stripe",
		SessionID: session.ID,
		URL:       session.URL,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (s Stripe) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if s.HTTP != nil {
		return s.HTTP.Do(ctx, req)
	}
	return http.DefaultClient.Do(req)
}

// VerifyWebhook validates the Stripe-Signature header and normalises the
// event payload into WebhookVerifyResult.
func (s Stripe) VerifyWebhook(r *http.Request, body []byte) (WebhookVerifyResult, error) {
	header := ""
	if r != nil {
		header = r.Header.Get("Stripe-Signature")
	}
	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return WebhookVerifyResult{Valid: false, Err: err}, nil
	}
	age := s.now().Sub(time.Unix(timestamp, 0))
	if age < 0 {
		age = -age
	}
	if age > s.tolerance() {
		return WebhookVerifyResult{Valid: false, Err: errors.New("signature timestamp outside tolerance")}, nil
	}

	expected := s.computeSignature(timestamp, body)
	matched := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			matched = true
			break
		}
	}
	if !matched {
		return WebhookVerifyResult{Valid: false, Err: errors.New("invalid signature")}, nil
	}

	var event struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID                string `json:"id"`
				ClientReferenceID string `json:"client_reference_id"`
				PaymentStatus     string `json:"payment_status"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		return WebhookVerifyResult{Valid: false, Err: err}, nil
	}
	return WebhookVerifyResult{
		Valid:           true,
		EventID:         event.ID,
		EventType:       event.Type,
		SessionID:       event.Data.Object.ID,
		Reference:       event.Data.Object.ClientReferenceID,
		Status:          normaliseStripeStatus(event.Type, event.Data.Object.PaymentStatus),
		ProviderPayload: body,
	}, nil
}

func (s Stripe) computeSignature(timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(s.WebhookSecret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(header string) (int64, []string, error) {
	if strings.TrimSpace(header) == "" {
		return 0, nil, errors.New("missing Stripe-Signature header")
	}
	var (
		timestamp  int64
		signatures []string
	)
	for _, part := range strings.Split(header, ",") {
		pair := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(pair) != 2 {
			continue
		}
		switch pair[0] {
		case "t":
			parsed, err := strconv.ParseInt(pair[1], 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("invalid signature timestamp: %w", err)
			}
			timestamp = parsed
		case "v1":
			signatures = append(signatures, pair[1])
		}
	}
	if timestamp == 0 || len(signatures) == 0 {
		return 0, nil, errors.New("malformed Stripe-Signature header")
	}
	return timestamp, signatures, nil
}

func normaliseStripeStatus(eventType, paymentStatus string) string {
	switch eventType {
	case "checkout.session.completed":
		if strings.EqualFold(paymentStatus, "paid") {
			return "PAID"
		}
		return "PENDING"
	case "checkout.session.async_payment_succeeded":
		return "PAID"
	case "checkout.session.async_payment_failed":
		return "FAILED"
	case "checkout.session.expired":
		return "EXPIRED"
	default:
		return "PENDING"
	}
}
