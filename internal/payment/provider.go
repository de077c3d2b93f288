package payment

import (
	"context"
	"net/http"
)

// LineItem is one purchasable row on a hosted checkout page.
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int
}

// SessionRequest captures what is needed to open a hosted checkout session.
type SessionRequest struct {
	Reference  string
	Currency   string
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// SessionResponse is the minimal information returned when a session is
// created. URL is the externally hosted payment page the client redirects to.
type SessionResponse struct {
	Provider  string
	SessionID string
	URL       string
	ExpiresAt int64
}

// WebhookVerifyResult contains the normalised data extracted from a webhook
// notification after signature verification.
type WebhookVerifyResult struct {
	Valid           bool
	EventID         string
	EventType       string
	SessionID       string
	Reference       string
	Status          string
	ProviderPayload []byte
	Err             error
}

// Provider abstracts the upstream hosted-checkout provider.
type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (SessionResponse, error)
	VerifyWebhook(r *http.Request, body []byte) (WebhookVerifyResult, error)
}
