package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/thryvyng/club-api/internal/cart"
	"github.com/thryvyng/club-api/internal/events"
	"github.com/thryvyng/club-api/internal/invitation"
	"github.com/thryvyng/club-api/internal/obs"
	"github.com/thryvyng/club-api/internal/payment"
	"github.com/thryvyng/club-api/internal/pricing"
)

// ErrEmptyCart is returned when a cart checkout is requested with no items.
var ErrEmptyCart = errors.New("cart is empty")

// ErrSessionNotFound is returned when a checkout session id is unknown.
var ErrSessionNotFound = errors.New("checkout session not found")

// ErrNothingDue is returned when a family checkout resolves to a zero charge.
// Discounts can cover the whole amount; there is nothing to hand to the
// payment provider in that case.
var ErrNothingDue = errors.New("nothing due today")

// Session is the persisted record of one hosted checkout handoff.
type Session struct {
	ID                string        `json:"id"`
	Kind              string        `json:"kind"`
	Reference         string        `json:"reference"`
	Provider          string        `json:"provider"`
	ProviderSessionID string        `json:"providerSessionId"`
	Amount            pricing.Money `json:"amount"`
	Currency          string        `json:"currency"`
	Status            string        `json:"status"`
	RedirectURL       string        `json:"redirectUrl"`
	ExpiresAt         int64         `json:"expiresAt,omitempty"`
	Metadata          []byte        `json:"-"`
	CreatedAt         time.Time     `json:"createdAt"`
}

// Store persists checkout sessions.
type Store interface {
	InsertSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, id string) (Session, error)
}

// Service opens hosted checkout sessions for carts and family registrations.
type Service struct {
	Provider   payment.Provider
	Store      Store
	CartSvc    *cart.Service
	Events     *events.Bus
	Log        zerolog.Logger
	Currency   string
	SuccessURL string
	CancelURL  string
	Now        func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateCartSession opens a hosted checkout session for the owner's cart.
// Every cart item becomes a line item; a stored referral code rides along as
// provider metadata so settlement can attribute the sale.
func (s *Service) CreateCartSession(ctx context.Context, owner string) (Session, error) {
	if s == nil || s.Provider == nil || s.Store == nil || s.CartSvc == nil {
		return Session{}, errors.New("checkout service not configured")
	}
	c, err := s.CartSvc.Get(ctx, owner)
	if err != nil {
		return Session{}, err
	}
	if c.ItemCount() == 0 {
		recordSession("cart", "empty")
		return Session{}, ErrEmptyCart
	}

	lineItems := make([]payment.LineItem, 0, len(c.Items))
	for _, item := range c.Items {
		lineItems = append(lineItems, payment.LineItem{
			Name:       item.Name,
			UnitAmount: item.Price,
			Quantity:   item.Quantity,
		})
	}
	metadata := map[string]string{
		"kind":     "cart",
		"clientId": owner,
	}
	if referral, err := s.CartSvc.Referral(ctx, owner); err == nil && referral != "" {
		metadata["referralCode"] = referral
	}
	return s.open(ctx, "cart", owner, c.Subtotal(), lineItems, metadata)
}

// CreateFamilySession opens a hosted checkout session for an invitation
// wizard run. The charge is the recomputed due-today amount, never a total
// carried over from the client.
func (s *Service) CreateFamilySession(ctx context.Context, snap invitation.Snapshot, sess invitation.Session) (Session, error) {
	if s == nil || s.Provider == nil || s.Store == nil {
		return Session{}, errors.New("checkout service not configured")
	}
	summary := sess.Summary(snap)
	if summary.DueToday <= 0 {
		recordSession("family", "nothing_due")
		return Session{}, ErrNothingDue
	}

	name := "Registration"
	if snap.Program.Name != "" {
		name = snap.Program.Name + " registration"
	}
	lineItems := []payment.LineItem{{
		Name:       name,
		UnitAmount: summary.DueToday,
		Quantity:   1,
	}}
	metadata := map[string]string{
		"kind":    "family",
		"token":   snap.Token,
		"players": strconv.Itoa(len(sess.Players)),
		"total":   strconv.FormatInt(summary.Total, 10),
	}
	if sess.AidRequested {
		metadata["aidRequested"] = "true"
		if sess.AidNote != "" {
			metadata["aidNote"] = sess.AidNote
		}
	}
	return s.open(ctx, "family", snap.Token, summary.DueToday, lineItems, metadata)
}

func (s *Service) open(ctx context.Context, kind, owner string, amount pricing.Money, lineItems []payment.LineItem, metadata map[string]string) (Session, error) {
	reference := uuid.NewString()
	resp, err := s.Provider.CreateSession(ctx, payment.SessionRequest{
		Reference:  reference,
		Currency:   s.Currency,
		LineItems:  lineItems,
		SuccessURL: s.SuccessURL,
		CancelURL:  s.CancelURL,
		Metadata:   metadata,
	})
	if err != nil {
		recordSession(kind, "provider_error")
		return Session{}, fmt.Errorf("checkout: create %s session: %w", kind, err)
	}

	encoded, _ := json.Marshal(metadata)
	session := Session{
		ID:                reference,
		Kind:              kind,
		Reference:         owner,
		Provider:          resp.Provider,
		ProviderSessionID: resp.SessionID,
		Amount:            amount,
		Currency:          s.Currency,
		Status:            "PENDING",
		RedirectURL:       resp.URL,
		ExpiresAt:         resp.ExpiresAt,
		Metadata:          encoded,
		CreatedAt:         s.now(),
	}
	if err := s.Store.InsertSession(ctx, session); err != nil {
		// The provider session exists but we cannot track it, so the
		// webhook would have nothing to settle against. Fail the call.
		recordSession(kind, "store_error")
		return Session{}, fmt.Errorf("checkout: persist session: %w", err)
	}

	recordSession(kind, "ok")
	if s.Events != nil {
		if _, err := s.Events.Emit(ctx, events.TopicCheckoutCreated, session.ID, map[string]any{
			"sessionId": session.ID,
			"kind":      kind,
			"amount":    amount,
			"currency":  s.Currency,
		}); err != nil {
			s.Log.Warn().Err(err).Str("session_id", session.ID).Msg("emit checkout created")
		}
	}
	return session, nil
}

func recordSession(kind, result string) {
	if obs.CheckoutSessionTotal != nil {
		obs.CheckoutSessionTotal.WithLabelValues(kind, result).Inc()
	}
}
