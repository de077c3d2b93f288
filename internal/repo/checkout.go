package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thryvyng/club-api/internal/checkout"
	"github.com/thryvyng/club-api/internal/payment"
)

// CheckoutRepo persists checkout sessions. It implements checkout.Store for
// session creation and payment.SessionStore for webhook settlement.
type CheckoutRepo struct {
	Pool *pgxpool.Pool
}

// InsertSession records a newly opened hosted checkout session.
func (r CheckoutRepo) InsertSession(ctx context.Context, s checkout.Session) error {
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO checkout_sessions
			(id, kind, reference, provider, provider_session_id,
			 amount, currency, status, redirect_url, expires_at, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		s.ID, s.Kind, s.Reference, s.Provider, s.ProviderSessionID,
		s.Amount, s.Currency, s.Status, s.RedirectURL, s.ExpiresAt, s.Metadata, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert checkout session: %w", err)
	}
	return nil
}

// GetSession loads a checkout session by its id.
func (r CheckoutRepo) GetSession(ctx context.Context, id string) (checkout.Session, error) {
	var (
		s       checkout.Session
		expires pgtype.Int8
	)
	err := r.Pool.QueryRow(ctx, `
		SELECT id, kind, reference, provider, provider_session_id,
		       amount, currency, status, redirect_url, expires_at, created_at
		FROM checkout_sessions
		WHERE id = $1`, id).Scan(
		&s.ID, &s.Kind, &s.Reference, &s.Provider, &s.ProviderSessionID,
		&s.Amount, &s.Currency, &s.Status, &s.RedirectURL, &expires, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return checkout.Session{}, checkout.ErrSessionNotFound
		}
		return checkout.Session{}, fmt.Errorf("get checkout session: %w", err)
	}
	if expires.Valid {
		s.ExpiresAt = expires.Int64
	}
	return s, nil
}

// UpdateSessionStatus transitions the session matching the provider's session
// id and stores the raw webhook payload alongside it.
func (r CheckoutRepo) UpdateSessionStatus(ctx context.Context, providerSessionID, status string, payload []byte) (payment.SessionRef, error) {
	var ref payment.SessionRef
	err := r.Pool.QueryRow(ctx, `
		UPDATE checkout_sessions
		SET status = $2, provider_payload = $3, updated_at = now()
		WHERE provider_session_id = $1
		RETURNING id, kind, reference, status`,
		providerSessionID, status, payload).Scan(&ref.SessionID, &ref.Kind, &ref.Reference, &ref.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payment.SessionRef{}, payment.ErrSessionNotFound
		}
		return payment.SessionRef{}, fmt.Errorf("update checkout session: %w", err)
	}
	return ref, nil
}
