package invitation

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/thryvyng/club-api/internal/events"
	"github.com/thryvyng/club-api/internal/obs"
	"github.com/thryvyng/club-api/internal/pricing"
)

// ErrNotFound indicates no invitation exists for the token.
var ErrNotFound = errors.New("invitation not found")

// ErrAlreadyAccepted is returned when the placement was accepted before.
var ErrAlreadyAccepted = errors.New("placement already accepted")

// Querier defines the reads and writes the invitation service needs.
type Querier interface {
	GetInvitation(ctx context.Context, token string) (Snapshot, error)
	ListPaymentPlans(ctx context.Context, packageID string) ([]pricing.PaymentPlan, error)
	AcceptPlacement(ctx context.Context, placementID string) error
	SaveAnswers(ctx context.Context, placementID string, answers []Answer) error
}

// Service exposes the invitation wizard's backend operations.
type Service struct {
	Q      Querier
	Events *events.Bus
	Log    zerolog.Logger
}

// Lookup fetches the immutable snapshot for a token.
func (s *Service) Lookup(ctx context.Context, token string) (Snapshot, error) {
	if s == nil || s.Q == nil {
		return Snapshot{}, errors.New("invitation service not configured")
	}
	if token == "" {
		return Snapshot{}, ErrNotFound
	}
	snap, err := s.Q.GetInvitation(ctx, token)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Token = token
	return snap, nil
}

// PlansForPackage loads the payment plans for a package. A failed or empty
// lookup degrades to a single pay-in-full plan derived from the package
// price rather than failing the flow.
func (s *Service) PlansForPackage(ctx context.Context, pkg Package) []pricing.PaymentPlan {
	if s == nil || s.Q == nil {
		return []pricing.PaymentPlan{pricing.PayInFull(pkg.Price)}
	}
	plans, err := s.Q.ListPaymentPlans(ctx, pkg.ID)
	if err != nil {
		s.Log.Error().Err(err).Str("package_id", pkg.ID).Msg("load payment plans, falling back to pay in full")
		return []pricing.PaymentPlan{pricing.PayInFull(pkg.Price)}
	}
	if len(plans) == 0 {
		return []pricing.PaymentPlan{pricing.PayInFull(pkg.Price)}
	}
	return plans
}

// Accept marks the placement accepted and emits a domain event.
func (s *Service) Accept(ctx context.Context, snap Snapshot) error {
	if s == nil || s.Q == nil {
		return errors.New("invitation service not configured")
	}
	if snap.Placement.Status == "accepted" {
		recordAccept("already_accepted")
		return ErrAlreadyAccepted
	}
	if err := s.Q.AcceptPlacement(ctx, snap.Placement.ID); err != nil {
		recordAccept("error")
		return fmt.Errorf("accept placement: %w", err)
	}
	recordAccept("ok")
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicInvitationAccepted, snap.Placement.ID, map[string]any{
			"placementId": snap.Placement.ID,
			"playerId":    snap.Player.ID,
			"teamId":      snap.Team.ID,
		})
	}
	return nil
}

// SubmitAnswers validates the answers against the snapshot's questions and
// persists them. Validation failures are returned per field; nothing is
// saved when any field is invalid.
func (s *Service) SubmitAnswers(ctx context.Context, snap Snapshot, answers []Answer) ([]FieldError, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("invitation service not configured")
	}
	if fieldErrs := ValidateAnswers(snap.Questions, answers); len(fieldErrs) > 0 {
		return fieldErrs, nil
	}
	if err := s.Q.SaveAnswers(ctx, snap.Placement.ID, answers); err != nil {
		return nil, fmt.Errorf("save answers: %w", err)
	}
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicAnswersSubmitted, snap.Placement.ID, map[string]any{
			"placementId": snap.Placement.ID,
			"answered":    len(answers),
		})
	}
	return nil, nil
}

func recordAccept(result string) {
	if obs.InvitationAcceptTotal != nil {
		obs.InvitationAcceptTotal.WithLabelValues(result).Inc()
	}
}
