package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/thryvyng/club-api/internal/common"
	"github.com/thryvyng/club-api/internal/invitation"
	"github.com/thryvyng/club-api/internal/pricing"
)

// Handler wires checkout session creation to HTTP.
type Handler struct {
	Svc      *Service
	Invites  *invitation.Service
	Validate *validator.Validate
}

type familyPayload struct {
	Players []pricing.SelectedPlayer `json:"players" validate:"required,min=1,dive"`
	Answers []invitation.Answer      `json:"answers"`

	VolunteerPositions []string      `json:"volunteerPositions"`
	Donation           pricing.Money `json:"donation" validate:"gte=0"`
	AidRequested       bool          `json:"aidRequested"`
	AidNote            string        `json:"aidNote" validate:"max=2000"`
}

func (h *Handler) validate() *validator.Validate {
	if h.Validate == nil {
		h.Validate = validator.New()
	}
	return h.Validate
}

// CreateCartSession opens a hosted checkout session for the caller's cart.
func (h *Handler) CreateCartSession(w http.ResponseWriter, r *http.Request) {
	owner := clientID(r)
	if owner == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "client id is required", nil)
		return
	}
	session, err := h.Svc.CreateCartSession(r.Context(), owner)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": sessionBody(session)})
}

// CreateFamilySession opens a hosted checkout session for an invitation
// wizard run identified by its token.
func (h *Handler) CreateFamilySession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Invites.Lookup(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		if errors.Is(err, invitation.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "invitation not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load invitation", nil)
		return
	}
	var payload familyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validate().Struct(payload); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "invalid checkout payload", validationDetails(err))
		return
	}
	players, err := snap.ResolvePlayers(payload.Players)
	if err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
		return
	}
	sess := invitation.Session{Token: snap.Token}.
		WithPlayers(players).
		WithAnswers(payload.Answers).
		WithVolunteerPositions(payload.VolunteerPositions).
		WithDonation(payload.Donation)
	if snap.Settings.FinancialAidEnabled {
		sess = sess.WithAid(payload.AidRequested, payload.AidNote)
	}

	session, err := h.Svc.CreateFamilySession(r.Context(), snap, sess)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": sessionBody(session)})
}

// GetSession returns the tracked state of a checkout session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.Svc.Store.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": session})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "EMPTY_CART", "cart has no items", nil)
	case errors.Is(err, ErrNothingDue):
		common.JSONError(w, http.StatusUnprocessableEntity, "NOTHING_DUE", "nothing due today", nil)
	case errors.Is(err, ErrSessionNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "checkout session not found", nil)
	default:
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
			return
		}
		common.JSONError(w, http.StatusBadGateway, "PROVIDER_ERROR", err.Error(), nil)
	}
}

func sessionBody(s Session) map[string]any {
	return map[string]any{
		"sessionId": s.ID,
		"provider":  s.Provider,
		"url":       s.RedirectURL,
		"amount":    s.Amount,
		"currency":  s.Currency,
		"expiresAt": s.ExpiresAt,
	}
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]map[string]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, map[string]string{
			"field": fe.Field(),
			"rule":  fe.Tag(),
		})
	}
	return out
}

func clientID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Client-ID")); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get("clientId"))
}
