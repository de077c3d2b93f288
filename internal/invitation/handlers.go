package invitation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/thryvyng/club-api/internal/common"
	"github.com/thryvyng/club-api/internal/pricing"
)

// Handler wires the invitation wizard to HTTP.
type Handler struct {
	Svc *Service
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) (Snapshot, bool) {
	snap, err := h.Svc.Lookup(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "invitation not found", nil)
		} else {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load invitation", nil)
		}
		return Snapshot{}, false
	}
	return snap, true
}

// Get returns the full invitation snapshot for a token.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": snap})
}

// Steps returns the canonical step list with enabled flags plus the enabled
// subset used to render the progress indicator.
func (h *Handler) Steps(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	states := Steps(snap)
	enabled := Enabled(states)
	positions := make(map[string]int, len(enabled))
	for _, step := range enabled {
		if pos, ok := Position(states, step); ok {
			positions[step.String()] = pos
		}
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"steps":     states,
			"enabled":   enabled,
			"positions": positions,
		},
	})
}

// Plans returns the payment plans for one of the snapshot's packages with
// the derived due-today and per-installment amounts.
func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	pkg, found := snap.PackageByID(chi.URLParam(r, "packageId"))
	if !found {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "package not found", nil)
		return
	}
	plans := h.Svc.PlansForPackage(r.Context(), pkg)
	out := make([]map[string]any, 0, len(plans))
	for _, plan := range plans {
		out = append(out, map[string]any{
			"plan":                  plan,
			"dueToday":              pricing.DueToday(plan),
			"perInstallment":        pricing.PerInstallment(plan),
			"remainingInstallments": pricing.RemainingInstallments(plan),
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Accept marks the placement accepted.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Accept(r.Context(), snap); err != nil {
		if errors.Is(err, ErrAlreadyAccepted) {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "placement already accepted", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"status": "accepted"}})
}

// Answers validates and stores the custom question answers. Invalid fields
// are reported individually so the client can block only the offending ones.
func (h *Handler) Answers(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	var payload struct {
		Answers []Answer `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	fieldErrs, err := h.Svc.SubmitAnswers(r.Context(), snap, payload.Answers)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	if len(fieldErrs) > 0 {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "some answers are invalid", fieldErrs)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"saved": len(payload.Answers)}})
}

// Summary computes the derived registration totals for a session payload.
// Totals are recomputed on every call; nothing is persisted.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	var session Session
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": session.Summary(snap)})
}
