package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/thryvyng/club-api/internal/common"
)

// Handler wires the cart service to HTTP.
type Handler struct {
	Svc *Service
}

func ownerID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Client-ID")); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get("clientId"))
}

func cartBody(c Cart) map[string]any {
	items := c.Items
	if items == nil {
		items = []Item{}
	}
	return map[string]any{
		"items":     items,
		"itemCount": c.ItemCount(),
		"subtotal":  c.Subtotal(),
	}
}

// Get returns the owner's cart contents and derived totals.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "client id is required", nil)
		return
	}
	c, err := h.Svc.Get(r.Context(), owner)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cartBody(c)})
}

// AddItem adds or increments a cart line item.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "client id is required", nil)
		return
	}
	var payload Item
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if payload.ID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "id is required", nil)
		return
	}
	if !payload.Type.Valid() {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown item type", nil)
		return
	}
	c, err := h.Svc.AddItem(r.Context(), owner, payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cartBody(c)})
}

// UpdateItem sets the quantity for a cart line item; quantity zero removes it.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "client id is required", nil)
		return
	}
	itemType, ok := ParseItemType(chi.URLParam(r, "type"))
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown item type", nil)
		return
	}
	var payload struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	c, err := h.Svc.UpdateQuantity(r.Context(), owner, chi.URLParam(r, "id"), itemType, payload.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cartBody(c)})
}

// RemoveItem deletes a cart line item.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "client id is required", nil)
		return
	}
	itemType, ok := ParseItemType(chi.URLParam(r, "type"))
	if !ok {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unknown item type", nil)
		return
	}
	c, err := h.Svc.RemoveItem(r.Context(), owner, chi.URLParam(r, "id"), itemType)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cartBody(c)})
}

// Clear empties the cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "client id is required", nil)
		return
	}
	if err := h.Svc.Clear(r.Context(), owner); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": cartBody(Cart{})})
}

// Referral returns the stored referral code.
func (h *Handler) Referral(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "client id is required", nil)
		return
	}
	code, err := h.Svc.Referral(r.Context(), owner)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var body *string
	if code != "" {
		body = &code
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"referralCode": body}})
}

// SetReferral stores a referral code for the owner.
func (h *Handler) SetReferral(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "client id is required", nil)
		return
	}
	var payload struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Svc.SetReferral(r.Context(), owner, strings.TrimSpace(payload.Code)); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"referralCode": payload.Code}})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}
