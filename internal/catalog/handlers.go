package catalog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/thryvyng/club-api/internal/common"
)

// Handler exposes the catalog reads over HTTP.
type Handler struct {
	Svc *Service
}

const defaultPerPage = 20

// Products lists the store items.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.Svc.Products(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	page, perPage := common.ParsePagination(r, defaultPerPage)
	common.JSON(w, http.StatusOK, map[string]any{
		"data": pageOf(products, page, perPage),
		"meta": common.Pagination{Page: page, PerPage: perPage, TotalItems: len(products)},
	})
}

// Product returns one store item.
func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	product, err := h.Svc.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": product})
}

// Courses lists the course summaries. The full list comes from the cache;
// pages are cut from it here rather than per-page in Redis.
func (h *Handler) Courses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.Svc.Courses(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	page, perPage := common.ParsePagination(r, defaultPerPage)
	common.JSON(w, http.StatusOK, map[string]any{
		"data": pageOf(courses, page, perPage),
		"meta": common.Pagination{Page: page, PerPage: perPage, TotalItems: len(courses)},
	})
}

// Course returns one course with modules and lessons.
func (h *Handler) Course(w http.ResponseWriter, r *http.Request) {
	course, err := h.Svc.Course(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": course})
}

// Enrollments lists a player's course enrollments.
func (h *Handler) Enrollments(w http.ResponseWriter, r *http.Request) {
	enrollments, err := h.Svc.Enrollments(r.Context(), chi.URLParam(r, "playerId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": enrollments})
}

// Certificates lists a player's certificates.
func (h *Handler) Certificates(w http.ResponseWriter, r *http.Request) {
	certs, err := h.Svc.Certificates(r.Context(), chi.URLParam(r, "playerId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": certs})
}

// pageOf cuts the requested page out of a full list. Out-of-range pages
// yield an empty slice, not an error.
func pageOf[T any](items []T, page, perPage int) []T {
	start := (page - 1) * perPage
	if start >= len(items) {
		return []T{}
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "catalog entry not found", nil)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load catalog", nil)
}
