package pricingset

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spontis/backend-spontis/internal/common"
)

// Handler exposes the admin endpoints for pricing configuration.
type Handler struct {
	Service *Service
}

// List returns all pricing sets.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sets, err := h.Service.List(r.Context())
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": sets})
}

// Get returns a single pricing set.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	set, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": set})
}

// Create stores a new inactive pricing set.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	set, err := h.Service.Create(r.Context(), in)
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": set})
}

// Update edits a pricing set and bumps its version.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	set, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": set})
}

// Activate makes the given set the single active configuration.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	set, err := h.Service.Activate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": set})
}

// Active returns the currently active set.
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	set, err := h.Service.Active(r.Context())
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": set})
}

func renderError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
}
