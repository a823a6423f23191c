package geo

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/spontis/backend-spontis/internal/common"
)

// Handler exposes address lookup endpoints used by the frontend forms.
type Handler struct {
	Client Client
}

// Autocomplete suggests addresses for the q query parameter.
func (h *Handler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < 3 {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "query must be at least 3 characters", nil)
		return
	}
	predictions, err := h.Client.Autocomplete(r.Context(), query)
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": predictions})
}

// PlaceDetails resolves a place ID.
func (h *Handler) PlaceDetails(w http.ResponseWriter, r *http.Request) {
	placeID := chi.URLParam(r, "placeID")
	if placeID == "" {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "place id is required", nil)
		return
	}
	place, err := h.Client.PlaceDetails(r.Context(), placeID)
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": place})
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
	common.JSONError(w, http.StatusBadGateway, "GEO_UPSTREAM", "address lookup failed", nil)
}
