package mandate

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spontis/backend-spontis/internal/common"
)

// Handler exposes the mandate HTTP endpoints.
type Handler struct {
	Service *Service
}

// Quote runs the pricing pipeline without creating anything.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var in QuoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	result, err := h.Service.Quote(r.Context(), in)
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// Create posts a new mandate.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	var in QuoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	mandat, err := h.Service.Create(r.Context(), userID, in)
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": mandat})
}

// Get returns one mandate.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	mandat, err := h.Service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": mandat})
}

// ListOwn returns the mandates of the actor's company.
func (h *Handler) ListOwn(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	page, perPage := common.ParsePagination(r, 20)
	mandats, err := h.Service.ListOwn(r.Context(), userID, page, perPage)
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": mandats,
		"meta": common.Pagination{Page: page, PerPage: perPage, TotalItems: len(mandats)},
	})
}

// ListOpen returns the open market.
func (h *Handler) ListOpen(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	mandats, err := h.Service.ListOpen(r.Context(), page, perPage)
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": mandats,
		"meta": common.Pagination{Page: page, PerPage: perPage, TotalItems: len(mandats)},
	})
}

// Accept claims an open mandate for the carrier's company.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	mandat, err := h.Service.Accept(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": mandat})
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus advances the carrier status flow.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	mandat, err := h.Service.Advance(r.Context(), userID, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": mandat})
}

// AdminList returns all mandates for moderation.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	mandats, err := h.Service.ListAll(r.Context(), page, perPage)
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": mandats,
		"meta": common.Pagination{Page: page, PerPage: perPage, TotalItems: len(mandats)},
	})
}

// AdminSuspend suspends a mandate.
func (h *Handler) AdminSuspend(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, "suspended")
}

// AdminCancel cancels a mandate.
func (h *Handler) AdminCancel(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, "cancelled")
}

// AdminReopen puts a suspended mandate back on the market.
func (h *Handler) AdminReopen(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, "open")
}

// AdminEvents returns the persisted event trail of a mandate.
func (h *Handler) AdminEvents(w http.ResponseWriter, r *http.Request) {
	records, err := h.Service.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": records})
}

func (h *Handler) moderate(w http.ResponseWriter, r *http.Request, status string) {
	mandat, err := h.Service.Moderate(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": mandat})
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
