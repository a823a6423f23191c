package company

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/spontis/backend-spontis/internal/common"
)

// Handler exposes the company HTTP endpoints.
type Handler struct {
	Service *Service
}

// Create registers a company for the authenticated user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	company, err := h.Service.Create(r.Context(), userID, in)
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": company})
}

// Mine returns the actor's company.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	company, err := h.Service.Mine(r.Context(), userID)
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": company})
}

// Update edits the actor's company.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	company, err := h.Service.Update(r.Context(), userID, in)
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": company})
}

// Members lists the company's members.
func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	members, err := h.Service.Members(r.Context(), userID)
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": members})
}

// RemoveMember removes a member from the company.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	if err := h.Service.RemoveMember(r.Context(), userID, chi.URLParam(r, "userID")); err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"status": "removed"}})
}

type inviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Invite issues an invitation token.
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	invitation, err := h.Service.Invite(r.Context(), userID, req.Email, req.Role)
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": invitation})
}

// Invitations lists the company's invitations.
func (h *Handler) Invitations(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	invitations, err := h.Service.Invitations(r.Context(), userID)
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": invitations})
}

type acceptInvitationRequest struct {
	Token string `json:"token"`
}

// AcceptInvitation redeems an invitation token.
func (h *Handler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	var req acceptInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	company, err := h.Service.AcceptInvitation(r.Context(), userID, req.Token)
	if err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": company})
}

// RevokeInvitation invalidates a pending invitation.
func (h *Handler) RevokeInvitation(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	if err := h.Service.RevokeInvitation(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"status": "revoked"}})
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
