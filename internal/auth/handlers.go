package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/spontis/backend-spontis/internal/common"
)

// Handler exposes HTTP endpoints for registration and session management.
type Handler struct {
	Service        *Service
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite
	AccessCookie   string
	RefreshCookie  string
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new user account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	user, err := h.Service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.renderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues cookies plus a JSON token pair.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	result, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.renderError(w, err)
		return
	}
	h.setAuthCookies(w, result.AccessToken, result.AccessExpiry, result.RefreshToken, result.RefreshExpiry)
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates the refresh token taken from the body or cookie.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	token := req.RefreshToken
	if token == "" {
		token = h.cookieValue(r, h.RefreshCookie)
	}
	result, err := h.Service.Refresh(r.Context(), token)
	if err != nil {
		h.renderError(w, err)
		return
	}
	h.setAuthCookies(w, result.AccessToken, result.AccessExpiry, result.RefreshToken, result.RefreshExpiry)
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// Logout revokes the refresh token and clears session cookies.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	token := req.RefreshToken
	if token == "" {
		token = h.cookieValue(r, h.RefreshCookie)
	}
	if err := h.Service.Logout(r.Context(), token); err != nil {
		h.renderError(w, err)
		return
	}
	h.clearAuthCookies(w)
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"status": "logged_out"}})
}

// Me returns the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	user, err := h.Service.CurrentUser(r.Context(), userID)
	if err != nil {
		h.renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": user})
}

func (h *Handler) renderError(w http.ResponseWriter, err error) {
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

func (h *Handler) setAuthCookies(w http.ResponseWriter, access string, accessExpiry time.Time, refresh string, refreshExpiry time.Time) {
	if h.AccessCookie != "" {
		http.SetCookie(w, h.cookie(h.AccessCookie, access, accessExpiry))
	}
	if h.RefreshCookie != "" {
		http.SetCookie(w, h.cookie(h.RefreshCookie, refresh, refreshExpiry))
	}
}

func (h *Handler) clearAuthCookies(w http.ResponseWriter) {
	expired := time.Unix(0, 0)
	if h.AccessCookie != "" {
		http.SetCookie(w, h.cookie(h.AccessCookie, "", expired))
	}
	if h.RefreshCookie != "" {
		http.SetCookie(w, h.cookie(h.RefreshCookie, "", expired))
	}
}

func (h *Handler) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.CookieDomain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: h.CookieSameSite,
	}
}

func (h *Handler) cookieValue(r *http.Request, name string) string {
	if name == "" {
		return ""
	}
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
