package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/spontis/backend-spontis/internal/common"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// LogoAttacher stores an uploaded logo key on the actor's company.
type LogoAttacher interface {
	SetLogo(ctx context.Context, userID, key string) error
}

// PhotoAttacher stores an uploaded photo key on a mandate.
type PhotoAttacher interface {
	SetPhoto(ctx context.Context, userID, mandatID, key string) error
}

// Handler wraps multipart uploads and records the resulting object keys.
type Handler struct {
	Store     Store
	MaxBytes  int64
	Logos     LogoAttacher
	Photos    PhotoAttacher
	KeyPrefix string
}

// UploadLogo stores a company logo. Field name: "file".
func (h *Handler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	key, err := h.storeUpload(r, "logos")
	if err != nil {
		renderError(w, err)
		return
	}
	if err := h.Logos.SetLogo(r.Context(), userID, key); err != nil {
		_ = h.Store.Delete(r.Context(), key)
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]string{
		"key": key,
		"url": h.Store.URL(key),
	}})
}

// UploadMandatPhoto stores a photo for a mandate. Field name: "file".
func (h *Handler) UploadMandatPhoto(w http.ResponseWriter, r *http.Request) {
	userID, _ := common.UserID(r.Context())
	mandatID := chi.URLParam(r, "id")
	key, err := h.storeUpload(r, "mandats")
	if err != nil {
		renderError(w, err)
		return
	}
	if err := h.Photos.SetPhoto(r.Context(), userID, mandatID, key); err != nil {
		_ = h.Store.Delete(r.Context(), key)
		renderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]string{
		"key": key,
		"url": h.Store.URL(key),
	}})
}

func (h *Handler) storeUpload(r *http.Request, folder string) (string, error) {
	maxBytes := h.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return "", common.NewAppError("UPLOAD_TOO_LARGE", fmt.Sprintf("upload exceeds %d bytes", maxBytes), http.StatusRequestEntityTooLarge, err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", common.NewAppError("VALIDATION", "multipart field 'file' is required", http.StatusBadRequest, err)
	}
	defer func() { _ = file.Close() }()

	contentType := header.Header.Get("Content-Type")
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", common.NewAppError("UNSUPPORTED_TYPE", "only jpeg, png and webp images are accepted", http.StatusUnsupportedMediaType, nil)
	}
	key := path.Join(strings.TrimSuffix(h.KeyPrefix, "/"), folder, uuid.NewString()+ext)
	key = strings.TrimPrefix(key, "/")
	if err := h.Store.Put(r.Context(), key, contentType, file); err != nil {
		return "", fmt.Errorf("storage: upload: %w", err)
	}
	return key, nil
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
