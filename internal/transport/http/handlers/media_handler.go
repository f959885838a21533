package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	authsvc "github.com/ivankudzin/heartsync/internal/services/auth"
	mediasvc "github.com/ivankudzin/heartsync/internal/services/media"
	profilesvc "github.com/ivankudzin/heartsync/internal/services/profiles"
	"github.com/ivankudzin/heartsync/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/heartsync/internal/transport/http/errors"
)

const maxPhotoUploadSize = mediasvc.MaxPhotoSize + 1<<20

type MediaHandler struct {
	service *mediasvc.Service
	log     *zap.Logger
}

func NewMediaHandler(service *mediasvc.Service, log *zap.Logger) *MediaHandler {
	return &MediaHandler{service: service, log: log}
}

func (h *MediaHandler) PhotoUpload(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		httperrors.WriteUnavailable(w, httperrors.DefaultRetryAfterSec)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoUploadSize)
	if err := r.ParseMultipartForm(maxPhotoUploadSize); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "file is required")
		return
	}
	defer file.Close()

	if header == nil || header.Size <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "file is empty")
		return
	}

	photo, err := h.service.UploadPhoto(r.Context(), identity.UserID, header.Filename, header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		switch {
		case errors.Is(err, mediasvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", err.Error())
		default:
			writeServerError(w, h.log, err, "failed to upload photo")
		}
		return
	}

	url := photo.URL
	httperrors.Write(w, http.StatusOK, dto.PhotoUploadResponse{
		URL:     url,
		Profile: profileResponse(profilesvc.View{Profile: photo.Profile, PhotoURL: &url}),
	})
}
