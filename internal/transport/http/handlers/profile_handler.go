package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	authsvc "github.com/ivankudzin/heartsync/internal/services/auth"
	profilesvc "github.com/ivankudzin/heartsync/internal/services/profiles"
	"github.com/ivankudzin/heartsync/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/heartsync/internal/transport/http/errors"
)

type ProfileHandler struct {
	service *profilesvc.Service
	log     *zap.Logger
}

func NewProfileHandler(service *profilesvc.Service, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{service: service, log: log}
}

func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	view, err := h.service.Get(r.Context(), identity.UserID)
	if err != nil {
		h.handleProfileError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, profileResponse(view))
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "PROFILE_SERVICE_UNAVAILABLE", "profile service is unavailable")
		return
	}

	var req dto.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	view, err := h.service.Update(r.Context(), identity.UserID, profilesvc.UpdateInput{
		DisplayName: req.DisplayName,
		Age:         req.Age,
		Bio:         req.Bio,
		ImageURL:    req.ImageURL,
		Interests:   req.Interests,
	})
	if err != nil {
		h.handleProfileError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, profileResponse(view))
}

func (h *ProfileHandler) handleProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, profilesvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, profilesvc.ErrNotFound):
		writeNotFound(w, "NOT_FOUND", "profile not found")
	default:
		writeServerError(w, h.log, err, "failed to process profile")
	}
}

func profileResponse(view profilesvc.View) dto.ProfileResponse {
	p := view.Profile
	interests := p.Interests
	if interests == nil {
		interests = []string{}
	}
	return dto.ProfileResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		Age:         p.Age,
		Bio:         p.Bio,
		PhotoURL:    view.PhotoURL,
		Interests:   interests,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
