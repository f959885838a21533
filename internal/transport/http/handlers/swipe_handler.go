package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ivankudzin/heartsync/internal/pkg/validate"
	authsvc "github.com/ivankudzin/heartsync/internal/services/auth"
	swipesvc "github.com/ivankudzin/heartsync/internal/services/swipes"
	"github.com/ivankudzin/heartsync/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/heartsync/internal/transport/http/errors"
)

type SwipeHandler struct {
	service *swipesvc.Service
	log     *zap.Logger
}

func NewSwipeHandler(service *swipesvc.Service, log *zap.Logger) *SwipeHandler {
	return &SwipeHandler{service: service, log: log}
}

func (h *SwipeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "SWIPE_SERVICE_UNAVAILABLE", "swipe service is unavailable")
		return
	}

	var req dto.SwipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if !validate.PositiveID(req.TargetID) || !validate.Required(req.Direction) {
		writeBadRequest(w, "VALIDATION_ERROR", "target_id and direction are required")
		return
	}

	result, err := h.service.Swipe(r.Context(), identity.UserID, req.TargetID, req.Direction)
	if err != nil {
		switch {
		case errors.Is(err, swipesvc.ErrSelfSwipe):
			writeBadRequest(w, "VALIDATION_ERROR", "cannot swipe on yourself")
		case errors.Is(err, swipesvc.ErrUnsupportedDirection):
			writeBadRequest(w, "VALIDATION_ERROR", "direction must be left or right")
		case errors.Is(err, swipesvc.ErrTargetNotFound):
			writeBadRequest(w, "VALIDATION_ERROR", "target user not found")
		case errors.Is(err, swipesvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid swipe request")
		default:
			writeServerError(w, h.log, err, "failed to process swipe")
		}
		return
	}

	resp := dto.SwipeResponse{OK: true, IsMatch: result.IsMatch}
	if result.IsMatch {
		matchID := result.MatchID
		resp.MatchID = &matchID
	}
	httperrors.Write(w, http.StatusOK, resp)
}
