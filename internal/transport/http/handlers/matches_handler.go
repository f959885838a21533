package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	authsvc "github.com/ivankudzin/heartsync/internal/services/auth"
	matchessvc "github.com/ivankudzin/heartsync/internal/services/matches"
	"github.com/ivankudzin/heartsync/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/heartsync/internal/transport/http/errors"
)

type MatchesHandler struct {
	service *matchessvc.Service
	log     *zap.Logger
}

func NewMatchesHandler(service *matchessvc.Service, log *zap.Logger) *MatchesHandler {
	return &MatchesHandler{service: service, log: log}
}

func (h *MatchesHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "MATCHES_SERVICE_UNAVAILABLE", "matches service is unavailable")
		return
	}

	items, err := h.service.List(r.Context(), identity.UserID, parseIntOrDefault(r.URL.Query().Get("limit"), 100))
	if err != nil {
		switch {
		case errors.Is(err, matchessvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid matches request")
		default:
			writeServerError(w, h.log, err, "failed to load matches")
		}
		return
	}

	responseItems := make([]dto.MatchItemResponse, 0, len(items))
	for _, item := range items {
		interests := item.Interests
		if interests == nil {
			interests = []string{}
		}
		resp := dto.MatchItemResponse{
			ID:          item.ID,
			OtherUserID: item.OtherUserID,
			DisplayName: item.DisplayName,
			Age:         item.Age,
			Bio:         item.Bio,
			PhotoURL:    item.PhotoURL,
			Interests:   interests,
			CreatedAt:   item.CreatedAt,
		}
		if msg := item.LastMessage; msg != nil {
			resp.LastMessage = &dto.LastMessageResponse{
				ID:        msg.ID,
				SenderID:  msg.SenderID,
				Content:   msg.Content,
				CreatedAt: msg.CreatedAt,
			}
		}
		responseItems = append(responseItems, resp)
	}

	httperrors.Write(w, http.StatusOK, dto.MatchesResponse{Items: responseItems})
}
