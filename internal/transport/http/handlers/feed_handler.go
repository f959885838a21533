package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	authsvc "github.com/ivankudzin/heartsync/internal/services/auth"
	feedsvc "github.com/ivankudzin/heartsync/internal/services/feed"
	"github.com/ivankudzin/heartsync/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/heartsync/internal/transport/http/errors"
)

type FeedHandler struct {
	service *feedsvc.Service
	log     *zap.Logger
}

func NewFeedHandler(service *feedsvc.Service, log *zap.Logger) *FeedHandler {
	return &FeedHandler{service: service, log: log}
}

func (h *FeedHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "FEED_SERVICE_UNAVAILABLE", "feed service is unavailable")
		return
	}

	query := r.URL.Query()
	result, err := h.service.Get(r.Context(), identity.UserID, query.Get("cursor"), parseIntOrDefault(query.Get("limit"), 0))
	if err != nil {
		switch {
		case errors.Is(err, feedsvc.ErrInvalidCursor):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid cursor")
		case errors.Is(err, feedsvc.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid feed request")
		default:
			writeServerError(w, h.log, err, "failed to load feed")
		}
		return
	}

	items := make([]dto.FeedItemResponse, 0, len(result.Items))
	for _, item := range result.Items {
		interests := item.Interests
		if interests == nil {
			interests = []string{}
		}
		items = append(items, dto.FeedItemResponse{
			UserID:      item.UserID,
			ProfileID:   item.ProfileID,
			DisplayName: item.DisplayName,
			Age:         item.Age,
			Bio:         item.Bio,
			PhotoURL:    item.PhotoURL,
			Interests:   interests,
		})
	}

	var nextCursor *string
	if result.NextCursor != "" {
		value := result.NextCursor
		nextCursor = &value
	}

	httperrors.Write(w, http.StatusOK, dto.FeedResponse{
		Items:      items,
		NextCursor: nextCursor,
	})
}
