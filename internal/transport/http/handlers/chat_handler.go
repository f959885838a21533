package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ivankudzin/heartsync/internal/domain/model"
	authsvc "github.com/ivankudzin/heartsync/internal/services/auth"
	chatsvc "github.com/ivankudzin/heartsync/internal/services/chat"
	"github.com/ivankudzin/heartsync/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/heartsync/internal/transport/http/errors"
)

type ChatHandler struct {
	service *chatsvc.Service
	log     *zap.Logger
}

func NewChatHandler(service *chatsvc.Service, log *zap.Logger) *ChatHandler {
	return &ChatHandler{service: service, log: log}
}

func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "CHAT_SERVICE_UNAVAILABLE", "chat service is unavailable")
		return
	}
	matchID, ok := pathInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid match id")
		return
	}

	items, err := h.service.List(r.Context(), identity.UserID, matchID, parseIntOrDefault(r.URL.Query().Get("limit"), 0))
	if err != nil {
		h.handleChatError(w, err)
		return
	}

	resp := dto.MessagesResponse{Items: make([]dto.MessageResponse, 0, len(items))}
	for _, msg := range items {
		resp.Items = append(resp.Items, messageResponse(msg))
	}
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.service == nil {
		writeInternal(w, "CHAT_SERVICE_UNAVAILABLE", "chat service is unavailable")
		return
	}
	matchID, ok := pathInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid match id")
		return
	}

	var req dto.SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request body")
		return
	}

	msg, err := h.service.Send(r.Context(), identity.UserID, matchID, req.Content)
	if err != nil {
		h.handleChatError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, messageResponse(msg))
}

func (h *ChatHandler) handleChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, chatsvc.ErrMatchNotFound):
		writeNotFound(w, "NOT_FOUND", "match not found")
	case errors.Is(err, chatsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "not a participant of this match")
	default:
		writeServerError(w, h.log, err, "failed to process chat request")
	}
}

func messageResponse(msg model.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:        msg.ID,
		MatchID:   msg.MatchID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}
