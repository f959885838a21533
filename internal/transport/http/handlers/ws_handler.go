package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	authsvc "github.com/ivankudzin/heartsync/internal/services/auth"
	chatsvc "github.com/ivankudzin/heartsync/internal/services/chat"
	"github.com/ivankudzin/heartsync/internal/services/notify"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler streams notification events to an authenticated connection.
// With ?match_id=N the stream is limited to that match.
type WSHandler struct {
	hub  *notify.Hub
	chat *chatsvc.Service
	log  *zap.Logger
}

func NewWSHandler(hub *notify.Hub, chat *chatsvc.Service, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{hub: hub, chat: chat, log: log}
}

func (h *WSHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}
	if h.hub == nil {
		writeInternal(w, "NOTIFY_UNAVAILABLE", "notifications are unavailable")
		return
	}

	var matchID int64
	if raw := strings.TrimSpace(r.URL.Query().Get("match_id")); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || value <= 0 {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid match_id")
			return
		}
		if h.chat == nil {
			writeInternal(w, "CHAT_SERVICE_UNAVAILABLE", "chat service is unavailable")
			return
		}
		if _, err := h.chat.Participant(r.Context(), identity.UserID, value); err != nil {
			switch {
			case errors.Is(err, chatsvc.ErrMatchNotFound):
				writeNotFound(w, "NOT_FOUND", "match not found")
			case errors.Is(err, chatsvc.ErrForbidden):
				writeForbidden(w, "FORBIDDEN", "not a participant of this match")
			default:
				writeServerError(w, h.log, err, "failed to open subscription")
			}
			return
		}
		matchID = value
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("ws upgrade failed", zap.Error(err))
		return
	}

	sub := h.hub.Attach(identity.UserID, matchID)
	done := make(chan struct{})
	go h.writePump(conn, sub, done)
	h.readPump(conn, done)
	h.hub.Detach(sub)
}

// readPump only keeps the connection alive; clients do not send commands.
func (h *WSHandler) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("ws read failed", zap.Error(err))
			}
			return
		}
	}
}

func (h *WSHandler) writePump(conn *websocket.Conn, sub *notify.Subscription, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	events := sub.Events()
	for {
		select {
		case <-done:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case evt, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				h.log.Debug("ws write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
