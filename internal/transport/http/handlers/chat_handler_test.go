package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ivankudzin/heartsync/internal/transport/http/dto"
)

func chatRouter(h *ChatHandler, userID int64) http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/matches/{id}/messages", asUser(userID, h.List).ServeHTTP)
	r.Post("/v1/matches/{id}/messages", asUser(userID, h.Send).ServeHTTP)
	return r
}

func TestChatHandlerSendAndList(t *testing.T) {
	stack := newTestStack(t)
	h := NewChatHandler(stack.chat, nil)
	alice, bob := stack.user(t, "alice"), stack.user(t, "bob")
	matchID := stack.match(t, alice, bob)
	path := fmt.Sprintf("/v1/matches/%d/messages", matchID)

	rec := httptest.NewRecorder()
	chatRouter(h, alice).ServeHTTP(rec, jsonRequest(t, http.MethodPost, path, map[string]string{"content": "  hi bob  "}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("send: status %d body %s", rec.Code, rec.Body.String())
	}
	var sent dto.MessageResponse
	decodeBody(t, rec, &sent)
	if sent.Content != "hi bob" || sent.SenderID != alice || sent.MatchID != matchID {
		t.Fatalf("unexpected message: %+v", sent)
	}

	rec = httptest.NewRecorder()
	chatRouter(h, bob).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d body %s", rec.Code, rec.Body.String())
	}
	var listed dto.MessagesResponse
	decodeBody(t, rec, &listed)
	if len(listed.Items) != 1 || listed.Items[0].ID != sent.ID {
		t.Fatalf("unexpected messages: %+v", listed.Items)
	}
}

func TestChatHandlerAccessErrors(t *testing.T) {
	stack := newTestStack(t)
	h := NewChatHandler(stack.chat, nil)
	alice, bob, eve := stack.user(t, "alice"), stack.user(t, "bob"), stack.user(t, "eve")
	matchID := stack.match(t, alice, bob)

	cases := []struct {
		name   string
		userID int64
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{name: "outsider_list", userID: eve, method: http.MethodGet, path: fmt.Sprintf("/v1/matches/%d/messages", matchID), status: http.StatusForbidden, code: "FORBIDDEN"},
		{name: "outsider_send", userID: eve, method: http.MethodPost, path: fmt.Sprintf("/v1/matches/%d/messages", matchID), body: map[string]string{"content": "hey"}, status: http.StatusForbidden, code: "FORBIDDEN"},
		{name: "unknown_match", userID: alice, method: http.MethodGet, path: fmt.Sprintf("/v1/matches/%d/messages", matchID+100), status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "bad_id", userID: alice, method: http.MethodGet, path: "/v1/matches/abc/messages", status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "blank_content", userID: alice, method: http.MethodPost, path: fmt.Sprintf("/v1/matches/%d/messages", matchID), body: map[string]string{"content": "   "}, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			chatRouter(h, tc.userID).ServeHTTP(rec, jsonRequest(t, tc.method, tc.path, tc.body))
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d body %s", tc.status, rec.Code, rec.Body.String())
			}
			if code := errorCode(t, rec); code != tc.code {
				t.Fatalf("expected code %q, got %q", tc.code, code)
			}
		})
	}
}
