package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ivankudzin/heartsync/internal/transport/http/dto"
)

func TestMatchesHandlerReturnsOtherProfileAndLastMessage(t *testing.T) {
	stack := newTestStack(t)
	h := NewMatchesHandler(stack.matches, nil)
	alice, bob, charlie := stack.user(t, "alice"), stack.user(t, "bob"), stack.user(t, "charlie")
	withBob := stack.match(t, alice, bob)
	stack.match(t, charlie, alice)

	if _, err := stack.chat.Send(context.Background(), bob, withBob, "first"); err != nil {
		t.Fatalf("send first: %v", err)
	}
	if _, err := stack.chat.Send(context.Background(), alice, withBob, "second"); err != nil {
		t.Fatalf("send second: %v", err)
	}

	rec := httptest.NewRecorder()
	asUser(alice, h.Handle).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/matches", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}

	var resp dto.MatchesResponse
	decodeBody(t, rec, &resp)
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(resp.Items))
	}

	byOther := make(map[int64]dto.MatchItemResponse, len(resp.Items))
	for _, item := range resp.Items {
		byOther[item.OtherUserID] = item
	}
	bobItem, ok := byOther[bob]
	if !ok || bobItem.DisplayName != "bob" {
		t.Fatalf("missing bob match: %+v", resp.Items)
	}
	if bobItem.LastMessage == nil || bobItem.LastMessage.Content != "second" || bobItem.LastMessage.SenderID != alice {
		t.Fatalf("unexpected last message: %+v", bobItem.LastMessage)
	}
	if charlieItem := byOther[charlie]; charlieItem.LastMessage != nil || charlieItem.Interests == nil {
		t.Fatalf("charlie match should have no last message and empty interests: %+v", charlieItem)
	}
}

func TestMatchesHandlerRequiresIdentity(t *testing.T) {
	rec := httptest.NewRecorder()
	NewMatchesHandler(nil, nil).Handle(rec, httptest.NewRequest(http.MethodGet, "/v1/matches", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
