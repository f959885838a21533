package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/ivankudzin/heartsync/internal/transport/http/dto"
)

func TestFeedHandlerExcludesSelfAndSwiped(t *testing.T) {
	stack := newTestStack(t)
	h := NewFeedHandler(stack.feed, nil)
	alice, bob, charlie := stack.user(t, "alice"), stack.user(t, "bob"), stack.user(t, "charlie")

	rec := httptest.NewRecorder()
	asUser(alice, h.Handle).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/feed", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	var first dto.FeedResponse
	decodeBody(t, rec, &first)
	if len(first.Items) != 2 || first.NextCursor != nil {
		t.Fatalf("expected bob and charlie with no cursor, got %+v", first)
	}

	swipe := NewSwipeHandler(stack.swipes, nil)
	if rec := performSwipe(t, swipe, alice, map[string]any{"target_id": bob, "direction": "left"}); rec.Code != http.StatusOK {
		t.Fatalf("swipe: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	asUser(alice, h.Handle).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/feed", nil))
	var second dto.FeedResponse
	decodeBody(t, rec, &second)
	if len(second.Items) != 1 || second.Items[0].UserID != charlie {
		t.Fatalf("expected only charlie, got %+v", second.Items)
	}
}

func TestFeedHandlerPagesWithCursor(t *testing.T) {
	stack := newTestStack(t)
	h := NewFeedHandler(stack.feed, nil)
	viewer := stack.user(t, "viewer")
	for _, name := range []string{"u1", "u2", "u3"} {
		stack.user(t, name)
	}

	seen := map[int64]bool{}
	target := "/v1/feed?limit=2"
	for page := 0; page < 3; page++ {
		rec := httptest.NewRecorder()
		asUser(viewer, h.Handle).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("page %d: status %d body %s", page, rec.Code, rec.Body.String())
		}
		var resp dto.FeedResponse
		decodeBody(t, rec, &resp)
		for _, item := range resp.Items {
			if seen[item.UserID] {
				t.Fatalf("user %d returned twice", item.UserID)
			}
			seen[item.UserID] = true
		}
		if resp.NextCursor == nil {
			break
		}
		target = "/v1/feed?limit=2&cursor=" + url.QueryEscape(*resp.NextCursor)
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 distinct candidates, got %d", len(seen))
	}
}

func TestFeedHandlerRejectsBadCursor(t *testing.T) {
	stack := newTestStack(t)
	viewer := stack.user(t, "viewer")

	rec := httptest.NewRecorder()
	asUser(viewer, NewFeedHandler(stack.feed, nil).Handle).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/feed?cursor=%25%25", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
