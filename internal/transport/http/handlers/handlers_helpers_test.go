package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ivankudzin/heartsync/internal/domain/model"
	"github.com/ivankudzin/heartsync/internal/repo/sqlite"
	"github.com/ivankudzin/heartsync/internal/repo/sqlite/sqlitetest"
	authsvc "github.com/ivankudzin/heartsync/internal/services/auth"
	chatsvc "github.com/ivankudzin/heartsync/internal/services/chat"
	feedsvc "github.com/ivankudzin/heartsync/internal/services/feed"
	matchessvc "github.com/ivankudzin/heartsync/internal/services/matches"
	"github.com/ivankudzin/heartsync/internal/services/notify"
	swipesvc "github.com/ivankudzin/heartsync/internal/services/swipes"
)

type testStack struct {
	db      *sql.DB
	hub     *notify.Hub
	swipes  *swipesvc.Service
	feed    *feedsvc.Service
	matches *matchessvc.Service
	chat    *chatsvc.Service
}

func newTestStack(t *testing.T) testStack {
	t.Helper()
	db := sqlitetest.New(t)
	hub := notify.NewHub(nil, 16)
	publisher := notify.NewLocalPublisher(hub)
	matchRepo := sqlite.NewMatchRepo(db)

	return testStack{
		db:  db,
		hub: hub,
		swipes: swipesvc.NewService(swipesvc.Dependencies{
			Swipes:    sqlite.NewSwipeRepo(db),
			Matches:   matchRepo,
			Profiles:  sqlite.NewProfileRepo(db),
			Publisher: publisher,
		}),
		feed:    feedsvc.NewService(sqlite.NewFeedRepo(db), feedsvc.Config{}),
		matches: matchessvc.NewService(matchRepo),
		chat: chatsvc.NewService(chatsvc.Dependencies{
			Matches:   matchRepo,
			Messages:  sqlite.NewMessageRepo(db),
			Publisher: publisher,
		}),
	}
}

func (s testStack) user(t *testing.T, name string) int64 {
	t.Helper()
	user, _, err := sqlite.NewUserRepo(s.db).CreateWithProfile(context.Background(), name+"@example.com", "hash",
		model.Profile{DisplayName: name, Age: 27, Interests: []string{}}, time.Now().UTC())
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user.ID
}

func asUser(userID int64, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := authsvc.WithIdentity(r.Context(), authsvc.Identity{
			UserID: userID,
			SID:    "sid-test",
			Role:   "user",
		})
		next(w, r.WithContext(ctx))
	})
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Code string `json:"code"`
	}
	decodeBody(t, rec, &payload)
	return payload.Code
}

func (s testStack) match(t *testing.T, a, b int64) int64 {
	t.Helper()
	ctx := context.Background()
	if _, err := s.swipes.Swipe(ctx, a, b, "right"); err != nil {
		t.Fatalf("swipe %d->%d: %v", a, b, err)
	}
	res, err := s.swipes.Swipe(ctx, b, a, "right")
	if err != nil {
		t.Fatalf("swipe %d->%d: %v", b, a, err)
	}
	if !res.IsMatch {
		t.Fatalf("expected match between %d and %d", a, b)
	}
	return res.MatchID
}
