package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ivankudzin/heartsync/internal/domain/enums"
	"github.com/ivankudzin/heartsync/internal/domain/model"
	"github.com/ivankudzin/heartsync/internal/repo/repoerr"
	"github.com/ivankudzin/heartsync/internal/repo/sqlite"
	"github.com/ivankudzin/heartsync/internal/repo/sqlite/sqlitetest"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCreateWithProfileRejectsDuplicateEmail(t *testing.T) {
	db := sqlitetest.New(t)
	users := sqlite.NewUserRepo(db)
	ctx := context.Background()

	user, profile, err := users.CreateWithProfile(ctx, "alice@example.com", "hash", model.Profile{DisplayName: "alice", Age: 18}, testNow)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if profile.UserID != user.ID || profile.DisplayName != "alice" || len(profile.Interests) != 0 {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if !profile.CreatedAt.Equal(testNow) {
		t.Fatalf("unexpected created_at: %v", profile.CreatedAt)
	}

	_, _, err = users.CreateWithProfile(ctx, "alice@example.com", "hash", model.Profile{DisplayName: "alice", Age: 18}, testNow)
	if !errors.Is(err, repoerr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	got, err := users.GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != user.ID || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}

	if _, err := users.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, repoerr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProfileUpdateAppliesPatch(t *testing.T) {
	db := sqlitetest.New(t)
	ctx := context.Background()
	userID := createUser(t, db, "bob")
	profiles := sqlite.NewProfileRepo(db)

	bio := "hello"
	interests := []string{"Hiking", "Coffee"}
	updated, err := profiles.Update(ctx, userID, model.ProfilePatch{Bio: &bio, Interests: &interests}, testNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Bio == nil || *updated.Bio != "hello" {
		t.Fatalf("unexpected bio: %v", updated.Bio)
	}
	if len(updated.Interests) != 2 || updated.Interests[1] != "Coffee" {
		t.Fatalf("unexpected interests: %v", updated.Interests)
	}
	if updated.DisplayName != "bob" {
		t.Fatalf("display name should be untouched, got %q", updated.DisplayName)
	}

	empty := ""
	cleared, err := profiles.Update(ctx, userID, model.ProfilePatch{Bio: &empty}, testNow.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("clear bio: %v", err)
	}
	if cleared.Bio != nil {
		t.Fatalf("bio should be cleared, got %q", *cleared.Bio)
	}

	name := "Bobby"
	if _, err := profiles.Update(ctx, 9999, model.ProfilePatch{DisplayName: &name}, testNow); !errors.Is(err, repoerr.ErrNotFound) {
		t.Fatalf("expected not found for unknown user, got %v", err)
	}
}

func TestSwipeUpsertReplacesDirection(t *testing.T) {
	db := sqlitetest.New(t)
	ctx := context.Background()
	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	swipes := sqlite.NewSwipeRepo(db)

	first, err := swipes.Upsert(ctx, a, b, enums.SwipeDirectionLeft, testNow)
	if err != nil {
		t.Fatalf("first swipe: %v", err)
	}
	second, err := swipes.Upsert(ctx, a, b, enums.SwipeDirectionRight, testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("second swipe: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert must keep a single row: %d vs %d", first.ID, second.ID)
	}
	if second.Direction != enums.SwipeDirectionRight || !second.CreatedAt.Equal(testNow.Add(time.Minute)) {
		t.Fatalf("unexpected swipe after upsert: %+v", second)
	}

	reciprocal, err := swipes.HasReciprocalRight(ctx, b, a)
	if err != nil {
		t.Fatalf("reciprocal lookup: %v", err)
	}
	if !reciprocal {
		t.Fatalf("b should see a's right swipe")
	}
	reciprocal, err = swipes.HasReciprocalRight(ctx, a, b)
	if err != nil {
		t.Fatalf("reciprocal lookup: %v", err)
	}
	if reciprocal {
		t.Fatalf("b has not swiped on a")
	}
}

func TestMatchCreateIfAbsentIsIdempotent(t *testing.T) {
	db := sqlitetest.New(t)
	ctx := context.Background()
	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	matches := sqlite.NewMatchRepo(db)

	m1, created, err := matches.CreateIfAbsent(ctx, b, a, testNow)
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	if !created || m1.UserAID != a || m1.UserBID != b {
		t.Fatalf("unexpected first insert: created=%v match=%+v", created, m1)
	}

	m2, created, err := matches.CreateIfAbsent(ctx, a, b, testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if created || m2.ID != m1.ID || !m2.CreatedAt.Equal(testNow) {
		t.Fatalf("second insert must return the existing row: created=%v match=%+v", created, m2)
	}

	n, err := matches.CountForPair(ctx, a, b)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly one match, got %d", n)
	}
}

func TestConcurrentCreateIfAbsentCreatesOneRow(t *testing.T) {
	db := sqlitetest.New(t)
	ctx := context.Background()
	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	matches := sqlite.NewMatchRepo(db)

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = map[int64]struct{}{}
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			x, y := a, b
			if i%2 == 0 {
				x, y = b, a
			}
			m, ok, err := matches.CreateIfAbsent(ctx, x, y, testNow)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if ok {
				created++
			}
			ids[m.ID] = struct{}{}
		}(i)
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if created != 1 || len(ids) != 1 {
		t.Fatalf("expected a single created match, got created=%d ids=%d", created, len(ids))
	}
}

func TestListForUserIncludesOtherProfileAndLastMessage(t *testing.T) {
	db := sqlitetest.New(t)
	ctx := context.Background()
	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	c := createUser(t, db, "c")
	matches := sqlite.NewMatchRepo(db)
	messages := sqlite.NewMessageRepo(db)

	ab, _, err := matches.CreateIfAbsent(ctx, a, b, testNow)
	if err != nil {
		t.Fatalf("create ab: %v", err)
	}
	if _, _, err := matches.CreateIfAbsent(ctx, c, a, testNow.Add(time.Minute)); err != nil {
		t.Fatalf("create ac: %v", err)
	}

	if _, err := messages.Create(ctx, ab.ID, a, "hi", testNow.Add(2*time.Minute)); err != nil {
		t.Fatalf("create message: %v", err)
	}
	if _, err := messages.Create(ctx, ab.ID, b, "hello back", testNow.Add(3*time.Minute)); err != nil {
		t.Fatalf("create message: %v", err)
	}

	items, err := matches.ListForUser(ctx, a, 10)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(items))
	}

	if items[0].OtherProfile.UserID != c || items[0].LastMessage != nil {
		t.Fatalf("newest match should be with c and have no messages: %+v", items[0])
	}
	if items[1].OtherProfile.UserID != b || items[1].OtherProfile.DisplayName != "b" {
		t.Fatalf("unexpected other profile: %+v", items[1].OtherProfile)
	}
	if items[1].LastMessage == nil || items[1].LastMessage.Content != "hello back" || items[1].LastMessage.SenderID != b {
		t.Fatalf("unexpected last message: %+v", items[1].LastMessage)
	}

	history, err := messages.ListByMatch(ctx, ab.ID, 10)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(history) != 2 || history[0].Content != "hi" || history[1].Content != "hello back" {
		t.Fatalf("messages must be ascending: %+v", history)
	}

	latest, err := messages.ListByMatch(ctx, ab.ID, 1)
	if err != nil {
		t.Fatalf("list latest message: %v", err)
	}
	if len(latest) != 1 || latest[0].Content != "hello back" {
		t.Fatalf("limit must keep the newest messages: %+v", latest)
	}
}

func TestFeedExcludesSelfAndSwiped(t *testing.T) {
	db := sqlitetest.New(t)
	ctx := context.Background()
	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	c := createUser(t, db, "c")
	d := createUser(t, db, "d")
	swipes := sqlite.NewSwipeRepo(db)
	feed := sqlite.NewFeedRepo(db)

	if _, err := swipes.Upsert(ctx, a, b, enums.SwipeDirectionLeft, testNow); err != nil {
		t.Fatalf("swipe: %v", err)
	}
	if _, err := swipes.Upsert(ctx, c, a, enums.SwipeDirectionRight, testNow); err != nil {
		t.Fatalf("swipe: %v", err)
	}

	got, err := feed.ListCandidates(ctx, a, 0, 10)
	if err != nil {
		t.Fatalf("list candidates: %v", err)
	}
	assertUserIDs(t, got, c, d)

	page, err := feed.ListCandidates(ctx, a, got[0].ID, 10)
	if err != nil {
		t.Fatalf("list after cursor: %v", err)
	}
	assertUserIDs(t, page, d)

	limited, err := feed.ListCandidates(ctx, a, 0, 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	assertUserIDs(t, limited, c)
}

func createUser(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()

	user, _, err := sqlite.NewUserRepo(db).CreateWithProfile(
		context.Background(),
		fmt.Sprintf("%s@example.com", name),
		"hash",
		model.Profile{DisplayName: name, Age: 25},
		testNow,
	)
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user.ID
}

func assertUserIDs(t *testing.T, profiles []model.Profile, want ...int64) {
	t.Helper()

	if len(profiles) != len(want) {
		t.Fatalf("unexpected candidate count: got %d want %d (%+v)", len(profiles), len(want), profiles)
	}
	for i, id := range want {
		if profiles[i].UserID != id {
			t.Fatalf("unexpected candidate at %d: got user %d want %d", i, profiles[i].UserID, id)
		}
	}
}
