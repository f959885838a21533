package swipes_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ivankudzin/heartsync/internal/domain/enums"
	"github.com/ivankudzin/heartsync/internal/domain/model"
	"github.com/ivankudzin/heartsync/internal/repo/sqlite"
	"github.com/ivankudzin/heartsync/internal/repo/sqlite/sqlitetest"
	swipesvc "github.com/ivankudzin/heartsync/internal/services/swipes"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt model.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) snapshot() []model.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Event(nil), p.events...)
}

type engine struct {
	svc       *swipesvc.Service
	db        *sql.DB
	matches   *sqlite.MatchRepo
	swipes    *sqlite.SwipeRepo
	publisher *recordingPublisher
}

func newEngine(t *testing.T) engine {
	t.Helper()
	db := sqlitetest.New(t)
	pub := &recordingPublisher{}
	matches := sqlite.NewMatchRepo(db)
	swipes := sqlite.NewSwipeRepo(db)
	svc := swipesvc.NewService(swipesvc.Dependencies{
		Swipes:    swipes,
		Matches:   matches,
		Profiles:  sqlite.NewProfileRepo(db),
		Publisher: pub,
	})
	return engine{svc: svc, db: db, matches: matches, swipes: swipes, publisher: pub}
}

func (e engine) user(t *testing.T, name string) int64 {
	t.Helper()
	user, _, err := sqlite.NewUserRepo(e.db).CreateWithProfile(context.Background(), name+"@example.com", "hash",
		model.Profile{DisplayName: name, Age: 25}, time.Now().UTC())
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user.ID
}

func (e engine) matchCount(t *testing.T, a, b int64) int {
	t.Helper()
	n, err := e.matches.CountForPair(context.Background(), a, b)
	if err != nil {
		t.Fatalf("count matches: %v", err)
	}
	return n
}

func TestSwipeRightWithoutReciprocityDoesNotMatch(t *testing.T) {
	e := newEngine(t)
	a, b := e.user(t, "a"), e.user(t, "b")

	res, err := e.svc.Swipe(context.Background(), a, b, "right")
	if err != nil {
		t.Fatalf("swipe: %v", err)
	}
	if res.IsMatch || res.MatchCreated || res.MatchID != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Swipe.Direction != enums.SwipeDirectionRight || res.Swipe.FromUserID != a || res.Swipe.ToUserID != b {
		t.Fatalf("unexpected stored swipe: %+v", res.Swipe)
	}
	if n := e.matchCount(t, a, b); n != 0 {
		t.Fatalf("expected no match, got %d", n)
	}
}

func TestReciprocalRightCreatesSingleMatchAndNotifiesBoth(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	a, b := e.user(t, "a"), e.user(t, "b")

	if _, err := e.svc.Swipe(ctx, a, b, "right"); err != nil {
		t.Fatalf("first swipe: %v", err)
	}
	res, err := e.svc.Swipe(ctx, b, a, " RIGHT ")
	if err != nil {
		t.Fatalf("second swipe: %v", err)
	}
	if !res.IsMatch || !res.MatchCreated || res.MatchID <= 0 {
		t.Fatalf("expected created match, got %+v", res)
	}
	if n := e.matchCount(t, a, b); n != 1 {
		t.Fatalf("expected exactly one match, got %d", n)
	}

	events := e.publisher.snapshot()
	if len(events) != 2 {
		t.Fatalf("expected two match events, got %d", len(events))
	}
	recipients := map[int64]bool{}
	for _, evt := range events {
		if evt.Type != enums.EventMatchCreated || evt.MatchID != res.MatchID {
			t.Fatalf("unexpected event: %+v", evt)
		}
		recipients[evt.UserID] = true
	}
	if !recipients[a] || !recipients[b] {
		t.Fatalf("both users should be notified, got %v", recipients)
	}
}

func TestRepeatedRightSwipesAreIdempotent(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	a, b := e.user(t, "a"), e.user(t, "b")

	if _, err := e.svc.Swipe(ctx, a, b, "right"); err != nil {
		t.Fatalf("a swipes b: %v", err)
	}
	first, err := e.svc.Swipe(ctx, b, a, "right")
	if err != nil {
		t.Fatalf("b swipes a: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]swipesvc.SwipeResult, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.svc.Swipe(ctx, a, b, "right")
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if !results[i].IsMatch || results[i].MatchCreated || results[i].MatchID != first.MatchID {
			t.Fatalf("worker %d: unexpected result %+v", i, results[i])
		}
	}
	if n := e.matchCount(t, a, b); n != 1 {
		t.Fatalf("expected exactly one match, got %d", n)
	}
	if events := e.publisher.snapshot(); len(events) != 2 {
		t.Fatalf("only the creating call should notify, got %d events", len(events))
	}
}

func TestConcurrentOpposingRightSwipesCreateExactlyOneMatch(t *testing.T) {
	for round := 0; round < 5; round++ {
		e := newEngine(t)
		ctx := context.Background()
		a, b := e.user(t, "a"), e.user(t, "b")

		var wg sync.WaitGroup
		var resA, resB swipesvc.SwipeResult
		var errA, errB error
		start := make(chan struct{})
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			resA, errA = e.svc.Swipe(ctx, a, b, "right")
		}()
		go func() {
			defer wg.Done()
			<-start
			resB, errB = e.svc.Swipe(ctx, b, a, "right")
		}()
		close(start)
		wg.Wait()

		if errA != nil || errB != nil {
			t.Fatalf("round %d: swipe errors a=%v b=%v", round, errA, errB)
		}
		if !resA.IsMatch && !resB.IsMatch {
			t.Fatalf("round %d: neither call observed the match", round)
		}
		if resA.MatchCreated && resB.MatchCreated {
			t.Fatalf("round %d: both calls claim to have created the match", round)
		}
		if n := e.matchCount(t, a, b); n != 1 {
			t.Fatalf("round %d: expected exactly one match, got %d", round, n)
		}
	}
}

func TestLeftThenRightReswipe(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	a, b := e.user(t, "a"), e.user(t, "b")

	if _, err := e.svc.Swipe(ctx, b, a, "right"); err != nil {
		t.Fatalf("b swipes a: %v", err)
	}
	res, err := e.svc.Swipe(ctx, a, b, "left")
	if err != nil {
		t.Fatalf("a swipes left: %v", err)
	}
	if res.IsMatch {
		t.Fatalf("left swipe must not match: %+v", res)
	}
	if n := e.matchCount(t, a, b); n != 0 {
		t.Fatalf("expected no match after left swipe, got %d", n)
	}

	res, err = e.svc.Swipe(ctx, a, b, "right")
	if err != nil {
		t.Fatalf("a re-swipes right: %v", err)
	}
	if !res.IsMatch || !res.MatchCreated {
		t.Fatalf("re-swipe right should match: %+v", res)
	}

	stored, err := e.swipes.Get(ctx, a, b)
	if err != nil {
		t.Fatalf("load swipe: %v", err)
	}
	if stored.Direction != enums.SwipeDirectionRight {
		t.Fatalf("last write should win, got %q", stored.Direction)
	}
}

func TestLeftSwipeAfterMatchKeepsMatch(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	a, b := e.user(t, "a"), e.user(t, "b")

	if _, err := e.svc.Swipe(ctx, a, b, "right"); err != nil {
		t.Fatalf("a swipes b: %v", err)
	}
	if _, err := e.svc.Swipe(ctx, b, a, "right"); err != nil {
		t.Fatalf("b swipes a: %v", err)
	}
	res, err := e.svc.Swipe(ctx, a, b, "left")
	if err != nil {
		t.Fatalf("a swipes left: %v", err)
	}
	if res.IsMatch {
		t.Fatalf("left swipe reports no match: %+v", res)
	}
	if n := e.matchCount(t, a, b); n != 1 {
		t.Fatalf("match must survive a left swipe, got %d", n)
	}
}

func TestSwipeValidationWritesNothing(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	a := e.user(t, "a")

	cases := []struct {
		name      string
		target    int64
		direction string
		want      error
	}{
		{name: "self", target: a, direction: "right", want: swipesvc.ErrSelfSwipe},
		{name: "bad_direction", target: a + 100, direction: "up", want: swipesvc.ErrUnsupportedDirection},
		{name: "unknown_target", target: a + 100, direction: "right", want: swipesvc.ErrTargetNotFound},
		{name: "zero_target", target: 0, direction: "right", want: swipesvc.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.svc.Swipe(ctx, a, tc.target, tc.direction)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !errors.Is(err, swipesvc.ErrValidation) {
				t.Fatalf("expected validation class, got %v", err)
			}
		})
	}

	var count int
	if err := e.db.QueryRow(`SELECT COUNT(*) FROM swipes`).Scan(&count); err != nil {
		t.Fatalf("count swipes: %v", err)
	}
	if count != 0 {
		t.Fatalf("validation failures must not write swipes, got %d", count)
	}
}

func TestPublishFailureDoesNotFailSwipe(t *testing.T) {
	e := newEngine(t)
	e.publisher.err = errors.New("bus down")
	ctx := context.Background()
	a, b := e.user(t, "a"), e.user(t, "b")

	if _, err := e.svc.Swipe(ctx, a, b, "right"); err != nil {
		t.Fatalf("a swipes b: %v", err)
	}
	res, err := e.svc.Swipe(ctx, b, a, "right")
	if err != nil {
		t.Fatalf("publish failure leaked: %v", err)
	}
	if !res.IsMatch {
		t.Fatalf("expected match, got %+v", res)
	}
}
