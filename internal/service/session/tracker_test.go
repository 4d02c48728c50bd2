package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/elisaschroeder/eventease/internal/domain"
	"github.com/elisaschroeder/eventease/internal/storage"
)

var t0 = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time           { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type failingKV struct {
	storage.KV
	getErr    error
	setErr    error
	removeErr error
}

func (f *failingKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.getErr != nil {
		return "", false, f.getErr
	}
	return f.KV.Get(ctx, key)
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.KV.Set(ctx, key, value)
}

func (f *failingKV) Remove(ctx context.Context, key string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	return f.KV.Remove(ctx, key)
}

func newTracker(kv storage.KV, c *clock) *Tracker {
	n := 0
	return NewTracker(kv, slog.New(slog.DiscardHandler), Options{
		Now: c.Now,
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
}

func lastAction(t *testing.T, tr *Tracker) string {
	t.Helper()

	events := tr.Events(context.Background())
	if len(events) == 0 {
		t.Fatal("Events() is empty")
	}
	return events[len(events)-1].Action
}

func TestInitializeStartsNewSession(t *testing.T) {
	kv := storage.NewMemory()
	tr := newTracker(kv, &clock{now: t0})

	tr.Initialize(context.Background())

	s := tr.Current(context.Background())
	if s.SessionID == "" {
		t.Fatal("Current() has no session id")
	}
	if !s.CreatedAt.Equal(t0) {
		t.Errorf("CreatedAt = %v, want %v", s.CreatedAt, t0)
	}
	if got := lastAction(t, tr); got != "started" {
		t.Errorf("last action = %s, want started", got)
	}
	if kv.Len() != 2 {
		t.Errorf("stored documents = %d, want 2", kv.Len())
	}
}

func TestInitializeResumesStoredSession(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	c := &clock{now: t0}

	first := newTracker(kv, c)
	first.Initialize(ctx)
	first.TrackPageView(ctx, "events")
	id := first.Current(ctx).SessionID

	c.Advance(10 * time.Minute)

	second := newTracker(kv, c)
	second.Initialize(ctx)

	s := second.Current(ctx)
	if s.SessionID != id {
		t.Errorf("resumed session id = %s, want %s", s.SessionID, id)
	}
	if !s.LastActivity.Equal(c.now) {
		t.Errorf("LastActivity = %v, want %v", s.LastActivity, c.now)
	}
	if s.PageViews != 1 {
		t.Errorf("PageViews = %d, want 1", s.PageViews)
	}

	events := second.Events(ctx)
	if len(events) != 3 {
		t.Fatalf("Events() = %d entries, want 3", len(events))
	}
	if events[0].Action != "started" || events[len(events)-1].Action != "resumed" {
		t.Errorf("Events() = %s..%s, want started..resumed", events[0].Action, events[len(events)-1].Action)
	}
}

func TestInitializeReplacesStaleOrBrokenSession(t *testing.T) {
	tests := []struct {
		name  string
		setup func(kv *storage.Memory, c *clock)
	}{
		{
			name: "expired",
			setup: func(kv *storage.Memory, c *clock) {
				tr := newTracker(kv, c)
				tr.Initialize(context.Background())
				c.Advance(31 * time.Minute)
			},
		},
		{
			name: "not json",
			setup: func(kv *storage.Memory, _ *clock) {
				_ = kv.Set(context.Background(), SessionKey, "{not json")
			},
		},
		{
			name: "wrong shape",
			setup: func(kv *storage.Memory, _ *clock) {
				_ = kv.Set(context.Background(), SessionKey, `{"session_id": 42}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			kv := storage.NewMemory()
			c := &clock{now: t0}
			tt.setup(kv, c)

			tr := NewTracker(kv, slog.New(slog.DiscardHandler), Options{
				Now:   c.Now,
				NewID: func() string { return "fresh" },
			})
			tr.Initialize(ctx)

			if got := tr.Current(ctx).SessionID; got != "fresh" {
				t.Errorf("session id = %s, want fresh", got)
			}
			if got := lastAction(t, tr); got != "started" {
				t.Errorf("last action = %s, want started", got)
			}
		})
	}
}

func TestInitializeReadFailure(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{KV: storage.NewMemory(), getErr: errors.New("storage unavailable")}
	tr := newTracker(kv, &clock{now: t0})

	tr.Initialize(ctx)

	events := tr.Events(ctx)
	if len(events) != 1 {
		t.Fatalf("Events() = %d entries, want 1", len(events))
	}
	if events[0].Type != domain.SessionError || events[0].Action != "initialization_failed" {
		t.Errorf("event = %s/%s, want Error/initialization_failed", events[0].Type, events[0].Action)
	}
	if tr.Current(ctx).SessionID == "" {
		t.Error("Current() has no session after read failure")
	}
}

func TestTrackEventAndExpiry(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: t0}
	tr := newTracker(storage.NewMemory(), c)
	tr.Initialize(ctx)
	before := len(tr.Events(ctx))

	c.Advance(10 * time.Minute)
	tr.TrackEvent(ctx, domain.SessionShare, "event_details", "share", nil)

	s := tr.Current(ctx)
	if !s.LastActivity.Equal(t0.Add(10 * time.Minute)) {
		t.Errorf("LastActivity = %v, want %v", s.LastActivity, t0.Add(10*time.Minute))
	}
	if got := len(tr.Events(ctx)); got != before+1 {
		t.Errorf("Events() = %d entries, want %d", got, before+1)
	}

	// Idle time counts from the last tracked event, not from creation.
	if s.IsExpired(t0.Add(35 * time.Minute)) {
		t.Error("IsExpired(T0+35m) = true, want false")
	}
	if !s.IsExpired(t0.Add(41 * time.Minute)) {
		t.Error("IsExpired(T0+41m) = false, want true")
	}

	c.Advance(31 * time.Minute)
	if got := tr.Current(ctx).SessionID; got == s.SessionID {
		t.Errorf("Current() after expiry kept session %s", got)
	}
}

func TestExpiredSessionReplacedWhenRemoveFails(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: t0}
	kv := &failingKV{KV: storage.NewMemory(), removeErr: errors.New("storage unavailable")}
	tr := newTracker(kv, c)

	tr.Initialize(ctx)
	old := tr.Current(ctx).SessionID

	c.Advance(31 * time.Minute)
	s := tr.Current(ctx)

	if s.SessionID == old {
		t.Fatalf("Current() after expiry = %s, want a replacement", s.SessionID)
	}
	if !s.CreatedAt.Equal(c.now) {
		t.Errorf("CreatedAt = %v, want %v", s.CreatedAt, c.now)
	}
	if got := lastAction(t, tr); got != "started" {
		t.Errorf("last action = %s, want started", got)
	}
}

func TestTrackSearchKeepsLastTwenty(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(storage.NewMemory(), &clock{now: t0})

	for i := range 25 {
		tr.TrackSearch(ctx, fmt.Sprintf("term-%d", i), i)
	}
	tr.TrackSearch(ctx, "term-24", 0)
	tr.TrackSearch(ctx, "", 0)

	h := tr.Current(ctx).SearchHistory
	if len(h) != domain.MaxSearchHistory {
		t.Fatalf("SearchHistory = %d entries, want %d", len(h), domain.MaxSearchHistory)
	}
	if h[0] != "term-5" || h[len(h)-1] != "term-24" {
		t.Errorf("SearchHistory = %s..%s, want term-5..term-24", h[0], h[len(h)-1])
	}
}

func TestCart(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(storage.NewMemory(), &clock{now: t0})

	tr.AddToCart(ctx, 1, "Gala", 100)
	tr.AddToCart(ctx, 1, "Gala", 100)
	tr.AddToCart(ctx, 2, "Workshop", 25.5)

	cart := tr.Current(ctx).Cart
	if len(cart.Items) != 2 || cart.Items[0].Quantity != 2 {
		t.Fatalf("cart = %+v, want two lines with quantity 2 first", cart.Items)
	}
	if cart.TotalAmount() != 225.5 {
		t.Errorf("TotalAmount() = %v, want 225.5", cart.TotalAmount())
	}

	tr.RemoveFromCart(ctx, 1)
	cart = tr.Current(ctx).Cart
	if got := cart.TotalItems(); got != 1 {
		t.Errorf("TotalItems() after remove = %d, want 1", got)
	}

	tr.ClearCart(ctx)
	if got := len(tr.Current(ctx).Cart.Items); got != 0 {
		t.Errorf("cart lines after clear = %d, want 0", got)
	}
	if got := lastAction(t, tr); got != "clear_cart" {
		t.Errorf("last action = %s, want clear_cart", got)
	}
}

func TestPreferencesAndValues(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(storage.NewMemory(), &clock{now: t0})

	p := domain.DefaultPreferences()
	p.Theme = "dark"
	tr.UpdatePreferences(ctx, p)
	tr.SetValue(ctx, "layout", "grid")

	if got := tr.Current(ctx).Preferences.Theme; got != "dark" {
		t.Errorf("Theme = %s, want dark", got)
	}
	if v, ok := tr.Value(ctx, "layout"); !ok || v != "grid" {
		t.Errorf("Value(layout) = %v, %v, want grid, true", v, ok)
	}
	if _, ok := tr.Value(ctx, "missing"); ok {
		t.Error("Value(missing) ok = true, want false")
	}
}

func TestTick(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: t0}
	tr := newTracker(storage.NewMemory(), c)

	if tr.Tick(ctx) {
		t.Error("Tick() before Initialize = true, want false")
	}

	tr.Initialize(ctx)
	c.Advance(20 * time.Minute)
	if !tr.Tick(ctx) {
		t.Error("Tick() on active session = false, want true")
	}

	c.Advance(31 * time.Minute)
	if tr.Tick(ctx) {
		t.Error("Tick() on expired session = true, want false")
	}
}

func TestPersistenceFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{KV: storage.NewMemory(), setErr: errors.New("quota exceeded")}
	tr := newTracker(kv, &clock{now: t0})

	tr.TrackPageView(ctx, "home")

	if got := tr.Current(ctx).CurrentPage; got != "home" {
		t.Errorf("CurrentPage = %s, want home", got)
	}

	var failures int
	for _, ev := range tr.Events(ctx) {
		if ev.Type == domain.SessionError {
			failures++
		}
	}
	if failures == 0 {
		t.Error("no Error events recorded for failed writes")
	}
}

func TestPersistedEventLogIsCapped(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	tr := newTracker(kv, &clock{now: t0})

	for range 150 {
		tr.TrackEvent(ctx, domain.SessionNavigation, "events", "scroll", nil)
	}

	raw, ok, _ := kv.Get(ctx, EventsKey)
	if !ok {
		t.Fatal("event log not stored")
	}

	var stored []domain.SessionEvent
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("stored log: %v", err)
	}
	if len(stored) != PersistedEvents {
		t.Errorf("stored events = %d, want %d", len(stored), PersistedEvents)
	}
	if got := len(tr.Events(ctx)); got != 151 {
		t.Errorf("in-memory events = %d, want 151", got)
	}
}

func TestAnalytics(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(storage.NewMemory(), &clock{now: t0})

	tr.TrackPageView(ctx, "home")
	tr.TrackEventView(ctx, 3, "Gala")
	tr.TrackEventView(ctx, 3, "Gala")
	tr.TrackSearch(ctx, "gala", 1)
	tr.TrackRegistration(ctx, 3, false)
	tr.TrackRegistration(ctx, 3, true)
	tr.AddToCart(ctx, 3, "Gala", 80)
	tr.TrackPageView(ctx, "checkout")

	a := tr.Analytics(ctx)
	want := domain.SessionAnalytics{
		TotalPageViews:          2,
		UniqueEventsViewed:      1,
		SearchQueries:           1,
		RegistrationAttempts:    2,
		CompletedRegistrations:  1,
		ConvertedToRegistration: true,
		CartValue:               80,
		EntryPage:               "home",
		ExitPage:                "checkout",
	}

	if a.TotalPageViews != want.TotalPageViews ||
		a.UniqueEventsViewed != want.UniqueEventsViewed ||
		a.SearchQueries != want.SearchQueries ||
		a.RegistrationAttempts != want.RegistrationAttempts ||
		a.CompletedRegistrations != want.CompletedRegistrations ||
		a.ConvertedToRegistration != want.ConvertedToRegistration ||
		a.CartValue != want.CartValue ||
		a.EntryPage != want.EntryPage ||
		a.ExitPage != want.ExitPage {
		t.Errorf("Analytics() = %+v, want %+v", a, want)
	}
	if len(a.PopularSearchTerms) != 1 || a.PopularSearchTerms[0] != "gala" {
		t.Errorf("PopularSearchTerms = %v, want [gala]", a.PopularSearchTerms)
	}
}

func TestSubscribersMayCallBack(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(storage.NewMemory(), &clock{now: t0})

	var pages []string
	var tracked int
	tr.OnSessionUpdated(func(s domain.UserSession) {
		pages = append(pages, tr.Current(ctx).CurrentPage)
	})
	tr.OnEventTracked(func(domain.SessionEvent) { tracked++ })

	tr.TrackPageView(ctx, "events")

	if len(pages) != 1 || pages[0] != "events" {
		t.Errorf("session updates = %v, want [events]", pages)
	}
	// started + page view
	if tracked != 2 {
		t.Errorf("tracked events = %d, want 2", tracked)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	tr := newTracker(kv, &clock{now: t0})

	tr.Initialize(ctx)
	id := tr.Current(ctx).SessionID

	tr.Clear(ctx)

	if kv.Len() != 0 {
		t.Errorf("stored documents after Clear() = %d, want 0", kv.Len())
	}
	if got := tr.Current(ctx).SessionID; got == id {
		t.Errorf("session after Clear() = %s, want a new one", got)
	}
}
