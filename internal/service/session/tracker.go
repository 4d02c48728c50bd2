// Package session tracks one visitor's session: identity, navigation,
// searches, cart and preferences, plus a log of interaction events. Both are
// persisted as whole JSON documents in a storage.KV after every change.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/elisaschroeder/eventease/internal/domain"
	"github.com/elisaschroeder/eventease/internal/storage"
	"github.com/google/uuid"
)

const (
	SessionKey = "eventease_session"
	EventsKey  = "eventease_session_events"

	// PersistedEvents caps the event log written to storage. The in-memory
	// log is not capped.
	PersistedEvents = 100

	KeepAliveInterval = time.Minute

	popularSearchTerms = 5
)

type Options struct {
	Now       func() time.Time
	NewID     func() string
	UserAgent string
}

// Tracker owns one visitor session. It is safe for concurrent use;
// subscribers are called after the tracker's lock is released.
type Tracker struct {
	mu        sync.Mutex
	kv        storage.KV
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
	userAgent string

	loaded  bool
	session domain.UserSession
	events  []domain.SessionEvent

	onSession []func(domain.UserSession)
	onEvent   []func(domain.SessionEvent)
	pending   []func()
}

func NewTracker(kv storage.KV, logger *slog.Logger, opts Options) *Tracker {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Unknown"
	}

	return &Tracker{
		kv:        kv,
		logger:    logger,
		now:       opts.Now,
		newID:     opts.NewID,
		userAgent: opts.UserAgent,
	}
}

// OnSessionUpdated registers fn to receive the session after every Mutate.
func (t *Tracker) OnSessionUpdated(fn func(domain.UserSession)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.onSession = append(t.onSession, fn)
}

// OnEventTracked registers fn to receive every tracked event.
func (t *Tracker) OnEventTracked(fn func(domain.SessionEvent)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.onEvent = append(t.onEvent, fn)
}

// Initialize resumes the persisted session when it exists and has not
// expired, and starts a new one otherwise. Storage problems never surface:
// an unreadable store yields a fresh session plus an Error event, and an
// undecodable document counts as no session at all.
func (t *Tracker) Initialize(ctx context.Context) {
	t.mu.Lock()
	defer t.flush()

	t.initialize(ctx)
}

func (t *Tracker) initialize(ctx context.Context) {
	now := t.now()
	t.loaded = true

	raw, ok, err := t.kv.Get(ctx, SessionKey)
	if err != nil {
		t.session = domain.NewUserSession(t.newID(), now)
		t.events = nil
		t.track(ctx, domain.SessionError, "session", "initialization_failed", map[string]any{"error": err.Error()})
		return
	}

	if ok && raw != "" {
		var s domain.UserSession
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			t.logger.DebugContext(ctx, "discarding stored session", "error", err)
		} else if s.SessionID != "" && !s.IsExpired(now) {
			normalize(&s)
			s.LastActivity = now
			t.session = s
			t.events = t.loadEvents(ctx, s.SessionID)
			t.saveSession(ctx)
			t.track(ctx, domain.SessionNavigation, "session", "resumed", nil)
			return
		}
	}

	t.session = domain.NewUserSession(t.newID(), now)
	t.events = nil
	t.saveSession(ctx)
	t.track(ctx, domain.SessionNavigation, "session", "started", nil)
}

// Current returns a copy of the live session, starting one if none is
// loaded and replacing it if it has expired.
func (t *Tracker) Current(ctx context.Context) domain.UserSession {
	t.mu.Lock()
	defer t.flush()

	t.ensure(ctx)

	return cloneSession(t.session)
}

// TrackEvent appends an event to the log and persists both documents.
func (t *Tracker) TrackEvent(ctx context.Context, typ domain.SessionEventType, page, action string, data map[string]any) {
	t.mu.Lock()
	defer t.flush()

	t.ensure(ctx)
	t.track(ctx, typ, page, action, data)
}

// Mutate applies fn to the session, bumps its last activity and persists
// it. Every session change goes through here.
func (t *Tracker) Mutate(ctx context.Context, fn func(s *domain.UserSession)) {
	t.mu.Lock()
	defer t.flush()

	t.ensure(ctx)
	t.mutate(ctx, fn)
}

func (t *Tracker) TrackPageView(ctx context.Context, page string) {
	t.mu.Lock()
	defer t.flush()

	t.ensure(ctx)
	t.mutate(ctx, func(s *domain.UserSession) {
		s.PreviousPage = s.CurrentPage
		s.CurrentPage = page
		s.PageViews++
	})
	t.track(ctx, domain.SessionPageView, page, "view", nil)
}

func (t *Tracker) TrackEventView(ctx context.Context, eventID int64, eventName string) {
	t.mu.Lock()
	defer t.flush()

	t.ensure(ctx)
	t.mutate(ctx, func(s *domain.UserSession) {
		id := strconv.FormatInt(eventID, 10)
		if !slices.Contains(s.ViewedEvents, id) {
			s.ViewedEvents = append(s.ViewedEvents, id)
		}
	})
	t.track(ctx, domain.SessionEventView, "event_details", "view", map[string]any{
		"event_id":   eventID,
		"event_name": eventName,
	})
}

func (t *Tracker) TrackSearch(ctx context.Context, term string, resultCount int) {
	t.mu.Lock()
	defer t.flush()

	t.ensure(ctx)
	t.mutate(ctx, func(s *domain.UserSession) { s.AddSearch(term) })
	t.track(ctx, domain.SessionSearch, "events", "search", map[string]any{
		"search_term":  term,
		"result_count": resultCount,
		"timestamp":    t.now(),
	})
}

func (t *Tracker) TrackRegistration(ctx context.Context, eventID int64, successful bool) {
	action := "registration_failed"
	if successful {
		action = "registration_success"
	}

	t.TrackEvent(ctx, domain.SessionRegistration, "event_details", action, map[string]any{
		"event_id":   eventID,
		"successful": successful,
	})
}

func (t *Tracker) AddToCart(ctx context.Context, eventID int64, eventName string, price float64) {
	t.mu.Lock()
	defer t.flush()

	t.ensure(ctx)
	now := t.now()
	t.mutate(ctx, func(s *domain.UserSession) { s.Cart.Add(eventID, eventName, price, now) })
	t.track(ctx, domain.SessionAddToCart, "event_details", "add_to_cart", map[string]any{
		"event_id":   eventID,
		"event_name": eventName,
		"price":      price,
	})
}

func (t *Tracker) RemoveFromCart(ctx context.Context, eventID int64) {
	t.mu.Lock()
	defer t.flush()

	t.ensure(ctx)
	now := t.now()
	t.mutate(ctx, func(s *domain.UserSession) { s.Cart.Remove(eventID, now) })
	t.track(ctx, domain.SessionRemoveFromCart, "cart", "remove_from_cart", map[string]any{"event_id": eventID})
}

func (t *Tracker) ClearCart(ctx context.Context) {
	t.mu.Lock()
	defer t.flush()

	t.ensure(ctx)
	now := t.now()
	t.mutate(ctx, func(s *domain.UserSession) {
		s.Cart.Items = []domain.CartItem{}
		s.Cart.LastUpdated = now
	})
	t.track(ctx, domain.SessionRemoveFromCart, "cart", "clear_cart", nil)
}

func (t *Tracker) UpdatePreferences(ctx context.Context, p domain.UserPreferences) {
	t.mu.Lock()
	defer t.flush()

	t.ensure(ctx)
	t.mutate(ctx, func(s *domain.UserSession) { s.Preferences = p })
	t.track(ctx, domain.SessionPreferenceChanged, "preferences", "update", map[string]any{"preferences": p})
}

// SetValue stores an arbitrary value in the session data map.
func (t *Tracker) SetValue(ctx context.Context, key string, value any) {
	t.Mutate(ctx, func(s *domain.UserSession) {
		if s.Data == nil {
			s.Data = map[string]any{}
		}
		s.Data[key] = value
	})
}

func (t *Tracker) Value(ctx context.Context, key string) (any, bool) {
	t.mu.Lock()
	defer t.flush()

	t.ensure(ctx)
	v, ok := t.session.Data[key]

	return v, ok
}

// Extend bumps the last activity and persists the session.
func (t *Tracker) Extend(ctx context.Context) {
	t.mu.Lock()
	defer t.flush()

	t.ensure(ctx)
	t.session.LastActivity = t.now()
	t.saveSession(ctx)
}

// Tick extends a loaded session that has not expired yet. Expired sessions
// are left alone and get replaced on their next access.
func (t *Tracker) Tick(ctx context.Context) bool {
	t.mu.Lock()
	defer t.flush()

	now := t.now()
	if !t.loaded || t.session.IsExpired(now) {
		return false
	}

	t.session.LastActivity = now
	t.saveSession(ctx)

	return true
}

// KeepAlive calls Tick every interval until ctx is done.
func (t *Tracker) KeepAlive(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = KeepAliveInterval
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Tick(ctx)
		}
	}
}

// Events returns the log entries of the current session.
func (t *Tracker) Events(ctx context.Context) []domain.SessionEvent {
	t.mu.Lock()
	defer t.flush()

	t.ensure(ctx)

	return t.sessionEvents()
}

func (t *Tracker) Analytics(ctx context.Context) domain.SessionAnalytics {
	t.mu.Lock()
	defer t.flush()

	t.ensure(ctx)

	s := &t.session
	a := domain.SessionAnalytics{
		SessionID:          s.SessionID,
		UniqueEventsViewed: len(s.ViewedEvents),
		FirstActivity:      s.CreatedAt,
		LastActivity:       s.LastActivity,
		CartValue:          s.Cart.TotalAmount(),
		PopularSearchTerms: slices.Clone(s.SearchHistory[:min(popularSearchTerms, len(s.SearchHistory))]),
	}

	for _, ev := range t.sessionEvents() {
		switch ev.Type {
		case domain.SessionPageView:
			a.TotalPageViews++
			if a.EntryPage == "" {
				a.EntryPage = ev.Page
			}
			a.ExitPage = ev.Page
		case domain.SessionSearch:
			a.SearchQueries++
		case domain.SessionRegistration:
			a.RegistrationAttempts++
			if ok, _ := ev.Data["successful"].(bool); ok {
				a.CompletedRegistrations++
				a.ConvertedToRegistration = true
			}
		}
	}

	return a
}

// Clear logs the visitor out and removes both persisted documents. The next
// access starts a new session.
func (t *Tracker) Clear(ctx context.Context) {
	t.mu.Lock()
	defer t.flush()

	t.clear(ctx)
}

// clear drops the session without touching its last activity, so a stored
// copy that could not be removed still reads as expired.
func (t *Tracker) clear(ctx context.Context) {
	if t.loaded {
		ev := t.newEvent(domain.SessionLogout, "session", "cleared", nil)
		t.events = append(t.events, ev)
		t.notifyEvent(ev)
	}

	t.loaded = false
	t.session = domain.UserSession{}
	t.events = nil

	for _, key := range []string{SessionKey, EventsKey} {
		if err := t.kv.Remove(ctx, key); err != nil {
			t.logger.WarnContext(ctx, "remove session document", "key", key, "error", err)
		}
	}
}

func (t *Tracker) ensure(ctx context.Context) {
	if !t.loaded {
		t.initialize(ctx)
		return
	}

	if t.session.IsExpired(t.now()) {
		t.clear(ctx)
		t.initialize(ctx)
	}
}

func (t *Tracker) mutate(ctx context.Context, fn func(s *domain.UserSession)) {
	fn(&t.session)
	t.session.LastActivity = t.now()
	t.saveSession(ctx)

	snapshot := cloneSession(t.session)
	for _, sub := range t.onSession {
		t.pending = append(t.pending, func() { sub(snapshot) })
	}
}

func (t *Tracker) track(ctx context.Context, typ domain.SessionEventType, page, action string, data map[string]any) {
	ev := t.newEvent(typ, page, action, data)
	t.events = append(t.events, ev)
	t.saveEvents(ctx)

	t.session.LastActivity = t.now()
	t.saveSession(ctx)

	t.notifyEvent(ev)
}

func (t *Tracker) newEvent(typ domain.SessionEventType, page, action string, data map[string]any) domain.SessionEvent {
	if data == nil {
		data = map[string]any{}
	}

	return domain.SessionEvent{
		ID:        t.newID(),
		SessionID: t.session.SessionID,
		Timestamp: t.now(),
		Type:      typ,
		Page:      page,
		Action:    action,
		Data:      data,
		UserID:    t.session.UserID,
		UserAgent: t.userAgent,
	}
}

func (t *Tracker) notifyEvent(ev domain.SessionEvent) {
	for _, sub := range t.onEvent {
		t.pending = append(t.pending, func() { sub(ev) })
	}
}

// persistFailed records a storage failure in memory only. Writing it out
// would hit the same failing store.
func (t *Tracker) persistFailed(ctx context.Context, action string, err error) {
	t.logger.WarnContext(ctx, "session persistence failed", "action", action, "error", err)

	ev := t.newEvent(domain.SessionError, "session", action, map[string]any{"error": err.Error()})
	t.events = append(t.events, ev)
	t.notifyEvent(ev)
}

func (t *Tracker) saveSession(ctx context.Context) {
	b, err := json.Marshal(t.session)
	if err == nil {
		err = t.kv.Set(ctx, SessionKey, string(b))
	}
	if err != nil {
		t.persistFailed(ctx, "save_failed", err)
	}
}

func (t *Tracker) saveEvents(ctx context.Context) {
	recent := t.events[max(0, len(t.events)-PersistedEvents):]

	b, err := json.Marshal(recent)
	if err == nil {
		err = t.kv.Set(ctx, EventsKey, string(b))
	}
	if err != nil {
		t.persistFailed(ctx, "events_save_failed", err)
	}
}

func (t *Tracker) loadEvents(ctx context.Context, sessionID string) []domain.SessionEvent {
	raw, ok, err := t.kv.Get(ctx, EventsKey)
	if err != nil || !ok {
		return nil
	}

	var stored []domain.SessionEvent
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.logger.DebugContext(ctx, "discarding stored session events", "error", err)
		return nil
	}

	return slices.DeleteFunc(stored, func(ev domain.SessionEvent) bool {
		return ev.SessionID != sessionID
	})
}

func (t *Tracker) sessionEvents() []domain.SessionEvent {
	out := make([]domain.SessionEvent, 0, len(t.events))
	for _, ev := range t.events {
		if ev.SessionID == t.session.SessionID {
			out = append(out, ev)
		}
	}
	return out
}

// flush releases the lock and delivers the notifications queued while it
// was held.
func (t *Tracker) flush() {
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

// normalize fills the collections a stored document may have left null.
func normalize(s *domain.UserSession) {
	if s.Data == nil {
		s.Data = map[string]any{}
	}
	if s.ViewedEvents == nil {
		s.ViewedEvents = []string{}
	}
	if s.SearchHistory == nil {
		s.SearchHistory = []string{}
	}
	if s.Cart.Items == nil {
		s.Cart.Items = []domain.CartItem{}
	}
}

func cloneSession(s domain.UserSession) domain.UserSession {
	s.Data = maps.Clone(s.Data)
	s.ViewedEvents = slices.Clone(s.ViewedEvents)
	s.SearchHistory = slices.Clone(s.SearchHistory)
	s.Preferences.FavoriteEventTypes = slices.Clone(s.Preferences.FavoriteEventTypes)
	s.Preferences.FavoriteLocations = slices.Clone(s.Preferences.FavoriteLocations)
	s.Cart.Items = slices.Clone(s.Cart.Items)
	return s
}
