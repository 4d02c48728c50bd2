// Package state keeps the view a visitor's client renders: session, current
// results, selection, filters, loading flag and error, and publishes every
// change to subscribers.
package state

import (
	"context"
	"log/slog"
	"math"
	"reflect"
	"sync"

	"github.com/elisaschroeder/eventease/internal/domain"
	"github.com/elisaschroeder/eventease/internal/service/catalog"
	"github.com/elisaschroeder/eventease/internal/service/session"
)

const (
	FieldSession     = "session"
	FieldResults     = "results"
	FieldSelected    = "selected_event"
	FieldSearchTerm  = "search_term"
	FieldCategory    = "category"
	FieldLoading     = "loading"
	FieldError       = "error"
	FieldCart        = "cart"
	FieldPreferences = "preferences"
)

const subscriberBuffer = 64

type Catalog interface {
	Query(ctx context.Context, q catalog.Query) (domain.PagedResult[domain.Event], error)
	Register(ctx context.Context, reg domain.Registration, rateKey string) (*domain.Registration, error)
}

// Change carries the new value of one view field.
type Change struct {
	Field string
	Value any
}

type View struct {
	Session    domain.UserSession                `json:"session"`
	Results    domain.PagedResult[domain.Event] `json:"results"`
	Selected   *domain.Event                     `json:"selected_event,omitempty"`
	SearchTerm string                            `json:"search_term"`
	Category   string                            `json:"category"`
	Loading    bool                              `json:"loading"`
	Error      string                            `json:"error,omitempty"`
}

// Store is the view of one visitor. It expects a single caller at a time;
// Registry provides that.
type Store struct {
	tracker *session.Tracker
	catalog Catalog
	logger  *slog.Logger

	view        View
	cart        domain.ShoppingCart
	preferences domain.UserPreferences

	subMu  sync.Mutex
	subs   map[int]chan Change
	nextID int
}

func NewStore(tracker *session.Tracker, c Catalog, logger *slog.Logger) *Store {
	s := &Store{
		tracker: tracker,
		catalog: c,
		logger:  logger,
		subs:    make(map[int]chan Change),
	}

	tracker.OnSessionUpdated(func(us domain.UserSession) {
		set(s, FieldSession, &s.view.Session, us)
	})

	return s
}

// Subscribe returns a channel receiving every view change and a function
// that cancels the subscription. A subscriber that falls behind by more than
// the channel buffer loses changes.
func (s *Store) Subscribe() (<-chan Change, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++

	ch := make(chan Change, subscriberBuffer)
	s.subs[id] = ch

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()

		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *Store) publish(field string, value any) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- Change{Field: field, Value: value}:
		default:
			s.logger.Warn("dropping view change for slow subscriber", "field", field)
		}
	}
}

// set writes v into dst and publishes it, unless it equals the current
// value.
func set[T any](s *Store, field string, dst *T, v T) bool {
	if reflect.DeepEqual(*dst, v) {
		return false
	}

	*dst = v
	s.publish(field, v)

	return true
}

// Initialize loads or starts the visitor session and publishes the derived
// cart and preferences.
func (s *Store) Initialize(ctx context.Context) {
	s.tracker.Initialize(ctx)
	s.refresh(ctx)
}

func (s *Store) refresh(ctx context.Context) {
	us := s.tracker.Current(ctx)

	set(s, FieldSession, &s.view.Session, us)
	set(s, FieldCart, &s.cart, us.Cart)
	set(s, FieldPreferences, &s.preferences, us.Preferences)
}

// Query runs a catalog query with the loading flag raised, storing either
// the results or the error message.
func (s *Store) Query(ctx context.Context, q catalog.Query) (domain.PagedResult[domain.Event], error) {
	s.SetLoading(true)
	defer s.SetLoading(false)

	res, err := s.catalog.Query(ctx, q)
	if err != nil {
		s.SetError(ctx, err.Error())
		return domain.PagedResult[domain.Event]{}, err
	}

	s.SetResults(ctx, res)

	return res, nil
}

func (s *Store) SetResults(ctx context.Context, res domain.PagedResult[domain.Event]) {
	set(s, FieldResults, &s.view.Results, res)

	byType := make(map[string]int)
	for _, e := range res.Items {
		byType[string(e.Type)]++
	}

	s.tracker.TrackEvent(ctx, domain.SessionNavigation, "events", "events_loaded", map[string]any{
		"event_count": len(res.Items),
		"event_types": byType,
	})
}

func (s *Store) Select(ctx context.Context, e domain.Event) {
	set(s, FieldSelected, &s.view.Selected, &e)
	s.tracker.TrackEventView(ctx, e.ID, e.Name)
}

func (s *Store) SetSearchTerm(ctx context.Context, term string) {
	set(s, FieldSearchTerm, &s.view.SearchTerm, term)

	if term != "" {
		s.tracker.TrackSearch(ctx, term, len(s.view.Results.Items))
	}
}

func (s *Store) SetCategory(ctx context.Context, category string) {
	set(s, FieldCategory, &s.view.Category, category)

	s.tracker.TrackEvent(ctx, domain.SessionFilterApplied, "events", "filter_event_type", map[string]any{
		"event_type": category,
	})
}

// SetLoading raises or lowers the loading flag. Raising it clears any error.
func (s *Store) SetLoading(loading bool) {
	set(s, FieldLoading, &s.view.Loading, loading)

	if loading {
		s.ClearError()
	}
}

func (s *Store) SetError(ctx context.Context, msg string) {
	set(s, FieldError, &s.view.Error, msg)

	if msg == "" {
		return
	}

	page := s.view.Session.CurrentPage
	if page == "" {
		page = "unknown"
	}

	s.tracker.TrackEvent(ctx, domain.SessionError, page, "error_occurred", map[string]any{
		"error_message": msg,
	})
}

func (s *Store) ClearError() {
	set(s, FieldError, &s.view.Error, "")
}

// Register books a place through the catalog and records the attempt in the
// session either way.
func (s *Store) Register(ctx context.Context, reg domain.Registration, rateKey string) (*domain.Registration, error) {
	out, err := s.catalog.Register(ctx, reg, rateKey)
	s.tracker.TrackRegistration(ctx, reg.EventID, err == nil)

	if err != nil {
		s.SetError(ctx, err.Error())
		return nil, err
	}

	s.ClearError()

	return out, nil
}

func (s *Store) AddToCart(ctx context.Context, e domain.Event) {
	s.tracker.AddToCart(ctx, e.ID, e.Name, e.Price)
	s.refresh(ctx)
}

func (s *Store) RemoveFromCart(ctx context.Context, eventID int64) {
	s.tracker.RemoveFromCart(ctx, eventID)
	s.refresh(ctx)
}

func (s *Store) ClearCart(ctx context.Context) {
	s.tracker.ClearCart(ctx)
	s.refresh(ctx)
}

func (s *Store) UpdatePreferences(ctx context.Context, p domain.UserPreferences) {
	s.tracker.UpdatePreferences(ctx, p)
	s.refresh(ctx)
}

// SavePreference stores a free-form value in the session data.
func (s *Store) SavePreference(ctx context.Context, key string, value any) {
	s.tracker.SetValue(ctx, key, value)
	s.refresh(ctx)
}

func (s *Store) Preference(ctx context.Context, key string) (any, bool) {
	return s.tracker.Value(ctx, key)
}

// Preference returns the stored value for key as T, or def when it is
// missing or of another type. Numbers are converted between kinds because a
// reloaded session decodes every number as float64; a fractional value does
// not convert to an integer kind.
func Preference[T any](ctx context.Context, s *Store, key string, def T) T {
	v, ok := s.Preference(ctx, key)
	if !ok {
		return def
	}

	if t, ok := v.(T); ok {
		return t
	}

	rv := reflect.ValueOf(v)
	target := reflect.TypeFor[T]()
	if !rv.IsValid() || !isNumber(rv.Kind()) || !isNumber(target.Kind()) {
		return def
	}

	if isFloat(rv.Kind()) && !isFloat(target.Kind()) {
		f := rv.Float()
		if f != math.Trunc(f) {
			return def
		}
	}

	return rv.Convert(target).Interface().(T)
}

func isNumber(k reflect.Kind) bool {
	return (k >= reflect.Int && k <= reflect.Uint64) || isFloat(k)
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

// Snapshot returns the current view with the session refreshed.
func (s *Store) Snapshot(ctx context.Context) View {
	s.refresh(ctx)

	v := s.view
	if v.Selected != nil {
		sel := *v.Selected
		v.Selected = &sel
	}

	return v
}

func (s *Store) Tracker() *session.Tracker { return s.tracker }

// Tick extends the session if it is still active.
func (s *Store) Tick(ctx context.Context) bool {
	return s.tracker.Tick(ctx)
}
