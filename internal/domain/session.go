package domain

import "time"

const (
	SessionTimeout   = 30 * time.Minute
	MaxSearchHistory = 20
)

type UserSession struct {
	SessionID       string          `json:"session_id"`
	CreatedAt       time.Time       `json:"created_at"`
	LastActivity    time.Time       `json:"last_activity"`
	UserID          string          `json:"user_id,omitempty"`
	UserEmail       string          `json:"user_email,omitempty"`
	UserName        string          `json:"user_name,omitempty"`
	IsAuthenticated bool            `json:"is_authenticated"`
	Data            map[string]any  `json:"data"`
	ViewedEvents    []string        `json:"viewed_events"`
	SearchHistory   []string        `json:"search_history"`
	CurrentPage     string          `json:"current_page,omitempty"`
	PreviousPage    string          `json:"previous_page,omitempty"`
	PageViews       int             `json:"page_views"`
	Preferences     UserPreferences `json:"preferences"`
	Cart            ShoppingCart    `json:"cart"`
}

func NewUserSession(id string, now time.Time) UserSession {
	return UserSession{
		SessionID:     id,
		CreatedAt:     now,
		LastActivity:  now,
		Data:          map[string]any{},
		ViewedEvents:  []string{},
		SearchHistory: []string{},
		Preferences:   DefaultPreferences(),
		Cart:          ShoppingCart{Items: []CartItem{}, LastUpdated: now},
	}
}

// IsExpired reports whether more than SessionTimeout has passed since the
// last activity. Exactly SessionTimeout is still active.
func (s *UserSession) IsExpired(now time.Time) bool {
	return now.Sub(s.LastActivity) > SessionTimeout
}

func (s *UserSession) Duration(now time.Time) time.Duration {
	return now.Sub(s.CreatedAt)
}

// AddSearch appends term unless it is empty or already present, evicting
// the oldest entry once the history grows past MaxSearchHistory.
func (s *UserSession) AddSearch(term string) {
	if term == "" {
		return
	}
	for _, t := range s.SearchHistory {
		if t == term {
			return
		}
	}
	s.SearchHistory = append(s.SearchHistory, term)
	if len(s.SearchHistory) > MaxSearchHistory {
		s.SearchHistory = s.SearchHistory[len(s.SearchHistory)-MaxSearchHistory:]
	}
}

type UserPreferences struct {
	PreferredEventType string   `json:"preferred_event_type"`
	PreferredLocation  string   `json:"preferred_location"`
	MaxPrice           float64  `json:"max_price"`
	PreferredPageSize  int      `json:"preferred_page_size"`
	EmailNotifications bool     `json:"email_notifications"`
	Theme              string   `json:"theme"`
	FavoriteEventTypes []string `json:"favorite_event_types"`
	FavoriteLocations  []string `json:"favorite_locations"`
}

func DefaultPreferences() UserPreferences {
	return UserPreferences{
		MaxPrice:           1000,
		PreferredPageSize:  10,
		EmailNotifications: true,
		Theme:              "light",
		FavoriteEventTypes: []string{},
		FavoriteLocations:  []string{},
	}
}

type ShoppingCart struct {
	Items       []CartItem `json:"items"`
	LastUpdated time.Time  `json:"last_updated"`
}

func (c *ShoppingCart) TotalAmount() float64 {
	var total float64
	for _, it := range c.Items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

func (c *ShoppingCart) TotalItems() int {
	var n int
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// Add increments the quantity of an existing line for eventID or appends a
// new line with quantity 1.
func (c *ShoppingCart) Add(eventID int64, name string, price float64, now time.Time) {
	for i := range c.Items {
		if c.Items[i].EventID == eventID {
			c.Items[i].Quantity++
			c.LastUpdated = now
			return
		}
	}
	c.Items = append(c.Items, CartItem{
		EventID:   eventID,
		EventName: name,
		Price:     price,
		Quantity:  1,
		DateAdded: now,
		Metadata:  map[string]string{},
	})
	c.LastUpdated = now
}

// Remove deletes the line for eventID and reports whether one existed.
func (c *ShoppingCart) Remove(eventID int64, now time.Time) bool {
	for i := range c.Items {
		if c.Items[i].EventID == eventID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.LastUpdated = now
			return true
		}
	}
	return false
}

type CartItem struct {
	EventID   int64             `json:"event_id"`
	EventName string            `json:"event_name"`
	Price     float64           `json:"price"`
	Quantity  int               `json:"quantity"`
	DateAdded time.Time         `json:"date_added"`
	Metadata  map[string]string `json:"metadata"`
}

type SessionEventType string

const (
	SessionPageView          SessionEventType = "PageView"
	SessionEventView         SessionEventType = "EventView"
	SessionSearch            SessionEventType = "Search"
	SessionRegistration      SessionEventType = "Registration"
	SessionAddToCart         SessionEventType = "AddToCart"
	SessionRemoveFromCart    SessionEventType = "RemoveFromCart"
	SessionFilterApplied     SessionEventType = "FilterApplied"
	SessionPreferenceChanged SessionEventType = "PreferenceChanged"
	SessionLogin             SessionEventType = "Login"
	SessionLogout            SessionEventType = "Logout"
	SessionError             SessionEventType = "Error"
	SessionDownload          SessionEventType = "Download"
	SessionShare             SessionEventType = "Share"
	SessionNavigation        SessionEventType = "Navigation"
)

type SessionEvent struct {
	ID        string           `json:"id"`
	SessionID string           `json:"session_id"`
	Timestamp time.Time        `json:"timestamp"`
	Type      SessionEventType `json:"type"`
	Page      string           `json:"page"`
	Action    string           `json:"action"`
	Data      map[string]any   `json:"data"`
	UserID    string           `json:"user_id,omitempty"`
	UserAgent string           `json:"user_agent,omitempty"`
}

type SessionAnalytics struct {
	SessionID               string    `json:"session_id"`
	TotalPageViews          int       `json:"total_page_views"`
	UniqueEventsViewed      int       `json:"unique_events_viewed"`
	SearchQueries           int       `json:"search_queries"`
	RegistrationAttempts    int       `json:"registration_attempts"`
	CompletedRegistrations  int       `json:"completed_registrations"`
	PopularSearchTerms      []string  `json:"popular_search_terms"`
	EntryPage               string    `json:"entry_page"`
	ExitPage                string    `json:"exit_page"`
	FirstActivity           time.Time `json:"first_activity"`
	LastActivity            time.Time `json:"last_activity"`
	ConvertedToRegistration bool      `json:"converted_to_registration"`
	CartValue               float64   `json:"cart_value"`
}
