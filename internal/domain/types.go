package domain

import (
	"slices"
	"time"
)

type EventType string

const (
	EventCorporate    EventType = "Corporate"
	EventSocial       EventType = "Social"
	EventWedding      EventType = "Wedding"
	EventConference   EventType = "Conference"
	EventWorkshop     EventType = "Workshop"
	EventNetworking   EventType = "Networking"
	EventGala         EventType = "Gala"
	EventTeamBuilding EventType = "TeamBuilding"
)

var AllEventTypes = []EventType{
	EventCorporate,
	EventSocial,
	EventWedding,
	EventConference,
	EventWorkshop,
	EventNetworking,
	EventGala,
	EventTeamBuilding,
}

// CorporateTypes and SocialTypes are the category groups shown on the
// corporate and social listings.
var (
	CorporateTypes = []EventType{EventCorporate, EventConference, EventWorkshop, EventNetworking, EventTeamBuilding}
	SocialTypes    = []EventType{EventSocial, EventGala, EventWedding}
)

func ParseEventType(s string) (EventType, bool) {
	for _, t := range AllEventTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

type Event struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	Date                 time.Time `json:"date"`
	Location             string    `json:"location"`
	ImageURL             string    `json:"image_url"`
	Price                float64   `json:"price"`
	Capacity             int       `json:"capacity"`
	CurrentRegistrations int       `json:"current_registrations"`
	Type                 EventType `json:"type"`
	Organizer            string    `json:"organizer"`
	Tags                 []string  `json:"tags"`
	IsActive             bool      `json:"is_active"`
}

func (e *Event) IsFull() bool {
	return e.CurrentRegistrations >= e.Capacity
}

func (e *Event) Remaining() int {
	return e.Capacity - e.CurrentRegistrations
}

func (e *Event) InCategory(types []EventType) bool {
	return slices.Contains(types, e.Type)
}

type Registration struct {
	ID              int64     `json:"id"`
	EventID         int64     `json:"event_id"`
	FirstName       string    `json:"first_name" validate:"required,max=50"`
	LastName        string    `json:"last_name" validate:"required,max=50"`
	Email           string    `json:"email" validate:"required,email,max=100"`
	Phone           string    `json:"phone" validate:"omitempty,max=50"`
	Company         string    `json:"company" validate:"max=100"`
	Position        string    `json:"position" validate:"max=100"`
	RegisteredAt    time.Time `json:"registered_at"`
	SpecialRequests string    `json:"special_requests" validate:"max=500"`
	IsConfirmed     bool      `json:"is_confirmed"`
}
