package memory

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/elisaschroeder/eventease/internal/domain"
)

const (
	SampleEventCount = 50
	SampleSeed       = 42
)

type eventTemplate struct {
	name     string
	typ      domain.EventType
	price    float64
	capacity int
	location string
	color    string
}

var eventTemplates = []eventTemplate{
	{"Tech Conference", domain.EventConference, 299, 500, "Seattle Convention Center, Seattle, WA", "007bff"},
	{"Team Building Retreat", domain.EventTeamBuilding, 450, 100, "Mountain View Resort, Colorado", "28a745"},
	{"Spring Gala", domain.EventGala, 200, 250, "Grand Ballroom, Ritz Carlton Downtown", "dc3545"},
	{"Workshop Series", domain.EventWorkshop, 150, 50, "Innovation Hub, Austin, TX", "ffc107"},
	{"Networking Mixer", domain.EventNetworking, 75, 150, "Rooftop Lounge, Metropolitan Hotel", "17a2b8"},
	{"Wedding Showcase", domain.EventWedding, 25, 300, "Crystal Gardens Event Center", "e83e8c"},
	{"Corporate Meeting", domain.EventCorporate, 500, 200, "Business District Conference Center", "6c757d"},
	{"Social Gathering", domain.EventSocial, 50, 120, "Community Center, Downtown", "20c997"},
}

var (
	organizers = []string{
		"TechEvents Inc.", "EventEase Solutions", "Premium Events Co.", "Corporate Gatherings Ltd.",
		"Social Connections", "Elite Event Planners", "Innovation Events", "Luxury Occasions",
	}
	adjectives = []string{
		"Annual", "Exclusive", "Premium", "Elite", "Grand",
		"Professional", "Innovative", "Spectacular", "Ultimate", "Advanced",
	}
	years = []string{"2025", "2026"}
)

var eventDescriptions = map[domain.EventType]string{
	domain.EventConference:   "Join industry leaders for cutting-edge discussions, networking opportunities, and keynote presentations from top innovators in the field.",
	domain.EventTeamBuilding: "A comprehensive team building experience featuring activities, leadership workshops, and collaborative challenges designed to strengthen team bonds.",
	domain.EventGala:         "An exclusive black-tie event featuring fine dining, live entertainment, and networking in a luxurious setting.",
	domain.EventWorkshop:     "Hands-on learning experience with expert instructors, practical exercises, and valuable takeaways for professional development.",
	domain.EventNetworking:   "Connect with like-minded professionals across various industries in a relaxed atmosphere with refreshments and meaningful conversations.",
	domain.EventWedding:      "Discover the latest trends and vendor showcases with expert consultations and planning resources for your perfect day.",
	domain.EventCorporate:    "Professional business gathering focused on strategic planning, team alignment, and organizational objectives.",
	domain.EventSocial:       "Community-focused social event bringing people together for fun, entertainment, and relationship building.",
}

var eventTags = map[domain.EventType][]string{
	domain.EventConference:   {"Technology", "Innovation", "Networking", "Professional", "Learning"},
	domain.EventTeamBuilding: {"Team Building", "Leadership", "Corporate", "Collaboration", "Development"},
	domain.EventGala:         {"Formal", "Elegant", "Networking", "Entertainment", "Luxury"},
	domain.EventWorkshop:     {"Education", "Hands-on", "Skills", "Training", "Professional"},
	domain.EventNetworking:   {"Networking", "Professional", "Business", "Connections", "Industry"},
	domain.EventWedding:      {"Wedding", "Planning", "Vendors", "Luxury", "Trends"},
	domain.EventCorporate:    {"Corporate", "Business", "Strategy", "Professional", "Meeting"},
	domain.EventSocial:       {"Social", "Community", "Fun", "Entertainment", "Casual"},
}

// SampleEvents generates count active events dated within a year of now.
// The same seed always yields the same names, prices and counts. The result
// is ordered by date.
func SampleEvents(count int, seed uint64, now time.Time) []domain.Event {
	rng := rand.New(rand.NewPCG(seed, seed))
	events := make([]domain.Event, 0, count)

	for i := 1; i <= count; i++ {
		tpl := eventTemplates[i%len(eventTemplates)]
		adjective := adjectives[rng.IntN(len(adjectives))]
		year := years[rng.IntN(len(years))]
		organizer := organizers[rng.IntN(len(organizers))]

		variation := rng.Float64()*0.4 - 0.2
		price := math.Round(tpl.price*(1+variation)*100) / 100

		fill := 0.3 + rng.Float64()*0.5
		current := int(float64(tpl.capacity) * fill)

		events = append(events, domain.Event{
			ID:          int64(i),
			Name:        fmt.Sprintf("%s %s %s", adjective, tpl.name, year),
			Description: eventDescriptions[tpl.typ],
			Date:        now.AddDate(0, 0, rng.IntN(364)+1),
			Location:    tpl.location,
			ImageURL: fmt.Sprintf(
				"https://via.placeholder.com/400x250/%s/ffffff?text=%s",
				tpl.color,
				strings.ReplaceAll(tpl.name, " ", "+"),
			),
			Price:                price,
			Capacity:             tpl.capacity,
			CurrentRegistrations: current,
			Type:                 tpl.typ,
			Organizer:            organizer,
			Tags:                 slices.Clone(eventTags[tpl.typ]),
			IsActive:             true,
		})
	}

	slices.SortStableFunc(events, func(a, b domain.Event) int {
		return a.Date.Compare(b.Date)
	})

	return events
}

var (
	sampleCompanies  = []string{"TechCorp", "Innovate Ltd", "Digital Solutions", "Future Systems", "Creative Agency", "Global Enterprises"}
	sampleJobTitles  = []string{"Software Developer", "Project Manager", "Marketing Director", "Sales Manager", "CEO", "CTO", "Designer", "Analyst"}
	sampleFirstNames = []string{"John", "Jane", "Mike", "Sarah", "David", "Lisa", "Tom", "Emily", "Chris", "Anna"}
	sampleLastNames  = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez"}
)

// SampleAttendees generates 15 to 39 attendees for each of events 1..10.
// Attendees of events 1..5 are treated as past: most are checked in and many
// of those checked out again.
func SampleAttendees(seed uint64, now time.Time) []domain.Attendee {
	rng := rand.New(rand.NewPCG(seed, seed+1))

	var out []domain.Attendee
	var nextID int64 = 1

	for eventID := int64(1); eventID <= 10; eventID++ {
		n := 15 + rng.IntN(25)

		for range n {
			first := sampleFirstNames[rng.IntN(len(sampleFirstNames))]
			last := sampleLastNames[rng.IntN(len(sampleLastNames))]
			company := sampleCompanies[rng.IntN(len(sampleCompanies))]

			a := domain.Attendee{
				ID:      nextID,
				EventID: eventID,
				Name:    first + " " + last,
				Email: fmt.Sprintf("%s.%s@%s.com",
					strings.ToLower(first),
					strings.ToLower(last),
					strings.ToLower(strings.ReplaceAll(company, " ", "")),
				),
				Phone:        fmt.Sprintf("(%d) %d-%d", 100+rng.IntN(899), 100+rng.IntN(899), 1000+rng.IntN(8999)),
				Company:      company,
				JobTitle:     sampleJobTitles[rng.IntN(len(sampleJobTitles))],
				RegisteredAt: now.AddDate(0, 0, -(1 + rng.IntN(29))),
				IsVIP:        rng.IntN(9) == 0,
				Status:       domain.StatusRegistered,
			}
			nextID++

			if eventID <= 5 {
				switch {
				case rng.IntN(9) < 8:
					in := now.AddDate(0, 0, -(1 + rng.IntN(13))).Add(time.Duration(8+rng.IntN(2)) * time.Hour)
					a.CheckInTime = &in
					a.Status = domain.StatusCheckedIn

					if rng.IntN(9) < 7 {
						outAt := in.Add(time.Duration(2+rng.IntN(6)) * time.Hour)
						a.CheckOutTime = &outAt
						a.Status = domain.StatusCheckedOut
					}
				case rng.IntN(9) < 2:
					a.Status = domain.StatusNoShow
				}
			}

			out = append(out, a)
		}
	}

	return out
}
