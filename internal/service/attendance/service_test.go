package attendance

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/elisaschroeder/eventease/internal/domain"
	"github.com/elisaschroeder/eventease/internal/repository/memory"
)

// Wednesday.
var now = time.Date(2025, 6, 11, 15, 0, 0, 0, time.UTC)

type fakeEvents struct {
	events []domain.Event
}

func (f *fakeEvents) GetEvent(_ context.Context, id int64) (*domain.Event, error) {
	for _, e := range f.events {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeEvents) ListEvents(context.Context) ([]domain.Event, error) {
	return f.events, nil
}

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func fixture() []domain.Attendee {
	return []domain.Attendee{
		{ID: 1, EventID: 1, Name: "Zoe Adams", Email: "zoe@acme.com", Company: "Acme", Status: domain.StatusRegistered},
		{ID: 2, EventID: 1, Name: "Adam Brown", Email: "adam@globex.com", Company: "Globex", JobTitle: "CTO", Status: domain.StatusCheckedIn, CheckInTime: at(-2 * time.Hour), IsVIP: true},
		{ID: 3, EventID: 1, Name: "Mia Clark", Email: "mia@acme.com", Company: "Acme", Status: domain.StatusCheckedOut, CheckInTime: at(-3 * time.Hour), CheckOutTime: at(-1 * time.Hour)},
		{ID: 4, EventID: 1, Name: "Noah Davis", Email: "noah@initech.com", Status: domain.StatusNoShow},
		{ID: 5, EventID: 2, Name: "Adam Brown", Email: "adam@globex.com", Company: "Globex", Status: domain.StatusCheckedOut, CheckInTime: at(-30 * time.Hour), CheckOutTime: at(-29 * time.Hour)},
	}
}

func events() []domain.Event {
	return []domain.Event{
		{ID: 1, Name: "Summit", Date: now.AddDate(0, 0, -3), IsActive: true},
		{ID: 2, Name: "Gala", Date: now.AddDate(0, 0, -10), IsActive: true},
		{ID: 3, Name: "Workshop", Date: now.AddDate(0, 0, 2), IsActive: true},
		{ID: 4, Name: "Expo", Date: now.AddDate(0, 0, 20), IsActive: true},
	}
}

func newService(attendees []domain.Attendee) *Service {
	svc := New(memory.NewAttendeeRepo(attendees), &fakeEvents{events: events()}, nil, slog.New(slog.DiscardHandler))
	return svc.WithClock(func() time.Time { return now })
}

func names(list []domain.Attendee) string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.Name
	}
	return strings.Join(out, ",")
}

func TestEventAttendeesSortedByName(t *testing.T) {
	svc := newService(fixture())

	got, err := svc.EventAttendees(context.Background(), 1)
	if err != nil {
		t.Fatalf("EventAttendees() error = %v", err)
	}

	want := "Adam Brown,Mia Clark,Noah Davis,Zoe Adams"
	if names(got) != want {
		t.Errorf("EventAttendees() = %s, want %s", names(got), want)
	}
}

func TestRegister(t *testing.T) {
	svc := newService(fixture())
	ctx := context.Background()

	got, err := svc.Register(ctx, domain.Attendee{
		EventID: 3,
		Name:    "Eve Fox",
		Email:   "eve@example.com",
		Status:  domain.StatusCheckedOut,
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if got.ID != 6 {
		t.Errorf("Register() id = %d, want 6", got.ID)
	}
	if got.Status != domain.StatusRegistered {
		t.Errorf("Register() status = %s, want %s", got.Status, domain.StatusRegistered)
	}
	if !got.RegisteredAt.Equal(now) {
		t.Errorf("Register() registered at = %v, want %v", got.RegisteredAt, now)
	}

	if _, err := svc.Register(ctx, domain.Attendee{EventID: 3, Name: "No Email"}); !errors.Is(err, ErrInvalidAttendee) {
		t.Errorf("Register() without email error = %v, want %v", err, ErrInvalidAttendee)
	}
}

func TestUpdateAndDeleteMissing(t *testing.T) {
	svc := newService(fixture())
	ctx := context.Background()

	_, err := svc.Update(ctx, domain.Attendee{ID: 99, EventID: 1, Name: "Ghost", Email: "ghost@example.com"})
	if !errors.Is(err, ErrAttendeeNotFound) {
		t.Errorf("Update() error = %v, want %v", err, ErrAttendeeNotFound)
	}

	if err := svc.Delete(ctx, 99); !errors.Is(err, ErrAttendeeNotFound) {
		t.Errorf("Delete() error = %v, want %v", err, ErrAttendeeNotFound)
	}

	if err := svc.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Attendee(ctx, 1); !errors.Is(err, ErrAttendeeNotFound) {
		t.Errorf("Attendee() after delete error = %v, want %v", err, ErrAttendeeNotFound)
	}
}

func TestCheckIn(t *testing.T) {
	tests := []struct {
		name      string
		req       domain.CheckInRequest
		wantErr   error
		wantNotes string
	}{
		{
			name:      "registered attendee",
			req:       domain.CheckInRequest{AttendeeID: 1, EventID: 1, Notes: "front row"},
			wantNotes: "front row",
		},
		{
			name:    "wrong event",
			req:     domain.CheckInRequest{AttendeeID: 1, EventID: 2},
			wantErr: ErrAttendeeNotFound,
		},
		{
			name:    "missing attendee",
			req:     domain.CheckInRequest{AttendeeID: 42, EventID: 1},
			wantErr: ErrAttendeeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(fixture())

			got, err := svc.CheckIn(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CheckIn() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}

			if got.Status != domain.StatusCheckedIn {
				t.Errorf("CheckIn() status = %s, want %s", got.Status, domain.StatusCheckedIn)
			}
			if got.CheckInTime == nil || !got.CheckInTime.Equal(now) {
				t.Errorf("CheckIn() time = %v, want %v", got.CheckInTime, now)
			}
			if got.Notes != tt.wantNotes {
				t.Errorf("CheckIn() notes = %q, want %q", got.Notes, tt.wantNotes)
			}
		})
	}
}

func TestCheckInTwiceMovesTime(t *testing.T) {
	svc := newService(fixture())
	ctx := context.Background()

	later := now.Add(time.Hour)
	if _, err := svc.CheckIn(ctx, domain.CheckInRequest{AttendeeID: 2, EventID: 1, CheckInTime: later}); err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}

	got, _ := svc.Attendee(ctx, 2)
	if !got.CheckInTime.Equal(later) {
		t.Errorf("second CheckIn() time = %v, want %v", got.CheckInTime, later)
	}
}

func TestCheckOut(t *testing.T) {
	rating := func(n int) *int { return &n }

	tests := []struct {
		name      string
		req       domain.CheckOutRequest
		wantErr   error
		wantNotes string
	}{
		{
			name:      "feedback and rating",
			req:       domain.CheckOutRequest{AttendeeID: 2, EventID: 1, Feedback: "Great", Rating: rating(5)},
			wantNotes: "\nFeedback: Great (Rating: 5/5)",
		},
		{
			name:      "feedback only",
			req:       domain.CheckOutRequest{AttendeeID: 2, EventID: 1, Feedback: "Fine"},
			wantNotes: "\nFeedback: Fine",
		},
		{
			name: "rating without feedback",
			req:  domain.CheckOutRequest{AttendeeID: 2, EventID: 1, Rating: rating(3)},
		},
		{
			name:    "rating too high",
			req:     domain.CheckOutRequest{AttendeeID: 2, EventID: 1, Rating: rating(6)},
			wantErr: ErrInvalidRating,
		},
		{
			name:    "rating zero",
			req:     domain.CheckOutRequest{AttendeeID: 2, EventID: 1, Rating: rating(0)},
			wantErr: ErrInvalidRating,
		},
		{
			name:    "wrong event",
			req:     domain.CheckOutRequest{AttendeeID: 2, EventID: 3},
			wantErr: ErrAttendeeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(fixture())

			got, err := svc.CheckOut(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CheckOut() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}

			if got.Status != domain.StatusCheckedOut {
				t.Errorf("CheckOut() status = %s, want %s", got.Status, domain.StatusCheckedOut)
			}
			if got.Notes != tt.wantNotes {
				t.Errorf("CheckOut() notes = %q, want %q", got.Notes, tt.wantNotes)
			}
		})
	}
}

func TestBulkCheckIn(t *testing.T) {
	svc := newService(fixture())
	ctx := context.Background()

	ok, err := svc.BulkCheckIn(ctx, []int64{1, 2, 4, 5, 99}, 1)
	if err != nil {
		t.Fatalf("BulkCheckIn() error = %v", err)
	}
	if !ok {
		t.Errorf("BulkCheckIn() = false, want true")
	}

	got, _ := svc.ByStatus(ctx, domain.StatusCheckedIn)
	if names(got) != "Adam Brown,Zoe Adams" {
		t.Errorf("checked in after bulk = %s, want Adam Brown,Zoe Adams", names(got))
	}

	ok, err = svc.BulkCheckIn(ctx, []int64{2, 4}, 1)
	if err != nil {
		t.Fatalf("BulkCheckIn() error = %v", err)
	}
	if ok {
		t.Errorf("BulkCheckIn() with nobody registered = true, want false")
	}
}

func TestStatusTransitionsFromRegisteredOnly(t *testing.T) {
	tests := []struct {
		name string
		id   int64
		fn   func(s *Service, ctx context.Context, id int64) (bool, error)
		want bool
	}{
		{"no-show from registered", 1, (*Service).MarkNoShow, true},
		{"no-show from checked in", 2, (*Service).MarkNoShow, false},
		{"cancel from registered", 1, (*Service).Cancel, true},
		{"cancel from no-show", 4, (*Service).Cancel, false},
		{"cancel missing", 99, (*Service).Cancel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(fixture())

			got, err := tt.fn(svc, context.Background(), tt.id)
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStats(t *testing.T) {
	svc := newService(fixture())

	st, err := svc.Stats(context.Background(), 1)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}

	if st.EventName != "Summit" {
		t.Errorf("Stats() name = %s, want Summit", st.EventName)
	}
	if st.TotalRegistered != 4 || st.CheckedIn != 2 || st.CheckedOut != 1 || st.NoShows != 1 {
		t.Errorf("Stats() = %+v, want 4 registered, 2 in, 1 out, 1 no-show", st)
	}
	if st.AverageStayDuration == nil || *st.AverageStayDuration != 2*time.Hour {
		t.Errorf("Stats() average stay = %v, want 2h", st.AverageStayDuration)
	}
	if st.AttendanceRate() != 50 {
		t.Errorf("AttendanceRate() = %v, want 50", st.AttendanceRate())
	}
	if st.CompletionRate() != 50 {
		t.Errorf("CompletionRate() = %v, want 50", st.CompletionRate())
	}
}

func TestStatsWithoutStays(t *testing.T) {
	svc := newService([]domain.Attendee{
		{ID: 1, EventID: 9, Name: "A", Email: "a@example.com", Status: domain.StatusCheckedIn, CheckInTime: at(0)},
	})

	st, err := svc.Stats(context.Background(), 9)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}

	if st.AverageStayDuration != nil {
		t.Errorf("Stats() average stay = %v, want nil", *st.AverageStayDuration)
	}
	if st.EventName != "Unknown Event" {
		t.Errorf("Stats() name = %s, want Unknown Event", st.EventName)
	}
}

func TestReport(t *testing.T) {
	svc := newService(fixture())

	r, err := svc.Report(context.Background(), nil)
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	if r.TotalEvents != 2 {
		t.Errorf("Report() events = %d, want 2", r.TotalEvents)
	}
	if r.TotalAttendees != 5 {
		t.Errorf("Report() attendees = %d, want 5", r.TotalAttendees)
	}
	// Summit 50%, Gala 100%.
	if r.OverallAttendanceRate != 75 {
		t.Errorf("Report() overall rate = %v, want 75", r.OverallAttendanceRate)
	}
	if len(r.TopAttendees) == 0 || r.TopAttendees[0].Name != "Adam Brown" {
		t.Errorf("Report() top attendee = %v, want Adam Brown first", names(r.TopAttendees))
	}
	if len(r.TopAttendees) != 4 {
		t.Errorf("Report() top attendees = %d, want 4 distinct", len(r.TopAttendees))
	}
	if len(r.AttendanceByCompany) != 2 || r.AttendanceByCompany[0].Count != 2 {
		t.Errorf("Report() companies = %+v, want two with a leading count of 2", r.AttendanceByCompany)
	}

	summit := events()[0].Date.Weekday()
	gala := events()[1].Date.Weekday()
	if summit == gala {
		if got := r.AttendanceByDayOfWeek[summit]; got != 3 {
			t.Errorf("Report() by weekday = %d, want 3", got)
		}
	} else {
		if got := r.AttendanceByDayOfWeek[summit]; got != 2 {
			t.Errorf("Report() %s = %d, want 2", summit, got)
		}
		if got := r.AttendanceByDayOfWeek[gala]; got != 1 {
			t.Errorf("Report() %s = %d, want 1", gala, got)
		}
	}
}

func TestReportExplicitPeriod(t *testing.T) {
	svc := newService(fixture())

	r, err := svc.Report(context.Background(), &domain.DateRange{Start: now.AddDate(0, 0, -5), End: now})
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	if r.TotalEvents != 1 || r.EventStats[0].EventID != 1 {
		t.Errorf("Report() stats = %+v, want only event 1", r.EventStats)
	}
}

func TestSearch(t *testing.T) {
	svc := newService(fixture())
	ctx := context.Background()

	tests := []struct {
		term string
		want string
	}{
		{"acme", "Mia Clark,Zoe Adams"},
		{"CTO", "Adam Brown"},
		{"initech", "Noah Davis"},
		{"  ", ""},
		{"nobody", ""},
	}

	for _, tt := range tests {
		got, err := svc.Search(ctx, tt.term)
		if err != nil {
			t.Fatalf("Search(%q) error = %v", tt.term, err)
		}
		if names(got) != tt.want {
			t.Errorf("Search(%q) = %s, want %s", tt.term, names(got), tt.want)
		}
	}
}

func TestVIPAttendees(t *testing.T) {
	svc := newService(fixture())

	got, err := svc.VIPAttendees(context.Background(), 1)
	if err != nil {
		t.Fatalf("VIPAttendees() error = %v", err)
	}
	if names(got) != "Adam Brown" {
		t.Errorf("VIPAttendees() = %s, want Adam Brown", names(got))
	}
}

func TestDashboard(t *testing.T) {
	svc := newService(fixture())

	d, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}

	if d.TotalAttendees != 5 {
		t.Errorf("Dashboard() total = %d, want 5", d.TotalAttendees)
	}
	if d.TodayCheckIns != 2 {
		t.Errorf("Dashboard() today = %d, want 2", d.TodayCheckIns)
	}
	// The week started on Sunday 8 June, so yesterday's check-in counts.
	if d.WeeklyCheckIns != 3 {
		t.Errorf("Dashboard() week = %d, want 3", d.WeeklyCheckIns)
	}
	if d.MonthlyCheckIns != 3 {
		t.Errorf("Dashboard() month = %d, want 3", d.MonthlyCheckIns)
	}
	if d.AverageAttendanceRate != 60 {
		t.Errorf("Dashboard() rate = %v, want 60", d.AverageAttendanceRate)
	}
	if d.UpcomingEvents != 1 {
		t.Errorf("Dashboard() upcoming = %d, want 1", d.UpcomingEvents)
	}
	if d.VIPAttendees != 1 {
		t.Errorf("Dashboard() VIPs = %d, want 1", d.VIPAttendees)
	}
	if names(d.RecentCheckIns) != "Adam Brown,Mia Clark" {
		t.Errorf("Dashboard() recent = %s, want Adam Brown,Mia Clark", names(d.RecentCheckIns))
	}
}
