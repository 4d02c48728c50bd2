package attendance

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/elisaschroeder/eventease/internal/domain"
	"github.com/elisaschroeder/eventease/internal/logging"
	"github.com/elisaschroeder/eventease/internal/repository"
	"github.com/go-playground/validator/v10"
)

type AttendeeRepository interface {
	List(ctx context.Context) ([]domain.Attendee, error)
	Get(ctx context.Context, id int64) (*domain.Attendee, error)
	Create(ctx context.Context, a domain.Attendee) (*domain.Attendee, error)
	Update(ctx context.Context, id int64, fn func(a *domain.Attendee) error) (*domain.Attendee, error)
	Delete(ctx context.Context, id int64) error
}

// EventLookup is the slice of the catalog the ledger needs for names and
// dates.
type EventLookup interface {
	GetEvent(ctx context.Context, id int64) (*domain.Event, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
}

const (
	topAttendees   = 10
	topCompanies   = 10
	recentCheckIns = 10
)

type Service struct {
	repo     AttendeeRepository
	events   EventLookup
	audit    *logging.Audit
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

func New(repo AttendeeRepository, events EventLookup, audit *logging.Audit, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		events:   events,
		audit:    audit,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// EventAttendees lists the attendees of an event ordered by name.
func (s *Service) EventAttendees(ctx context.Context, eventID int64) ([]domain.Attendee, error) {
	return s.filter(ctx, "service.attendance.EventAttendees", func(a *domain.Attendee) bool {
		return a.EventID == eventID
	})
}

func (s *Service) Attendee(ctx context.Context, id int64) (*domain.Attendee, error) {
	const op = "service.attendance.Attendee"

	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translate(err))
	}

	return a, nil
}

// Register adds an attendee with a fresh id, the current time and status
// Registered, whatever the input carried.
func (s *Service) Register(ctx context.Context, a domain.Attendee) (*domain.Attendee, error) {
	const op = "service.attendance.Register"

	if err := s.validate.Struct(a); err != nil {
		return nil, fmt.Errorf("%s:%w: %v", op, ErrInvalidAttendee, err)
	}

	a.RegisteredAt = s.now()
	a.Status = domain.StatusRegistered
	a.CheckInTime = nil
	a.CheckOutTime = nil

	out, err := s.repo.Create(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	s.audit.UserAction(ctx, "attendee_registered", fmt.Sprintf("attendee %d event %d", out.ID, out.EventID), out.Email)

	return out, nil
}

// Update replaces the stored attendee identified by a.ID.
func (s *Service) Update(ctx context.Context, a domain.Attendee) (*domain.Attendee, error) {
	const op = "service.attendance.Update"

	if err := s.validate.Struct(a); err != nil {
		return nil, fmt.Errorf("%s:%w: %v", op, ErrInvalidAttendee, err)
	}

	out, err := s.repo.Update(ctx, a.ID, func(cur *domain.Attendee) error {
		*cur = a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translate(err))
	}

	return out, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	const op = "service.attendance.Delete"

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s:%w", op, translate(err))
	}

	return nil
}

// CheckIn records arrival. The status is overwritten whatever it was before,
// so checking in twice moves the check-in time. Notes are replaced only when
// the request carries some.
//
// Returns:
//   - *domain.Attendee: the updated attendee.
//   - error: attendance.ErrAttendeeNotFound if no attendee has both ids.
func (s *Service) CheckIn(ctx context.Context, req domain.CheckInRequest) (*domain.Attendee, error) {
	const op = "service.attendance.CheckIn"

	at := req.CheckInTime
	if at.IsZero() {
		at = s.now()
	}

	out, err := s.repo.Update(ctx, req.AttendeeID, func(a *domain.Attendee) error {
		if a.EventID != req.EventID {
			return repository.ErrNotFound
		}
		a.CheckInTime = &at
		a.Status = domain.StatusCheckedIn
		if req.Notes != "" {
			a.Notes = req.Notes
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translate(err))
	}

	s.audit.UserAction(ctx, "check_in", fmt.Sprintf("attendee %d event %d", out.ID, out.EventID), out.Email)

	return out, nil
}

// CheckOut records departure and appends any feedback and rating to the
// notes.
//
// Returns:
//   - *domain.Attendee: the updated attendee.
//   - error: attendance.ErrInvalidRating if the rating is outside 1..5.
//   - error: attendance.ErrAttendeeNotFound if no attendee has both ids.
func (s *Service) CheckOut(ctx context.Context, req domain.CheckOutRequest) (*domain.Attendee, error) {
	const op = "service.attendance.CheckOut"

	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidRating)
	}

	at := req.CheckOutTime
	if at.IsZero() {
		at = s.now()
	}

	out, err := s.repo.Update(ctx, req.AttendeeID, func(a *domain.Attendee) error {
		if a.EventID != req.EventID {
			return repository.ErrNotFound
		}
		a.CheckOutTime = &at
		a.Status = domain.StatusCheckedOut
		if req.Feedback != "" {
			a.Notes += "\nFeedback: " + req.Feedback
			if req.Rating != nil {
				a.Notes += fmt.Sprintf(" (Rating: %d/5)", *req.Rating)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translate(err))
	}

	s.audit.UserAction(ctx, "check_out", fmt.Sprintf("attendee %d event %d", out.ID, out.EventID), out.Email)

	return out, nil
}

// BulkCheckIn checks in the listed attendees of eventID that are still
// Registered, skipping everyone else. It reports whether any were updated.
func (s *Service) BulkCheckIn(ctx context.Context, ids []int64, eventID int64) (bool, error) {
	const op = "service.attendance.BulkCheckIn"

	at := s.now()
	updated := 0

	for _, id := range ids {
		_, err := s.repo.Update(ctx, id, func(a *domain.Attendee) error {
			if a.EventID != eventID || a.Status != domain.StatusRegistered {
				return errSkip
			}
			a.CheckInTime = &at
			a.Status = domain.StatusCheckedIn
			return nil
		})
		switch {
		case err == nil:
			updated++
		case errors.Is(err, errSkip), errors.Is(err, repository.ErrNotFound):
		default:
			return updated > 0, fmt.Errorf("%s:%w", op, err)
		}
	}

	s.logger.DebugContext(ctx, "bulk check-in", "event_id", eventID, "requested", len(ids), "updated", updated)

	return updated > 0, nil
}

func (s *Service) MarkNoShow(ctx context.Context, id int64) (bool, error) {
	return s.fromRegistered(ctx, "service.attendance.MarkNoShow", id, domain.StatusNoShow)
}

func (s *Service) Cancel(ctx context.Context, id int64) (bool, error) {
	return s.fromRegistered(ctx, "service.attendance.Cancel", id, domain.StatusCancelled)
}

func (s *Service) fromRegistered(ctx context.Context, op string, id int64, to domain.AttendanceStatus) (bool, error) {
	_, err := s.repo.Update(ctx, id, func(a *domain.Attendee) error {
		if a.Status != domain.StatusRegistered {
			return errSkip
		}
		a.Status = to
		return nil
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errSkip), errors.Is(err, repository.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("%s:%w", op, err)
	}
}

// Stats summarizes attendance for one event. AverageStayDuration is nil
// when nobody has both a check-in and a check-out time.
func (s *Service) Stats(ctx context.Context, eventID int64) (domain.AttendanceStats, error) {
	const op = "service.attendance.Stats"

	all, err := s.repo.List(ctx)
	if err != nil {
		return domain.AttendanceStats{}, fmt.Errorf("%s:%w", op, err)
	}

	name := "Unknown Event"
	if e, err := s.events.GetEvent(ctx, eventID); err == nil {
		name = e.Name
	}

	return statsFor(eventID, name, all), nil
}

func statsFor(eventID int64, name string, all []domain.Attendee) domain.AttendanceStats {
	st := domain.AttendanceStats{EventID: eventID, EventName: name}

	var total time.Duration
	var stays int

	for i := range all {
		a := &all[i]
		if a.EventID != eventID {
			continue
		}

		st.TotalRegistered++
		switch a.Status {
		case domain.StatusCheckedIn:
			st.CheckedIn++
		case domain.StatusCheckedOut:
			st.CheckedIn++
			st.CheckedOut++
		case domain.StatusNoShow:
			st.NoShows++
		case domain.StatusCancelled:
			st.Cancelled++
		}

		if a.Attended() && a.CheckInTime != nil && a.CheckOutTime != nil {
			total += a.CheckOutTime.Sub(*a.CheckInTime)
			stays++
		}
	}

	if stays > 0 {
		avg := total / time.Duration(stays)
		st.AverageStayDuration = &avg
	}

	return st
}

// Report aggregates attendance over the events dated within period. A nil
// period covers the last month.
func (s *Service) Report(ctx context.Context, period *domain.DateRange) (*domain.AttendanceReport, error) {
	const op = "service.attendance.Report"

	now := s.now()
	rng := domain.DateRange{Start: now.AddDate(0, -1, 0), End: now}
	if period != nil {
		rng = *period
	}

	events, err := s.events.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	weekdays := make(map[int64]time.Weekday)
	report := &domain.AttendanceReport{
		GeneratedAt:           now,
		Period:                rng,
		EventStats:            []domain.AttendanceStats{},
		AttendanceByDayOfWeek: map[time.Weekday]int{},
	}

	var rateSum float64
	for _, e := range events {
		if !rng.Contains(e.Date) {
			continue
		}
		weekdays[e.ID] = e.Date.Weekday()

		st := statsFor(e.ID, e.Name, all)
		report.EventStats = append(report.EventStats, st)
		rateSum += st.AttendanceRate()
	}

	report.TotalEvents = len(report.EventStats)
	if report.TotalEvents > 0 {
		report.OverallAttendanceRate = rateSum / float64(report.TotalEvents)
	}

	var inRange []domain.Attendee
	for _, a := range all {
		if _, ok := weekdays[a.EventID]; ok {
			inRange = append(inRange, a)
		}
	}

	report.TotalAttendees = len(inRange)
	report.TopAttendees = rankAttendees(inRange, topAttendees)
	report.AttendanceByCompany = rankCompanies(inRange, topCompanies)

	for _, a := range inRange {
		if a.Attended() {
			report.AttendanceByDayOfWeek[weekdays[a.EventID]]++
		}
	}

	return report, nil
}

// rankAttendees groups by name and email, keeping the first record of each
// group, and returns the n most frequent. Ties keep first-seen order.
func rankAttendees(list []domain.Attendee, n int) []domain.Attendee {
	type group struct {
		first domain.Attendee
		count int
	}

	idx := map[[2]string]int{}
	var groups []group

	for _, a := range list {
		key := [2]string{a.Name, a.Email}
		if i, ok := idx[key]; ok {
			groups[i].count++
			continue
		}
		idx[key] = len(groups)
		groups = append(groups, group{first: a, count: 1})
	}

	slices.SortStableFunc(groups, func(a, b group) int { return cmp.Compare(b.count, a.count) })

	out := make([]domain.Attendee, 0, min(n, len(groups)))
	for _, g := range groups[:min(n, len(groups))] {
		out = append(out, g.first)
	}

	return out
}

func rankCompanies(list []domain.Attendee, n int) []domain.CompanyCount {
	idx := map[string]int{}
	var out []domain.CompanyCount

	for _, a := range list {
		if a.Company == "" {
			continue
		}
		if i, ok := idx[a.Company]; ok {
			out[i].Count++
			continue
		}
		idx[a.Company] = len(out)
		out = append(out, domain.CompanyCount{Company: a.Company, Count: 1})
	}

	slices.SortStableFunc(out, func(a, b domain.CompanyCount) int { return cmp.Compare(b.Count, a.Count) })

	return out[:min(n, len(out))]
}

// Search matches name, email, company and job title case-insensitively. A
// blank term matches nothing.
func (s *Service) Search(ctx context.Context, term string) ([]domain.Attendee, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return []domain.Attendee{}, nil
	}

	return s.filter(ctx, "service.attendance.Search", func(a *domain.Attendee) bool {
		return strings.Contains(strings.ToLower(a.Name), term) ||
			strings.Contains(strings.ToLower(a.Email), term) ||
			strings.Contains(strings.ToLower(a.Company), term) ||
			strings.Contains(strings.ToLower(a.JobTitle), term)
	})
}

func (s *Service) ByStatus(ctx context.Context, status domain.AttendanceStatus) ([]domain.Attendee, error) {
	return s.filter(ctx, "service.attendance.ByStatus", func(a *domain.Attendee) bool {
		return a.Status == status
	})
}

func (s *Service) VIPAttendees(ctx context.Context, eventID int64) ([]domain.Attendee, error) {
	return s.filter(ctx, "service.attendance.VIPAttendees", func(a *domain.Attendee) bool {
		return a.EventID == eventID && a.IsVIP
	})
}

// Dashboard computes headline attendance figures relative to the clock's
// current day, week (starting Sunday) and month.
func (s *Service) Dashboard(ctx context.Context) (*domain.AttendanceDashboard, error) {
	const op = "service.attendance.Dashboard"

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	events, err := s.events.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := today.AddDate(0, 0, 1)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	recentSince := now.Add(-24 * time.Hour)

	d := &domain.AttendanceDashboard{
		TotalAttendees: len(all),
		RecentCheckIns: []domain.Attendee{},
	}

	attended := 0
	for _, a := range all {
		if a.IsVIP {
			d.VIPAttendees++
		}
		if a.Attended() {
			attended++
		}
		if a.CheckInTime == nil {
			continue
		}

		in := *a.CheckInTime
		if !in.Before(today) && in.Before(tomorrow) {
			d.TodayCheckIns++
		}
		if !in.Before(weekStart) {
			d.WeeklyCheckIns++
		}
		if !in.Before(monthStart) {
			d.MonthlyCheckIns++
		}
		if !in.Before(recentSince) {
			d.RecentCheckIns = append(d.RecentCheckIns, a)
		}
	}

	if len(all) > 0 {
		d.AverageAttendanceRate = float64(attended) / float64(len(all)) * 100
	}

	horizon := now.AddDate(0, 0, 7)
	for _, e := range events {
		if !e.Date.Before(now) && !e.Date.After(horizon) {
			d.UpcomingEvents++
		}
	}

	slices.SortStableFunc(d.RecentCheckIns, func(a, b domain.Attendee) int {
		return b.CheckInTime.Compare(*a.CheckInTime)
	})
	d.RecentCheckIns = d.RecentCheckIns[:min(recentCheckIns, len(d.RecentCheckIns))]

	return d, nil
}

func (s *Service) filter(ctx context.Context, op string, keep func(a *domain.Attendee) bool) ([]domain.Attendee, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	out := []domain.Attendee{}
	for i := range all {
		if keep(&all[i]) {
			out = append(out, all[i])
		}
	}

	slices.SortStableFunc(out, func(a, b domain.Attendee) int { return cmp.Compare(a.Name, b.Name) })

	return out, nil
}

func translate(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrAttendeeNotFound
	}
	return err
}
