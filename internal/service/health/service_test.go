package health

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/elisaschroeder/eventease/internal/config"
	"github.com/elisaschroeder/eventease/internal/domain"
	"github.com/elisaschroeder/eventease/internal/logging"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type lister struct {
	events []domain.Event
	err    error
}

func (l lister) ListEvents(context.Context) ([]domain.Event, error) { return l.events, l.err }

type dashboarder struct{ err error }

func (d dashboarder) Dashboard(context.Context) (*domain.AttendanceDashboard, error) {
	if d.err != nil {
		return nil, d.err
	}
	return &domain.AttendanceDashboard{TotalAttendees: 7, TodayCheckIns: 2}, nil
}

func newService(checks ...Check) *Service {
	logger := slog.New(slog.DiscardHandler)
	return New(config.DefaultSettings(), logger, checks...)
}

func TestStatus(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	settings := config.DefaultSettings()
	boom := errors.New("boom")

	tests := []struct {
		name       string
		checks     []Check
		want       Status
		wantFailed int
	}{
		{
			name: "all healthy",
			checks: []Check{
				ConfigurationCheck(settings),
				CatalogCheck(lister{events: make([]domain.Event, 3)}),
				AttendanceCheck(dashboarder{}),
				LoggerCheck(logging.NewAudit(logger, true)),
			},
			want: StatusHealthy,
		},
		{
			name: "logger missing degrades",
			checks: []Check{
				ConfigurationCheck(settings),
				LoggerCheck(nil),
			},
			want:       StatusDegraded,
			wantFailed: 1,
		},
		{
			name: "critical wins over degraded",
			checks: []Check{
				PingCheck("Redis", pinger{err: boom}, StatusDegraded),
				CatalogCheck(lister{err: boom}),
				AttendanceCheck(dashboarder{}),
			},
			want:       StatusCritical,
			wantFailed: 2,
		},
		{
			name: "postgres down",
			checks: []Check{
				PingCheck("Postgres", pinger{err: boom}, StatusCritical),
			},
			want:       StatusCritical,
			wantFailed: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newService(tt.checks...).Status(context.Background())

			if got.Status != tt.want {
				t.Errorf("Status() = %s, want %s", got.Status, tt.want)
			}
			if len(got.Checks) != len(tt.checks) {
				t.Errorf("Status() checks = %d, want %d", len(got.Checks), len(tt.checks))
			}
			if got.Details["failed_checks"] != tt.wantFailed {
				t.Errorf("failed_checks = %v, want %d", got.Details["failed_checks"], tt.wantFailed)
			}
			if got.Details["environment"] != "Development" {
				t.Errorf("environment = %v, want Development", got.Details["environment"])
			}
		})
	}
}

func TestStatusKeepsCheckOrder(t *testing.T) {
	svc := newService(
		PingCheck("A", pinger{}, StatusCritical),
		PingCheck("B", pinger{}, StatusCritical),
		PingCheck("C", pinger{}, StatusCritical),
	)

	got := svc.Status(context.Background())
	for i, name := range []string{"A", "B", "C"} {
		if got.Checks[i].Name != name {
			t.Errorf("Checks[%d] = %s, want %s", i, got.Checks[i].Name, name)
		}
	}
}

func TestCheck(t *testing.T) {
	svc := newService(
		CatalogCheck(lister{events: make([]domain.Event, 4)}),
		AttendanceCheck(dashboarder{}),
	)
	ctx := context.Background()

	got := svc.Check(ctx, "eventservice")
	if got.Status != StatusHealthy || got.Data["event_count"] != 4 {
		t.Errorf("Check(eventservice) = %+v, want healthy with 4 events", got)
	}

	got = svc.Check(ctx, "AttendanceService")
	if got.Data["total_attendees"] != 7 {
		t.Errorf("Check(AttendanceService) data = %v, want total_attendees 7", got.Data)
	}

	got = svc.Check(ctx, "Billing")
	if got.Status != StatusUnknown {
		t.Errorf("Check(Billing) = %s, want %s", got.Status, StatusUnknown)
	}
}

func TestCheckRecoversPanic(t *testing.T) {
	svc := newService(Check{
		Name:    "Flaky",
		Failure: StatusDegraded,
		Run: func(context.Context) (string, map[string]any, error) {
			panic("nil map")
		},
	})

	got := svc.Check(context.Background(), "Flaky")
	if got.Status != StatusCritical {
		t.Errorf("Check(Flaky) = %s, want %s", got.Status, StatusCritical)
	}
	if svc.Healthy(context.Background()) {
		t.Error("Healthy() = true, want false")
	}
}
