package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/elisaschroeder/eventease/internal/config"
	"github.com/elisaschroeder/eventease/internal/domain"
	"github.com/elisaschroeder/eventease/internal/logging"
	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusHealthy  Status = "Healthy"
	StatusDegraded Status = "Degraded"
	StatusCritical Status = "Critical"
	StatusUnknown  Status = "Unknown"
)

type CheckResult struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Description string         `json:"description,omitempty"`
	Duration    time.Duration  `json:"duration"`
	Data        map[string]any `json:"data"`
}

type Report struct {
	Status       Status         `json:"status"`
	Timestamp    time.Time      `json:"timestamp"`
	ResponseTime time.Duration  `json:"response_time"`
	Details      map[string]any `json:"details"`
	Checks       []CheckResult  `json:"checks"`
}

// Check probes one dependency. Run fills in the description and data of a
// healthy result; an error marks the result with Failure.
type Check struct {
	Name    string
	Failure Status
	Run     func(ctx context.Context) (string, map[string]any, error)
}

type Service struct {
	checks   []Check
	settings *config.Settings
	logger   *slog.Logger
	now      func() time.Time
}

func New(settings *config.Settings, logger *slog.Logger, checks ...Check) *Service {
	return &Service{
		checks:   checks,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// Status runs every check concurrently. The overall status is Healthy when
// all pass, Critical when any failed critically, Degraded otherwise.
func (s *Service) Status(ctx context.Context) Report {
	start := s.now()
	s.logger.InfoContext(ctx, "starting health check")

	results := make([]CheckResult, len(s.checks))

	var g errgroup.Group
	for i, c := range s.checks {
		g.Go(func() error {
			results[i] = s.run(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Status:    StatusHealthy,
		Timestamp: start.UTC(),
		Checks:    results,
	}

	failed := 0
	for _, r := range results {
		if r.Status == StatusHealthy {
			continue
		}
		failed++
		if r.Status == StatusCritical {
			report.Status = StatusCritical
		} else if report.Status != StatusCritical {
			report.Status = StatusDegraded
		}
	}

	report.ResponseTime = s.now().Sub(start)
	report.Details = map[string]any{
		"total_checks":  len(results),
		"failed_checks": failed,
		"environment":   s.settings.Environment(),
		"timestamp":     start.UTC().Format("2006-01-02 15:04:05 UTC"),
	}

	s.logger.InfoContext(ctx, "health check completed",
		"status", report.Status,
		"duration_ms", report.ResponseTime.Milliseconds(),
	)

	return report
}

// Check runs the named check. Names match case-insensitively; an unknown
// name yields an Unknown result.
func (s *Service) Check(ctx context.Context, name string) CheckResult {
	for _, c := range s.checks {
		if strings.EqualFold(c.Name, name) {
			return s.run(ctx, c)
		}
	}

	return CheckResult{
		Name:        name,
		Status:      StatusUnknown,
		Description: "Unknown service: " + name,
		Data:        map[string]any{},
	}
}

func (s *Service) Healthy(ctx context.Context) bool {
	return s.Status(ctx).Status == StatusHealthy
}

func (s *Service) run(ctx context.Context, c Check) (res CheckResult) {
	start := s.now()
	res = CheckResult{Name: c.Name, Data: map[string]any{}}

	defer func() {
		if p := recover(); p != nil {
			res.Status = StatusCritical
			res.Description = fmt.Sprintf("Health check failed: %v", p)
		}
		res.Duration = s.now().Sub(start)
	}()

	desc, data, err := c.Run(ctx)
	if err != nil {
		res.Status = c.Failure
		res.Description = fmt.Sprintf("%s failed: %v", c.Name, err)
		s.logger.WarnContext(ctx, "health check failed", "check", c.Name, "error", err)
		return res
	}

	res.Status = StatusHealthy
	res.Description = desc
	if data != nil {
		res.Data = data
	}

	return res
}

type EventLister interface {
	ListEvents(ctx context.Context) ([]domain.Event, error)
}

type Dashboarder interface {
	Dashboard(ctx context.Context) (*domain.AttendanceDashboard, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

func ConfigurationCheck(settings *config.Settings) Check {
	return Check{
		Name:    "Configuration",
		Failure: StatusCritical,
		Run: func(context.Context) (string, map[string]any, error) {
			return "Configuration service is responsive", map[string]any{
				"application_name": settings.String("Application.Name", "Unknown"),
				"environment":      settings.Environment(),
			}, nil
		},
	}
}

func CatalogCheck(events EventLister) Check {
	return Check{
		Name:    "EventService",
		Failure: StatusCritical,
		Run: func(ctx context.Context) (string, map[string]any, error) {
			list, err := events.ListEvents(ctx)
			if err != nil {
				return "", nil, err
			}
			return "Event service is responsive", map[string]any{"event_count": len(list)}, nil
		},
	}
}

func AttendanceCheck(a Dashboarder) Check {
	return Check{
		Name:    "AttendanceService",
		Failure: StatusCritical,
		Run: func(ctx context.Context) (string, map[string]any, error) {
			d, err := a.Dashboard(ctx)
			if err != nil {
				return "", nil, err
			}
			return "Attendance service is responsive", map[string]any{
				"today_check_ins": d.TodayCheckIns,
				"total_attendees": d.TotalAttendees,
			}, nil
		},
	}
}

// LoggerCheck writes a probe entry through the audit logger. Logging
// problems only degrade the system.
func LoggerCheck(audit *logging.Audit) Check {
	return Check{
		Name:    "ApplicationLogger",
		Failure: StatusDegraded,
		Run: func(ctx context.Context) (string, map[string]any, error) {
			if audit == nil {
				return "", nil, errors.New("audit logger not configured")
			}

			audit.Probe(ctx)

			return "Application logger is responsive", map[string]any{
				"audit_enabled": audit.Enabled(),
			}, nil
		},
	}
}

// PingCheck probes an external dependency such as Postgres or Redis.
func PingCheck(name string, p Pinger, failure Status) Check {
	return Check{
		Name:    name,
		Failure: failure,
		Run: func(ctx context.Context) (string, map[string]any, error) {
			if err := p.Ping(ctx); err != nil {
				return "", nil, err
			}
			return name + " is reachable", nil, nil
		},
	}
}
