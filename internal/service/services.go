package service

import (
	"log/slog"
	"time"

	"github.com/elisaschroeder/eventease/internal/config"
	"github.com/elisaschroeder/eventease/internal/logging"
	redisrepo "github.com/elisaschroeder/eventease/internal/repository/redis"
	"github.com/elisaschroeder/eventease/internal/service/attendance"
	"github.com/elisaschroeder/eventease/internal/service/catalog"
	"github.com/elisaschroeder/eventease/internal/service/health"
	"github.com/elisaschroeder/eventease/internal/service/state"
	"github.com/elisaschroeder/eventease/internal/storage"
)

type Services struct {
	Catalog    *catalog.Service
	Attendance *attendance.Service
	Visitors   *state.Registry
	Health     *health.Service
	Settings   *config.Settings
}

// Deps are the stores and infrastructure the services run on. Cache, PubSub
// and Limiter are nil when Redis is not configured.
type Deps struct {
	Events    catalog.EventRepository
	Attendees attendance.AttendeeRepository
	Visitors  storage.KV
	Cache     *redisrepo.Cache
	PubSub    catalog.Publisher
	Limiter   catalog.Limiter
	Settings  *config.Settings
	Audit     *logging.Audit
	Checks    []health.Check
}

func NewServices(d Deps, logger *slog.Logger) *Services {
	cacheTTL := time.Duration(d.Settings.Int("Performance.CacheTimeoutMinutes", 30)) * time.Minute

	cat := catalog.New(
		d.Events,
		d.Cache,
		d.PubSub,
		d.Limiter,
		d.Audit,
		logger.With(slog.String("service", "catalog")),
		catalog.Config{CacheTTL: cacheTTL},
	)

	att := attendance.New(
		d.Attendees,
		cat,
		d.Audit,
		logger.With(slog.String("service", "attendance")),
	)

	visitors := state.NewRegistry(
		d.Visitors,
		cat,
		logger.With(slog.String("service", "state")),
		state.RegistryOptions{},
	)

	checks := append([]health.Check{
		health.ConfigurationCheck(d.Settings),
		health.CatalogCheck(cat),
		health.AttendanceCheck(att),
		health.LoggerCheck(d.Audit),
	}, d.Checks...)

	return &Services{
		Catalog:    cat,
		Attendance: att,
		Visitors:   visitors,
		Health:     health.New(d.Settings, logger.With(slog.String("service", "health")), checks...),
		Settings:   d.Settings,
	}
}
