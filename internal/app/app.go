package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elisaschroeder/eventease/internal/config"
	"github.com/elisaschroeder/eventease/internal/domain"
	"github.com/elisaschroeder/eventease/internal/logging"
	"github.com/elisaschroeder/eventease/internal/postgres"
	"github.com/elisaschroeder/eventease/internal/redis"
	"github.com/elisaschroeder/eventease/internal/repository/memory"
	postgresrepo "github.com/elisaschroeder/eventease/internal/repository/postgres"
	redisrepo "github.com/elisaschroeder/eventease/internal/repository/redis"
	"github.com/elisaschroeder/eventease/internal/service"
	"github.com/elisaschroeder/eventease/internal/service/health"
	"github.com/elisaschroeder/eventease/internal/storage"
	httpgin "github.com/elisaschroeder/eventease/internal/transport/http/gin"
	"golang.org/x/sync/errgroup"
)

const (
	sweepInterval  = time.Minute
	idempotencyTTL = 2 * time.Hour
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	services   *service.Services
	events     *redisrepo.EventsPubSub
	httpServer *http.Server
	closers    []func()
}

func New(cfg *config.Config, settings *config.Settings, logger *slog.Logger) (*App, error) {
	ctx := context.Background()

	a := &App{cfg: cfg, logger: logger}

	// visitor documents outlive the session so expiry can still be observed
	visitorTTL := 2 * time.Duration(settings.Int("Security.SessionTimeoutMinutes", 60)) * time.Minute

	deps := service.Deps{
		Settings: settings,
		Audit:    logging.NewAudit(logger, settings.Bool("Security.EnableAuditLogging", true)),
		Visitors: storage.NewMemoryWithTTL(visitorTTL),
	}

	if err := a.initStorage(ctx, settings, &deps); err != nil {
		a.Close()
		return nil, err
	}

	var idem *redisrepo.IdempotencyStore
	if cfg.Redis.Enabled() {
		rdb, err := redis.New(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })

		cache := redisrepo.NewCache(rdb)
		a.events = redisrepo.NewEventsPubSub(rdb)

		deps.Cache = cache
		deps.PubSub = a.events
		deps.Limiter = redisrepo.NewSlidingWindowLimiter(rdb, "registrations", cfg.RateLimit.Registrations, cfg.RateLimit.Window)
		deps.Visitors = redisrepo.NewKV(rdb, visitorTTL)
		deps.Checks = append(deps.Checks, health.PingCheck("Redis", cache, health.StatusDegraded))

		idem = redisrepo.NewIdempotencyStore(rdb, idempotencyTTL)
	} else {
		logger.Info("redis not configured; sessions kept in memory, no cache or rate limit")
	}

	a.services = service.NewServices(deps, logger)

	router := httpgin.NewRouter(a.services, idem, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// initStorage wires the event and attendee repositories for the configured
// backend, seeding sample data when the settings ask for it.
func (a *App) initStorage(ctx context.Context, settings *config.Settings, deps *service.Deps) error {
	seed := settings.Bool("Features.EnableSampleData", true)
	now := time.Now()

	switch a.cfg.Storage.Backend {
	case config.BackendPostgres:
		timeout := time.Duration(settings.Int("Performance.DatabaseTimeoutSeconds", 30)) * time.Second

		pool, err := postgres.New(ctx, postgres.Config{
			DSN:      a.cfg.Postgres.DSN(),
			MaxConns: int32(settings.Int("Performance.MaxConcurrentOperations", 10)),
			Timeout:  timeout,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		store := postgresrepo.NewStore(pool)
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate postgres: %w", err)
		}

		if seed {
			seeded, err := store.Seed(ctx,
				memory.SampleEvents(memory.SampleEventCount, memory.SampleSeed, now),
				memory.SampleAttendees(memory.SampleSeed, now),
			)
			if err != nil {
				return fmt.Errorf("failed to seed postgres: %w", err)
			}
			if seeded {
				a.logger.Info("seeded sample data", "events", memory.SampleEventCount)
			}
		}

		deps.Events = store.Events()
		deps.Attendees = store.Attendees()
		deps.Checks = append(deps.Checks, health.PingCheck("Postgres", store, health.StatusCritical))
	default:
		var (
			events    []domain.Event
			attendees []domain.Attendee
		)
		if seed {
			events = memory.SampleEvents(memory.SampleEventCount, memory.SampleSeed, now)
			attendees = memory.SampleAttendees(memory.SampleSeed, now)
		}

		deps.Events = memory.NewEventRepo(events)
		deps.Attendees = memory.NewAttendeeRepo(attendees)
	}

	return nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	defer a.Close()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Keep visitor sessions alive and drop idle ones
	g.Go(func() error {
		return a.services.Visitors.Run(gCtx, sweepInterval)
	})

	// Drop cached events changed by other instances
	if a.events != nil {
		g.Go(func() error {
			err := a.events.Subscribe(gCtx, a.services.Catalog.InvalidateEvent)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("events subscription: %w", err)
			}
			return nil
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

// Close releases the database and redis connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
