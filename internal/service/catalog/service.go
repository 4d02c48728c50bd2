package catalog

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
	redisrepo "github.com/elisaschroeder/eventease/internal/repository/redis"
	"github.com/go-playground/validator/v10"
)

type EventRepository interface {
	List(ctx context.Context) ([]domain.Event, error)
	Get(ctx context.Context, id int64) (*domain.Event, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.Registration, error)
	Registrations(ctx context.Context, eventID int64) ([]domain.Registration, error)
}

type Limiter interface {
	Allow(ctx context.Context, id string) (redisrepo.Decision, error)
}

type Publisher interface {
	PublishEventChanged(ctx context.Context, eventID int64) error
}

type Config struct {
	CacheTTL time.Duration
}

type Service struct {
	repo     EventRepository
	cache    *redisrepo.Cache
	pubsub   Publisher
	limiter  Limiter
	audit    *logging.Audit
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
	cfg      Config
}

// New builds the catalog. cache, pubsub and limiter are optional.
func New(
	repo EventRepository,
	cache *redisrepo.Cache,
	pubsub Publisher,
	limiter Limiter,
	audit *logging.Audit,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Minute
	}

	return &Service{
		repo:     repo,
		cache:    cache,
		pubsub:   pubsub,
		limiter:  limiter,
		audit:    audit,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
		cfg:      cfg,
	}
}

// WithClock replaces the time source used to stamp registrations.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Query is a paged catalog read. Categories restricts results to events of
// those types; SearchTerm matches name, description, location and tags
// case-insensitively. Inactive events are included unless ActiveOnly is set.
type Query struct {
	domain.PageRequest
	Categories []domain.EventType
	ActiveOnly bool
}

// Query filters, stably sorts and pages the catalog.
//
// Parameters:
//   - ctx: request-scoped context.
//   - q: filter, sort and page request; the page request is normalized.
//
// Returns:
//   - domain.PagedResult[domain.Event]: the requested page with the total count.
func (s *Service) Query(ctx context.Context, q Query) (domain.PagedResult[domain.Event], error) {
	const op = "service.catalog.Query"

	start := s.now()

	events, err := s.all(ctx)
	if err != nil {
		return domain.PagedResult[domain.Event]{}, fmt.Errorf("%s:%w", op, err)
	}

	term := strings.ToLower(strings.TrimSpace(q.SearchTerm))
	filtered := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if q.ActiveOnly && !e.IsActive {
			continue
		}
		if len(q.Categories) > 0 && !e.InCategory(q.Categories) {
			continue
		}
		if term != "" && !matches(&e, term) {
			continue
		}
		filtered = append(filtered, e)
	}

	req := q.PageRequest.Normalize()
	sortEvents(filtered, req.SortBy, req.Descending)

	res := domain.Paginate(filtered, req)

	s.audit.Performance(ctx, op, s.now().Sub(start),
		slog.Int("total", res.TotalCount),
		slog.Int("page", res.Page),
	)

	return res, nil
}

// ListEvents returns all active events in date order.
func (s *Service) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return s.list(ctx, "service.catalog.ListEvents", nil, "")
}

func (s *Service) EventsByType(ctx context.Context, t domain.EventType) ([]domain.Event, error) {
	return s.list(ctx, "service.catalog.EventsByType", []domain.EventType{t}, "")
}

func (s *Service) CorporateEvents(ctx context.Context) ([]domain.Event, error) {
	return s.list(ctx, "service.catalog.CorporateEvents", domain.CorporateTypes, "")
}

func (s *Service) SocialEvents(ctx context.Context) ([]domain.Event, error) {
	return s.list(ctx, "service.catalog.SocialEvents", domain.SocialTypes, "")
}

// Search returns active events matching term in date order. A blank term
// returns every active event.
func (s *Service) Search(ctx context.Context, term string) ([]domain.Event, error) {
	return s.list(ctx, "service.catalog.Search", nil, term)
}

func (s *Service) list(ctx context.Context, op string, types []domain.EventType, term string) ([]domain.Event, error) {
	events, err := s.all(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	term = strings.ToLower(strings.TrimSpace(term))

	out := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if !e.IsActive {
			continue
		}
		if len(types) > 0 && !e.InCategory(types) {
			continue
		}
		if term != "" && !matches(&e, term) {
			continue
		}
		out = append(out, e)
	}

	sortEvents(out, domain.SortByDate, false)

	return out, nil
}

// GetEvent retrieves an active event by its ID.
//
// Returns:
//   - *domain.Event: the event when found.
//   - error: catalog.ErrEventNotFound if the event is missing or inactive.
func (s *Service) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "service.catalog.GetEvent"

	load := func(ctx context.Context) (domain.Event, error) {
		e, err := s.repo.Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.Event{}, ErrEventNotFound
			}
			return domain.Event{}, err
		}
		return *e, nil
	}

	var (
		e   domain.Event
		err error
	)
	if s.cache != nil {
		e, err = redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeyEvent(id), s.cfg.CacheTTL, load)
	} else {
		e, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if !e.IsActive {
		return nil, fmt.Errorf("%s:%w", op, ErrEventNotFound)
	}

	return &e, nil
}

// Register validates reg and books one place on its event. The capacity
// check and the increment happen atomically in the repository.
//
// Parameters:
//   - ctx: request-scoped context.
//   - reg: the registration; EventID selects the event.
//   - rateKey: identifies the caller for rate limiting; empty disables it.
//
// Returns:
//   - *domain.Registration: the stored registration.
//   - error: catalog.ErrRateLimited (as RateLimitedError) when over the limit.
//   - error: catalog.ErrInvalidRegistration (as ValidationError) on bad input.
//   - error: catalog.ErrEventNotFound if the event does not exist.
//   - error: catalog.ErrCapacityExceeded if the event is full or inactive.
func (s *Service) Register(ctx context.Context, reg domain.Registration, rateKey string) (*domain.Registration, error) {
	const op = "service.catalog.Register"

	if s.limiter != nil && rateKey != "" {
		d, err := s.limiter.Allow(ctx, rateKey)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if !d.Allowed {
			return nil, fmt.Errorf("%s:%w", op, RateLimitedError{RetryAfter: d.RetryAfter})
		}
	}

	if err := s.validate.Struct(reg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return nil, fmt.Errorf("%s:%w", op, ValidationError{Fields: fields})
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if reg.RegisteredAt.IsZero() {
		reg.RegisteredAt = s.now()
	}

	out, err := s.repo.Register(ctx, reg)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%s:%w", op, ErrEventNotFound)
		case errors.Is(err, repository.ErrCapacityExceeded):
			return nil, fmt.Errorf("%s:%w", op, ErrCapacityExceeded)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	s.InvalidateEvent(ctx, reg.EventID)

	if s.pubsub != nil {
		if err := s.pubsub.PublishEventChanged(ctx, reg.EventID); err != nil {
			s.logger.Warn("publish event changed", "event_id", reg.EventID, "error", err)
		}
	}

	s.audit.UserAction(ctx, "register", fmt.Sprintf("event %d", reg.EventID), reg.Email)

	return out, nil
}

func (s *Service) Registrations(ctx context.Context, eventID int64) ([]domain.Registration, error) {
	const op = "service.catalog.Registrations"

	regs, err := s.repo.Registrations(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return regs, nil
}

// InvalidateEvent drops cached copies of the event and the listing.
func (s *Service) InvalidateEvent(ctx context.Context, eventID int64) {
	if s.cache == nil {
		return
	}

	if err := s.cache.InvalidateEvent(ctx, eventID); err != nil {
		s.logger.Warn("invalidate event cache", "event_id", eventID, "error", err)
	}
}

func (s *Service) all(ctx context.Context) ([]domain.Event, error) {
	if s.cache == nil {
		return s.repo.List(ctx)
	}

	return redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeyEventList(), s.cfg.CacheTTL, s.repo.List)
}

func matches(e *domain.Event, term string) bool {
	if strings.Contains(strings.ToLower(e.Name), term) ||
		strings.Contains(strings.ToLower(e.Description), term) ||
		strings.Contains(strings.ToLower(e.Location), term) {
		return true
	}

	for _, tag := range e.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}

	return false
}

func sortEvents(events []domain.Event, by domain.SortField, desc bool) {
	var compare func(a, b domain.Event) int

	switch by {
	case domain.SortByName:
		compare = func(a, b domain.Event) int {
			return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case domain.SortByPrice:
		compare = func(a, b domain.Event) int { return cmp.Compare(a.Price, b.Price) }
	default:
		compare = func(a, b domain.Event) int { return a.Date.Compare(b.Date) }
	}

	if desc {
		asc := compare
		compare = func(a, b domain.Event) int { return asc(b, a) }
	}

	slices.SortStableFunc(events, compare)
}
