package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/elisaschroeder/eventease/internal/domain"
	"github.com/elisaschroeder/eventease/internal/repository"
)

// EventRepo keeps events in insertion order together with the
// registrations made against them.
type EventRepo struct {
	mu            sync.RWMutex
	events        []domain.Event
	index         map[int64]int
	registrations []domain.Registration
}

func NewEventRepo(events []domain.Event) *EventRepo {
	r := &EventRepo{
		events: make([]domain.Event, 0, len(events)),
		index:  make(map[int64]int, len(events)),
	}

	for _, e := range events {
		r.index[e.ID] = len(r.events)
		r.events = append(r.events, cloneEvent(e))
	}

	return r
}

func (r *EventRepo) List(_ context.Context) ([]domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Event, len(r.events))
	for i, e := range r.events {
		out[i] = cloneEvent(e)
	}

	return out, nil
}

func (r *EventRepo) Get(_ context.Context, id int64) (*domain.Event, error) {
	const op = "memory.EventRepo.Get"

	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	e := cloneEvent(r.events[i])
	return &e, nil
}

// Register stores reg and increments the event's registration count. The
// capacity check and the increment share one critical section.
//
// Returns:
//   - *domain.Registration: the stored registration with its id assigned.
//   - error: repository.ErrNotFound if the event does not exist.
//   - error: repository.ErrCapacityExceeded if the event is inactive or full.
func (r *EventRepo) Register(_ context.Context, reg domain.Registration) (*domain.Registration, error) {
	const op = "memory.EventRepo.Register"

	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[reg.EventID]
	if !ok {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	e := &r.events[i]
	if !e.IsActive || e.IsFull() {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrCapacityExceeded)
	}

	reg.ID = int64(len(r.registrations) + 1)
	r.registrations = append(r.registrations, reg)
	e.CurrentRegistrations++

	return &reg, nil
}

func (r *EventRepo) Registrations(_ context.Context, eventID int64) ([]domain.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Registration
	for _, reg := range r.registrations {
		if reg.EventID == eventID {
			out = append(out, reg)
		}
	}

	return out, nil
}

func cloneEvent(e domain.Event) domain.Event {
	e.Tags = slices.Clone(e.Tags)
	return e
}
