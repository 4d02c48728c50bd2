package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/elisaschroeder/eventease/internal/domain"
	"github.com/elisaschroeder/eventease/internal/repository"
)

type AttendeeRepo struct {
	mu        sync.RWMutex
	attendees []domain.Attendee
	nextID    int64
}

func NewAttendeeRepo(seed []domain.Attendee) *AttendeeRepo {
	r := &AttendeeRepo{nextID: 1}

	for _, a := range seed {
		if a.ID >= r.nextID {
			r.nextID = a.ID + 1
		}
		r.attendees = append(r.attendees, cloneAttendee(a))
	}

	return r
}

func (r *AttendeeRepo) List(_ context.Context) ([]domain.Attendee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Attendee, len(r.attendees))
	for i, a := range r.attendees {
		out[i] = cloneAttendee(a)
	}

	return out, nil
}

func (r *AttendeeRepo) Get(_ context.Context, id int64) (*domain.Attendee, error) {
	const op = "memory.AttendeeRepo.Get"

	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.find(id)
	if i < 0 {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	a := cloneAttendee(r.attendees[i])
	return &a, nil
}

func (r *AttendeeRepo) Create(_ context.Context, a domain.Attendee) (*domain.Attendee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.ID = r.nextID
	r.nextID++
	r.attendees = append(r.attendees, cloneAttendee(a))

	return &a, nil
}

// Update applies fn to the stored attendee under the write lock. When fn
// returns an error nothing is written.
func (r *AttendeeRepo) Update(
	_ context.Context,
	id int64,
	fn func(a *domain.Attendee) error,
) (*domain.Attendee, error) {
	const op = "memory.AttendeeRepo.Update"

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.find(id)
	if i < 0 {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	a := cloneAttendee(r.attendees[i])
	if err := fn(&a); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	a.ID = id
	r.attendees[i] = a

	out := cloneAttendee(a)
	return &out, nil
}

func (r *AttendeeRepo) Delete(_ context.Context, id int64) error {
	const op = "memory.AttendeeRepo.Delete"

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.find(id)
	if i < 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	r.attendees = append(r.attendees[:i], r.attendees[i+1:]...)
	return nil
}

func (r *AttendeeRepo) find(id int64) int {
	for i := range r.attendees {
		if r.attendees[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneAttendee(a domain.Attendee) domain.Attendee {
	if a.CheckInTime != nil {
		t := *a.CheckInTime
		a.CheckInTime = &t
	}
	if a.CheckOutTime != nil {
		t := *a.CheckOutTime
		a.CheckOutTime = &t
	}
	return a
}
