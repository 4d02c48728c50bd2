package postgresrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/elisaschroeder/eventease/internal/domain"
	"github.com/elisaschroeder/eventease/internal/repository"
	"github.com/jackc/pgx/v5"
)

const eventColumns = `id, name, description, date, location, image_url, price,
	capacity, current_registrations, type, organizer, tags, is_active`

type EventRepo struct {
	store *Store
	db    DB
}

func (r *EventRepo) With(db DB) *EventRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *EventRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.store.pool
}

func scanEvent(row pgx.Row) (domain.Event, error) {
	var e domain.Event
	var typ string

	err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.Date, &e.Location, &e.ImageURL, &e.Price,
		&e.Capacity, &e.CurrentRegistrations, &typ, &e.Organizer, &e.Tags, &e.IsActive,
	)
	e.Type = domain.EventType(typ)

	return e, err
}

// List returns every event, active or not, in date order.
func (r *EventRepo) List(ctx context.Context) ([]domain.Event, error) {
	const op = "postgresrepo.EventRepo.List"

	rows, err := r.handle().Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events
		 ORDER BY date, id`,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// Get retrieves an event by its ID.
//
// Returns:
//   - *domain.Event: the event when found.
//   - error: repository.ErrNotFound if the event is not found.
func (r *EventRepo) Get(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "postgresrepo.EventRepo.Get"

	e, err := scanEvent(r.handle().QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &e, nil
}

// Register increments the event's registration count with a single
// conditional update and stores the registration in the same transaction.
//
// Returns:
//   - *domain.Registration: the stored registration with its id assigned.
//   - error: repository.ErrNotFound if the event does not exist.
//   - error: repository.ErrCapacityExceeded if the event is inactive or full.
func (r *EventRepo) Register(ctx context.Context, reg domain.Registration) (*domain.Registration, error) {
	const op = "postgresrepo.EventRepo.Register"

	if r.db != nil {
		if err := r.registerCore(ctx, r.db, &reg); err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		return &reg, nil
	}

	err := r.store.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		return r.registerCore(ctx, tx, &reg)
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &reg, nil
}

func (r *EventRepo) registerCore(ctx context.Context, db DB, reg *domain.Registration) error {
	const op = "postgresrepo.EventRepo.registerCore"

	var count int
	err := db.QueryRow(ctx,
		`UPDATE events
		    SET current_registrations = current_registrations + 1
		  WHERE id = $1
		    AND is_active
		    AND current_registrations < capacity
		 RETURNING current_registrations`,
		reg.EventID,
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`,
			reg.EventID,
		).Scan(&exists); err != nil {
			return wrapDBErr(op, err)
		}
		if !exists {
			return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
		}
		return fmt.Errorf("%s:%w", op, repository.ErrCapacityExceeded)
	}
	if err != nil {
		return wrapDBErr(op, err)
	}

	err = db.QueryRow(ctx,
		`INSERT INTO registrations(
			event_id, first_name, last_name, email, phone, company, position,
			registered_at, special_requests, is_confirmed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		reg.EventID, reg.FirstName, reg.LastName, reg.Email, reg.Phone, reg.Company,
		reg.Position, reg.RegisteredAt, reg.SpecialRequests, reg.IsConfirmed,
	).Scan(&reg.ID)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *EventRepo) Registrations(ctx context.Context, eventID int64) ([]domain.Registration, error) {
	const op = "postgresrepo.EventRepo.Registrations"

	rows, err := r.handle().Query(ctx,
		`SELECT id, event_id, first_name, last_name, email, phone, company, position,
		        registered_at, special_requests, is_confirmed
		 FROM registrations
		 WHERE event_id = $1
		 ORDER BY id`,
		eventID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Registration
	for rows.Next() {
		var reg domain.Registration
		if err := rows.Scan(
			&reg.ID, &reg.EventID, &reg.FirstName, &reg.LastName, &reg.Email, &reg.Phone,
			&reg.Company, &reg.Position, &reg.RegisteredAt, &reg.SpecialRequests, &reg.IsConfirmed,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, reg)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}
