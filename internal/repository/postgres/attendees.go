package postgresrepo

import (
	"context"
	"fmt"

	"github.com/elisaschroeder/eventease/internal/domain"
	"github.com/elisaschroeder/eventease/internal/repository"
	"github.com/jackc/pgx/v5"
)

const attendeeColumns = `id, event_id, name, email, phone, company, job_title, registered_at,
	check_in_time, check_out_time, status, is_vip, special_requirements, notes`

type AttendeeRepo struct {
	store *Store
	db    DB
}

func (r *AttendeeRepo) With(db DB) *AttendeeRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *AttendeeRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.store.pool
}

func scanAttendee(row pgx.Row) (domain.Attendee, error) {
	var a domain.Attendee
	var status string

	err := row.Scan(
		&a.ID, &a.EventID, &a.Name, &a.Email, &a.Phone, &a.Company, &a.JobTitle, &a.RegisteredAt,
		&a.CheckInTime, &a.CheckOutTime, &status, &a.IsVIP, &a.SpecialRequirements, &a.Notes,
	)
	a.Status = domain.AttendanceStatus(status)

	return a, err
}

func (r *AttendeeRepo) List(ctx context.Context) ([]domain.Attendee, error) {
	const op = "postgresrepo.AttendeeRepo.List"

	rows, err := r.handle().Query(ctx,
		`SELECT `+attendeeColumns+` FROM attendees ORDER BY id`,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Attendee
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *AttendeeRepo) Get(ctx context.Context, id int64) (*domain.Attendee, error) {
	const op = "postgresrepo.AttendeeRepo.Get"

	a, err := scanAttendee(r.handle().QueryRow(ctx,
		`SELECT `+attendeeColumns+` FROM attendees WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &a, nil
}

func (r *AttendeeRepo) Create(ctx context.Context, a domain.Attendee) (*domain.Attendee, error) {
	const op = "postgresrepo.AttendeeRepo.Create"

	err := r.handle().QueryRow(ctx,
		`INSERT INTO attendees(
			event_id, name, email, phone, company, job_title, registered_at,
			check_in_time, check_out_time, status, is_vip, special_requirements, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id`,
		a.EventID, a.Name, a.Email, a.Phone, a.Company, a.JobTitle, a.RegisteredAt,
		a.CheckInTime, a.CheckOutTime, string(a.Status), a.IsVIP, a.SpecialRequirements, a.Notes,
	).Scan(&a.ID)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &a, nil
}

// Update locks the attendee row, applies fn and writes the result back in
// one transaction. When fn fails the transaction is rolled back.
//
// Returns:
//   - *domain.Attendee: the updated attendee.
//   - error: repository.ErrNotFound if the attendee is not found.
func (r *AttendeeRepo) Update(
	ctx context.Context,
	id int64,
	fn func(a *domain.Attendee) error,
) (*domain.Attendee, error) {
	const op = "postgresrepo.AttendeeRepo.Update"

	var out domain.Attendee

	core := func(ctx context.Context, db DB) error {
		a, err := scanAttendee(db.QueryRow(ctx,
			`SELECT `+attendeeColumns+` FROM attendees WHERE id = $1 FOR UPDATE`,
			id,
		))
		if err != nil {
			return wrapDBErr(op, err)
		}

		if err := fn(&a); err != nil {
			return err
		}

		tag, err := db.Exec(ctx,
			`UPDATE attendees
			    SET event_id = $2, name = $3, email = $4, phone = $5, company = $6,
			        job_title = $7, check_in_time = $8, check_out_time = $9, status = $10,
			        is_vip = $11, special_requirements = $12, notes = $13
			  WHERE id = $1`,
			id, a.EventID, a.Name, a.Email, a.Phone, a.Company, a.JobTitle,
			a.CheckInTime, a.CheckOutTime, string(a.Status), a.IsVIP, a.SpecialRequirements, a.Notes,
		)
		if err != nil {
			return wrapDBErr(op, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
		}

		a.ID = id
		out = a
		return nil
	}

	var err error
	if r.db != nil {
		err = core(ctx, r.db)
	} else {
		err = r.store.RunTx(ctx, nil, core)
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &out, nil
}

func (r *AttendeeRepo) Delete(ctx context.Context, id int64) error {
	const op = "postgresrepo.AttendeeRepo.Delete"

	tag, err := r.handle().Exec(ctx, `DELETE FROM attendees WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}
