package postgresrepo

import (
	"context"
	"fmt"

	"github.com/elisaschroeder/eventease/internal/domain"
	"github.com/jackc/pgx/v5"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id                    BIGINT PRIMARY KEY,
	name                  TEXT NOT NULL,
	description           TEXT NOT NULL DEFAULT '',
	date                  TIMESTAMPTZ NOT NULL,
	location              TEXT NOT NULL DEFAULT '',
	image_url             TEXT NOT NULL DEFAULT '',
	price                 DOUBLE PRECISION NOT NULL DEFAULT 0,
	capacity              INTEGER NOT NULL CHECK (capacity >= 0),
	current_registrations INTEGER NOT NULL DEFAULT 0,
	type                  TEXT NOT NULL,
	organizer             TEXT NOT NULL DEFAULT '',
	tags                  TEXT[] NOT NULL DEFAULT '{}',
	is_active             BOOLEAN NOT NULL DEFAULT TRUE,
	CONSTRAINT events_capacity_chk CHECK (current_registrations <= capacity)
);

CREATE TABLE IF NOT EXISTS registrations (
	id               BIGSERIAL PRIMARY KEY,
	event_id         BIGINT NOT NULL REFERENCES events(id),
	first_name       TEXT NOT NULL,
	last_name        TEXT NOT NULL,
	email            TEXT NOT NULL,
	phone            TEXT NOT NULL DEFAULT '',
	company          TEXT NOT NULL DEFAULT '',
	position         TEXT NOT NULL DEFAULT '',
	registered_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	special_requests TEXT NOT NULL DEFAULT '',
	is_confirmed     BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS registrations_event_idx ON registrations(event_id);

CREATE TABLE IF NOT EXISTS attendees (
	id                   BIGSERIAL PRIMARY KEY,
	event_id             BIGINT NOT NULL,
	name                 TEXT NOT NULL,
	email                TEXT NOT NULL,
	phone                TEXT NOT NULL DEFAULT '',
	company              TEXT NOT NULL DEFAULT '',
	job_title            TEXT NOT NULL DEFAULT '',
	registered_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	check_in_time        TIMESTAMPTZ,
	check_out_time       TIMESTAMPTZ,
	status               TEXT NOT NULL DEFAULT 'Registered',
	is_vip               BOOLEAN NOT NULL DEFAULT FALSE,
	special_requirements TEXT NOT NULL DEFAULT '',
	notes                TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS attendees_event_idx ON attendees(event_id);
`

func (s *Store) Migrate(ctx context.Context) error {
	const op = "postgresrepo.Store.Migrate"

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// Seed loads events and attendees in one batch when the events table is
// empty. It reports whether anything was written.
func (s *Store) Seed(ctx context.Context, events []domain.Event, attendees []domain.Attendee) (bool, error) {
	const op = "postgresrepo.Store.Seed"

	var seeded bool

	err := s.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		var n int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM events`).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		batch := &pgx.Batch{}

		for _, e := range events {
			batch.Queue(
				`INSERT INTO events(`+eventColumns+`)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
				e.ID, e.Name, e.Description, e.Date, e.Location, e.ImageURL, e.Price,
				e.Capacity, e.CurrentRegistrations, string(e.Type), e.Organizer, e.Tags, e.IsActive,
			)
		}

		for _, a := range attendees {
			batch.Queue(
				`INSERT INTO attendees(`+attendeeColumns+`)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
				a.ID, a.EventID, a.Name, a.Email, a.Phone, a.Company, a.JobTitle, a.RegisteredAt,
				a.CheckInTime, a.CheckOutTime, string(a.Status), a.IsVIP, a.SpecialRequirements, a.Notes,
			)
		}

		if len(attendees) > 0 {
			batch.Queue(`SELECT setval(pg_get_serial_sequence('attendees', 'id'), (SELECT max(id) FROM attendees))`)
		}

		br := tx.SendBatch(ctx, batch)
		for range batch.Len() {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return err
			}
		}
		if err := br.Close(); err != nil {
			return err
		}

		seeded = true
		return nil
	})
	if err != nil {
		return false, wrapDBErr(op, err)
	}

	return seeded, nil
}
