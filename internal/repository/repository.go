// Package repository implements all database queries for the club events system.
// It uses pgx directly (no ORM). Every backend failure is logged here and
// surfaced to callers only as model.ErrRemoteUnavailable.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/club-events/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicate is returned when an insert hits a unique index.
var ErrDuplicate = errors.New("duplicate record")

const pgUniqueViolation = "23505"

// remote logs the raw driver error and converts it into the taxonomy.
func remote(ctx context.Context, logger *slog.Logger, op string, err error) error {
	logger.ErrorContext(ctx, "db_error", "op", op, "error", err)
	return fmt.Errorf("%s: %w", op, model.ErrRemoteUnavailable)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// validID reports whether id can be a primary key. Malformed IDs are
// answered with ErrNotFound without a round trip.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// EventRepository handles persistence for events.
type EventRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool, logger *slog.Logger) *EventRepository {
	return &EventRepository{db: db, logger: logger}
}

const eventColumns = `id, title, description, date, time, location, image_url, created_by, created_at, updated_at`

func scanEvent(row pgx.Row) (model.Event, error) {
	var (
		e         model.Event
		day       time.Time
		updatedAt *time.Time
	)
	err := row.Scan(&e.ID, &e.Title, &e.Description, &day, &e.Time, &e.Location,
		&e.ImageURL, &e.CreatedBy, &e.CreatedAt, &updatedAt)
	if err != nil {
		return model.Event{}, err
	}
	e.Date = model.DateOf(day)
	if updatedAt != nil {
		e.UpdatedAt = *updatedAt
	}
	return e, nil
}

// Create inserts a new event, assigning its ID and creation time.
func (r *EventRepository) Create(ctx context.Context, e model.Event) (*model.Event, error) {
	e.ID = uuid.New().String()
	e.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, title, description, date, time, location, image_url, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.Title, e.Description, e.Date.Time, e.Time, e.Location, e.ImageURL, e.CreatedBy, e.CreatedAt,
	)
	if err != nil {
		return nil, remote(ctx, r.logger, "insert event", err)
	}
	return &e, nil
}

// List returns all events ordered by date, oldest first.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events
		 ORDER BY date ASC, created_at ASC`,
	)
	if err != nil {
		return nil, remote(ctx, r.logger, "list events", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, remote(ctx, r.logger, "scan event", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, remote(ctx, r.logger, "list events", err)
	}
	return events, nil
}

// GetByID returns a single event or model.ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	if !validID(id) {
		return nil, model.ErrNotFound
	}
	e, err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, remote(ctx, r.logger, "get event", err)
	}
	return &e, nil
}

// Update overwrites the mutable fields of an existing event.
func (r *EventRepository) Update(ctx context.Context, e *model.Event) error {
	if !validID(e.ID) {
		return model.ErrNotFound
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE events
		 SET title = $2, description = $3, date = $4, time = $5, location = $6, image_url = $7, updated_at = $8
		 WHERE id = $1`,
		e.ID, e.Title, e.Description, e.Date.Time, e.Time, e.Location, e.ImageURL, e.UpdatedAt,
	)
	if err != nil {
		return remote(ctx, r.logger, "update event", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// DeleteCascade removes an event and every registration that references it
// in one transaction and returns the number of registrations removed.
//
// The event row is locked with SELECT … FOR UPDATE first. Registration inserts
// take FOR SHARE on the same row, so a registration cannot be written between
// the two deletes.
func (r *EventRepository) DeleteCascade(ctx context.Context, id string) (removed int64, err error) {
	if !validID(id) {
		return 0, model.ErrNotFound
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, remote(ctx, r.logger, "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, model.ErrNotFound
		}
		return 0, remote(ctx, r.logger, "lock event row", err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
		return 0, remote(ctx, r.logger, "delete event", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM registrations WHERE event_id = $1`, id)
	if err != nil {
		return 0, remote(ctx, r.logger, "delete registrations", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, remote(ctx, r.logger, "commit transaction", err)
	}
	return tag.RowsAffected(), nil
}
