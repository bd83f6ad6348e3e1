package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/club-events/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegistrationRepository handles persistence for registrations.
type RegistrationRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool, logger *slog.Logger) *RegistrationRepository {
	return &RegistrationRepository{db: db, logger: logger}
}

// Find returns the registration for (userID, eventID) or model.ErrNotFound.
func (r *RegistrationRepository) Find(ctx context.Context, userID, eventID string) (*model.Registration, error) {
	if !validID(userID) || !validID(eventID) {
		return nil, model.ErrNotFound
	}
	var reg model.Registration
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, event_id, registered_at
		 FROM registrations
		 WHERE user_id = $1 AND event_id = $2`,
		userID, eventID,
	).Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.RegisteredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, remote(ctx, r.logger, "find registration", err)
	}
	return &reg, nil
}

// Create writes a registration. The event row is held with FOR SHARE so a
// concurrent cascade delete either completes first (ErrNotFound here) or
// waits for this insert and removes it.
//
// A second insert for the same (user, event) fails on the unique index and is
// reported as ErrDuplicate.
func (r *RegistrationRepository) Create(ctx context.Context, userID, eventID string) (_ *model.Registration, err error) {
	if !validID(eventID) {
		return nil, model.ErrNotFound
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, remote(ctx, r.logger, "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR SHARE`, eventID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, remote(ctx, r.logger, "lock event row", err)
	}

	reg := &model.Registration{
		ID:           uuid.New().String(),
		UserID:       userID,
		EventID:      eventID,
		RegisteredAt: time.Now().UTC(),
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO registrations (id, user_id, event_id, registered_at)
		 VALUES ($1, $2, $3, $4)`,
		reg.ID, reg.UserID, reg.EventID, reg.RegisteredAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, remote(ctx, r.logger, "insert registration", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, remote(ctx, r.logger, "commit transaction", err)
	}
	return reg, nil
}

// Delete removes a registration by ID.
func (r *RegistrationRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return model.ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return remote(ctx, r.logger, "delete registration", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// CountByEvent returns the number of registrations for one event.
func (r *RegistrationRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	if !validID(eventID) {
		return 0, nil
	}
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID,
	).Scan(&n)
	if err != nil {
		return 0, remote(ctx, r.logger, "count registrations", err)
	}
	return n, nil
}

// CountsByEvent returns registration counts keyed by event ID. Events with no
// registrations are absent from the map.
func (r *RegistrationRepository) CountsByEvent(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT event_id, COUNT(*) FROM registrations GROUP BY event_id`)
	if err != nil {
		return nil, remote(ctx, r.logger, "count registrations", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			eventID string
			n       int
		)
		if err := rows.Scan(&eventID, &n); err != nil {
			return nil, remote(ctx, r.logger, "scan registration count", err)
		}
		counts[eventID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, remote(ctx, r.logger, "count registrations", err)
	}
	return counts, nil
}

// ListByUser returns a user's registrations, newest first.
func (r *RegistrationRepository) ListByUser(ctx context.Context, userID string) ([]model.Registration, error) {
	if !validID(userID) {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, event_id, registered_at
		 FROM registrations
		 WHERE user_id = $1
		 ORDER BY registered_at DESC`,
		userID,
	)
	if err != nil {
		return nil, remote(ctx, r.logger, "list registrations", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		var reg model.Registration
		if err := rows.Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.RegisteredAt); err != nil {
			return nil, remote(ctx, r.logger, "scan registration", err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, remote(ctx, r.logger, "list registrations", err)
	}
	return regs, nil
}

// ListParticipants returns the registrations of an event joined with the
// registrant's profile, in registration order.
func (r *RegistrationRepository) ListParticipants(ctx context.Context, eventID string) ([]model.Participant, error) {
	if !validID(eventID) {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT r.id, r.user_id, COALESCE(u.name, ''), COALESCE(u.email, ''), r.registered_at
		 FROM registrations r
		 LEFT JOIN users u ON u.id = r.user_id
		 WHERE r.event_id = $1
		 ORDER BY r.registered_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, remote(ctx, r.logger, "list participants", err)
	}
	defer rows.Close()

	var out []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.RegistrationID, &p.UserID, &p.Name, &p.Email, &p.RegisteredAt); err != nil {
			return nil, remote(ctx, r.logger, "scan participant", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, remote(ctx, r.logger, "list participants", err)
	}
	return out, nil
}
