package repository

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/club-events/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository persists user profiles and sign-in sessions.
type UserRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *pgxpool.Pool, logger *slog.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

func scanProfile(row pgx.Row) (model.Profile, error) {
	var p model.Profile
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.Role, &p.CreatedAt)
	return p, err
}

// CreateUser inserts a profile. Emails are stored lower-cased.
func (r *UserRepository) CreateUser(ctx context.Context, p model.Profile) (model.Profile, error) {
	p.ID = uuid.New().String()
	p.Email = strings.ToLower(p.Email)
	p.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.Email, p.PasswordHash, p.Role, p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Profile{}, model.ErrEmailTaken
		}
		return model.Profile{}, remote(ctx, r.logger, "insert user", err)
	}
	return p, nil
}

// GetUserByEmail retrieves a profile by email address.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (model.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx,
		`SELECT id, name, email, password_hash, role, created_at FROM users WHERE email = $1`,
		strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, model.ErrNotFound
		}
		return model.Profile{}, remote(ctx, r.logger, "get user by email", err)
	}
	return p, nil
}

// GetUserByID retrieves a profile by ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id string) (model.Profile, error) {
	if !validID(id) {
		return model.Profile{}, model.ErrNotFound
	}
	p, err := scanProfile(r.db.QueryRow(ctx,
		`SELECT id, name, email, password_hash, role, created_at FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, model.ErrNotFound
		}
		return model.Profile{}, remote(ctx, r.logger, "get user by id", err)
	}
	return p, nil
}

// SetRole changes the stored role of the profile with the given email.
func (r *UserRepository) SetRole(ctx context.Context, email, role string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET role = $2 WHERE email = $1`,
		strings.ToLower(email), role)
	if err != nil {
		return remote(ctx, r.logger, "set role", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// CreateSession records a new sign-in session valid for ttl.
func (r *UserRepository) CreateSession(ctx context.Context, userID string, ttl time.Duration) (model.AuthSession, error) {
	now := time.Now().UTC()
	s := model.AuthSession{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO auth_sessions (id, user_id, created_at, expires_at) VALUES ($1, $2, $3, $4)`,
		s.ID, s.UserID, s.CreatedAt, s.ExpiresAt,
	)
	if err != nil {
		return model.AuthSession{}, remote(ctx, r.logger, "insert session", err)
	}
	return s, nil
}

// GetSession returns a sign-in session by ID.
func (r *UserRepository) GetSession(ctx context.Context, id string) (model.AuthSession, error) {
	if !validID(id) {
		return model.AuthSession{}, model.ErrNotFound
	}
	var s model.AuthSession
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, created_at, expires_at, revoked_at FROM auth_sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt, &s.RevokedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.AuthSession{}, model.ErrNotFound
		}
		return model.AuthSession{}, remote(ctx, r.logger, "get session", err)
	}
	return s, nil
}

// RevokeSession marks a session revoked. Revoking twice is a no-op.
func (r *UserRepository) RevokeSession(ctx context.Context, id string) error {
	if !validID(id) {
		return model.ErrNotFound
	}
	_, err := r.db.Exec(ctx,
		`UPDATE auth_sessions SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`,
		id, time.Now().UTC())
	if err != nil {
		return remote(ctx, r.logger, "revoke session", err)
	}
	return nil
}
