// Package auth signs members in and out and announces auth-state changes to
// subscribers such as session.Store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/club-events/internal/model"
	"github.com/Shivanand-hulikatti/club-events/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Repository is the persistence the auth service needs.
type Repository interface {
	CreateUser(ctx context.Context, p model.Profile) (model.Profile, error)
	GetUserByEmail(ctx context.Context, email string) (model.Profile, error)
	CreateSession(ctx context.Context, userID string, ttl time.Duration) (model.AuthSession, error)
	GetSession(ctx context.Context, id string) (model.AuthSession, error)
	RevokeSession(ctx context.Context, id string) error
}

// SignInResult bundles the token returned after a successful sign-in.
type SignInResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	SessionID string           `json:"-"`
	Identity  session.Identity `json:"-"`
}

// Verified is what a valid token proves.
type Verified struct {
	Identity  session.Identity
	SessionID string
}

type claims struct {
	Email     string `json:"email"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Service handles sign-up, sign-in, sign-out and token verification.
type Service struct {
	repo      Repository
	jwtSecret []byte
	ttl       time.Duration
	logger    *slog.Logger
	now       func() time.Time
	cost      int

	mu     sync.Mutex
	subs   map[int]func(context.Context, *session.Identity)
	nextID int
}

// NewService creates a new authentication service.
func NewService(repo Repository, jwtSecret string, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
		cost:      bcrypt.DefaultCost,
		subs:      make(map[int]func(context.Context, *session.Identity)),
	}
}

// Subscribe registers fn for auth-state changes. fn receives the identity on
// sign-in and nil on sign-out. It runs on the goroutine that caused the change.
func (s *Service) Subscribe(fn func(ctx context.Context, id *session.Identity)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Service) publish(ctx context.Context, id *session.Identity) {
	s.mu.Lock()
	fns := make([]func(context.Context, *session.Identity), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ctx, id)
	}
}

// SignUp creates a member account. New accounts always get the user role.
func (s *Service) SignUp(ctx context.Context, req model.SignUpRequest) (model.Profile, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Name == "" {
		return model.Profile{}, model.NewValidationError("name", "is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return model.Profile{}, model.NewValidationError("email", "must be a valid address")
	}
	if len(req.Password) < model.MinPasswordLength {
		return model.Profile{}, model.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return model.Profile{}, fmt.Errorf("auth: hash password: %w", err)
	}

	p, err := s.repo.CreateUser(ctx, model.Profile{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         string(session.RoleUser),
	})
	if err != nil {
		return model.Profile{}, err
	}

	s.logger.InfoContext(ctx, "auth_event", "action", "sign_up", "user_id", p.ID)
	return p, nil
}

// SignIn checks credentials, records a sign-in session and issues a token.
func (s *Service) SignIn(ctx context.Context, req model.SignInRequest) (SignInResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return SignInResult{}, model.ErrInvalidCredentials
		}
		return SignInResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.InfoContext(ctx, "auth_event", "action", "sign_in_failed", "user_id", user.ID)
		return SignInResult{}, model.ErrInvalidCredentials
	}

	sess, err := s.repo.CreateSession(ctx, user.ID, s.ttl)
	if err != nil {
		return SignInResult{}, err
	}

	token, err := s.generateToken(user, sess)
	if err != nil {
		return SignInResult{}, fmt.Errorf("auth: generate token: %w", err)
	}

	id := session.Identity{SubjectID: user.ID, Email: user.Email}
	s.logger.InfoContext(ctx, "auth_event", "action", "sign_in", "user_id", user.ID, "session_id", sess.ID)
	s.publish(ctx, &id)

	return SignInResult{
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
		SessionID: sess.ID,
		Identity:  id,
	}, nil
}

// SignOut revokes the sign-in session. Signing out twice is not an error.
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if err := s.repo.RevokeSession(ctx, sessionID); err != nil && !errors.Is(err, model.ErrNotFound) {
		return err
	}
	s.logger.InfoContext(ctx, "auth_event", "action", "sign_out", "session_id", sessionID)
	s.publish(ctx, nil)
	return nil
}

// Verify validates a token and checks that its sign-in session is still
// active. Any token problem is reported as model.ErrNotAuthenticated.
func (s *Service) Verify(ctx context.Context, tokenString string) (Verified, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Verified{}, fmt.Errorf("auth: parse token: %w", model.ErrNotAuthenticated)
	}
	if c.Subject == "" || c.SessionID == "" {
		return Verified{}, fmt.Errorf("auth: incomplete claims: %w", model.ErrNotAuthenticated)
	}

	sess, err := s.repo.GetSession(ctx, c.SessionID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return Verified{}, fmt.Errorf("auth: unknown session: %w", model.ErrNotAuthenticated)
		}
		return Verified{}, err
	}
	if sess.UserID != c.Subject || !sess.Active(s.now()) {
		return Verified{}, fmt.Errorf("auth: session ended: %w", model.ErrNotAuthenticated)
	}

	return Verified{
		Identity:  session.Identity{SubjectID: c.Subject, Email: c.Email},
		SessionID: c.SessionID,
	}, nil
}

func (s *Service) generateToken(user model.Profile, sess model.AuthSession) (string, error) {
	c := claims{
		Email:     user.Email,
		SessionID: sess.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.jwtSecret)
}
