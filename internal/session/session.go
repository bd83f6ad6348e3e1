// Package session keeps the authenticated identity and role of the current
// actor. Roles come from the stored profile only.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Shivanand-hulikatti/club-events/internal/model"
)

// Role is an authorization level.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Session is the authenticated identity of an actor. Role is empty when the
// profile could not be loaded.
type Session struct {
	SubjectID   string `json:"subject_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role,omitempty"`
}

// Identity is what the auth provider knows about a signed-in subject.
type Identity struct {
	SubjectID string
	Email     string
}

// ProfileSource loads the stored profile for a subject.
type ProfileSource interface {
	GetUserByID(ctx context.Context, id string) (model.Profile, error)
}

// Notifier delivers auth-state changes. A nil identity means signed out.
type Notifier interface {
	Subscribe(fn func(ctx context.Context, id *Identity)) (unsubscribe func())
}

// Resolve merges an identity with its stored profile. When the profile cannot
// be loaded the identity fields are kept and Role stays empty.
func Resolve(ctx context.Context, profiles ProfileSource, id Identity, logger *slog.Logger) Session {
	s := Session{SubjectID: id.SubjectID, Email: id.Email}

	p, err := profiles.GetUserByID(ctx, id.SubjectID)
	if err != nil {
		logger.WarnContext(ctx, "profile_unavailable", "subject_id", id.SubjectID, "error", err)
		return s
	}
	s.DisplayName = p.Name
	switch Role(p.Role) {
	case RoleUser, RoleAdmin:
		s.Role = Role(p.Role)
	}
	return s
}

// Store caches the session of one client. Only the auth-state callback
// registered by Watch writes to it.
type Store struct {
	profiles ProfileSource
	logger   *slog.Logger

	mu      sync.RWMutex
	current *Session
}

// NewStore constructs an empty Store.
func NewStore(profiles ProfileSource, logger *slog.Logger) *Store {
	return &Store{profiles: profiles, logger: logger}
}

// Watch subscribes the store to n. The returned func detaches it and clears
// the cached session.
func (s *Store) Watch(n Notifier) (stop func()) {
	unsubscribe := n.Subscribe(s.onAuthStateChanged)
	return func() {
		unsubscribe()
		s.set(nil)
	}
}

func (s *Store) onAuthStateChanged(ctx context.Context, id *Identity) {
	if id == nil {
		s.set(nil)
		return
	}
	resolved := Resolve(ctx, s.profiles, *id, s.logger)
	s.set(&resolved)
}

func (s *Store) set(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = sess
}

// Current returns a copy of the last-known session, or nil when signed out.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	c := *s.current
	return &c
}

// IsAuthenticated reports whether a session is cached.
func (s *Store) IsAuthenticated() bool {
	return s.Current() != nil
}

type ctxKey struct{}

// WithSession returns a context carrying sess.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext extracts the session placed by WithSession, or nil.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(ctxKey{}).(*Session)
	return sess
}
