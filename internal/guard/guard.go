// Package guard decides whether a session may use a role-gated operation.
// Every gated entry point calls Authorize exactly once.
package guard

import (
	"strings"

	"github.com/Shivanand-hulikatti/club-events/internal/model"
	"github.com/Shivanand-hulikatti/club-events/internal/session"
)

// Reason explains a denial.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonNotAuthenticated Reason = "not-authenticated"
	ReasonForbidden        Reason = "forbidden"
)

// Entry pages the shells redirect to on denial.
const (
	LoginPage      = "/login"
	AdminLoginPage = "/admin-login"
)

// Decision is the outcome of Authorize.
type Decision struct {
	Allowed  bool
	Reason   Reason
	Required session.Role
}

// SignOut reports whether the caller must end the sign-in session. A session
// that reached an admin gate with the wrong role is not kept alive.
func (d Decision) SignOut() bool {
	return d.Reason == ReasonForbidden
}

// EntryPage is where the shell should send a denied actor.
func (d Decision) EntryPage() string {
	if d.Allowed {
		return ""
	}
	if d.Required == session.RoleAdmin {
		return AdminLoginPage
	}
	return LoginPage
}

// Err converts a denial into the error taxonomy; nil when allowed.
func (d Decision) Err() error {
	switch d.Reason {
	case ReasonNotAuthenticated:
		return model.ErrNotAuthenticated
	case ReasonForbidden:
		return model.ErrForbidden
	default:
		return nil
	}
}

// Guard holds the admin allow-list.
type Guard struct {
	allow map[string]struct{}
}

// New builds a Guard. Allow-list emails match case-insensitively.
func New(allowList []string) *Guard {
	g := &Guard{allow: make(map[string]struct{}, len(allowList))}
	for _, e := range allowList {
		if e = normalize(e); e != "" {
			g.allow[e] = struct{}{}
		}
	}
	return g
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AllowListed reports whether email is pre-authorized as admin.
func (g *Guard) AllowListed(email string) bool {
	_, ok := g.allow[normalize(email)]
	return ok
}

// Authorize applies, in order: no session → not-authenticated; admin required
// and neither admin role nor allow-listed email → forbidden; otherwise allowed.
// An empty role counts as "not admin".
func (g *Guard) Authorize(sess *session.Session, required session.Role) Decision {
	d := Decision{Required: required}
	switch {
	case sess == nil:
		d.Reason = ReasonNotAuthenticated
	case required == session.RoleAdmin && sess.Role != session.RoleAdmin && !g.AllowListed(sess.Email):
		d.Reason = ReasonForbidden
	default:
		d.Allowed = true
	}
	return d
}
