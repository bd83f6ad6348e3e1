package guard

import (
	"testing"

	"github.com/Shivanand-hulikatti/club-events/internal/model"
	"github.com/Shivanand-hulikatti/club-events/internal/session"
	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	g := New([]string{"Organizer@ITC.example.edu", " "})

	user := &session.Session{SubjectID: "u1", Email: "student@uni.edu", Role: session.RoleUser}
	admin := &session.Session{SubjectID: "u2", Email: "chair@uni.edu", Role: session.RoleAdmin}
	listed := &session.Session{SubjectID: "u3", Email: "organizer@itc.example.edu", Role: session.RoleUser}
	noRole := &session.Session{SubjectID: "u4", Email: "student@uni.edu"}
	listedNoRole := &session.Session{SubjectID: "u5", Email: "ORGANIZER@itc.example.edu"}

	tests := []struct {
		name      string
		sess      *session.Session
		required  session.Role
		allowed   bool
		reason    Reason
		signOut   bool
		entryPage string
		err       error
	}{
		{name: "nil session user page", sess: nil, required: session.RoleUser, reason: ReasonNotAuthenticated, entryPage: LoginPage, err: model.ErrNotAuthenticated},
		{name: "nil session admin page", sess: nil, required: session.RoleAdmin, reason: ReasonNotAuthenticated, entryPage: AdminLoginPage, err: model.ErrNotAuthenticated},
		{name: "user on user page", sess: user, required: session.RoleUser, allowed: true},
		{name: "user on admin page", sess: user, required: session.RoleAdmin, reason: ReasonForbidden, signOut: true, entryPage: AdminLoginPage, err: model.ErrForbidden},
		{name: "admin on admin page", sess: admin, required: session.RoleAdmin, allowed: true},
		{name: "allow-listed user on admin page", sess: listed, required: session.RoleAdmin, allowed: true},
		{name: "missing role fails closed", sess: noRole, required: session.RoleAdmin, reason: ReasonForbidden, signOut: true, entryPage: AdminLoginPage, err: model.ErrForbidden},
		{name: "missing role still a user", sess: noRole, required: session.RoleUser, allowed: true},
		{name: "allow-list is case-insensitive", sess: listedNoRole, required: session.RoleAdmin, allowed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := g.Authorize(tt.sess, tt.required)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Equal(t, tt.signOut, d.SignOut())
			assert.Equal(t, tt.entryPage, d.EntryPage())
			assert.Equal(t, tt.err, d.Err())
		})
	}
}

func TestAuthorize_Deterministic(t *testing.T) {
	g := New(nil)
	sess := &session.Session{SubjectID: "u1", Role: session.RoleUser}
	first := g.Authorize(sess, session.RoleAdmin)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, g.Authorize(sess, session.RoleAdmin))
	}
	assert.Equal(t, session.RoleUser, sess.Role)
}

func TestNew_IgnoresBlankEntries(t *testing.T) {
	g := New([]string{"", "  "})
	assert.Empty(t, g.allow)
	assert.False(t, g.AllowListed(""))
}
