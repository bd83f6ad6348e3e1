// Package model defines the core domain types for the club events system.
package model

import (
	"strings"
	"time"
)

// Event represents a published club activity.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        Date      `json:"date"`
	Time        string    `json:"time,omitempty"`
	Location    string    `json:"location"`
	ImageURL    string    `json:"image_url"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`

	// Response-only fields, never persisted.
	DescriptionHTML string `json:"description_html,omitempty"`
	Participants    *int   `json:"participants,omitempty"`
}

// IsUpcoming reports whether the event falls after the given instant's day.
func (e *Event) IsUpcoming(now time.Time) bool {
	today := DateOf(now)
	return e.Date.After(today.Time)
}

// Registration links a user to an event they intend to attend.
type Registration struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	EventID      string    `json:"event_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Participant is a registration joined with the registrant's profile.
type Participant struct {
	RegistrationID string    `json:"registration_id"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	RegisteredAt   time.Time `json:"registered_at"`
}

// Profile is the stored user record. Role is authoritative only here.
type Profile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
}

// Validate checks the mandatory fields and returns a *ValidationError listing
// every missing or malformed one.
func (r *CreateEventRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.Location = strings.TrimSpace(r.Location)

	var v ValidationError
	if r.Title == "" {
		v.add("title", "is required")
	}
	if r.Description == "" {
		v.add("description", "is required")
	}
	if r.Date == "" {
		v.add("date", "is required")
	} else if _, err := ParseDate(r.Date); err != nil {
		v.add("date", "must be YYYY-MM-DD")
	}
	if r.Location == "" {
		v.add("location", "is required")
	}
	return v.errOrNil()
}

// UpdateEventRequest carries a partial update; nil fields are left untouched.
type UpdateEventRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
	Time        *string `json:"time,omitempty"`
	Location    *string `json:"location,omitempty"`
}

// Validate rejects supplied mandatory fields that are blank.
func (r *UpdateEventRequest) Validate() error {
	var v ValidationError
	required := []struct {
		name string
		val  *string
	}{
		{"title", r.Title},
		{"description", r.Description},
		{"date", r.Date},
		{"location", r.Location},
	}
	for _, f := range required {
		if f.val == nil {
			continue
		}
		*f.val = strings.TrimSpace(*f.val)
		if *f.val == "" {
			v.add(f.name, "must not be empty")
		}
	}
	if r.Date != nil && *r.Date != "" {
		if _, err := ParseDate(*r.Date); err != nil {
			v.add("date", "must be YYYY-MM-DD")
		}
	}
	if r.Time != nil {
		*r.Time = strings.TrimSpace(*r.Time)
	}
	return v.errOrNil()
}

// Apply merges the supplied fields into e. Validate must have succeeded.
func (r UpdateEventRequest) Apply(e *Event) {
	if r.Title != nil {
		e.Title = *r.Title
	}
	if r.Description != nil {
		e.Description = *r.Description
	}
	if r.Date != nil {
		d, _ := ParseDate(*r.Date)
		e.Date = d
	}
	if r.Time != nil {
		e.Time = *r.Time
	}
	if r.Location != nil {
		e.Location = *r.Location
	}
}

// SignUpRequest is the payload for creating a user account.
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInRequest is the payload for signing in.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Dashboard summarises the organizer console counters.
type Dashboard struct {
	TotalEvents        int `json:"total_events"`
	UpcomingEvents     int `json:"upcoming_events"`
	TotalRegistrations int `json:"total_registrations"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error    string   `json:"error"`
	Fields   []string `json:"fields,omitempty"`
	Redirect string   `json:"redirect,omitempty"`
}

// AuthSession is a server-side sign-in record referenced by a token's "sid".
type AuthSession struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Active reports whether the session is neither revoked nor expired at now.
func (s AuthSession) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
