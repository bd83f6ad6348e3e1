package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Shivanand-hulikatti/club-events/internal/asset"
	"github.com/Shivanand-hulikatti/club-events/internal/guard"
	"github.com/Shivanand-hulikatti/club-events/internal/session"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Deps is everything the router needs.
type Deps struct {
	Events         Events
	Registrations  Registrations
	Auth           Authenticator
	Profiles       session.ProfileSource
	Guard          *guard.Guard
	DB             Pinger
	Logger         *slog.Logger
	AllowedOrigins []string

	// AssetsDir, when set, is served read-only under the URL path of
	// AssetsPrefix.
	AssetsDir    string
	AssetsPrefix string
}

// NewRouter builds the chi router with the full middleware stack.
func NewRouter(d Deps) http.Handler {
	gate := NewGate(d.Guard, d.Auth, d.Logger)
	events := NewEventHandler(d.Events, d.Registrations, d.Logger)
	admin := NewAdminHandler(d.Events, d.Logger)
	authh := NewAuthHandler(d.Auth, d.Profiles, gate, d.Logger)

	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(d.Logger))        // structured access log
	r.Use(CORS(d.AllowedOrigins))
	r.Use(Authenticate(d.Auth, d.Profiles, d.Logger))

	// Health
	r.Get("/health", HealthCheck(d.DB, d.Logger))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authh.SignUp)
		r.Post("/signin", authh.SignIn)
		r.Post("/admin/signin", authh.AdminSignIn)
		r.With(gate.Require(session.RoleUser)).Post("/signout", authh.SignOut)
		r.With(gate.Require(session.RoleUser)).Get("/me", authh.Me)
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", events.ListEvents)
		r.Get("/{id}", events.GetEvent)
		r.Group(func(r chi.Router) {
			r.Use(gate.Require(session.RoleUser))
			r.Post("/{id}/register", events.Register)
			r.Delete("/{id}/register", events.CancelRegistration)
		})
	})

	r.With(gate.Require(session.RoleUser)).Get("/me/registrations", events.MyRegistrations)

	r.Route("/admin", func(r chi.Router) {
		r.Use(gate.Require(session.RoleAdmin))
		r.Post("/events", admin.CreateEvent)
		r.Patch("/events/{id}", admin.UpdateEvent)
		r.Delete("/events/{id}", admin.DeleteEvent)
		r.Get("/events/{id}/participants", admin.Participants)
		r.Get("/dashboard", admin.Dashboard)
	})

	if d.AssetsDir != "" {
		prefix := strings.TrimRight(asset.RoutePrefix(d.AssetsPrefix), "/")
		r.Handle(prefix+"/*", http.StripPrefix(prefix+"/", http.FileServer(http.Dir(d.AssetsDir))))
	}

	return r
}
