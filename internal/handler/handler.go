// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/club-events/internal/asset"
	"github.com/Shivanand-hulikatti/club-events/internal/auth"
	"github.com/Shivanand-hulikatti/club-events/internal/guard"
	"github.com/Shivanand-hulikatti/club-events/internal/model"
	"github.com/Shivanand-hulikatti/club-events/internal/service"
	"github.com/Shivanand-hulikatti/club-events/internal/session"
)

// Events is the event service as seen by the handlers.
type Events interface {
	Browse(ctx context.Context, q service.Query) (service.Page, error)
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	CreateEvent(ctx context.Context, sess *session.Session, req model.CreateEventRequest, image *asset.Upload) (*model.Event, error)
	UpdateEvent(ctx context.Context, id string, req model.UpdateEventRequest, image *asset.Upload) (*model.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	Participants(ctx context.Context, eventID string) ([]model.Participant, error)
	Dashboard(ctx context.Context) (model.Dashboard, error)
}

// Registrations is the registration workflow as seen by the handlers.
type Registrations interface {
	Register(ctx context.Context, sess *session.Session, eventID string) (service.RegisterResult, error)
	Cancel(ctx context.Context, sess *session.Session, eventID string) error
	ListForUser(ctx context.Context, sess *session.Session) ([]service.UserRegistration, error)
}

// Authenticator is the auth provider as seen by the handlers.
type Authenticator interface {
	SignUp(ctx context.Context, req model.SignUpRequest) (model.Profile, error)
	SignIn(ctx context.Context, req model.SignInRequest) (auth.SignInResult, error)
	SignOut(ctx context.Context, sessionID string) error
	Verify(ctx context.Context, token string) (auth.Verified, error)
}

// Pinger reports database liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps the error taxonomy onto status codes. Details of
// backend failures are logged, never returned.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: verr.Error(), Fields: verr.FieldNames()})
	case errors.Is(err, model.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, model.ErrWeakPassword.Error())
	case errors.Is(err, model.ErrNotAuthenticated):
		writeJSON(w, http.StatusUnauthorized, model.ErrorResponse{Error: "sign in required", Redirect: guard.LoginPage})
	case errors.Is(err, model.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, model.ErrInvalidCredentials.Error())
	case errors.Is(err, model.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrEmailTaken):
		writeError(w, http.StatusConflict, model.ErrEmailTaken.Error())
	case errors.Is(err, model.ErrRemoteUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable, please retry")
	case errors.Is(err, model.ErrCascadeIncomplete):
		logger.ErrorContext(r.Context(), "request_failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, model.ErrCascadeIncomplete.Error())
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful can be written.
	default:
		logger.ErrorContext(r.Context(), "request_failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health.
func HealthCheck(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			logger.WarnContext(r.Context(), "health_db_ping_failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
