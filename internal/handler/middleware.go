package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/club-events/internal/guard"
	"github.com/Shivanand-hulikatti/club-events/internal/model"
	"github.com/Shivanand-hulikatti/club-events/internal/session"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Logger writes one structured line per request.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.InfoContext(r.Context(), "http_request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// CORS allows browser clients on the configured origins to call the API.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

type ctxKeySessionID struct{}

func withSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID{}, id)
}

func sessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeySessionID{}).(string)
	return id
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticate resolves the bearer token, if any, into a session.Session on
// the request context. Requests without a valid token continue anonymously;
// the guard decides whether that is enough.
func Authenticate(authn Authenticator, profiles session.ProfileSource, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			v, err := authn.Verify(r.Context(), token)
			if err != nil {
				if errors.Is(err, model.ErrNotAuthenticated) {
					next.ServeHTTP(w, r)
					return
				}
				writeServiceError(w, r, logger, err)
				return
			}

			sess := session.Resolve(r.Context(), profiles, v.Identity, logger)
			ctx := session.WithSession(r.Context(), &sess)
			ctx = withSessionID(ctx, v.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Gate enforces guard decisions on routes.
type Gate struct {
	guard  *guard.Guard
	authn  Authenticator
	logger *slog.Logger
}

// NewGate constructs a Gate.
func NewGate(g *guard.Guard, authn Authenticator, logger *slog.Logger) *Gate {
	return &Gate{guard: g, authn: authn, logger: logger}
}

// Require admits requests whose session satisfies role. A forbidden request
// also has its sign-in session revoked.
func (g *Gate) Require(role session.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.guard.Authorize(session.FromContext(r.Context()), role)
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}
			g.deny(w, r, d, sessionIDFrom(r.Context()))
		})
	}
}

func (g *Gate) deny(w http.ResponseWriter, r *http.Request, d guard.Decision, sessionID string) {
	if d.SignOut() && sessionID != "" {
		if err := g.authn.SignOut(r.Context(), sessionID); err != nil {
			g.logger.ErrorContext(r.Context(), "forced_sign_out_failed", "session_id", sessionID, "error", err)
		}
	}
	g.logger.InfoContext(r.Context(), "access_denied",
		"path", r.URL.Path, "reason", string(d.Reason), "required", string(d.Required))

	status := http.StatusUnauthorized
	if d.Reason == guard.ReasonForbidden {
		status = http.StatusForbidden
	}
	writeJSON(w, status, model.ErrorResponse{Error: d.Err().Error(), Redirect: d.EntryPage()})
}
