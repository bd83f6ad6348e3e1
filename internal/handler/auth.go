package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Shivanand-hulikatti/club-events/internal/guard"
	"github.com/Shivanand-hulikatti/club-events/internal/model"
	"github.com/Shivanand-hulikatti/club-events/internal/session"
)

// AuthHandler serves sign-up, sign-in and sign-out.
type AuthHandler struct {
	authn    Authenticator
	profiles session.ProfileSource
	gate     *Gate
	logger   *slog.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(authn Authenticator, profiles session.ProfileSource, gate *Gate, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authn: authn, profiles: profiles, gate: gate, logger: logger}
}

type signInResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Session   session.Session `json:"session"`
}

// SignUp handles POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req model.SignUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	p, err := h.authn.SignUp(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request, required session.Role) {
	var req model.SignInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.authn.SignIn(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	sess := session.Resolve(r.Context(), h.profiles, res.Identity, h.logger)
	if d := h.gate.guard.Authorize(&sess, required); !d.Allowed {
		h.gate.deny(w, r, d, res.SessionID)
		return
	}

	writeJSON(w, http.StatusOK, signInResponse{Token: res.Token, ExpiresAt: res.ExpiresAt, Session: sess})
}

// SignIn handles POST /auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	h.signIn(w, r, session.RoleUser)
}

// AdminSignIn handles POST /auth/admin/signin
// A member without admin rights is signed straight back out.
func (h *AuthHandler) AdminSignIn(w http.ResponseWriter, r *http.Request) {
	h.signIn(w, r, session.RoleAdmin)
}

// SignOut handles POST /auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.authn.SignOut(r.Context(), sessionIDFrom(r.Context())); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		writeJSON(w, http.StatusUnauthorized, model.ErrorResponse{Error: "sign in required", Redirect: guard.LoginPage})
		return
	}
	writeJSON(w, http.StatusOK, sess)
}
