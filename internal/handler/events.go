package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Shivanand-hulikatti/club-events/internal/model"
	"github.com/Shivanand-hulikatti/club-events/internal/search"
	"github.com/Shivanand-hulikatti/club-events/internal/service"
	"github.com/Shivanand-hulikatti/club-events/internal/session"
	"github.com/go-chi/chi/v5"
)

// EventHandler serves the public listing and the member registration routes.
type EventHandler struct {
	events        Events
	registrations Registrations
	logger        *slog.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(events Events, registrations Registrations, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, registrations: registrations, logger: logger}
}

// parseQuery reads q, sort, from, to, page and per_page.
func parseQuery(r *http.Request) (service.Query, error) {
	v := r.URL.Query()
	q := service.Query{Term: v.Get("q")}

	if s := v.Get("sort"); s != "" {
		key, ok := search.ParseSortKey(s)
		if !ok {
			return q, model.NewValidationError("sort", "must be one of date-asc, date-desc, title-asc, title-desc")
		}
		q.Sort = key
	}

	for _, p := range []struct {
		name string
		dst  *model.Date
	}{{"from", &q.From}, {"to", &q.To}} {
		s := v.Get(p.name)
		if s == "" {
			continue
		}
		d, err := model.ParseDate(s)
		if err != nil {
			return q, model.NewValidationError(p.name, "must be YYYY-MM-DD")
		}
		*p.dst = d
	}

	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &q.Page}, {"per_page", &q.PerPage}} {
		s := v.Get(p.name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return q, model.NewValidationError(p.name, "must be a positive integer")
		}
		*p.dst = n
	}
	return q, nil
}

// ListEvents handles GET /events
// Returns one page of the filtered, sorted listing.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	page, err := h.events.Browse(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if page.Events == nil {
		page.Events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, page)
}

// GetEvent handles GET /events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Register handles POST /events/{id}/register
// 201 on a new registration, 200 when the member was already registered.
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	res, err := h.registrations.Register(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	status := http.StatusCreated
	if res.Status == service.StatusAlreadyRegistered {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

// CancelRegistration handles DELETE /events/{id}/register
func (h *EventHandler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	if err := h.registrations.Cancel(r.Context(), sess, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MyRegistrations handles GET /me/registrations
func (h *EventHandler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	list, err := h.registrations.ListForUser(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if list == nil {
		list = []service.UserRegistration{}
	}
	writeJSON(w, http.StatusOK, list)
}
