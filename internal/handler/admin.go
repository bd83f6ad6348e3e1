package handler

import (
	"errors"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/Shivanand-hulikatti/club-events/internal/asset"
	"github.com/Shivanand-hulikatti/club-events/internal/model"
	"github.com/Shivanand-hulikatti/club-events/internal/session"
	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 10 << 20

var errNotImage = errors.New("must be an image file")

// AdminHandler serves the organizer console routes.
type AdminHandler struct {
	events Events
	logger *slog.Logger
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(events Events, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{events: events, logger: logger}
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// readImage returns the optional "image" part. The caller closes the file.
func readImage(r *http.Request) (*asset.Upload, multipart.File, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	ct := header.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		file.Close()
		return nil, nil, errNotImage
	}
	return &asset.Upload{Filename: header.Filename, ContentType: ct, Body: file}, file, nil
}

// formField returns a pointer to the form value, or nil if the key is absent.
func formField(form *multipart.Form, key string) *string {
	vals, ok := form.Value[key]
	if !ok || len(vals) == 0 {
		return nil
	}
	v := vals[0]
	return &v
}

func value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// parseEventForm fills a partial update from a multipart body and returns
// the optional image.
func parseEventForm(w http.ResponseWriter, r *http.Request) (model.UpdateEventRequest, *asset.Upload, multipart.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return model.UpdateEventRequest{}, nil, nil, model.NewValidationError("body", "invalid multipart form")
	}
	f := r.MultipartForm
	req := model.UpdateEventRequest{
		Title:       formField(f, "title"),
		Description: formField(f, "description"),
		Date:        formField(f, "date"),
		Time:        formField(f, "time"),
		Location:    formField(f, "location"),
	}
	img, file, err := readImage(r)
	if errors.Is(err, errNotImage) {
		return req, nil, nil, model.NewValidationError("image", err.Error())
	}
	if err != nil {
		return req, nil, nil, model.NewValidationError("image", "could not be read")
	}
	return req, img, file, nil
}

// CreateEvent handles POST /admin/events
// Accepts JSON, or multipart/form-data with an optional "image" file.
func (h *AdminHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var (
		req   model.CreateEventRequest
		image *asset.Upload
	)
	if isMultipart(r) {
		form, img, file, err := parseEventForm(w, r)
		if err != nil {
			writeServiceError(w, r, h.logger, err)
			return
		}
		if file != nil {
			defer file.Close()
		}
		req = model.CreateEventRequest{
			Title:       value(form.Title),
			Description: value(form.Description),
			Date:        value(form.Date),
			Time:        value(form.Time),
			Location:    value(form.Location),
		}
		image = img
	} else if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.CreateEvent(r.Context(), session.FromContext(r.Context()), req, image)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// UpdateEvent handles PATCH /admin/events/{id}
func (h *AdminHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var (
		req   model.UpdateEventRequest
		image *asset.Upload
	)
	if isMultipart(r) {
		form, img, file, err := parseEventForm(w, r)
		if err != nil {
			writeServiceError(w, r, h.logger, err)
			return
		}
		if file != nil {
			defer file.Close()
		}
		req, image = form, img
	} else if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.UpdateEvent(r.Context(), chi.URLParam(r, "id"), req, image)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /admin/events/{id}
// Removes the event and all of its registrations.
func (h *AdminHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.events.DeleteEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Participants handles GET /admin/events/{id}/participants
func (h *AdminHandler) Participants(w http.ResponseWriter, r *http.Request) {
	ps, err := h.events.Participants(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if ps == nil {
		ps = []model.Participant{}
	}
	writeJSON(w, http.StatusOK, ps)
}

// Dashboard handles GET /admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.events.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
