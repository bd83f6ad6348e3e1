package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/club-events/internal/asset"
	"github.com/Shivanand-hulikatti/club-events/internal/markdown"
	"github.com/Shivanand-hulikatti/club-events/internal/model"
	"github.com/Shivanand-hulikatti/club-events/internal/search"
	"github.com/Shivanand-hulikatti/club-events/internal/session"
	"golang.org/x/sync/errgroup"
)

const discardTimeout = 10 * time.Second

// EventService orchestrates event-related business operations.
type EventService struct {
	events        EventStore
	registrations RegistrationStore
	assets        asset.Store
	placeholder   string
	logger        *slog.Logger
	now           clock
}

// NewEventService constructs an EventService with its dependencies.
// placeholderURL is stored for events created without an image.
func NewEventService(
	events EventStore,
	registrations RegistrationStore,
	assets asset.Store,
	placeholderURL string,
	logger *slog.Logger,
) *EventService {
	return &EventService{
		events:        events,
		registrations: registrations,
		assets:        assets,
		placeholder:   placeholderURL,
		logger:        logger,
		now:           time.Now,
	}
}

// ListEvents returns all events ordered by date, ties by creation time.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.events.List(ctx)
}

// Query selects a page of the event listing.
type Query struct {
	Term    string
	Sort    search.SortKey
	From    model.Date
	To      model.Date
	Page    int
	PerPage int
}

// Page is one page of the event listing.
type Page struct {
	Events   []model.Event   `json:"events"`
	PageInfo search.PageInfo `json:"page_info"`
}

// Browse loads the listing once and applies filter, date range, sort and
// pagination in memory. Returned events carry participant counts.
func (s *EventService) Browse(ctx context.Context, q Query) (Page, error) {
	var (
		all    []model.Event
		counts map[string]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		all, err = s.events.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		counts, err = s.registrations.CountsByEvent(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Page{}, err
	}

	events := search.Filter(all, q.Term)
	events = search.FilterByDateRange(events, q.From, q.To)
	if q.Sort != "" {
		events = search.Sort(events, q.Sort)
	}
	items, info := search.Paginate(events, q.Page, q.PerPage)

	out := make([]model.Event, len(items))
	for i, e := range items {
		n := counts[e.ID]
		e.Participants = &n
		e.DescriptionHTML = markdown.Render(e.Description)
		out[i] = e
	}
	return Page{Events: out, PageInfo: info}, nil
}

// GetEvent returns a single event with its participant count.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := s.registrations.CountByEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Participants = &n
	e.DescriptionHTML = markdown.Render(e.Description)
	return e, nil
}

// CreateEvent validates the request, uploads the optional image and inserts
// the event. Nothing is uploaded or written when validation fails.
func (s *EventService) CreateEvent(ctx context.Context, sess *session.Session, req model.CreateEventRequest, image *asset.Upload) (*model.Event, error) {
	if sess == nil {
		return nil, model.ErrNotAuthenticated
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	date, _ := model.ParseDate(req.Date)

	imageURL, objectPath := s.placeholder, ""
	if image != nil {
		var err error
		objectPath, imageURL, err = s.upload(ctx, image)
		if err != nil {
			return nil, err
		}
	}

	created, err := s.events.Create(ctx, model.Event{
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		Time:        req.Time,
		Location:    req.Location,
		ImageURL:    imageURL,
		CreatedBy:   sess.SubjectID,
	})
	if err != nil {
		s.discard(ctx, objectPath)
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.logger.InfoContext(ctx, "event_created", "event_id", created.ID, "created_by", sess.SubjectID)
	return created, nil
}

// UpdateEvent merges the supplied fields into the stored event. An uploaded
// image replaces the image URL; otherwise it is left unchanged.
func (s *EventService) UpdateEvent(ctx context.Context, id string, req model.UpdateEventRequest, image *asset.Upload) (*model.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	objectPath := ""
	if image != nil {
		objectPath, e.ImageURL, err = s.upload(ctx, image)
		if err != nil {
			return nil, err
		}
	}
	req.Apply(e)
	e.UpdatedAt = s.now().UTC()

	if err := s.events.Update(ctx, e); err != nil {
		s.discard(ctx, objectPath)
		return nil, fmt.Errorf("update event: %w", err)
	}

	s.logger.InfoContext(ctx, "event_updated", "event_id", e.ID)
	return e, nil
}

// DeleteEvent removes the event and all of its registrations, then checks
// that none survived.
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	removed, err := s.events.DeleteCascade(ctx, id)
	if err != nil {
		return err
	}

	remaining, err := s.registrations.CountByEvent(ctx, id)
	if err != nil {
		return fmt.Errorf("verify cascade: %w", err)
	}
	if remaining > 0 {
		s.logger.ErrorContext(ctx, "cascade_incomplete", "event_id", id, "remaining", remaining)
		return fmt.Errorf("event %s: %d registrations remain: %w", id, remaining, model.ErrCascadeIncomplete)
	}

	s.logger.InfoContext(ctx, "event_deleted", "event_id", id, "registrations_removed", removed)
	return nil
}

// Participants lists who registered for an event.
func (s *EventService) Participants(ctx context.Context, eventID string) ([]model.Participant, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.registrations.ListParticipants(ctx, eventID)
}

// Dashboard computes the organizer console counters.
func (s *EventService) Dashboard(ctx context.Context) (model.Dashboard, error) {
	var (
		events []model.Event
		counts map[string]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		events, err = s.events.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		counts, err = s.registrations.CountsByEvent(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Dashboard{}, err
	}

	now := s.now()
	d := model.Dashboard{TotalEvents: len(events)}
	for i := range events {
		if events[i].IsUpcoming(now) {
			d.UpcomingEvents++
		}
		d.TotalRegistrations += counts[events[i].ID]
	}
	return d, nil
}

func (s *EventService) upload(ctx context.Context, image *asset.Upload) (objectPath, url string, err error) {
	objectPath = asset.ObjectPath(s.now(), image.Filename)
	url, err = s.assets.Put(ctx, objectPath, image.Body, image.ContentType)
	if err != nil {
		s.logger.ErrorContext(ctx, "asset_upload_failed", "path", objectPath, "error", err)
		return "", "", fmt.Errorf("upload image: %w", model.ErrRemoteUnavailable)
	}
	return objectPath, url, nil
}

// discard removes an image whose event write failed. A failed removal leaves
// an orphan, logged for manual cleanup.
func (s *EventService) discard(ctx context.Context, objectPath string) {
	if objectPath == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discardTimeout)
	defer cancel()
	if err := s.assets.Delete(ctx, objectPath); err != nil {
		s.logger.WarnContext(ctx, "asset_orphaned", "path", objectPath, "error", err)
		return
	}
	s.logger.InfoContext(ctx, "asset_discarded", "path", objectPath)
}
