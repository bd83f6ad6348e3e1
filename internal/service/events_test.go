package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/club-events/internal/asset"
	"github.com/Shivanand-hulikatti/club-events/internal/logging"
	"github.com/Shivanand-hulikatti/club-events/internal/model"
	"github.com/Shivanand-hulikatti/club-events/internal/search"
	"github.com/Shivanand-hulikatti/club-events/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const placeholder = "/assets/images/placeholder.jpg"

var admin = &session.Session{SubjectID: "admin-1", Email: "chair@club.edu", Role: session.RoleAdmin}

func newEventService(store *memStore, assets *fakeAssets) *EventService {
	svc := NewEventService(store, store.registrations(), assets, placeholder, logging.Discard())
	svc.now = func() time.Time { return time.Date(2026, 1, 20, 9, 30, 0, 123e6, time.UTC) }
	return svc
}

func talk() model.CreateEventRequest {
	return model.CreateEventRequest{
		Title:       "Talk",
		Description: "Guest lecture",
		Date:        "2026-02-15",
		Time:        "18:00",
		Location:    "Hall A",
	}
}

func TestCreateEvent_WithoutImageUsesPlaceholder(t *testing.T) {
	store := newMemStore()
	svc := newEventService(store, &fakeAssets{})

	e, err := svc.CreateEvent(context.Background(), admin, talk(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, placeholder, e.ImageURL)
	assert.Equal(t, "admin-1", e.CreatedBy)
	assert.Equal(t, "2026-02-15", e.Date.String())
	assert.False(t, e.CreatedAt.IsZero())
}

func TestCreateEvent_UploadsImage(t *testing.T) {
	store := newMemStore()
	assets := &fakeAssets{}
	svc := newEventService(store, assets)

	img := &asset.Upload{Filename: "club poster!.png", ContentType: "image/png", Body: strings.NewReader("PNG")}
	e, err := svc.CreateEvent(context.Background(), admin, talk(), img)
	require.NoError(t, err)

	require.Len(t, assets.puts, 1)
	assert.Equal(t, "events/1768901400123_club_poster_.png", assets.puts[0].path)
	assert.Equal(t, "PNG", assets.puts[0].body)
	assert.Equal(t, "image/png", assets.puts[0].contentType)
	assert.Equal(t, "https://cdn.example/events/1768901400123_club_poster_.png", e.ImageURL)
}

func TestCreateEvent_ValidationMakesNoRemoteCalls(t *testing.T) {
	store := newMemStore()
	assets := &fakeAssets{}
	svc := newEventService(store, assets)

	req := talk()
	req.Title = "   "
	req.Date = "15/02/2026"
	img := &asset.Upload{Filename: "a.png", Body: strings.NewReader("x")}

	_, err := svc.CreateEvent(context.Background(), admin, req, img)
	require.ErrorIs(t, err, model.ErrValidation)

	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"title", "date"}, verr.FieldNames())
	assert.Empty(t, assets.puts)
	assert.Zero(t, store.called("events.Create"))
}

func TestCreateEvent_RequiresSession(t *testing.T) {
	svc := newEventService(newMemStore(), &fakeAssets{})
	_, err := svc.CreateEvent(context.Background(), nil, talk(), nil)
	assert.ErrorIs(t, err, model.ErrNotAuthenticated)
}

func TestCreateEvent_UploadFailure(t *testing.T) {
	store := newMemStore()
	svc := newEventService(store, &fakeAssets{err: errors.New("bucket gone")})

	img := &asset.Upload{Filename: "a.png", Body: strings.NewReader("x")}
	_, err := svc.CreateEvent(context.Background(), admin, talk(), img)
	assert.ErrorIs(t, err, model.ErrRemoteUnavailable)
	assert.NotContains(t, err.Error(), "bucket gone")
	assert.Zero(t, store.called("events.Create"))
}

func TestCreateEvent_WriteFailureDiscardsUpload(t *testing.T) {
	store := newMemStore()
	store.failWrite = true
	assets := &fakeAssets{}
	svc := newEventService(store, assets)

	img := &asset.Upload{Filename: "poster.png", Body: strings.NewReader("PNG")}
	_, err := svc.CreateEvent(context.Background(), admin, talk(), img)
	require.ErrorIs(t, err, model.ErrRemoteUnavailable)

	require.Len(t, assets.puts, 1)
	assert.Equal(t, []string{assets.puts[0].path}, assets.deleted)
}

func TestCreateEvent_WriteFailureWithoutImageDeletesNothing(t *testing.T) {
	store := newMemStore()
	store.failWrite = true
	assets := &fakeAssets{}
	svc := newEventService(store, assets)

	_, err := svc.CreateEvent(context.Background(), admin, talk(), nil)
	require.ErrorIs(t, err, model.ErrRemoteUnavailable)
	assert.Empty(t, assets.deleted)
}

func TestUpdateEvent_WriteFailureDiscardsUpload(t *testing.T) {
	store := newMemStore()
	assets := &fakeAssets{}
	svc := newEventService(store, assets)
	ctx := context.Background()

	created, err := svc.CreateEvent(ctx, admin, talk(), nil)
	require.NoError(t, err)

	store.failWrite = true
	img := &asset.Upload{Filename: "new.jpg", Body: strings.NewReader("JPG")}
	_, err = svc.UpdateEvent(ctx, created.ID, model.UpdateEventRequest{}, img)
	require.ErrorIs(t, err, model.ErrRemoteUnavailable)
	assert.Equal(t, []string{"events/1768901400123_new.jpg"}, assets.deleted)

	stored, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, placeholder, stored.ImageURL)
}

func TestUpdateEvent_MergesSuppliedFields(t *testing.T) {
	store := newMemStore()
	svc := newEventService(store, &fakeAssets{})
	ctx := context.Background()

	created, err := svc.CreateEvent(ctx, admin, talk(), nil)
	require.NoError(t, err)

	title := "  Evening Talk "
	updated, err := svc.UpdateEvent(ctx, created.ID, model.UpdateEventRequest{Title: &title}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Evening Talk", updated.Title)
	assert.Equal(t, "Guest lecture", updated.Description)
	assert.Equal(t, "Hall A", updated.Location)
	assert.Equal(t, placeholder, updated.ImageURL)
	assert.Equal(t, svc.now().UTC(), updated.UpdatedAt)

	stored, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Evening Talk", stored.Title)
}

func TestUpdateEvent_ImageReplacesURL(t *testing.T) {
	store := newMemStore()
	svc := newEventService(store, &fakeAssets{})
	ctx := context.Background()

	created, err := svc.CreateEvent(ctx, admin, talk(), nil)
	require.NoError(t, err)

	img := &asset.Upload{Filename: "new.jpg", Body: strings.NewReader("JPG")}
	updated, err := svc.UpdateEvent(ctx, created.ID, model.UpdateEventRequest{}, img)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/events/1768901400123_new.jpg", updated.ImageURL)
}

func TestUpdateEvent_Errors(t *testing.T) {
	store := newMemStore()
	svc := newEventService(store, &fakeAssets{})
	ctx := context.Background()

	blank := ""
	_, err := svc.UpdateEvent(ctx, "whatever", model.UpdateEventRequest{Location: &blank}, nil)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Zero(t, store.called("events.GetByID"))

	title := "New"
	_, err = svc.UpdateEvent(ctx, "missing", model.UpdateEventRequest{Title: &title}, nil)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeleteEvent_CascadesRegistrations(t *testing.T) {
	store := newMemStore()
	events := newEventService(store, &fakeAssets{})
	regs := NewRegistrationService(store.registrations(), store, &fakeSender{}, logging.Discard())
	ctx := context.Background()

	e1, err := events.CreateEvent(ctx, admin, talk(), nil)
	require.NoError(t, err)
	for i := range 3 {
		_, err := regs.Register(ctx, member(fmt.Sprintf("u%d", i)), e1.ID)
		require.NoError(t, err)
	}

	require.NoError(t, events.DeleteEvent(ctx, e1.ID))

	list, err := events.ListEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	n, err := regs.Count(ctx, e1.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.ErrorIs(t, events.DeleteEvent(ctx, e1.ID), model.ErrNotFound)
}

func TestDeleteEvent_ReportsSurvivingRegistrations(t *testing.T) {
	store := newMemStore()
	events := newEventService(store, &fakeAssets{})
	regs := NewRegistrationService(store.registrations(), store, &fakeSender{}, logging.Discard())
	ctx := context.Background()

	e1, err := events.CreateEvent(ctx, admin, talk(), nil)
	require.NoError(t, err)
	_, err = regs.Register(ctx, member("u1"), e1.ID)
	require.NoError(t, err)

	store.leaveRegistrations = true
	err = events.DeleteEvent(ctx, e1.ID)
	assert.ErrorIs(t, err, model.ErrCascadeIncomplete)
	assert.Contains(t, err.Error(), "1 registrations remain")
}

func TestBrowse(t *testing.T) {
	store := newMemStore()
	events := newEventService(store, &fakeAssets{})
	regs := NewRegistrationService(store.registrations(), store, &fakeSender{}, logging.Discard())
	ctx := context.Background()

	for _, r := range []model.CreateEventRequest{
		{Title: "Hackathon", Description: "24 hours of **building**", Date: "2026-02-01", Location: "Main Hall"},
		{Title: "Talk", Description: "Careers", Date: "2026-02-15", Location: "Hall A"},
		{Title: "Board Games", Description: "Casual night", Date: "2026-04-20", Location: "Lounge"},
	} {
		_, err := events.CreateEvent(ctx, admin, r, nil)
		require.NoError(t, err)
	}
	all, err := events.ListEvents(ctx)
	require.NoError(t, err)
	_, err = regs.Register(ctx, member("u1"), all[0].ID)
	require.NoError(t, err)

	page, err := events.Browse(ctx, Query{Term: "hall", Sort: search.TitleDesc, Page: 1, PerPage: 1})
	require.NoError(t, err)
	require.Len(t, page.Events, 1)
	assert.Equal(t, "Talk", page.Events[0].Title)
	assert.Equal(t, search.PageInfo{Page: 1, PerPage: 1, Total: 2, TotalPages: 2}, page.PageInfo)
	require.NotNil(t, page.Events[0].Participants)
	assert.Zero(t, *page.Events[0].Participants)

	page, err = events.Browse(ctx, Query{Term: "hack"})
	require.NoError(t, err)
	require.Len(t, page.Events, 1)
	assert.Equal(t, 1, *page.Events[0].Participants)
	assert.Contains(t, page.Events[0].DescriptionHTML, "<strong>building</strong>")

	from, _ := model.ParseDate("2026-02-10")
	page, err = events.Browse(ctx, Query{From: from})
	require.NoError(t, err)
	assert.Equal(t, 2, page.PageInfo.Total)

	store.failList = true
	_, err = events.Browse(ctx, Query{})
	assert.ErrorIs(t, err, model.ErrRemoteUnavailable)
}

func TestGetEvent(t *testing.T) {
	store := newMemStore()
	svc := newEventService(store, &fakeAssets{})
	ctx := context.Background()

	created, err := svc.CreateEvent(ctx, admin, talk(), nil)
	require.NoError(t, err)

	got, err := svc.GetEvent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Talk", got.Title)
	require.NotNil(t, got.Participants)
	assert.Zero(t, *got.Participants)

	_, err = svc.GetEvent(ctx, "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDashboardAndParticipants(t *testing.T) {
	store := newMemStore()
	events := newEventService(store, &fakeAssets{})
	regs := NewRegistrationService(store.registrations(), store, &fakeSender{}, logging.Discard())
	ctx := context.Background()

	past := talk()
	past.Date = "2026-01-10"
	today := talk()
	today.Date = "2026-01-20"
	future := talk()
	future.Date = "2026-03-01"

	var ids []string
	for _, r := range []model.CreateEventRequest{past, today, future} {
		e, err := events.CreateEvent(ctx, admin, r, nil)
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}
	store.users["u1"] = model.Profile{ID: "u1", Name: "Ana", Email: "ana@club.edu"}
	_, err := regs.Register(ctx, member("u1"), ids[0])
	require.NoError(t, err)
	_, err = regs.Register(ctx, member("u1"), ids[2])
	require.NoError(t, err)
	_, err = regs.Register(ctx, member("u2"), ids[2])
	require.NoError(t, err)

	d, err := events.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Dashboard{TotalEvents: 3, UpcomingEvents: 1, TotalRegistrations: 3}, d)

	ps, err := events.Participants(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "Ana", ps[0].Name)
	assert.Equal(t, "ana@club.edu", ps[0].Email)

	_, err = events.Participants(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
