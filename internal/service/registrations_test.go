package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Shivanand-hulikatti/club-events/internal/logging"
	"github.com/Shivanand-hulikatti/club-events/internal/model"
	"github.com/Shivanand-hulikatti/club-events/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func member(id string) *session.Session {
	return &session.Session{SubjectID: id, Email: id + "@club.edu", DisplayName: id, Role: session.RoleUser}
}

type registrationFixture struct {
	store  *memStore
	events *EventService
	regs   *RegistrationService
	sender *fakeSender
	event  *model.Event
}

func newRegistrationFixture(t *testing.T) registrationFixture {
	t.Helper()
	store := newMemStore()
	sender := &fakeSender{}
	f := registrationFixture{
		store:  store,
		events: newEventService(store, &fakeAssets{}),
		regs:   NewRegistrationService(store.registrations(), store, sender, logging.Discard()),
		sender: sender,
	}
	e, err := f.events.CreateEvent(context.Background(), admin, talk(), nil)
	require.NoError(t, err)
	f.event = e
	return f
}

func TestRegister_TwiceKeepsOneRegistration(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()

	first, err := f.regs.Register(ctx, member("u1"), f.event.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRegistered, first.Status)
	require.NotNil(t, first.Registration)
	assert.False(t, first.Registration.RegisteredAt.IsZero())

	second, err := f.regs.Register(ctx, member("u1"), f.event.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyRegistered, second.Status)
	assert.Equal(t, first.Registration.ID, second.Registration.ID)

	n, err := f.regs.Count(ctx, f.event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, f.store.called("regs.Create"))
	assert.Equal(t, 1, f.sender.count())
}

func TestRegister_ConcurrentCallsCreateOneRegistration(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()

	const callers = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses = map[RegisterStatus]int{}
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.regs.Register(ctx, member("u1"), f.event.ID)
			assert.NoError(t, err)
			mu.Lock()
			statuses[res.Status]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, statuses[StatusRegistered])
	assert.Equal(t, callers-1, statuses[StatusAlreadyRegistered])
	n, err := f.regs.Count(ctx, f.event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRegister_UniqueViolationIsAlreadyRegistered(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()

	_, err := f.regs.Register(ctx, member("u1"), f.event.ID)
	require.NoError(t, err)

	f.store.hideFromFind = true
	res, err := f.regs.Register(ctx, member("u1"), f.event.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyRegistered, res.Status)

	n, _ := f.regs.Count(ctx, f.event.ID)
	assert.Equal(t, 1, n)
}

func TestRegister_Errors(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()

	_, err := f.regs.Register(ctx, nil, f.event.ID)
	assert.ErrorIs(t, err, model.ErrNotAuthenticated)

	_, err = f.regs.Register(ctx, member("u1"), "no-such-event")
	assert.ErrorIs(t, err, model.ErrNotFound)

	assert.Zero(t, f.store.called("regs.Create"))
}

func TestRegister_EmailFailureDoesNotFail(t *testing.T) {
	f := newRegistrationFixture(t)
	f.sender.err = errors.New("smtp down")

	res, err := f.regs.Register(context.Background(), member("u1"), f.event.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRegistered, res.Status)
}

func TestRegister_SendsConfirmation(t *testing.T) {
	f := newRegistrationFixture(t)

	_, err := f.regs.Register(context.Background(), member("u1"), f.event.ID)
	require.NoError(t, err)

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, []string{"u1@club.edu"}, f.sender.sent[0].To)
	assert.Contains(t, f.sender.sent[0].Subject, "Talk")
}

func TestCancel_WithoutRegistrationIsNotFound(t *testing.T) {
	f := newRegistrationFixture(t)

	err := f.regs.Cancel(context.Background(), member("u1"), f.event.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Zero(t, f.store.called("regs.Delete"))
	assert.Zero(t, f.store.called("regs.Create"))

	assert.ErrorIs(t, f.regs.Cancel(context.Background(), nil, f.event.ID), model.ErrNotAuthenticated)
}

func TestScenario_RegisterThenCancel(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()
	u1 := member("u1")

	assert.Equal(t, "Talk", f.event.Title)
	assert.Equal(t, "2026-02-15", f.event.Date.String())
	assert.Equal(t, "Hall A", f.event.Location)

	_, err := f.regs.Register(ctx, u1, f.event.ID)
	require.NoError(t, err)
	n, err := f.regs.Count(ctx, f.event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, f.regs.Cancel(ctx, u1, f.event.ID))
	n, err = f.regs.Count(ctx, f.event.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListForUser(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()

	other, err := f.events.CreateEvent(ctx, admin, model.CreateEventRequest{
		Title: "Board Games", Description: "Casual", Date: "2026-04-20", Location: "Lounge",
	}, nil)
	require.NoError(t, err)

	list, err := f.regs.ListForUser(ctx, member("u1"))
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.regs.Register(ctx, member("u1"), f.event.ID)
	require.NoError(t, err)
	_, err = f.regs.Register(ctx, member("u1"), other.ID)
	require.NoError(t, err)
	_, err = f.regs.Register(ctx, member("u2"), other.ID)
	require.NoError(t, err)

	list, err = f.regs.ListForUser(ctx, member("u1"))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Board Games", list[0].Event.Title)
	assert.Equal(t, "Talk", list[1].Event.Title)

	f.store.leaveRegistrations = true
	assert.ErrorIs(t, f.events.DeleteEvent(ctx, other.ID), model.ErrCascadeIncomplete)

	list, err = f.regs.ListForUser(ctx, member("u1"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Talk", list[0].Event.Title)

	_, err = f.regs.ListForUser(ctx, nil)
	assert.ErrorIs(t, err, model.ErrNotAuthenticated)
}
