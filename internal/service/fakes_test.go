package service

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/club-events/internal/model"
	"github.com/Shivanand-hulikatti/club-events/internal/notify"
	"github.com/Shivanand-hulikatti/club-events/internal/repository"
)

// memStore is an in-memory EventStore and RegistrationStore sharing one lock,
// so the cascade delete is atomic like the Postgres transaction.
type memStore struct {
	mu     sync.Mutex
	seq    int
	events []model.Event
	regs   []model.Registration
	users  map[string]model.Profile

	leaveRegistrations bool // DeleteCascade keeps the event's registrations
	hideFromFind       bool // Find misses existing rows, as in a check-then-write race
	failList           bool
	failWrite          bool // event Create and Update fail as the backend would

	calls map[string]int
}

func newMemStore() *memStore {
	return &memStore{users: map[string]model.Profile{}, calls: map[string]int{}}
}

func (m *memStore) nextID() string {
	m.seq++
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", m.seq)
}

func (m *memStore) called(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *memStore) Create(_ context.Context, e model.Event) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["events.Create"]++
	if m.failWrite {
		return nil, fmt.Errorf("insert event: %w", model.ErrRemoteUnavailable)
	}
	e.ID = m.nextID()
	e.CreatedAt = time.Now().UTC()
	m.events = append(m.events, e)
	return &e, nil
}

func (m *memStore) List(context.Context) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["events.List"]++
	if m.failList {
		return nil, fmt.Errorf("list events: %w", model.ErrRemoteUnavailable)
	}
	out := slices.Clone(m.events)
	slices.SortStableFunc(out, func(a, b model.Event) int { return a.Date.Compare(b.Date.Time) })
	return out, nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["events.GetByID"]++
	for _, e := range m.events {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, model.ErrNotFound
}

func (m *memStore) Update(_ context.Context, e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["events.Update"]++
	if m.failWrite {
		return fmt.Errorf("update event: %w", model.ErrRemoteUnavailable)
	}
	for i := range m.events {
		if m.events[i].ID == e.ID {
			m.events[i] = *e
			return nil
		}
	}
	return model.ErrNotFound
}

func (m *memStore) DeleteCascade(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["events.DeleteCascade"]++
	idx := slices.IndexFunc(m.events, func(e model.Event) bool { return e.ID == id })
	if idx < 0 {
		return 0, model.ErrNotFound
	}
	m.events = slices.Delete(m.events, idx, idx+1)
	if m.leaveRegistrations {
		return 0, nil
	}
	before := len(m.regs)
	m.regs = slices.DeleteFunc(m.regs, func(r model.Registration) bool { return r.EventID == id })
	return int64(before - len(m.regs)), nil
}

// registrations returns the RegistrationStore view of m.
func (m *memStore) registrations() *memRegistrations { return (*memRegistrations)(m) }

type memRegistrations memStore

func (r *memRegistrations) Find(_ context.Context, userID, eventID string) (*model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["regs.Find"]++
	if r.hideFromFind {
		return nil, model.ErrNotFound
	}
	for _, reg := range r.regs {
		if reg.UserID == userID && reg.EventID == eventID {
			return &reg, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *memRegistrations) Create(_ context.Context, userID, eventID string) (*model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["regs.Create"]++
	if !slices.ContainsFunc(r.events, func(e model.Event) bool { return e.ID == eventID }) {
		return nil, model.ErrNotFound
	}
	for _, reg := range r.regs {
		if reg.UserID == userID && reg.EventID == eventID {
			return nil, repository.ErrDuplicate
		}
	}
	reg := model.Registration{
		ID:           (*memStore)(r).nextID(),
		UserID:       userID,
		EventID:      eventID,
		RegisteredAt: time.Now().UTC(),
	}
	r.regs = append(r.regs, reg)
	return &reg, nil
}

func (r *memRegistrations) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["regs.Delete"]++
	before := len(r.regs)
	r.regs = slices.DeleteFunc(r.regs, func(reg model.Registration) bool { return reg.ID == id })
	if len(r.regs) == before {
		return model.ErrNotFound
	}
	return nil
}

func (r *memRegistrations) CountByEvent(_ context.Context, eventID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, reg := range r.regs {
		if reg.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (r *memRegistrations) CountsByEvent(context.Context) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]int{}
	for _, reg := range r.regs {
		out[reg.EventID]++
	}
	return out, nil
}

func (r *memRegistrations) ListByUser(_ context.Context, userID string) ([]model.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Registration
	for i := len(r.regs) - 1; i >= 0; i-- {
		if r.regs[i].UserID == userID {
			out = append(out, r.regs[i])
		}
	}
	return out, nil
}

func (r *memRegistrations) ListParticipants(_ context.Context, eventID string) ([]model.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Participant{}
	for _, reg := range r.regs {
		if reg.EventID != eventID {
			continue
		}
		u := r.users[reg.UserID]
		out = append(out, model.Participant{
			RegistrationID: reg.ID,
			UserID:         reg.UserID,
			Name:           u.Name,
			Email:          u.Email,
			RegisteredAt:   reg.RegisteredAt,
		})
	}
	return out, nil
}

type putCall struct {
	path        string
	body        string
	contentType string
}

type fakeAssets struct {
	mu      sync.Mutex
	puts    []putCall
	deleted []string
	err     error
}

func (f *fakeAssets) Put(_ context.Context, path string, body io.Reader, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	b, _ := io.ReadAll(body)
	f.puts = append(f.puts, putCall{path: path, body: string(b), contentType: contentType})
	return "https://cdn.example/" + path, nil
}

func (f *fakeAssets) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, path)
	return nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

var (
	_ EventStore        = (*memStore)(nil)
	_ RegistrationStore = (*memRegistrations)(nil)
	_ notify.Sender     = (*fakeSender)(nil)
)
