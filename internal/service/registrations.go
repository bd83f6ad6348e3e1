package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shivanand-hulikatti/club-events/internal/model"
	"github.com/Shivanand-hulikatti/club-events/internal/notify"
	"github.com/Shivanand-hulikatti/club-events/internal/repository"
	"github.com/Shivanand-hulikatti/club-events/internal/session"
	"golang.org/x/sync/singleflight"
)

// RegisterStatus is the outcome of a successful Register call.
type RegisterStatus string

const (
	StatusRegistered        RegisterStatus = "registered"
	StatusAlreadyRegistered RegisterStatus = "already-registered"
)

// RegisterResult is returned by Register.
type RegisterResult struct {
	Status       RegisterStatus      `json:"status"`
	Registration *model.Registration `json:"registration,omitempty"`
}

// UserRegistration is one entry of a member's own registrations.
type UserRegistration struct {
	Registration model.Registration `json:"registration"`
	Event        model.Event        `json:"event"`
}

const notifyTimeout = 10 * time.Second

// RegistrationService runs the register/cancel workflow. A member holds at
// most one registration per event.
type RegistrationService struct {
	registrations RegistrationStore
	events        EventStore
	sender        notify.Sender
	logger        *slog.Logger

	inflight singleflight.Group
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(
	registrations RegistrationStore,
	events EventStore,
	sender notify.Sender,
	logger *slog.Logger,
) *RegistrationService {
	return &RegistrationService{
		registrations: registrations,
		events:        events,
		sender:        sender,
		logger:        logger,
	}
}

// Register records sess's registration for eventID. Concurrent calls for the
// same member and event share one attempt; the callers that joined it see
// StatusAlreadyRegistered.
func (s *RegistrationService) Register(ctx context.Context, sess *session.Session, eventID string) (RegisterResult, error) {
	if sess == nil {
		return RegisterResult{}, model.ErrNotAuthenticated
	}

	executed := false
	v, err, _ := s.inflight.Do(sess.SubjectID+"|"+eventID, func() (any, error) {
		executed = true
		return s.register(ctx, sess, eventID)
	})
	if err != nil {
		return RegisterResult{}, err
	}

	res := v.(RegisterResult)
	if !executed && res.Status == StatusRegistered {
		res.Status = StatusAlreadyRegistered
	}
	return res, nil
}

func (s *RegistrationService) register(ctx context.Context, sess *session.Session, eventID string) (RegisterResult, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return RegisterResult{}, err
	}

	existing, err := s.registrations.Find(ctx, sess.SubjectID, eventID)
	switch {
	case err == nil:
		return RegisterResult{Status: StatusAlreadyRegistered, Registration: existing}, nil
	case !errors.Is(err, model.ErrNotFound):
		return RegisterResult{}, err
	}

	reg, err := s.registrations.Create(ctx, sess.SubjectID, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return RegisterResult{Status: StatusAlreadyRegistered}, nil
		}
		return RegisterResult{}, fmt.Errorf("register: %w", err)
	}

	s.logger.InfoContext(ctx, "registration_created",
		"registration_id", reg.ID, "event_id", eventID, "user_id", sess.SubjectID)
	s.confirm(ctx, sess, *event)

	return RegisterResult{Status: StatusRegistered, Registration: reg}, nil
}

// confirm emails the member. Delivery failures are logged only.
func (s *RegistrationService) confirm(ctx context.Context, sess *session.Session, event model.Event) {
	if sess.Email == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	msg := notify.RegistrationConfirmation(sess.Email, sess.DisplayName, event)
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "registration_email_failed", "event_id", event.ID, "user_id", sess.SubjectID, "error", err)
	}
}

// Cancel removes sess's registration for eventID. A missing registration is
// model.ErrNotFound and nothing is written.
func (s *RegistrationService) Cancel(ctx context.Context, sess *session.Session, eventID string) error {
	if sess == nil {
		return model.ErrNotAuthenticated
	}

	reg, err := s.registrations.Find(ctx, sess.SubjectID, eventID)
	if err != nil {
		return err
	}
	if err := s.registrations.Delete(ctx, reg.ID); err != nil {
		return fmt.Errorf("cancel registration: %w", err)
	}

	s.logger.InfoContext(ctx, "registration_cancelled",
		"registration_id", reg.ID, "event_id", eventID, "user_id", sess.SubjectID)
	return nil
}

// Count returns the number of registrations for an event.
func (s *RegistrationService) Count(ctx context.Context, eventID string) (int, error) {
	return s.registrations.CountByEvent(ctx, eventID)
}

// ListForUser returns the member's registrations joined with their events,
// newest registration first. Registrations whose event is gone are skipped.
func (s *RegistrationService) ListForUser(ctx context.Context, sess *session.Session) ([]UserRegistration, error) {
	if sess == nil {
		return nil, model.ErrNotAuthenticated
	}

	regs, err := s.registrations.ListByUser(ctx, sess.SubjectID)
	if err != nil {
		return nil, err
	}
	if len(regs) == 0 {
		return []UserRegistration{}, nil
	}

	events, err := s.events.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}

	out := make([]UserRegistration, 0, len(regs))
	for _, r := range regs {
		e, ok := byID[r.EventID]
		if !ok {
			continue
		}
		out = append(out, UserRegistration{Registration: r, Event: e})
	}
	return out, nil
}
