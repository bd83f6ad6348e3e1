// Package service implements business logic, validation, and orchestration
// between the shells (HTTP handlers, CLI) and the repository layer.
package service

import (
	"context"
	"time"

	"github.com/Shivanand-hulikatti/club-events/internal/model"
)

// EventStore is the event persistence used by the services.
type EventStore interface {
	Create(ctx context.Context, e model.Event) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Update(ctx context.Context, e *model.Event) error
	DeleteCascade(ctx context.Context, id string) (int64, error)
}

// RegistrationStore is the registration persistence used by the services.
type RegistrationStore interface {
	Find(ctx context.Context, userID, eventID string) (*model.Registration, error)
	Create(ctx context.Context, userID, eventID string) (*model.Registration, error)
	Delete(ctx context.Context, id string) error
	CountByEvent(ctx context.Context, eventID string) (int, error)
	CountsByEvent(ctx context.Context) (map[string]int, error)
	ListByUser(ctx context.Context, userID string) ([]model.Registration, error)
	ListParticipants(ctx context.Context, eventID string) ([]model.Participant, error)
}

// clock is swapped in tests.
type clock func() time.Time
