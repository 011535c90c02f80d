package event

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uniclub/uc-points/internal/pkg/session"
	"github.com/uniclub/uc-points/pkg/clock"
)

// RegistrationStatusProvider looks up the caller's registration state for an
// event. Implemented by the registration module's repository.
type RegistrationStatusProvider interface {
	FindStatusByEventAndMember(ctx context.Context, eventID, memberID string, tx *sql.Tx) (string, bool, error)
}

type EventStatusUseCase interface {
	GetStatus(ctx context.Context, eventID string) (GetStatusResponse, error)
}

type eventStatusUseCase struct {
	logger               *logrus.Logger
	timeout              time.Duration
	clock                clock.Clock
	statusEngine         StatusEngine
	eventRepository      EventRepository
	registrationProvider RegistrationStatusProvider
}

type EventStatusUseCaseProperty struct {
	Logger               *logrus.Logger
	Timeout              time.Duration
	Clock                clock.Clock
	StatusEngine         StatusEngine
	EventRepository      EventRepository
	RegistrationProvider RegistrationStatusProvider
}

func NewEventStatusUseCase(props EventStatusUseCaseProperty) EventStatusUseCase {
	return &eventStatusUseCase{
		logger:               props.Logger,
		timeout:              props.Timeout,
		clock:                props.Clock,
		statusEngine:         props.StatusEngine,
		eventRepository:      props.EventRepository,
		registrationProvider: props.RegistrationProvider,
	}
}

// GetStatus implements EventStatusUseCase.
func (u *eventStatusUseCase) GetStatus(ctx context.Context, eventID string) (GetStatusResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return GetStatusResponse{}, err
	}

	e, err := u.eventRepository.FindByID(ctx, eventID, nil)
	if err != nil {
		return GetStatusResponse{}, err
	}

	now := u.clock.Now()

	resp := GetStatusResponse{
		EventID:       e.ID,
		Status:        e.Status,
		DisplayStatus: u.statusEngine.DeriveDisplayStatus(e, now),
		CanRegister:   u.statusEngine.CanRegister(e, now),
	}

	if start, end, ok := u.statusEngine.Window(e); ok {
		resp.WindowStart = &start
		resp.WindowEnd = &end
	}

	registrationStatus, found, err := u.registrationProvider.FindStatusByEventAndMember(ctx, eventID, acc.ID, nil)
	if err != nil {
		return GetStatusResponse{}, err
	}

	if found {
		resp.RegistrationStatus = &registrationStatus
		canCheckIn := u.statusEngine.CanCheckIn(e, registrationStatus, now)
		resp.CanCheckIn = &canCheckIn
	}

	return resp, nil
}
