package registration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uniclub/uc-points/internal/module/memberapp/event"
	"github.com/uniclub/uc-points/internal/module/memberapp/wallet"
	"github.com/uniclub/uc-points/internal/pkg/session"
	"github.com/uniclub/uc-points/pkg/clock"
	"github.com/uniclub/uc-points/pkg/errors"
	"github.com/uniclub/uc-points/pkg/pubsub"
	"github.com/uniclub/uc-points/pkg/status"
)

type RegistrationUseCase interface {
	Register(ctx context.Context, req RegisterRequest) (RegistrationResponse, error)
	Cancel(ctx context.Context, eventID string) (RegistrationResponse, error)
	CheckIn(ctx context.Context, eventID string) (RegistrationResponse, error)
	GetManyRegistration(ctx context.Context) (GetManyRegistrationResponse, error)
}

type registrationUseCase struct {
	logger                 *logrus.Logger
	timeout                time.Duration
	clock                  clock.Clock
	statusEngine           event.StatusEngine
	eventRepository        event.EventRepository
	registrationRepository RegistrationRepository
	ledger                 wallet.Ledger
	publisher              pubsub.Publisher
}

type RegistrationUseCaseProperty struct {
	Logger                 *logrus.Logger
	Timeout                time.Duration
	Clock                  clock.Clock
	StatusEngine           event.StatusEngine
	EventRepository        event.EventRepository
	RegistrationRepository RegistrationRepository
	Ledger                 wallet.Ledger
	Publisher              pubsub.Publisher
}

func NewRegistrationUseCase(props RegistrationUseCaseProperty) RegistrationUseCase {
	return &registrationUseCase{
		logger:                 props.Logger,
		timeout:                props.Timeout,
		clock:                  props.Clock,
		statusEngine:           props.StatusEngine,
		eventRepository:        props.EventRepository,
		registrationRepository: props.RegistrationRepository,
		ledger:                 props.Ledger,
		publisher:              props.Publisher,
	}
}

func commitKey(eventID, memberID string, revision int64) string {
	return fmt.Sprintf("commit:%s:%s:r%d", eventID, memberID, revision)
}

func releaseKey(eventID, memberID string, revision int64) string {
	return fmt.Sprintf("release:%s:%s:r%d", eventID, memberID, revision)
}

// Register implements RegistrationUseCase. The commit-lock debit and the
// registration row are written in one transaction; either both land or
// neither does.
func (u *registrationUseCase) Register(ctx context.Context, req RegisterRequest) (RegistrationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return RegistrationResponse{}, err
	}

	tx, err := u.registrationRepository.BeginTx(ctx)
	if err != nil {
		return RegistrationResponse{}, err
	}

	e, err := u.eventRepository.FindByIDForUpdate(ctx, req.EventID, tx)
	if err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, err
	}

	now := u.clock.Now()

	if !u.statusEngine.CanRegister(e, now) {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, errors.New(http.StatusConflict, status.REGISTRATION_CLOSED, "the event is not open for registration")
	}

	existing, found, err := u.registrationRepository.FindByEventAndMemberForUpdate(ctx, req.EventID, acc.ID, tx)
	if err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, err
	}

	if found && existing.Status != StatusCanceled {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, errors.New(http.StatusConflict, status.ALREADY_REGISTERED, fmt.Sprintf("member is already registered for event '%s'", req.EventID))
	}

	reg := Registration{
		EventID:         req.EventID,
		MemberID:        acc.ID,
		Status:          StatusConfirmed,
		CommittedPoints: e.CommitPointCost,
		Revision:        1,
		RegisteredAt:    now,
		UpdatedAt:       now,
	}
	if found {
		reg.Revision = existing.Revision + 1
	}

	if e.CommitPointCost > 0 {
		_, err = u.ledger.Append(ctx, wallet.AppendEntry{
			OwnerID:        wallet.MemberOwnerID(acc.ID),
			Type:           wallet.TypeCommitLock,
			Amount:         -e.CommitPointCost,
			Description:    fmt.Sprintf("points locked for registration to '%s'", e.Name),
			IdempotencyKey: commitKey(req.EventID, acc.ID, reg.Revision),
			RelatedEventID: req.EventID,
		}, tx)
		if err != nil {
			u.registrationRepository.Rollback(ctx, tx)
			return RegistrationResponse{}, err
		}
	}

	if found {
		err = u.registrationRepository.Update(ctx, reg, tx)
	} else {
		err = u.registrationRepository.Save(ctx, reg, tx)
	}
	if err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, err
	}

	if err := u.registrationRepository.CommitTx(ctx, tx); err != nil {
		return RegistrationResponse{}, err
	}

	regBuff, _ := json.Marshal(reg)
	u.publisher.Publish(ctx, "registration-confirmed", reg.EventID, nil, regBuff)

	resp := RegistrationResponse{}
	resp.PopulateFromEntity(reg)

	return resp, nil
}

// Cancel implements RegistrationUseCase. Cancellation is only possible
// before the event starts; the committed points are released by an
// offsetting credit.
func (u *registrationUseCase) Cancel(ctx context.Context, eventID string) (RegistrationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return RegistrationResponse{}, err
	}

	tx, err := u.registrationRepository.BeginTx(ctx)
	if err != nil {
		return RegistrationResponse{}, err
	}

	e, err := u.eventRepository.FindByID(ctx, eventID, tx)
	if err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, err
	}

	reg, found, err := u.registrationRepository.FindByEventAndMemberForUpdate(ctx, eventID, acc.ID, tx)
	if err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, err
	}
	if !found {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("registration for event '%s' is not found", eventID))
	}

	if !reg.Status.CanTransitionTo(StatusCanceled) {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, errors.New(http.StatusConflict, status.INVALID_STATE_TRANSITION, fmt.Sprintf("registration in state '%s' cannot be canceled", reg.Status))
	}

	now := u.clock.Now()

	if start, _, ok := u.statusEngine.Window(e); !ok || !now.Before(start) {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, errors.New(http.StatusConflict, status.INVALID_STATE_TRANSITION, "the event has already started")
	}

	if reg.CommittedPoints > 0 {
		_, err = u.ledger.Append(ctx, wallet.AppendEntry{
			OwnerID:        wallet.MemberOwnerID(acc.ID),
			Type:           wallet.TypeRefund,
			Amount:         reg.CommittedPoints,
			Description:    fmt.Sprintf("committed points released for canceled registration to '%s'", e.Name),
			IdempotencyKey: releaseKey(eventID, acc.ID, reg.Revision),
			RelatedEventID: eventID,
		}, tx)
		if err != nil {
			u.registrationRepository.Rollback(ctx, tx)
			return RegistrationResponse{}, err
		}
	}

	reg.Status = StatusCanceled
	reg.UpdatedAt = now

	if err := u.registrationRepository.Update(ctx, reg, tx); err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, err
	}

	if err := u.registrationRepository.CommitTx(ctx, tx); err != nil {
		return RegistrationResponse{}, err
	}

	regBuff, _ := json.Marshal(reg)
	u.publisher.Publish(ctx, "registration-canceled", reg.EventID, nil, regBuff)

	resp := RegistrationResponse{}
	resp.PopulateFromEntity(reg)

	return resp, nil
}

// CheckIn implements RegistrationUseCase. No points move at check-in; the
// reward is settled once the event completes.
func (u *registrationUseCase) CheckIn(ctx context.Context, eventID string) (RegistrationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return RegistrationResponse{}, err
	}

	tx, err := u.registrationRepository.BeginTx(ctx)
	if err != nil {
		return RegistrationResponse{}, err
	}

	e, err := u.eventRepository.FindByIDForUpdate(ctx, eventID, tx)
	if err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, err
	}

	reg, found, err := u.registrationRepository.FindByEventAndMemberForUpdate(ctx, eventID, acc.ID, tx)
	if err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, err
	}
	if !found {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("registration for event '%s' is not found", eventID))
	}

	now := u.clock.Now()

	if !u.statusEngine.CanCheckIn(e, string(reg.Status), now) {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, errors.New(http.StatusConflict, status.INVALID_STATE_TRANSITION, "check-in is not open for this registration")
	}

	if e.CurrentCheckInCount >= e.MaxCheckInCount {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, errors.New(http.StatusConflict, status.INVALID_STATE_TRANSITION, "the event's check-in capacity has been reached")
	}

	reg.Status = StatusCheckedIn
	reg.UpdatedAt = now

	if err := u.registrationRepository.Update(ctx, reg, tx); err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, err
	}

	if err := u.eventRepository.UpdateCheckInCount(ctx, eventID, e.CurrentCheckInCount+1, tx); err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return RegistrationResponse{}, err
	}

	if err := u.registrationRepository.CommitTx(ctx, tx); err != nil {
		return RegistrationResponse{}, err
	}

	regBuff, _ := json.Marshal(reg)
	u.publisher.Publish(ctx, "registration-checked-in", reg.EventID, nil, regBuff)

	resp := RegistrationResponse{}
	resp.PopulateFromEntity(reg)

	return resp, nil
}

// GetManyRegistration implements RegistrationUseCase.
func (u *registrationUseCase) GetManyRegistration(ctx context.Context) (GetManyRegistrationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	regs, err := u.registrationRepository.FindManyByMemberID(ctx, acc.ID, nil)
	if err != nil {
		return nil, err
	}

	resp := make(GetManyRegistrationResponse, len(regs))
	for k, reg := range regs {
		resp[k].PopulateFromEntity(reg)
	}

	return resp, nil
}
