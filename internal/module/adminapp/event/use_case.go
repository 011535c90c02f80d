package event

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	memberevent "github.com/uniclub/uc-points/internal/module/memberapp/event"
	"github.com/uniclub/uc-points/internal/module/memberapp/registration"
	"github.com/uniclub/uc-points/internal/module/memberapp/wallet"
	"github.com/uniclub/uc-points/internal/pkg/session"
	"github.com/uniclub/uc-points/pkg/clock"
	"github.com/uniclub/uc-points/pkg/errors"
	"github.com/uniclub/uc-points/pkg/gctasks"
	"github.com/uniclub/uc-points/pkg/pubsub"
	"github.com/uniclub/uc-points/pkg/status"
	"golang.org/x/sync/errgroup"
)

const settlementQueueID = "uc-points-settlement"

type EventAdminUseCase interface {
	SubmitEvent(ctx context.Context, req SubmitEventRequest) (EventResponse, error)
	Review(ctx context.Context, eventID string, req ReviewRequest) (EventResponse, error)
	Cancel(ctx context.Context, eventID string) (EventResponse, error)
	SettleAttendance(ctx context.Context, eventID string) (SettlementResponse, error)
}

type eventAdminUseCase struct {
	logger                 *logrus.Logger
	timeout                time.Duration
	clock                  clock.Clock
	statusEngine           memberevent.StatusEngine
	eventRepository        memberevent.EventRepository
	registrationRepository registration.RegistrationRepository
	ledger                 wallet.Ledger
	publisher              pubsub.Publisher
	tasks                  gctasks.Client
	baseURL                string
}

type EventAdminUseCaseProperty struct {
	Logger                 *logrus.Logger
	Timeout                time.Duration
	Clock                  clock.Clock
	StatusEngine           memberevent.StatusEngine
	EventRepository        memberevent.EventRepository
	RegistrationRepository registration.RegistrationRepository
	Ledger                 wallet.Ledger
	Publisher              pubsub.Publisher
	Tasks                  gctasks.Client
	BaseURL                string
}

func NewEventAdminUseCase(props EventAdminUseCaseProperty) EventAdminUseCase {
	return &eventAdminUseCase{
		logger:                 props.Logger,
		timeout:                props.Timeout,
		clock:                  props.Clock,
		statusEngine:           props.StatusEngine,
		eventRepository:        props.EventRepository,
		registrationRepository: props.RegistrationRepository,
		ledger:                 props.Ledger,
		publisher:              props.Publisher,
		tasks:                  props.Tasks,
		baseURL:                props.BaseURL,
	}
}

// SubmitEvent implements EventAdminUseCase. A submitted event always enters
// the approval pipeline at the co-club stage.
func (u *eventAdminUseCase) SubmitEvent(ctx context.Context, req SubmitEventRequest) (EventResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return EventResponse{}, err
	}

	if acc.Role != session.RoleClubLead {
		return EventResponse{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "only club leaders may submit events")
	}

	now := u.clock.Now()

	e := memberevent.Event{
		ID:              uuid.NewString(),
		HostClubID:      acc.ClubID,
		Name:            req.Name,
		Description:     req.Description,
		Status:          memberevent.StatusPendingCoClub,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		MaxCheckInCount: req.MaxCheckInCount,
		CommitPointCost: req.CommitPointCost,
		BudgetPoints:    req.BudgetPoints,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return EventResponse{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, fmt.Sprintf("invalid event date '%s'", req.Date))
		}
		e.Date = &date
	}

	for _, d := range req.Days {
		date, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			return EventResponse{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, fmt.Sprintf("invalid event date '%s'", d.Date))
		}

		e.Days = append(e.Days, memberevent.Day{
			EventID:   e.ID,
			Date:      date,
			StartTime: d.StartTime,
			EndTime:   d.EndTime,
		})
	}

	if e.Date == nil && !e.MultiDay() {
		return EventResponse{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, "an event requires a date or a list of days")
	}

	tx, err := u.eventRepository.BeginTx(ctx)
	if err != nil {
		return EventResponse{}, err
	}

	if err := u.eventRepository.Save(ctx, e, tx); err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return EventResponse{}, err
	}

	if err := u.eventRepository.CommitTx(ctx, tx); err != nil {
		return EventResponse{}, err
	}

	eventBuff, _ := json.Marshal(e)
	u.publisher.Publish(ctx, "event-submitted", e.ID, nil, eventBuff)

	resp := EventResponse{}
	resp.PopulateFromEntity(e)

	return resp, nil
}

// Review implements EventAdminUseCase. The co-club stage is decided by a
// club leader and the final stage by university staff; final approval funds
// the event's budget wallet from the host club and schedules the settlement
// trigger at the event's end.
func (u *eventAdminUseCase) Review(ctx context.Context, eventID string, req ReviewRequest) (EventResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return EventResponse{}, err
	}

	tx, err := u.eventRepository.BeginTx(ctx)
	if err != nil {
		return EventResponse{}, err
	}

	e, err := u.eventRepository.FindByIDForUpdate(ctx, eventID, tx)
	if err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return EventResponse{}, err
	}

	var next memberevent.Status

	switch e.Status {
	case memberevent.StatusPendingCoClub:
		if acc.Role != session.RoleClubLead {
			u.eventRepository.Rollback(ctx, tx)
			return EventResponse{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "the co-club review stage is decided by club leaders")
		}

		next = memberevent.StatusPendingUniStaff
		if !*req.Approve {
			next = memberevent.StatusRejected
		}
	case memberevent.StatusPendingUniStaff:
		if acc.Role != session.RoleUniStaff {
			u.eventRepository.Rollback(ctx, tx)
			return EventResponse{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "the final review stage is decided by university staff")
		}

		next = memberevent.StatusApproved
		if !*req.Approve {
			next = memberevent.StatusRejected
		}
	default:
		u.eventRepository.Rollback(ctx, tx)
		return EventResponse{}, errors.New(http.StatusConflict, status.INVALID_STATE_TRANSITION, fmt.Sprintf("event in state '%s' is not under review", e.Status))
	}

	if !e.Status.CanTransitionTo(next) {
		u.eventRepository.Rollback(ctx, tx)
		return EventResponse{}, errors.New(http.StatusConflict, status.INVALID_STATE_TRANSITION, fmt.Sprintf("event cannot move from '%s' to '%s'", e.Status, next))
	}

	if next == memberevent.StatusApproved && e.BudgetPoints > 0 {
		if err := u.fundBudget(ctx, e, tx); err != nil {
			u.eventRepository.Rollback(ctx, tx)
			return EventResponse{}, err
		}
	}

	if err := u.eventRepository.UpdateStatus(ctx, eventID, next, tx); err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return EventResponse{}, err
	}

	if err := u.eventRepository.CommitTx(ctx, tx); err != nil {
		return EventResponse{}, err
	}

	e.Status = next

	if next == memberevent.StatusApproved {
		u.scheduleSettlement(ctx, e)
	}

	eventBuff, _ := json.Marshal(e)
	u.publisher.Publish(ctx, "event-reviewed", e.ID, nil, eventBuff)

	resp := EventResponse{}
	resp.PopulateFromEntity(e)

	return resp, nil
}

// fundBudget moves the event's budget from the host club wallet into the
// event's own budget wallet, so settlement rewards can never overdraw the
// club.
func (u *eventAdminUseCase) fundBudget(ctx context.Context, e memberevent.Event, tx *sql.Tx) error {
	_, err := u.ledger.Append(ctx, wallet.AppendEntry{
		OwnerID:        wallet.ClubOwnerID(e.HostClubID),
		Type:           wallet.TypeTransfer,
		Amount:         -e.BudgetPoints,
		Description:    fmt.Sprintf("budget allocated to event '%s'", e.Name),
		IdempotencyKey: fmt.Sprintf("fund:%s", e.ID),
		RelatedEventID: e.ID,
	}, tx)
	if err != nil {
		return err
	}

	_, err = u.ledger.Append(ctx, wallet.AppendEntry{
		OwnerID:        wallet.EventBudgetOwnerID(e.ID),
		Type:           wallet.TypeTransfer,
		Amount:         e.BudgetPoints,
		Description:    fmt.Sprintf("budget received from club '%s'", e.HostClubID),
		IdempotencyKey: fmt.Sprintf("fund:%s:budget", e.ID),
		RelatedEventID: e.ID,
	}, tx)

	return err
}

// scheduleSettlement defers the settlement callback to the event's end.
// Failure to schedule is logged, not fatal: settlement can always be
// triggered manually and re-runs are idempotent.
func (u *eventAdminUseCase) scheduleSettlement(ctx context.Context, e memberevent.Event) {
	if u.tasks == nil {
		return
	}

	_, end, ok := u.statusEngine.Window(e)
	if !ok {
		return
	}

	err := u.tasks.DeferCreateTaskInTime(settlementQueueID, gctasks.Request{
		URL:    fmt.Sprintf("%s/uc-points/v1/adminapp/events/%s/settle", u.baseURL, e.ID),
		Method: cloudtaskspb.HttpMethod_POST,
	}, end)
	if err != nil {
		u.logger.WithContext(ctx).WithError(err).Errorf("unable to schedule settlement for event '%s'", e.ID)
	}
}

// Cancel implements EventAdminUseCase. Cancellation releases every
// registrant's committed points and returns the remaining budget to the host
// club, all in one transaction.
func (u *eventAdminUseCase) Cancel(ctx context.Context, eventID string) (EventResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	if _, err := session.GetAccountFromCtx(ctx); err != nil {
		return EventResponse{}, err
	}

	tx, err := u.eventRepository.BeginTx(ctx)
	if err != nil {
		return EventResponse{}, err
	}

	e, err := u.eventRepository.FindByIDForUpdate(ctx, eventID, tx)
	if err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return EventResponse{}, err
	}

	if !e.Status.CanTransitionTo(memberevent.StatusCancelled) {
		u.eventRepository.Rollback(ctx, tx)
		return EventResponse{}, errors.New(http.StatusConflict, status.INVALID_STATE_TRANSITION, fmt.Sprintf("event in state '%s' cannot be cancelled", e.Status))
	}

	now := u.clock.Now()

	regs, err := u.registrationRepository.FindManyByEventID(ctx, eventID, tx)
	if err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return EventResponse{}, err
	}

	for _, reg := range regs {
		if !reg.Status.CanTransitionTo(registration.StatusCanceled) {
			continue
		}

		if reg.CommittedPoints > 0 {
			_, err = u.ledger.Append(ctx, wallet.AppendEntry{
				OwnerID:        wallet.MemberOwnerID(reg.MemberID),
				Type:           wallet.TypeRefund,
				Amount:         reg.CommittedPoints,
				Description:    fmt.Sprintf("committed points released for cancelled event '%s'", e.Name),
				IdempotencyKey: fmt.Sprintf("release:%s:%s:r%d", eventID, reg.MemberID, reg.Revision),
				RelatedEventID: eventID,
			}, tx)
			if err != nil {
				u.eventRepository.Rollback(ctx, tx)
				return EventResponse{}, err
			}
		}

		reg.Status = registration.StatusCanceled
		reg.UpdatedAt = now

		if err := u.registrationRepository.Update(ctx, reg, tx); err != nil {
			u.eventRepository.Rollback(ctx, tx)
			return EventResponse{}, err
		}
	}

	if err := u.returnBudget(ctx, e, "cancelled", tx); err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return EventResponse{}, err
	}

	if err := u.eventRepository.UpdateStatus(ctx, eventID, memberevent.StatusCancelled, tx); err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return EventResponse{}, err
	}

	if err := u.eventRepository.CommitTx(ctx, tx); err != nil {
		return EventResponse{}, err
	}

	e.Status = memberevent.StatusCancelled

	eventBuff, _ := json.Marshal(e)
	u.publisher.Publish(ctx, "event-cancelled", e.ID, nil, eventBuff)

	resp := EventResponse{}
	resp.PopulateFromEntity(e)

	return resp, nil
}

// returnBudget drains whatever is left in the event's budget wallet back to
// the host club.
func (u *eventAdminUseCase) returnBudget(ctx context.Context, e memberevent.Event, reason string, tx *sql.Tx) error {
	remaining, err := u.ledger.BalanceOf(ctx, wallet.EventBudgetOwnerID(e.ID), tx)
	if err != nil {
		return err
	}
	if remaining <= 0 {
		return nil
	}

	_, err = u.ledger.Append(ctx, wallet.AppendEntry{
		OwnerID:        wallet.EventBudgetOwnerID(e.ID),
		Type:           wallet.TypeTransfer,
		Amount:         -remaining,
		Description:    fmt.Sprintf("unused budget returned for %s event '%s'", reason, e.Name),
		IdempotencyKey: fmt.Sprintf("return:%s:budget", e.ID),
		RelatedEventID: e.ID,
	}, tx)
	if err != nil {
		return err
	}

	_, err = u.ledger.Append(ctx, wallet.AppendEntry{
		OwnerID:        wallet.ClubOwnerID(e.HostClubID),
		Type:           wallet.TypeTransfer,
		Amount:         remaining,
		Description:    fmt.Sprintf("unused budget returned from %s event '%s'", reason, e.Name),
		IdempotencyKey: fmt.Sprintf("return:%s", e.ID),
		RelatedEventID: e.ID,
	}, tx)

	return err
}

// SettleAttendance implements EventAdminUseCase. The event is first promoted
// to completed once its window has passed; then every open registration is
// settled in its own transaction so one bad row never blocks the batch, and
// a re-run only touches rows the previous run missed.
func (u *eventAdminUseCase) SettleAttendance(ctx context.Context, eventID string) (SettlementResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	tx, err := u.eventRepository.BeginTx(ctx)
	if err != nil {
		return SettlementResponse{}, err
	}

	e, err := u.eventRepository.FindByIDForUpdate(ctx, eventID, tx)
	if err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return SettlementResponse{}, err
	}

	now := u.clock.Now()

	switch e.Status {
	case memberevent.StatusApproved, memberevent.StatusOngoing:
		if _, end, ok := u.statusEngine.Window(e); ok && now.Before(end) {
			u.eventRepository.Rollback(ctx, tx)
			return SettlementResponse{}, errors.New(http.StatusConflict, status.INVALID_STATE_TRANSITION, "the event has not ended yet")
		}

		if err := u.eventRepository.UpdateStatus(ctx, eventID, memberevent.StatusCompleted, tx); err != nil {
			u.eventRepository.Rollback(ctx, tx)
			return SettlementResponse{}, err
		}

		e.Status = memberevent.StatusCompleted
	case memberevent.StatusCompleted:
		// A re-run settles whatever a previous run left behind.
	default:
		u.eventRepository.Rollback(ctx, tx)
		return SettlementResponse{}, errors.New(http.StatusConflict, status.INVALID_STATE_TRANSITION, fmt.Sprintf("event in state '%s' cannot be settled", e.Status))
	}

	if err := u.eventRepository.CommitTx(ctx, tx); err != nil {
		return SettlementResponse{}, err
	}

	regs, err := u.registrationRepository.FindManyByEventID(ctx, eventID, nil)
	if err != nil {
		return SettlementResponse{}, err
	}

	var rewarded, noShow, failed int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for _, reg := range regs {
		reg := reg

		switch reg.Status {
		case registration.StatusCheckedIn, registration.StatusPending, registration.StatusConfirmed:
		default:
			continue
		}

		g.Go(func() error {
			if err := u.settleRegistration(gctx, e, reg, now); err != nil {
				u.logger.WithContext(gctx).WithError(err).Errorf("unable to settle registration of member '%s' for event '%s'", reg.MemberID, eventID)
				atomic.AddInt64(&failed, 1)
				return nil
			}

			if reg.Status == registration.StatusCheckedIn {
				atomic.AddInt64(&rewarded, 1)
			} else {
				atomic.AddInt64(&noShow, 1)
			}

			return nil
		})
	}

	g.Wait()

	var returnedBudget int64

	if failed == 0 {
		returnTx, err := u.eventRepository.BeginTx(ctx)
		if err != nil {
			return SettlementResponse{}, err
		}

		remaining, err := u.ledger.BalanceOf(ctx, wallet.EventBudgetOwnerID(e.ID), returnTx)
		if err != nil {
			u.eventRepository.Rollback(ctx, returnTx)
			return SettlementResponse{}, err
		}

		if err := u.returnBudget(ctx, e, "completed", returnTx); err != nil {
			u.eventRepository.Rollback(ctx, returnTx)
			return SettlementResponse{}, err
		}

		if err := u.eventRepository.CommitTx(ctx, returnTx); err != nil {
			return SettlementResponse{}, err
		}

		returnedBudget = remaining
	}

	resp := SettlementResponse{
		EventID:        eventID,
		Rewarded:       rewarded,
		NoShow:         noShow,
		Failed:         failed,
		ReturnedBudget: returnedBudget,
	}

	respBuff, _ := json.Marshal(resp)
	u.publisher.Publish(ctx, "event-settled", eventID, nil, respBuff)

	return resp, nil
}

// settleRegistration finalizes one registration in its own transaction. A
// checked-in member gets the committed points back plus the attendance
// reward from the budget wallet; an absent member forfeits the committed
// points to the host club.
func (u *eventAdminUseCase) settleRegistration(ctx context.Context, e memberevent.Event, reg registration.Registration, now time.Time) error {
	tx, err := u.registrationRepository.BeginTx(ctx)
	if err != nil {
		return err
	}

	current, found, err := u.registrationRepository.FindByEventAndMemberForUpdate(ctx, reg.EventID, reg.MemberID, tx)
	if err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return err
	}
	if !found || current.Status != reg.Status {
		u.registrationRepository.Rollback(ctx, tx)
		return nil
	}

	if current.Status == registration.StatusCheckedIn {
		if current.CommittedPoints > 0 {
			_, err = u.ledger.Append(ctx, wallet.AppendEntry{
				OwnerID:        wallet.MemberOwnerID(current.MemberID),
				Type:           wallet.TypeRefund,
				Amount:         current.CommittedPoints,
				Description:    fmt.Sprintf("committed points released for attending '%s'", e.Name),
				IdempotencyKey: fmt.Sprintf("release:%s:%s:r%d", current.EventID, current.MemberID, current.Revision),
				RelatedEventID: current.EventID,
			}, tx)
			if err != nil {
				u.registrationRepository.Rollback(ctx, tx)
				return err
			}
		}

		if reward := e.PerAttendanceReward(); reward > 0 {
			_, err = u.ledger.Append(ctx, wallet.AppendEntry{
				OwnerID:        wallet.EventBudgetOwnerID(current.EventID),
				Type:           wallet.TypeBonusReward,
				Amount:         -reward,
				Description:    fmt.Sprintf("attendance reward paid to member '%s'", current.MemberID),
				IdempotencyKey: fmt.Sprintf("reward:%s:%s:budget", current.EventID, current.MemberID),
				RelatedEventID: current.EventID,
			}, tx)
			if err != nil {
				u.registrationRepository.Rollback(ctx, tx)
				return err
			}

			_, err = u.ledger.Append(ctx, wallet.AppendEntry{
				OwnerID:        wallet.MemberOwnerID(current.MemberID),
				Type:           wallet.TypeBonusReward,
				Amount:         reward,
				Description:    fmt.Sprintf("attendance reward for '%s'", e.Name),
				IdempotencyKey: fmt.Sprintf("reward:%s:%s", current.EventID, current.MemberID),
				RelatedEventID: current.EventID,
			}, tx)
			if err != nil {
				u.registrationRepository.Rollback(ctx, tx)
				return err
			}
		}

		current.Status = registration.StatusRewarded
	} else {
		if current.CommittedPoints > 0 {
			_, err = u.ledger.Append(ctx, wallet.AppendEntry{
				OwnerID:        wallet.ClubOwnerID(e.HostClubID),
				Type:           wallet.TypeTransfer,
				Amount:         current.CommittedPoints,
				Description:    fmt.Sprintf("points forfeited by absent member '%s'", current.MemberID),
				IdempotencyKey: fmt.Sprintf("forfeit:%s:%s:r%d", current.EventID, current.MemberID, current.Revision),
				RelatedEventID: current.EventID,
			}, tx)
			if err != nil {
				u.registrationRepository.Rollback(ctx, tx)
				return err
			}
		}

		current.Status = registration.StatusNoShow
	}

	current.UpdatedAt = now

	if err := u.registrationRepository.Update(ctx, current, tx); err != nil {
		u.registrationRepository.Rollback(ctx, tx)
		return err
	}

	return u.registrationRepository.CommitTx(ctx, tx)
}
