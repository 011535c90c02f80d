package redemption

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	memberredemption "github.com/uniclub/uc-points/internal/module/memberapp/redemption"
	"github.com/uniclub/uc-points/internal/module/memberapp/wallet"
	"github.com/uniclub/uc-points/pkg/clock"
	"github.com/uniclub/uc-points/pkg/errors"
	"github.com/uniclub/uc-points/pkg/pubsub"
	"github.com/uniclub/uc-points/pkg/status"
)

type RedemptionAdminUseCase interface {
	Complete(ctx context.Context, orderID string) (OrderResponse, error)
	RefundFull(ctx context.Context, orderID string, req RefundRequest) (OrderResponse, error)
	RefundPartial(ctx context.Context, orderID string, req PartialRefundRequest) (OrderResponse, error)
}

type redemptionAdminUseCase struct {
	logger          *logrus.Logger
	timeout         time.Duration
	clock           clock.Clock
	orderRepository memberredemption.OrderRepository
	ledger          wallet.Ledger
	publisher       pubsub.Publisher
}

type RedemptionAdminUseCaseProperty struct {
	Logger          *logrus.Logger
	Timeout         time.Duration
	Clock           clock.Clock
	OrderRepository memberredemption.OrderRepository
	Ledger          wallet.Ledger
	Publisher       pubsub.Publisher
}

func NewRedemptionAdminUseCase(props RedemptionAdminUseCaseProperty) RedemptionAdminUseCase {
	return &redemptionAdminUseCase{
		logger:          props.Logger,
		timeout:         props.Timeout,
		clock:           props.Clock,
		orderRepository: props.OrderRepository,
		ledger:          props.Ledger,
		publisher:       props.Publisher,
	}
}

// Complete implements RedemptionAdminUseCase. Completion marks the goods as
// handed over; no points move.
func (u *redemptionAdminUseCase) Complete(ctx context.Context, orderID string) (OrderResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	tx, err := u.orderRepository.BeginTx(ctx)
	if err != nil {
		return OrderResponse{}, err
	}

	order, err := u.orderRepository.FindByIDForUpdate(ctx, orderID, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	if !order.Status.CanTransitionTo(memberredemption.StatusCompleted) {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, errors.New(http.StatusConflict, status.INVALID_STATE_TRANSITION, fmt.Sprintf("redeem order in state '%s' cannot be completed", order.Status))
	}

	now := u.clock.Now()

	order.Status = memberredemption.StatusCompleted
	order.CompletedAt = &now
	order.UpdatedAt = now

	if err := u.orderRepository.Update(ctx, order, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	if err := u.orderRepository.CommitTx(ctx, tx); err != nil {
		return OrderResponse{}, err
	}

	orderBuff, _ := json.Marshal(order)
	u.publisher.Publish(ctx, "redeem-order-completed", order.ID, nil, orderBuff)

	resp := OrderResponse{}
	resp.PopulateFromEntity(order)

	return resp, nil
}

// RefundFull implements RedemptionAdminUseCase. Whatever has not already
// been refunded piecemeal comes back in one credit.
func (u *redemptionAdminUseCase) RefundFull(ctx context.Context, orderID string, req RefundRequest) (OrderResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	tx, err := u.orderRepository.BeginTx(ctx)
	if err != nil {
		return OrderResponse{}, err
	}

	order, err := u.orderRepository.FindByIDForUpdate(ctx, orderID, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	if !order.Status.CanTransitionTo(memberredemption.StatusRefunded) {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, errors.New(http.StatusConflict, status.INVALID_STATE_TRANSITION, fmt.Sprintf("redeem order in state '%s' cannot be refunded", order.Status))
	}

	remaining := order.RemainingPoints()
	if remaining <= 0 {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, errors.New(http.StatusConflict, status.INVALID_STATE_TRANSITION, "the order has nothing left to refund")
	}

	_, err = u.ledger.Append(ctx, wallet.AppendEntry{
		OwnerID:        wallet.MemberOwnerID(order.MemberID),
		Type:           wallet.TypeRefund,
		Amount:         remaining,
		Description:    fmt.Sprintf("full refund for redeem order '%s'", order.OrderCode),
		IdempotencyKey: fmt.Sprintf("refund-full:%s", order.ID),
		RelatedOrderID: order.ID,
	}, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	now := u.clock.Now()

	order.RefundedQuantity = order.Quantity
	order.RefundedPoints = order.TotalPoints
	order.Status = memberredemption.StatusRefunded
	order.ReasonRefund = &req.Reason
	order.UpdatedAt = now

	if err := u.orderRepository.Update(ctx, order, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	if err := u.orderRepository.CommitTx(ctx, tx); err != nil {
		return OrderResponse{}, err
	}

	orderBuff, _ := json.Marshal(order)
	u.publisher.Publish(ctx, "redeem-order-refunded", order.ID, nil, orderBuff)

	resp := OrderResponse{}
	resp.PopulateFromEntity(order)

	return resp, nil
}

// RefundPartial implements RedemptionAdminUseCase. A partial refund must
// leave at least one unit unrefunded, and a single-unit order can only be
// refunded in full.
func (u *redemptionAdminUseCase) RefundPartial(ctx context.Context, orderID string, req PartialRefundRequest) (OrderResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	tx, err := u.orderRepository.BeginTx(ctx)
	if err != nil {
		return OrderResponse{}, err
	}

	order, err := u.orderRepository.FindByIDForUpdate(ctx, orderID, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	if !order.Status.CanTransitionTo(memberredemption.StatusPartiallyRefunded) {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, errors.New(http.StatusConflict, status.INVALID_STATE_TRANSITION, fmt.Sprintf("redeem order in state '%s' cannot be partially refunded", order.Status))
	}

	if order.Quantity == 1 {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, errors.New(http.StatusBadRequest, status.INVALID_REFUND_QUANTITY, "a single-unit order can only be refunded in full")
	}

	if req.Quantity <= 0 || req.Quantity >= order.RemainingQuantity() {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, errors.New(http.StatusBadRequest, status.INVALID_REFUND_QUANTITY, fmt.Sprintf("refund quantity must be between 1 and %d", order.RemainingQuantity()-1))
	}

	refundPoints := req.Quantity * order.UnitPoints
	newRefundedQuantity := order.RefundedQuantity + req.Quantity

	_, err = u.ledger.Append(ctx, wallet.AppendEntry{
		OwnerID:        wallet.MemberOwnerID(order.MemberID),
		Type:           wallet.TypeRefund,
		Amount:         refundPoints,
		Description:    fmt.Sprintf("partial refund of %d units for redeem order '%s'", req.Quantity, order.OrderCode),
		IdempotencyKey: fmt.Sprintf("refund-partial:%s:%d", order.ID, newRefundedQuantity),
		RelatedOrderID: order.ID,
	}, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	order.RefundedQuantity = newRefundedQuantity
	order.RefundedPoints += refundPoints
	order.Status = memberredemption.StatusPartiallyRefunded
	order.ReasonRefund = &req.Reason
	order.UpdatedAt = u.clock.Now()

	if err := u.orderRepository.Update(ctx, order, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	if err := u.orderRepository.CommitTx(ctx, tx); err != nil {
		return OrderResponse{}, err
	}

	orderBuff, _ := json.Marshal(order)
	u.publisher.Publish(ctx, "redeem-order-partially-refunded", order.ID, nil, orderBuff)

	resp := OrderResponse{}
	resp.PopulateFromEntity(order)

	return resp, nil
}
