package redemption

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/uniclub/uc-points/internal/module/memberapp/wallet"
	"github.com/uniclub/uc-points/internal/pkg/session"
	"github.com/uniclub/uc-points/internal/pkg/util"
	"github.com/uniclub/uc-points/pkg/clock"
	"github.com/uniclub/uc-points/pkg/errors"
	"github.com/uniclub/uc-points/pkg/pubsub"
	"github.com/uniclub/uc-points/pkg/status"
)

type RedemptionUseCase interface {
	Redeem(ctx context.Context, req RedeemRequest) (OrderResponse, error)
	CancelOrder(ctx context.Context, orderID string) (OrderResponse, error)
	GetManyOrder(ctx context.Context) (GetManyOrderResponse, error)
}

type redemptionUseCase struct {
	logger            *logrus.Logger
	timeout           time.Duration
	clock             clock.Clock
	productRepository ProductRepository
	orderRepository   OrderRepository
	ledger            wallet.Ledger
	publisher         pubsub.Publisher
}

type RedemptionUseCaseProperty struct {
	Logger            *logrus.Logger
	Timeout           time.Duration
	Clock             clock.Clock
	ProductRepository ProductRepository
	OrderRepository   OrderRepository
	Ledger            wallet.Ledger
	Publisher         pubsub.Publisher
}

func NewRedemptionUseCase(props RedemptionUseCaseProperty) RedemptionUseCase {
	return &redemptionUseCase{
		logger:            props.Logger,
		timeout:           props.Timeout,
		clock:             props.Clock,
		productRepository: props.ProductRepository,
		orderRepository:   props.OrderRepository,
		ledger:            props.Ledger,
		publisher:         props.Publisher,
	}
}

// Redeem implements RedemptionUseCase. The points debit, the stock
// decrement and the order row land in one transaction.
func (u *redemptionUseCase) Redeem(ctx context.Context, req RedeemRequest) (OrderResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return OrderResponse{}, err
	}

	tx, err := u.orderRepository.BeginTx(ctx)
	if err != nil {
		return OrderResponse{}, err
	}

	product, err := u.productRepository.FindByIDForUpdate(ctx, req.ProductID, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	if product.Stock < req.Quantity {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, errors.New(http.StatusConflict, status.CONFLICT, fmt.Sprintf("product '%s' has insufficient stock", product.Name))
	}

	now := u.clock.Now()

	order := Order{
		ID:           uuid.NewString(),
		OrderCode:    util.GenerateTimestampWithPrefix("RO"),
		ProductID:    product.ID,
		ProductName:  product.Name,
		MembershipID: req.MembershipID,
		MemberID:     acc.ID,
		Quantity:     req.Quantity,
		UnitPoints:   product.UnitPoints,
		TotalPoints:  product.UnitPoints * req.Quantity,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = u.ledger.Append(ctx, wallet.AppendEntry{
		OwnerID:        wallet.MemberOwnerID(acc.ID),
		Type:           wallet.TypeWithdrawal,
		Amount:         -order.TotalPoints,
		Description:    fmt.Sprintf("redeemed %d x '%s'", order.Quantity, product.Name),
		IdempotencyKey: fmt.Sprintf("redeem:%s", order.ID),
		RelatedOrderID: order.ID,
	}, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	if err := u.productRepository.UpdateStock(ctx, product.ID, product.Stock-req.Quantity, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	if err := u.orderRepository.Save(ctx, order, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	if err := u.orderRepository.CommitTx(ctx, tx); err != nil {
		return OrderResponse{}, err
	}

	orderBuff, _ := json.Marshal(order)
	u.publisher.Publish(ctx, "redeem-order-placed", order.ID, nil, orderBuff)

	resp := OrderResponse{}
	resp.PopulateFromEntity(order)

	return resp, nil
}

// CancelOrder implements RedemptionUseCase. Only a pending, undelivered
// order can be canceled; the debit is released and the stock restored.
func (u *redemptionUseCase) CancelOrder(ctx context.Context, orderID string) (OrderResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return OrderResponse{}, err
	}

	tx, err := u.orderRepository.BeginTx(ctx)
	if err != nil {
		return OrderResponse{}, err
	}

	order, err := u.orderRepository.FindByIDForUpdate(ctx, orderID, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	if order.MemberID != acc.ID {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, errors.New(http.StatusForbidden, status.FORBIDDEN, "the order belongs to another member")
	}

	if !order.Status.CanTransitionTo(StatusCancelled) {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, errors.New(http.StatusConflict, status.INVALID_STATE_TRANSITION, fmt.Sprintf("redeem order in state '%s' cannot be cancelled", order.Status))
	}

	_, err = u.ledger.Append(ctx, wallet.AppendEntry{
		OwnerID:        wallet.MemberOwnerID(acc.ID),
		Type:           wallet.TypeRefund,
		Amount:         order.TotalPoints,
		Description:    fmt.Sprintf("cancelled redeem order '%s'", order.OrderCode),
		IdempotencyKey: fmt.Sprintf("cancel:%s", order.ID),
		RelatedOrderID: order.ID,
	}, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	product, err := u.productRepository.FindByIDForUpdate(ctx, order.ProductID, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	if err := u.productRepository.UpdateStock(ctx, product.ID, product.Stock+order.Quantity, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	order.Status = StatusCancelled
	order.UpdatedAt = u.clock.Now()

	if err := u.orderRepository.Update(ctx, order, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return OrderResponse{}, err
	}

	if err := u.orderRepository.CommitTx(ctx, tx); err != nil {
		return OrderResponse{}, err
	}

	orderBuff, _ := json.Marshal(order)
	u.publisher.Publish(ctx, "redeem-order-cancelled", order.ID, nil, orderBuff)

	resp := OrderResponse{}
	resp.PopulateFromEntity(order)

	return resp, nil
}

// GetManyOrder implements RedemptionUseCase.
func (u *redemptionUseCase) GetManyOrder(ctx context.Context) (GetManyOrderResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	orders, err := u.orderRepository.FindManyByMemberID(ctx, acc.ID, nil)
	if err != nil {
		return nil, err
	}

	resp := make(GetManyOrderResponse, len(orders))
	for k, o := range orders {
		resp[k].PopulateFromEntity(o)
	}

	return resp, nil
}
