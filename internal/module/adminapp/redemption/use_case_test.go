package redemption

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	memberredemption "github.com/uniclub/uc-points/internal/module/memberapp/redemption"
	"github.com/uniclub/uc-points/internal/module/memberapp/wallet"
	"github.com/uniclub/uc-points/pkg/applogger"
	"github.com/uniclub/uc-points/pkg/clock"
	"github.com/uniclub/uc-points/pkg/errors"
	"github.com/uniclub/uc-points/pkg/status"
)

type memoryOrderRepository struct {
	mu     sync.Mutex
	orders map[string]memberredemption.Order
}

func (r *memoryOrderRepository) BeginTx(ctx context.Context) (*sql.Tx, error)   { return nil, nil }
func (r *memoryOrderRepository) CommitTx(ctx context.Context, tx *sql.Tx) error { return nil }
func (r *memoryOrderRepository) Rollback(ctx context.Context, tx *sql.Tx) error { return nil }

func (r *memoryOrderRepository) Save(ctx context.Context, o memberredemption.Order, tx *sql.Tx) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o
	return nil
}

func (r *memoryOrderRepository) Update(ctx context.Context, o memberredemption.Order, tx *sql.Tx) error {
	return r.Save(ctx, o, tx)
}

func (r *memoryOrderRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (memberredemption.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[ID]
	if !ok {
		return memberredemption.Order{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("redeem order's properties with id '%s' is not found", ID))
	}
	return o, nil
}

func (r *memoryOrderRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (memberredemption.Order, error) {
	return r.FindByID(ctx, ID, tx)
}

func (r *memoryOrderRepository) FindManyByMemberID(ctx context.Context, memberID string, tx *sql.Tx) ([]memberredemption.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var data []memberredemption.Order
	for _, o := range r.orders {
		if o.MemberID == memberID {
			data = append(data, o)
		}
	}
	return data, nil
}

type memoryLedger struct {
	mu           sync.Mutex
	transactions []wallet.Transaction
}

func (l *memoryLedger) BeginTx(ctx context.Context) (*sql.Tx, error)   { return nil, nil }
func (l *memoryLedger) CommitTx(ctx context.Context, tx *sql.Tx) error { return nil }
func (l *memoryLedger) Rollback(ctx context.Context, tx *sql.Tx) error { return nil }

func (l *memoryLedger) BalanceOf(ctx context.Context, ownerID string, tx *sql.Tx) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var sum int64
	for _, trx := range l.transactions {
		if trx.OwnerID == ownerID {
			sum += trx.Amount
		}
	}
	return sum, nil
}

func (l *memoryLedger) Append(ctx context.Context, entry wallet.AppendEntry, tx *sql.Tx) (wallet.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, trx := range l.transactions {
		if trx.IdempotencyKey == entry.IdempotencyKey {
			return trx, nil
		}
	}

	trx := wallet.Transaction{
		ID:             uuid.NewString(),
		OwnerID:        entry.OwnerID,
		Type:           entry.Type,
		Amount:         entry.Amount,
		Description:    entry.Description,
		IdempotencyKey: entry.IdempotencyKey,
		RelatedOrderID: entry.RelatedOrderID,
		RelatedEventID: entry.RelatedEventID,
		CreatedAt:      time.Now(),
	}
	l.transactions = append(l.transactions, trx)

	return trx, nil
}

func (l *memoryLedger) History(ctx context.Context, ownerID string, filter wallet.HistoryFilter) ([]wallet.Transaction, int64, error) {
	return nil, 0, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, topic string, key string, headers map[string]string, message []byte) {
}
func (nopPublisher) Close() {}

type adminRedemptionFixture struct {
	useCase RedemptionAdminUseCase
	orders  *memoryOrderRepository
	ledger  *memoryLedger
}

func newAdminRedemptionFixture(t *testing.T, order memberredemption.Order) adminRedemptionFixture {
	t.Helper()

	orders := &memoryOrderRepository{orders: map[string]memberredemption.Order{
		order.ID: order,
	}}
	ledger := &memoryLedger{}

	useCase := NewRedemptionAdminUseCase(RedemptionAdminUseCaseProperty{
		Logger:          applogger.GetLogrus(),
		Timeout:         5 * time.Second,
		Clock:           clock.Fixed(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)),
		OrderRepository: orders,
		Ledger:          ledger,
		Publisher:       nopPublisher{},
	})

	return adminRedemptionFixture{
		useCase: useCase,
		orders:  orders,
		ledger:  ledger,
	}
}

func pendingOrder() memberredemption.Order {
	return memberredemption.Order{
		ID:          "o-1",
		OrderCode:   "RO123",
		ProductID:   "p-1",
		ProductName: "Club Hoodie",
		MemberID:    "m-1",
		Quantity:    4,
		UnitPoints:  50,
		TotalPoints: 200,
		Status:      memberredemption.StatusPending,
	}
}

func completedOrder() memberredemption.Order {
	o := pendingOrder()
	o.Status = memberredemption.StatusCompleted
	return o
}

func TestComplete(t *testing.T) {
	f := newAdminRedemptionFixture(t, pendingOrder())
	ctx := context.Background()

	resp, err := f.useCase.Complete(ctx, "o-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Status != memberredemption.StatusCompleted {
		t.Errorf("expected status %s, got %s", memberredemption.StatusCompleted, resp.Status)
	}
	if resp.CompletedAt == nil {
		t.Error("expected a completion timestamp")
	}

	// Completion moves no points.
	if len(f.ledger.transactions) != 0 {
		t.Errorf("expected no ledger rows, found %d", len(f.ledger.transactions))
	}

	// Completing twice is refused.
	if _, err := f.useCase.Complete(ctx, "o-1"); err == nil {
		t.Error("expected a second completion to fail")
	}
}

func TestRefundFull(t *testing.T) {
	f := newAdminRedemptionFixture(t, completedOrder())
	ctx := context.Background()

	resp, err := f.useCase.RefundFull(ctx, "o-1", RefundRequest{Reason: "damaged goods"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Status != memberredemption.StatusRefunded {
		t.Errorf("expected status %s, got %s", memberredemption.StatusRefunded, resp.Status)
	}
	if resp.RefundedPoints != 200 || resp.RefundedQuantity != 4 {
		t.Errorf("expected a full refund, got %d points / %d units", resp.RefundedPoints, resp.RefundedQuantity)
	}

	balance, _ := f.ledger.BalanceOf(ctx, wallet.MemberOwnerID("m-1"), nil)
	if balance != 200 {
		t.Errorf("expected the member credited 200 points, got %d", balance)
	}

	// A refunded order is terminal.
	if _, err := f.useCase.RefundFull(ctx, "o-1", RefundRequest{Reason: "again"}); err == nil {
		t.Error("expected a second refund to fail")
	}
}

func TestRefundFullOfPendingOrderIsRefused(t *testing.T) {
	f := newAdminRedemptionFixture(t, pendingOrder())

	_, err := f.useCase.RefundFull(context.Background(), "o-1", RefundRequest{Reason: "too early"})
	if err == nil {
		t.Fatal("expected an error")
	}

	ae := errors.Destruct(err)
	if ae.Status != status.INVALID_STATE_TRANSITION {
		t.Errorf("expected status %s, got %s", status.INVALID_STATE_TRANSITION, ae.Status)
	}
}

func TestRefundPartial(t *testing.T) {
	f := newAdminRedemptionFixture(t, completedOrder())
	ctx := context.Background()

	resp, err := f.useCase.RefundPartial(ctx, "o-1", PartialRefundRequest{Quantity: 1, Reason: "one unit damaged"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Status != memberredemption.StatusPartiallyRefunded {
		t.Errorf("expected status %s, got %s", memberredemption.StatusPartiallyRefunded, resp.Status)
	}
	if resp.RefundedQuantity != 1 || resp.RefundedPoints != 50 {
		t.Errorf("expected 1 unit / 50 points refunded, got %d / %d", resp.RefundedQuantity, resp.RefundedPoints)
	}

	// A second partial refund stacks on the first.
	resp, err = f.useCase.RefundPartial(ctx, "o-1", PartialRefundRequest{Quantity: 2, Reason: "two more"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.RefundedQuantity != 3 || resp.RefundedPoints != 150 {
		t.Errorf("expected 3 units / 150 points refunded, got %d / %d", resp.RefundedQuantity, resp.RefundedPoints)
	}

	// Refunded credits add up to the refunded points on the order.
	balance, _ := f.ledger.BalanceOf(ctx, wallet.MemberOwnerID("m-1"), nil)
	if balance != 150 {
		t.Errorf("expected the member credited 150 points, got %d", balance)
	}

	// The remainder can still be refunded in full.
	full, err := f.useCase.RefundFull(ctx, "o-1", RefundRequest{Reason: "the rest"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if full.Status != memberredemption.StatusRefunded {
		t.Errorf("expected status %s, got %s", memberredemption.StatusRefunded, full.Status)
	}

	balance, _ = f.ledger.BalanceOf(ctx, wallet.MemberOwnerID("m-1"), nil)
	if balance != 200 {
		t.Errorf("expected the refunds to total the order's points, got %d", balance)
	}
}

func TestRefundPartialQuantityRules(t *testing.T) {
	testCases := []struct {
		name     string
		order    memberredemption.Order
		quantity int64
	}{
		{
			name: "single-unit order",
			order: func() memberredemption.Order {
				o := completedOrder()
				o.Quantity = 1
				o.TotalPoints = 50
				return o
			}(),
			quantity: 1,
		},
		{
			name:     "zero quantity",
			order:    completedOrder(),
			quantity: 0,
		},
		{
			name:     "negative quantity",
			order:    completedOrder(),
			quantity: -1,
		},
		{
			name:     "quantity equal to the remainder",
			order:    completedOrder(),
			quantity: 4,
		},
		{
			name:     "quantity above the remainder",
			order:    completedOrder(),
			quantity: 5,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newAdminRedemptionFixture(t, tc.order)

			_, err := f.useCase.RefundPartial(context.Background(), tc.order.ID, PartialRefundRequest{
				Quantity: tc.quantity,
				Reason:   "test",
			})
			if err == nil {
				t.Fatal("expected an error")
			}

			ae := errors.Destruct(err)
			if ae.Status != status.INVALID_REFUND_QUANTITY {
				t.Errorf("expected status %s, got %s", status.INVALID_REFUND_QUANTITY, ae.Status)
			}
			if ae.HTTPStatusCode != http.StatusBadRequest {
				t.Errorf("expected HTTP 400, got %d", ae.HTTPStatusCode)
			}
		})
	}
}
