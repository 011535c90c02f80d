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
	"github.com/uniclub/uc-points/internal/module/memberapp/wallet"
	"github.com/uniclub/uc-points/internal/pkg/session"
	"github.com/uniclub/uc-points/pkg/applogger"
	"github.com/uniclub/uc-points/pkg/clock"
	"github.com/uniclub/uc-points/pkg/errors"
	"github.com/uniclub/uc-points/pkg/status"
)

type memoryProductRepository struct {
	mu       sync.Mutex
	products map[string]Product
}

func (r *memoryProductRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[ID]
	if !ok {
		return Product{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("product's properties with id '%s' is not found", ID))
	}
	return p, nil
}

func (r *memoryProductRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Product, error) {
	return r.FindByID(ctx, ID, tx)
}

func (r *memoryProductRepository) UpdateStock(ctx context.Context, ID string, stock int64, tx *sql.Tx) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.products[ID]
	p.Stock = stock
	r.products[ID] = p
	return nil
}

type memoryOrderRepository struct {
	mu     sync.Mutex
	orders map[string]Order
}

func (r *memoryOrderRepository) BeginTx(ctx context.Context) (*sql.Tx, error)   { return nil, nil }
func (r *memoryOrderRepository) CommitTx(ctx context.Context, tx *sql.Tx) error { return nil }
func (r *memoryOrderRepository) Rollback(ctx context.Context, tx *sql.Tx) error { return nil }

func (r *memoryOrderRepository) Save(ctx context.Context, o Order, tx *sql.Tx) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o
	return nil
}

func (r *memoryOrderRepository) Update(ctx context.Context, o Order, tx *sql.Tx) error {
	return r.Save(ctx, o, tx)
}

func (r *memoryOrderRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[ID]
	if !ok {
		return Order{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("redeem order's properties with id '%s' is not found", ID))
	}
	return o, nil
}

func (r *memoryOrderRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Order, error) {
	return r.FindByID(ctx, ID, tx)
}

func (r *memoryOrderRepository) FindManyByMemberID(ctx context.Context, memberID string, tx *sql.Tx) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var data []Order
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
	return l.balanceLocked(ownerID), nil
}

func (l *memoryLedger) balanceLocked(ownerID string) int64 {
	var sum int64
	for _, trx := range l.transactions {
		if trx.OwnerID == ownerID {
			sum += trx.Amount
		}
	}
	return sum
}

func (l *memoryLedger) Append(ctx context.Context, entry wallet.AppendEntry, tx *sql.Tx) (wallet.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, trx := range l.transactions {
		if trx.IdempotencyKey == entry.IdempotencyKey {
			return trx, nil
		}
	}

	if entry.Amount < 0 && l.balanceLocked(entry.OwnerID)+entry.Amount < 0 {
		return wallet.Transaction{}, errors.New(http.StatusUnprocessableEntity, status.INSUFFICIENT_BALANCE, "insufficient balance")
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

type redemptionFixture struct {
	useCase   RedemptionUseCase
	products  *memoryProductRepository
	orders    *memoryOrderRepository
	ledger    *memoryLedger
	memberCtx context.Context
}

func newRedemptionFixture(t *testing.T) redemptionFixture {
	t.Helper()

	products := &memoryProductRepository{products: map[string]Product{
		"p-1": {
			ID:         "p-1",
			ClubID:     "c-1",
			Name:       "Club Hoodie",
			UnitPoints: 50,
			Stock:      10,
		},
	}}
	orders := &memoryOrderRepository{orders: map[string]Order{}}
	ledger := &memoryLedger{}

	useCase := NewRedemptionUseCase(RedemptionUseCaseProperty{
		Logger:            applogger.GetLogrus(),
		Timeout:           5 * time.Second,
		Clock:             clock.Fixed(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)),
		ProductRepository: products,
		OrderRepository:   orders,
		Ledger:            ledger,
		Publisher:         nopPublisher{},
	})

	memberCtx := session.ContextWithAccount(context.Background(), session.Account{
		ID:   "m-1",
		Role: session.RoleMember,
	})

	return redemptionFixture{
		useCase:   useCase,
		products:  products,
		orders:    orders,
		ledger:    ledger,
		memberCtx: memberCtx,
	}
}

func (f redemptionFixture) fund(amount int64) {
	f.ledger.Append(context.Background(), wallet.AppendEntry{
		OwnerID:        wallet.MemberOwnerID("m-1"),
		Type:           wallet.TypeDeposit,
		Amount:         amount,
		IdempotencyKey: "deposit:test",
	}, nil)
}

func TestRedeemDebitsPointsAndStock(t *testing.T) {
	f := newRedemptionFixture(t)
	f.fund(200)

	resp, err := f.useCase.Redeem(f.memberCtx, RedeemRequest{
		MembershipID: "ms-1",
		ProductID:    "p-1",
		Quantity:     3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Status != StatusPending {
		t.Errorf("expected status %s, got %s", StatusPending, resp.Status)
	}
	if resp.TotalPoints != 150 {
		t.Errorf("expected total 150 points, got %d", resp.TotalPoints)
	}
	if resp.OrderCode == "" {
		t.Error("expected an order code")
	}

	balance, _ := f.ledger.BalanceOf(context.Background(), wallet.MemberOwnerID("m-1"), nil)
	if balance != 50 {
		t.Errorf("expected balance 50 after redeeming, got %d", balance)
	}

	if got := f.products.products["p-1"].Stock; got != 7 {
		t.Errorf("expected stock 7, got %d", got)
	}
}

func TestRedeemRejectsInsufficientBalance(t *testing.T) {
	f := newRedemptionFixture(t)
	f.fund(100)

	_, err := f.useCase.Redeem(f.memberCtx, RedeemRequest{
		MembershipID: "ms-1",
		ProductID:    "p-1",
		Quantity:     3,
	})
	if err == nil {
		t.Fatal("expected an error")
	}

	ae := errors.Destruct(err)
	if ae.Status != status.INSUFFICIENT_BALANCE {
		t.Errorf("expected status %s, got %s", status.INSUFFICIENT_BALANCE, ae.Status)
	}

	if len(f.orders.orders) != 0 {
		t.Error("expected no order row after a failed debit")
	}
}

func TestRedeemRejectsInsufficientStock(t *testing.T) {
	f := newRedemptionFixture(t)
	f.fund(10000)

	_, err := f.useCase.Redeem(f.memberCtx, RedeemRequest{
		MembershipID: "ms-1",
		ProductID:    "p-1",
		Quantity:     11,
	})
	if err == nil {
		t.Fatal("expected an error")
	}

	ae := errors.Destruct(err)
	if ae.HTTPStatusCode != http.StatusConflict {
		t.Errorf("expected HTTP 409, got %d", ae.HTTPStatusCode)
	}
}

func TestCancelOrderRestoresPointsAndStock(t *testing.T) {
	f := newRedemptionFixture(t)
	f.fund(200)

	placed, err := f.useCase.Redeem(f.memberCtx, RedeemRequest{
		MembershipID: "ms-1",
		ProductID:    "p-1",
		Quantity:     2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelled, err := f.useCase.CancelOrder(f.memberCtx, placed.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("expected status %s, got %s", StatusCancelled, cancelled.Status)
	}

	balance, _ := f.ledger.BalanceOf(context.Background(), wallet.MemberOwnerID("m-1"), nil)
	if balance != 200 {
		t.Errorf("expected the full balance back, got %d", balance)
	}

	if got := f.products.products["p-1"].Stock; got != 10 {
		t.Errorf("expected the stock restored to 10, got %d", got)
	}

	// A cancelled order is terminal.
	if _, err := f.useCase.CancelOrder(f.memberCtx, placed.ID); err == nil {
		t.Error("expected a second cancel to fail")
	}
}

func TestCancelOrderOfAnotherMemberIsRefused(t *testing.T) {
	f := newRedemptionFixture(t)
	f.fund(200)

	placed, err := f.useCase.Redeem(f.memberCtx, RedeemRequest{
		MembershipID: "ms-1",
		ProductID:    "p-1",
		Quantity:     1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	otherCtx := session.ContextWithAccount(context.Background(), session.Account{
		ID:   "m-2",
		Role: session.RoleMember,
	})

	_, err = f.useCase.CancelOrder(otherCtx, placed.ID)
	if err == nil {
		t.Fatal("expected an error")
	}

	ae := errors.Destruct(err)
	if ae.HTTPStatusCode != http.StatusForbidden {
		t.Errorf("expected HTTP 403, got %d", ae.HTTPStatusCode)
	}
}
