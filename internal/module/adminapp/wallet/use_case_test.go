package wallet

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	memberwallet "github.com/uniclub/uc-points/internal/module/memberapp/wallet"
	"github.com/uniclub/uc-points/internal/pkg/session"
	"github.com/uniclub/uc-points/pkg/applogger"
	"github.com/uniclub/uc-points/pkg/errors"
	"github.com/uniclub/uc-points/pkg/status"
)

type memoryLedger struct {
	mu           sync.Mutex
	transactions []memberwallet.Transaction
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

func (l *memoryLedger) Append(ctx context.Context, entry memberwallet.AppendEntry, tx *sql.Tx) (memberwallet.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, trx := range l.transactions {
		if trx.IdempotencyKey == entry.IdempotencyKey {
			return trx, nil
		}
	}

	if entry.Amount < 0 && l.balanceLocked(entry.OwnerID)+entry.Amount < 0 {
		return memberwallet.Transaction{}, errors.New(http.StatusUnprocessableEntity, status.INSUFFICIENT_BALANCE, "insufficient balance")
	}

	trx := memberwallet.Transaction{
		ID:             uuid.NewString(),
		OwnerID:        entry.OwnerID,
		Type:           entry.Type,
		Amount:         entry.Amount,
		Description:    entry.Description,
		IdempotencyKey: entry.IdempotencyKey,
		CreatedAt:      time.Now(),
	}
	l.transactions = append(l.transactions, trx)

	return trx, nil
}

func (l *memoryLedger) History(ctx context.Context, ownerID string, filter memberwallet.HistoryFilter) ([]memberwallet.Transaction, int64, error) {
	return nil, 0, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, topic string, key string, headers map[string]string, message []byte) {
}
func (nopPublisher) Close() {}

func newWalletAdminFixture(t *testing.T) (WalletAdminUseCase, *memoryLedger) {
	t.Helper()

	ledger := &memoryLedger{}

	useCase := NewWalletAdminUseCase(WalletAdminUseCaseProperty{
		Logger:    applogger.GetLogrus(),
		Timeout:   5 * time.Second,
		Ledger:    ledger,
		Publisher: nopPublisher{},
	})

	return useCase, ledger
}

func staffContext() context.Context {
	return session.ContextWithAccount(context.Background(), session.Account{
		ID:   "staff-1",
		Role: session.RoleUniStaff,
	})
}

func leadContext() context.Context {
	return session.ContextWithAccount(context.Background(), session.Account{
		ID:     "lead-1",
		Role:   session.RoleClubLead,
		ClubID: "c-1",
	})
}

func TestDeposit(t *testing.T) {
	useCase, ledger := newWalletAdminFixture(t)

	resp, err := useCase.Deposit(staffContext(), DepositRequest{
		ClubID:    "c-1",
		Amount:    500,
		Reference: "sem-2026-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Type != memberwallet.TypeDeposit {
		t.Errorf("expected type %s, got %s", memberwallet.TypeDeposit, resp.Type)
	}

	balance, _ := ledger.BalanceOf(context.Background(), memberwallet.ClubOwnerID("c-1"), nil)
	if balance != 500 {
		t.Errorf("expected club balance 500, got %d", balance)
	}

	// Retrying the same reference does not double the deposit.
	if _, err := useCase.Deposit(staffContext(), DepositRequest{
		ClubID:    "c-1",
		Amount:    500,
		Reference: "sem-2026-1",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	balance, _ = ledger.BalanceOf(context.Background(), memberwallet.ClubOwnerID("c-1"), nil)
	if balance != 500 {
		t.Errorf("expected the retry to be idempotent, got balance %d", balance)
	}
}

func TestDepositRequiresStaff(t *testing.T) {
	useCase, _ := newWalletAdminFixture(t)

	_, err := useCase.Deposit(leadContext(), DepositRequest{
		ClubID:    "c-1",
		Amount:    500,
		Reference: "sem-2026-1",
	})
	if err == nil {
		t.Fatal("expected an error")
	}

	ae := errors.Destruct(err)
	if ae.HTTPStatusCode != http.StatusForbidden {
		t.Errorf("expected HTTP 403, got %d", ae.HTTPStatusCode)
	}
}

func TestGrantToMember(t *testing.T) {
	useCase, ledger := newWalletAdminFixture(t)

	if _, err := useCase.Deposit(staffContext(), DepositRequest{
		ClubID:    "c-1",
		Amount:    500,
		Reference: "sem-2026-1",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := useCase.GrantToMember(leadContext(), GrantRequest{
		MemberID:  "m-1",
		Amount:    100,
		Reference: "volunteer-bonus-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Type != memberwallet.TypeClubToMember {
		t.Errorf("expected type %s, got %s", memberwallet.TypeClubToMember, resp.Type)
	}

	clubBalance, _ := ledger.BalanceOf(context.Background(), memberwallet.ClubOwnerID("c-1"), nil)
	if clubBalance != 400 {
		t.Errorf("expected club balance 400, got %d", clubBalance)
	}

	memberBalance, _ := ledger.BalanceOf(context.Background(), memberwallet.MemberOwnerID("m-1"), nil)
	if memberBalance != 100 {
		t.Errorf("expected member balance 100, got %d", memberBalance)
	}
}

func TestGrantToMemberRejectsOverdraw(t *testing.T) {
	useCase, _ := newWalletAdminFixture(t)

	_, err := useCase.GrantToMember(leadContext(), GrantRequest{
		MemberID:  "m-1",
		Amount:    100,
		Reference: "volunteer-bonus-1",
	})
	if err == nil {
		t.Fatal("expected an error")
	}

	ae := errors.Destruct(err)
	if ae.Status != status.INSUFFICIENT_BALANCE {
		t.Errorf("expected status %s, got %s", status.INSUFFICIENT_BALANCE, ae.Status)
	}
}

func TestGrantRequiresClubLead(t *testing.T) {
	useCase, _ := newWalletAdminFixture(t)

	_, err := useCase.GrantToMember(staffContext(), GrantRequest{
		MemberID:  "m-1",
		Amount:    100,
		Reference: "volunteer-bonus-1",
	})
	if err == nil {
		t.Fatal("expected an error")
	}

	ae := errors.Destruct(err)
	if ae.HTTPStatusCode != http.StatusForbidden {
		t.Errorf("expected HTTP 403, got %d", ae.HTTPStatusCode)
	}
}

func TestGetBalance(t *testing.T) {
	useCase, _ := newWalletAdminFixture(t)

	if _, err := useCase.Deposit(staffContext(), DepositRequest{
		ClubID:    "c-1",
		Amount:    250,
		Reference: "sem-2026-1",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := useCase.GetBalance(staffContext(), memberwallet.ClubOwnerID("c-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Balance != 250 {
		t.Errorf("expected balance 250, got %d", resp.Balance)
	}
}
