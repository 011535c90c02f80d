package wallet

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/uniclub/uc-points/pkg/clock"
	"github.com/uniclub/uc-points/pkg/errors"
	"github.com/uniclub/uc-points/pkg/status"
)

// AppendEntry is a request to append one ledger entry. IdempotencyKey is
// mandatory: replaying the same key returns the previously appended
// transaction instead of applying the entry twice.
type AppendEntry struct {
	OwnerID        string
	Type           Type
	Amount         int64
	Description    string
	IdempotencyKey string
	RelatedOrderID string
	RelatedEventID string
}

// Ledger is the single source of truth for balances. Every workflow mutation
// of points goes through Append; balances are always derived from the
// transaction log, never stored.
type Ledger interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(ctx context.Context, tx *sql.Tx) error
	Rollback(ctx context.Context, tx *sql.Tx) error

	BalanceOf(ctx context.Context, ownerID string, tx *sql.Tx) (int64, error)
	Append(ctx context.Context, entry AppendEntry, tx *sql.Tx) (Transaction, error)
	History(ctx context.Context, ownerID string, filter HistoryFilter) ([]Transaction, int64, error)
}

type ledger struct {
	logger                *logrus.Logger
	clock                 clock.Clock
	transactionRepository TransactionRepository
}

type LedgerProperty struct {
	Logger                *logrus.Logger
	Clock                 clock.Clock
	TransactionRepository TransactionRepository
}

func NewLedger(props LedgerProperty) Ledger {
	return &ledger{
		logger:                props.Logger,
		clock:                 props.Clock,
		transactionRepository: props.TransactionRepository,
	}
}

// BeginTx implements Ledger.
func (l *ledger) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return l.transactionRepository.BeginTx(ctx)
}

// CommitTx implements Ledger.
func (l *ledger) CommitTx(ctx context.Context, tx *sql.Tx) error {
	return l.transactionRepository.CommitTx(ctx, tx)
}

// Rollback implements Ledger.
func (l *ledger) Rollback(ctx context.Context, tx *sql.Tx) error {
	return l.transactionRepository.Rollback(ctx, tx)
}

// BalanceOf implements Ledger.
func (l *ledger) BalanceOf(ctx context.Context, ownerID string, tx *sql.Tx) (int64, error) {
	return l.transactionRepository.SumAmountByOwnerID(ctx, ownerID, tx)
}

// Append implements Ledger. The owner's account row is locked first so two
// concurrent debits cannot both pass the balance check; the idempotency
// lookup and the insert happen under the same lock.
func (l *ledger) Append(ctx context.Context, entry AppendEntry, tx *sql.Tx) (Transaction, error) {
	if entry.IdempotencyKey == "" {
		return Transaction{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "ledger entries require an idempotency key")
	}
	if entry.Amount == 0 {
		return Transaction{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "ledger entries require a non-zero amount")
	}

	if err := l.transactionRepository.LockAccount(ctx, entry.OwnerID, tx); err != nil {
		return Transaction{}, err
	}

	prior, found, err := l.transactionRepository.FindByIdempotencyKey(ctx, entry.IdempotencyKey, tx)
	if err != nil {
		return Transaction{}, err
	}
	if found {
		return prior, nil
	}

	if entry.Amount < 0 {
		balance, err := l.transactionRepository.SumAmountByOwnerID(ctx, entry.OwnerID, tx)
		if err != nil {
			return Transaction{}, err
		}

		if balance+entry.Amount < 0 {
			return Transaction{}, errors.New(http.StatusUnprocessableEntity, status.INSUFFICIENT_BALANCE, fmt.Sprintf("wallet '%s' has %d points, %d required", entry.OwnerID, balance, -entry.Amount))
		}
	}

	trx := Transaction{
		ID:             uuid.NewString(),
		OwnerID:        entry.OwnerID,
		Type:           entry.Type,
		Amount:         entry.Amount,
		Description:    entry.Description,
		IdempotencyKey: entry.IdempotencyKey,
		RelatedOrderID: entry.RelatedOrderID,
		RelatedEventID: entry.RelatedEventID,
		CreatedAt:      l.clock.Now(),
	}

	if err := l.transactionRepository.Save(ctx, trx, tx); err != nil {
		return Transaction{}, err
	}

	return trx, nil
}

// History implements Ledger. The cursor is stateless: the same filter and
// paging always restart from the stored log.
func (l *ledger) History(ctx context.Context, ownerID string, filter HistoryFilter) ([]Transaction, int64, error) {
	data, err := l.transactionRepository.FindManyByOwnerID(ctx, ownerID, filter, nil)
	if err != nil {
		return nil, 0, err
	}

	total, err := l.transactionRepository.CountByOwnerID(ctx, ownerID, filter, nil)
	if err != nil {
		return nil, 0, err
	}

	return data, total, nil
}
