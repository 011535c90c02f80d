package wallet

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/uniclub/uc-points/pkg/errors"
	"github.com/uniclub/uc-points/pkg/status"
)

type TransactionRepository interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(ctx context.Context, tx *sql.Tx) error
	Rollback(ctx context.Context, tx *sql.Tx) error

	// LockAccount serializes balance-affecting work per owner. The account
	// row is created on first use.
	LockAccount(ctx context.Context, ownerID string, tx *sql.Tx) error
	SumAmountByOwnerID(ctx context.Context, ownerID string, tx *sql.Tx) (int64, error)
	FindByIdempotencyKey(ctx context.Context, key string, tx *sql.Tx) (Transaction, bool, error)
	Save(ctx context.Context, trx Transaction, tx *sql.Tx) error
	FindManyByOwnerID(ctx context.Context, ownerID string, filter HistoryFilter, tx *sql.Tx) ([]Transaction, error)
	CountByOwnerID(ctx context.Context, ownerID string, filter HistoryFilter, tx *sql.Tx) (int64, error)
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type transactionRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewTransactionRepository(logger *logrus.Logger, db *sql.DB) TransactionRepository {
	return &transactionRepository{
		logger: logger,
		db:     db,
	}
}

// BeginTx implements TransactionRepository.
func (r *transactionRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to begin transaction")
	}

	return tx, nil
}

// CommitTx implements TransactionRepository.
func (r *transactionRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to commit transaction")
	}

	return nil
}

// Rollback implements TransactionRepository.
func (r *transactionRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Rollback(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to rollback transaction")
	}

	return nil
}

// LockAccount implements TransactionRepository.
func (r *transactionRepository) LockAccount(ctx context.Context, ownerID string, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	insertQuery := `
		INSERT INTO wallet_account (owner_id, created_at)
		VALUES ($1, now())
		ON CONFLICT (owner_id) DO NOTHING
	`

	if _, err := cmd.ExecContext(ctx, insertQuery, ownerID); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while preparing wallet's account")
	}

	lockQuery := `
		SELECT owner_id
		FROM wallet_account
		WHERE
			owner_id = $1
		FOR UPDATE
	`

	var locked string
	if err := cmd.QueryRowContext(ctx, lockQuery, ownerID).Scan(&locked); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while locking wallet's account")
	}

	return nil
}

// SumAmountByOwnerID implements TransactionRepository.
func (r *transactionRepository) SumAmountByOwnerID(ctx context.Context, ownerID string, tx *sql.Tx) (int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM wallet_transaction
		WHERE
			owner_id = $1
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while summing wallet's transactions")
	}
	defer stmt.Close()

	var sum int64
	if err := stmt.QueryRowContext(ctx, ownerID).Scan(&sum); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while summing wallet's transactions")
	}

	return sum, nil
}

const transactionColumns = `
	id, owner_id, type, amount, description, idempotency_key, related_order_id, related_event_id, created_at
`

func scanTransaction(scan func(dest ...interface{}) error) (Transaction, error) {
	var trx Transaction
	var relatedOrderID, relatedEventID sql.NullString

	err := scan(
		&trx.ID, &trx.OwnerID, &trx.Type, &trx.Amount, &trx.Description, &trx.IdempotencyKey,
		&relatedOrderID, &relatedEventID, &trx.CreatedAt,
	)
	if err != nil {
		return Transaction{}, err
	}

	trx.RelatedOrderID = relatedOrderID.String
	trx.RelatedEventID = relatedEventID.String

	return trx, nil
}

// FindByIdempotencyKey implements TransactionRepository.
func (r *transactionRepository) FindByIdempotencyKey(ctx context.Context, key string, tx *sql.Tx) (Transaction, bool, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM wallet_transaction
		WHERE
			idempotency_key = $1
		LIMIT 1
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Transaction{}, false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting wallet transaction's properties")
	}
	defer stmt.Close()

	trx, err := scanTransaction(stmt.QueryRowContext(ctx, key).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return Transaction{}, false, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Transaction{}, false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting wallet transaction's properties")
	}

	return trx, true, nil
}

// Save implements TransactionRepository.
func (r *transactionRepository) Save(ctx context.Context, trx Transaction, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO wallet_transaction
		(
			id, owner_id, type, amount, description, idempotency_key, related_order_id, related_event_id, created_at
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving wallet transaction's properties")
	}
	defer stmt.Close()

	var relatedOrderID, relatedEventID sql.NullString
	if trx.RelatedOrderID != "" {
		relatedOrderID.Valid = true
		relatedOrderID.String = trx.RelatedOrderID
	}
	if trx.RelatedEventID != "" {
		relatedEventID.Valid = true
		relatedEventID.String = trx.RelatedEventID
	}

	_, err = stmt.ExecContext(ctx,
		trx.ID, trx.OwnerID, trx.Type, trx.Amount, trx.Description, trx.IdempotencyKey,
		relatedOrderID, relatedEventID, trx.CreatedAt,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving wallet transaction's properties")
	}

	return nil
}

func historyPredicates(ownerID string, filter HistoryFilter) (string, []interface{}) {
	conditions := []string{"owner_id = $1"}
	args := []interface{}{ownerID}

	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			args = append(args, string(t))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, "type IN ("+strings.Join(placeholders, ", ")+")")
	}

	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", len(args)))
	}

	return strings.Join(conditions, " AND "), args
}

// FindManyByOwnerID implements TransactionRepository.
func (r *transactionRepository) FindManyByOwnerID(ctx context.Context, ownerID string, filter HistoryFilter, tx *sql.Tx) ([]Transaction, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	where, args := historyPredicates(ownerID, filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	args = append(args, filter.Offset)
	offsetPlaceholder := fmt.Sprintf("$%d", len(args))
	args = append(args, limit)
	limitPlaceholder := fmt.Sprintf("$%d", len(args))

	query := `
		SELECT ` + transactionColumns + `
		FROM wallet_transaction
		WHERE ` + where + `
		ORDER BY created_at DESC
		OFFSET ` + offsetPlaceholder + `
		LIMIT ` + limitPlaceholder + `
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of wallet transaction's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of wallet transaction's properties")
	}
	defer rows.Close()

	var data = make([]Transaction, 0)
	for rows.Next() {
		trx, err := scanTransaction(rows.Scan)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of wallet transaction's properties")
		}

		data = append(data, trx)
	}

	return data, nil
}

// CountByOwnerID implements TransactionRepository.
func (r *transactionRepository) CountByOwnerID(ctx context.Context, ownerID string, filter HistoryFilter, tx *sql.Tx) (int64, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	where, args := historyPredicates(ownerID, filter)

	query := `
		SELECT count(id)
		FROM wallet_transaction
		WHERE ` + where + `
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting wallet transaction's properties")
	}
	defer stmt.Close()

	var count int64
	if err := stmt.QueryRowContext(ctx, args...).Scan(&count); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return 0, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while counting wallet transaction's properties")
	}

	return count, nil
}
