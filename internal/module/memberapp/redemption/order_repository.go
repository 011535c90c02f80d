package redemption

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/uniclub/uc-points/pkg/errors"
	"github.com/uniclub/uc-points/pkg/status"
)

type OrderRepository interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(ctx context.Context, tx *sql.Tx) error
	Rollback(ctx context.Context, tx *sql.Tx) error

	Save(ctx context.Context, o Order, tx *sql.Tx) error
	Update(ctx context.Context, o Order, tx *sql.Tx) error
	FindByID(ctx context.Context, ID string, tx *sql.Tx) (Order, error)
	FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Order, error)
	FindManyByMemberID(ctx context.Context, memberID string, tx *sql.Tx) ([]Order, error)
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type orderRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewOrderRepository(logger *logrus.Logger, db *sql.DB) OrderRepository {
	return &orderRepository{
		logger: logger,
		db:     db,
	}
}

// BeginTx implements OrderRepository.
func (r *orderRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to begin transaction")
	}

	return tx, nil
}

// CommitTx implements OrderRepository.
func (r *orderRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to commit transaction")
	}

	return nil
}

// Rollback implements OrderRepository.
func (r *orderRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Rollback(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to rollback transaction")
	}

	return nil
}

const orderColumns = `
	id, order_code, product_id, product_name, membership_id, member_id, quantity,
	unit_points, total_points, refunded_quantity, refunded_points, status,
	reason_refund, created_at, completed_at, updated_at
`

func scanOrder(scan func(dest ...interface{}) error) (Order, error) {
	var o Order
	var reasonRefund sql.NullString
	var completedAt sql.NullTime

	err := scan(
		&o.ID, &o.OrderCode, &o.ProductID, &o.ProductName, &o.MembershipID, &o.MemberID, &o.Quantity,
		&o.UnitPoints, &o.TotalPoints, &o.RefundedQuantity, &o.RefundedPoints, &o.Status,
		&reasonRefund, &o.CreatedAt, &completedAt, &o.UpdatedAt,
	)
	if err != nil {
		return Order{}, err
	}

	if reasonRefund.Valid {
		o.ReasonRefund = &reasonRefund.String
	}
	if completedAt.Valid {
		o.CompletedAt = &completedAt.Time
	}

	return o, nil
}

func (r *orderRepository) findByID(ctx context.Context, ID string, forUpdate bool, tx *sql.Tx) (Order, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT ` + orderColumns + `
		FROM redeem_order
		WHERE
			id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	} else {
		query += " LIMIT 1"
	}

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Order{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting redeem order's properties")
	}
	defer stmt.Close()

	o, err := scanOrder(stmt.QueryRowContext(ctx, ID).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return Order{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("redeem order's properties with id '%s' is not found", ID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Order{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting redeem order's properties")
	}

	return o, nil
}

// FindByID implements OrderRepository.
func (r *orderRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Order, error) {
	return r.findByID(ctx, ID, false, tx)
}

// FindByIDForUpdate implements OrderRepository.
func (r *orderRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Order, error) {
	return r.findByID(ctx, ID, true, tx)
}

// Save implements OrderRepository.
func (r *orderRepository) Save(ctx context.Context, o Order, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO redeem_order
		(
			id, order_code, product_id, product_name, membership_id, member_id, quantity,
			unit_points, total_points, refunded_quantity, refunded_points, status,
			reason_refund, created_at, completed_at, updated_at
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving redeem order's properties")
	}
	defer stmt.Close()

	var reasonRefund sql.NullString
	if o.ReasonRefund != nil {
		reasonRefund.Valid = true
		reasonRefund.String = *o.ReasonRefund
	}

	var completedAt sql.NullTime
	if o.CompletedAt != nil {
		completedAt.Valid = true
		completedAt.Time = *o.CompletedAt
	}

	_, err = stmt.ExecContext(ctx,
		o.ID, o.OrderCode, o.ProductID, o.ProductName, o.MembershipID, o.MemberID, o.Quantity,
		o.UnitPoints, o.TotalPoints, o.RefundedQuantity, o.RefundedPoints, o.Status,
		reasonRefund, o.CreatedAt, completedAt, o.UpdatedAt,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving redeem order's properties")
	}

	return nil
}

// Update implements OrderRepository.
func (r *orderRepository) Update(ctx context.Context, o Order, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE redeem_order
		SET
			quantity = $1,
			refunded_quantity = $2,
			refunded_points = $3,
			status = $4,
			reason_refund = $5,
			completed_at = $6,
			updated_at = $7
		WHERE id = $8
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating redeem order's properties")
	}
	defer stmt.Close()

	var reasonRefund sql.NullString
	if o.ReasonRefund != nil {
		reasonRefund.Valid = true
		reasonRefund.String = *o.ReasonRefund
	}

	var completedAt sql.NullTime
	if o.CompletedAt != nil {
		completedAt.Valid = true
		completedAt.Time = *o.CompletedAt
	}

	_, err = stmt.ExecContext(ctx, o.Quantity, o.RefundedQuantity, o.RefundedPoints, o.Status, reasonRefund, completedAt, o.UpdatedAt, o.ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating redeem order's properties")
	}

	return nil
}

// FindManyByMemberID implements OrderRepository.
func (r *orderRepository) FindManyByMemberID(ctx context.Context, memberID string, tx *sql.Tx) ([]Order, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT ` + orderColumns + `
		FROM redeem_order
		WHERE
			member_id = $1
		ORDER BY created_at DESC
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of redeem order's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, memberID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of redeem order's properties")
	}
	defer rows.Close()

	var data = make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of redeem order's properties")
		}

		data = append(data, o)
	}

	return data, nil
}
