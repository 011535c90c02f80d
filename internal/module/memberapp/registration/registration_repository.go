package registration

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uniclub/uc-points/pkg/errors"
	"github.com/uniclub/uc-points/pkg/status"
)

type RegistrationRepository interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(ctx context.Context, tx *sql.Tx) error
	Rollback(ctx context.Context, tx *sql.Tx) error

	Save(ctx context.Context, reg Registration, tx *sql.Tx) error
	Update(ctx context.Context, reg Registration, tx *sql.Tx) error
	FindByEventAndMember(ctx context.Context, eventID, memberID string, tx *sql.Tx) (Registration, bool, error)
	FindByEventAndMemberForUpdate(ctx context.Context, eventID, memberID string, tx *sql.Tx) (Registration, bool, error)
	FindManyByEventID(ctx context.Context, eventID string, tx *sql.Tx) ([]Registration, error)
	FindManyByMemberID(ctx context.Context, memberID string, tx *sql.Tx) ([]Registration, error)
	FindStatusByEventAndMember(ctx context.Context, eventID, memberID string, tx *sql.Tx) (string, bool, error)
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type registrationRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewRegistrationRepository(logger *logrus.Logger, db *sql.DB) RegistrationRepository {
	return &registrationRepository{
		logger: logger,
		db:     db,
	}
}

// BeginTx implements RegistrationRepository.
func (r *registrationRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to begin transaction")
	}

	return tx, nil
}

// CommitTx implements RegistrationRepository.
func (r *registrationRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to commit transaction")
	}

	return nil
}

// Rollback implements RegistrationRepository.
func (r *registrationRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Rollback(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to rollback transaction")
	}

	return nil
}

const registrationColumns = `
	event_id, member_id, status, committed_points, revision, registered_at, updated_at
`

// Save implements RegistrationRepository.
func (r *registrationRepository) Save(ctx context.Context, reg Registration, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO registration
		(
			event_id, member_id, status, committed_points, revision, registered_at, updated_at
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving registration's properties")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, reg.EventID, reg.MemberID, reg.Status, reg.CommittedPoints, reg.Revision, reg.RegisteredAt, reg.UpdatedAt)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving registration's properties")
	}

	return nil
}

// Update implements RegistrationRepository.
func (r *registrationRepository) Update(ctx context.Context, reg Registration, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE registration
		SET
			status = $1,
			committed_points = $2,
			revision = $3,
			registered_at = $4,
			updated_at = $5
		WHERE
			event_id = $6
		AND
			member_id = $7
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating registration's properties")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, reg.Status, reg.CommittedPoints, reg.Revision, reg.RegisteredAt, reg.UpdatedAt, reg.EventID, reg.MemberID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating registration's properties")
	}

	return nil
}

func (r *registrationRepository) findByEventAndMember(ctx context.Context, eventID, memberID string, forUpdate bool, tx *sql.Tx) (Registration, bool, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT ` + registrationColumns + `
		FROM registration
		WHERE
			event_id = $1
		AND
			member_id = $2
	`
	if forUpdate {
		query += " FOR UPDATE"
	} else {
		query += " LIMIT 1"
	}

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Registration{}, false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting registration's properties")
	}
	defer stmt.Close()

	var reg Registration
	err = stmt.QueryRowContext(ctx, eventID, memberID).Scan(
		&reg.EventID, &reg.MemberID, &reg.Status, &reg.CommittedPoints, &reg.Revision, &reg.RegisteredAt, &reg.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Registration{}, false, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Registration{}, false, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting registration's properties")
	}

	return reg, true, nil
}

// FindByEventAndMember implements RegistrationRepository.
func (r *registrationRepository) FindByEventAndMember(ctx context.Context, eventID, memberID string, tx *sql.Tx) (Registration, bool, error) {
	return r.findByEventAndMember(ctx, eventID, memberID, false, tx)
}

// FindByEventAndMemberForUpdate implements RegistrationRepository.
func (r *registrationRepository) FindByEventAndMemberForUpdate(ctx context.Context, eventID, memberID string, tx *sql.Tx) (Registration, bool, error) {
	return r.findByEventAndMember(ctx, eventID, memberID, true, tx)
}

// FindStatusByEventAndMember implements RegistrationRepository.
func (r *registrationRepository) FindStatusByEventAndMember(ctx context.Context, eventID, memberID string, tx *sql.Tx) (string, bool, error) {
	reg, found, err := r.findByEventAndMember(ctx, eventID, memberID, false, tx)
	if err != nil || !found {
		return "", false, err
	}

	return string(reg.Status), true, nil
}

func (r *registrationRepository) findMany(ctx context.Context, column, value string, tx *sql.Tx) ([]Registration, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT ` + registrationColumns + `
		FROM registration
		WHERE
			` + column + ` = $1
		ORDER BY registered_at DESC
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of registration's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, value)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of registration's properties")
	}
	defer rows.Close()

	var data = make([]Registration, 0)
	for rows.Next() {
		var reg Registration
		var registeredAt, updatedAt time.Time

		if err := rows.Scan(&reg.EventID, &reg.MemberID, &reg.Status, &reg.CommittedPoints, &reg.Revision, &registeredAt, &updatedAt); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of registration's properties")
		}
		reg.RegisteredAt = registeredAt
		reg.UpdatedAt = updatedAt

		data = append(data, reg)
	}

	return data, nil
}

// FindManyByEventID implements RegistrationRepository.
func (r *registrationRepository) FindManyByEventID(ctx context.Context, eventID string, tx *sql.Tx) ([]Registration, error) {
	return r.findMany(ctx, "event_id", eventID, tx)
}

// FindManyByMemberID implements RegistrationRepository.
func (r *registrationRepository) FindManyByMemberID(ctx context.Context, memberID string, tx *sql.Tx) ([]Registration, error) {
	return r.findMany(ctx, "member_id", memberID, tx)
}
