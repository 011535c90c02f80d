package event

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/uniclub/uc-points/pkg/errors"
	"github.com/uniclub/uc-points/pkg/status"
)

type EventRepository interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(ctx context.Context, tx *sql.Tx) error
	Rollback(ctx context.Context, tx *sql.Tx) error

	Save(ctx context.Context, e Event, tx *sql.Tx) error
	FindByID(ctx context.Context, ID string, tx *sql.Tx) (Event, error)
	FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Event, error)
	UpdateStatus(ctx context.Context, ID string, s Status, tx *sql.Tx) error
	UpdateCheckInCount(ctx context.Context, ID string, count int64, tx *sql.Tx) error
}

type sqlCommand interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type eventRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewEventRepository(logger *logrus.Logger, db *sql.DB) EventRepository {
	return &eventRepository{
		logger: logger,
		db:     db,
	}
}

// BeginTx implements EventRepository.
func (r *eventRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to begin transaction")
	}

	return tx, nil
}

// CommitTx implements EventRepository.
func (r *eventRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to commit transaction")
	}

	return nil
}

// Rollback implements EventRepository.
func (r *eventRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Rollback(); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred trying to rollback transaction")
	}

	return nil
}

const eventColumns = `
	id, host_club_id, name, description, status, event_date, start_time, end_time,
	max_check_in_count, current_check_in_count, commit_point_cost, budget_points,
	created_at, updated_at
`

func (r *eventRepository) scanEvent(row *sql.Row) (Event, error) {
	var data Event
	var date sql.NullTime
	var startTime, endTime sql.NullString

	err := row.Scan(
		&data.ID, &data.HostClubID, &data.Name, &data.Description, &data.Status, &date, &startTime, &endTime,
		&data.MaxCheckInCount, &data.CurrentCheckInCount, &data.CommitPointCost, &data.BudgetPoints,
		&data.CreatedAt, &data.UpdatedAt,
	)
	if err != nil {
		return Event{}, err
	}

	if date.Valid {
		data.Date = &date.Time
	}
	data.StartTime = startTime.String
	data.EndTime = endTime.String

	return data, nil
}

func (r *eventRepository) findByID(ctx context.Context, ID string, forUpdate bool, tx *sql.Tx) (Event, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM event
		WHERE
			id = $1
	`, eventColumns)
	if forUpdate {
		query += " FOR UPDATE"
	} else {
		query += " LIMIT 1"
	}

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Event{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting event's properties")
	}
	defer stmt.Close()

	data, err := r.scanEvent(stmt.QueryRowContext(ctx, ID))
	if err != nil {
		if err == sql.ErrNoRows {
			return Event{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("event's properties with id '%s' is not found", ID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Event{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting event's properties")
	}

	days, err := r.findDays(ctx, ID, cmd)
	if err != nil {
		return Event{}, err
	}
	data.Days = days

	return data, nil
}

func (r *eventRepository) findDays(ctx context.Context, eventID string, cmd sqlCommand) ([]Day, error) {
	query := `
		SELECT event_id, event_date, start_time, end_time
		FROM event_day
		WHERE
			event_id = $1
		ORDER BY event_date ASC
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of event day's properties")
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, eventID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of event day's properties")
	}
	defer rows.Close()

	var data []Day
	for rows.Next() {
		var d Day
		var endTime sql.NullString

		if err := rows.Scan(&d.EventID, &d.Date, &d.StartTime, &endTime); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error()
			return nil, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting bunch of event day's properties")
		}
		d.EndTime = endTime.String

		data = append(data, d)
	}

	return data, nil
}

// FindByID implements EventRepository.
func (r *eventRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Event, error) {
	return r.findByID(ctx, ID, false, tx)
}

// FindByIDForUpdate implements EventRepository.
func (r *eventRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Event, error) {
	return r.findByID(ctx, ID, true, tx)
}

// Save implements EventRepository.
func (r *eventRepository) Save(ctx context.Context, e Event, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		INSERT INTO event
		(
			id, host_club_id, name, description, status, event_date, start_time, end_time,
			max_check_in_count, current_check_in_count, commit_point_cost, budget_points,
			created_at, updated_at
		)
		VALUES
		(
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving event's properties")
	}
	defer stmt.Close()

	var date sql.NullTime
	if e.Date != nil {
		date.Valid = true
		date.Time = *e.Date
	}

	_, err = stmt.ExecContext(ctx,
		e.ID, e.HostClubID, e.Name, e.Description, e.Status, date, e.StartTime, e.EndTime,
		e.MaxCheckInCount, e.CurrentCheckInCount, e.CommitPointCost, e.BudgetPoints,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving event's properties")
	}

	for _, d := range e.Days {
		if err := r.saveDay(ctx, d, cmd); err != nil {
			return err
		}
	}

	return nil
}

func (r *eventRepository) saveDay(ctx context.Context, d Day, cmd sqlCommand) error {
	query := `
		INSERT INTO event_day
		(
			event_id, event_date, start_time, end_time
		)
		VALUES
		(
			$1, $2, $3, $4
		)
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving event day's properties")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, d.EventID, d.Date, d.StartTime, d.EndTime)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while saving event day's properties")
	}

	return nil
}

// UpdateStatus implements EventRepository.
func (r *eventRepository) UpdateStatus(ctx context.Context, ID string, s Status, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE event
		SET
			status = $1,
			updated_at = now()
		WHERE id = $2
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating event's properties")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, s, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating event's properties")
	}

	return nil
}

// UpdateCheckInCount implements EventRepository.
func (r *eventRepository) UpdateCheckInCount(ctx context.Context, ID string, count int64, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE event
		SET
			current_check_in_count = $1,
			updated_at = now()
		WHERE id = $2
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating event's properties")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, count, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating event's properties")
	}

	return nil
}
