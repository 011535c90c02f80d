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

type ProductRepository interface {
	FindByID(ctx context.Context, ID string, tx *sql.Tx) (Product, error)
	FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Product, error)
	UpdateStock(ctx context.Context, ID string, stock int64, tx *sql.Tx) error
}

type productRepository struct {
	logger *logrus.Logger
	db     *sql.DB
}

func NewProductRepository(logger *logrus.Logger, db *sql.DB) ProductRepository {
	return &productRepository{
		logger: logger,
		db:     db,
	}
}

func (r *productRepository) findByID(ctx context.Context, ID string, forUpdate bool, tx *sql.Tx) (Product, error) {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		SELECT
			id, club_id, name, unit_points, stock, created_at, updated_at
		FROM product
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
		return Product{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting product's properties")
	}
	defer stmt.Close()

	var data Product
	err = stmt.QueryRowContext(ctx, ID).Scan(
		&data.ID, &data.ClubID, &data.Name, &data.UnitPoints, &data.Stock, &data.CreatedAt, &data.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Product{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("product's properties with id '%s' is not found", ID))
		}
		r.logger.WithContext(ctx).WithError(err).Error()
		return Product{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting product's properties")
	}

	return data, nil
}

// FindByID implements ProductRepository.
func (r *productRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Product, error) {
	return r.findByID(ctx, ID, false, tx)
}

// FindByIDForUpdate implements ProductRepository.
func (r *productRepository) FindByIDForUpdate(ctx context.Context, ID string, tx *sql.Tx) (Product, error) {
	return r.findByID(ctx, ID, true, tx)
}

// UpdateStock implements ProductRepository.
func (r *productRepository) UpdateStock(ctx context.Context, ID string, stock int64, tx *sql.Tx) error {
	var cmd sqlCommand = r.db

	if tx != nil {
		cmd = tx
	}

	query := `
		UPDATE product
		SET
			stock = $1,
			updated_at = now()
		WHERE id = $2
	`

	stmt, err := cmd.PrepareContext(ctx, query)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating product's properties")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, stock, ID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while updating product's properties")
	}

	return nil
}
