package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/jafarshop/exactsync/internal/domain"
	"github.com/jafarshop/exactsync/pkg/errors"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint
// violation. Two workers racing on the same order resolve here.
const uniqueViolation = "23505"

type reservationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db *sql.DB, logger *zap.Logger) *reservationRepository {
	return &reservationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *reservationRepository) GetByOrderID(ctx context.Context, orderID int64) (*domain.OrderReservation, error) {
	query := `
		SELECT order_id, order_number, processed_at, exact_order_id, exact_order_number
		FROM order_reservations
		WHERE order_id = $1
	`
	return r.scanOne(ctx, query, orderID)
}

func (r *reservationRepository) GetByOrderNumber(ctx context.Context, orderNumber int64) (*domain.OrderReservation, error) {
	query := `
		SELECT order_id, order_number, processed_at, exact_order_id, exact_order_number
		FROM order_reservations
		WHERE order_number = $1
	`
	return r.scanOne(ctx, query, orderNumber)
}

func (r *reservationRepository) scanOne(ctx context.Context, query string, arg interface{}) (*domain.OrderReservation, error) {
	var res domain.OrderReservation
	var exactOrderID sql.NullString
	var exactOrderNumber sql.NullString

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&res.OrderID,
		&res.OrderNumber,
		&res.ProcessedAt,
		&exactOrderID,
		&exactOrderNumber,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "reservation", ID: "order"}
	}
	if err != nil {
		r.logger.Error("Failed to query reservation", zap.Error(err))
		return nil, err
	}

	if exactOrderID.Valid {
		id, err := uuid.Parse(exactOrderID.String)
		if err == nil {
			res.ExactOrderID = &id
		}
	}
	if exactOrderNumber.Valid {
		res.ExactOrderNumber = &exactOrderNumber.String
	}

	return &res, nil
}

func (r *reservationRepository) Create(ctx context.Context, res *domain.OrderReservation) error {
	query := `
		INSERT INTO order_reservations (order_id, order_number, processed_at)
		VALUES ($1, $2, $3)
	`

	if res.ProcessedAt.IsZero() {
		res.ProcessedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query, res.OrderID, res.OrderNumber, res.ProcessedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return &errors.ErrDuplicateOrder{OrderID: res.OrderID}
		}
		r.logger.Error("Failed to create reservation", zap.Error(err))
		return err
	}

	return nil
}

func (r *reservationRepository) SetExactOrder(ctx context.Context, orderID int64, exactOrderID uuid.UUID, exactOrderNumber string) error {
	query := `
		UPDATE order_reservations
		SET exact_order_id = $2, exact_order_number = $3
		WHERE order_id = $1
	`

	result, err := r.db.ExecContext(ctx, query, orderID, exactOrderID.String(), exactOrderNumber)
	if err != nil {
		r.logger.Error("Failed to update reservation", zap.Error(err))
		return err
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return &errors.ErrNotFound{Resource: "reservation", ID: "order"}
	}

	return nil
}

func (r *reservationRepository) Delete(ctx context.Context, orderID int64) error {
	query := `DELETE FROM order_reservations WHERE order_id = $1`

	_, err := r.db.ExecContext(ctx, query, orderID)
	if err != nil {
		r.logger.Error("Failed to delete reservation", zap.Error(err))
		return err
	}

	return nil
}

func (r *reservationRepository) ListRecent(ctx context.Context, limit int) ([]*domain.OrderReservation, error) {
	query := `
		SELECT order_id, order_number, processed_at, exact_order_id, exact_order_number
		FROM order_reservations
		ORDER BY processed_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to list reservations", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var reservations []*domain.OrderReservation
	for rows.Next() {
		var res domain.OrderReservation
		var exactOrderID sql.NullString
		var exactOrderNumber sql.NullString

		err := rows.Scan(
			&res.OrderID,
			&res.OrderNumber,
			&res.ProcessedAt,
			&exactOrderID,
			&exactOrderNumber,
		)
		if err != nil {
			continue
		}

		if exactOrderID.Valid {
			if id, err := uuid.Parse(exactOrderID.String); err == nil {
				res.ExactOrderID = &id
			}
		}
		if exactOrderNumber.Valid {
			res.ExactOrderNumber = &exactOrderNumber.String
		}

		reservations = append(reservations, &res)
	}

	return reservations, rows.Err()
}
