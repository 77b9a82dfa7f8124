package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicdesk/municipal-booking/internal/domain"
)

// BookingHistoryRepository stores the append-only status log.
type BookingHistoryRepository interface {
	Append(ctx context.Context, entry *domain.StatusHistoryEntry) error
	ListByBooking(ctx context.Context, token string) ([]domain.StatusHistoryEntry, error)
}

type bookingHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewBookingHistoryRepository builds repository.
func NewBookingHistoryRepository(pool *pgxpool.Pool) BookingHistoryRepository {
	return &bookingHistoryRepository{pool: pool}
}

func (r *bookingHistoryRepository) Append(ctx context.Context, entry *domain.StatusHistoryEntry) error {
	const query = `
        INSERT INTO booking_history (booking_token, status, recorded_at)
        VALUES ($1,$2,$3)
        RETURNING id`
	return conn(ctx, r.pool).QueryRow(ctx, query,
		entry.BookingToken,
		entry.Status,
		entry.Timestamp,
	).Scan(&entry.ID)
}

// ListByBooking orders by id so entries written within one clock tick keep append order.
func (r *bookingHistoryRepository) ListByBooking(ctx context.Context, token string) ([]domain.StatusHistoryEntry, error) {
	const query = `
        SELECT id, booking_token, status, recorded_at
        FROM booking_history WHERE booking_token=$1 ORDER BY id ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, token)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.StatusHistoryEntry{}
	for rows.Next() {
		var entry domain.StatusHistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.BookingToken,
			&entry.Status,
			&entry.Timestamp,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
