package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicdesk/municipal-booking/internal/domain"
)

// BookingFilter captures optional, conjunctive listing filters.
type BookingFilter struct {
	Municipality *string
	Status       *domain.BookingStatus
}

// BookingRepository encapsulates booking persistence.
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	UpdateStatus(ctx context.Context, booking *domain.Booking) error
	GetByToken(ctx context.Context, token string) (*domain.Booking, error)
	// GetByTokenForUpdate locks the row until the surrounding transaction ends.
	GetByTokenForUpdate(ctx context.Context, token string) (*domain.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)
	// CountActive counts non-cancelled bookings scheduled within [dayStart, dayStart+24h).
	// Municipality names compare without case.
	CountActive(ctx context.Context, municipality string, dayStart time.Time) (int, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

// NewBookingRepository instantiates repository.
func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingColumns = `id, token, description, municipality, scheduled_at, status, created_at, updated_at`

func (r *bookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	const query = `
        INSERT INTO bookings (token, description, municipality, scheduled_at, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		booking.Token,
		booking.Description,
		booking.Municipality,
		booking.ScheduledAt,
		booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	return mapPgError(err)
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, booking *domain.Booking) error {
	const query = `UPDATE bookings SET status=$1, updated_at=NOW() WHERE token=$2 RETURNING updated_at`
	err := conn(ctx, r.pool).QueryRow(ctx, query, booking.Status, booking.Token).Scan(&booking.UpdatedAt)
	return mapPgError(err)
}

func (r *bookingRepository) GetByToken(ctx context.Context, token string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE token=$1`
	return r.fetchSingle(ctx, query, token)
}

func (r *bookingRepository) GetByTokenForUpdate(ctx context.Context, token string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE token=$1 FOR UPDATE`
	return r.fetchSingle(ctx, query, token)
}

func (r *bookingRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Booking, error) {
	var booking domain.Booking
	if err := conn(ctx, r.pool).QueryRow(ctx, query, arg).Scan(
		&booking.ID,
		&booking.Token,
		&booking.Description,
		&booking.Municipality,
		&booking.ScheduledAt,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	return &booking, nil
}

func (r *bookingRepository) List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Municipality != nil {
		args = append(args, *filter.Municipality)
		clauses = append(clauses, fmt.Sprintf("municipality=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE %s ORDER BY id ASC`,
		bookingColumns, strings.Join(clauses, " AND "))

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (r *bookingRepository) CountActive(ctx context.Context, municipality string, dayStart time.Time) (int, error) {
	const query = `
        SELECT COUNT(*) FROM bookings
        WHERE lower(municipality)=lower($1) AND scheduled_at >= $2 AND scheduled_at < $3 AND status <> $4`
	var count int
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		municipality,
		dayStart,
		dayStart.AddDate(0, 0, 1),
		domain.BookingStatusCancelled,
	).Scan(&count)
	return count, err
}

func scanBookings(rows pgx.Rows) ([]domain.Booking, error) {
	result := []domain.Booking{}
	for rows.Next() {
		var booking domain.Booking
		if err := rows.Scan(
			&booking.ID,
			&booking.Token,
			&booking.Description,
			&booking.Municipality,
			&booking.ScheduledAt,
			&booking.Status,
			&booking.CreatedAt,
			&booking.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, booking)
	}
	return result, rows.Err()
}
