package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicdesk/municipal-booking/internal/domain"
)

// TaskFilter narrows task listings.
type TaskFilter struct {
	EmployeeID *int64
}

// TaskRepository encapsulates task persistence. Create returns ErrDuplicate
// when the booking token already has a task.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	GetByBookingToken(ctx context.Context, token string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository instantiates repository.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

const taskColumns = `id, booking_token, employee_id, status, assigned_at, completed_at, notes`

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	const query = `
        INSERT INTO tasks (booking_token, employee_id, status, assigned_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		task.BookingToken,
		task.AssignedEmployeeID,
		task.Status,
		task.AssignedAt,
	).Scan(&task.ID)
	return mapPgError(err)
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	const query = `UPDATE tasks SET status=$1, completed_at=$2, notes=$3 WHERE id=$4`
	cmd, err := conn(ctx, r.pool).Exec(ctx, query,
		task.Status,
		task.CompletedAt,
		task.Notes,
		task.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *taskRepository) GetByBookingToken(ctx context.Context, token string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE booking_token=$1`
	return r.fetchSingle(ctx, query, token)
}

func (r *taskRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Task, error) {
	var task domain.Task
	if err := conn(ctx, r.pool).QueryRow(ctx, query, arg).Scan(
		&task.ID,
		&task.BookingToken,
		&task.AssignedEmployeeID,
		&task.Status,
		&task.AssignedAt,
		&task.CompletedAt,
		&task.Notes,
	); err != nil {
		return nil, mapPgError(err)
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, filter TaskFilter) ([]domain.Task, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.EmployeeID != nil {
		args = append(args, *filter.EmployeeID)
		clauses = append(clauses, fmt.Sprintf("employee_id=$%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE %s ORDER BY id ASC`,
		taskColumns, strings.Join(clauses, " AND "))

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

func scanTasks(rows pgx.Rows) ([]domain.Task, error) {
	result := []domain.Task{}
	for rows.Next() {
		var task domain.Task
		if err := rows.Scan(
			&task.ID,
			&task.BookingToken,
			&task.AssignedEmployeeID,
			&task.Status,
			&task.AssignedAt,
			&task.CompletedAt,
			&task.Notes,
		); err != nil {
			return nil, err
		}
		result = append(result, task)
	}
	return result, rows.Err()
}
