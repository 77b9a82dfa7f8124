package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicdesk/municipal-booking/internal/domain"
)

// EmployeeRepository handles persistence for employees.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *domain.Employee) error
	GetByID(ctx context.Context, id int64) (*domain.Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, error)
}

// EmployeeFilter defines query params for employee listing.
type EmployeeFilter struct {
	Municipality *string
}

type employeeRepository struct {
	pool *pgxpool.Pool
}

// NewEmployeeRepository instantiates the repository.
func NewEmployeeRepository(pool *pgxpool.Pool) EmployeeRepository {
	return &employeeRepository{pool: pool}
}

func (r *employeeRepository) Create(ctx context.Context, employee *domain.Employee) error {
	const query = `
        INSERT INTO employees (name, email, municipality, role)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`

	err := conn(ctx, r.pool).QueryRow(ctx, query,
		employee.Name,
		employee.Email,
		employee.Municipality,
		employee.Role,
	).Scan(&employee.ID, &employee.CreatedAt)
	return mapPgError(err)
}

func (r *employeeRepository) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	const query = `
        SELECT id, name, email, municipality, role, created_at
        FROM employees WHERE id=$1`

	var employee domain.Employee
	if err := conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&employee.ID,
		&employee.Name,
		&employee.Email,
		&employee.Municipality,
		&employee.Role,
		&employee.CreatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	return &employee, nil
}

func (r *employeeRepository) List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, error) {
	query := `
        SELECT id, name, email, municipality, role, created_at
        FROM employees`
	args := []any{}
	clauses := []string{}

	if filter.Municipality != nil {
		args = append(args, *filter.Municipality)
		clauses = append(clauses, fmt.Sprintf("municipality=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Employee{}
	for rows.Next() {
		var employee domain.Employee
		if err := rows.Scan(
			&employee.ID,
			&employee.Name,
			&employee.Email,
			&employee.Municipality,
			&employee.Role,
			&employee.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, employee)
	}
	return result, rows.Err()
}
