package service

import (
	"context"
	"strings"

	"github.com/civicdesk/municipal-booking/internal/domain"
	"github.com/civicdesk/municipal-booking/internal/repository"
	apperrors "github.com/civicdesk/municipal-booking/pkg/util/errorutil"
)

// EmployeeService manages the municipal workforce tasks are assigned to.
type EmployeeService struct {
	employees repository.EmployeeRepository
}

// EmployeeCreateInput is the administrative payload for a new employee.
type EmployeeCreateInput struct {
	Name         string
	Email        string
	Municipality string
	Role         string
}

// NewEmployeeService constructs the service.
func NewEmployeeService(repo repository.EmployeeRepository) *EmployeeService {
	return &EmployeeService{employees: repo}
}

// Create validates and stores an employee.
func (s *EmployeeService) Create(ctx context.Context, input EmployeeCreateInput) (*domain.Employee, error) {
	employee := &domain.Employee{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.TrimSpace(input.Email),
		Municipality: strings.TrimSpace(input.Municipality),
		Role:         strings.TrimSpace(input.Role),
	}
	missing := []string{}
	if employee.Name == "" {
		missing = append(missing, "name")
	}
	if employee.Email == "" {
		missing = append(missing, "email")
	}
	if employee.Municipality == "" {
		missing = append(missing, "municipality")
	}
	if employee.Role == "" {
		missing = append(missing, "role")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}
	if !strings.Contains(employee.Email, "@") {
		return nil, apperrors.NewValidationError("invalid email", map[string]any{"email": employee.Email})
	}

	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return employee, nil
}

// Get returns one employee.
func (s *EmployeeService) Get(ctx context.Context, id int64) (*domain.Employee, error) {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, mapEmployeeErr(err, id)
	}
	return employee, nil
}

// List returns all employees in creation order.
func (s *EmployeeService) List(ctx context.Context) ([]domain.Employee, error) {
	return s.list(ctx, repository.EmployeeFilter{})
}

// ListByMunicipality returns employees serving one municipality.
func (s *EmployeeService) ListByMunicipality(ctx context.Context, municipality string) ([]domain.Employee, error) {
	municipality = strings.TrimSpace(municipality)
	return s.list(ctx, repository.EmployeeFilter{Municipality: &municipality})
}

func (s *EmployeeService) list(ctx context.Context, filter repository.EmployeeFilter) ([]domain.Employee, error) {
	employees, err := s.employees.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return employees, nil
}
