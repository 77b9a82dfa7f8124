package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/municipal-booking/internal/api/dto"
	"github.com/civicdesk/municipal-booking/internal/service"
	apperrors "github.com/civicdesk/municipal-booking/pkg/util/errorutil"
)

// EmployeesHandler manages employee endpoints.
type EmployeesHandler struct {
	facade *service.Orchestrator
}

// NewEmployeesHandler constructs handler.
func NewEmployeesHandler(facade *service.Orchestrator) *EmployeesHandler {
	return &EmployeesHandler{facade: facade}
}

// Create POST /api/employees.
func (h *EmployeesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateEmployeeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	employee, err := h.facade.CreateEmployee(c.UserContext(), service.EmployeeCreateInput{
		Name:         req.Name,
		Email:        req.Email,
		Municipality: req.Municipality,
		Role:         req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(employeeResponse(employee))
}

// List GET /api/employees.
func (h *EmployeesHandler) List(c *fiber.Ctx) error {
	employees, err := h.facade.ListEmployees(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(employeeResponses(employees))
}

// Get GET /api/employees/:id.
func (h *EmployeesHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	employee, err := h.facade.GetEmployee(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(employeeResponse(employee))
}

// ListByMunicipality GET /api/employees/municipality/:municipality.
func (h *EmployeesHandler) ListByMunicipality(c *fiber.Ctx) error {
	employees, err := h.facade.ListEmployeesByMunicipality(c.UserContext(), c.Params("municipality"))
	if err != nil {
		return err
	}
	return c.JSON(employeeResponses(employees))
}
