package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/municipal-booking/internal/api/dto"
	"github.com/civicdesk/municipal-booking/internal/service"
	apperrors "github.com/civicdesk/municipal-booking/pkg/util/errorutil"
)

// TasksHandler manages task assignment endpoints.
type TasksHandler struct {
	facade *service.Orchestrator
}

// NewTasksHandler constructs handler.
func NewTasksHandler(facade *service.Orchestrator) *TasksHandler {
	return &TasksHandler{facade: facade}
}

// Assign POST /api/tasks.
func (h *TasksHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	task, err := h.facade.AssignTask(c.UserContext(), req.BookingToken, req.EmployeeID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(taskResponse(task))
}

// Complete PUT /api/tasks/:id/complete.
func (h *TasksHandler) Complete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.CompleteTaskRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	task, err := h.facade.CompleteTask(c.UserContext(), id, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(taskResponse(task))
}

// List GET /api/tasks.
func (h *TasksHandler) List(c *fiber.Ctx) error {
	views, err := h.facade.ListTasks(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(taskViewResponses(views))
}

// Get GET /api/tasks/:id.
func (h *TasksHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	view, err := h.facade.GetTask(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(taskViewResponse(view))
}

// ListByEmployee GET /api/tasks/employee/:employeeId.
func (h *TasksHandler) ListByEmployee(c *fiber.Ctx) error {
	id, err := parseID(c, "employeeId")
	if err != nil {
		return err
	}
	views, err := h.facade.ListTasksByEmployee(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(taskViewResponses(views))
}
