package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/municipal-booking/internal/api/dto"
	"github.com/civicdesk/municipal-booking/internal/domain"
	apperrors "github.com/civicdesk/municipal-booking/pkg/util/errorutil"
)

func parseID(c *fiber.Ctx, param string) (int64, error) {
	raw := strings.TrimSpace(c.Params(param))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+param, map[string]any{param: raw})
	}
	return id, nil
}

func bookingResponse(booking *domain.Booking) dto.BookingResponse {
	return dto.BookingResponse{
		Token:        booking.Token,
		Description:  booking.Description,
		Municipality: booking.Municipality,
		Date:         booking.ScheduledAt,
		Status:       booking.Status,
		CreatedAt:    booking.CreatedAt,
		UpdatedAt:    booking.UpdatedAt,
	}
}

func bookingResponses(bookings []domain.Booking) []dto.BookingResponse {
	items := make([]dto.BookingResponse, 0, len(bookings))
	for i := range bookings {
		items = append(items, bookingResponse(&bookings[i]))
	}
	return items
}

func historyResponses(entries []domain.StatusHistoryEntry) []dto.StatusHistoryResponse {
	items := make([]dto.StatusHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.StatusHistoryResponse{Status: entry.Status, Timestamp: entry.Timestamp})
	}
	return items
}

func employeeResponse(employee *domain.Employee) dto.EmployeeResponse {
	return dto.EmployeeResponse{
		ID:           employee.ID,
		Name:         employee.Name,
		Email:        employee.Email,
		Municipality: employee.Municipality,
		Role:         employee.Role,
		CreatedAt:    employee.CreatedAt,
	}
}

func employeeResponses(employees []domain.Employee) []dto.EmployeeResponse {
	items := make([]dto.EmployeeResponse, 0, len(employees))
	for i := range employees {
		items = append(items, employeeResponse(&employees[i]))
	}
	return items
}

func taskResponse(task *domain.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:                 task.ID,
		BookingToken:       task.BookingToken,
		AssignedEmployeeID: task.AssignedEmployeeID,
		Status:             task.Status,
		AssignedAt:         task.AssignedAt,
		CompletedAt:        task.CompletedAt,
		Notes:              task.Notes,
	}
}

func taskViewResponse(view *domain.TaskView) dto.TaskResponse {
	resp := taskResponse(&view.Task)
	if view.Booking != nil {
		booking := bookingResponse(view.Booking)
		resp.Booking = &booking
	}
	if view.Employee != nil {
		employee := employeeResponse(view.Employee)
		resp.AssignedEmployee = &employee
	}
	return resp
}

func taskViewResponses(views []domain.TaskView) []dto.TaskResponse {
	items := make([]dto.TaskResponse, 0, len(views))
	for i := range views {
		items = append(items, taskViewResponse(&views[i]))
	}
	return items
}
