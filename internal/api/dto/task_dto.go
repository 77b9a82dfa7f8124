package dto

import (
	"time"

	"github.com/civicdesk/municipal-booking/internal/domain"
)

// AssignTaskRequest payload.
type AssignTaskRequest struct {
	BookingToken string `json:"bookingToken"`
	EmployeeID   int64  `json:"employeeId"`
}

// CompleteTaskRequest payload. The body is optional.
type CompleteTaskRequest struct {
	Notes *string `json:"notes"`
}

// TaskResponse representation. Booking and AssignedEmployee are filled on read endpoints.
type TaskResponse struct {
	ID                 int64             `json:"id"`
	BookingToken       string            `json:"bookingToken"`
	AssignedEmployeeID int64             `json:"assignedEmployeeId"`
	Status             domain.TaskStatus `json:"status"`
	AssignedAt         time.Time         `json:"assignedAt"`
	CompletedAt        *time.Time        `json:"completedAt"`
	Notes              *string           `json:"notes"`
	Booking            *BookingResponse  `json:"booking,omitempty"`
	AssignedEmployee   *EmployeeResponse `json:"assignedEmployee,omitempty"`
}
