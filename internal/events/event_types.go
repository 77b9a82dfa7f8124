package events

import (
	"time"

	"github.com/civicdesk/municipal-booking/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventBookingCreated       EventType = "booking_created"
	EventBookingStatusChanged EventType = "booking_status_changed"
	EventTaskAssigned         EventType = "task_assigned"
	EventTaskCompleted        EventType = "task_completed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID           string      `json:"id"`
	Type         EventType   `json:"type"`
	BookingToken string      `json:"booking_token"`
	Timestamp    time.Time   `json:"timestamp"`
	Payload      interface{} `json:"payload"`
}

// BookingCreatedPayload payload.
type BookingCreatedPayload struct {
	Municipality string    `json:"municipality"`
	ScheduledAt  time.Time `json:"scheduled_at"`
}

// BookingStatusChangedPayload payload.
type BookingStatusChangedPayload struct {
	OldStatus domain.BookingStatus `json:"old_status"`
	NewStatus domain.BookingStatus `json:"new_status"`
}

// TaskAssignedPayload payload.
type TaskAssignedPayload struct {
	TaskID     int64 `json:"task_id"`
	EmployeeID int64 `json:"employee_id"`
}

// TaskCompletedPayload payload.
type TaskCompletedPayload struct {
	TaskID     int64  `json:"task_id"`
	EmployeeID int64  `json:"employee_id"`
	Notes      string `json:"notes,omitempty"`
}
