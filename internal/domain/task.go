package domain

import "time"

// TaskStatus enumerates lifecycle states for tasks.
type TaskStatus string

const (
	TaskStatusAssigned  TaskStatus = "ASSIGNED"
	TaskStatusCompleted TaskStatus = "COMPLETED"
)

// Task binds one employee to one booking.
type Task struct {
	ID                 int64
	BookingToken       string
	AssignedEmployeeID int64
	Status             TaskStatus
	AssignedAt         time.Time
	CompletedAt        *time.Time
	Notes              *string
}

// TaskView is the read-side join of a task with its booking and employee.
type TaskView struct {
	Task     Task
	Booking  *Booking
	Employee *Employee
}
