package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/civicdesk/municipal-booking/internal/domain"
	"github.com/civicdesk/municipal-booking/internal/events"
	"github.com/civicdesk/municipal-booking/internal/repository"
	apperrors "github.com/civicdesk/municipal-booking/pkg/util/errorutil"
)

// TaskService binds employees to bookings and drives task completion.
type TaskService struct {
	tasks      repository.TaskRepository
	employees  repository.EmployeeRepository
	bookings   *BookingService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TaskDependencies bundles repositories.
type TaskDependencies struct {
	TaskRepo     repository.TaskRepository
	EmployeeRepo repository.EmployeeRepository
	Bookings     *BookingService
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewTaskService creates the service. Booking changes go through
// BookingService.WithLocked so tasks and bookings share one unit of work.
func NewTaskService(deps TaskDependencies) *TaskService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{
		tasks:      deps.TaskRepo,
		employees:  deps.EmployeeRepo,
		bookings:   deps.Bookings,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Assign creates the single task for a RECEIVED booking and moves the booking to ASSIGNED.
func (s *TaskService) Assign(ctx context.Context, bookingToken string, employeeID int64) (*domain.Task, error) {
	if _, err := s.employees.GetByID(ctx, employeeID); err != nil {
		return nil, mapEmployeeErr(err, employeeID)
	}

	var task *domain.Task
	_, err := s.bookings.WithLocked(ctx, bookingToken, func(ctx context.Context, locked *LockedBooking) error {
		if existing, err := s.tasks.GetByBookingToken(ctx, bookingToken); err == nil {
			return apperrors.NewConflict("booking already has a task", map[string]any{
				"bookingToken": bookingToken,
				"taskId":       existing.ID,
			})
		} else if !errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewInternalError(err)
		}
		if locked.Status() != domain.BookingStatusReceived {
			return apperrors.NewInvalidState("booking is not awaiting assignment", map[string]any{
				"bookingToken": bookingToken,
				"status":       locked.Status(),
			})
		}

		task = &domain.Task{
			BookingToken:       bookingToken,
			AssignedEmployeeID: employeeID,
			Status:             domain.TaskStatusAssigned,
			AssignedAt:         s.now(),
		}
		if err := s.tasks.Create(ctx, task); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.NewConflict("booking already has a task", map[string]any{"bookingToken": bookingToken})
			}
			return apperrors.NewInternalError(err)
		}
		return locked.Transition(ctx, domain.BookingStatusAssigned)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task assigned",
		zap.Int64("task_id", task.ID),
		zap.String("booking_token", bookingToken),
		zap.Int64("employee_id", employeeID))
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:         events.EventTaskAssigned,
		BookingToken: bookingToken,
		Payload: events.TaskAssignedPayload{
			TaskID:     task.ID,
			EmployeeID: employeeID,
		},
	})
	return task, nil
}

// Complete marks a task COMPLETED and completes its booking in the same unit of work.
// A booking that staff already completed by hand is left as is.
func (s *TaskService) Complete(ctx context.Context, taskID int64, notes *string) (*domain.Task, error) {
	current, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, mapTaskErr(err, taskID)
	}

	var task *domain.Task
	_, err = s.bookings.WithLocked(ctx, current.BookingToken, func(ctx context.Context, locked *LockedBooking) error {
		var err error
		task, err = s.tasks.GetByID(ctx, taskID)
		if err != nil {
			return mapTaskErr(err, taskID)
		}
		if task.Status == domain.TaskStatusCompleted {
			return apperrors.NewInvalidState("task already completed", map[string]any{"taskId": taskID})
		}

		switch locked.Status() {
		case domain.BookingStatusCompleted:
		case domain.BookingStatusCancelled:
			return apperrors.NewInvalidState("booking was cancelled", map[string]any{
				"taskId":       taskID,
				"bookingToken": locked.Token(),
			})
		default:
			if err := locked.Transition(ctx, domain.BookingStatusCompleted); err != nil {
				return err
			}
		}

		completedAt := s.now()
		task.Status = domain.TaskStatusCompleted
		task.CompletedAt = &completedAt
		task.Notes = notes
		if err := s.tasks.Update(ctx, task); err != nil {
			return apperrors.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task completed",
		zap.Int64("task_id", task.ID),
		zap.String("booking_token", task.BookingToken))
	payload := events.TaskCompletedPayload{TaskID: task.ID, EmployeeID: task.AssignedEmployeeID}
	if notes != nil {
		payload.Notes = *notes
	}
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:         events.EventTaskCompleted,
		BookingToken: task.BookingToken,
		Payload:      payload,
	})
	return task, nil
}

// Get returns one task joined with its booking and employee.
func (s *TaskService) Get(ctx context.Context, taskID int64) (*domain.TaskView, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, mapTaskErr(err, taskID)
	}
	view, err := s.view(ctx, *task)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// List returns every task in creation order with denormalized booking and employee views.
func (s *TaskService) List(ctx context.Context) ([]domain.TaskView, error) {
	return s.list(ctx, repository.TaskFilter{})
}

// ListByEmployee returns the tasks assigned to one employee.
func (s *TaskService) ListByEmployee(ctx context.Context, employeeID int64) ([]domain.TaskView, error) {
	if _, err := s.employees.GetByID(ctx, employeeID); err != nil {
		return nil, mapEmployeeErr(err, employeeID)
	}
	return s.list(ctx, repository.TaskFilter{EmployeeID: &employeeID})
}

func (s *TaskService) list(ctx context.Context, filter repository.TaskFilter) ([]domain.TaskView, error) {
	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	views := make([]domain.TaskView, 0, len(tasks))
	for _, task := range tasks {
		view, err := s.view(ctx, task)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// view tolerates a missing booking or employee; the task itself is the source of truth.
func (s *TaskService) view(ctx context.Context, task domain.Task) (domain.TaskView, error) {
	view := domain.TaskView{Task: task}
	booking, err := s.bookings.Get(ctx, task.BookingToken)
	switch {
	case err == nil:
		view.Booking = booking
	case !apperrors.HasCode(err, apperrors.CodeNotFound):
		return view, err
	}
	employee, err := s.employees.GetByID(ctx, task.AssignedEmployeeID)
	switch {
	case err == nil:
		view.Employee = employee
	case !errors.Is(err, repository.ErrNotFound):
		return view, apperrors.NewInternalError(err)
	}
	return view, nil
}

func mapTaskErr(err error, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("task", map[string]any{"taskId": id})
	}
	return apperrors.MapError(err)
}

func mapEmployeeErr(err error, id int64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("employee", map[string]any{"employeeId": id})
	}
	return apperrors.MapError(err)
}
