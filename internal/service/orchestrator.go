package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/civicdesk/municipal-booking/internal/admission"
	"github.com/civicdesk/municipal-booking/internal/domain"
	"github.com/civicdesk/municipal-booking/internal/geo"
	"github.com/civicdesk/municipal-booking/internal/observability"
	"github.com/civicdesk/municipal-booking/internal/repository"
	apperrors "github.com/civicdesk/municipal-booking/pkg/util/errorutil"
)

// MaxDescriptionLength bounds booking descriptions, counted in runes.
const MaxDescriptionLength = 1000

var scheduledAtLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339,
	"2006-01-02",
}

// Orchestrator is the single entry point of the HTTP layer. It validates input,
// runs admission before creation and translates every outcome into a DomainError.
type Orchestrator struct {
	gate      admission.Gate
	bookings  *BookingService
	tasks     *TaskService
	employees *EmployeeService
	directory geo.Directory
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// OrchestratorDependencies bundles collaborators. Directory and Metrics are optional.
type OrchestratorDependencies struct {
	Gate      admission.Gate
	Bookings  *BookingService
	Tasks     *TaskService
	Employees *EmployeeService
	Directory geo.Directory
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// CreateBookingRequest is the raw citizen payload.
type CreateBookingRequest struct {
	Description  string
	Municipality string
	Date         string
}

// AdmissionStatus is a read-only view of one gate key.
type AdmissionStatus struct {
	Municipality string
	Date         time.Time
	Admitted     int
	Limit        int
	Remaining    int
}

// NewOrchestrator wires the facade.
func NewOrchestrator(deps OrchestratorDependencies) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		gate:      deps.Gate,
		bookings:  deps.Bookings,
		tasks:     deps.Tasks,
		employees: deps.Employees,
		directory: deps.Directory,
		metrics:   deps.Metrics,
		logger:    logger,
	}
}

// CreateBooking validates, admits and stores a booking.
func (o *Orchestrator) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	input, err := o.validateBooking(ctx, req)
	if err != nil {
		return nil, err
	}

	decision, err := o.gate.Admit(ctx, input.Municipality, input.ScheduledAt)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	o.metrics.RecordAdmission(input.Municipality, decision.Allowed)
	if !decision.Allowed {
		o.logger.Warn("admission denied",
			zap.String("municipality", input.Municipality),
			zap.String("date", input.ScheduledAt.Format("2006-01-02")),
			zap.Int("limit", decision.Limit))
		return nil, apperrors.NewAdmissionDenied("booking limit reached for municipality and date", map[string]any{
			"municipality": input.Municipality,
			"date":         input.ScheduledAt.Format("2006-01-02"),
			"limit":        decision.Limit,
		})
	}

	booking, err := o.bookings.Create(ctx, input)
	if err != nil {
		if releaseErr := o.gate.Release(ctx, input.Municipality, input.ScheduledAt); releaseErr != nil {
			o.logger.Error("admission release failed",
				zap.String("municipality", input.Municipality),
				zap.Error(releaseErr))
		}
		return nil, err
	}
	o.metrics.RecordTransition(string(booking.Status))
	return booking, nil
}

func (o *Orchestrator) validateBooking(ctx context.Context, req CreateBookingRequest) (BookingCreateInput, error) {
	input := BookingCreateInput{
		Description:  strings.TrimSpace(req.Description),
		Municipality: strings.TrimSpace(req.Municipality),
	}
	missing := []string{}
	if input.Description == "" {
		missing = append(missing, "description")
	}
	if input.Municipality == "" {
		missing = append(missing, "municipality")
	}
	if strings.TrimSpace(req.Date) == "" {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return input, apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}
	if n := utf8.RuneCountInString(input.Description); n > MaxDescriptionLength {
		return input, apperrors.NewValidationError("description too long", map[string]any{
			"length": n,
			"max":    MaxDescriptionLength,
		})
	}
	scheduledAt, err := ParseScheduledAt(req.Date)
	if err != nil {
		return input, err
	}
	input.ScheduledAt = scheduledAt

	if o.directory != nil {
		canonical, known, err := o.directory.Resolve(ctx, input.Municipality)
		switch {
		case err != nil:
			o.logger.Warn("municipality directory unavailable", zap.Error(err))
		case !known:
			return input, apperrors.NewValidationError("unknown municipality", map[string]any{"municipality": input.Municipality})
		default:
			input.Municipality = canonical
		}
	}
	return input, nil
}

// ParseScheduledAt accepts the date formats citizen forms send. Values without
// a zone are read as UTC, and every result is returned in UTC.
func ParseScheduledAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range scheduledAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperrors.NewValidationError("invalid date", map[string]any{"date": raw})
}

func (o *Orchestrator) GetBooking(ctx context.Context, token string) (*domain.Booking, error) {
	return o.bookings.Get(ctx, strings.TrimSpace(token))
}

// ListBookings filters by municipality and status; an unknown status is a validation error.
func (o *Orchestrator) ListBookings(ctx context.Context, municipality, status string) ([]domain.Booking, error) {
	filter := repository.BookingFilter{}
	if m := strings.TrimSpace(municipality); m != "" {
		filter.Municipality = &m
	}
	if strings.TrimSpace(status) != "" {
		parsed, ok := domain.ParseBookingStatus(status)
		if !ok {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
		}
		filter.Status = &parsed
	}
	return o.bookings.List(ctx, filter)
}

func (o *Orchestrator) UpdateBookingStatus(ctx context.Context, token, status string) (*domain.Booking, error) {
	next, ok := domain.ParseBookingStatus(status)
	if !ok {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}
	booking, err := o.bookings.TransitionStatus(ctx, strings.TrimSpace(token), next)
	if err != nil {
		return nil, err
	}
	o.metrics.RecordTransition(string(next))
	return booking, nil
}

func (o *Orchestrator) CancelBooking(ctx context.Context, token string) (*domain.Booking, error) {
	booking, err := o.bookings.Cancel(ctx, strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	o.metrics.RecordTransition(string(domain.BookingStatusCancelled))
	return booking, nil
}

func (o *Orchestrator) BookingHistory(ctx context.Context, token string) ([]domain.StatusHistoryEntry, error) {
	return o.bookings.History(ctx, strings.TrimSpace(token))
}

func (o *Orchestrator) CreateEmployee(ctx context.Context, input EmployeeCreateInput) (*domain.Employee, error) {
	return o.employees.Create(ctx, input)
}

func (o *Orchestrator) GetEmployee(ctx context.Context, id int64) (*domain.Employee, error) {
	return o.employees.Get(ctx, id)
}

func (o *Orchestrator) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	return o.employees.List(ctx)
}

func (o *Orchestrator) ListEmployeesByMunicipality(ctx context.Context, municipality string) ([]domain.Employee, error) {
	return o.employees.ListByMunicipality(ctx, municipality)
}

// AssignTask validates the payload before handing it to the task engine.
func (o *Orchestrator) AssignTask(ctx context.Context, bookingToken string, employeeID int64) (*domain.Task, error) {
	bookingToken = strings.TrimSpace(bookingToken)
	if bookingToken == "" || employeeID <= 0 {
		return nil, apperrors.NewValidationError("bookingToken and employeeId required", nil)
	}
	task, err := o.tasks.Assign(ctx, bookingToken, employeeID)
	if err != nil {
		return nil, err
	}
	o.metrics.RecordTransition(string(domain.BookingStatusAssigned))
	return task, nil
}

func (o *Orchestrator) CompleteTask(ctx context.Context, taskID int64, notes *string) (*domain.Task, error) {
	if notes != nil {
		trimmed := strings.TrimSpace(*notes)
		notes = &trimmed
	}
	task, err := o.tasks.Complete(ctx, taskID, notes)
	if err != nil {
		return nil, err
	}
	o.metrics.RecordTransition(string(domain.BookingStatusCompleted))
	return task, nil
}

func (o *Orchestrator) GetTask(ctx context.Context, taskID int64) (*domain.TaskView, error) {
	return o.tasks.Get(ctx, taskID)
}

func (o *Orchestrator) ListTasks(ctx context.Context) ([]domain.TaskView, error) {
	return o.tasks.List(ctx)
}

func (o *Orchestrator) ListTasksByEmployee(ctx context.Context, employeeID int64) ([]domain.TaskView, error) {
	return o.tasks.ListByEmployee(ctx, employeeID)
}

// AdmissionStatus reports how full a (municipality, date) key is without taking a slot.
func (o *Orchestrator) AdmissionStatus(ctx context.Context, municipality, date string) (*AdmissionStatus, error) {
	municipality = strings.TrimSpace(municipality)
	if municipality == "" {
		return nil, apperrors.NewValidationError("municipality required", nil)
	}
	day, err := ParseScheduledAt(date)
	if err != nil {
		return nil, err
	}
	admitted, err := o.gate.Count(ctx, municipality, day)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	decision := admission.Decision{Admitted: admitted, Limit: o.gate.Limit()}
	return &AdmissionStatus{
		Municipality: municipality,
		Date:         admission.Day(day),
		Admitted:     admitted,
		Limit:        decision.Limit,
		Remaining:    decision.Remaining(),
	}, nil
}
