package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/civicdesk/municipal-booking/internal/admission"
	"github.com/civicdesk/municipal-booking/internal/domain"
	"github.com/civicdesk/municipal-booking/internal/events"
	"github.com/civicdesk/municipal-booking/internal/geo"
	"github.com/civicdesk/municipal-booking/internal/locks"
	"github.com/civicdesk/municipal-booking/internal/repository"
)

type harness struct {
	bookingRepo  repository.BookingRepository
	historyRepo  *repository.MemoryBookingHistoryRepository
	employeeRepo *repository.MemoryEmployeeRepository
	taskRepo     *repository.MemoryTaskRepository
	gate         *admission.MemoryGate
	dispatcher   events.Dispatcher
	recorder     *eventRecorder

	bookings  *BookingService
	tasks     *TaskService
	employees *EmployeeService
	facade    *Orchestrator
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	limit       int
	bookingRepo repository.BookingRepository
	directory   geo.Directory
}

func withLimit(n int) harnessOption {
	return func(c *harnessConfig) { c.limit = n }
}

func withBookingRepo(repo repository.BookingRepository) harnessOption {
	return func(c *harnessConfig) { c.bookingRepo = repo }
}

func withDirectory(d geo.Directory) harnessOption {
	return func(c *harnessConfig) { c.directory = d }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	cfg := harnessConfig{limit: 5}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.bookingRepo == nil {
		cfg.bookingRepo = repository.NewMemoryBookingRepository()
	}

	h := &harness{
		bookingRepo:  cfg.bookingRepo,
		historyRepo:  repository.NewMemoryBookingHistoryRepository(),
		employeeRepo: repository.NewMemoryEmployeeRepository(),
		taskRepo:     repository.NewMemoryTaskRepository(),
		dispatcher:   events.NewInMemoryDispatcher(),
		recorder:     &eventRecorder{},
	}
	h.recorder.subscribe(h.dispatcher)
	h.gate = admission.NewMemoryGate(cfg.limit, h.bookingRepo.CountActive)
	h.bookings = NewBookingService(BookingDependencies{
		BookingRepo: h.bookingRepo,
		HistoryRepo: h.historyRepo,
		TxManager:   repository.NewMemoryTxManager(),
		Locks:       locks.NewKeyedMutex(),
		Dispatcher:  h.dispatcher,
	})
	h.tasks = NewTaskService(TaskDependencies{
		TaskRepo:     h.taskRepo,
		EmployeeRepo: h.employeeRepo,
		Bookings:     h.bookings,
		Dispatcher:   h.dispatcher,
	})
	h.employees = NewEmployeeService(h.employeeRepo)
	h.facade = NewOrchestrator(OrchestratorDependencies{
		Gate:      h.gate,
		Bookings:  h.bookings,
		Tasks:     h.tasks,
		Employees: h.employees,
		Directory: cfg.directory,
	})
	return h
}

func (h *harness) createBooking(t *testing.T, municipality, date string) *domain.Booking {
	t.Helper()
	booking, err := h.facade.CreateBooking(context.Background(), CreateBookingRequest{
		Description:  "Fix streetlight",
		Municipality: municipality,
		Date:         date,
	})
	require.NoError(t, err)
	return booking
}

func (h *harness) createEmployee(t *testing.T, name string) *domain.Employee {
	t.Helper()
	employee, err := h.employees.Create(context.Background(), EmployeeCreateInput{
		Name:         name,
		Email:        name + "@porto.pt",
		Municipality: "Porto",
		Role:         "technician",
	})
	require.NoError(t, err)
	return employee
}

func (h *harness) historyStatuses(t *testing.T, token string) []domain.BookingStatus {
	t.Helper()
	entries, err := h.bookings.History(context.Background(), token)
	require.NoError(t, err)
	statuses := make([]domain.BookingStatus, 0, len(entries))
	for _, entry := range entries {
		statuses = append(statuses, entry.Status)
	}
	return statuses
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) subscribe(d events.Dispatcher) {
	for _, eventType := range []events.EventType{
		events.EventBookingCreated,
		events.EventBookingStatusChanged,
		events.EventTaskAssigned,
		events.EventTaskCompleted,
	} {
		d.Subscribe(eventType, func(ctx context.Context, e events.Event) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, e)
			return nil
		})
	}
}

func (r *eventRecorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
