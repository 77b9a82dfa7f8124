package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/civicdesk/municipal-booking/internal/domain"
)

// memoryTxManager runs fn directly. Callers serialize per key, and writes are
// issued only after validation, so there is nothing to roll back.
type memoryTxManager struct{}

// NewMemoryTxManager returns the TxManager paired with the in-memory repositories.
func NewMemoryTxManager() TxManager {
	return memoryTxManager{}
}

func (memoryTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type MemoryBookingRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byToken map[string]*domain.Booking
	order   []string
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{byToken: make(map[string]*domain.Booking)}
}

func (r *MemoryBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byToken[booking.Token]; exists {
		return ErrDuplicate
	}
	r.nextID++
	now := time.Now().UTC()
	booking.ID = r.nextID
	booking.CreatedAt = now
	booking.UpdatedAt = now
	stored := *booking
	r.byToken[booking.Token] = &stored
	r.order = append(r.order, booking.Token)
	return nil
}

func (r *MemoryBookingRepository) UpdateStatus(ctx context.Context, booking *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byToken[booking.Token]
	if !ok {
		return ErrNotFound
	}
	stored.Status = booking.Status
	stored.UpdatedAt = time.Now().UTC()
	booking.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *MemoryBookingRepository) GetByToken(ctx context.Context, token string) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	booking := *stored
	return &booking, nil
}

func (r *MemoryBookingRepository) GetByTokenForUpdate(ctx context.Context, token string) (*domain.Booking, error) {
	return r.GetByToken(ctx, token)
}

func (r *MemoryBookingRepository) List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.Booking{}
	for _, token := range r.order {
		booking := r.byToken[token]
		if filter.Municipality != nil && booking.Municipality != *filter.Municipality {
			continue
		}
		if filter.Status != nil && booking.Status != *filter.Status {
			continue
		}
		result = append(result, *booking)
	}
	return result, nil
}

func (r *MemoryBookingRepository) CountActive(ctx context.Context, municipality string, dayStart time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dayEnd := dayStart.AddDate(0, 0, 1)
	count := 0
	for _, booking := range r.byToken {
		if !strings.EqualFold(booking.Municipality, municipality) || booking.Status == domain.BookingStatusCancelled {
			continue
		}
		if booking.ScheduledAt.Before(dayStart) || !booking.ScheduledAt.Before(dayEnd) {
			continue
		}
		count++
	}
	return count, nil
}

type MemoryBookingHistoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	entries map[string][]domain.StatusHistoryEntry
}

func NewMemoryBookingHistoryRepository() *MemoryBookingHistoryRepository {
	return &MemoryBookingHistoryRepository{entries: make(map[string][]domain.StatusHistoryEntry)}
}

func (r *MemoryBookingHistoryRepository) Append(ctx context.Context, entry *domain.StatusHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	entry.ID = r.nextID
	r.entries[entry.BookingToken] = append(r.entries[entry.BookingToken], *entry)
	return nil
}

func (r *MemoryBookingHistoryRepository) ListByBooking(ctx context.Context, token string) ([]domain.StatusHistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.StatusHistoryEntry{}, r.entries[token]...), nil
}

type MemoryEmployeeRepository struct {
	mu        sync.RWMutex
	nextID    int64
	employees []domain.Employee
}

func NewMemoryEmployeeRepository() *MemoryEmployeeRepository {
	return &MemoryEmployeeRepository{}
}

func (r *MemoryEmployeeRepository) Create(ctx context.Context, employee *domain.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	employee.ID = r.nextID
	employee.CreatedAt = time.Now().UTC()
	r.employees = append(r.employees, *employee)
	return nil
}

func (r *MemoryEmployeeRepository) GetByID(ctx context.Context, id int64) (*domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.employees {
		if r.employees[i].ID == id {
			employee := r.employees[i]
			return &employee, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryEmployeeRepository) List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.Employee{}
	for _, employee := range r.employees {
		if filter.Municipality != nil && employee.Municipality != *filter.Municipality {
			continue
		}
		result = append(result, employee)
	}
	return result, nil
}

type MemoryTaskRepository struct {
	mu        sync.RWMutex
	nextID    int64
	tasks     []*domain.Task
	byBooking map[string]int64
}

func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{byBooking: make(map[string]int64)}
}

func (r *MemoryTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byBooking[task.BookingToken]; exists {
		return ErrDuplicate
	}
	r.nextID++
	task.ID = r.nextID
	stored := *task
	r.tasks = append(r.tasks, &stored)
	r.byBooking[task.BookingToken] = task.ID
	return nil
}

func (r *MemoryTaskRepository) Update(ctx context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.find(task.ID)
	if stored == nil {
		return ErrNotFound
	}
	stored.Status = task.Status
	stored.CompletedAt = task.CompletedAt
	stored.Notes = task.Notes
	return nil
}

func (r *MemoryTaskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.find(id)
	if stored == nil {
		return nil, ErrNotFound
	}
	task := *stored
	return &task, nil
}

func (r *MemoryTaskRepository) GetByBookingToken(ctx context.Context, token string) (*domain.Task, error) {
	r.mu.RLock()
	id, ok := r.byBooking[token]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryTaskRepository) List(ctx context.Context, filter TaskFilter) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.Task{}
	for _, task := range r.tasks {
		if filter.EmployeeID != nil && task.AssignedEmployeeID != *filter.EmployeeID {
			continue
		}
		result = append(result, *task)
	}
	return result, nil
}

func (r *MemoryTaskRepository) find(id int64) *domain.Task {
	for _, task := range r.tasks {
		if task.ID == id {
			return task
		}
	}
	return nil
}
