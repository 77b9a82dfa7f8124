package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/civicdesk/municipal-booking/internal/domain"
	"github.com/civicdesk/municipal-booking/internal/events"
	"github.com/civicdesk/municipal-booking/internal/locks"
	"github.com/civicdesk/municipal-booking/internal/repository"
	apperrors "github.com/civicdesk/municipal-booking/pkg/util/errorutil"
)

// BookingService owns booking records, their status transitions and the history log.
//
// Every mutation of a booking runs under the booking token's lock and inside one
// transaction: read current state, validate, write, append history.
type BookingService struct {
	bookings   repository.BookingRepository
	history    repository.BookingHistoryRepository
	tx         repository.TxManager
	locks      *locks.KeyedMutex
	tokens     TokenGenerator
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// BookingDependencies bundles collaborators for the booking service.
type BookingDependencies struct {
	BookingRepo repository.BookingRepository
	HistoryRepo repository.BookingHistoryRepository
	TxManager   repository.TxManager
	Locks       *locks.KeyedMutex
	Tokens      TokenGenerator
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// BookingCreateInput describes booking creation payload.
type BookingCreateInput struct {
	Description  string
	Municipality string
	ScheduledAt  time.Time
}

// NewBookingService constructs the service.
func NewBookingService(deps BookingDependencies) *BookingService {
	s := &BookingService{
		bookings:   deps.BookingRepo,
		history:    deps.HistoryRepo,
		tx:         deps.TxManager,
		locks:      deps.Locks,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
	if s.locks == nil {
		s.locks = locks.NewKeyedMutex()
	}
	if s.tokens == nil {
		s.tokens = RandomTokenGenerator{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Create stores a RECEIVED booking and its first history entry. Admission is the caller's concern.
func (s *BookingService) Create(ctx context.Context, input BookingCreateInput) (*domain.Booking, error) {
	booking := &domain.Booking{
		Token:        s.tokens.Generate(),
		Description:  input.Description,
		Municipality: input.Municipality,
		ScheduledAt:  input.ScheduledAt,
		Status:       domain.BookingStatusReceived,
	}

	unlock := s.locks.Lock(booking.Token)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.bookings.Create(ctx, booking); err != nil {
			return err
		}
		return s.history.Append(ctx, &domain.StatusHistoryEntry{
			BookingToken: booking.Token,
			Status:       booking.Status,
			Timestamp:    booking.CreatedAt,
		})
	})
	unlock()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("booking created",
		zap.String("token", booking.Token),
		zap.String("municipality", booking.Municipality),
		zap.Time("scheduled_at", booking.ScheduledAt))
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:         events.EventBookingCreated,
		BookingToken: booking.Token,
		Payload: events.BookingCreatedPayload{
			Municipality: booking.Municipality,
			ScheduledAt:  booking.ScheduledAt,
		},
	})
	return booking, nil
}

// Get fetches a booking by its public token.
func (s *BookingService) Get(ctx context.Context, token string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByToken(ctx, token)
	if err != nil {
		return nil, mapBookingErr(err, token)
	}
	return booking, nil
}

// List returns bookings in creation order; filters combine with AND.
func (s *BookingService) List(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, error) {
	bookings, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return bookings, nil
}

// TransitionStatus moves a booking along one edge of the state machine.
func (s *BookingService) TransitionStatus(ctx context.Context, token string, next domain.BookingStatus) (*domain.Booking, error) {
	return s.WithLocked(ctx, token, func(ctx context.Context, locked *LockedBooking) error {
		return locked.Transition(ctx, next)
	})
}

// Cancel is TransitionStatus to CANCELLED.
func (s *BookingService) Cancel(ctx context.Context, token string) (*domain.Booking, error) {
	return s.TransitionStatus(ctx, token, domain.BookingStatusCancelled)
}

// History returns the status log in the order entries were written.
func (s *BookingService) History(ctx context.Context, token string) ([]domain.StatusHistoryEntry, error) {
	if _, err := s.Get(ctx, token); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByBooking(ctx, token)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return entries, nil
}

// CountActive reports non-cancelled bookings for a municipality on dayStart's date.
func (s *BookingService) CountActive(ctx context.Context, municipality string, dayStart time.Time) (int, error) {
	return s.bookings.CountActive(ctx, municipality, dayStart)
}

// LockedBooking is the booking a WithLocked callback works on. Status changes go
// through Transition so history and events follow every change.
type LockedBooking struct {
	svc     *BookingService
	booking *domain.Booking
	changes []statusChange
}

type statusChange struct {
	from, to domain.BookingStatus
}

// Token returns the booking's public token.
func (l *LockedBooking) Token() string {
	return l.booking.Token
}

// Status returns the current status, including transitions made in this unit of work.
func (l *LockedBooking) Status() domain.BookingStatus {
	return l.booking.Status
}

// Transition validates next against the state machine, persists it and appends history.
func (l *LockedBooking) Transition(ctx context.Context, next domain.BookingStatus) error {
	from := l.booking.Status
	if err := l.svc.applyTransition(ctx, l.booking, next); err != nil {
		return err
	}
	l.changes = append(l.changes, statusChange{from: from, to: next})
	return nil
}

// WithLocked runs fn under the token's lock and inside one transaction, with the
// booking read for update. Status changes made by fn are announced after commit.
func (s *BookingService) WithLocked(ctx context.Context, token string, fn func(ctx context.Context, locked *LockedBooking) error) (*domain.Booking, error) {
	var locked *LockedBooking
	unlock := s.locks.Lock(token)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		booking, err := s.bookings.GetByTokenForUpdate(ctx, token)
		if err != nil {
			return mapBookingErr(err, token)
		}
		locked = &LockedBooking{svc: s, booking: booking}
		return fn(ctx, locked)
	})
	unlock()
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	for _, change := range locked.changes {
		s.statusChanged(ctx, token, change.from, change.to)
	}
	return locked.booking, nil
}

func (s *BookingService) applyTransition(ctx context.Context, booking *domain.Booking, next domain.BookingStatus) error {
	if !booking.Status.CanTransitionTo(next) {
		return apperrors.NewInvalidTransition(string(booking.Status), string(next), map[string]any{"bookingToken": booking.Token})
	}
	booking.Status = next
	if err := s.bookings.UpdateStatus(ctx, booking); err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.history.Append(ctx, &domain.StatusHistoryEntry{
		BookingToken: booking.Token,
		Status:       next,
		Timestamp:    s.now(),
	}); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

func (s *BookingService) statusChanged(ctx context.Context, token string, old, next domain.BookingStatus) {
	s.logger.Info("booking status changed",
		zap.String("token", token),
		zap.String("from", string(old)),
		zap.String("to", string(next)))
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:         events.EventBookingStatusChanged,
		BookingToken: token,
		Payload: events.BookingStatusChangedPayload{
			OldStatus: old,
			NewStatus: next,
		},
	})
}

func mapBookingErr(err error, token string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("booking", map[string]any{"bookingToken": token})
	}
	return apperrors.MapError(err)
}
