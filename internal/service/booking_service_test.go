package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdesk/municipal-booking/internal/domain"
	"github.com/civicdesk/municipal-booking/internal/events"
	"github.com/civicdesk/municipal-booking/internal/repository"
	apperrors "github.com/civicdesk/municipal-booking/pkg/util/errorutil"
)

func TestCreateStartsReceived(t *testing.T) {
	h := newHarness(t)
	booking := h.createBooking(t, "Porto", "2025-06-10T09:00:00")

	assert.Equal(t, domain.BookingStatusReceived, booking.Status)
	assert.Len(t, booking.Token, 32)
	assert.False(t, booking.CreatedAt.IsZero())
	assert.Equal(t, []domain.BookingStatus{domain.BookingStatusReceived}, h.historyStatuses(t, booking.Token))
	assert.Equal(t, []events.EventType{events.EventBookingCreated}, h.recorder.types())

	stored, err := h.bookings.Get(context.Background(), booking.Token)
	require.NoError(t, err)
	assert.Equal(t, "Fix streetlight", stored.Description)
	assert.Equal(t, "Porto", stored.Municipality)
}

func TestGetUnknownToken(t *testing.T) {
	h := newHarness(t)
	_, err := h.bookings.Get(context.Background(), "NOPE")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = h.bookings.History(context.Background(), "NOPE")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = h.bookings.Cancel(context.Background(), "NOPE")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestTransitionGraph(t *testing.T) {
	all := []domain.BookingStatus{
		domain.BookingStatusReceived,
		domain.BookingStatusAssigned,
		domain.BookingStatusInProgress,
		domain.BookingStatusCompleted,
		domain.BookingStatusCancelled,
	}
	// path from RECEIVED to each status
	paths := map[domain.BookingStatus][]domain.BookingStatus{
		domain.BookingStatusReceived:   nil,
		domain.BookingStatusAssigned:   {domain.BookingStatusAssigned},
		domain.BookingStatusInProgress: {domain.BookingStatusAssigned, domain.BookingStatusInProgress},
		domain.BookingStatusCompleted:  {domain.BookingStatusCompleted},
		domain.BookingStatusCancelled:  {domain.BookingStatusCancelled},
	}

	for _, from := range all {
		for _, to := range all {
			from, to := from, to
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				h := newHarness(t)
				ctx := context.Background()
				booking := h.createBooking(t, "Porto", "2025-06-10")
				for _, step := range paths[from] {
					_, err := h.bookings.TransitionStatus(ctx, booking.Token, step)
					require.NoError(t, err)
				}

				updated, err := h.bookings.TransitionStatus(ctx, booking.Token, to)
				if from.CanTransitionTo(to) {
					require.NoError(t, err)
					assert.Equal(t, to, updated.Status)
					return
				}
				assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition), "got %v", err)
				current, err := h.bookings.Get(ctx, booking.Token)
				require.NoError(t, err)
				assert.Equal(t, from, current.Status)
			})
		}
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	assert.True(t, domain.BookingStatusCompleted.IsTerminal())
	assert.True(t, domain.BookingStatusCancelled.IsTerminal())
	for _, next := range []domain.BookingStatus{
		domain.BookingStatusReceived,
		domain.BookingStatusAssigned,
		domain.BookingStatusInProgress,
		domain.BookingStatusCompleted,
		domain.BookingStatusCancelled,
	} {
		assert.False(t, domain.BookingStatusCompleted.CanTransitionTo(next))
		assert.False(t, domain.BookingStatusCancelled.CanTransitionTo(next))
	}
}

func TestCancelCompletedBooking(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	booking := h.createBooking(t, "Porto", "2025-06-10T09:00:00")
	_, err := h.bookings.TransitionStatus(ctx, booking.Token, domain.BookingStatusCompleted)
	require.NoError(t, err)

	_, err = h.bookings.Cancel(ctx, booking.Token)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
	assert.Equal(t, 409, apperrors.ToDomainError(err).HTTPStatus)

	current, err := h.bookings.Get(ctx, booking.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCompleted, current.Status)
	assert.Equal(t, []domain.BookingStatus{domain.BookingStatusReceived, domain.BookingStatusCompleted}, h.historyStatuses(t, booking.Token))
}

func TestConcurrentTransitionsSerializePerToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	booking := h.createBooking(t, "Porto", "2025-06-10T09:00:00")

	targets := []domain.BookingStatus{
		domain.BookingStatusCancelled,
		domain.BookingStatusCompleted,
		domain.BookingStatusInProgress,
		domain.BookingStatusAssigned,
	}
	const rounds = 8
	var wg sync.WaitGroup
	var succeeded atomic.Int32
	for i := 0; i < rounds; i++ {
		for _, target := range targets {
			wg.Add(1)
			go func(target domain.BookingStatus) {
				defer wg.Done()
				if _, err := h.bookings.TransitionStatus(ctx, booking.Token, target); err == nil {
					succeeded.Add(1)
				} else {
					assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
				}
			}(target)
		}
	}
	wg.Wait()

	history := h.historyStatuses(t, booking.Token)
	require.NotEmpty(t, history)
	assert.Equal(t, int(succeeded.Load())+1, len(history))
	assert.Equal(t, domain.BookingStatusReceived, history[0])
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i-1].CanTransitionTo(history[i]), "%s -> %s", history[i-1], history[i])
		assert.False(t, history[i-1].IsTerminal())
	}
	assert.True(t, history[len(history)-1].IsTerminal())
}

func TestListFiltersAreConjunctive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first := h.createBooking(t, "Porto", "2025-06-10T09:00:00")
	h.createBooking(t, "Lisboa", "2025-06-10T09:00:00")
	third := h.createBooking(t, "Porto", "2025-06-11T09:00:00")
	_, err := h.bookings.Cancel(ctx, third.Token)
	require.NoError(t, err)

	porto := "Porto"
	all, err := h.bookings.List(ctx, repository.BookingFilter{Municipality: &porto})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.Token, all[0].Token)
	assert.Equal(t, third.Token, all[1].Token)

	received := domain.BookingStatusReceived
	filtered, err := h.bookings.List(ctx, repository.BookingFilter{Municipality: &porto, Status: &received})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, first.Token, filtered[0].Token)

	everything, err := h.bookings.List(ctx, repository.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, everything, 3)
}

func TestRandomTokensAreDistinct(t *testing.T) {
	gen := RandomTokenGenerator{}
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		token := gen.Generate()
		assert.Regexp(t, "^[0-9A-F]{32}$", token)
		_, dup := seen[token]
		require.False(t, dup)
		seen[token] = struct{}{}
	}
}

func TestWithLockedAnnouncesChangesAfterCommit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	booking := h.createBooking(t, "Porto", "2025-06-10")

	updated, err := h.bookings.WithLocked(ctx, booking.Token, func(ctx context.Context, locked *LockedBooking) error {
		assert.Equal(t, booking.Token, locked.Token())
		if err := locked.Transition(ctx, domain.BookingStatusAssigned); err != nil {
			return err
		}
		assert.Equal(t, domain.BookingStatusAssigned, locked.Status())
		return locked.Transition(ctx, domain.BookingStatusInProgress)
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusInProgress, updated.Status)
	assert.Equal(t, []domain.BookingStatus{
		domain.BookingStatusReceived,
		domain.BookingStatusAssigned,
		domain.BookingStatusInProgress,
	}, h.historyStatuses(t, booking.Token))
	assert.Equal(t, []events.EventType{
		events.EventBookingCreated,
		events.EventBookingStatusChanged,
		events.EventBookingStatusChanged,
	}, h.recorder.types())
}

func TestWithLockedFailureAnnouncesNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	booking := h.createBooking(t, "Porto", "2025-06-10")

	_, err := h.bookings.WithLocked(ctx, booking.Token, func(ctx context.Context, locked *LockedBooking) error {
		return errors.New("storage unavailable")
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))

	_, err = h.bookings.WithLocked(ctx, booking.Token, func(ctx context.Context, locked *LockedBooking) error {
		return locked.Transition(ctx, domain.BookingStatus("ARCHIVED"))
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
	assert.Equal(t, []events.EventType{events.EventBookingCreated}, h.recorder.types())

	called := false
	_, err = h.bookings.WithLocked(ctx, "MISSING", func(ctx context.Context, locked *LockedBooking) error {
		called = true
		return nil
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	assert.False(t, called)
}
