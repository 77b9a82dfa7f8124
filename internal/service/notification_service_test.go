package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicdesk/municipal-booking/internal/config"
	"github.com/civicdesk/municipal-booking/internal/domain"
	"github.com/civicdesk/municipal-booking/internal/events"
)

type webhookSink struct {
	mu       sync.Mutex
	status   int
	messages []map[string]any
	server   *httptest.Server
}

func newWebhookSink(t *testing.T, status int) *webhookSink {
	t.Helper()
	sink := &webhookSink{status: status}
	sink.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		msg := map[string]any{}
		assert.NoError(t, json.Unmarshal(raw, &msg))

		sink.mu.Lock()
		sink.messages = append(sink.messages, msg)
		sink.mu.Unlock()
		w.WriteHeader(sink.status)
	}))
	t.Cleanup(sink.server.Close)
	return sink
}

func (s *webhookSink) received() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any{}, s.messages...)
}

type mailRecorder struct {
	mu   sync.Mutex
	sent []EmailMessage
	err  error
}

func (m *mailRecorder) Send(ctx context.Context, msg EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestNotificationsDeliverWebhookForEveryEvent(t *testing.T) {
	sink := newWebhookSink(t, http.StatusNoContent)
	mail := &mailRecorder{}
	h := newHarness(t)
	notifier := NewNotificationService(h.dispatcher, nil, config.NotificationConfig{
		EmailFrom:  "noreply@porto.pt",
		WebhookURL: sink.server.URL,
	}, WithMailSender(mail), WithWebhookTimeout(2*time.Second))
	notifier.RegisterHandlers()

	booking := h.createBooking(t, "Porto", "2025-06-10T09:00:00")
	employee := h.createEmployee(t, "ana")
	task, err := h.facade.AssignTask(context.Background(), booking.Token, employee.ID)
	require.NoError(t, err)
	_, err = h.facade.CompleteTask(context.Background(), task.ID, nil)
	require.NoError(t, err)

	messages := sink.received()
	types := make([]string, 0, len(messages))
	for _, msg := range messages {
		types = append(types, msg["type"].(string))
		assert.Equal(t, booking.Token, msg["bookingToken"])
		assert.NotEmpty(t, msg["id"])
	}
	assert.Equal(t, []string{
		string(events.EventBookingCreated),
		string(events.EventBookingStatusChanged),
		string(events.EventTaskAssigned),
		string(events.EventBookingStatusChanged),
		string(events.EventTaskCompleted),
	}, types)
	assert.Equal(t, "received for Porto on 2025-06-10", messages[0]["summary"])
	assert.Equal(t, "status changed from RECEIVED to ASSIGNED", messages[1]["summary"])

	require.Len(t, mail.sent, 2)
	assert.Equal(t, "noreply@porto.pt", mail.sent[0].From)
	assert.Contains(t, mail.sent[0].Subject, booking.Token)
	assert.Contains(t, mail.sent[0].Body, "Received for Porto")
	assert.Contains(t, mail.sent[1].Subject, "completed")
}

func TestNotificationsReportFailedDelivery(t *testing.T) {
	sink := newWebhookSink(t, http.StatusBadGateway)
	dispatcher := events.NewInMemoryDispatcher()
	notifier := NewNotificationService(dispatcher, nil, config.NotificationConfig{WebhookURL: sink.server.URL})
	notifier.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:           "evt-1",
		Type:         events.EventBookingStatusChanged,
		BookingToken: "ABC",
		Payload: events.BookingStatusChangedPayload{
			OldStatus: domain.BookingStatusAssigned,
			NewStatus: domain.BookingStatusInProgress,
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Len(t, sink.received(), 1)
}

func TestNotificationsMailFailureStillPostsWebhook(t *testing.T) {
	sink := newWebhookSink(t, http.StatusOK)
	dispatcher := events.NewInMemoryDispatcher()
	mail := &mailRecorder{err: errors.New("relay down")}
	notifier := NewNotificationService(dispatcher, nil, config.NotificationConfig{
		EmailFrom:  "noreply@porto.pt",
		WebhookURL: sink.server.URL,
	}, WithMailSender(mail))
	notifier.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:         events.EventTaskCompleted,
		BookingToken: "ABC",
		Payload:      events.TaskCompletedPayload{TaskID: 3, EmployeeID: 7},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay down")
	require.Len(t, sink.received(), 1)
	assert.Equal(t, "task 3 completed", sink.received()[0]["summary"])
}

func TestNotificationsSkipUnconfiguredChannels(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	mail := &mailRecorder{}
	notifier := NewNotificationService(dispatcher, nil, config.NotificationConfig{}, WithMailSender(mail))
	notifier.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:         events.EventBookingCreated,
		BookingToken: "ABC",
		Payload:      events.BookingCreatedPayload{Municipality: "Porto"},
	})
	require.NoError(t, err)
	assert.Empty(t, mail.sent)
}
