package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/civicdesk/municipal-booking/internal/config"
	"github.com/civicdesk/municipal-booking/internal/events"
)

const defaultWebhookTimeout = 5 * time.Second

// WebhookMessage is the JSON body posted to the staff webhook for every event.
type WebhookMessage struct {
	ID           string           `json:"id"`
	Type         events.EventType `json:"type"`
	BookingToken string           `json:"bookingToken"`
	OccurredAt   time.Time        `json:"occurredAt"`
	Summary      string           `json:"summary"`
	Payload      any              `json:"payload,omitempty"`
}

// EmailMessage is a rendered citizen notification.
type EmailMessage struct {
	From         string
	Subject      string
	Body         string
	BookingToken string
}

// MailSender delivers rendered emails.
type MailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// logMailSender records outgoing mail in the log; no SMTP relay is configured.
type logMailSender struct {
	logger *zap.Logger
}

func (s logMailSender) Send(ctx context.Context, msg EmailMessage) error {
	s.logger.Info("email notification",
		zap.String("from", msg.From),
		zap.String("subject", msg.Subject),
		zap.String("booking_token", msg.BookingToken))
	return nil
}

type channels struct {
	email   bool
	webhook bool
}

// Citizens hear about intake and completion; staff tooling sees every event.
var notificationRoutes = map[events.EventType]channels{
	events.EventBookingCreated:       {email: true, webhook: true},
	events.EventBookingStatusChanged: {webhook: true},
	events.EventTaskAssigned:         {webhook: true},
	events.EventTaskCompleted:        {email: true, webhook: true},
}

// NotificationOption customises a NotificationService.
type NotificationOption func(*NotificationService)

// WithMailSender replaces the logging mail sender.
func WithMailSender(sender MailSender) NotificationOption {
	return func(n *NotificationService) { n.mail = sender }
}

// WithWebhookTimeout bounds each webhook request.
func WithWebhookTimeout(timeout time.Duration) NotificationOption {
	return func(n *NotificationService) { n.webhookTimeout = timeout }
}

// NotificationService turns booking events into citizen emails and staff webhooks.
type NotificationService struct {
	dispatcher     events.Dispatcher
	logger         *zap.Logger
	cfg            config.NotificationConfig
	mail           MailSender
	webhookTimeout time.Duration
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, opts ...NotificationOption) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &NotificationService{
		dispatcher:     dispatcher,
		logger:         logger,
		cfg:            cfg,
		mail:           logMailSender{logger: logger},
		webhookTimeout: defaultWebhookTimeout,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// RegisterHandlers subscribes to every routed event type.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for eventType := range notificationRoutes {
		n.dispatcher.Subscribe(eventType, n.handle)
	}
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	route, ok := notificationRoutes[event.Type]
	if !ok {
		return nil
	}
	summary := describeEvent(event)
	n.logger.Debug("notify", zap.String("event_type", string(event.Type)), zap.String("booking_token", event.BookingToken))

	var errs []error
	if route.email {
		if err := n.sendEmail(ctx, event, summary); err != nil {
			errs = append(errs, err)
		}
	}
	if route.webhook {
		if err := n.postWebhook(ctx, event, summary); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *NotificationService) sendEmail(ctx context.Context, event events.Event, summary string) error {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || n.mail == nil {
		return nil
	}
	msg := EmailMessage{
		From:         n.cfg.EmailFrom,
		Subject:      fmt.Sprintf("Booking %s: %s", event.BookingToken, summary),
		Body:         fmt.Sprintf("%s.\n\nKeep your booking token %s to follow this request.", capitalize(summary), event.BookingToken),
		BookingToken: event.BookingToken,
	}
	if err := n.mail.Send(ctx, msg); err != nil {
		return fmt.Errorf("send email for %s: %w", event.Type, err)
	}
	return nil
}

func (n *NotificationService) postWebhook(ctx context.Context, event events.Event, summary string) error {
	url := strings.TrimSpace(n.cfg.WebhookURL)
	if url == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := WebhookMessage{
		ID:           event.ID,
		Type:         event.Type,
		BookingToken: event.BookingToken,
		OccurredAt:   event.Timestamp,
		Summary:      summary,
		Payload:      event.Payload,
	}
	status, _, errs := fiber.Post(url).Timeout(n.webhookTimeout).JSON(msg).Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("post webhook for %s: %w", event.Type, errs[0])
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("post webhook for %s: unexpected status %d", event.Type, status)
	}
	return nil
}

func describeEvent(event events.Event) string {
	switch p := event.Payload.(type) {
	case events.BookingCreatedPayload:
		return fmt.Sprintf("received for %s on %s", p.Municipality, p.ScheduledAt.UTC().Format("2006-01-02"))
	case events.BookingStatusChangedPayload:
		return fmt.Sprintf("status changed from %s to %s", p.OldStatus, p.NewStatus)
	case events.TaskAssignedPayload:
		return fmt.Sprintf("task %d assigned to employee %d", p.TaskID, p.EmployeeID)
	case events.TaskCompletedPayload:
		return fmt.Sprintf("task %d completed", p.TaskID)
	}
	return string(event.Type)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
