package worker

import (
	"go.uber.org/zap"

	"github.com/civicdesk/municipal-booking/internal/service"
)

// StartNotificationWorker subscribes booking notifications to the dispatcher.
// Handlers run synchronously after each committed change.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	if logger != nil {
		logger.Info("notification worker started")
	}
}
