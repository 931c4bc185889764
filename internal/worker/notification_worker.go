package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/planmeet/internal/service"
)

// StartNotificationWorker subscribes the notification handlers to checklist
// events. Delivery is synchronous on the publishing request.
func StartNotificationWorker(notifications *service.NotificationService, logger *zap.Logger) {
	if notifications == nil {
		return
	}
	notifications.RegisterHandlers()
	logger.Info("notification worker started")
}
