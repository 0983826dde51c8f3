package notificator

import (
	"context"
	"runtime/debug"

	"github.com/poynt/relay/internal/models"
	"github.com/poynt/relay/pkg/logger"
)

var _ models.NotificationService = (*Notificator)(nil)

// sender delivers a message to a chat
type sender interface {
	SendNotification(ctx context.Context, chatID, message string) error
}

// Notificator delivers operator alerts to a single chat.
// Without a sender or chat id it only logs.
type Notificator struct {
	logger *logger.Logger

	sender      sender
	alertChatID string
}

func NewNotificator(logger *logger.Logger, telNotif *TelegramNotificator, alertChatID string) *Notificator {
	n := &Notificator{logger: logger, alertChatID: alertChatID}
	if telNotif != nil {
		n.sender = telNotif
	}
	return n
}

// safeCall runs a function with panic recovery
func (n *Notificator) safeCall(fn func(), context string) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Errorw("Function panicked",
				"context", context,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

func (n *Notificator) SendAlert(ctx context.Context, message string) {
	if n.sender == nil || n.alertChatID == "" {
		n.logger.Warnw("Alert not delivered, alerting disabled", "message", message)
		return
	}
	n.safeCall(func() {
		if err := n.sender.SendNotification(ctx, n.alertChatID, message); err != nil {
			n.logger.Errorw("Failed to send alert", "error", err)
		}
	}, "telegramAlert")
}
