package channel

import (
	"context"

	"github.com/sirupsen/logrus"

	"autoshop_telegram_bot/internal/domain"
	"autoshop_telegram_bot/internal/logging"
)

// Notifier fans a deploy notification out across every registered channel.
// Channel failures are isolated: one channel failing never prevents delivery
// through the others.
type Notifier struct {
	channels []NotificationChannel
	logger   *logrus.Entry
}

// NewNotifier constructs a Notifier over the provided channels.
func NewNotifier(logger *logrus.Entry, channels ...NotificationChannel) *Notifier {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Notifier{
		channels: channels,
		logger:   logger,
	}
}

// NotifyDeploy sends the notification through every channel and returns the
// per-channel results keyed by channel name. It never fails as a whole.
func (n *Notifier) NotifyDeploy(ctx context.Context, notification domain.DeployNotification) map[string]domain.SendResult {
	if ctx == nil {
		ctx = context.Background()
	}

	results := make(map[string]domain.SendResult, len(n.channels))

	for _, ch := range n.channels {
		result := ch.SendNotification(ctx, notification)
		results[ch.ChannelName()] = result

		fields := logging.Fields{
			"event":   "deploy_notification",
			"channel": ch.ChannelName(),
			"success": result.Success,
			"sent_to": result.SentTo,
		}

		if result.Success {
			n.logger.WithFields(fields).Info("deploy notification delivered")
		} else {
			fields["error"] = result.Error
			n.logger.WithFields(fields).Warn("deploy notification failed")
		}
	}

	return results
}
