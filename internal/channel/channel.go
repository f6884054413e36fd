// Package channel implements the notification channel abstraction used for
// bot replies and deploy alerts. Every implementation converts transport and
// configuration failures into structured results; nothing escapes the channel
// boundary as an unhandled fault.
package channel

import (
	"context"

	"autoshop_telegram_bot/internal/domain"
)

// NotificationChannel is the uniform contract shared by the Telegram and
// WhatsApp implementations.
type NotificationChannel interface {
	// SendTextMessage delivers a plain text message. An empty recipient
	// broadcasts to every configured recipient; per-recipient failures are
	// captured independently and success means at least one delivery.
	SendTextMessage(ctx context.Context, message, recipient string) domain.SendResult

	// SendNotification formats a structured deploy payload into
	// channel-specific text and broadcasts it.
	SendNotification(ctx context.Context, notification domain.DeployNotification) domain.SendResult

	// TestConnection validates credentials against a lightweight endpoint
	// without sending user-visible messages.
	TestConnection(ctx context.Context) domain.ConnResult

	// ChannelName identifies the channel in logs and results.
	ChannelName() string

	// Enabled reports whether the channel is configured and usable. Disabled
	// channels return structured failures from every send.
	Enabled() bool
}
