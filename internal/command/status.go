package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"autoshop_telegram_bot/internal/domain"
	"autoshop_telegram_bot/internal/menu"
)

// channelStatus is the slice of the notification-channel contract the status
// report needs.
type channelStatus interface {
	ChannelName() string
	Enabled() bool
}

// StatusHandler reports process uptime and per-channel availability.
type StatusHandler struct {
	channels  []channelStatus
	appEnv    string
	startedAt time.Time
	nowFunc   func() time.Time
}

// NewStatusHandler constructs the status handler. Uptime counts from the
// moment of construction.
func NewStatusHandler(appEnv string, channels ...channelStatus) *StatusHandler {
	return &StatusHandler{
		channels:  channels,
		appEnv:    appEnv,
		startedAt: time.Now(),
		nowFunc:   time.Now,
	}
}

// Name identifies the handler in dispatch logs.
func (h *StatusHandler) Name() string { return "status" }

// Description summarizes the handler for listings.
func (h *StatusHandler) Description() string { return "status do sistema" }

// CanHandle claims the status command.
func (h *StatusHandler) CanHandle(cmd domain.Command) bool {
	return cmd.Name == "status"
}

// Handle renders the uptime and channel summary.
func (h *StatusHandler) Handle(_ context.Context, _ int64, _ domain.Command) domain.Response {
	var b strings.Builder

	b.WriteString("ℹ️ *Status do Sistema*\n\n")
	fmt.Fprintf(&b, "🌐 Ambiente: %s\n", h.appEnv)
	fmt.Fprintf(&b, "⏱ Uptime: %s\n\n", formatUptime(h.nowFunc().Sub(h.startedAt)))

	b.WriteString("📡 Canais de notificação:\n")
	if len(h.channels) == 0 {
		b.WriteString("• nenhum canal configurado\n")
	}
	for _, ch := range h.channels {
		state := "❌ inativo"
		if ch.Enabled() {
			state = "✅ ativo"
		}
		fmt.Fprintf(&b, "• %s: %s\n", ch.ChannelName(), state)
	}

	return domain.KeyboardResponse(b.String(), [][]domain.Button{menu.BackRow()})
}

func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dmin", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dmin", hours, minutes)
	}

	return fmt.Sprintf("%dmin", minutes)
}
