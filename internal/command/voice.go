package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"autoshop_telegram_bot/internal/domain"
	"autoshop_telegram_bot/internal/logging"
	"autoshop_telegram_bot/internal/menu"
)

// connectionTester is the probe contract the diagnostics commands exercise.
type connectionTester interface {
	ChannelName() string
	Enabled() bool
	TestConnection(ctx context.Context) domain.ConnResult
}

// fileProber is implemented by channels that can check file-download
// reachability, which voice-message transcription depends on.
type fileProber interface {
	ProbeFileDownload(ctx context.Context) error
}

// VoiceHandler answers the hidden diagnostics commands. voice_status shows
// channel configuration state and voice_test probes each channel's
// credentials against its API. Neither command appears in any menu.
type VoiceHandler struct {
	testers []connectionTester
	logger  *logrus.Entry
}

// NewVoiceHandler constructs the diagnostics handler over the given channels.
func NewVoiceHandler(logger *logrus.Entry, testers ...connectionTester) *VoiceHandler {
	if logger == nil {
		logger = logging.Logger()
	}

	return &VoiceHandler{
		testers: testers,
		logger:  logger,
	}
}

// Name identifies the handler in dispatch logs.
func (h *VoiceHandler) Name() string { return "voice" }

// Description summarizes the handler for listings.
func (h *VoiceHandler) Description() string { return "diagnóstico dos canais de notificação" }

// CanHandle claims the hidden diagnostics commands.
func (h *VoiceHandler) CanHandle(cmd domain.Command) bool {
	return cmd.Name == "voice_status" || cmd.Name == "voice_test"
}

// Handle renders the configuration summary or runs the connection probes.
func (h *VoiceHandler) Handle(ctx context.Context, chatID int64, cmd domain.Command) domain.Response {
	switch cmd.Name {
	case "voice_test":
		return h.testConnections(ctx, chatID)
	default:
		return h.statusSummary()
	}
}

func (h *VoiceHandler) statusSummary() domain.Response {
	var b strings.Builder

	b.WriteString("🔎 *Diagnóstico de Canais*\n\n")
	if len(h.testers) == 0 {
		b.WriteString("Nenhum canal configurado.\n")
	}
	for _, tester := range h.testers {
		state := "❌ desabilitado"
		if tester.Enabled() {
			state = "✅ habilitado"
		}
		fmt.Fprintf(&b, "• %s: %s\n", tester.ChannelName(), state)
	}
	b.WriteString("\nUse voice_test para testar as credenciais.")

	return domain.KeyboardResponse(b.String(), [][]domain.Button{menu.BackRow()})
}

func (h *VoiceHandler) testConnections(ctx context.Context, chatID int64) domain.Response {
	var b strings.Builder

	b.WriteString("🧪 *Teste de Conexão*\n\n")
	if len(h.testers) == 0 {
		b.WriteString("Nenhum canal configurado.\n")
	}

	for _, tester := range h.testers {
		if !tester.Enabled() {
			fmt.Fprintf(&b, "• %s: ⏭ desabilitado\n", tester.ChannelName())
			continue
		}

		result := tester.TestConnection(ctx)
		if !result.Success {
			h.logger.WithFields(logging.Fields{
				"event":   "channel_test_failed",
				"channel": tester.ChannelName(),
				"chat_id": chatID,
				"error":   result.Error,
			}).Warn("channel connection test failed")

			fmt.Fprintf(&b, "• %s: ❌ falhou (%s)\n", tester.ChannelName(), result.Error)
			continue
		}

		fmt.Fprintf(&b, "• %s: ✅ ok%s\n", tester.ChannelName(), formatMetadata(result.Metadata))

		prober, ok := tester.(fileProber)
		if !ok {
			continue
		}

		if err := prober.ProbeFileDownload(ctx); err != nil {
			h.logger.WithFields(logging.Fields{
				"event":   "file_probe_failed",
				"channel": tester.ChannelName(),
				"chat_id": chatID,
			}).WithError(err).Warn("file download probe failed")

			fmt.Fprintf(&b, "  ↳ arquivos de voz: ❌ falhou (%v)\n", err)
			continue
		}

		b.WriteString("  ↳ arquivos de voz: ✅ ok\n")
	}

	return domain.KeyboardResponse(b.String(), [][]domain.Button{menu.BackRow()})
}

func formatMetadata(metadata map[string]string) string {
	if len(metadata) == 0 {
		return ""
	}

	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+metadata[key])
	}

	return " (" + strings.Join(pairs, ", ") + ")"
}
