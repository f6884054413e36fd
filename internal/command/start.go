package command

import (
	"context"

	"autoshop_telegram_bot/internal/domain"
	"autoshop_telegram_bot/internal/menu"
)

var startAliases = map[string]bool{
	"start":    true,
	"help":     true,
	"menu":     true,
	"ajuda":    true,
	"inicio":   true,
	"comandos": true,
}

const welcomeMessage = "👋 *Bem-vindo ao Bot da Oficina!*\n\n" +
	"Acompanhe serviços, produtos e relatórios direto do chat.\n\n" +
	"Comandos disponíveis:\n" +
	"/menu — menu principal\n" +
	"/report — relatórios\n" +
	"/status — status do sistema\n\n" +
	"Escolha uma opção:"

// StartHandler greets the user and shows the main menu. It answers the start
// command and its help aliases in both languages.
type StartHandler struct{}

// NewStartHandler constructs the start handler.
func NewStartHandler() *StartHandler {
	return &StartHandler{}
}

// Name identifies the handler in dispatch logs.
func (h *StartHandler) Name() string { return "start" }

// Description summarizes the handler for listings.
func (h *StartHandler) Description() string { return "boas-vindas e menu principal" }

// CanHandle claims the start command and its aliases.
func (h *StartHandler) CanHandle(cmd domain.Command) bool {
	return startAliases[cmd.Name]
}

// Handle replies with the welcome text and the main menu keyboard.
func (h *StartHandler) Handle(_ context.Context, _ int64, _ domain.Command) domain.Response {
	return domain.KeyboardResponse(welcomeMessage, menu.Main().Keyboard)
}
