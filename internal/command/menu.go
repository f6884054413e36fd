package command

import (
	"context"
	"strings"

	"autoshop_telegram_bot/internal/domain"
	"autoshop_telegram_bot/internal/menu"
)

// MenuHandler resolves menu navigation callbacks. The command name encodes the
// menu type: menu_services, menu_products, menu_dashboard, menu_report and
// menu_main all route here.
type MenuHandler struct{}

// NewMenuHandler constructs the menu handler.
func NewMenuHandler() *MenuHandler {
	return &MenuHandler{}
}

// Name identifies the handler in dispatch logs.
func (h *MenuHandler) Name() string { return "menu" }

// Description summarizes the handler for listings.
func (h *MenuHandler) Description() string { return "navegação entre menus" }

// CanHandle claims every menu_-prefixed command.
func (h *MenuHandler) CanHandle(cmd domain.Command) bool {
	return strings.HasPrefix(cmd.Name, "menu_")
}

// Handle maps the command name onto a menu builder, falling back to the main
// menu for unknown types.
func (h *MenuHandler) Handle(_ context.Context, _ int64, cmd domain.Command) domain.Response {
	menuType := strings.TrimPrefix(cmd.Name, "menu_")

	return menu.ByType(menuType)
}
