// Package menu builds the inline-keyboard menus shown in chat. Builders are
// pure: every call recomputes the menu and callback data values double as
// command strings, closing the loop back into the command parser.
package menu

import (
	"autoshop_telegram_bot/internal/domain"
)

// Menu type names accepted by the menu command handler.
const (
	TypeMain      = "main"
	TypeServices  = "services"
	TypeProducts  = "products"
	TypeDashboard = "dashboard"
	TypeReport    = "report"
)

// Callback commands emitted by menu buttons.
const (
	CallbackMainMenu      = "menu_main"
	CallbackServicesMenu  = "menu_services"
	CallbackProductsMenu  = "menu_products"
	CallbackDashboardMenu = "menu_dashboard"
	CallbackReportMenu    = "menu_report"
	CallbackStatus        = "status"

	CallbackGeneralReport  = "report:type=general"
	CallbackServicesReport = "report:type=services"
	CallbackProductsReport = "report:type=products"
)

// BackRow is the standard "back to main menu" affordance appended to most
// responses.
func BackRow() []domain.Button {
	return []domain.Button{
		{Text: "⬅️ Menu Principal", CallbackData: CallbackMainMenu},
	}
}

// Main builds the top-level menu.
func Main() domain.Response {
	message := "🔧 *Oficina — Menu Principal*\n\nEscolha uma opção:"

	keyboard := [][]domain.Button{
		{
			{Text: "🔧 Serviços", CallbackData: CallbackServicesMenu},
			{Text: "📦 Produtos", CallbackData: CallbackProductsMenu},
		},
		{
			{Text: "📊 Dashboard", CallbackData: CallbackDashboardMenu},
			{Text: "📈 Relatórios", CallbackData: CallbackReportMenu},
		},
		{
			{Text: "ℹ️ Status do Sistema", CallbackData: CallbackStatus},
		},
	}

	return domain.KeyboardResponse(message, keyboard)
}

// Services builds the service-orders submenu.
func Services() domain.Response {
	message := "🔧 *Serviços*\n\nAcompanhe as ordens de serviço da oficina:"

	keyboard := [][]domain.Button{
		{
			{Text: "📈 Relatório de Serviços", CallbackData: CallbackServicesReport},
		},
		BackRow(),
	}

	return domain.KeyboardResponse(message, keyboard)
}

// Products builds the product-catalog submenu.
func Products() domain.Response {
	message := "📦 *Produtos*\n\nAcompanhe o estoque e o catálogo:"

	keyboard := [][]domain.Button{
		{
			{Text: "📈 Relatório de Produtos", CallbackData: CallbackProductsReport},
		},
		BackRow(),
	}

	return domain.KeyboardResponse(message, keyboard)
}

// Dashboard builds the period-selection menu for the general report.
func Dashboard() domain.Response {
	message := "📊 *Dashboard*\n\nEscolha o período do resumo geral:"

	keyboard := [][]domain.Button{
		{
			{Text: "📅 Hoje", CallbackData: CallbackGeneralReport + ":period=today"},
			{Text: "🗓 Semana", CallbackData: CallbackGeneralReport + ":period=week"},
		},
		{
			{Text: "📆 Mês", CallbackData: CallbackGeneralReport + ":period=month"},
		},
		BackRow(),
	}

	return domain.KeyboardResponse(message, keyboard)
}

// Reports builds the report-type selection menu.
func Reports() domain.Response {
	message := "📈 *Relatórios*\n\nEscolha o relatório:"

	keyboard := [][]domain.Button{
		{
			{Text: "📊 Geral", CallbackData: CallbackGeneralReport},
		},
		{
			{Text: "🔧 Serviços", CallbackData: CallbackServicesReport},
			{Text: "📦 Produtos", CallbackData: CallbackProductsReport},
		},
		BackRow(),
	}

	return domain.KeyboardResponse(message, keyboard)
}

// ByType resolves a menu type name to its builder output, defaulting to the
// main menu for unknown types.
func ByType(menuType string) domain.Response {
	switch menuType {
	case TypeServices:
		return Services()
	case TypeProducts:
		return Products()
	case TypeDashboard:
		return Dashboard()
	case TypeReport:
		return Reports()
	default:
		return Main()
	}
}
