package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"autoshop_telegram_bot/internal/domain"
	"autoshop_telegram_bot/internal/logging"
	"autoshop_telegram_bot/internal/menu"
)

// GeneralGenerator summarizes service activity and the catalog snapshot in a
// single overview report.
type GeneralGenerator struct {
	services ServiceMetrics
	products ProductMetrics
	logger   *logrus.Entry
}

// NewGeneralGenerator constructs the general report generator.
func NewGeneralGenerator(services ServiceMetrics, products ProductMetrics, logger *logrus.Entry) *GeneralGenerator {
	if logger == nil {
		logger = logging.Logger()
	}

	return &GeneralGenerator{
		services: services,
		products: products,
		logger:   logger,
	}
}

// ReportType identifies the generator in callback data.
func (g *GeneralGenerator) ReportType() string { return TypeGeneral }

// ReportName is the human-readable report title.
func (g *GeneralGenerator) ReportName() string { return "Relatório Geral" }

// AvailablePeriods lists the supported reporting windows.
func (g *GeneralGenerator) AvailablePeriods() []string { return AvailablePeriods() }

// Generate builds the overview report for the requested period, defaulting to
// today. Data-source failures yield the generic error message with a details
// line and a recovery button.
func (g *GeneralGenerator) Generate(ctx context.Context, chatID int64, params map[string]string) domain.Response {
	if ctx == nil {
		ctx = context.Background()
	}

	period := NormalizePeriod(params["period"])
	centerID := params["center_id"]

	metrics, err := g.services.GetDashboardMetrics(ctx, centerID, period)
	if err != nil {
		g.logger.WithFields(logging.Fields{
			"event":   "report_general_failed",
			"chat_id": chatID,
			"period":  period,
		}).WithError(err).Error("failed to fetch service metrics")

		return errorResponse(err.Error(), err.Error(), true)
	}

	stats, err := g.products.GetDashboardStats(ctx, centerID)
	if err != nil {
		g.logger.WithFields(logging.Fields{
			"event":   "report_general_failed",
			"chat_id": chatID,
			"period":  period,
		}).WithError(err).Error("failed to fetch product stats")

		return errorResponse(err.Error(), err.Error(), true)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "📊 *%s — %s*\n\n", g.ReportName(), PeriodLabel(period))
	fmt.Fprintf(&b, "🔧 Serviços: %d\n", metrics.TotalServices)
	fmt.Fprintf(&b, "✅ Concluídos: %d\n", metrics.CompletedServices)
	fmt.Fprintf(&b, "⏳ Pendentes: %d\n", metrics.PendingServices)
	fmt.Fprintf(&b, "❌ Cancelados: %d\n", metrics.CanceledServices)
	fmt.Fprintf(&b, "💰 Receita: %s\n", FormatBRL(metrics.Revenue))
	fmt.Fprintf(&b, "🎯 Ticket Médio: %s\n\n", FormatBRL(metrics.AverageTicket))
	fmt.Fprintf(&b, "📦 Produtos ativos: %d\n", stats.ActiveProducts)
	fmt.Fprintf(&b, "⚠️ Estoque baixo: %d\n\n", stats.LowStockProducts)
	b.WriteString(generatedAt())

	keyboard := [][]domain.Button{
		{
			{Text: "🔍 Detalhar Serviços", CallbackData: menu.CallbackServicesReport},
		},
		menu.BackRow(),
	}

	return domain.KeyboardResponse(b.String(), keyboard)
}
