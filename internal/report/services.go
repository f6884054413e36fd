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

// ServicesGenerator reports service-order activity for one period.
type ServicesGenerator struct {
	services ServiceMetrics
	logger   *logrus.Entry
}

// NewServicesGenerator constructs the services report generator.
func NewServicesGenerator(services ServiceMetrics, logger *logrus.Entry) *ServicesGenerator {
	if logger == nil {
		logger = logging.Logger()
	}

	return &ServicesGenerator{
		services: services,
		logger:   logger,
	}
}

// ReportType identifies the generator in callback data.
func (g *ServicesGenerator) ReportType() string { return TypeServices }

// ReportName is the human-readable report title.
func (g *ServicesGenerator) ReportName() string { return "Relatório de Serviços" }

// AvailablePeriods lists the supported reporting windows.
func (g *ServicesGenerator) AvailablePeriods() []string { return AvailablePeriods() }

// Generate builds the services report for the requested period, defaulting to
// today.
func (g *ServicesGenerator) Generate(ctx context.Context, chatID int64, params map[string]string) domain.Response {
	if ctx == nil {
		ctx = context.Background()
	}

	period := NormalizePeriod(params["period"])
	centerID := params["center_id"]

	metrics, err := g.services.GetDashboardMetrics(ctx, centerID, period)
	if err != nil {
		g.logger.WithFields(logging.Fields{
			"event":   "report_services_failed",
			"chat_id": chatID,
			"period":  period,
		}).WithError(err).Error("failed to fetch service metrics")

		return errorResponse(err.Error(), err.Error(), true)
	}

	completionRate := 0.0
	if metrics.TotalServices > 0 {
		completionRate = float64(metrics.CompletedServices) / float64(metrics.TotalServices) * 100
	}

	var b strings.Builder

	fmt.Fprintf(&b, "🔧 *%s — %s*\n\n", g.ReportName(), PeriodLabel(period))
	fmt.Fprintf(&b, "📋 Total de ordens: %d\n", metrics.TotalServices)
	fmt.Fprintf(&b, "✅ Concluídas: %d\n", metrics.CompletedServices)
	fmt.Fprintf(&b, "⏳ Pendentes: %d\n", metrics.PendingServices)
	fmt.Fprintf(&b, "❌ Canceladas: %d\n", metrics.CanceledServices)
	fmt.Fprintf(&b, "📈 Taxa de conclusão: %.1f%%\n", completionRate)
	fmt.Fprintf(&b, "💰 Receita: %s\n", FormatBRL(metrics.Revenue))
	fmt.Fprintf(&b, "🎯 Ticket Médio: %s\n\n", FormatBRL(metrics.AverageTicket))
	b.WriteString(generatedAt())

	keyboard := [][]domain.Button{
		{
			{Text: "🔍 Menu de Serviços", CallbackData: menu.CallbackServicesMenu},
		},
		menu.BackRow(),
	}

	return domain.KeyboardResponse(b.String(), keyboard)
}
