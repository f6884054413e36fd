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

// ProductsGenerator reports the current state of the product catalog.
type ProductsGenerator struct {
	products ProductMetrics
	logger   *logrus.Entry
}

// NewProductsGenerator constructs the products report generator.
func NewProductsGenerator(products ProductMetrics, logger *logrus.Entry) *ProductsGenerator {
	if logger == nil {
		logger = logging.Logger()
	}

	return &ProductsGenerator{
		products: products,
		logger:   logger,
	}
}

// ReportType identifies the generator in callback data.
func (g *ProductsGenerator) ReportType() string { return TypeProducts }

// ReportName is the human-readable report title.
func (g *ProductsGenerator) ReportName() string { return "Relatório de Produtos" }

// AvailablePeriods lists the supported reporting windows.
func (g *ProductsGenerator) AvailablePeriods() []string { return AvailablePeriods() }

// Generate builds the catalog report. The snapshot ignores the period
// parameter but accepts it for interface parity with the other generators.
// Unlike the other generators, data-source failures here carry no details
// line, only the generic message and the recovery button.
func (g *ProductsGenerator) Generate(ctx context.Context, chatID int64, params map[string]string) domain.Response {
	if ctx == nil {
		ctx = context.Background()
	}

	centerID := params["center_id"]

	stats, err := g.products.GetDashboardStats(ctx, centerID)
	if err != nil {
		g.logger.WithFields(logging.Fields{
			"event":   "report_products_failed",
			"chat_id": chatID,
		}).WithError(err).Error("failed to fetch product stats")

		return errorResponse(err.Error(), "", false)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "📦 *%s*\n\n", g.ReportName())
	fmt.Fprintf(&b, "🗂 Total de produtos: %d\n", stats.TotalProducts)
	fmt.Fprintf(&b, "✅ Ativos: %d\n", stats.ActiveProducts)
	fmt.Fprintf(&b, "⚠️ Estoque baixo: %d\n", stats.LowStockProducts)
	fmt.Fprintf(&b, "🚫 Sem estoque: %d\n", stats.OutOfStock)
	fmt.Fprintf(&b, "💰 Valor em estoque: %s\n\n", FormatBRL(stats.InventoryValue))
	b.WriteString(generatedAt())

	keyboard := [][]domain.Button{
		{
			{Text: "🔍 Menu de Produtos", CallbackData: menu.CallbackProductsMenu},
		},
		menu.BackRow(),
	}

	return domain.KeyboardResponse(b.String(), keyboard)
}
